// Package database provides the transaction-scoped connection binding,
// schema generation, dialects, connection configuration, error kinds and
// classification, and logging used by the repository layer.
package database
