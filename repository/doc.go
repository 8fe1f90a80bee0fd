// Package repository synthesizes repository implementations for entity
// types: method names are resolved into a fixed set of query strategies,
// memoized per method, and executed on the connection bound to the calling
// context. Row mapping and positional parameter binding share one stable
// property order with the schema generator.
package repository
