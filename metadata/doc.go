// Package metadata derives ordered property descriptors from entity struct
// types, maps native field types to SQL column types, and caches the result
// per type for the process lifetime. The same descriptors drive schema
// generation, positional statement binding, and row scanning.
package metadata
