// Package document maps records to and from the flat field sets the index
// stores.
//
// The document format is deliberately flat: every field is a scalar the
// index can both filter/sort on and return for hydration from the same
// stored value. Nested records are never inlined. A nested single-reference
// field is persisted as a first-class record of its own type and the owner
// keeps only a Ref marker carrying the child's id; a nested collection
// persists each element with parent set to the owner and keeps a ParentRef
// marker that triggers a follow-up parent == owner query on read.
//
// Markers are typed tagged values (Value with kind VKRef/VKParentRef). The
// legacy "@ref@<id>" / "@parentref@<id>" string encoding still exists on
// disk, but it is produced and parsed in exactly one codec
// (Document.IndexFields / FromIndexFields) so no string-prefix parsing leaks
// into the rest of the engine.
//
// Encoding conventions: bools are stored as "true"/"false" keyword strings,
// timestamps as epoch-milliseconds numbers (numeric range and sort both
// work), string collections as one "\x1f"-delimited value, and every string
// field is additionally appended to the synthetic "contents" field that
// backs unqualified keyword search.
//
// The package also owns the wire codec (MarshalRecord/UnmarshalRecord): a
// schema-driven JSON form with nested records inline, used by the RPC layer
// and the CLI where a hydrated object graph is wanted rather than markers.
package document
