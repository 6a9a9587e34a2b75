// Package store provides the high-level interface of the document engine:
// typed records go in, are flattened to indexed documents in per-namespace
// full-text indexes, and come back out through searches. It ties together
// the schema registry, namespace resolver, document mapper, index manager
// and query reader, adding id sequencing, merge-on-update semantics,
// cascading deletes and unified error reporting.
//
// The package focuses on:
//   - A unified interface (IDocStore) covering the create/update/save,
//     delete and search operations of the engine
//   - Typed error reporting via Error and RetCode, so callers can branch on
//     specific failure classes (halted, lock recovery, persist failure, ...)
//
// Key behaviors:
//
//   - Id Sequences: ids are handed out per record type, shared across
//     tenants, and bootstrapped after a restart from the persisted
//     per-namespace document counts.
//
//   - Merge on Update: an update carries forward every stored field the
//     incoming record leaves empty; the clear sentinel (record.ClearValue)
//     explicitly empties a field.
//
//   - Nested Records: record-valued fields are persisted as separate
//     documents in their own namespace and deleted together with their
//     owner.
//
//   - Namespace Metadata: after every committed write batch the store
//     persists document count and indexing timings of the namespace as a
//     namespace_meta record in one global namespace.
//
//   - Shutdown: Halt rejects new writes while reads keep working; Close
//     additionally drains in-flight writes (bounded) and releases every
//     namespace, including its on-disk write lock.
//
// Thread-safety: the store is safe for concurrent use. Writes to the same
// namespace serialize; writes to different namespaces run in parallel.
package store
