// Package namespace maps a (record type, tenant) pair to its physical index
// location and synchronization key.
//
// Record types declared tenant-scoped get one namespace per tenant; all other
// types share one global namespace regardless of the tenant id a caller
// passes. A namespace is also the lock granularity of the write path: the
// indexer serializes all mutations for a namespace on its Key while writes to
// different namespaces proceed fully in parallel.
//
// Resolution is deterministic and stateless; the resolver only caches the
// computed value per key to avoid recomputation on the hot path.
package namespace
