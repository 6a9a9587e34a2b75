// Package index implements the write path of the document store: one
// embedded full-text index per namespace, guarded by a per-namespace mutex
// and an on-disk write.lock file.
//
// All mutations for a namespace serialize on its writer; mutations for
// different namespaces run in parallel. Readers share the writer handle, so
// a committed batch is immediately visible to the next search in the same
// process.
//
// The manager recovers from two lock anomalies without operator action: a
// stale lock file left by a crashed process is deleted before opening, and
// a lock file that vanishes under a live writer triggers a close and reopen.
//
// Example:
//
//	mgr := index.NewManager(nil)
//	defer mgr.Close()
//
//	err := mgr.Index(ns, doc)
//	if err != nil {
//	    // handle error
//	}
//
// Thread-safety: all manager methods are safe for concurrent use.
package index
