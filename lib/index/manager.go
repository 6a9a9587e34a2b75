package index

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/blevesearch/bleve/v2"
	"github.com/croftdb/croft/lib/document"
	"github.com/croftdb/croft/lib/index/util"
	"github.com/croftdb/croft/lib/logger"
	"github.com/croftdb/croft/lib/namespace"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("index")

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrHalted is returned for non-internal mutations after Halt.
	ErrHalted = errors.New("index: halted, rejecting new mutations")
	// ErrLockRecovery is returned when a namespace writer could not be
	// (re)acquired. Subsequent operations retry acquisition on their own.
	ErrLockRecovery = errors.New("index: failed to acquire namespace writer")
	// ErrCommit is returned when a mutation batch could not be committed.
	ErrCommit = errors.New("index: commit failed")
)

// --------------------------------------------------------------------------
// Stats
// --------------------------------------------------------------------------

// Stats is the per-namespace index statistic set recorded after every
// successful mutation batch.
type Stats struct {
	DocCount         uint64  `json:"doc_count"`
	TotalIndexTimeMs int64   `json:"total_index_time_ms"`
	AvgIndexTimeMs   float64 `json:"avg_index_time_ms"`
}

// StatsSink receives the stats after each successful mutation batch. The
// store facade implements it by persisting a namespace-metadata record; the
// sink must skip the metadata type itself to avoid recursion.
type StatsSink interface {
	RecordStats(ns namespace.Namespace, stats Stats)
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures the index manager.
type Options struct {
	// DrainTimeout bounds how long Close waits for in-flight mutations
	// per namespace before closing its writer anyway.
	DrainTimeout time.Duration
}

// DefaultOptions returns the default manager options.
func DefaultOptions() *Options {
	return &Options{
		DrainTimeout: 3 * time.Minute,
	}
}

// --------------------------------------------------------------------------
// Manager
// --------------------------------------------------------------------------

// Manager owns the write path: one writer handle and one is-indexing flag
// per namespace. All mutations for a namespace serialize on its writer;
// mutations for different namespaces proceed fully in parallel. Readers
// share the writer's handle, so a committed batch is visible to the next
// search in the same process.
type Manager struct {
	opts    *Options
	writers *xsync.MapOf[string, *writer]
	halted  atomic.Bool
	sink    StatsSink
}

// writer is the per-namespace write state. The mutex is the namespace lock:
// at most one in-flight mutation per namespace.
type writer struct {
	mu       sync.Mutex
	indexing atomic.Bool
	ns       namespace.Namespace
	idx      bleve.Index
	ops      int64
	total    time.Duration
	sizes    *util.SizeHistogram
}

// NewManager creates a new index manager with the specified options (optional).
func NewManager(opts *Options) *Manager {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Manager{
		opts:    opts,
		writers: xsync.NewMapOf[string, *writer](),
	}
}

// SetStatsSink wires the per-namespace stats consumer. Called once during
// store construction, before any mutation.
func (m *Manager) SetStatsSink(sink StatsSink) {
	m.sink = sink
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Index adds the given documents to the namespace in one committed batch.
func (m *Manager) Index(ns namespace.Namespace, docs ...document.Document) error {
	return m.index(ns, false, docs...)
}

// IndexInternal is Index without the halt check. Used for metadata writes
// that must still drain during shutdown.
func (m *Manager) IndexInternal(ns namespace.Namespace, docs ...document.Document) error {
	return m.index(ns, true, docs...)
}

func (m *Manager) index(ns namespace.Namespace, internal bool, docs ...document.Document) error {
	return m.mutate(ns, internal, func(w *writer, batch *bleve.Batch) error {
		for _, doc := range docs {
			fields := doc.IndexFields()
			if err := batch.Index(docID(doc.ID()), fields); err != nil {
				return err
			}
			w.sizes.AddSample(approxSize(fields))
		}
		return nil
	})
}

// Update replaces the stored documents by id. Delete-by-id and re-add happen
// in one committed batch so there is never a duplicate document per id. The
// caller has already resolved merge semantics; this method fetches nothing.
func (m *Manager) Update(ns namespace.Namespace, docs ...document.Document) error {
	return m.update(ns, false, docs...)
}

// UpdateInternal is Update without the halt check.
func (m *Manager) UpdateInternal(ns namespace.Namespace, docs ...document.Document) error {
	return m.update(ns, true, docs...)
}

func (m *Manager) update(ns namespace.Namespace, internal bool, docs ...document.Document) error {
	return m.mutate(ns, internal, func(w *writer, batch *bleve.Batch) error {
		for _, doc := range docs {
			id := docID(doc.ID())
			batch.Delete(id)
			fields := doc.IndexFields()
			if err := batch.Index(id, fields); err != nil {
				return err
			}
			w.sizes.AddSample(approxSize(fields))
		}
		return nil
	})
}

// Delete removes one or many documents by id and commits. The writer stays
// open for subsequent operations.
func (m *Manager) Delete(ns namespace.Namespace, ids ...int64) error {
	return m.mutate(ns, false, func(w *writer, batch *bleve.Batch) error {
		for _, id := range ids {
			batch.Delete(docID(id))
		}
		return nil
	})
}

// mutate runs one mutation batch against the namespace writer under the
// namespace lock, commits, updates metrics and pushes stats to the sink.
func (m *Manager) mutate(ns namespace.Namespace, internal bool, fill func(w *writer, batch *bleve.Batch) error) error {
	if m.halted.Load() && !internal {
		return ErrHalted
	}

	w := m.writer(ns)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indexing.Store(true)
	defer w.indexing.Store(false)

	if err := w.ensureOpen(); err != nil {
		Logger.Errorf("namespace %s: %v", ns.Key, err)
		return fmt.Errorf("%w: %v", ErrLockRecovery, err)
	}

	batch := w.idx.NewBatch()
	if err := fill(w, batch); err != nil {
		return fmt.Errorf("index: failed to build batch for namespace %s: %w", ns.Key, err)
	}

	start := time.Now()
	if err := w.idx.Batch(batch); err != nil {
		Logger.Errorf("commit failed for namespace %s: %v", ns.Key, err)
		metrics.GetOrCreateCounter(fmt.Sprintf(`croft_index_commit_errors_total{namespace=%q}`, ns.Key)).Inc()
		return fmt.Errorf("%w: %v", ErrCommit, err)
	}
	elapsed := time.Since(start)
	w.ops++
	w.total += elapsed

	metrics.GetOrCreateCounter(fmt.Sprintf(`croft_index_ops_total{namespace=%q}`, ns.Key)).Inc()
	metrics.GetOrCreateSummary(fmt.Sprintf(`croft_index_seconds{namespace=%q}`, ns.Key)).Update(elapsed.Seconds())

	if m.sink != nil {
		m.sink.RecordStats(ns, w.statsLocked())
	}
	return nil
}

// --------------------------------------------------------------------------
// Read Handles and Stats
// --------------------------------------------------------------------------

// Reader returns the shared index handle for a namespace. The boolean return
// value is false when the namespace has never been indexed; searching it
// yields an empty result, not an error.
func (m *Manager) Reader(ns namespace.Namespace) (bleve.Index, bool, error) {
	if w, ok := m.writers.Load(ns.Key); ok {
		return w.handle()
	}

	// no in-memory writer: the namespace may still exist on disk from an
	// earlier process lifetime
	if _, err := os.Stat(ns.Path); os.IsNotExist(err) {
		return nil, false, nil
	}
	return m.writer(ns).handle()
}

// Stats returns the current statistics for a namespace. An unknown namespace
// yields zero stats.
func (m *Manager) Stats(ns namespace.Namespace) Stats {
	w, ok := m.writers.Load(ns.Key)
	if !ok {
		return Stats{}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.statsLocked()
}

func (m *Manager) writer(ns namespace.Namespace) *writer {
	w, _ := m.writers.LoadOrCompute(ns.Key, func() *writer {
		return &writer{ns: ns, sizes: util.NewSizeHistogram()}
	})
	return w
}

// --------------------------------------------------------------------------
// Shutdown
// --------------------------------------------------------------------------

// Halt rejects all new non-internal mutations. Internal (metadata) writes
// are still allowed to drain.
func (m *Manager) Halt() {
	m.halted.Store(true)
	Logger.Infof("halt: rejecting new mutations")
}

// Close halts, waits (bounded by DrainTimeout) for each namespace's
// in-flight mutation to finish, closes the writers and removes the lock
// files so another instance can take over cleanly.
func (m *Manager) Close() error {
	m.Halt()
	deadline := time.Now().Add(m.opts.DrainTimeout)

	var firstErr error
	m.writers.Range(func(key string, w *writer) bool {
		for w.indexing.Load() && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		w.mu.Lock()
		if w.idx != nil {
			if err := w.idx.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			w.idx = nil
		}
		removeLockFile(w.ns.Path)
		w.mu.Unlock()
		return true
	})

	Logger.Infof("closed all namespace writers")
	return firstErr
}

// --------------------------------------------------------------------------
// Writer Internals
// --------------------------------------------------------------------------

// handle returns the shared index handle, opening the writer if needed.
func (w *writer) handle() (bleve.Index, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureOpen(); err != nil {
		return nil, false, err
	}
	return w.idx, true, nil
}

// ensureOpen opens the underlying index and takes the on-disk write lock.
// Must be called with w.mu held.
//
// Two recovery cases:
//   - stale lock: the lock file exists but this writer holds no handle (the
//     previous process crashed) -> delete the lock file, then open.
//   - vanished lock: this writer holds a handle but the lock file is gone
//     (external interference) -> close and reopen to re-acquire a fresh lock.
func (w *writer) ensureOpen() error {
	if w.idx != nil {
		if hasLockFile(w.ns.Path) {
			return nil
		}
		Logger.Warningf("write lock for namespace %s vanished, reopening", w.ns.Key)
		if err := w.idx.Close(); err != nil {
			Logger.Errorf("closing namespace %s for reopen: %v", w.ns.Key, err)
		}
		w.idx = nil
	}

	if hasLockFile(w.ns.Path) {
		Logger.Warningf("removing stale write lock for namespace %s", w.ns.Key)
		if err := removeLockFile(w.ns.Path); err != nil {
			return fmt.Errorf("failed to clear stale lock: %v", err)
		}
	}

	idx, err := openIndex(w.ns.Path)
	if err != nil {
		return err
	}
	if err := createLockFile(w.ns.Path); err != nil {
		_ = idx.Close()
		return err
	}
	w.idx = idx

	metrics.GetOrCreateGauge(fmt.Sprintf(`croft_index_docs{namespace=%q}`, w.ns.Key), func() float64 {
		if w.idx == nil {
			return 0
		}
		n, err := w.idx.DocCount()
		if err != nil {
			return 0
		}
		return float64(n)
	})
	metrics.GetOrCreateGauge(fmt.Sprintf(`croft_index_doc_bytes_avg{namespace=%q}`, w.ns.Key), func() float64 {
		return float64(w.sizes.AverageSize())
	})
	return nil
}

// statsLocked must be called with w.mu held.
func (w *writer) statsLocked() Stats {
	var docs uint64
	if w.idx != nil {
		if n, err := w.idx.DocCount(); err == nil {
			docs = n
		}
	}
	stats := Stats{
		DocCount:         docs,
		TotalIndexTimeMs: w.total.Milliseconds(),
	}
	if w.ops > 0 {
		stats.AvgIndexTimeMs = float64(w.total.Milliseconds()) / float64(w.ops)
	}
	return stats
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// approxSize estimates the stored payload size of one document
func approxSize(fields map[string]interface{}) int {
	size := 0
	for name, v := range fields {
		size += len(name)
		if s, ok := v.(string); ok {
			size += len(s)
		} else {
			size += 8
		}
	}
	return size
}
