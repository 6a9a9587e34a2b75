package store

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/croftdb/croft/lib/document"
	"github.com/croftdb/croft/lib/index"
	"github.com/croftdb/croft/lib/logger"
	"github.com/croftdb/croft/lib/namespace"
	"github.com/croftdb/croft/lib/query"
	"github.com/croftdb/croft/lib/record"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("store")

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures a document store.
type Options struct {
	// Root is the directory all namespace indexes live under.
	Root string
	// Registry holds the record schemas the store accepts.
	Registry *record.Registry
	// DrainTimeout bounds how long Close waits for in-flight writes.
	// Zero means the default drain timeout.
	DrainTimeout time.Duration
}

// --------------------------------------------------------------------------
// Implementation
// --------------------------------------------------------------------------

// storeImpl wires the engine together: the namespace resolver decides where
// a record lives, the mapper flattens it, the index manager persists it and
// the query reader brings it back. Id sequences are per record type, shared
// across tenants.
type storeImpl struct {
	registry  *record.Registry
	resolver  *namespace.Resolver
	mgr       *index.Manager
	reader    *query.Reader
	sequences *xsync.MapOf[string, *atomic.Int64]
}

// New creates a document store rooted at opts.Root. The namespace-metadata
// type is registered on the given registry if it is not already present.
func New(opts Options) (IDocStore, error) {
	if opts.Root == "" {
		return nil, NewError(RetCInvalidRecord, "store root must not be empty")
	}
	if opts.Registry == nil {
		return nil, NewError(RetCInvalidRecord, "registry must not be nil")
	}
	if _, ok := opts.Registry.Lookup(MetaTypeID); !ok {
		if err := opts.Registry.Register(metaSchema()); err != nil {
			return nil, NewErrorf(RetCInternalError, "registering metadata schema: %v", err)
		}
	}

	idxOpts := index.DefaultOptions()
	if opts.DrainTimeout > 0 {
		idxOpts.DrainTimeout = opts.DrainTimeout
	}

	resolver := namespace.NewResolver(opts.Root, opts.Registry)
	mgr := index.NewManager(idxOpts)
	s := &storeImpl{
		registry:  opts.Registry,
		resolver:  resolver,
		mgr:       mgr,
		reader:    query.NewReader(resolver, opts.Registry, mgr),
		sequences: xsync.NewMapOf[string, *atomic.Int64](),
	}
	mgr.SetStatsSink(s)
	return s, nil
}

// --------------------------------------------------------------------------
// Write Path
// --------------------------------------------------------------------------

func (s *storeImpl) Create(rec record.Record) error {
	return s.create(rec, false)
}

func (s *storeImpl) create(rec record.Record, internal bool) error {
	schema, ns, serr := s.prepare(rec)
	if serr != nil {
		return serr
	}

	if rec.ID() == 0 {
		rec.SetID(s.nextID(schema.TypeID))
	} else {
		s.bumpSequence(schema.TypeID, rec.ID())
	}
	now := time.Now()
	if rec.CreateTime().IsZero() {
		rec.SetCreateTime(now)
	}
	rec.SetUpdateTime(now)

	doc, err := document.ToDocument(s.registry, rec, s)
	if err != nil {
		return NewErrorf(RetCInvalidRecord, "mapping %s/%d: %v", schema.TypeID, rec.ID(), err)
	}
	if internal {
		err = s.mgr.IndexInternal(ns, doc)
	} else {
		err = s.mgr.Index(ns, doc)
	}
	if err != nil {
		return mapIndexErr(err)
	}
	return nil
}

func (s *storeImpl) Update(rec record.Record) error {
	schema, _, serr := s.prepare(rec)
	if serr != nil {
		return serr
	}
	if rec.ID() == 0 {
		return NewErrorf(RetCInvalidRecord, "update of %s without an id", schema.TypeID)
	}
	stored, found, err := s.GetByID(schema.TypeID, rec.TenantID(), rec.ID())
	if err != nil {
		return err
	}
	if !found {
		return NewErrorf(RetCNotFound, "no %s with id %d", schema.TypeID, rec.ID())
	}
	return s.update(rec, stored, schema)
}

// update merges the stored record into the incoming one and replaces the
// stored document in one batch.
func (s *storeImpl) update(rec, stored record.Record, schema *record.Schema) error {
	merge(schema, stored, rec)
	rec.SetCreateTime(stored.CreateTime())
	rec.SetUpdateTime(time.Now())
	if rec.Parent() == 0 {
		rec.SetParent(stored.Parent())
	}

	doc, err := document.ToDocument(s.registry, rec, s)
	if err != nil {
		return NewErrorf(RetCInvalidRecord, "mapping %s/%d: %v", schema.TypeID, rec.ID(), err)
	}
	ns, err := s.resolver.Resolve(schema.TypeID, rec.TenantID())
	if err != nil {
		return NewErrorf(RetCInvalidRecord, "%v", err)
	}
	if err := s.mgr.Update(ns, doc); err != nil {
		return mapIndexErr(err)
	}
	return nil
}

func (s *storeImpl) Save(rec record.Record) error {
	schema, _, serr := s.prepare(rec)
	if serr != nil {
		return serr
	}
	if rec.ID() == 0 {
		return s.create(rec, false)
	}
	stored, found, err := s.GetByID(schema.TypeID, rec.TenantID(), rec.ID())
	if err != nil {
		return err
	}
	if !found {
		// an explicit id that is not stored yet: keep it and create
		return s.create(rec, false)
	}
	return s.update(rec, stored, schema)
}

func (s *storeImpl) SaveAll(recs ...record.Record) error {
	for _, rec := range recs {
		if err := s.Save(rec); err != nil {
			return err
		}
	}
	return nil
}

// SaveChild persists a nested record on behalf of the mapper and reports the
// id it ended up with.
func (s *storeImpl) SaveChild(rec record.Record) (int64, error) {
	if err := s.Save(rec); err != nil {
		return 0, err
	}
	return rec.ID(), nil
}

// --------------------------------------------------------------------------
// Delete Path
// --------------------------------------------------------------------------

func (s *storeImpl) Delete(typeID, tenantID string, id int64) error {
	schema, ok := s.registry.Lookup(typeID)
	if !ok {
		return NewErrorf(RetCInvalidRecord, "unknown record type %q", typeID)
	}
	rec, found, err := s.GetByID(typeID, tenantID, id)
	if err != nil {
		return err
	}
	if !found {
		return NewErrorf(RetCNotFound, "no %s with id %d", typeID, id)
	}

	// nested records belong to exactly one owner, so they go down with it
	for i := range schema.Fields {
		f := &schema.Fields[i]
		if f.Kind != record.KindRecord && f.Kind != record.KindRecordList {
			continue
		}
		switch c := f.Get(rec).(type) {
		case record.Record:
			if c != nil && c.ID() != 0 {
				if err := s.deleteChild(f.ElemType, tenantID, c.ID()); err != nil {
					return err
				}
			}
		case []record.Record:
			for _, child := range c {
				if child != nil && child.ID() != 0 {
					if err := s.deleteChild(f.ElemType, tenantID, child.ID()); err != nil {
						return err
					}
				}
			}
		}
	}

	ns, err := s.resolver.Resolve(typeID, tenantID)
	if err != nil {
		return NewErrorf(RetCInvalidRecord, "%v", err)
	}
	if err := s.mgr.Delete(ns, id); err != nil {
		return mapIndexErr(err)
	}
	return nil
}

// deleteChild deletes a nested record, tolerating it being gone already:
// a record referenced both singly and as part of a collection is cascaded
// only once.
func (s *storeImpl) deleteChild(typeID, tenantID string, id int64) error {
	err := s.Delete(typeID, tenantID, id)
	var serr *Error
	if errors.As(err, &serr) && serr.Code == RetCNotFound {
		return nil
	}
	return err
}

func (s *storeImpl) DeleteAll(typeID, tenantID string, ids ...int64) error {
	for _, id := range ids {
		if err := s.Delete(typeID, tenantID, id); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Read Path
// --------------------------------------------------------------------------

func (s *storeImpl) GetByID(typeID, tenantID string, id int64) (record.Record, bool, error) {
	rec, found, err := s.reader.SearchByID(typeID, tenantID, id)
	if err != nil {
		return nil, false, NewErrorf(RetCSearchFailure, "%v", err)
	}
	return rec, found, nil
}

func (s *storeImpl) Get(typeID, tenantID string, spec query.Spec) (*query.Page, error) {
	page, err := s.reader.Search(typeID, tenantID, spec)
	if err != nil {
		return nil, NewErrorf(RetCSearchFailure, "%v", err)
	}
	return page, nil
}

func (s *storeImpl) GetOne(typeID, tenantID string, spec query.Spec) (record.Record, bool, error) {
	rec, found, err := s.reader.SearchOne(typeID, tenantID, spec)
	if err != nil {
		return nil, false, NewErrorf(RetCSearchFailure, "%v", err)
	}
	return rec, found, nil
}

func (s *storeImpl) GetAllForField(typeID, tenantID, field, value string) ([]record.Record, error) {
	recs, err := s.reader.SearchByField(typeID, tenantID, field, value)
	if err != nil {
		return nil, NewErrorf(RetCSearchFailure, "%v", err)
	}
	return recs, nil
}

func (s *storeImpl) Stats(typeID, tenantID string) (index.Stats, error) {
	ns, err := s.resolver.Resolve(typeID, tenantID)
	if err != nil {
		return index.Stats{}, NewErrorf(RetCInvalidRecord, "%v", err)
	}
	return s.mgr.Stats(ns), nil
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (s *storeImpl) Halt() {
	s.mgr.Halt()
}

func (s *storeImpl) Close() error {
	return s.mgr.Close()
}

// --------------------------------------------------------------------------
// Id Sequences
// --------------------------------------------------------------------------

// nextID hands out the next id for a record type. The sequence is shared by
// all tenants of the type and bootstrapped from the persisted namespace
// metadata on first use.
func (s *storeImpl) nextID(typeID string) int64 {
	return s.sequence(typeID).Add(1)
}

// bumpSequence raises the sequence so it never hands out an id at or below
// the given one.
func (s *storeImpl) bumpSequence(typeID string, id int64) {
	seq := s.sequence(typeID)
	for {
		cur := seq.Load()
		if cur >= id || seq.CompareAndSwap(cur, id) {
			return
		}
	}
}

func (s *storeImpl) sequence(typeID string) *atomic.Int64 {
	seq, _ := s.sequences.LoadOrCompute(typeID, func() *atomic.Int64 {
		seq := &atomic.Int64{}
		seq.Store(s.bootstrapSequence(typeID))
		return seq
	})
	return seq
}

// bootstrapSequence sums the persisted document counts of every namespace of
// the type. Counts shrink on delete, so a restart can re-hand-out an id of a
// since-deleted record; callers needing stable external identity keep their
// own key field.
func (s *storeImpl) bootstrapSequence(typeID string) int64 {
	if typeID == MetaTypeID {
		return 0
	}
	metas, err := s.reader.SearchByField(MetaTypeID, "", metaFieldTypeRef, typeID)
	if err != nil {
		log.Warningf("sequence bootstrap for %s failed, starting at 0: %v", typeID, err)
		return 0
	}
	var total int64
	for _, m := range metas {
		if meta, ok := m.(*Meta); ok {
			total += meta.DocCount
		}
	}
	if total > 0 {
		log.Infof("sequence for %s bootstrapped at %d", typeID, total)
	}
	return total
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// prepare validates the record and resolves its namespace.
func (s *storeImpl) prepare(rec record.Record) (*record.Schema, namespace.Namespace, *Error) {
	if rec == nil {
		return nil, namespace.Namespace{}, NewError(RetCInvalidRecord, "record must not be nil")
	}
	schema, ok := s.registry.Lookup(rec.TypeID())
	if !ok {
		return nil, namespace.Namespace{}, NewErrorf(RetCInvalidRecord, "unknown record type %q", rec.TypeID())
	}
	if schema.TenantScoped && rec.TenantID() == "" {
		return nil, namespace.Namespace{}, NewErrorf(RetCInvalidRecord, "type %s requires a tenant", schema.TypeID)
	}
	ns, err := s.resolver.Resolve(schema.TypeID, rec.TenantID())
	if err != nil {
		return nil, namespace.Namespace{}, NewErrorf(RetCInvalidRecord, "%v", err)
	}
	return schema, ns, nil
}

// merge carries stored field values into the incoming record where the
// incoming value is absent, and clears fields set to the clear sentinel.
// System fields are handled by the callers, not here.
func merge(schema *record.Schema, stored, incoming record.Record) {
	for i := range schema.Fields {
		f := &schema.Fields[i]
		iv := f.Get(incoming)
		if s, ok := iv.(string); ok && s == record.ClearValue {
			f.Set(incoming, "")
			continue
		}
		if !isAbsent(iv) {
			continue
		}
		if sv := f.Get(stored); !isAbsent(sv) {
			f.Set(incoming, sv)
		}
	}
}

// isAbsent reports whether a field value counts as "not provided" for merge
// purposes. Zero numbers and false bools are absent, so they cannot be
// distinguished from an omitted field on update.
func isAbsent(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case int64:
		return t == 0
	case int:
		return t == 0
	case float64:
		return t == 0
	case bool:
		return !t
	case time.Time:
		return t.IsZero()
	case []string:
		return len(t) == 0
	case record.Record:
		return t == nil
	case []record.Record:
		return len(t) == 0
	default:
		return false
	}
}

// mapIndexErr translates index-layer failures into store errors.
func mapIndexErr(err error) *Error {
	switch {
	case errors.Is(err, index.ErrHalted):
		return NewErrorf(RetCHalted, "%v", err)
	case errors.Is(err, index.ErrLockRecovery):
		return NewErrorf(RetCLockRecoveryFailure, "%v", err)
	default:
		return NewErrorf(RetCPersistFailure, "%v", err)
	}
}
