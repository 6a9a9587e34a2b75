package store

import (
	"time"

	"github.com/croftdb/croft/lib/document"
	"github.com/croftdb/croft/lib/index"
	"github.com/croftdb/croft/lib/namespace"
	"github.com/croftdb/croft/lib/record"
)

// MetaTypeID is the record type of the per-namespace bookkeeping records.
// They live in one global namespace under the store root.
const MetaTypeID = "namespace_meta"

const (
	metaFieldRefKey  = "ref_key"
	metaFieldTypeRef = "type_ref"
)

// Meta is the bookkeeping record kept per data namespace: its document count
// and indexing timings. Sequences bootstrap from the document counts after a
// restart.
type Meta struct {
	record.Base
	RefKey           string
	TypeRef          string
	DocCount         int64
	TotalIndexTimeMs int64
	AvgIndexTimeMs   float64
}

func (m *Meta) TypeID() string { return MetaTypeID }

func metaSchema() *record.Schema {
	return &record.Schema{
		TypeID: MetaTypeID,
		New:    func() record.Record { return &Meta{} },
		Fields: []record.Field{
			{
				Name: metaFieldRefKey,
				Kind: record.KindString,
				Get:  func(r record.Record) interface{} { return r.(*Meta).RefKey },
				Set:  func(r record.Record, v interface{}) { r.(*Meta).RefKey, _ = v.(string) },
			},
			{
				Name: metaFieldTypeRef,
				Kind: record.KindString,
				Get:  func(r record.Record) interface{} { return r.(*Meta).TypeRef },
				Set:  func(r record.Record, v interface{}) { r.(*Meta).TypeRef, _ = v.(string) },
			},
			{
				Name: "doc_count",
				Kind: record.KindInt,
				Get:  func(r record.Record) interface{} { return r.(*Meta).DocCount },
				Set:  func(r record.Record, v interface{}) { r.(*Meta).DocCount, _ = v.(int64) },
			},
			{
				Name: "total_index_time_ms",
				Kind: record.KindInt,
				Get:  func(r record.Record) interface{} { return r.(*Meta).TotalIndexTimeMs },
				Set:  func(r record.Record, v interface{}) { r.(*Meta).TotalIndexTimeMs, _ = v.(int64) },
			},
			{
				Name: "avg_index_time_ms",
				Kind: record.KindFloat,
				Get:  func(r record.Record) interface{} { return r.(*Meta).AvgIndexTimeMs },
				Set:  func(r record.Record, v interface{}) { r.(*Meta).AvgIndexTimeMs, _ = v.(float64) },
			},
		},
	}
}

// RecordStats persists the namespace statistics after every committed write
// batch. Metadata writes bypass the halt gate so they can drain during
// shutdown, and the metadata namespace itself is never tracked.
func (s *storeImpl) RecordStats(ns namespace.Namespace, stats index.Stats) {
	if ns.TypeID == MetaTypeID {
		return
	}

	metas, err := s.reader.SearchByField(MetaTypeID, "", metaFieldRefKey, ns.Key)
	if err != nil {
		log.Errorf("loading metadata for namespace %s: %v", ns.Key, err)
		return
	}
	var meta *Meta
	if len(metas) > 0 {
		meta, _ = metas[0].(*Meta)
	}
	fresh := meta == nil
	now := time.Now()
	if fresh {
		meta = &Meta{RefKey: ns.Key, TypeRef: ns.TypeID}
		meta.SetID(s.nextID(MetaTypeID))
		meta.SetCreateTime(now)
	}
	meta.DocCount = int64(stats.DocCount)
	meta.TotalIndexTimeMs = stats.TotalIndexTimeMs
	meta.AvgIndexTimeMs = stats.AvgIndexTimeMs
	meta.SetUpdateTime(now)

	doc, err := document.ToDocument(s.registry, meta, s)
	if err != nil {
		log.Errorf("mapping metadata for namespace %s: %v", ns.Key, err)
		return
	}
	metaNS, err := s.resolver.Resolve(MetaTypeID, "")
	if err != nil {
		log.Errorf("resolving metadata namespace: %v", err)
		return
	}
	if fresh {
		err = s.mgr.IndexInternal(metaNS, doc)
	} else {
		err = s.mgr.UpdateInternal(metaNS, doc)
	}
	if err != nil {
		log.Errorf("persisting metadata for namespace %s: %v", ns.Key, err)
	}
}
