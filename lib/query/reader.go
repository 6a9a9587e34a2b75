package query

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	bquery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/croftdb/croft/lib/document"
	"github.com/croftdb/croft/lib/index"
	"github.com/croftdb/croft/lib/logger"
	"github.com/croftdb/croft/lib/namespace"
	"github.com/croftdb/croft/lib/record"
)

var Logger = logger.GetLogger("query")

// maxChildren bounds how many elements of a nested collection are loaded
// back when a hit is materialized.
const maxChildren = 1000

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

// Reader executes searches against namespace indexes and materializes hits
// back into typed records, including nested records, which are loaded
// recursively from their own namespaces.
//
// Reads share the index handle with the write path, so a record is findable
// as soon as the call that stored it returns.
//
// Thread-safety: all methods are safe for concurrent use.
type Reader struct {
	resolver *namespace.Resolver
	registry *record.Registry
	mgr      *index.Manager
}

// NewReader creates a reader over the given namespace layout and index
// manager.
func NewReader(resolver *namespace.Resolver, registry *record.Registry, mgr *index.Manager) *Reader {
	return &Reader{resolver: resolver, registry: registry, mgr: mgr}
}

// Search runs the spec against the namespace of the given type and tenant.
// A namespace that has never been written yields an empty page, not an
// error. Totals are exact.
func (r *Reader) Search(typeID, tenantID string, spec Spec) (*Page, error) {
	schema, ok := r.registry.Lookup(typeID)
	if !ok {
		return nil, fmt.Errorf("query: unknown record type %q", typeID)
	}
	ns, err := r.resolver.Resolve(typeID, tenantID)
	if err != nil {
		return nil, err
	}
	idx, ok, err := r.mgr.Reader(ns)
	if err != nil {
		return nil, fmt.Errorf("query: namespace %s: %w", ns.Key, err)
	}
	if !ok {
		return emptyPage(spec), nil
	}

	q := compile(schema, spec)

	// fetch-all runs a count pass first; when the caller also supplied a
	// page and limit, the result is still windowed to that page
	windowed := !spec.FetchAll || (spec.Page > 0 && spec.Limit > 0)
	from, size := 0, spec.limit()
	if spec.FetchAll {
		total, err := r.count(idx, q)
		if err != nil {
			return nil, fmt.Errorf("query: namespace %s: %w", ns.Key, err)
		}
		if total == 0 {
			return emptyPage(spec), nil
		}
		if windowed {
			from = (spec.Page - 1) * spec.Limit
			size = spec.Limit
		} else {
			size = total
		}
	} else {
		from = (spec.page() - 1) * size
	}

	req := bleve.NewSearchRequestOptions(q, size, from, false)
	req.Fields = []string{"*"}
	applySort(req, spec.Sort)

	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("query: namespace %s: %w", ns.Key, err)
	}

	items := make([]record.Record, 0, len(res.Hits))
	for _, hit := range res.Hits {
		rec, err := r.materialize(schema, tenantID, hit.Fields)
		if err != nil {
			Logger.Errorf("namespace %s: skipping hit %s: %v", ns.Key, hit.ID, err)
			continue
		}
		items = append(items, rec)
	}

	total := int(res.Total)
	page := &Page{
		Items:     items,
		Limit:     spec.limit(),
		Number:    spec.page(),
		TotalHits: total,
		Elapsed:   res.Took,
	}
	if windowed {
		page.TotalPages = (total + page.Limit - 1) / page.Limit
	} else {
		page.Number = 1
		page.TotalPages = 1
	}
	return page, nil
}

// SearchOne returns the single best hit for the spec, if any.
func (r *Reader) SearchOne(typeID, tenantID string, spec Spec) (record.Record, bool, error) {
	spec.Page = 1
	spec.Limit = 1
	spec.FetchAll = false
	page, err := r.Search(typeID, tenantID, spec)
	if err != nil {
		return nil, false, err
	}
	if len(page.Items) == 0 {
		return nil, false, nil
	}
	return page.Items[0], true, nil
}

// SearchByID loads one record by its id.
func (r *Reader) SearchByID(typeID, tenantID string, id int64) (record.Record, bool, error) {
	return r.SearchOne(typeID, tenantID, Spec{
		Filters: []Filter{{Field: record.FieldID, Value: strconv.FormatInt(id, 10)}},
	})
}

// SearchByField returns every record whose field exactly matches the value.
func (r *Reader) SearchByField(typeID, tenantID, field, value string) ([]record.Record, error) {
	page, err := r.Search(typeID, tenantID, Spec{
		FetchAll: true,
		Filters:  []Filter{{Field: field, Value: value}},
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// --------------------------------------------------------------------------
// Materialization
// --------------------------------------------------------------------------

// materialize turns one hit's stored fields back into a typed record and
// loads its nested records.
func (r *Reader) materialize(schema *record.Schema, tenantID string, fields map[string]interface{}) (record.Record, error) {
	doc := document.FromIndexFields(fields)
	rec, err := document.FromDocument(r.registry, doc)
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(schema, tenantID, rec, doc); err != nil {
		return nil, err
	}
	return rec, nil
}

// hydrate resolves the reference values of a materialized record: single
// nested records are loaded by id from their own namespace, nested
// collections by the parent back-reference.
func (r *Reader) hydrate(schema *record.Schema, tenantID string, rec record.Record, doc document.Document) error {
	for i := range schema.Fields {
		f := &schema.Fields[i]
		v, ok := doc[f.Name]
		if !ok {
			continue
		}
		switch f.Kind {
		case record.KindRecord:
			if v.Kind != document.VKRef {
				continue
			}
			child, found, err := r.SearchByID(f.ElemType, tenantID, v.ID)
			if err != nil {
				return fmt.Errorf("loading %s.%s: %w", schema.TypeID, f.Name, err)
			}
			if !found {
				Logger.Warningf("type %s: dangling reference %s -> %s/%d", schema.TypeID, f.Name, f.ElemType, v.ID)
				continue
			}
			f.Set(rec, child)
		case record.KindRecordList:
			if v.Kind != document.VKParentRef {
				continue
			}
			page, err := r.Search(f.ElemType, tenantID, Spec{
				Limit:   maxChildren,
				Filters: []Filter{{Field: record.FieldParent, Value: strconv.FormatInt(v.ID, 10)}},
			})
			if err != nil {
				return fmt.Errorf("loading %s.%s: %w", schema.TypeID, f.Name, err)
			}
			if len(page.Items) > 0 {
				f.Set(rec, page.Items)
			}
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// count runs the query with a zero-size window to get the exact hit count
// before the full result set is requested.
func (r *Reader) count(idx bleve.Index, q bquery.Query) (int, error) {
	req := bleve.NewSearchRequestOptions(q, 0, 0, false)
	res, err := idx.Search(req)
	if err != nil {
		return 0, err
	}
	return int(res.Total), nil
}

func emptyPage(spec Spec) *Page {
	return &Page{
		Items:  []record.Record{},
		Limit:  spec.limit(),
		Number: spec.page(),
	}
}

func applySort(req *bleve.SearchRequest, s *Sort) {
	if s == nil {
		return
	}
	if s.Field == "" {
		Logger.Warningf("dropping sort with empty field")
		return
	}
	typ := search.SortFieldAsString
	if s.Type == SortLong || s.Type == SortDouble {
		typ = search.SortFieldAsNumber
	}
	req.Sort = search.SortOrder{&search.SortField{
		Field:   s.Field,
		Type:    typ,
		Desc:    !s.Ascending,
		Missing: search.SortFieldMissingLast,
	}}
}
