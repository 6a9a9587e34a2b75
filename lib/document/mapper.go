package document

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/croftdb/croft/lib/logger"
	"github.com/croftdb/croft/lib/record"
)

var Logger = logger.GetLogger("document")

// aliases for the store-managed field names
const (
	idField         = record.FieldID
	typeField       = record.FieldTypeID
	tenantField     = record.FieldTenantID
	parentField     = record.FieldParent
	createTimeField = record.FieldCreateTime
	updateTimeField = record.FieldUpdateTime
	contentsField   = record.FieldContents
)

// --------------------------------------------------------------------------
// Child Persistence Hook
// --------------------------------------------------------------------------

// ChildStore persists nested records encountered while mapping an owner.
// The facade implements it: nested records are first-class records of their
// own type, stored in their own namespace with parent set to the owner's id.
type ChildStore interface {
	// SaveChild persists the record (assigning an id if it has none) and
	// returns the id it is stored under.
	SaveChild(rec record.Record) (int64, error)
}

// --------------------------------------------------------------------------
// Record -> Document
// --------------------------------------------------------------------------

// ToDocument flattens a record into the field set the index stores. Nested
// record fields are persisted through children first; the owner's document
// only keeps a marker value. A field whose runtime value does not match its
// declared kind is logged and skipped, it never aborts the whole document.
//
// The owner record must already have its id assigned: nested records store it
// as their parent back-reference.
func ToDocument(registry *record.Registry, rec record.Record, children ChildStore) (Document, error) {
	schema, ok := registry.Lookup(rec.TypeID())
	if !ok {
		return nil, fmt.Errorf("document: unknown record type %q", rec.TypeID())
	}

	doc := Document{
		typeField: String(schema.TypeID),
		idField:   String(strconv.FormatInt(rec.ID(), 10)),
	}
	if rec.TenantID() != "" {
		doc[tenantField] = String(rec.TenantID())
	}
	if rec.Parent() != 0 {
		doc[parentField] = String(strconv.FormatInt(rec.Parent(), 10))
	}
	if !rec.CreateTime().IsZero() {
		doc[createTimeField] = Time(rec.CreateTime())
	}
	if !rec.UpdateTime().IsZero() {
		doc[updateTimeField] = Time(rec.UpdateTime())
	}

	// every textual attribute is appended here so an unqualified keyword
	// search can match across the whole record
	var contents []string

	for i := range schema.Fields {
		f := &schema.Fields[i]
		if f.Transient {
			continue
		}
		raw := f.Get(rec)
		if raw == nil {
			continue
		}

		switch f.Kind {
		case record.KindString:
			s, ok := raw.(string)
			if !ok {
				logFieldSkip(schema.TypeID, f, raw)
				continue
			}
			if s == "" {
				continue
			}
			doc[f.Name] = String(s)
			contents = append(contents, s)

		case record.KindInt:
			n, ok := toInt64(raw)
			if !ok {
				logFieldSkip(schema.TypeID, f, raw)
				continue
			}
			doc[f.Name] = Number(float64(n))

		case record.KindFloat:
			n, ok := raw.(float64)
			if !ok {
				logFieldSkip(schema.TypeID, f, raw)
				continue
			}
			doc[f.Name] = Number(n)

		case record.KindBool:
			b, ok := raw.(bool)
			if !ok {
				logFieldSkip(schema.TypeID, f, raw)
				continue
			}
			doc[f.Name] = Bool(b)

		case record.KindTime:
			t, ok := raw.(time.Time)
			if !ok {
				logFieldSkip(schema.TypeID, f, raw)
				continue
			}
			if t.IsZero() {
				continue
			}
			doc[f.Name] = Time(t)

		case record.KindStringList:
			l, ok := toStringList(raw)
			if !ok {
				logFieldSkip(schema.TypeID, f, raw)
				continue
			}
			if len(l) == 0 {
				continue
			}
			doc[f.Name] = StringList(l)
			contents = append(contents, l...)

		case record.KindRecord:
			child, ok := raw.(record.Record)
			if !ok || isNilRecord(child) {
				logFieldSkip(schema.TypeID, f, raw)
				continue
			}
			child.SetParent(rec.ID())
			if child.TenantID() == "" {
				child.SetTenantID(rec.TenantID())
			}
			childID, err := children.SaveChild(child)
			if err != nil {
				Logger.Errorf("skipping nested field %s.%s: %v", schema.TypeID, f.Name, err)
				continue
			}
			doc[f.Name] = Ref(childID)

		case record.KindRecordList:
			list, ok := toRecordList(raw)
			if !ok {
				logFieldSkip(schema.TypeID, f, raw)
				continue
			}
			if len(list) == 0 {
				continue
			}
			stored := 0
			for _, child := range list {
				if isNilRecord(child) {
					Logger.Warningf("skipping nil element of %s.%s", schema.TypeID, f.Name)
					continue
				}
				child.SetParent(rec.ID())
				if child.TenantID() == "" {
					child.SetTenantID(rec.TenantID())
				}
				if _, err := children.SaveChild(child); err != nil {
					Logger.Errorf("skipping element of %s.%s: %v", schema.TypeID, f.Name, err)
					continue
				}
				stored++
			}
			if stored > 0 {
				// no element ids here: the marker only triggers the
				// follow-up parent == owner query on read
				doc[f.Name] = ParentRef(rec.ID())
			}
		}
	}

	if len(contents) > 0 {
		doc[contentsField] = String(strings.Join(contents, " "))
	}
	return doc, nil
}

// --------------------------------------------------------------------------
// Document -> Record
// --------------------------------------------------------------------------

// FromDocument instantiates the concrete type named by the document's
// discriminator and sets every scalar field from its stored value. Reference
// markers (Ref/ParentRef) are left untouched: resolving them requires
// follow-up queries and is owned by the query reader.
func FromDocument(registry *record.Registry, doc Document) (record.Record, error) {
	typeID := doc.TypeID()
	schema, ok := registry.Lookup(typeID)
	if !ok {
		return nil, fmt.Errorf("document: unknown record type %q", typeID)
	}

	rec := schema.New()
	rec.SetID(doc.ID())
	if v, ok := doc[tenantField]; ok {
		rec.SetTenantID(v.Str)
	}
	if v, ok := doc[parentField]; ok {
		if parent, err := strconv.ParseInt(v.Str, 10, 64); err == nil {
			rec.SetParent(parent)
		}
	}
	if v, ok := doc[createTimeField]; ok && v.Kind == VKNumber {
		rec.SetCreateTime(millisToTime(v.Num))
	}
	if v, ok := doc[updateTimeField]; ok && v.Kind == VKNumber {
		rec.SetUpdateTime(millisToTime(v.Num))
	}

	for i := range schema.Fields {
		f := &schema.Fields[i]
		if f.Transient {
			continue
		}
		v, ok := doc[f.Name]
		if !ok {
			continue
		}

		switch f.Kind {
		case record.KindString:
			if v.Kind == VKString {
				f.Set(rec, v.Str)
			}
		case record.KindInt:
			if v.Kind == VKNumber {
				f.Set(rec, int64(v.Num))
			}
		case record.KindFloat:
			if v.Kind == VKNumber {
				f.Set(rec, v.Num)
			}
		case record.KindBool:
			if v.Kind == VKString {
				f.Set(rec, v.Str == "true")
			}
		case record.KindTime:
			if v.Kind == VKNumber {
				f.Set(rec, millisToTime(v.Num))
			}
		case record.KindStringList:
			if v.Kind == VKString && v.Str != "" {
				f.Set(rec, strings.Split(v.Str, ListDelimiter))
			}
		case record.KindRecord, record.KindRecordList:
			// resolved by the reader
		}
	}
	return rec, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func logFieldSkip(typeID string, f *record.Field, raw interface{}) {
	Logger.Warningf("skipping field %s.%s: value %T does not match declared kind %s", typeID, f.Name, raw, f.Kind)
}

func millisToTime(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

func toInt64(raw interface{}) (int64, bool) {
	switch n := raw.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func toStringList(raw interface{}) ([]string, bool) {
	l, ok := raw.([]string)
	return l, ok
}

func toRecordList(raw interface{}) ([]record.Record, bool) {
	l, ok := raw.([]record.Record)
	return l, ok
}

// isNilRecord catches a typed nil pointer hiding behind the record
// interface, which an unguarded schema Get can return for an unset nested
// field. Calling any Base method on such a value would panic.
func isNilRecord(rec record.Record) bool {
	if rec == nil {
		return true
	}
	v := reflect.ValueOf(rec)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
