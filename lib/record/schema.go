package record

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Field Kinds
// --------------------------------------------------------------------------

// FieldKind identifies the declared type of a persisted field
type FieldKind uint8

const (
	KindString     FieldKind = iota // string value
	KindInt                         // int64 value
	KindFloat                       // float64 value
	KindBool                        // bool value
	KindTime                        // time.Time value
	KindStringList                  // []string value, stored as one delimited value
	KindRecord                      // nested single Record reference
	KindRecordList                  // nested collection of Records
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindStringList:
		return "strings"
	case KindRecord:
		return "record"
	case KindRecordList:
		return "records"
	default:
		return "unknown"
	}
}

// ParseFieldKind converts a string (as used in declarative schema files)
// to a FieldKind. The boolean return value indicates whether the name is known.
func ParseFieldKind(s string) (FieldKind, bool) {
	switch s {
	case "string":
		return KindString, true
	case "int":
		return KindInt, true
	case "float":
		return KindFloat, true
	case "bool":
		return KindBool, true
	case "time":
		return KindTime, true
	case "strings":
		return KindStringList, true
	case "record":
		return KindRecord, true
	case "records":
		return KindRecordList, true
	default:
		return 0, false
	}
}

// --------------------------------------------------------------------------
// System Field Names
// --------------------------------------------------------------------------

// Names of the store-managed document fields. Schema field names must not
// collide with these. The type discriminator is always stored so documents
// are self-describing on read.
const (
	FieldID         = "id"
	FieldTypeID     = "type_id"
	FieldTenantID   = "tenant_id"
	FieldParent     = "parent"
	FieldCreateTime = "create_time"
	FieldUpdateTime = "update_time"
	FieldContents   = "contents"
)

// IsSystemField reports whether name is one of the store-managed field names.
func IsSystemField(name string) bool {
	switch name {
	case FieldID, FieldTypeID, FieldTenantID, FieldParent, FieldCreateTime, FieldUpdateTime, FieldContents:
		return true
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Schema Definition
// --------------------------------------------------------------------------

// Field describes one persisted attribute of a record type. The Get/Set
// closures replace runtime reflection: each record type spells out how its
// fields are read and written, checked at compile time.
type Field struct {
	// Name is the document field name. Must be unique within the schema and
	// must not collide with the system field names.
	Name string
	// Kind is the declared field type.
	Kind FieldKind
	// Transient marks a field that is not persisted.
	Transient bool
	// ElemType names the record type id of the nested record(s).
	// Required for KindRecord and KindRecordList, ignored otherwise.
	ElemType string
	// Get reads the field value from the record. The returned value must
	// match the Kind (string, int64, float64, bool, time.Time, []string,
	// Record or []Record).
	Get func(r Record) interface{}
	// Set writes the field value to the record. Implementations receive the
	// same dynamic types Get produces.
	Set func(r Record, v interface{})
}

// Schema is the compile-time field-descriptor table of one record type.
type Schema struct {
	// TypeID is the record-type discriminator stored with every document.
	TypeID string
	// TenantScoped types get one physical index per tenant; others share one
	// global index.
	TenantScoped bool
	// New constructs an empty record of this type.
	New func() Record
	// Fields lists the persisted attributes.
	Fields []Field
}

// Field returns the descriptor with the given name, or nil.
func (s *Schema) Field(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Registry resolves record type ids to schemas. One registry instance is
// created at process start and handed to the store; there are no package
// level schema tables.
type Registry struct {
	schemas *xsync.MapOf[string, *Schema]
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: xsync.NewMapOf[string, *Schema](),
	}
}

// Register validates and adds a schema. Registering the same type id twice
// is an error.
func (r *Registry) Register(s *Schema) error {
	if s == nil || s.TypeID == "" {
		return fmt.Errorf("schema requires a type id")
	}
	if s.New == nil {
		return fmt.Errorf("schema %q requires a constructor", s.TypeID)
	}

	seen := map[string]bool{}
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("schema %q: field %d has no name", s.TypeID, i)
		}
		if IsSystemField(f.Name) {
			return fmt.Errorf("schema %q: field %q collides with a system field", s.TypeID, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema %q: duplicate field %q", s.TypeID, f.Name)
		}
		seen[f.Name] = true
		if (f.Kind == KindRecord || f.Kind == KindRecordList) && f.ElemType == "" {
			return fmt.Errorf("schema %q: field %q requires an element type", s.TypeID, f.Name)
		}
		if f.Get == nil || f.Set == nil {
			return fmt.Errorf("schema %q: field %q requires Get and Set", s.TypeID, f.Name)
		}
	}

	if _, loaded := r.schemas.LoadOrStore(s.TypeID, s); loaded {
		return fmt.Errorf("schema %q already registered", s.TypeID)
	}
	return nil
}

// Lookup returns the schema for a type id. The boolean return value
// indicates whether the type is registered.
func (r *Registry) Lookup(typeID string) (*Schema, bool) {
	return r.schemas.Load(typeID)
}
