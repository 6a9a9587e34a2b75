package record

// --------------------------------------------------------------------------
// Generic Records
// --------------------------------------------------------------------------

// Generic is a map-backed record for types declared at runtime (e.g. from a
// schema file) instead of compiled Go structs. Values are keyed by field name
// and hold the same dynamic types the Field Get/Set contract uses.
type Generic struct {
	Base
	typeID string
	values map[string]interface{}
}

// NewGeneric creates an empty generic record of the given type.
func NewGeneric(typeID string) *Generic {
	return &Generic{
		typeID: typeID,
		values: map[string]interface{}{},
	}
}

func (g *Generic) TypeID() string { return g.typeID }

// Value returns the raw value of a field (nil if unset).
func (g *Generic) Value(name string) interface{} {
	return g.values[name]
}

// SetValue sets the raw value of a field.
func (g *Generic) SetValue(name string, v interface{}) {
	g.values[name] = v
}

// --------------------------------------------------------------------------
// Generic Schemas
// --------------------------------------------------------------------------

// GenericField is the declarative form of a field descriptor.
type GenericField struct {
	Name     string
	Kind     FieldKind
	ElemType string
}

// GenericSchema builds a Schema for a map-backed record type. The Get/Set
// closures read and write the Generic value map directly.
func GenericSchema(typeID string, tenantScoped bool, fields []GenericField) *Schema {
	s := &Schema{
		TypeID:       typeID,
		TenantScoped: tenantScoped,
		New:          func() Record { return NewGeneric(typeID) },
	}

	for _, gf := range fields {
		name := gf.Name
		s.Fields = append(s.Fields, Field{
			Name:     name,
			Kind:     gf.Kind,
			ElemType: gf.ElemType,
			Get: func(r Record) interface{} {
				return r.(*Generic).Value(name)
			},
			Set: func(r Record, v interface{}) {
				r.(*Generic).SetValue(name, v)
			},
		})
	}

	return s
}
