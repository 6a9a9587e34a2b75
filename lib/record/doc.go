// Package record defines the typed-object contract every persisted entity
// implements, plus the schema machinery the rest of the engine uses to map
// records generically.
//
// A concrete record type embeds Base, implements TypeID, and registers a
// Schema: an explicit, compile-time-checked field-descriptor table naming
// each persisted attribute together with Get/Set closures. The descriptor
// table replaces runtime reflection while preserving the "any record type,
// one mapper" design: the mapper, query reader and store facade only ever
// see Schema and Record, never concrete types.
//
// Identity and lifecycle attributes (id, tenant id, parent back-reference,
// create/update timestamps) are owned by the store. Application code reads
// them but must not assign them.
//
// For record types that only exist as external declarations (e.g. a schema
// file consumed by the server), Generic provides a map-backed Record and
// GenericSchema builds its descriptor table from a declarative field list.
//
// Usage Example:
//
//	type Widget struct {
//		record.Base
//		Name   string
//		Amount float64
//	}
//
//	func (w *Widget) TypeID() string { return "widget" }
//
//	registry := record.NewRegistry()
//	registry.Register(&record.Schema{
//		TypeID: "widget",
//		New:    func() record.Record { return &Widget{} },
//		Fields: []record.Field{
//			{Name: "name", Kind: record.KindString,
//				Get: func(r record.Record) interface{} { return r.(*Widget).Name },
//				Set: func(r record.Record, v interface{}) { r.(*Widget).Name = v.(string) }},
//			{Name: "amount", Kind: record.KindFloat,
//				Get: func(r record.Record) interface{} { return r.(*Widget).Amount },
//				Set: func(r record.Record, v interface{}) { r.(*Widget).Amount = v.(float64) }},
//		},
//	})
package record
