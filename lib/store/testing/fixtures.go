package testing

import (
	"github.com/croftdb/croft/lib/record"
)

// Widget and Gear are the fixture types the suite stores. Widget covers
// every field kind; Gear is the nested type, stored in its own namespace.

type Widget struct {
	record.Base
	Name   string
	Color  string
	Amount int64
	Price  float64
	Active bool
	Tags   []string
	Drive  *Gear
	Gears  []record.Record
}

func (w *Widget) TypeID() string { return "widget" }

type Gear struct {
	record.Base
	Label string
	Teeth int64
}

func (g *Gear) TypeID() string { return "gear" }

// NewTestRegistry builds a registry holding the fixture schemas. Both types
// are tenant scoped.
func NewTestRegistry() *record.Registry {
	reg := record.NewRegistry()
	if err := reg.Register(widgetSchema()); err != nil {
		panic(err)
	}
	if err := reg.Register(gearSchema()); err != nil {
		panic(err)
	}
	return reg
}

func widgetSchema() *record.Schema {
	return &record.Schema{
		TypeID:       "widget",
		TenantScoped: true,
		New:          func() record.Record { return &Widget{} },
		Fields: []record.Field{
			{
				Name: "name",
				Kind: record.KindString,
				Get:  func(r record.Record) interface{} { return r.(*Widget).Name },
				Set:  func(r record.Record, v interface{}) { r.(*Widget).Name, _ = v.(string) },
			},
			{
				Name: "color",
				Kind: record.KindString,
				Get:  func(r record.Record) interface{} { return r.(*Widget).Color },
				Set:  func(r record.Record, v interface{}) { r.(*Widget).Color, _ = v.(string) },
			},
			{
				Name: "amount",
				Kind: record.KindInt,
				Get:  func(r record.Record) interface{} { return r.(*Widget).Amount },
				Set:  func(r record.Record, v interface{}) { r.(*Widget).Amount, _ = v.(int64) },
			},
			{
				Name: "price",
				Kind: record.KindFloat,
				Get:  func(r record.Record) interface{} { return r.(*Widget).Price },
				Set:  func(r record.Record, v interface{}) { r.(*Widget).Price, _ = v.(float64) },
			},
			{
				Name: "active",
				Kind: record.KindBool,
				Get:  func(r record.Record) interface{} { return r.(*Widget).Active },
				Set:  func(r record.Record, v interface{}) { r.(*Widget).Active, _ = v.(bool) },
			},
			{
				Name: "tags",
				Kind: record.KindStringList,
				Get:  func(r record.Record) interface{} { return r.(*Widget).Tags },
				Set:  func(r record.Record, v interface{}) { r.(*Widget).Tags, _ = v.([]string) },
			},
			{
				Name:     "drive",
				Kind:     record.KindRecord,
				ElemType: "gear",
				Get: func(r record.Record) interface{} {
					if r.(*Widget).Drive == nil {
						return nil
					}
					return r.(*Widget).Drive
				},
				Set: func(r record.Record, v interface{}) {
					if g, ok := v.(*Gear); ok {
						r.(*Widget).Drive = g
					}
				},
			},
			{
				Name:     "gears",
				Kind:     record.KindRecordList,
				ElemType: "gear",
				Get:      func(r record.Record) interface{} { return r.(*Widget).Gears },
				Set:      func(r record.Record, v interface{}) { r.(*Widget).Gears, _ = v.([]record.Record) },
			},
		},
	}
}

func gearSchema() *record.Schema {
	return &record.Schema{
		TypeID:       "gear",
		TenantScoped: true,
		New:          func() record.Record { return &Gear{} },
		Fields: []record.Field{
			{
				Name: "label",
				Kind: record.KindString,
				Get:  func(r record.Record) interface{} { return r.(*Gear).Label },
				Set:  func(r record.Record, v interface{}) { r.(*Gear).Label, _ = v.(string) },
			},
			{
				Name: "teeth",
				Kind: record.KindInt,
				Get:  func(r record.Record) interface{} { return r.(*Gear).Teeth },
				Set:  func(r record.Record, v interface{}) { r.(*Gear).Teeth, _ = v.(int64) },
			},
		},
	}
}
