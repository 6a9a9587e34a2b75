package document

import (
	"strings"
	"testing"
	"time"

	"github.com/croftdb/croft/lib/record"
)

func mapperRegistry(t *testing.T) *record.Registry {
	t.Helper()
	reg := record.NewRegistry()
	err := reg.Register(record.GenericSchema("widget", true, []record.GenericField{
		{Name: "name", Kind: record.KindString},
		{Name: "amount", Kind: record.KindInt},
		{Name: "price", Kind: record.KindFloat},
		{Name: "active", Kind: record.KindBool},
		{Name: "due", Kind: record.KindTime},
		{Name: "tags", Kind: record.KindStringList},
		{Name: "drive", Kind: record.KindRecord, ElemType: "gear"},
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	err = reg.Register(record.GenericSchema("gear", true, []record.GenericField{
		{Name: "label", Kind: record.KindString},
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return reg
}

// childRecorder remembers saved children and hands out fixed ids.
type childRecorder struct {
	saved  []record.Record
	nextID int64
}

func (c *childRecorder) SaveChild(rec record.Record) (int64, error) {
	c.nextID++
	rec.SetID(c.nextID)
	c.saved = append(c.saved, rec)
	return c.nextID, nil
}

func TestToDocumentScalars(t *testing.T) {
	reg := mapperRegistry(t)
	due := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := record.NewGeneric("widget")
	rec.SetID(3)
	rec.SetTenantID("acme")
	rec.SetValue("name", "rotor")
	rec.SetValue("amount", int64(7))
	rec.SetValue("price", 12.5)
	rec.SetValue("active", true)
	rec.SetValue("due", due)
	rec.SetValue("tags", []string{"spare", "metal"})

	doc, err := ToDocument(reg, rec, &childRecorder{})
	if err != nil {
		t.Fatalf("ToDocument failed: %v", err)
	}

	if doc["id"].Str != "3" || doc["type_id"].Str != "widget" || doc["tenant_id"].Str != "acme" {
		t.Errorf("System fields wrong: %+v", doc)
	}
	if doc["name"].Str != "rotor" {
		t.Errorf("Expected name rotor, got %+v", doc["name"])
	}
	if doc["amount"].Num != 7 || doc["price"].Num != 12.5 {
		t.Errorf("Numeric fields wrong: %+v %+v", doc["amount"], doc["price"])
	}
	if doc["active"].Str != "true" {
		t.Errorf("Expected bool as string, got %+v", doc["active"])
	}
	if doc["due"].Num != float64(due.UnixMilli()) {
		t.Errorf("Expected epoch millis, got %+v", doc["due"])
	}
	if doc["tags"].Str != "spare"+ListDelimiter+"metal" {
		t.Errorf("Expected delimited tags, got %q", doc["tags"].Str)
	}

	// textual attributes feed the catch-all field
	contents := doc["contents"].Str
	for _, want := range []string{"rotor", "spare", "metal"} {
		if !strings.Contains(contents, want) {
			t.Errorf("Expected contents to contain %q, got %q", want, contents)
		}
	}
}

func TestToDocumentNestedRecord(t *testing.T) {
	reg := mapperRegistry(t)

	gear := record.NewGeneric("gear")
	gear.SetValue("label", "main")

	rec := record.NewGeneric("widget")
	rec.SetID(5)
	rec.SetTenantID("acme")
	rec.SetValue("drive", record.Record(gear))

	children := &childRecorder{}
	doc, err := ToDocument(reg, rec, children)
	if err != nil {
		t.Fatalf("ToDocument failed: %v", err)
	}

	if len(children.saved) != 1 {
		t.Fatalf("Expected 1 saved child, got %d", len(children.saved))
	}
	if gear.Parent() != 5 {
		t.Errorf("Expected child parent 5, got %d", gear.Parent())
	}
	if gear.TenantID() != "acme" {
		t.Errorf("Expected child to inherit tenant, got %q", gear.TenantID())
	}
	if v := doc["drive"]; v.Kind != VKRef || v.ID != gear.ID() {
		t.Errorf("Expected ref to saved child, got %+v", v)
	}
}

func TestToDocumentNilNestedRecordSkipped(t *testing.T) {
	reg := mapperRegistry(t)

	rec := record.NewGeneric("widget")
	rec.SetID(9)
	rec.SetTenantID("acme")
	rec.SetValue("name", "rotor")
	// a typed nil pointer still satisfies the record interface
	rec.SetValue("drive", record.Record((*record.Generic)(nil)))

	children := &childRecorder{}
	doc, err := ToDocument(reg, rec, children)
	if err != nil {
		t.Fatalf("ToDocument failed: %v", err)
	}
	if len(children.saved) != 0 {
		t.Errorf("Expected no children saved for nil nested record, got %d", len(children.saved))
	}
	if _, ok := doc["drive"]; ok {
		t.Errorf("Expected nil nested field to be skipped, got %+v", doc["drive"])
	}
	if doc["name"].Str != "rotor" {
		t.Errorf("Expected remaining fields mapped, got %+v", doc["name"])
	}
}

func TestFromDocumentRoundTrip(t *testing.T) {
	reg := mapperRegistry(t)
	due := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := record.NewGeneric("widget")
	rec.SetID(3)
	rec.SetTenantID("acme")
	rec.SetCreateTime(due)
	rec.SetUpdateTime(due)
	rec.SetValue("name", "rotor")
	rec.SetValue("amount", int64(7))
	rec.SetValue("active", true)
	rec.SetValue("tags", []string{"spare", "metal"})

	doc, err := ToDocument(reg, rec, &childRecorder{})
	if err != nil {
		t.Fatalf("ToDocument failed: %v", err)
	}
	// simulate the index round trip
	doc = FromIndexFields(doc.IndexFields())

	back, err := FromDocument(reg, doc)
	if err != nil {
		t.Fatalf("FromDocument failed: %v", err)
	}
	got := back.(*record.Generic)

	if back.ID() != 3 || back.TenantID() != "acme" {
		t.Errorf("Identity fields wrong: id=%d tenant=%s", back.ID(), back.TenantID())
	}
	if !back.CreateTime().Equal(due) || !back.UpdateTime().Equal(due) {
		t.Errorf("Timestamps wrong: %v %v", back.CreateTime(), back.UpdateTime())
	}
	if got.Value("name") != "rotor" {
		t.Errorf("Expected rotor, got %v", got.Value("name"))
	}
	if got.Value("amount") != int64(7) {
		t.Errorf("Expected 7, got %v", got.Value("amount"))
	}
	if got.Value("active") != true {
		t.Errorf("Expected true, got %v", got.Value("active"))
	}
	tags, _ := got.Value("tags").([]string)
	if len(tags) != 2 || tags[0] != "spare" {
		t.Errorf("Expected tags restored, got %v", tags)
	}
}

func TestFromDocumentUnknownType(t *testing.T) {
	reg := mapperRegistry(t)
	doc := Document{"type_id": String("nope")}
	if _, err := FromDocument(reg, doc); err == nil {
		t.Errorf("Expected error for unknown type")
	}
}
