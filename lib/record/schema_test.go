package record

import (
	"testing"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	s := GenericSchema("widget", true, []GenericField{
		{Name: "name", Kind: KindString},
	})
	if err := reg.Register(s); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, ok := reg.Lookup("widget")
	if !ok {
		t.Fatalf("Expected schema for widget")
	}
	if got.TypeID != "widget" || !got.TenantScoped {
		t.Errorf("Lookup returned wrong schema: %+v", got)
	}

	if _, ok := reg.Lookup("nope"); ok {
		t.Errorf("Expected no schema for unknown type")
	}
}

func TestRegistryRejectsInvalidSchemas(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(&Schema{}); err == nil {
		t.Errorf("Expected error for schema without type id")
	}

	if err := reg.Register(&Schema{TypeID: "x"}); err == nil {
		t.Errorf("Expected error for schema without constructor")
	}

	bad := GenericSchema("x", false, []GenericField{{Name: "id", Kind: KindString}})
	if err := reg.Register(bad); err == nil {
		t.Errorf("Expected error for schema redeclaring a system field")
	}

	dup := GenericSchema("y", false, nil)
	if err := reg.Register(dup); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := reg.Register(dup); err == nil {
		t.Errorf("Expected error for duplicate type id")
	}
}

func TestSchemaFieldLookup(t *testing.T) {
	s := GenericSchema("widget", false, []GenericField{
		{Name: "name", Kind: KindString},
		{Name: "amount", Kind: KindInt},
	})

	if f := s.Field("amount"); f == nil || f.Kind != KindInt {
		t.Errorf("Expected amount field of kind int, got %+v", f)
	}
	if f := s.Field("missing"); f != nil {
		t.Errorf("Expected nil for unknown field, got %+v", f)
	}
}

func TestGenericGetSet(t *testing.T) {
	s := GenericSchema("widget", false, []GenericField{
		{Name: "name", Kind: KindString},
		{Name: "amount", Kind: KindInt},
	})

	rec := s.New()
	s.Field("name").Set(rec, "rotor")
	s.Field("amount").Set(rec, int64(7))

	if v := s.Field("name").Get(rec); v != "rotor" {
		t.Errorf("Expected rotor, got %v", v)
	}
	if v := s.Field("amount").Get(rec); v != int64(7) {
		t.Errorf("Expected 7, got %v", v)
	}
	if v := rec.(*Generic).Value("unset"); v != nil {
		t.Errorf("Expected nil for unset field, got %v", v)
	}
}

func TestParseFieldKind(t *testing.T) {
	for _, k := range []FieldKind{KindString, KindInt, KindFloat, KindBool, KindTime, KindStringList, KindRecord, KindRecordList} {
		parsed, ok := ParseFieldKind(k.String())
		if !ok || parsed != k {
			t.Errorf("Round trip failed for kind %v", k)
		}
	}
	if _, ok := ParseFieldKind("nope"); ok {
		t.Errorf("Expected unknown kind to fail")
	}
}

func TestIsSystemField(t *testing.T) {
	for _, name := range []string{FieldID, FieldTypeID, FieldTenantID, FieldParent, FieldCreateTime, FieldUpdateTime, FieldContents} {
		if !IsSystemField(name) {
			t.Errorf("Expected %s to be a system field", name)
		}
	}
	if IsSystemField("name") {
		t.Errorf("Expected name not to be a system field")
	}
}
