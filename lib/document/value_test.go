package document

import (
	"testing"
	"time"
)

func TestMarkerRoundTrip(t *testing.T) {
	doc := Document{
		"drive": Ref(42),
		"gears": ParentRef(7),
	}

	fields := doc.IndexFields()
	if fields["drive"] != "@ref@42" {
		t.Errorf("Expected encoded ref, got %v", fields["drive"])
	}
	if fields["gears"] != "@parentref@7" {
		t.Errorf("Expected encoded parent ref, got %v", fields["gears"])
	}

	back := FromIndexFields(fields)
	if v := back["drive"]; v.Kind != VKRef || v.ID != 42 {
		t.Errorf("Expected ref 42, got %+v", v)
	}
	if v := back["gears"]; v.Kind != VKParentRef || v.ID != 7 {
		t.Errorf("Expected parent ref 7, got %+v", v)
	}
}

func TestMalformedMarkerStaysString(t *testing.T) {
	for _, raw := range []string{"@ref@", "@ref@abc", "@ref@12x", "@parentref@"} {
		v := decodeIndexValue(raw)
		if v.Kind != VKString || v.Str != raw {
			t.Errorf("Expected %q to decode as plain string, got %+v", raw, v)
		}
	}
}

func TestScalarValues(t *testing.T) {
	if v := Bool(true); v.Str != "true" {
		t.Errorf("Expected bool as string, got %+v", v)
	}
	if v := Bool(false); v.Str != "false" {
		t.Errorf("Expected bool as string, got %+v", v)
	}

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if v := Time(ts); v.Kind != VKNumber || v.Num != float64(ts.UnixMilli()) {
		t.Errorf("Expected epoch millis, got %+v", v)
	}

	if v := StringList([]string{"a", "b"}); v.Str != "a"+ListDelimiter+"b" {
		t.Errorf("Expected delimited list, got %q", v.Str)
	}
}

func TestDecodeIndexValueShapes(t *testing.T) {
	if v := decodeIndexValue(3.5); v.Kind != VKNumber || v.Num != 3.5 {
		t.Errorf("Expected number, got %+v", v)
	}
	if v := decodeIndexValue(true); v.Str != "true" {
		t.Errorf("Expected bool string, got %+v", v)
	}
	if v := decodeIndexValue([]interface{}{"@ref@9"}); v.Kind != VKRef || v.ID != 9 {
		t.Errorf("Expected ref from slice, got %+v", v)
	}
	if v := decodeIndexValue(nil); v.Kind != VKString || v.Str != "" {
		t.Errorf("Expected empty string for nil, got %+v", v)
	}
}

func TestDocumentIDAndType(t *testing.T) {
	doc := Document{
		"id":      String("17"),
		"type_id": String("widget"),
	}
	if doc.ID() != 17 {
		t.Errorf("Expected id 17, got %d", doc.ID())
	}
	if doc.TypeID() != "widget" {
		t.Errorf("Expected type widget, got %s", doc.TypeID())
	}
	if (Document{}).ID() != 0 {
		t.Errorf("Expected 0 for missing id")
	}
}
