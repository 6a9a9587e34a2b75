package document

import (
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Marker Encoding
// --------------------------------------------------------------------------

// Marker prefixes used inside the stored index value to encode references to
// other records. They exist only on disk: everywhere above this codec a
// reference is the typed Value below, never a parsed string.
const (
	refMarker       = "@ref@"
	parentRefMarker = "@parentref@"
)

// ListDelimiter joins a collection of non-record primitives into the one
// delimited string value the index stores for it.
const ListDelimiter = "\x1f"

// --------------------------------------------------------------------------
// Typed Values
// --------------------------------------------------------------------------

// ValueKind identifies what a stored document value carries.
type ValueKind uint8

const (
	VKString    ValueKind = iota // plain string (also bools and delimited lists)
	VKNumber                     // numeric value (also timestamps, as epoch millis)
	VKRef                        // reference to a nested record by id
	VKParentRef                  // back-reference trigger: nested collection owned by ID
)

// Value is one stored field of a flat document. References are tagged values
// carrying the id directly instead of a string that needs parsing.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	ID   int64
}

func String(s string) Value       { return Value{Kind: VKString, Str: s} }
func Number(f float64) Value      { return Value{Kind: VKNumber, Num: f} }
func Ref(id int64) Value          { return Value{Kind: VKRef, ID: id} }
func ParentRef(id int64) Value    { return Value{Kind: VKParentRef, ID: id} }
func Bool(b bool) Value           { return String(strconv.FormatBool(b)) }
func Time(t time.Time) Value      { return Number(float64(t.UnixMilli())) }
func StringList(l []string) Value { return String(strings.Join(l, ListDelimiter)) }

// EncodeRef returns the stored index term for a reference to a nested
// record. Exported for query compilation; never parse the result, use
// FromIndexFields.
func EncodeRef(id int64) string {
	return refMarker + strconv.FormatInt(id, 10)
}

// EncodeParentRef returns the stored index term for a nested collection
// owned by the given record id.
func EncodeParentRef(id int64) string {
	return parentRefMarker + strconv.FormatInt(id, 10)
}

// --------------------------------------------------------------------------
// Document
// --------------------------------------------------------------------------

// Document is the flat field set stored for one record: field name to value.
// Every document carries the record-type discriminator so it is
// self-describing on read.
type Document map[string]Value

// ID returns the record id stored in the document (0 if absent).
func (d Document) ID() int64 {
	v, ok := d[idField]
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(v.Str, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// TypeID returns the record-type discriminator stored in the document.
func (d Document) TypeID() string {
	return d[typeField].Str
}

// IndexFields lowers the document to the scalar map the index engine stores.
// This is one of the two places the marker encoding exists.
func (d Document) IndexFields() map[string]interface{} {
	fields := make(map[string]interface{}, len(d))
	for name, v := range d {
		switch v.Kind {
		case VKNumber:
			fields[name] = v.Num
		case VKRef:
			fields[name] = EncodeRef(v.ID)
		case VKParentRef:
			fields[name] = EncodeParentRef(v.ID)
		default:
			fields[name] = v.Str
		}
	}
	return fields
}

// FromIndexFields rebuilds a document from the stored field map the engine
// returns for a hit. This is the other place the marker encoding exists:
// marker strings are parsed here, strictly, and nowhere else.
func FromIndexFields(fields map[string]interface{}) Document {
	doc := make(Document, len(fields))
	for name, raw := range fields {
		doc[name] = decodeIndexValue(raw)
	}
	return doc
}

func decodeIndexValue(raw interface{}) Value {
	switch v := raw.(type) {
	case string:
		if id, ok := parseMarker(v, refMarker); ok {
			return Ref(id)
		}
		if id, ok := parseMarker(v, parentRefMarker); ok {
			return ParentRef(id)
		}
		return String(v)
	case float64:
		return Number(v)
	case bool:
		return Bool(v)
	case []interface{}:
		// multi-valued stored field: the engine may hand back a slice even
		// for fields this mapper only ever stores once
		if len(v) > 0 {
			return decodeIndexValue(v[0])
		}
		return String("")
	default:
		return String("")
	}
}

// parseMarker extracts the id from a marker-prefixed value. A prefixed value
// whose remainder is not a valid id is treated as a plain string, not an
// error.
func parseMarker(s, marker string) (int64, bool) {
	if !strings.HasPrefix(s, marker) {
		return 0, false
	}
	id, err := strconv.ParseInt(s[len(marker):], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
