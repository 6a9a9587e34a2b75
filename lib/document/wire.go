package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/croftdb/croft/lib/record"
)

// --------------------------------------------------------------------------
// Wire Codec
// --------------------------------------------------------------------------

// The wire codec serializes records to schema-driven JSON for the RPC layer
// and the CLI. Unlike the index mapping it keeps nested records inline: the
// wire carries a fully hydrated object graph, not markers.

// MarshalRecord encodes a record (including nested records) as JSON.
func MarshalRecord(registry *record.Registry, rec record.Record) ([]byte, error) {
	obj, err := recordToWire(registry, rec)
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// UnmarshalRecord decodes JSON produced by MarshalRecord (or hand-written by
// a client) into a record of the given type. Fields whose JSON value does
// not match the declared kind are logged and skipped.
func UnmarshalRecord(registry *record.Registry, typeID string, data []byte) (record.Record, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("document: invalid record payload: %w", err)
	}
	return wireToRecord(registry, typeID, obj)
}

func recordToWire(registry *record.Registry, rec record.Record) (map[string]interface{}, error) {
	schema, ok := registry.Lookup(rec.TypeID())
	if !ok {
		return nil, fmt.Errorf("document: unknown record type %q", rec.TypeID())
	}

	obj := map[string]interface{}{
		typeField: schema.TypeID,
	}
	if rec.ID() != 0 {
		obj[idField] = rec.ID()
	}
	if rec.TenantID() != "" {
		obj[tenantField] = rec.TenantID()
	}
	if rec.Parent() != 0 {
		obj[parentField] = rec.Parent()
	}
	if !rec.CreateTime().IsZero() {
		obj[createTimeField] = rec.CreateTime().UTC().Format(time.RFC3339Nano)
	}
	if !rec.UpdateTime().IsZero() {
		obj[updateTimeField] = rec.UpdateTime().UTC().Format(time.RFC3339Nano)
	}

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
		case record.KindTime:
			if t, ok := raw.(time.Time); ok && !t.IsZero() {
				obj[f.Name] = t.UTC().Format(time.RFC3339Nano)
			}
		case record.KindRecord:
			child, ok := raw.(record.Record)
			if !ok || isNilRecord(child) {
				continue
			}
			nested, err := recordToWire(registry, child)
			if err != nil {
				Logger.Errorf("skipping nested field %s.%s on wire: %v", schema.TypeID, f.Name, err)
				continue
			}
			obj[f.Name] = nested
		case record.KindRecordList:
			list, ok := toRecordList(raw)
			if !ok {
				continue
			}
			var nested []map[string]interface{}
			for _, child := range list {
				if isNilRecord(child) {
					continue
				}
				n, err := recordToWire(registry, child)
				if err != nil {
					Logger.Errorf("skipping element of %s.%s on wire: %v", schema.TypeID, f.Name, err)
					continue
				}
				nested = append(nested, n)
			}
			obj[f.Name] = nested
		default:
			obj[f.Name] = raw
		}
	}
	return obj, nil
}

func wireToRecord(registry *record.Registry, typeID string, obj map[string]interface{}) (record.Record, error) {
	schema, ok := registry.Lookup(typeID)
	if !ok {
		return nil, fmt.Errorf("document: unknown record type %q", typeID)
	}

	rec := schema.New()
	if n, ok := obj[idField].(float64); ok {
		rec.SetID(int64(n))
	}
	if s, ok := obj[tenantField].(string); ok {
		rec.SetTenantID(s)
	}
	if n, ok := obj[parentField].(float64); ok {
		rec.SetParent(int64(n))
	}
	if s, ok := obj[createTimeField].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			rec.SetCreateTime(t)
		}
	}
	if s, ok := obj[updateTimeField].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			rec.SetUpdateTime(t)
		}
	}

	for i := range schema.Fields {
		f := &schema.Fields[i]
		if f.Transient {
			continue
		}
		raw, ok := obj[f.Name]
		if !ok || raw == nil {
			continue
		}

		switch f.Kind {
		case record.KindString:
			if s, ok := raw.(string); ok {
				f.Set(rec, s)
			}
		case record.KindInt:
			if n, ok := raw.(float64); ok {
				f.Set(rec, int64(n))
			}
		case record.KindFloat:
			if n, ok := raw.(float64); ok {
				f.Set(rec, n)
			}
		case record.KindBool:
			if b, ok := raw.(bool); ok {
				f.Set(rec, b)
			}
		case record.KindTime:
			if s, ok := raw.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					f.Set(rec, t)
				}
			}
		case record.KindStringList:
			if l, ok := raw.([]interface{}); ok {
				strs := make([]string, 0, len(l))
				for _, e := range l {
					if s, ok := e.(string); ok {
						strs = append(strs, s)
					}
				}
				f.Set(rec, strs)
			}
		case record.KindRecord:
			if nested, ok := raw.(map[string]interface{}); ok {
				child, err := wireToRecord(registry, f.ElemType, nested)
				if err != nil {
					Logger.Errorf("skipping nested field %s.%s from wire: %v", schema.TypeID, f.Name, err)
					continue
				}
				f.Set(rec, child)
			}
		case record.KindRecordList:
			if list, ok := raw.([]interface{}); ok {
				var children []record.Record
				for _, e := range list {
					nested, ok := e.(map[string]interface{})
					if !ok {
						continue
					}
					child, err := wireToRecord(registry, f.ElemType, nested)
					if err != nil {
						Logger.Errorf("skipping element of %s.%s from wire: %v", schema.TypeID, f.Name, err)
						continue
					}
					children = append(children, child)
				}
				f.Set(rec, children)
			}
		}
	}
	return rec, nil
}
