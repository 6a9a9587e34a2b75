package server

import (
	"fmt"
	"os"

	"github.com/croftdb/croft/lib/record"
	"gopkg.in/yaml.v3"
)

// --------------------------------------------------------------------------
// Schema File Format
// --------------------------------------------------------------------------

// schemaFile is the on-disk YAML form of a set of record types.
//
// Example:
//
//	types:
//	  - type: ticket
//	    tenant_scoped: true
//	    fields:
//	      - name: title
//	        kind: string
//	      - name: assignee
//	        kind: record
//	        elem: user
type schemaFile struct {
	Types []schemaType `yaml:"types"`
}

type schemaType struct {
	Type         string        `yaml:"type"`
	TenantScoped bool          `yaml:"tenant_scoped"`
	Fields       []schemaField `yaml:"fields"`
}

type schemaField struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	Elem string `yaml:"elem"`
}

// --------------------------------------------------------------------------
// Loading
// --------------------------------------------------------------------------

// LoadSchemas reads record type declarations from a YAML file and registers
// each of them as a generic schema on the registry.
func LoadSchemas(path string, registry *record.Registry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	if len(file.Types) == 0 {
		return fmt.Errorf("schema file %s declares no types", path)
	}

	for _, t := range file.Types {
		fields := make([]record.GenericField, 0, len(t.Fields))
		for _, f := range t.Fields {
			kind, ok := record.ParseFieldKind(f.Kind)
			if !ok {
				return fmt.Errorf("type %s: field %s has unknown kind %q", t.Type, f.Name, f.Kind)
			}
			fields = append(fields, record.GenericField{
				Name:     f.Name,
				Kind:     kind,
				ElemType: f.Elem,
			})
		}

		if err := registry.Register(record.GenericSchema(t.Type, t.TenantScoped, fields)); err != nil {
			return fmt.Errorf("failed to register type %s: %w", t.Type, err)
		}

		Logger.Infof("registered record type %s (%d fields)", t.Type, len(fields))
	}

	return nil
}
