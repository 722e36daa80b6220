// Package schema holds the per-category field schemas that drive quality
// scoring. Schemas are static: built in, optionally overridden from a YAML
// file once at startup, and never mutated afterwards.
package schema

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/inventory-planner/internal/record"
)

// FieldType is the primitive type the extraction service coerces a field to.
type FieldType string

const (
	TypeString   FieldType = "str"
	TypeFloat    FieldType = "float"
	TypeDateTime FieldType = "datetime"
	TypeBool     FieldType = "bool"
)

// Field describes one schema field.
type Field struct {
	Name       string    `yaml:"name" json:"name"`
	Required   bool      `yaml:"required" json:"required"`
	Type       FieldType `yaml:"type" json:"type"`
	Validation string    `yaml:"validation" json:"validation"`
}

// Schema is the ordered field list for one category.
type Schema struct {
	Category record.Category `json:"category"`
	Fields   []Field         `json:"fields"`
}

// Field returns the named field.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Required returns the required fields in schema order.
func (s *Schema) Required() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Registry maps categories to schemas.
type Registry struct {
	schemas map[record.Category]*Schema
}

// Get returns the schema for c. An unknown category yields (nil, false);
// callers skip quality scoring rather than fail.
func (r *Registry) Get(c record.Category) (*Schema, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.schemas[c]
	return s, ok
}

// Categories lists the registered categories in display order.
func (r *Registry) Categories() []record.Category {
	var out []record.Category
	for _, c := range record.Categories() {
		if _, ok := r.schemas[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func str(name string, required bool, validation string) Field {
	return Field{Name: name, Required: required, Type: TypeString, Validation: validation}
}

func num(name string, required bool, validation string) Field {
	return Field{Name: name, Required: required, Type: TypeFloat, Validation: validation}
}

func date(name string, required bool) Field {
	return Field{Name: name, Required: required, Type: TypeDateTime, Validation: "date"}
}

// Default returns the built-in registry matching the extraction service.
func Default() *Registry {
	return &Registry{schemas: map[record.Category]*Schema{
		record.InventoryOnHand: {
			Category: record.InventoryOnHand,
			Fields: []Field{
				str("sku", true, "alphanumeric"),
				num("quantity", true, "positive_numeric"),
				str("location", false, "text"),
			},
		},
		record.SalesHistory: {
			Category: record.SalesHistory,
			Fields: []Field{
				str("sku", true, "alphanumeric"),
				date("time_period", true),
				num("quantity", true, "numeric"),
				str("location", false, "text"),
				num("revenue", false, "numeric"),
				str("channel", false, "text"),
			},
		},
		record.PurchaseOrders: {
			Category: record.PurchaseOrders,
			Fields: []Field{
				str("purchase_order_id", true, "alphanumeric"),
				str("sku", true, "alphanumeric"),
				num("quantity", true, "positive_numeric"),
				date("arrival_date", true),
				num("cost", false, "numeric"),
				date("order_date", false),
				str("vendor", false, "text"),
				str("location", false, "text"),
				{Name: "has_arrived", Type: TypeBool, Validation: "boolean"},
			},
		},
		record.ItemMaster: {
			Category: record.ItemMaster,
			Fields: []Field{
				str("sku", true, "alphanumeric"),
				str("category", false, "text"),
				str("vendor", false, "text"),
				num("price", false, "numeric"),
				num("cost", false, "numeric"),
			},
		},
	}}
}

// fileFormat is the YAML override layout:
//
//	schemas:
//	  inventory_on_hand:
//	    - {name: sku, required: true, type: str, validation: alphanumeric}
type fileFormat struct {
	Schemas map[string][]Field `yaml:"schemas"`
}

// Load returns the default registry with any categories present in the YAML
// file at path replacing the built-in definition. An empty path returns the
// defaults.
func Load(path string) (*Registry, error) {
	reg := Default()
	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read %s", path)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, eris.Wrap(err, "schema: parse")
	}

	for name, fields := range ff.Schemas {
		c, ok := record.ParseCategory(name)
		if !ok {
			return nil, eris.Errorf("schema: unknown category %q", name)
		}
		normalized := make([]Field, 0, len(fields))
		seen := make(map[string]bool, len(fields))
		for _, f := range fields {
			f.Name = record.NormalizeKey(f.Name)
			if f.Name == "" {
				return nil, eris.Errorf("schema: %s has a field without a name", c)
			}
			if seen[f.Name] {
				return nil, eris.Errorf("schema: %s declares %q twice", c, f.Name)
			}
			seen[f.Name] = true
			if f.Type == "" {
				f.Type = TypeString
			}
			switch f.Type {
			case TypeString, TypeFloat, TypeDateTime, TypeBool:
			default:
				return nil, eris.Errorf("schema: %s.%s has unknown type %q", c, f.Name, f.Type)
			}
			normalized = append(normalized, f)
		}
		reg.schemas[c] = &Schema{Category: c, Fields: normalized}
	}
	return reg, nil
}
