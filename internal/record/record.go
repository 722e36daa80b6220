package record

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Category names one of the record families the extraction service produces.
type Category string

const (
	InventoryOnHand Category = "inventory_on_hand"
	SalesHistory    Category = "sales_history"
	PurchaseOrders  Category = "purchase_orders"
	ItemMaster      Category = "item_master"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{InventoryOnHand, SalesHistory, PurchaseOrders, ItemMaster}
}

// ParseCategory resolves a category name, tolerating case and separators.
func ParseCategory(s string) (Category, bool) {
	c := Category(NormalizeKey(s))
	for _, known := range Categories() {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// NormalizeKey lowercases a field name and folds spaces and hyphens into
// underscores, so "Time Period" and "time_period" address the same field.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	lastSep := false
	for _, r := range s {
		if r == ' ' || r == '-' || r == '_' || r == '\t' {
			if !lastSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			lastSep = true
			continue
		}
		lastSep = false
		b.WriteRune(r)
	}
	return strings.TrimSuffix(b.String(), "_")
}

// Record is an ordered mapping from field name to value. The zero Record is
// empty and ready to use; records are treated as immutable once built.
type Record struct {
	keys   []string
	values map[string]Value
}

// Field is a single name/value pair used to build a Record.
type Field struct {
	Name  string
	Value Value
}

// New builds a record from fields, normalizing names. A repeated name keeps
// its first position and its last value.
func New(fields ...Field) Record {
	r := Record{values: make(map[string]Value, len(fields))}
	for _, f := range fields {
		r.set(f.Name, f.Value)
	}
	return r
}

// FromMap builds a record from a decoded map. Keys are sorted because Go maps
// carry no order.
func FromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Name: k, Value: FromAny(m[k])})
	}
	return New(fields...)
}

func (r *Record) set(name string, v Value) {
	key := NormalizeKey(name)
	if key == "" {
		return
	}
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value at field, or Absent when the field is missing.
func (r Record) Get(field string) Value {
	if r.values == nil {
		return Absent()
	}
	if v, ok := r.values[field]; ok {
		return v
	}
	return r.values[NormalizeKey(field)]
}

// Has reports whether field holds a non-empty value.
func (r Record) Has(field string) bool {
	return !r.Get(field).IsEmpty()
}

// Keys returns field names in insertion order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len is the number of fields.
func (r Record) Len() int { return len(r.keys) }

// MarshalJSON encodes the record as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := r.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "record: read object start")
	}
	if tok == nil {
		*r = Record{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return eris.Errorf("record: expected object, got %v", tok)
	}

	*r = Record{values: make(map[string]Value)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "record: read key")
		}
		key, ok := tok.(string)
		if !ok {
			return eris.Errorf("record: unexpected key token %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return eris.Wrapf(err, "record: decode field %q", key)
		}
		r.set(key, FromAny(raw))
	}
	if _, err := dec.Token(); err != nil {
		return eris.Wrap(err, "record: read object end")
	}
	return nil
}

// Set is a sequence of records belonging to one category.
type Set struct {
	Category Category `json:"category"`
	Records  []Record `json:"records"`
}

// Len is the number of records in the set.
func (s Set) Len() int { return len(s.Records) }
