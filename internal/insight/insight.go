// Package insight computes the headline KPIs shown for each record category,
// plus business-type specific extras registered in a dispatch table.
package insight

import (
	"math"

	"github.com/sells-group/inventory-planner/internal/record"
)

// BusinessType is the classifier's guess at the kind of business that
// produced a workbook.
type BusinessType string

const (
	Retail       BusinessType = "retail"
	Distribution BusinessType = "distribution"
	FoodCPG      BusinessType = "food_cpg"
	Generic      BusinessType = "generic"
)

// ParseBusinessType normalizes s. Unknown types are returned normalized so a
// lookup simply finds no rule.
func ParseBusinessType(s string) BusinessType {
	return BusinessType(record.NormalizeKey(s))
}

// NotAvailable is the display text of a KPI whose inputs are missing.
const NotAvailable = "N/A"

// KPI is one headline figure. Value is always finite; when Available is
// false the value is 0 and Display is NotAvailable.
type KPI struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Display   string  `json:"display"`
	Available bool    `json:"available"`
	Highlight bool    `json:"highlight,omitempty"`
}

func kpi(label string, v float64, format func(float64) string) KPI {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return na(label)
	}
	return KPI{Label: label, Value: v, Display: format(v), Available: true}
}

func na(label string) KPI {
	return KPI{Label: label, Display: NotAvailable}
}

// Params are the tunable ratios used by the extra KPIs.
type Params struct {
	// TopN bounds the SKU groups examined for low stock.
	TopN int `json:"top_n"`
	// LowStockRatio is the fraction of average units per SKU below which a
	// SKU counts as low stock.
	LowStockRatio float64 `json:"low_stock_ratio"`
	// CoverageRatio is the fraction of unique SKUs a location must stock to
	// count as highly utilized.
	CoverageRatio float64 `json:"coverage_ratio"`
}

// DefaultParams returns TopN 10, low stock at 5%, coverage at 90%.
func DefaultParams() Params {
	return Params{TopN: 10, LowStockRatio: 0.05, CoverageRatio: 0.9}
}

// Input is what every KPI function sees.
type Input struct {
	Category record.Category
	Records  []record.Record
	Params   Params
}

// BaseFunc computes the KPIs every business type gets for a category.
type BaseFunc func(Input) []KPI

// Rule computes one extra KPI. It returns false when the KPI does not apply
// to the data at all (for example, no vendor column).
type Rule func(Input) (KPI, bool)

// Table dispatches categories and business types to KPI functions.
type Table struct {
	base  map[record.Category]BaseFunc
	rules map[record.Category]map[BusinessType][]Rule
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		base:  make(map[record.Category]BaseFunc),
		rules: make(map[record.Category]map[BusinessType][]Rule),
	}
}

// SetBase installs the base KPI function for c.
func (t *Table) SetBase(c record.Category, fn BaseFunc) {
	t.base[c] = fn
}

// Register appends an extra rule for (c, bt).
func (t *Table) Register(c record.Category, bt BusinessType, r Rule) {
	m, ok := t.rules[c]
	if !ok {
		m = make(map[BusinessType][]Rule)
		t.rules[c] = m
	}
	m[bt] = append(m[bt], r)
}

// Evaluate returns the base KPIs for in.Category followed by any extras
// registered for bt. Unknown business types get the base set only. An
// empty record set yields no KPIs.
func (t *Table) Evaluate(bt BusinessType, in Input) []KPI {
	if len(in.Records) == 0 {
		return nil
	}
	var out []KPI
	if fn, ok := t.base[in.Category]; ok {
		out = append(out, fn(in)...)
	}
	for _, r := range t.rules[in.Category][bt] {
		if k, ok := r(in); ok {
			out = append(out, k)
		}
	}
	return out
}
