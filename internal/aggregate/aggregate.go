// Package aggregate groups record sets by a key field and reduces numeric
// measures per group.
//
// Pipeline: group → reduce → sort → limit. Truncation always happens after
// every record has been counted, so the sum of group counts before limiting
// equals the record count.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/sells-group/inventory-planner/internal/record"
)

// Unspecified is the key assigned to records whose key field is empty.
const Unspecified = "Unspecified"

// ByCount sorts groups by record count instead of a measure.
const ByCount = "count"

// Group is the reduction of every record sharing one key.
type Group struct {
	Key   string             `json:"key"`
	Count int                `json:"count"`
	Sums  map[string]float64 `json:"sums"`
	// Min and Max only cover values that parsed as numbers; a measure with no
	// parseable values has no entry.
	Min   map[string]float64 `json:"min,omitempty"`
	Max   map[string]float64 `json:"max,omitempty"`
	Attrs map[string]string  `json:"attrs,omitempty"`
}

// Sum returns the summed measure, 0 when not requested.
func (g Group) Sum(measure string) float64 {
	if measure == ByCount {
		return float64(g.Count)
	}
	return g.Sums[measure]
}

// Avg returns Sum / Count.
func (g Group) Avg(measure string) float64 {
	if g.Count == 0 {
		return 0
	}
	return g.Sum(measure) / float64(g.Count)
}

// Options controls ordering and truncation of categorical groupings.
type Options struct {
	// SortBy names the measure to sort by (descending). Empty means the first
	// requested measure, or ByCount when none were requested.
	SortBy string
	// Limit keeps the first N groups after sorting. Zero keeps all.
	Limit int
	// Carry lists fields whose first non-empty value per group is copied to
	// Group.Attrs.
	Carry []string
}

type builder struct {
	measures []string
	carry    []string
	order    []string
	groups   map[string]*Group
	// sums holds the running total of each measure per group key.
	sums     map[string][]record.Sum
}

func newBuilder(measures, carry []string) *builder {
	return &builder{
		measures: measures,
		carry:    carry,
		groups:   make(map[string]*Group),
		sums:     make(map[string][]record.Sum),
	}
}

func (b *builder) add(key string, r record.Record) {
	g, ok := b.groups[key]
	if !ok {
		g = &Group{Key: key, Sums: make(map[string]float64, len(b.measures))}
		for _, m := range b.measures {
			g.Sums[m] = 0
		}
		b.groups[key] = g
		b.sums[key] = make([]record.Sum, len(b.measures))
		b.order = append(b.order, key)
	}
	g.Count++

	sums := b.sums[key]
	for i, m := range b.measures {
		f, ok := r.Get(m).Float()
		if !ok {
			continue
		}
		sums[i].Add(f)
		if g.Min == nil {
			g.Min = make(map[string]float64)
			g.Max = make(map[string]float64)
		}
		if cur, seen := g.Min[m]; !seen || f < cur {
			g.Min[m] = f
		}
		if cur, seen := g.Max[m]; !seen || f > cur {
			g.Max[m] = f
		}
	}

	for _, c := range b.carry {
		if _, done := g.Attrs[c]; done {
			continue
		}
		v := r.Get(c)
		if v.IsEmpty() {
			continue
		}
		if g.Attrs == nil {
			g.Attrs = make(map[string]string, len(b.carry))
		}
		g.Attrs[c] = v.Text()
	}
}

func (b *builder) result() []Group {
	out := make([]Group, 0, len(b.order))
	for _, k := range b.order {
		g := b.groups[k]
		for i, m := range b.measures {
			g.Sums[m] = b.sums[k][i].Value()
		}
		out = append(out, *g)
	}
	return out
}

// KeyOf returns the grouping key of r for field: the value's text, or
// Unspecified when empty.
func KeyOf(r record.Record, field string) string {
	v := r.Get(field)
	if v.IsEmpty() {
		return Unspecified
	}
	return v.Text()
}

// GroupBy groups records by keyField, summing each measure with
// parseFloat-or-zero semantics, then sorts descending and truncates.
// Ties keep first-encounter order.
func GroupBy(records []record.Record, keyField string, measures []string, opts Options) []Group {
	b := newBuilder(measures, opts.Carry)
	for _, r := range records {
		b.add(KeyOf(r, keyField), r)
	}
	groups := b.result()

	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = ByCount
		if len(measures) > 0 {
			sortBy = measures[0]
		}
	}
	SortDesc(groups, sortBy)
	return Limit(groups, opts.Limit)
}

// SortDesc stably sorts groups by measure, largest first.
func SortDesc(groups []Group, measure string) {
	slices.SortStableFunc(groups, func(a, b Group) int {
		return cmp.Compare(b.Sum(measure), a.Sum(measure))
	})
}

// Limit returns at most n groups. n <= 0 returns groups unchanged.
func Limit(groups []Group, n int) []Group {
	if n > 0 && len(groups) > n {
		return groups[:n]
	}
	return groups
}

// Series is a day-bucketed grouping in chronological order.
type Series struct {
	Groups []Group `json:"groups"`
	// Undated counts records whose date field was empty or unparseable.
	Undated int `json:"undated"`
}

// GroupByDay buckets records by the UTC calendar day of dateField and sorts
// the buckets ascending by date. Keys are formatted YYYY-MM-DD.
func GroupByDay(records []record.Record, dateField string, measures []string) Series {
	b := newBuilder(measures, nil)
	var undated int
	for _, r := range records {
		day, ok := r.Get(dateField).DayKey()
		if !ok {
			undated++
			continue
		}
		b.add(day, r)
	}
	groups := b.result()
	slices.SortStableFunc(groups, func(a, b Group) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return Series{Groups: groups, Undated: undated}
}

// Distinct returns the distinct non-empty values of field in first-seen
// order. Matching is exact and case-sensitive.
func Distinct(records []record.Record, field string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		v := r.Get(field)
		if v.IsEmpty() {
			continue
		}
		s := v.Text()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// DistinctCount is len(Distinct(records, field)).
func DistinctCount(records []record.Record, field string) int {
	return len(Distinct(records, field))
}

// Total sums field across records with parseFloat-or-zero semantics. The
// result is clamped to the float64 range.
func Total(records []record.Record, field string) float64 {
	var sum record.Sum
	for _, r := range records {
		sum.Add(r.Get(field).FloatOrZero())
	}
	return sum.Value()
}

// Any reports whether at least one record has a non-empty value at field.
func Any(records []record.Record, field string) bool {
	for _, r := range records {
		if r.Has(field) {
			return true
		}
	}
	return false
}

// Counts sums Count across groups.
func Counts(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += g.Count
	}
	return n
}
