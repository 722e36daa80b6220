package derive

import (
	"math"
	"time"

	"github.com/sells-group/inventory-planner/internal/record"
)

// Summary is the min/avg/max of a field's parseable numeric values.
type Summary struct {
	Field string  `json:"field"`
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

// SummarizeField summarizes field over the values that parse as numbers.
// It reports false when none do.
func SummarizeField(records []record.Record, field string) (Summary, bool) {
	s := Summary{Field: field, Min: math.Inf(1), Max: math.Inf(-1)}
	var sum record.Sum
	for _, r := range records {
		f, ok := r.Get(field).Float()
		if !ok {
			continue
		}
		s.Count++
		sum.Add(f)
		s.Min = math.Min(s.Min, f)
		s.Max = math.Max(s.Max, f)
	}
	if s.Count == 0 {
		return Summary{}, false
	}
	s.Avg = sum.Value() / float64(s.Count)
	return s, true
}

// Summarize returns a summary for every field, in first-seen order, where
// more than half of the non-empty values are numbers in full. Values are
// then summarized with prefix parsing.
func Summarize(records []record.Record) []Summary {
	var order []string
	nonEmpty := make(map[string]int)
	numeric := make(map[string]int)
	for _, r := range records {
		for _, k := range r.Keys() {
			v := r.Get(k)
			if v.IsEmpty() {
				continue
			}
			if _, seen := nonEmpty[k]; !seen {
				order = append(order, k)
			}
			nonEmpty[k]++
			if v.IsNumeric() {
				numeric[k]++
			}
		}
	}

	var out []Summary
	for _, k := range order {
		if numeric[k]*2 <= nonEmpty[k] {
			continue
		}
		if s, ok := SummarizeField(records, k); ok {
			out = append(out, s)
		}
	}
	return out
}

// DateRange spans the earliest and latest parseable dates of a field.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// Days is the span rounded up to whole days.
	Days int `json:"days"`
}

// RangeOf computes the date range of field. It reports false when no value
// parses as a date.
func RangeOf(records []record.Record, field string) (DateRange, bool) {
	var dr DateRange
	found := false
	for _, r := range records {
		t, ok := r.Get(field).Time()
		if !ok {
			continue
		}
		t = t.UTC()
		if !found || t.Before(dr.Start) {
			dr.Start = t
		}
		if !found || t.After(dr.End) {
			dr.End = t
		}
		found = true
	}
	if !found {
		return DateRange{}, false
	}
	dr.Days = int(math.Ceil(dr.End.Sub(dr.Start).Hours() / 24))
	return dr, true
}
