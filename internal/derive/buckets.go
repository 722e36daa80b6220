package derive

import (
	"math"
	"strconv"

	"github.com/sells-group/inventory-planner/internal/record"
)

// DefaultCostBounds are the lower bounds of the standard cost ranges.
var DefaultCostBounds = []float64{0, 100, 500, 1000, 5000, 10000}

// Range is a half-open interval [Min, Max).
type Range struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	// Max is exclusive; +Inf for the last range.
	Max float64 `json:"-"`
}

// Contains reports whether Min <= v < Max.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v < r.Max
}

// Bucket is a Range with the records that fell into it.
type Bucket struct {
	Range
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// RangesFromBounds builds contiguous ranges from ascending lower bounds; the
// last range is unbounded. Labels follow "$0-$100", "$1K-$5K", "$10K+".
func RangesFromBounds(bounds []float64) []Range {
	out := make([]Range, 0, len(bounds))
	for i, lo := range bounds {
		r := Range{Min: lo, Max: math.Inf(1)}
		if i+1 < len(bounds) {
			r.Max = bounds[i+1]
			r.Label = dollars(lo) + "-" + dollars(r.Max)
		} else {
			r.Label = dollars(lo) + "+"
		}
		out = append(out, r)
	}
	return out
}

func dollars(v float64) string {
	if v >= 1000 && math.Mod(v, 100) == 0 {
		return "$" + strconv.FormatFloat(v/1000, 'f', -1, 64) + "K"
	}
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}

// BucketCosts assigns each record's cost (unparseable counts as 0) to the
// first range containing it and drops empty ranges, keeping range order.
// Costs below the first bound fall into no range.
func BucketCosts(records []record.Record, costField string, ranges []Range) []Bucket {
	buckets := make([]Bucket, len(ranges))
	totals := make([]record.Sum, len(ranges))
	for i, r := range ranges {
		buckets[i].Range = r
	}
	for _, rec := range records {
		cost := rec.Get(costField).FloatOrZero()
		for i := range buckets {
			if buckets[i].Contains(cost) {
				buckets[i].Count++
				totals[i].Add(cost)
				break
			}
		}
	}
	for i := range buckets {
		buckets[i].Total = totals[i].Value()
	}

	out := buckets[:0]
	for _, b := range buckets {
		if b.Count > 0 {
			out = append(out, b)
		}
	}
	return out
}

// Classify returns the label of the first range containing v.
func Classify(v float64, ranges []Range) (string, bool) {
	for _, r := range ranges {
		if r.Contains(v) {
			return r.Label, true
		}
	}
	return "", false
}
