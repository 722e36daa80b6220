// Package derive computes record-level derived values (margins, cost
// buckets) and field-level numeric summaries.
package derive

import (
	"cmp"
	"math"
	"slices"

	"github.com/sells-group/inventory-planner/internal/record"
)

// Margin is the price/cost spread of one record.
type Margin struct {
	Key     string  `json:"key"`
	Price   float64 `json:"price"`
	Cost    float64 `json:"cost"`
	Margin  float64 `json:"margin"`
	Percent float64 `json:"margin_percent"`
}

// MarginOf derives the margin of r. It reports false when price is absent,
// unparseable, or zero, or when cost is absent or unparseable. A cost of
// zero is a valid input. Negative margins are returned as is.
func MarginOf(r record.Record, priceField, costField string) (Margin, bool) {
	price, ok := r.Get(priceField).Float()
	if !ok || price == 0 {
		return Margin{}, false
	}
	cost, ok := r.Get(costField).Float()
	if !ok {
		return Margin{}, false
	}
	m := price - cost
	pct := m / price * 100
	if math.IsInf(m, 0) {
		pct = 100 - cost/price*100
	}
	return Margin{Price: price, Cost: cost, Margin: record.Clamp(m), Percent: record.Clamp(pct)}, true
}

// RankMargins returns the margin of every eligible record, keyed by keyField,
// sorted by margin percent descending. Ties keep input order.
func RankMargins(records []record.Record, keyField, priceField, costField string) []Margin {
	var out []Margin
	for _, r := range records {
		m, ok := MarginOf(r, priceField, costField)
		if !ok {
			continue
		}
		m.Key = r.Get(keyField).Text()
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b Margin) int {
		return cmp.Compare(b.Percent, a.Percent)
	})
	return out
}

// MarginStats averages margins over the eligible records.
type MarginStats struct {
	Count      int     `json:"count"`
	AvgMargin  float64 `json:"avg_margin"`
	AvgPercent float64 `json:"avg_margin_percent"`
}

// AverageMargin averages the margin and margin percent of eligible records.
// It reports false when no record is eligible.
func AverageMargin(records []record.Record, priceField, costField string) (MarginStats, bool) {
	var st MarginStats
	var sumMargin, sumPct record.Sum
	for _, r := range records {
		m, ok := MarginOf(r, priceField, costField)
		if !ok {
			continue
		}
		st.Count++
		sumMargin.Add(m.Margin)
		sumPct.Add(m.Percent)
	}
	if st.Count == 0 {
		return MarginStats{}, false
	}
	st.AvgMargin = sumMargin.Value() / float64(st.Count)
	st.AvgPercent = sumPct.Value() / float64(st.Count)
	return st, true
}
