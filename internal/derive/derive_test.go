package derive

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-planner/internal/record"
)

func rec(kv ...any) record.Record {
	fields := make([]record.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, record.Field{Name: kv[i].(string), Value: record.FromAny(kv[i+1])})
	}
	return record.New(fields...)
}

func TestMarginOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		r       record.Record
		ok      bool
		margin  float64
		percent float64
	}{
		{"basic", rec("price", 100, "cost", 60), true, 40, 40},
		{"string inputs", rec("price", "80", "cost", "20"), true, 60, 75},
		{"negative margin kept", rec("price", 50, "cost", 75), true, -25, -50},
		{"zero cost", rec("price", 10, "cost", 0), true, 10, 100},
		{"zero price excluded", rec("price", 0, "cost", 10), false, 0, 0},
		{"absent price", rec("cost", 10), false, 0, 0},
		{"absent cost", rec("price", 10), false, 0, 0},
		{"unparseable cost", rec("price", 10, "cost", "tbd"), false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, ok := MarginOf(tt.r, "price", "cost")
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.margin, m.Margin, 1e-9)
			assert.InDelta(t, tt.percent, m.Percent, 1e-9)
			assert.False(t, math.IsInf(m.Percent, 0) || math.IsNaN(m.Percent))
		})
	}
}

func TestMarginOfExtremeValues(t *testing.T) {
	t.Parallel()

	m, ok := MarginOf(rec("price", math.MaxFloat64, "cost", -math.MaxFloat64), "price", "cost")
	require.True(t, ok)
	assert.Equal(t, math.MaxFloat64, m.Margin)
	assert.InDelta(t, 200, m.Percent, 1e-9)

	m, ok = MarginOf(rec("price", "1e-300", "cost", "-1e10"), "price", "cost")
	require.True(t, ok)
	assert.Equal(t, math.MaxFloat64, m.Percent)

	st, ok := AverageMargin([]record.Record{
		rec("price", "1e-300", "cost", "-1e10"),
		rec("price", "1e-300", "cost", "-1e10"),
	}, "price", "cost")
	require.True(t, ok)
	assert.False(t, math.IsInf(st.AvgPercent, 0))
}

func TestRankMargins(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		rec("sku", "low", "price", 100, "cost", 90),
		rec("sku", "free", "price", 0, "cost", 10),
		rec("sku", "high", "price", 100, "cost", 20),
		rec("sku", "mid", "price", 10, "cost", 5),
		rec("sku", "none"),
	}
	ranked := RankMargins(records, "sku", "price", "cost")
	require.Len(t, ranked, 3)
	assert.Equal(t, "high", ranked[0].Key)
	assert.Equal(t, "mid", ranked[1].Key)
	assert.Equal(t, "low", ranked[2].Key)
}

func TestAverageMargin(t *testing.T) {
	t.Parallel()

	st, ok := AverageMargin([]record.Record{
		rec("price", 100, "cost", 60),
		rec("price", 10, "cost", 5),
		rec("price", 0, "cost", 5),
	}, "price", "cost")
	require.True(t, ok)
	assert.Equal(t, 2, st.Count)
	assert.InDelta(t, 22.5, st.AvgMargin, 1e-9)
	assert.InDelta(t, 45, st.AvgPercent, 1e-9)

	_, ok = AverageMargin([]record.Record{rec("price", 0, "cost", 1)}, "price", "cost")
	assert.False(t, ok)
}

func TestRangesFromBounds(t *testing.T) {
	t.Parallel()

	ranges := RangesFromBounds(DefaultCostBounds)
	labels := make([]string, 0, len(ranges))
	for _, r := range ranges {
		labels = append(labels, r.Label)
	}
	assert.Equal(t, []string{"$0-$100", "$100-$500", "$500-$1K", "$1K-$5K", "$5K-$10K", "$10K+"}, labels)
	assert.True(t, math.IsInf(ranges[5].Max, 1))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	ranges := RangesFromBounds(DefaultCostBounds)
	tests := []struct {
		cost float64
		want string
	}{
		{0, "$0-$100"},
		{99, "$0-$100"},
		{99.99, "$0-$100"},
		{100, "$100-$500"},
		{999, "$500-$1K"},
		{1000, "$1K-$5K"},
		{9999.5, "$5K-$10K"},
		{10000, "$10K+"},
		{1e9, "$10K+"},
	}
	for _, tt := range tests {
		got, ok := Classify(tt.cost, ranges)
		require.True(t, ok, "cost %v", tt.cost)
		assert.Equal(t, tt.want, got, "cost %v", tt.cost)
	}

	_, ok := Classify(-1, ranges)
	assert.False(t, ok)
}

func TestBucketCosts(t *testing.T) {
	t.Parallel()

	ranges := RangesFromBounds(DefaultCostBounds)

	single := BucketCosts([]record.Record{
		rec("cost", 120), rec("cost", "450"), rec("cost", 100),
	}, "cost", ranges)
	require.Len(t, single, 1)
	assert.Equal(t, "$100-$500", single[0].Label)
	assert.Equal(t, 3, single[0].Count)
	assert.InDelta(t, 670, single[0].Total, 1e-9)

	mixed := BucketCosts([]record.Record{
		rec("cost", 20000),
		rec("cost", "n/a"),
		rec("cost", 50),
		rec("cost", -5),
		rec(),
	}, "cost", ranges)
	require.Len(t, mixed, 2)
	assert.Equal(t, "$0-$100", mixed[0].Label)
	assert.Equal(t, 3, mixed[0].Count)
	assert.Equal(t, "$10K+", mixed[1].Label)
	assert.Equal(t, 1, mixed[1].Count)
}

func TestSummarizeField(t *testing.T) {
	t.Parallel()

	s, ok := SummarizeField([]record.Record{
		rec("quantity", "10"), rec("quantity", 2), rec("quantity", "x"), rec(),
	}, "quantity")
	require.True(t, ok)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
	assert.Equal(t, 6.0, s.Avg)

	_, ok = SummarizeField([]record.Record{rec("quantity", "x")}, "quantity")
	assert.False(t, ok)
}

func TestBucketCostsTotalStaysFinite(t *testing.T) {
	t.Parallel()

	out := BucketCosts([]record.Record{rec("cost", "1e308"), rec("cost", "1e308")}, "cost", RangesFromBounds(DefaultCostBounds))
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].Count)
	assert.Equal(t, math.MaxFloat64, out[0].Total)
}

func TestSummarizeFieldOverflow(t *testing.T) {
	t.Parallel()

	s, ok := SummarizeField([]record.Record{rec("quantity", "1e308"), rec("quantity", "1e308")}, "quantity")
	require.True(t, ok)
	assert.False(t, math.IsInf(s.Avg, 0))
	assert.Equal(t, math.MaxFloat64/2, s.Avg)
}

func TestSummarizeSkipsCodesWithNumericPrefix(t *testing.T) {
	t.Parallel()

	out := Summarize([]record.Record{
		rec("sku", "1001-A", "quantity", "3"),
		rec("sku", "1002-B", "quantity", 5),
		rec("sku", "1003", "quantity", "x"),
	})
	require.Len(t, out, 1)
	assert.Equal(t, "quantity", out[0].Field)
	assert.Equal(t, 4.0, out[0].Avg)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		rec("sku", "A1", "quantity", 4, "location", "7"),
		rec("sku", "B", "quantity", "6", "location", "WH"),
		rec("sku", "C", "quantity", "", "location", "WH2"),
	}
	out := Summarize(records)
	require.Len(t, out, 1)
	assert.Equal(t, "quantity", out[0].Field)
	assert.Equal(t, 5.0, out[0].Avg)
}

func TestRangeOf(t *testing.T) {
	t.Parallel()

	dr, ok := RangeOf([]record.Record{
		rec("time_period", "2024-01-10"),
		rec("time_period", "2024-01-01"),
		rec("time_period", "2024-01-05T12:00:00Z"),
		rec("time_period", "garbage"),
	}, "time_period")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), dr.Start)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), dr.End)
	assert.Equal(t, 9, dr.Days)

	partial, ok := RangeOf([]record.Record{
		rec("d", "2024-01-01T00:00:00Z"), rec("d", "2024-01-02T06:00:00Z"),
	}, "d")
	require.True(t, ok)
	assert.Equal(t, 2, partial.Days)

	same, ok := RangeOf([]record.Record{rec("d", "2024-01-01")}, "d")
	require.True(t, ok)
	assert.Zero(t, same.Days)

	_, ok = RangeOf(nil, "d")
	assert.False(t, ok)
}
