package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-planner/internal/record"
	"github.com/sells-group/inventory-planner/internal/schema"
)

func rec(kv ...any) record.Record {
	fields := make([]record.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, record.Field{Name: kv[i].(string), Value: record.FromAny(kv[i+1])})
	}
	return record.New(fields...)
}

func inventorySchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, ok := schema.Default().Get(record.InventoryOnHand)
	require.True(t, ok)
	return s
}

func TestLabelFor(t *testing.T) {
	t.Parallel()

	sc := NewScorer(DefaultThresholds())
	tests := []struct {
		required, overall float64
		want              Label
	}{
		{100, 95, Excellent},
		{100, 80, Good},
		{96, 50, Fair},
		{80, 50, NeedsAttention},
		{100, 90, Good},
		{100, 75, Fair},
		{95, 100, NeedsAttention},
		{99.9, 99.9, Fair},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sc.LabelFor(tt.required, tt.overall), "(%v, %v)", tt.required, tt.overall)
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	sc := NewScorer(DefaultThresholds())
	assert.Equal(t, StatusComplete, sc.StatusFor(100))
	assert.Equal(t, StatusGood, sc.StatusFor(90.5))
	assert.Equal(t, StatusFair, sc.StatusFor(90))
	assert.Equal(t, StatusFair, sc.StatusFor(76))
	assert.Equal(t, StatusLow, sc.StatusFor(75))
	assert.Equal(t, StatusLow, sc.StatusFor(0))
}

func TestScore(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		rec("sku", "A", "quantity", "10", "location", "WH1"),
		rec("sku", "B", "quantity", 0),
		rec("sku", "", "quantity", "5", "location", nil),
		rec("sku", "D", "quantity", "7", "location", "WH2"),
	}
	v, ok := NewScorer(DefaultThresholds()).Score(records, inventorySchema(t))
	require.True(t, ok)

	require.Len(t, v.Fields, 3)
	assert.Equal(t, "sku", v.Fields[0].Field)
	assert.InDelta(t, 75, v.Fields[0].Completeness, 1e-9)
	assert.Equal(t, StatusLow, v.Fields[0].Status)
	// numeric zero is a present value
	assert.InDelta(t, 100, v.Fields[1].Completeness, 1e-9)
	assert.Equal(t, StatusComplete, v.Fields[1].Status)
	assert.InDelta(t, 50, v.Fields[2].Completeness, 1e-9)

	assert.InDelta(t, 87.5, v.RequiredCompleteness, 1e-9)
	assert.InDelta(t, 75, v.OverallCompleteness, 1e-9)
	assert.Equal(t, NeedsAttention, v.Label)
	assert.Equal(t, 4, v.RecordCount)
	assert.Equal(t, record.InventoryOnHand, v.Category)
}

func TestScoreExcellent(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		rec("sku", "A", "quantity", 1, "location", "X"),
		rec("sku", "B", "quantity", 2, "location", "Y"),
	}
	v, ok := NewScorer(DefaultThresholds()).Score(records, inventorySchema(t))
	require.True(t, ok)
	assert.Equal(t, 100.0, v.RequiredCompleteness)
	assert.Equal(t, 100.0, v.OverallCompleteness)
	assert.Equal(t, Excellent, v.Label)
}

func TestScoreNoRequiredFields(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{Category: record.ItemMaster, Fields: []schema.Field{{Name: "vendor"}, {Name: "price"}}}
	v, ok := NewScorer(DefaultThresholds()).Score([]record.Record{rec("vendor", "Acme")}, s)
	require.True(t, ok)
	assert.Equal(t, 100.0, v.RequiredCompleteness)
	assert.InDelta(t, 50, v.OverallCompleteness, 1e-9)
	assert.Equal(t, Fair, v.Label)
}

func TestScoreNoOutput(t *testing.T) {
	t.Parallel()

	sc := NewScorer(DefaultThresholds())

	_, ok := sc.Score(nil, inventorySchema(t))
	assert.False(t, ok, "empty record set")

	_, ok = sc.Score([]record.Record{rec("sku", "A")}, nil)
	assert.False(t, ok, "absent schema")

	_, ok = sc.Score([]record.Record{rec("sku", "A")}, &schema.Schema{Category: record.ItemMaster})
	assert.False(t, ok, "schema without fields")
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	sets := [][]record.Record{
		{rec("unrelated", "x")},
		{rec("sku", "A"), rec("quantity", "n/a"), rec()},
		{rec("sku", "A", "quantity", 1, "location", "L")},
	}
	sc := NewScorer(DefaultThresholds())
	for _, rs := range sets {
		v, ok := sc.Score(rs, inventorySchema(t))
		require.True(t, ok)
		assert.GreaterOrEqual(t, v.RequiredCompleteness, 0.0)
		assert.LessOrEqual(t, v.RequiredCompleteness, 100.0)
		assert.GreaterOrEqual(t, v.OverallCompleteness, 0.0)
		assert.LessOrEqual(t, v.OverallCompleteness, 100.0)
	}
}
