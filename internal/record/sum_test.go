package record

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumOverflowIsOrderIndependent(t *testing.T) {
	t.Parallel()

	big := math.MaxFloat64
	orders := [][]float64{
		{big, big, -big, -big},
		{big, -big, big, -big},
		{-big, -big, big, big},
	}
	for _, vals := range orders {
		var s Sum
		for _, v := range vals {
			s.Add(v)
		}
		assert.Equal(t, 0.0, s.Value(), "%v", vals)
	}
}

func TestSumClampsToRange(t *testing.T) {
	t.Parallel()

	var up, down Sum
	for range 3 {
		up.Add(1e308)
		down.Add(-1e308)
	}
	assert.Equal(t, math.MaxFloat64, up.Value())
	assert.Equal(t, -math.MaxFloat64, down.Value())

	up.Add(-1e308)
	up.Add(-1e308)
	assert.InDelta(t, 1e308, up.Value(), 1e292)
}

func TestSumIgnoresNonFinite(t *testing.T) {
	t.Parallel()

	var s Sum
	s.Add(2)
	s.Add(math.Inf(1))
	s.Add(math.NaN())
	s.Add(3)
	assert.Equal(t, 5.0, s.Value())
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Clamp(math.NaN()))
	assert.Equal(t, math.MaxFloat64, Clamp(math.Inf(1)))
	assert.Equal(t, -math.MaxFloat64, Clamp(math.Inf(-1)))
	assert.Equal(t, 1.5, Clamp(1.5))
}
