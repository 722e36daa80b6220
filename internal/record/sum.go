package record

import (
	"math"
	"math/big"
)

// sumPrec covers the whole float64 exponent range, so additions in wide
// mode are exact.
const sumPrec = 2200

// Sum is a running total of finite values. While the total fits in a float64
// it is a plain float64 sum; once an addition would overflow it continues in
// exact extended precision. Value always returns a finite number.
//
// The zero value is an empty sum.
type Sum struct {
	f    float64
	wide *big.Float
}

// Add adds v. Non-finite values are ignored.
func (s *Sum) Add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if s.wide != nil {
		s.wide.Add(s.wide, big.NewFloat(v))
		return
	}
	next := s.f + v
	if !math.IsInf(next, 0) {
		s.f = next
		return
	}
	s.wide = new(big.Float).SetPrec(sumPrec).SetFloat64(s.f)
	s.wide.Add(s.wide, big.NewFloat(v))
}

// Value returns the total, clamped to the float64 range.
func (s *Sum) Value() float64 {
	if s.wide == nil {
		return s.f
	}
	f, _ := s.wide.Float64()
	return Clamp(f)
}

// Clamp maps ±Inf to ±math.MaxFloat64 and NaN to 0.
func Clamp(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}
