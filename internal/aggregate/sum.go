package aggregate

import (
	"math"

	"github.com/shopspring/decimal"
)

// sum accumulates amounts exactly in decimal. The store keeps whatever
// amount it is given, so once a NaN or infinity is added the sum switches to
// plain float addition and carries the non-finite result through.
type sum struct {
	d      decimal.Decimal
	f      float64
	floaty bool
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s sum) add(v float64) sum {
	if !s.floaty && finite(v) {
		s.d = s.d.Add(decimal.NewFromFloat(v))
		return s
	}
	if !s.floaty {
		s.f, s.floaty = s.d.InexactFloat64(), true
	}
	s.f += v
	return s
}

func (s sum) sub(o sum) sum {
	if !s.floaty && !o.floaty {
		s.d = s.d.Sub(o.d)
		return s
	}
	return sum{f: s.float() - o.float(), floaty: true}
}

func (s sum) float() float64 {
	if s.floaty {
		return s.f
	}
	return s.d.InexactFloat64()
}

// difference is a - b, exact when both operands are finite.
func difference(a, b float64) float64 {
	return sum{}.add(a).sub(sum{}.add(b)).float()
}
