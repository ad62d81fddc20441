package aggregate

import (
	"math"
	"strconv"
)

// Ratio is a percentage that may be NaN or infinite. It encodes to JSON as
// null in those cases, since JSON has no representation for them.
type Ratio float64

func (r Ratio) Finite() bool {
	f := float64(r)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Finite() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(r), 'f', -1, 64), nil
}
