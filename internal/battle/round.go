package battle

import (
	"math"
	"strconv"
)

// Round1 rounds v to one decimal place exactly as JavaScript's
// Number(v.toFixed(1)) does: the decision is made on the exact binary value and
// a true tie rounds away from zero. Negative zero is reported as zero.
func Round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	a := math.Abs(v)
	var r float64
	if math.Mod(a*4, 2) == 1 {
		// a is an odd multiple of 0.25, the only values that sit exactly on a tie.
		r = (math.Floor(a*10) + 1) / 10
	} else {
		r, _ = strconv.ParseFloat(strconv.FormatFloat(a, 'f', 1, 64), 64)
	}
	if v < 0 && r != 0 {
		return -r
	}
	return r
}
