package pipeline

import (
	"math"

	"github.com/shopspring/decimal"
)

// safeDiv is the row- and day-level guard: a zero denominator yields 0.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// ratio is the unguarded division used for top-level KPIs.
func ratio(a, b float64) float64 { return a / b }

// round rounds half away from zero at the given number of decimal places.
// Non-finite values pass through untouched.
func round(f float64, places int32) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
