// Package calc provides the deterministic numeric helpers shared by every
// calculator in the analytics engine. Nothing here allocates state or performs I/O.
package calc

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DIVISION & BOUNDS
// =============================================================================

// SafeDiv returns numerator / denominator, or 0 when the denominator is zero.
// A zero result signals "undefined" to callers instead of +Inf or NaN.
func SafeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// =============================================================================
// ROUNDING
// =============================================================================

// RoundTo rounds v to the given number of decimal places, half away from zero.
// Rounding goes through decimal so 0.285 rounds to 0.29 rather than 0.28.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundMoney rounds a monetary amount to cents.
func RoundMoney(v float64) float64 {
	return RoundTo(v, 2)
}

// WithinTolerance reports whether |a-b| <= tol.
func WithinTolerance(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// =============================================================================
// GROWTH
// =============================================================================

// GrowthRate is the period-over-period change as a ratio: (current - prior) / |prior|.
func GrowthRate(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / math.Abs(prior)
}

// CAGR is the compound annual growth rate between two values.
func CAGR(endingValue, beginningValue float64, years int) float64 {
	if beginningValue <= 0 || years <= 0 || endingValue < 0 {
		return 0
	}
	return math.Pow(endingValue/beginningValue, 1.0/float64(years)) - 1
}
