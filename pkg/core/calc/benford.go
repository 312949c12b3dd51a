package calc

import (
	"math"
)

// BenfordDistribution is the expected frequency for leading digits 1-9
var BenfordDistribution = [10]float64{
	0,
	0.30103,
	0.17609,
	0.12494,
	0.09691,
	0.07918,
	0.06695,
	0.05799,
	0.05115,
	0.04576,
}

// Screening levels.
const (
	DigitLevelInsufficient = "insufficient_data"
	DigitLevelConforming   = "conforming"
	DigitLevelMarginal     = "marginal"
	DigitLevelNonconform   = "nonconforming"
)

// MinDigitSample is the fewest usable amounts a screen is scored on.
const MinDigitSample = 20

// DigitScreen is a first-digit (Benford) screen over a set of amounts.
type DigitScreen struct {
	Counts      [10]int     `json:"counts"`
	Frequencies [10]float64 `json:"frequencies"`
	Sample      int         `json:"sample"`
	MAD         float64     `json:"mad"` // Mean Absolute Deviation
	Level       string      `json:"level"`
	Flagged     bool        `json:"flagged"`
}

// LeadingDigit returns the first significant digit of |v|, or 0 for zero,
// NaN and infinities.
func LeadingDigit(v float64) int {
	v = math.Abs(v)
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	for v >= 10 {
		v /= 10
	}
	for v < 1 {
		v *= 10
	}
	d := int(v)
	if d < 1 {
		d = 1
	}
	if d > 9 {
		d = 9
	}
	return d
}

// ScreenLeadingDigits compares the leading-digit distribution of values with
// Benford's law. Amounts below 1 are ignored.
// MAD thresholds: <= 0.010 conforming, <= 0.015 marginal, above nonconforming.
func ScreenLeadingDigits(values []float64) DigitScreen {
	var res DigitScreen
	for _, v := range values {
		if math.Abs(v) < 1 {
			continue
		}
		if d := LeadingDigit(v); d > 0 {
			res.Counts[d]++
			res.Sample++
		}
	}

	if res.Sample < MinDigitSample {
		res.Level = DigitLevelInsufficient
		return res
	}

	sumDiff := 0.0
	for d := 1; d <= 9; d++ {
		res.Frequencies[d] = float64(res.Counts[d]) / float64(res.Sample)
		sumDiff += math.Abs(res.Frequencies[d] - BenfordDistribution[d])
	}
	res.MAD = RoundTo(sumDiff/9.0, 6)

	switch {
	case res.MAD > 0.015:
		res.Level = DigitLevelNonconform
		res.Flagged = true
	case res.MAD > 0.010:
		res.Level = DigitLevelMarginal
	default:
		res.Level = DigitLevelConforming
	}
	return res
}
