package calc

import (
	"math"
	"testing"
)

func TestLeadingDigit(t *testing.T) {
	tests := []struct {
		v        float64
		expected int
	}{
		{1234.5, 1},
		{-987, 9},
		{0.042, 4},
		{7, 7},
		{100000, 1},
		{0, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}

	for _, tt := range tests {
		if got := LeadingDigit(tt.v); got != tt.expected {
			t.Errorf("LeadingDigit(%v) = %d, want %d", tt.v, got, tt.expected)
		}
	}
}

func TestScreenLeadingDigits(t *testing.T) {
	t.Run("Insufficient sample", func(t *testing.T) {
		res := ScreenLeadingDigits([]float64{120, 340, 0.5, 0})
		if res.Level != DigitLevelInsufficient || res.Flagged {
			t.Errorf("expected insufficient data, got %+v", res)
		}
		if res.Sample != 2 {
			t.Errorf("amounts below 1 should be ignored, sample = %d", res.Sample)
		}
	})

	t.Run("Benford-shaped amounts conform", func(t *testing.T) {
		// 1000 values of 10^(i/1000) follow Benford's law closely.
		var values []float64
		for i := 0; i < 1000; i++ {
			values = append(values, 100*math.Pow(10, float64(i)/1000))
		}
		res := ScreenLeadingDigits(values)
		if res.Level != DigitLevelConforming || res.Flagged {
			t.Errorf("expected conforming, got level %s MAD %v", res.Level, res.MAD)
		}
		if math.Abs(res.Frequencies[1]-0.301) > 0.005 {
			t.Errorf("digit 1 frequency = %v", res.Frequencies[1])
		}
	})

	t.Run("Uniform nines are flagged", func(t *testing.T) {
		values := make([]float64, 30)
		for i := range values {
			values[i] = 9000 + float64(i)
		}
		res := ScreenLeadingDigits(values)
		if !res.Flagged || res.Level != DigitLevelNonconform {
			t.Errorf("expected nonconforming, got %+v", res)
		}
		if res.Counts[9] != 30 {
			t.Errorf("expected 30 nines, got %d", res.Counts[9])
		}
	})
}

func TestCommonSize(t *testing.T) {
	shares := CommonSize(map[string]float64{"current": 1500, "non_current": 1500, "other": 0}, 3000)
	if shares["current"] != 0.5 || shares["non_current"] != 0.5 || shares["other"] != 0 {
		t.Errorf("unexpected shares: %v", shares)
	}

	zero := CommonSize(map[string]float64{"current": 10}, 0)
	if zero["current"] != 0 {
		t.Errorf("zero base should give zero share, got %v", zero["current"])
	}
}
