package indicators

import (
	"ledger_analytics/pkg/core/calc"
	"ledger_analytics/pkg/core/validate"
)

// Trend classifies the recent direction of health scores.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// TrendThreshold is the average per-period score change that counts as movement.
const TrendThreshold = 5.0

// DetermineTrend averages the period-over-period change across the last three
// scores. Fewer than three scores is always stable.
func DetermineTrend(scores []float64) Trend {
	n := len(scores)
	if n < 3 {
		return TrendStable
	}
	last := scores[n-3:]
	avgChange := ((last[1] - last[0]) + (last[2] - last[1])) / 2

	switch {
	case avgChange > TrendThreshold:
		return TrendImproving
	case avgChange < -TrendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// PeriodFigures pairs one period's balance and income inputs.
type PeriodFigures struct {
	Year    int            `json:"year"`
	Month   int            `json:"month"`
	Balance BalanceFigures `json:"balance"`
	Income  IncomeFigures  `json:"income"`
}

// PeriodIndicators is one period of a series with growth against the
// previous period as ratios (0 for the first period). RevenueYoY compares
// against the same month one year earlier, in percent, when the series holds
// that month.
type PeriodIndicators struct {
	Year            int          `json:"year"`
	Month           int          `json:"month"`
	Indicators      IndicatorSet `json:"indicators"`
	RevenueGrowth   float64      `json:"revenue_growth"`
	NetProfitGrowth float64      `json:"net_profit_growth"`
	RevenueYoY      float64      `json:"revenue_yoy_pct"`
}

// Series is the indicator history for chronologically ordered periods.
type Series struct {
	Periods      []PeriodIndicators `json:"periods"`
	Trend        Trend              `json:"trend"`
	LatestScore  float64            `json:"latest_score"`
	AverageScore float64            `json:"average_score"`
	// RevenueCAGR spans the first to the last period in whole years; 0 under a year.
	RevenueCAGR float64 `json:"revenue_cagr"`
}

// CalculateSeries computes every period and the score trend. Periods are
// taken in the given order.
func CalculateSeries(periods []PeriodFigures) Series {
	out := Series{Periods: make([]PeriodIndicators, 0, len(periods)), Trend: TrendStable}
	scores := make([]float64, 0, len(periods))
	revenueByMonth := make(map[int]float64, len(periods))
	for _, p := range periods {
		revenueByMonth[monthIndex(p.Year, p.Month)] = p.Income.Revenue
	}

	for i, p := range periods {
		set := Calculate(p.Balance, p.Income)
		pi := PeriodIndicators{Year: p.Year, Month: p.Month, Indicators: set}
		if i > 0 {
			prev := periods[i-1].Income
			pi.RevenueGrowth = calc.GrowthRate(p.Income.Revenue, prev.Revenue)
			pi.NetProfitGrowth = calc.GrowthRate(p.Income.NetProfit, prev.NetProfit)
		}
		if prior, ok := revenueByMonth[monthIndex(p.Year-1, p.Month)]; ok {
			pi.RevenueYoY = calc.RoundTo(validate.CalculateYoY(p.Income.Revenue, prior), 2)
		}
		out.Periods = append(out.Periods, pi)
		scores = append(scores, set.HealthScore)
	}

	if len(scores) == 0 {
		return out
	}

	var total float64
	for _, s := range scores {
		total += s
	}
	out.LatestScore = scores[len(scores)-1]
	out.AverageScore = calc.RoundTo(total/float64(len(scores)), 2)
	out.Trend = DetermineTrend(scores)

	first, last := periods[0], periods[len(periods)-1]
	if years := (monthIndex(last.Year, last.Month) - monthIndex(first.Year, first.Month)) / 12; years > 0 {
		out.RevenueCAGR = calc.RoundTo(calc.CAGR(last.Income.Revenue, first.Income.Revenue, years), 4)
	}
	return out
}

func monthIndex(year, month int) int {
	return year*12 + month - 1
}
