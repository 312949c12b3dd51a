package cashflow

import (
	"sort"

	"ledger_analytics/pkg/core/calc"
)

// Trend describes the direction of the cumulative flow over the horizon.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendFlat       Trend = "flat"
)

// Analysis summarizes a projected series.
type Analysis struct {
	Periods               int              `json:"periods"`
	AverageNetFlow        float64          `json:"average_net_flow"`
	PositiveMonths        int              `json:"positive_months"`
	NegativeMonths        int              `json:"negative_months"`
	ZeroMonths            int              `json:"zero_months"`
	LongestNegativeStreak int              `json:"longest_negative_streak"`
	FinalCumulative       float64          `json:"final_cumulative"`
	MinimumCumulative     float64          `json:"minimum_cumulative"`
	CumulativeTrend       Trend            `json:"cumulative_trend"`
	HealthScore           float64          `json:"health_score"`
	Recommendations       []Recommendation `json:"recommendations"`
}

const (
	positiveWeight = 60.0
	trendWeight    = 40.0
)

// Analyze scores a projected series with the default recommendation table.
func Analyze(periods []CashFlowPeriod) Analysis {
	return AnalyzeWithRules(periods, DefaultRules())
}

// AnalyzeWithRules scores the series and selects recommendations from rules.
//
// HealthScore = 60 * positive share + 40 * share of non-decreasing cumulative
// steps. A single period counts its one "step" as non-decreasing when its net
// flow is not negative.
func AnalyzeWithRules(periods []CashFlowPeriod, rules []RecommendationRule) Analysis {
	a := Analysis{Periods: len(periods), CumulativeTrend: TrendFlat}
	if len(periods) == 0 {
		a.Recommendations = []Recommendation{}
		return a
	}

	var netSum float64
	streak := 0
	a.MinimumCumulative = periods[0].CumulativeFlow
	for _, p := range periods {
		netSum += p.NetFlow
		switch {
		case p.NetFlow > 0:
			a.PositiveMonths++
			streak = 0
		case p.NetFlow < 0:
			a.NegativeMonths++
			streak++
		default:
			a.ZeroMonths++
			streak = 0
		}
		if streak > a.LongestNegativeStreak {
			a.LongestNegativeStreak = streak
		}
		if p.CumulativeFlow < a.MinimumCumulative {
			a.MinimumCumulative = p.CumulativeFlow
		}
	}

	n := len(periods)
	a.AverageNetFlow = netSum / float64(n)
	a.FinalCumulative = periods[n-1].CumulativeFlow

	var trendShare float64
	if n == 1 {
		if periods[0].NetFlow >= 0 {
			trendShare = 1
		}
	} else {
		nonDecreasing := 0
		for i := 1; i < n; i++ {
			if periods[i].CumulativeFlow >= periods[i-1].CumulativeFlow {
				nonDecreasing++
			}
		}
		trendShare = float64(nonDecreasing) / float64(n-1)
	}

	switch first := periods[0].CumulativeFlow - periods[0].NetFlow; {
	case a.FinalCumulative > first:
		a.CumulativeTrend = TrendIncreasing
	case a.FinalCumulative < first:
		a.CumulativeTrend = TrendDecreasing
	}

	positiveShare := float64(a.PositiveMonths) / float64(n)
	a.HealthScore = calc.Clamp(calc.RoundTo(positiveWeight*positiveShare+trendWeight*trendShare, 2), 0, 100)
	a.Recommendations = Recommend(a, rules)
	return a
}

// =============================================================================
// RECOMMENDATIONS
// =============================================================================

// Severity ranks recommendations; lower rank sorts first.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityPositive Severity = "positive"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	case SeverityPositive:
		return 3
	}
	return 4
}

// RecommendationRule is one row of the recommendation table.
type RecommendationRule struct {
	Code     string
	Severity Severity
	Applies  func(Analysis) bool
	Message  string
}

// Recommendation is a selected rule.
type Recommendation struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// DefaultRules returns the built-in recommendation table. Callers may append
// their own rows.
func DefaultRules() []RecommendationRule {
	return []RecommendationRule{
		{
			Code:     "negative-final-balance",
			Severity: SeverityCritical,
			Applies:  func(a Analysis) bool { return a.FinalCumulative < 0 },
			Message:  "Cumulative cash ends the horizon below zero. Secure financing or cut outflows before the shortfall arrives.",
		},
		{
			Code:     "negative-streak",
			Severity: SeverityWarning,
			Applies:  func(a Analysis) bool { return a.LongestNegativeStreak >= 3 },
			Message:  "Three or more consecutive months with negative net flow. Review recurring expenses and collection terms.",
		},
		{
			Code:     "mostly-negative",
			Severity: SeverityWarning,
			Applies:  func(a Analysis) bool { return a.NegativeMonths > a.PositiveMonths },
			Message:  "Most months close with negative net flow. Outflows structurally exceed inflows.",
		},
		{
			Code:     "low-health",
			Severity: SeverityWarning,
			Applies:  func(a Analysis) bool { return a.HealthScore < 40 },
			Message:  "Cash-flow health score is low. Build a monthly cash reserve target.",
		},
		{
			Code:     "intra-horizon-deficit",
			Severity: SeverityInfo,
			Applies:  func(a Analysis) bool { return a.MinimumCumulative < 0 && a.FinalCumulative >= 0 },
			Message:  "Cumulative cash dips below zero before recovering. A short-term credit line would cover the gap.",
		},
		{
			Code:     "declining-cumulative",
			Severity: SeverityInfo,
			Applies:  func(a Analysis) bool { return a.CumulativeTrend == TrendDecreasing },
			Message:  "Cumulative cash trends downward over the horizon.",
		},
		{
			Code:     "healthy",
			Severity: SeverityPositive,
			Applies:  func(a Analysis) bool { return a.HealthScore >= 70 },
			Message:  "Cash flow is healthy. Consider investing surplus cash.",
		},
	}
}

// Recommend evaluates every rule and returns the matches ranked by severity,
// table order breaking ties.
func Recommend(a Analysis, rules []RecommendationRule) []Recommendation {
	out := make([]Recommendation, 0)
	for _, r := range rules {
		if r.Applies == nil || !r.Applies(a) {
			continue
		}
		out = append(out, Recommendation{Code: r.Code, Severity: r.Severity, Message: r.Message})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.rank() < out[j].Severity.rank()
	})
	return out
}
