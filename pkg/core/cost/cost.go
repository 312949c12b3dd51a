// Package cost implements cost-volume-profit analysis: contribution margin,
// break-even, margin of safety, operating leverage and capacity utilization.
//
// The CostModel is the only durable fact. Analysis values are recomputed on
// every call and never stored back on the model.
package cost

import (
	"math"

	"ledger_analytics/pkg/core/calc"
)

// CostModel describes a single product line for one month.
type CostModel struct {
	UnitPrice           float64  `json:"unit_price"`
	VariableCostPerUnit float64  `json:"variable_cost_per_unit"`
	MonthlyFixedCosts   float64  `json:"monthly_fixed_costs"`
	CurrentMonthlyUnits float64  `json:"current_monthly_units"`
	ProductionCapacity  *float64 `json:"production_capacity,omitempty"`
}

// Analysis is the derived view of a CostModel.
type Analysis struct {
	ContributionMarginPerUnit float64 `json:"contribution_margin_per_unit"`
	ContributionMarginRatio   float64 `json:"contribution_margin_ratio"`
	TotalContributionMargin   float64 `json:"total_contribution_margin"`
	BreakEvenUnits            float64 `json:"break_even_units"`
	BreakEvenRevenue          float64 `json:"break_even_revenue"`
	MarginOfSafety            float64 `json:"margin_of_safety"`
	MarginOfSafetyPercentage  float64 `json:"margin_of_safety_percentage"`
	CurrentMonthlyRevenue     float64 `json:"current_monthly_revenue"`
	CurrentMonthlyProfit      float64 `json:"current_monthly_profit"`
	OperatingLeverage         float64 `json:"operating_leverage"`

	HasCapacity         bool    `json:"has_capacity"`
	CapacityUtilization float64 `json:"capacity_utilization"`
	MaxPotentialProfit  float64 `json:"max_potential_profit"`

	// HasBreakEven is false when the contribution margin is not positive:
	// the product never becomes profitable at any volume.
	HasBreakEven bool `json:"has_break_even"`
	IsProfitable bool `json:"is_profitable"`
}

// Analyze computes the full cost-volume-profit view of m.
func Analyze(m CostModel) Analysis {
	var a Analysis
	units := m.CurrentMonthlyUnits

	// 1-2. Contribution margin
	a.ContributionMarginPerUnit = m.UnitPrice - m.VariableCostPerUnit
	a.ContributionMarginRatio = calc.SafeDiv(a.ContributionMarginPerUnit, m.UnitPrice)
	a.TotalContributionMargin = a.ContributionMarginPerUnit * units

	// 3-4. Break-even
	if a.ContributionMarginPerUnit > 0 {
		a.HasBreakEven = true
		a.BreakEvenUnits = math.Ceil(m.MonthlyFixedCosts / a.ContributionMarginPerUnit)
	}
	a.BreakEvenRevenue = a.BreakEvenUnits * m.UnitPrice

	// 5. Margin of safety
	a.MarginOfSafety = units - a.BreakEvenUnits
	if units != 0 {
		a.MarginOfSafetyPercentage = a.MarginOfSafety / units * 100
	}

	// 6. Profit
	a.CurrentMonthlyRevenue = m.UnitPrice * units
	a.CurrentMonthlyProfit = m.UnitPrice*units - m.VariableCostPerUnit*units - m.MonthlyFixedCosts
	a.IsProfitable = a.CurrentMonthlyProfit > 0

	// 7. Operating leverage; 0 when profit is exactly 0
	a.OperatingLeverage = calc.SafeDiv(a.TotalContributionMargin, a.CurrentMonthlyProfit)

	// 8. Capacity
	if m.ProductionCapacity != nil {
		capacity := *m.ProductionCapacity
		a.HasCapacity = true
		a.CapacityUtilization = calc.SafeDiv(units, capacity) * 100
		a.MaxPotentialProfit = a.ContributionMarginPerUnit*capacity - m.MonthlyFixedCosts
	}

	return a
}

// UnitsForTargetProfit returns the monthly units needed to earn targetProfit
// on top of fixed costs, or 0 when no finite volume achieves it.
func UnitsForTargetProfit(m CostModel, targetProfit float64) float64 {
	margin := m.UnitPrice - m.VariableCostPerUnit
	if margin <= 0 {
		return 0
	}
	units := math.Ceil((m.MonthlyFixedCosts + targetProfit) / margin)
	if units < 0 {
		return 0
	}
	return units
}

// Scenario is a what-if adjustment expressed as percentage changes.
type Scenario struct {
	PriceChangePct        float64 `json:"price_change_pct"`
	VariableCostChangePct float64 `json:"variable_cost_change_pct"`
	FixedCostChangePct    float64 `json:"fixed_cost_change_pct"`
	VolumeChangePct       float64 `json:"volume_change_pct"`
}

// SensitivityResult compares a scenario against the base model.
type SensitivityResult struct {
	Base         Analysis  `json:"base"`
	Adjusted     Analysis  `json:"adjusted"`
	Model        CostModel `json:"adjusted_model"`
	ProfitDelta  float64   `json:"profit_delta"`
	BreakEvenGap float64   `json:"break_even_delta"`
}

// Sensitivity re-analyzes a shifted copy of m. The input model is not modified.
func Sensitivity(m CostModel, s Scenario) SensitivityResult {
	adjusted := m
	adjusted.UnitPrice = m.UnitPrice * (1 + s.PriceChangePct/100)
	adjusted.VariableCostPerUnit = m.VariableCostPerUnit * (1 + s.VariableCostChangePct/100)
	adjusted.MonthlyFixedCosts = m.MonthlyFixedCosts * (1 + s.FixedCostChangePct/100)
	adjusted.CurrentMonthlyUnits = m.CurrentMonthlyUnits * (1 + s.VolumeChangePct/100)
	if m.ProductionCapacity != nil {
		c := *m.ProductionCapacity
		adjusted.ProductionCapacity = &c
	}

	base := Analyze(m)
	next := Analyze(adjusted)
	return SensitivityResult{
		Base:         base,
		Adjusted:     next,
		Model:        adjusted,
		ProfitDelta:  next.CurrentMonthlyProfit - base.CurrentMonthlyProfit,
		BreakEvenGap: next.BreakEvenUnits - base.BreakEvenUnits,
	}
}
