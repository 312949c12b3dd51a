// Package validate provides the accounting-equation checks and series
// invariants used before a snapshot is finalized or a projection is displayed.
package validate

import (
	"errors"
	"fmt"
	"math"

	"ledger_analytics/pkg/core/calc"
	"ledger_analytics/pkg/core/ledger"
)

// BalanceTolerance is the largest |A - (L+E)| still considered balanced, in
// base currency units. The comparison is strict.
const BalanceTolerance = 0.01

var (
	ErrUnbalanced   = errors.New("balance equation does not hold")
	ErrAlreadyFinal = errors.New("snapshot is already final")
)

// =============================================================================
// BALANCE EQUATION
// =============================================================================

// BalanceCheck verifies Assets = Liabilities + Equity.
type BalanceCheck struct {
	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`
	TotalEquity      float64 `json:"total_equity"`
	ComputedAssets   float64 `json:"computed_assets"` // L + E
	Difference       float64 `json:"difference"`      // |A - (L + E)|
	IsBalanced       bool    `json:"is_balanced"`
}

// CheckBalanceEquation validates A = L + E. It always returns a result,
// including for an all-zero snapshot.
func CheckBalanceEquation(assets, liabilities, equity float64) BalanceCheck {
	computed := liabilities + equity
	diff := math.Abs(assets - computed)

	return BalanceCheck{
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		TotalEquity:      equity,
		ComputedAssets:   computed,
		Difference:       diff,
		IsBalanced:       diff < BalanceTolerance,
	}
}

// CheckSnapshot aggregates a snapshot's accounts and checks the equation.
func CheckSnapshot(snapshot ledger.BalanceSnapshot) BalanceCheck {
	t := ledger.ComputeTotals(snapshot.Accounts)
	return CheckBalanceEquation(t.Assets, t.Liabilities, t.Equity)
}

// UnbalancedError carries the failed check so callers can show the gap.
type UnbalancedError struct {
	OrganizationID string
	PeriodYear     int
	PeriodMonth    int
	Check          BalanceCheck
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("snapshot %s %04d-%02d: assets %.2f vs liabilities+equity %.2f (difference %.2f)",
		e.OrganizationID, e.PeriodYear, e.PeriodMonth,
		e.Check.TotalAssets, e.Check.ComputedAssets, e.Check.Difference)
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalanced }

// Finalize returns a finalized copy of a draft snapshot. When the equation
// fails the draft is returned unchanged together with an *UnbalancedError.
func Finalize(snapshot ledger.BalanceSnapshot) (ledger.BalanceSnapshot, error) {
	if snapshot.IsFinal() {
		return snapshot, ErrAlreadyFinal
	}

	check := CheckSnapshot(snapshot)
	if !check.IsBalanced {
		return snapshot, &UnbalancedError{
			OrganizationID: snapshot.OrganizationID,
			PeriodYear:     snapshot.PeriodYear,
			PeriodMonth:    snapshot.PeriodMonth,
			Check:          check,
		}
	}

	final := snapshot.Clone()
	final.Status = ledger.StatusFinal
	return final, nil
}

// =============================================================================
// CASH FLOW SERIES
// =============================================================================

// SeriesCheck reports the first index where cumulative[i] != cumulative[i-1] + net[i].
type SeriesCheck struct {
	IsConsistent bool    `json:"is_consistent"`
	FirstBadIdx  int     `json:"first_bad_index"` // -1 when consistent
	Difference   float64 `json:"difference"`
}

// CheckCumulativeSeries validates that cumulative is the running sum of net,
// starting from zero.
func CheckCumulativeSeries(net, cumulative []float64, tolerance float64) SeriesCheck {
	if len(net) != len(cumulative) {
		return SeriesCheck{IsConsistent: false, FirstBadIdx: min(len(net), len(cumulative))}
	}

	prev := 0.0
	for i := range net {
		if expected := prev + net[i]; !calc.WithinTolerance(cumulative[i], expected, tolerance) {
			return SeriesCheck{IsConsistent: false, FirstBadIdx: i, Difference: math.Abs(cumulative[i] - expected)}
		}
		prev = cumulative[i]
	}
	return SeriesCheck{IsConsistent: true, FirstBadIdx: -1}
}

// =============================================================================
// PERIOD COMPARISON
// =============================================================================

// CalculateYoY returns percentage change: (current - prior) / |prior| * 100.
// A zero prior yields 0 so the value stays renderable.
func CalculateYoY(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / math.Abs(prior) * 100
}
