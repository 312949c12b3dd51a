package cashflow

import "fmt"

// =============================================================================
// RECURRENCE EXPANSION
// =============================================================================

// Touches reports whether item contributes to column. An open-ended item runs
// through lastColumn.
func Touches(item RecurringItem, column, lastColumn int) bool {
	r := item.Recurrence
	if column < r.StartColumn {
		return false
	}

	end := lastColumn
	if r.EndColumn != nil && *r.EndColumn < end {
		end = *r.EndColumn
	}
	if column > end {
		return false
	}

	step, err := r.Frequency.Step()
	if err != nil {
		return false
	}
	if step == 0 {
		return column == r.StartColumn
	}
	return (column-r.StartColumn)%step == 0
}

// AmountFor returns the item's contribution to a touched column, honoring
// per-period overrides.
func AmountFor(item RecurringItem, column int) float64 {
	if v, ok := item.PerPeriodOverrides[column]; ok {
		return v
	}
	return item.PerPeriodBaseAmount
}

// Expand returns the contribution of item to every touched column in [1, columns].
func Expand(item RecurringItem, columns int) (map[int]float64, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	out := make(map[int]float64)
	for c := 1; c <= columns; c++ {
		if Touches(item, c, columns) {
			out[c] = AmountFor(item, c)
		}
	}
	return out, nil
}

// TouchedColumns lists the columns item contributes to, ascending.
func TouchedColumns(item RecurringItem, columns int) []int {
	var out []int
	for c := 1; c <= columns; c++ {
		if Touches(item, c, columns) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// PERIOD AGGREGATION
// =============================================================================

// Project folds static fields and expanded recurring items into each period
// and computes net and cumulative flow. Periods must already be in
// chronological order; they are never re-sorted.
func Project(periods []PeriodInput, items []RecurringItem) ([]CashFlowPeriod, error) {
	columns := len(periods)
	out := make([]CashFlowPeriod, columns)

	for i, p := range periods {
		out[i] = CashFlowPeriod{PeriodInput: p, Column: i + 1}
	}

	for _, item := range items {
		expanded, err := Expand(item, columns)
		if err != nil {
			return nil, fmt.Errorf("failed to expand recurring item: %w", err)
		}
		for col, amount := range expanded {
			if item.Kind == FlowInflow {
				out[col-1].RecurringInflows += amount
			} else {
				out[col-1].RecurringOutflows += amount
			}
		}
	}

	cumulative := 0.0
	for i := range out {
		p := &out[i]
		p.TotalInflows = p.StaticInflows() + p.RecurringInflows
		p.TotalOutflows = p.StaticOutflows() + p.RecurringOutflows
		p.NetFlow = p.TotalInflows - p.TotalOutflows
		cumulative += p.NetFlow
		p.CumulativeFlow = cumulative
	}

	return out, nil
}

// NetSeries extracts the net flow of each period.
func NetSeries(periods []CashFlowPeriod) []float64 {
	out := make([]float64, len(periods))
	for i, p := range periods {
		out[i] = p.NetFlow
	}
	return out
}

// CumulativeSeries extracts the cumulative flow of each period.
func CumulativeSeries(periods []CashFlowPeriod) []float64 {
	out := make([]float64, len(periods))
	for i, p := range periods {
		out[i] = p.CumulativeFlow
	}
	return out
}
