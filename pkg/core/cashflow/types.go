// Package cashflow projects period-by-period cash flow from static field
// totals and recurring income/expense templates, scores the resulting series,
// and raises upcoming/overdue payment alerts.
//
// Columns are 1-based positions in the chronologically ordered period slice.
package cashflow

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFrequency = errors.New("unknown recurrence frequency")
	ErrUnknownFlowKind  = errors.New("unknown flow kind")
	ErrInvalidItem      = errors.New("invalid recurring item")
)

// Frequency is how often a recurring item repeats.
type Frequency string

const (
	FrequencySingle     Frequency = "single"
	FrequencyMonthly    Frequency = "monthly"
	FrequencyBimonthly  Frequency = "bimonthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiannual Frequency = "semiannual"
	FrequencyAnnual     Frequency = "annual"
)

// Step returns the column distance between occurrences. Single items have no
// step and report 0.
func (f Frequency) Step() (int, error) {
	switch f {
	case FrequencySingle:
		return 0, nil
	case FrequencyMonthly:
		return 1, nil
	case FrequencyBimonthly:
		return 2, nil
	case FrequencyQuarterly:
		return 3, nil
	case FrequencySemiannual:
		return 6, nil
	case FrequencyAnnual:
		return 12, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFrequency, string(f))
}

// FlowKind says which side of the period a recurring item lands on.
type FlowKind string

const (
	FlowInflow  FlowKind = "inflow"
	FlowOutflow FlowKind = "outflow"
)

// Recurrence positions an item on the period columns.
type Recurrence struct {
	Frequency   Frequency `json:"frequency"`
	StartColumn int       `json:"start_column"`
	EndColumn   *int      `json:"end_column,omitempty"`
	PaymentDay  *int      `json:"payment_day,omitempty"`
}

// RecurringItem is a user-defined income or expense template.
type RecurringItem struct {
	ID                  string          `json:"id,omitempty"`
	Name                string          `json:"name" required:"true"`
	Kind                FlowKind        `json:"kind"`
	PerPeriodBaseAmount float64         `json:"per_period_base_amount"`
	Recurrence          Recurrence      `json:"recurrence"`
	PerPeriodOverrides  map[int]float64 `json:"per_period_overrides,omitempty"`
}

// Validate rejects structurally malformed items. Numeric oddities such as a
// zero amount are allowed.
func (it RecurringItem) Validate() error {
	if it.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if it.Kind != FlowInflow && it.Kind != FlowOutflow {
		return fmt.Errorf("item %q: %w: %q", it.Name, ErrUnknownFlowKind, string(it.Kind))
	}
	if _, err := it.Recurrence.Frequency.Step(); err != nil {
		return fmt.Errorf("item %q: %w", it.Name, err)
	}
	if it.Recurrence.StartColumn < 1 {
		return fmt.Errorf("%w: item %q start column must be >= 1", ErrInvalidItem, it.Name)
	}
	if end := it.Recurrence.EndColumn; end != nil && *end < it.Recurrence.StartColumn {
		return fmt.Errorf("%w: item %q end column %d before start %d", ErrInvalidItem, it.Name, *end, it.Recurrence.StartColumn)
	}
	if day := it.Recurrence.PaymentDay; day != nil && (*day < 1 || *day > 31) {
		return fmt.Errorf("%w: item %q payment day %d out of range", ErrInvalidItem, it.Name, *day)
	}
	return nil
}

// PeriodInput carries the static field totals of one month.
type PeriodInput struct {
	Month int `json:"month"`
	Year  int `json:"year"`

	SalesCollections float64 `json:"sales_collections"`
	OtherInflows     float64 `json:"other_inflows"`

	SupplierPayments float64 `json:"supplier_payments"`
	Payroll          float64 `json:"payroll"`
	Rent             float64 `json:"rent"`
	Utilities        float64 `json:"utilities"`
	Taxes            float64 `json:"taxes"`
	OtherOutflows    float64 `json:"other_outflows"`
}

// StaticInflows sums the fixed inflow fields.
func (p PeriodInput) StaticInflows() float64 {
	return p.SalesCollections + p.OtherInflows
}

// StaticOutflows sums the fixed outflow fields.
func (p PeriodInput) StaticOutflows() float64 {
	return p.SupplierPayments + p.Payroll + p.Rent + p.Utilities + p.Taxes + p.OtherOutflows
}

// CashFlowPeriod is one projected month.
type CashFlowPeriod struct {
	PeriodInput

	Column            int     `json:"column"`
	RecurringInflows  float64 `json:"recurring_inflows"`
	RecurringOutflows float64 `json:"recurring_outflows"`
	TotalInflows      float64 `json:"total_inflows"`
	TotalOutflows     float64 `json:"total_outflows"`
	NetFlow           float64 `json:"net_flow"`
	CumulativeFlow    float64 `json:"cumulative_flow"`
}
