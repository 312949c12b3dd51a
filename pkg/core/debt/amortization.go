// Package debt generates fixed-installment (French) amortization schedules and
// outstanding-balance summaries. A schedule is a pure function of the Loan.
package debt

import (
	"errors"
	"fmt"
	"math"
	"time"

	"ledger_analytics/pkg/core/calc"
)

// PeriodKind is the spacing between installments.
type PeriodKind string

const (
	PeriodMonthly    PeriodKind = "monthly"
	PeriodQuarterly  PeriodKind = "quarterly"
	PeriodSemiannual PeriodKind = "semiannual"
	PeriodAnnual     PeriodKind = "annual"
)

var ErrUnknownPeriodKind = errors.New("unknown period kind")

// PeriodsPerYear returns how many installments fall in one year.
func (k PeriodKind) PeriodsPerYear() (int, error) {
	switch k {
	case PeriodMonthly:
		return 12, nil
	case PeriodQuarterly:
		return 4, nil
	case PeriodSemiannual:
		return 2, nil
	case PeriodAnnual:
		return 1, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPeriodKind, string(k))
}

// MonthsPerPeriod returns the calendar months between installments.
func (k PeriodKind) MonthsPerPeriod() (int, error) {
	n, err := k.PeriodsPerYear()
	if err != nil {
		return 0, err
	}
	return 12 / n, nil
}

// Loan is immutable input to the scheduler.
type Loan struct {
	ID                string     `json:"id,omitempty"`
	Name              string     `json:"name,omitempty"`
	Principal         float64    `json:"principal"`
	AnnualRatePercent float64    `json:"annual_rate_percent"`
	InstallmentCount  int        `json:"installment_count"`
	PeriodKind        PeriodKind `json:"period_kind"`
	StartPeriod       time.Time  `json:"start_period"`
}

// AmortizationEntry is one row of the schedule.
type AmortizationEntry struct {
	Period           int       `json:"period"`
	DueDate          time.Time `json:"due_date"`
	Installment      float64   `json:"installment"`
	PrincipalPortion float64   `json:"principal_portion"`
	InterestPortion  float64   `json:"interest_portion"`
	RemainingBalance float64   `json:"remaining_balance"`
}

// schedulable reports whether the loan parameters admit a schedule.
// Non-positive values are an expected mid-edit state, not an error.
func (l Loan) schedulable() bool {
	return l.Principal > 0 && l.AnnualRatePercent > 0 && l.InstallmentCount > 0
}

// PeriodicRate returns the per-installment interest rate as a ratio.
func PeriodicRate(l Loan) (float64, error) {
	perYear, err := l.PeriodKind.PeriodsPerYear()
	if err != nil {
		return 0, err
	}
	return l.AnnualRatePercent / 100 / float64(perYear), nil
}

// Installment returns the fixed periodic payment, or 0 for a loan that cannot
// be scheduled.
func Installment(l Loan) (float64, error) {
	rate, err := PeriodicRate(l)
	if err != nil {
		return 0, err
	}
	if !l.schedulable() {
		return 0, nil
	}
	return installment(l.Principal, rate, l.InstallmentCount), nil
}

// installment evaluates the annuity factor 1-(1+rate)^-count through Expm1
// and Log1p so it keeps its precision for near-zero and very large rates.
func installment(principal, rate float64, count int) float64 {
	factor := -math.Expm1(-float64(count) * math.Log1p(rate))
	return principal * rate / factor
}

// Schedule generates the full amortization table. A loan with non-positive
// principal, rate or installment count yields an empty schedule and no error;
// an unknown PeriodKind is a structural error.
func Schedule(l Loan) ([]AmortizationEntry, error) {
	rate, err := PeriodicRate(l)
	if err != nil {
		return nil, err
	}
	if !l.schedulable() {
		return []AmortizationEntry{}, nil
	}
	months, _ := l.PeriodKind.MonthsPerPeriod()

	payment := installment(l.Principal, rate, l.InstallmentCount)
	balance := l.Principal
	entries := make([]AmortizationEntry, 0, l.InstallmentCount)

	for i := 1; i <= l.InstallmentCount; i++ {
		interest := balance * rate
		principalPortion := payment - interest
		if i == l.InstallmentCount {
			// Last entry retires whatever balance is left
			principalPortion = balance
			interest = payment - principalPortion
		}
		balance -= principalPortion

		var due time.Time
		if !l.StartPeriod.IsZero() {
			due = l.StartPeriod.AddDate(0, months*i, 0)
		}

		entries = append(entries, AmortizationEntry{
			Period:           i,
			DueDate:          due,
			Installment:      payment,
			PrincipalPortion: principalPortion,
			InterestPortion:  interest,
			RemainingBalance: balance,
		})
	}

	return entries, nil
}

// Summary describes a loan's position after a number of paid installments.
type Summary struct {
	CurrentBalance        float64 `json:"current_balance"`
	MonthlyPayment        float64 `json:"monthly_payment"` // periodic installment, whatever the PeriodKind
	RemainingInstallments int     `json:"remaining_installments"`
	PaidInstallments      int     `json:"paid_installments"`
	TotalInterest         float64 `json:"total_interest"`
	InterestPaid          float64 `json:"interest_paid"`
	PrincipalPaid         float64 `json:"principal_paid"`
}

// Summarize slices the generated schedule at asOfInstallment. asOfInstallment
// is clamped to [0, InstallmentCount].
func Summarize(l Loan, asOfInstallment int) (Summary, error) {
	entries, err := Schedule(l)
	if err != nil {
		return Summary{}, err
	}
	if len(entries) == 0 {
		return Summary{}, nil
	}

	asOf := asOfInstallment
	if asOf < 0 {
		asOf = 0
	}
	if asOf > l.InstallmentCount {
		asOf = l.InstallmentCount
	}

	s := Summary{
		CurrentBalance:        l.Principal,
		MonthlyPayment:        entries[0].Installment,
		RemainingInstallments: l.InstallmentCount - asOf,
		PaidInstallments:      asOf,
	}
	for i, e := range entries {
		s.TotalInterest += e.InterestPortion
		if i < asOf {
			s.InterestPaid += e.InterestPortion
			s.PrincipalPaid += e.PrincipalPortion
		}
	}
	if asOf > 0 {
		s.CurrentBalance = entries[asOf-1].RemainingBalance
	}
	return s, nil
}

// =============================================================================
// DEBT PORTFOLIO
// =============================================================================

// Position is a loan together with the installments already paid.
type Position struct {
	Loan             Loan `json:"loan"`
	PaidInstallments int  `json:"paid_installments"`
}

// LoanSummary pairs a summary with the loan it describes.
type LoanSummary struct {
	LoanID  string  `json:"loan_id"`
	Name    string  `json:"name"`
	Summary Summary `json:"summary"`
}

// PortfolioSummary aggregates outstanding balances across loans.
type PortfolioSummary struct {
	Loans               []LoanSummary `json:"loans"`
	TotalOutstanding    float64       `json:"total_outstanding"`
	TotalPeriodicPay    float64       `json:"total_periodic_payment"`
	TotalInterestLeft   float64       `json:"total_interest_remaining"`
	WeightedAverageRate float64       `json:"weighted_average_rate"` // by outstanding balance, annual %
}

// SummarizePortfolio summarizes every position in input order. Loans that
// cannot be scheduled contribute zero.
func SummarizePortfolio(positions []Position) (PortfolioSummary, error) {
	out := PortfolioSummary{Loans: make([]LoanSummary, 0, len(positions))}
	var weightedRate float64

	for _, p := range positions {
		s, err := Summarize(p.Loan, p.PaidInstallments)
		if err != nil {
			return PortfolioSummary{}, fmt.Errorf("loan %s: %w", p.Loan.ID, err)
		}
		out.Loans = append(out.Loans, LoanSummary{LoanID: p.Loan.ID, Name: p.Loan.Name, Summary: s})
		out.TotalOutstanding += s.CurrentBalance
		if s.RemainingInstallments > 0 {
			out.TotalPeriodicPay += s.MonthlyPayment
		}
		out.TotalInterestLeft += s.TotalInterest - s.InterestPaid
		weightedRate += s.CurrentBalance * p.Loan.AnnualRatePercent
	}

	out.WeightedAverageRate = calc.SafeDiv(weightedRate, out.TotalOutstanding)
	return out, nil
}
