package debt

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func exampleLoan() Loan {
	return Loan{
		ID:                "loan-1",
		Name:              "Working capital",
		Principal:         10_000_000,
		AnnualRatePercent: 12,
		InstallmentCount:  12,
		PeriodKind:        PeriodMonthly,
		StartPeriod:       time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestSchedule_Example(t *testing.T) {
	entries, err := Schedule(exampleLoan())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(entries))
	}

	// Exact French formula gives 888,487.89; the published figure is 888,488.29.
	if math.Abs(entries[0].Installment-888488.29) > 0.5 {
		t.Errorf("installment expected ~888,488.29, got %.2f", entries[0].Installment)
	}
	if entries[11].RemainingBalance != 0 {
		t.Errorf("final balance expected 0, got %v", entries[11].RemainingBalance)
	}

	// First period interest is 1% of the principal
	if math.Abs(entries[0].InterestPortion-100000) > 1e-6 {
		t.Errorf("first interest expected 100,000, got %v", entries[0].InterestPortion)
	}

	want := time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC)
	if !entries[0].DueDate.Equal(want) {
		t.Errorf("first due date expected %v, got %v", want, entries[0].DueDate)
	}
	if entries[11].DueDate.Year() != 2027 || entries[11].DueDate.Month() != time.January {
		t.Errorf("last due date expected 2027-01, got %v", entries[11].DueDate)
	}
}

func TestSchedule_PrincipalSumsToLoan(t *testing.T) {
	loans := []Loan{
		exampleLoan(),
		{Principal: 2500, AnnualRatePercent: 7.5, InstallmentCount: 8, PeriodKind: PeriodQuarterly},
		{Principal: 125000.55, AnnualRatePercent: 21, InstallmentCount: 60, PeriodKind: PeriodMonthly},
		{Principal: 1e9, AnnualRatePercent: 3.1, InstallmentCount: 10, PeriodKind: PeriodSemiannual},
		{Principal: 80000, AnnualRatePercent: 9, InstallmentCount: 5, PeriodKind: PeriodAnnual},
	}

	// Near-zero and very large rates stress the annuity factor
	kinds := []PeriodKind{PeriodMonthly, PeriodQuarterly, PeriodSemiannual, PeriodAnnual}
	for _, kind := range kinds {
		for _, rate := range []float64{0.0001, 0.01, 12, 99} {
			for _, count := range []int{1, 2, 60, 360} {
				for _, principal := range []float64{0.5, 1000, 1e9} {
					loans = append(loans, Loan{Principal: principal, AnnualRatePercent: rate, InstallmentCount: count, PeriodKind: kind})
				}
			}
		}
	}

	for _, l := range loans {
		entries, err := Schedule(l)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var principalSum float64
		for _, e := range entries {
			principalSum += e.PrincipalPortion
			if math.Abs(e.Installment-(e.PrincipalPortion+e.InterestPortion)) > 1e-6 {
				t.Errorf("installment split mismatch at period %d", e.Period)
			}
		}

		if last := entries[len(entries)-1]; last.RemainingBalance != 0 {
			t.Errorf("%+v: final balance %v", l, last.RemainingBalance)
		}
		tolerance := 0.01 * float64(l.InstallmentCount)
		if math.Abs(principalSum-l.Principal) > tolerance {
			t.Errorf("%+v: portions sum to %v", l, principalSum)
		}
	}
}

func TestInstallment_NearZeroRate(t *testing.T) {
	// With a vanishing rate the installment approaches principal/count
	l := Loan{Principal: 1e9, AnnualRatePercent: 0.0001, InstallmentCount: 2, PeriodKind: PeriodSemiannual}
	pay, err := Installment(l)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pay-500_000_375) > 1 {
		t.Errorf("installment expected ~500,000,375, got %.4f", pay)
	}
}

func TestSchedule_PeriodicRate(t *testing.T) {
	l := Loan{Principal: 1000, AnnualRatePercent: 12, InstallmentCount: 4, PeriodKind: PeriodQuarterly}
	rate, err := PeriodicRate(l)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rate-0.03) > 1e-12 {
		t.Errorf("quarterly rate expected 0.03, got %v", rate)
	}
}

func TestSchedule_DegenerateLoans(t *testing.T) {
	tests := []struct {
		name string
		loan Loan
	}{
		{"Zero principal", Loan{Principal: 0, AnnualRatePercent: 12, InstallmentCount: 12, PeriodKind: PeriodMonthly}},
		{"Negative principal", Loan{Principal: -10, AnnualRatePercent: 12, InstallmentCount: 12, PeriodKind: PeriodMonthly}},
		{"Zero rate", Loan{Principal: 1000, AnnualRatePercent: 0, InstallmentCount: 12, PeriodKind: PeriodMonthly}},
		{"Zero installments", Loan{Principal: 1000, AnnualRatePercent: 12, InstallmentCount: 0, PeriodKind: PeriodMonthly}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Schedule(tt.loan)
			if err != nil {
				t.Fatalf("degenerate loan should not error: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("expected empty schedule, got %d entries", len(entries))
			}
			pay, err := Installment(tt.loan)
			if err != nil || pay != 0 {
				t.Errorf("expected zero installment, got %v (%v)", pay, err)
			}
		})
	}
}

func TestSchedule_UnknownPeriodKind(t *testing.T) {
	l := exampleLoan()
	l.PeriodKind = "weekly"

	if _, err := Schedule(l); !errors.Is(err, ErrUnknownPeriodKind) {
		t.Errorf("expected ErrUnknownPeriodKind, got %v", err)
	}
}

func TestSchedule_Idempotent(t *testing.T) {
	a, _ := Schedule(exampleLoan())
	b, _ := Schedule(exampleLoan())
	if !reflect.DeepEqual(a, b) {
		t.Error("Schedule is not deterministic")
	}
}

func TestSummarize(t *testing.T) {
	l := exampleLoan()
	entries, _ := Schedule(l)

	s, err := Summarize(l, 4)
	if err != nil {
		t.Fatal(err)
	}
	if s.RemainingInstallments != 8 || s.PaidInstallments != 4 {
		t.Errorf("expected 8 remaining / 4 paid, got %d / %d", s.RemainingInstallments, s.PaidInstallments)
	}
	if s.CurrentBalance != entries[3].RemainingBalance {
		t.Errorf("current balance expected %v, got %v", entries[3].RemainingBalance, s.CurrentBalance)
	}
	if s.MonthlyPayment != entries[0].Installment {
		t.Errorf("monthly payment expected %v, got %v", entries[0].Installment, s.MonthlyPayment)
	}
	if math.Abs(s.PrincipalPaid-(l.Principal-s.CurrentBalance)) > 1e-4 {
		t.Errorf("principal paid %v does not match balance reduction", s.PrincipalPaid)
	}

	start, _ := Summarize(l, 0)
	if start.CurrentBalance != l.Principal || start.RemainingInstallments != 12 {
		t.Errorf("unexpected summary at 0: %+v", start)
	}

	end, _ := Summarize(l, 40)
	if end.CurrentBalance != 0 || end.RemainingInstallments != 0 {
		t.Errorf("asOf beyond count should clamp to the end, got %+v", end)
	}

	empty, err := Summarize(Loan{PeriodKind: PeriodMonthly}, 3)
	if err != nil || empty != (Summary{}) {
		t.Errorf("expected zero summary for unschedulable loan, got %+v (%v)", empty, err)
	}
}

func TestSummarizePortfolio(t *testing.T) {
	a := exampleLoan()
	b := Loan{ID: "loan-2", Principal: 5_000_000, AnnualRatePercent: 24, InstallmentCount: 4, PeriodKind: PeriodQuarterly}

	p, err := SummarizePortfolio([]Position{
		{Loan: a, PaidInstallments: 0},
		{Loan: b, PaidInstallments: 4},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(p.Loans) != 2 || p.Loans[1].LoanID != "loan-2" {
		t.Fatalf("unexpected loan summaries: %+v", p.Loans)
	}
	if p.TotalOutstanding != a.Principal {
		t.Errorf("outstanding expected %v, got %v", a.Principal, p.TotalOutstanding)
	}
	// Paid-off loan carries no balance, so the weighted rate is loan-1's rate
	if math.Abs(p.WeightedAverageRate-12) > 1e-9 {
		t.Errorf("weighted rate expected 12, got %v", p.WeightedAverageRate)
	}
	if p.TotalPeriodicPay != p.Loans[0].Summary.MonthlyPayment {
		t.Errorf("paid-off loan should not add to periodic payment")
	}

	bad := a
	bad.PeriodKind = "daily"
	if _, err := SummarizePortfolio([]Position{{Loan: bad}}); !errors.Is(err, ErrUnknownPeriodKind) {
		t.Errorf("expected ErrUnknownPeriodKind, got %v", err)
	}
}
