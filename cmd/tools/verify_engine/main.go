// verify_engine runs the calculators on fixed reference inputs and prints the
// results next to the expected figures.
package main

import (
	"fmt"
	"math"
	"os"
	"strings"

	"ledger_analytics/pkg/core/cashflow"
	"ledger_analytics/pkg/core/cost"
	"ledger_analytics/pkg/core/debt"
	"ledger_analytics/pkg/core/investment"
	"ledger_analytics/pkg/core/report"
	"ledger_analytics/pkg/core/validate"
)

var failures int

func check(label string, got, want, tol float64) {
	status := "OK"
	if math.Abs(got-want) > tol {
		status = "MISMATCH"
		failures++
	}
	fmt.Printf("%-40s | %18.2f | %18.2f | %s\n", label, got, want, status)
}

func header(title string) {
	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("%s\n", title)
	fmt.Println(strings.Repeat("=", 90))
	fmt.Printf("%-40s | %18s | %18s | %s\n", "CHECK", "GOT", "EXPECTED", "STATUS")
	fmt.Println(strings.Repeat("-", 90))
}

func main() {
	header("DEBT AMORTIZATION (10,000,000 @ 12% x 12 monthly)")
	loan := debt.Loan{Principal: 10_000_000, AnnualRatePercent: 12, InstallmentCount: 12, PeriodKind: debt.PeriodMonthly}
	entries, err := debt.Schedule(loan)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	var principalSum float64
	for _, e := range entries {
		principalSum += e.PrincipalPortion
	}
	check("Installment", entries[0].Installment, 888488.29, 0.5)
	check("Balance after installment 12", entries[len(entries)-1].RemainingBalance, 0, 1e-9)
	check("Sum of principal portions", principalSum, loan.Principal, 0.01)

	header("COST-VOLUME-PROFIT (50,000 / 20,000 / 3,000,000 / 150u)")
	a := cost.Analyze(cost.CostModel{UnitPrice: 50000, VariableCostPerUnit: 20000, MonthlyFixedCosts: 3000000, CurrentMonthlyUnits: 150})
	check("Contribution margin per unit", a.ContributionMarginPerUnit, 30000, 0)
	check("Break-even units", a.BreakEvenUnits, 100, 0)
	check("Current monthly profit", a.CurrentMonthlyProfit, 1500000, 0)

	header("BALANCE EQUATION (1000 = 600 + 400)")
	bc := validate.CheckBalanceEquation(1000, 600, 400)
	check("Difference", bc.Difference, 0, 0)
	check("Is balanced (1 = true)", boolFloat(bc.IsBalanced), 1, 0)

	header("RECURRENCE (quarterly, columns 1..12)")
	end := 12
	item := cashflow.RecurringItem{Name: "Quarterly fee", Kind: cashflow.FlowOutflow, PerPeriodBaseAmount: 1,
		Recurrence: cashflow.Recurrence{Frequency: cashflow.FrequencyQuarterly, StartColumn: 1, EndColumn: &end}}
	cols := cashflow.TouchedColumns(item, 12)
	fmt.Printf("Touched columns: %v (expected [1 4 7 10])\n", cols)
	if fmt.Sprint(cols) != "[1 4 7 10]" {
		failures++
	}

	header("CASH FLOW PROJECTION")
	periods, err := cashflow.Project(
		[]cashflow.PeriodInput{
			{Month: 1, Year: 2026, SalesCollections: 1000, Payroll: 400},
			{Month: 2, Year: 2026, SalesCollections: 500, Payroll: 800},
			{Month: 3, Year: 2026, Rent: 100},
		},
		[]cashflow.RecurringItem{
			{Name: "Retainer", Kind: cashflow.FlowInflow, PerPeriodBaseAmount: 50, Recurrence: cashflow.Recurrence{Frequency: cashflow.FrequencyMonthly, StartColumn: 1}},
			{Name: "Equipment", Kind: cashflow.FlowOutflow, PerPeriodBaseAmount: 200, Recurrence: cashflow.Recurrence{Frequency: cashflow.FrequencySingle, StartColumn: 2}},
		},
	)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	check("Final cumulative", periods[len(periods)-1].CumulativeFlow, 150, 1e-9)
	sc := validate.CheckCumulativeSeries(cashflow.NetSeries(periods), cashflow.CumulativeSeries(periods), validate.BalanceTolerance)
	check("Cumulative is prefix sum (1 = true)", boolFloat(sc.IsConsistent), 1, 0)
	fmt.Println()
	fmt.Print(report.Markdown(report.CashFlowTable(periods, report.Annotation{HiddenRows: []string{report.RowRent, report.RowUtilities, report.RowTaxes}})))
	fmt.Println()
	fmt.Print(report.HealthMarkdown(cashflow.Analyze(periods)))

	header("PORTFOLIO (1000 split equally over 3)")
	catalog, err := investment.NewCatalog([]investment.Product{
		{ID: "a", RiskLevel: investment.RiskConservative, Returns: investment.Returns{TwelveMonths: 10}},
		{ID: "b", RiskLevel: investment.RiskConservative, Returns: investment.Returns{TwelveMonths: 9}},
		{ID: "c", RiskLevel: investment.RiskConservative, Returns: investment.Returns{TwelveMonths: 8}},
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	p, err := investment.BuildPortfolio(1000, investment.RiskConservative, "equal", catalog)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	var total float64
	for _, al := range p.Allocations {
		fmt.Printf("  %-6s %6.2f%% %10.2f\n", al.ProductID, al.Percentage, al.Amount)
		total += al.Amount
	}
	check("Allocated amount", total, 1000, 0.001)

	fmt.Println("\n" + strings.Repeat("=", 90))
	if failures > 0 {
		fmt.Printf("%d check(s) failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("All checks passed")
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
