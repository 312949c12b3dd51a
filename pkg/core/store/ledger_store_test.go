package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/core/cashflow"
	"ledger_analytics/pkg/core/debt"
	"ledger_analytics/pkg/core/indicators"
	"ledger_analytics/pkg/core/ledger"
)

func newFileStore(t *testing.T) (*LedgerStore, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	dir := t.TempDir()
	return NewLedgerStore(nil, dir, logger), dir
}

func TestLedgerStore_SnapshotRoundTrip(t *testing.T) {
	s, dir := newFileStore(t)
	ctx := context.Background()

	snap := ledger.BalanceSnapshot{
		OrganizationID: "org-1",
		PeriodYear:     2024,
		PeriodMonth:    3,
		Status:         ledger.StatusDraft,
		Accounts: []ledger.LedgerAccount{
			{Code: "1105", Name: "Caja", Category: ledger.CategoryAsset, Subcategory: ledger.SubcategoryCurrent, Amount: 1000},
		},
	}
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "org-1", KindSnapshot, "2024-03.json")); err != nil {
		t.Errorf("expected snapshot file: %v", err)
	}

	got, err := s.LoadSnapshot(ctx, "org-1", 2024, 3)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(*got, snap) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, snap)
	}

	// Another organization never sees org-1's data
	if _, err := s.LoadSnapshot(ctx, "org-2", 2024, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other org, got %v", err)
	}
}

func TestLedgerStore_Collections(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	day := 15
	items := []cashflow.RecurringItem{{
		ID:                  "rent",
		Name:                "Rent",
		Kind:                cashflow.FlowOutflow,
		PerPeriodBaseAmount: 1200,
		Recurrence:          cashflow.Recurrence{Frequency: cashflow.FrequencyMonthly, StartColumn: 1, PaymentDay: &day},
	}}
	if err := s.SaveRecurringItems(ctx, "org-1", items); err != nil {
		t.Fatal(err)
	}
	gotItems, err := s.LoadRecurringItems(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(gotItems) != 1 || gotItems[0].Recurrence.PaymentDay == nil || *gotItems[0].Recurrence.PaymentDay != 15 {
		t.Errorf("unexpected items: %+v", gotItems)
	}

	periods := []cashflow.PeriodInput{
		{Year: 2024, Month: 2, SalesCollections: 200},
		{Year: 2023, Month: 12, SalesCollections: 100},
		{Year: 2024, Month: 1, SalesCollections: 150},
	}
	if err := s.SavePeriods(ctx, "org-1", periods); err != nil {
		t.Fatal(err)
	}
	gotPeriods, err := s.LoadPeriods(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	wantOrder := []float64{100, 150, 200}
	for i, p := range gotPeriods {
		if p.SalesCollections != wantOrder[i] {
			t.Errorf("period %d out of order: %+v", i, p)
		}
	}

	loans := []debt.Position{{Loan: debt.Loan{ID: "l1", Name: "Truck", Principal: 10000, AnnualRatePercent: 12, InstallmentCount: 12, PeriodKind: debt.PeriodMonthly}, PaidInstallments: 2}}
	if err := s.SaveLoans(ctx, "org-1", loans); err != nil {
		t.Fatal(err)
	}
	gotLoans, err := s.LoadLoans(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gotLoans, loans) {
		t.Errorf("loans mismatch: %+v", gotLoans)
	}

	figures := []indicators.PeriodFigures{{Year: 2024, Month: 1, Income: indicators.IncomeFigures{Revenue: 500}}}
	if err := s.SaveFigures(ctx, "org-2", figures); err != nil {
		t.Fatal(err)
	}

	orgs, err := s.ListOrganizations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(orgs, []string{"org-1", "org-2"}) {
		t.Errorf("unexpected organizations: %v", orgs)
	}
}

func TestLedgerStore_Analysis(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	a := cashflow.Analyze([]cashflow.CashFlowPeriod{{NetFlow: 100, CumulativeFlow: 100}})
	if err := s.SaveAnalysis(ctx, AnalysisRecord{OrganizationID: "org-1", CashFlow: &a}); err != nil {
		t.Fatal(err)
	}
	rec, err := s.LoadAnalysis(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.GeneratedAt.IsZero() {
		t.Error("GeneratedAt should default to now")
	}
	if rec.CashFlow == nil || rec.CashFlow.HealthScore != a.HealthScore {
		t.Errorf("unexpected analysis: %+v", rec.CashFlow)
	}
	if rec.Indicators != nil {
		t.Error("indicators should stay nil")
	}
}

func TestLedgerStore_MergeAnalysis(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	alerts := []cashflow.PaymentAlert{{ItemName: "Rent", DaysUntil: 2}}
	if err := s.MergeAnalysis(ctx, AnalysisRecord{OrganizationID: "org-1", Alerts: alerts}); err != nil {
		t.Fatal(err)
	}

	a := cashflow.Analyze([]cashflow.CashFlowPeriod{{NetFlow: 100, CumulativeFlow: 100}})
	if err := s.MergeAnalysis(ctx, AnalysisRecord{OrganizationID: "org-1", CashFlow: &a}); err != nil {
		t.Fatal(err)
	}
	rec, err := s.LoadAnalysis(ctx, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.CashFlow == nil || len(rec.Alerts) != 1 || rec.Alerts[0].ItemName != "Rent" {
		t.Errorf("merge should keep both sections: %+v", rec)
	}

	// An empty, non-nil section replaces the stored one
	if err := s.MergeAnalysis(ctx, AnalysisRecord{OrganizationID: "org-1", Alerts: []cashflow.PaymentAlert{}}); err != nil {
		t.Fatal(err)
	}
	rec, _ = s.LoadAnalysis(ctx, "org-1")
	if len(rec.Alerts) != 0 || rec.CashFlow == nil {
		t.Errorf("alerts should be cleared and cash flow kept: %+v", rec)
	}
}

func TestLedgerStore_InvalidScope(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	for _, org := range []string{"", "../etc", "a/b", `a\b`} {
		if err := s.SaveRecurringItems(ctx, org, nil); !errors.Is(err, ErrInvalidScope) {
			t.Errorf("org %q: expected ErrInvalidScope, got %v", org, err)
		}
		if _, err := s.LoadPeriods(ctx, org); !errors.Is(err, ErrInvalidScope) {
			t.Errorf("org %q: expected ErrInvalidScope on load, got %v", org, err)
		}
	}
}

func TestListOrganizations_EmptyDir(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := &LedgerStore{fileDir: filepath.Join(t.TempDir(), "missing"), log: logger}
	orgs, err := s.ListOrganizations(context.Background())
	if err != nil || len(orgs) != 0 {
		t.Errorf("expected empty list, got %v, %v", orgs, err)
	}
}
