package debt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/core/debt"
	"ledger_analytics/pkg/core/store"
)

type fakeLoans map[string][]debt.Position

func (f fakeLoans) LoadLoans(_ context.Context, orgID string) ([]debt.Position, error) {
	p, ok := f[orgID]
	if !ok {
		return nil, fmt.Errorf("loans %s: %w", orgID, store.ErrNotFound)
	}
	return p, nil
}

func serve(loans LoanSource, path, body string) *httptest.ResponseRecorder {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r := mux.NewRouter()
	NewHandler(loans, logger).Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func TestHandleSchedule(t *testing.T) {
	body := `{"loan": {"principal": 10000000, "annual_rate_percent": 12, "installment_count": 12, "period_kind": "monthly"}, "paid_installments": 12}`
	rec := serve(nil, "/api/debt/schedule", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	var resp ScheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Schedule) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(resp.Schedule))
	}
	if math.Abs(resp.PeriodicRate-0.01) > 1e-12 || math.Abs(resp.Installment-888488.29) > 0.5 {
		t.Errorf("unexpected rate/installment: %v / %v", resp.PeriodicRate, resp.Installment)
	}
	if resp.Summary == nil || resp.Summary.CurrentBalance != 0 || resp.Summary.RemainingInstallments != 0 {
		t.Errorf("unexpected summary: %+v", resp.Summary)
	}
}

func TestHandleSchedule_Errors(t *testing.T) {
	rec := serve(nil, "/api/debt/schedule", `{"loan": {"principal": 100, "annual_rate_percent": 5, "installment_count": 2, "period_kind": "weekly"}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown period kind: status = %d", rec.Code)
	}

	// Mid-edit loans produce an empty schedule, not an error
	rec = serve(nil, "/api/debt/schedule", `{"loan": {"principal": 0, "annual_rate_percent": 5, "installment_count": 2, "period_kind": "monthly"}}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"schedule":[]`) {
		t.Errorf("expected empty schedule, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSummary(t *testing.T) {
	loans := fakeLoans{"org-1": {
		{Loan: debt.Loan{ID: "a", Principal: 1000, AnnualRatePercent: 12, InstallmentCount: 10, PeriodKind: debt.PeriodMonthly}},
	}}

	t.Run("Inline positions", func(t *testing.T) {
		body := `{"positions": [{"loan": {"id": "x", "principal": 500, "annual_rate_percent": 10, "installment_count": 5, "period_kind": "monthly"}, "paid_installments": 5}]}`
		rec := serve(nil, "/api/debt/summary", body)
		var resp debt.PortfolioSummary
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Loans) != 1 || math.Abs(resp.TotalOutstanding) > 1e-9 {
			t.Errorf("unexpected summary: %+v", resp)
		}
	})

	t.Run("Stored loans", func(t *testing.T) {
		rec := serve(loans, "/api/debt/summary", `{"organization_id": "org-1"}`)
		var resp debt.PortfolioSummary
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if rec.Code != http.StatusOK || resp.TotalOutstanding != 1000 {
			t.Errorf("unexpected stored summary: %d %+v", rec.Code, resp)
		}
	})

	t.Run("Unknown organization", func(t *testing.T) {
		if rec := serve(loans, "/api/debt/summary", `{"organization_id": "org-9"}`); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("No store", func(t *testing.T) {
		if rec := serve(nil, "/api/debt/summary", `{"organization_id": "org-1"}`); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d", rec.Code)
		}
	})
}
