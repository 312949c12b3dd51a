package investment

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/core/investment"
)

func newRouter(t *testing.T) *mux.Router {
	t.Helper()
	catalog, err := investment.LoadCatalog("../../../resources/catalog.hjson")
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r := mux.NewRouter()
	NewHandler(catalog, logger).Register(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandleProject(t *testing.T) {
	r := newRouter(t)

	rec := do(r, http.MethodPost, "/api/investment/project", `{"product_id": "cdt-90", "amount": 1000000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp ProjectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Projections) != 3 {
		t.Fatalf("expected 3 horizons, got %d", len(resp.Projections))
	}
	if math.Abs(resp.Projections[0].Earnings-22750) > 1e-6 || math.Abs(resp.Projections[2].Earnings-98000) > 1e-6 {
		t.Errorf("unexpected projections: %+v", resp.Projections)
	}

	rec = do(r, http.MethodPost, "/api/investment/project", `{"product_id": "cdt-90", "amount": 1000000, "months": 6}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Projections) != 1 || resp.Projections[0].Months != 6 {
		t.Errorf("expected single 6 month projection, got %+v", resp.Projections)
	}
}

func TestHandleProject_Errors(t *testing.T) {
	r := newRouter(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"Unknown product", `{"product_id": "nope", "amount": 10}`, http.StatusNotFound},
		{"Missing product", `{"amount": 10}`, http.StatusBadRequest},
		{"Negative amount", `{"product_id": "cdt-90", "amount": -1}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(r, http.MethodPost, "/api/investment/project", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlePortfolio(t *testing.T) {
	r := newRouter(t)

	for _, strategy := range []string{"", "equal", "return-optimized", "risk-weighted"} {
		t.Run("strategy "+strategy, func(t *testing.T) {
			body := `{"amount": 1000000, "risk_profile": "moderate", "strategy": "` + strategy + `"}`
			rec := do(r, http.MethodPost, "/api/investment/portfolio", body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			var p investment.Portfolio
			if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
				t.Fatal(err)
			}
			if len(p.Allocations) != investment.MinCandidates {
				t.Fatalf("expected %d allocations, got %d", investment.MinCandidates, len(p.Allocations))
			}
			var amount, pct float64
			for _, a := range p.Allocations {
				amount += a.Amount
				pct += a.Percentage
			}
			if math.Abs(amount-1000000) > 0.005 || math.Abs(pct-100) > 0.005 {
				t.Errorf("allocations do not add up: amount %v pct %v", amount, pct)
			}
		})
	}
}

func TestHandlePortfolio_Errors(t *testing.T) {
	r := newRouter(t)
	if rec := do(r, http.MethodPost, "/api/investment/portfolio", `{"amount": 10, "risk_profile": "reckless"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad profile: status = %d", rec.Code)
	}
	if rec := do(r, http.MethodPost, "/api/investment/portfolio", `{"amount": 10, "risk_profile": "moderate", "strategy": "lottery"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad strategy: status = %d", rec.Code)
	}
}

func TestHandleCatalog(t *testing.T) {
	rec := do(newRouter(t), http.MethodGet, "/api/investment/catalog", "")
	var resp CatalogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Products) != 10 || len(resp.Strategies) != 3 || len(resp.Horizons) != 3 {
		t.Errorf("unexpected catalog: %d products, %v, %v", len(resp.Products), resp.Strategies, resp.Horizons)
	}
}

func TestHandleCatalog_RankedByHorizon(t *testing.T) {
	r := newRouter(t)

	rec := do(r, http.MethodGet, "/api/investment/catalog?horizon=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp CatalogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Products) != 10 {
		t.Fatalf("expected 10 products, got %d", len(resp.Products))
	}
	for i := 1; i < len(resp.Products); i++ {
		if resp.Products[i].Returns.ThreeMonths > resp.Products[i-1].Returns.ThreeMonths {
			t.Errorf("products not ranked by 3-month rate at %d: %v > %v",
				i, resp.Products[i].Returns.ThreeMonths, resp.Products[i-1].Returns.ThreeMonths)
		}
	}

	for _, bad := range []string{"0", "-6", "twelve"} {
		if rec := do(r, http.MethodGet, "/api/investment/catalog?horizon="+bad, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("horizon=%s: status = %d, want 400", bad, rec.Code)
		}
	}
}
