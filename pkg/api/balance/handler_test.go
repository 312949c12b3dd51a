package balance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/core/ledger"
)

type fakeStore struct {
	saved []ledger.BalanceSnapshot
	err   error
}

func (f *fakeStore) SaveSnapshot(_ context.Context, snap ledger.BalanceSnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, snap)
	return nil
}

func newRouter(store SnapshotSaver) *mux.Router {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r := mux.NewRouter()
	NewHandler(nil, store, logger).Register(r)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

const balancedBody = `{
	"classify": true,
	"snapshot": {
		"organization_id": "org-1", "period_year": 2024, "period_month": 3,
		"accounts": [
			{"code": "1105", "name": "Caja", "amount": 1000},
			{"code": "1435", "name": "Inventario", "amount": 500},
			{"code": "1520", "name": "Maquinaria", "amount": 1500},
			{"code": "2205", "name": "Proveedores", "amount": 800},
			{"code": "2105", "name": "Banco largo plazo", "category": "liability", "subcategory": "non_current", "amount": 700},
			{"code": "3105", "name": "Capital", "amount": 1500}
		]
	}
}`

func TestHandleCheck(t *testing.T) {
	rec := post(newRouter(nil), "/api/balance/check", balancedBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	var resp CheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Check.IsBalanced || resp.Totals.Assets != 3000 {
		t.Errorf("unexpected check: %+v totals %+v", resp.Check, resp.Totals)
	}
	if resp.Assets["inventory"] != 500 || resp.Assets["current"] != 1000 || resp.Assets["non_current"] != 1500 {
		t.Errorf("unexpected asset groups: %v", resp.Assets)
	}
	// Explicit classification on an account wins over the table
	if resp.Liabilities["non_current"] != 700 || resp.Liabilities["current"] != 800 {
		t.Errorf("unexpected liability groups: %v", resp.Liabilities)
	}
	if resp.Snapshot.Status != ledger.StatusDraft {
		t.Errorf("status should default to draft, got %s", resp.Snapshot.Status)
	}
	if resp.AssetShares["non_current"] != 0.5 || resp.LiabilityShares["current"] != 0.2667 {
		t.Errorf("unexpected common-size shares: %v %v", resp.AssetShares, resp.LiabilityShares)
	}
	if resp.DigitScreen.Level != "insufficient_data" || resp.DigitScreen.Sample != 6 {
		t.Errorf("six accounts should not be scored: %+v", resp.DigitScreen)
	}
}

func TestHandleCheck_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"Missing organization", `{"snapshot": {"accounts": []}}`, http.StatusBadRequest},
		{"Undecodable", `not json at all {{{`, http.StatusBadRequest},
		{"Unclassified code", `{"classify": true, "snapshot": {"organization_id": "o", "accounts": [{"code": "9999", "amount": 1}]}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := post(newRouter(nil), "/api/balance/check", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandleFinalize(t *testing.T) {
	store := &fakeStore{}
	body := strings.Replace(balancedBody, `"classify": true,`, `"classify": true, "persist": true,`, 1)
	rec := post(newRouter(store), "/api/balance/finalize", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	var resp FinalizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Snapshot.Status != ledger.StatusFinal || !resp.Stored {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(store.saved) != 1 || store.saved[0].OrganizationID != "org-1" {
		t.Errorf("snapshot not stored: %+v", store.saved)
	}
}

func TestHandleFinalize_Rejections(t *testing.T) {
	unbalanced := `{"snapshot": {"organization_id": "org-1", "accounts": [
		{"code": "1105", "category": "asset", "subcategory": "current", "amount": 1000},
		{"code": "3105", "category": "equity", "subcategory": "capital", "amount": 900}
	]}}`
	rec := post(newRouter(nil), "/api/balance/finalize", unbalanced)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
		Check struct {
			Difference float64 `json:"difference"`
		} `json:"check"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Check.Difference != 100 || body.Error == "" {
		t.Errorf("unexpected rejection body: %+v", body)
	}

	final := `{"snapshot": {"organization_id": "org-1", "status": "final", "accounts": []}}`
	if rec := post(newRouter(nil), "/api/balance/finalize", final); rec.Code != http.StatusConflict {
		t.Errorf("already final: status = %d", rec.Code)
	}

	persistNoStore := strings.Replace(balancedBody, `"classify": true,`, `"classify": true, "persist": true,`, 1)
	if rec := post(newRouter(nil), "/api/balance/finalize", persistNoStore); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("persist without store: status = %d", rec.Code)
	}

	failing := &fakeStore{err: errors.New("disk full")}
	if rec := post(newRouter(failing), "/api/balance/finalize", persistNoStore); rec.Code != http.StatusInternalServerError {
		t.Errorf("store failure: status = %d", rec.Code)
	}
}
