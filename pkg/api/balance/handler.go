package balance

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/api/httpx"
	"ledger_analytics/pkg/core/calc"
	"ledger_analytics/pkg/core/ledger"
	"ledger_analytics/pkg/core/validate"
)

// SnapshotSaver persists finalized snapshots.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, snap ledger.BalanceSnapshot) error
}

type Request struct {
	Snapshot ledger.BalanceSnapshot `json:"snapshot"`
	// Classify fills category/subcategory from the account code table first.
	Classify bool `json:"classify"`
	// Persist stores the finalized snapshot (finalize only).
	Persist bool `json:"persist"`
}

type CheckResponse struct {
	Check       validate.BalanceCheck `json:"check"`
	Totals      ledger.Totals         `json:"totals"`
	Assets      map[string]float64    `json:"assets_by_subcategory"`
	Liabilities map[string]float64    `json:"liabilities_by_subcategory"`

	// Common-size shares of total assets.
	AssetShares     map[string]float64     `json:"asset_shares"`
	LiabilityShares map[string]float64     `json:"liability_shares"`
	DigitScreen     calc.DigitScreen       `json:"digit_screen"`
	Snapshot        ledger.BalanceSnapshot `json:"snapshot"`
}

type FinalizeResponse struct {
	Snapshot ledger.BalanceSnapshot `json:"snapshot"`
	Check    validate.BalanceCheck  `json:"check"`
	Stored   bool                   `json:"stored"`
}

// Handler holds dependencies for balance endpoints
type Handler struct {
	table *ledger.ClassificationTable
	store SnapshotSaver
	log   *logrus.Logger
}

// NewHandler creates a new balance handler. store may be nil.
func NewHandler(table *ledger.ClassificationTable, store SnapshotSaver, logger *logrus.Logger) *Handler {
	if table == nil {
		table = ledger.DefaultClassificationTable()
	}
	return &Handler{table: table, store: store, log: logger}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/balance/check", h.HandleCheck).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/balance/finalize", h.HandleFinalize).Methods(http.MethodPost, http.MethodOptions)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*Request, bool) {
	var req Request
	if _, err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if req.Snapshot.OrganizationID == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "snapshot.organization_id is required")
		return nil, false
	}
	if req.Classify {
		accounts, err := h.table.ClassifyAll(req.Snapshot.Accounts)
		if err != nil {
			httpx.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
			return nil, false
		}
		req.Snapshot.Accounts = accounts
	}
	if req.Snapshot.Status == "" {
		req.Snapshot.Status = ledger.StatusDraft
	}
	return &req, true
}

func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	accounts := req.Snapshot.Accounts
	totals := ledger.ComputeTotals(accounts)
	assets := ledger.GroupBySubcategory(accounts, ledger.CategoryAsset)
	liabilities := ledger.GroupBySubcategory(accounts, ledger.CategoryLiability)

	amounts := make([]float64, 0, len(accounts))
	for _, a := range accounts {
		amounts = append(amounts, a.Amount)
	}
	screen := calc.ScreenLeadingDigits(amounts)
	if screen.Flagged {
		h.log.WithFields(logrus.Fields{
			"org": req.Snapshot.OrganizationID,
			"mad": screen.MAD,
		}).Warn("[BALANCE] Leading-digit screen flagged account amounts")
	}

	httpx.WriteJSON(w, http.StatusOK, CheckResponse{
		Check:           validate.CheckSnapshot(req.Snapshot),
		Totals:          totals,
		Assets:          assets,
		Liabilities:     liabilities,
		AssetShares:     calc.CommonSize(assets, totals.Assets),
		LiabilityShares: calc.CommonSize(liabilities, totals.Assets),
		DigitScreen:     screen,
		Snapshot:        req.Snapshot,
	})
}

func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	final, err := validate.Finalize(req.Snapshot)
	var unbalanced *validate.UnbalancedError
	switch {
	case errors.As(err, &unbalanced):
		h.log.WithField("org", req.Snapshot.OrganizationID).Warnf("[BALANCE] Finalize rejected: %v", err)
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, struct {
			httpx.ErrorResponse
			Check validate.BalanceCheck `json:"check"`
		}{httpx.ErrorResponse{Error: err.Error(), RequestID: httpx.RequestID(r.Context())}, unbalanced.Check})
		return
	case errors.Is(err, validate.ErrAlreadyFinal):
		httpx.WriteError(w, r, http.StatusConflict, err.Error())
		return
	case err != nil:
		httpx.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	resp := FinalizeResponse{Snapshot: final, Check: validate.CheckSnapshot(final)}
	if req.Persist {
		if h.store == nil {
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "ledger store is not configured")
			return
		}
		if err := h.store.SaveSnapshot(r.Context(), final); err != nil {
			h.log.WithError(err).Error("[BALANCE] Failed to store snapshot")
			httpx.WriteError(w, r, http.StatusInternalServerError, "failed to store snapshot")
			return
		}
		resp.Stored = true
	}

	h.log.WithFields(logrus.Fields{
		"org":    final.OrganizationID,
		"period": final.PeriodYear*100 + final.PeriodMonth,
		"stored": resp.Stored,
	}).Info("[BALANCE] Snapshot finalized")
	httpx.WriteJSON(w, http.StatusOK, resp)
}
