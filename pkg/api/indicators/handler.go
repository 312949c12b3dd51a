package indicators

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/api/httpx"
	"ledger_analytics/pkg/core/indicators"
	"ledger_analytics/pkg/core/ledger"
	"ledger_analytics/pkg/core/store"
)

// FigureSource loads stored period figures.
type FigureSource interface {
	LoadFigures(ctx context.Context, orgID string) ([]indicators.PeriodFigures, error)
}

// Request selects one of three inputs, checked in order: Periods (a series),
// Snapshot or Balance (a single period), or OrganizationID alone (the stored
// series).
type Request struct {
	OrganizationID string                     `json:"organization_id"`
	Balance        *indicators.BalanceFigures `json:"balance,omitempty"`
	Snapshot       *ledger.BalanceSnapshot    `json:"snapshot,omitempty"`
	Income         indicators.IncomeFigures   `json:"income"`
	Periods        []indicators.PeriodFigures `json:"periods,omitempty"`
}

type Response struct {
	Indicators *indicators.IndicatorSet `json:"indicators,omitempty"`
	Series     *indicators.Series       `json:"series,omitempty"`
}

// Handler serves financial ratios and health scores.
type Handler struct {
	table   *ledger.ClassificationTable
	figures FigureSource
	log     *logrus.Logger
}

// NewHandler creates an indicators handler. figures may be nil.
func NewHandler(table *ledger.ClassificationTable, figures FigureSource, logger *logrus.Logger) *Handler {
	if table == nil {
		table = ledger.DefaultClassificationTable()
	}
	return &Handler{table: table, figures: figures, log: logger}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/indicators/calculate", h.HandleCalculate).Methods(http.MethodPost, http.MethodOptions)
}

func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req Request
	if _, err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case len(req.Periods) > 0:
		h.writeSeries(w, r, req.Periods)

	case req.Snapshot != nil:
		accounts, err := h.table.ClassifyAll(req.Snapshot.Accounts)
		if err != nil {
			httpx.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		snap := req.Snapshot.Clone()
		snap.Accounts = accounts
		set := indicators.Calculate(indicators.BalanceFiguresFromSnapshot(snap), req.Income)
		httpx.WriteJSON(w, http.StatusOK, Response{Indicators: &set})

	case req.Balance != nil:
		set := indicators.Calculate(*req.Balance, req.Income)
		httpx.WriteJSON(w, http.StatusOK, Response{Indicators: &set})

	case req.OrganizationID != "":
		if h.figures == nil {
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "ledger store is not configured")
			return
		}
		periods, err := h.figures.LoadFigures(r.Context(), req.OrganizationID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, r, http.StatusNotFound, err.Error())
			return
		case errors.Is(err, store.ErrInvalidScope):
			httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			h.log.WithError(err).Error("[INDICATORS] Failed to load figures")
			httpx.WriteError(w, r, http.StatusInternalServerError, "failed to load period figures")
			return
		}
		h.writeSeries(w, r, periods)

	default:
		httpx.WriteError(w, r, http.StatusBadRequest, "one of periods, snapshot, balance or organization_id is required")
	}
}

func (h *Handler) writeSeries(w http.ResponseWriter, r *http.Request, periods []indicators.PeriodFigures) {
	series := indicators.CalculateSeries(periods)
	h.log.WithFields(logrus.Fields{
		"periods": len(series.Periods),
		"trend":   series.Trend,
		"latest":  series.LatestScore,
	}).Debug("[INDICATORS] Series computed")
	httpx.WriteJSON(w, http.StatusOK, Response{Series: &series})
}
