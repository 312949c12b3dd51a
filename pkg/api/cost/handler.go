package cost

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/api/httpx"
	"ledger_analytics/pkg/core/cost"
)

type Request struct {
	Model        cost.CostModel `json:"model"`
	Scenario     *cost.Scenario `json:"scenario,omitempty"`
	TargetProfit *float64       `json:"target_profit,omitempty"`
}

type Response struct {
	Analysis       cost.Analysis           `json:"analysis"`
	Sensitivity    *cost.SensitivityResult `json:"sensitivity,omitempty"`
	UnitsForTarget *float64                `json:"units_for_target_profit,omitempty"`
}

// Handler serves cost-volume-profit analysis.
type Handler struct {
	log *logrus.Logger
}

func NewHandler(logger *logrus.Logger) *Handler {
	return &Handler{log: logger}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/cost/analyze", h.HandleAnalyze).Methods(http.MethodPost, http.MethodOptions)
}

func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req Request
	if _, err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Model.UnitPrice < 0 || req.Model.VariableCostPerUnit < 0 || req.Model.MonthlyFixedCosts < 0 || req.Model.CurrentMonthlyUnits < 0 {
		httpx.WriteError(w, r, http.StatusUnprocessableEntity, "cost model values must not be negative")
		return
	}

	resp := Response{Analysis: cost.Analyze(req.Model)}
	if req.Scenario != nil {
		s := cost.Sensitivity(req.Model, *req.Scenario)
		resp.Sensitivity = &s
	}
	if req.TargetProfit != nil {
		units := cost.UnitsForTargetProfit(req.Model, *req.TargetProfit)
		resp.UnitsForTarget = &units
	}

	if !resp.Analysis.HasBreakEven {
		h.log.WithField("request_id", httpx.RequestID(r.Context())).Debug("[COST] Model has no break-even point")
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
