package debt

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/api/httpx"
	"ledger_analytics/pkg/core/debt"
	"ledger_analytics/pkg/core/store"
)

// LoanSource loads stored loans for an organization.
type LoanSource interface {
	LoadLoans(ctx context.Context, orgID string) ([]debt.Position, error)
}

type ScheduleRequest struct {
	Loan debt.Loan `json:"loan"`
	// PaidInstallments, when set, adds a summary as of that installment.
	PaidInstallments *int `json:"paid_installments,omitempty"`
}

type ScheduleResponse struct {
	PeriodicRate float64                  `json:"periodic_rate"`
	Installment  float64                  `json:"installment"`
	Schedule     []debt.AmortizationEntry `json:"schedule"`
	Summary      *debt.Summary            `json:"summary,omitempty"`
}

// SummaryRequest summarizes the given positions, or the organization's stored
// loans when Positions is empty.
type SummaryRequest struct {
	OrganizationID string          `json:"organization_id"`
	Positions      []debt.Position `json:"positions"`
}

// Handler serves loan schedules and debt summaries.
type Handler struct {
	loans LoanSource
	log   *logrus.Logger
}

// NewHandler creates a debt handler. loans may be nil.
func NewHandler(loans LoanSource, logger *logrus.Logger) *Handler {
	return &Handler{loans: loans, log: logger}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/debt/schedule", h.HandleSchedule).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/debt/summary", h.HandleSummary).Methods(http.MethodPost, http.MethodOptions)
}

func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if _, err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := debt.Schedule(req.Loan)
	if err != nil {
		httpx.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	rate, _ := debt.PeriodicRate(req.Loan)
	installment, _ := debt.Installment(req.Loan)

	resp := ScheduleResponse{PeriodicRate: rate, Installment: installment, Schedule: entries}
	if req.PaidInstallments != nil {
		s, err := debt.Summarize(req.Loan, *req.PaidInstallments)
		if err != nil {
			httpx.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		resp.Summary = &s
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if _, err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	positions := req.Positions
	if len(positions) == 0 && req.OrganizationID != "" {
		if h.loans == nil {
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "ledger store is not configured")
			return
		}
		stored, err := h.loans.LoadLoans(r.Context(), req.OrganizationID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, r, http.StatusNotFound, err.Error())
			return
		case errors.Is(err, store.ErrInvalidScope):
			httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			h.log.WithError(err).Error("[DEBT] Failed to load loans")
			httpx.WriteError(w, r, http.StatusInternalServerError, "failed to load loans")
			return
		}
		positions = stored
	}

	summary, err := debt.SummarizePortfolio(positions)
	if err != nil {
		httpx.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.log.WithFields(logrus.Fields{"org": req.OrganizationID, "loans": len(summary.Loans)}).Debug("[DEBT] Portfolio summarized")
	httpx.WriteJSON(w, http.StatusOK, summary)
}
