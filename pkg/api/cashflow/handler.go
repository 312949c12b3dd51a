package cashflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/api/httpx"
	"ledger_analytics/pkg/core/cashflow"
	"ledger_analytics/pkg/core/report"
	"ledger_analytics/pkg/core/store"
	"ledger_analytics/pkg/core/validate"
)

// DateLayout is the wire format of Request.Today.
const DateLayout = "2006-01-02"

// Store supplies stored inputs and keeps the latest analysis. Implemented by
// *store.LedgerStore.
type Store interface {
	LoadPeriods(ctx context.Context, orgID string) ([]cashflow.PeriodInput, error)
	LoadRecurringItems(ctx context.Context, orgID string) ([]cashflow.RecurringItem, error)
	MergeAnalysis(ctx context.Context, rec store.AnalysisRecord) error
	LoadAnalysis(ctx context.Context, orgID string) (*store.AnalysisRecord, error)
}

// Request carries the whole scope of a computation. When Periods is empty the
// organization's stored periods and recurring items are used instead.
type Request struct {
	OrganizationID string                   `json:"organization_id"`
	Periods        []cashflow.PeriodInput   `json:"periods"`
	Items          []cashflow.RecurringItem `json:"items"`
	Today          string                   `json:"today,omitempty"` // YYYY-MM-DD, alerts only
	Annotation     report.Annotation        `json:"annotation"`      // report only
	SaveAnalysis   bool                     `json:"save_analysis"`
}

type ProjectResponse struct {
	Periods     []cashflow.CashFlowPeriod `json:"periods"`
	Analysis    cashflow.Analysis         `json:"analysis"`
	SeriesCheck validate.SeriesCheck      `json:"series_check"`
	Stored      bool                      `json:"stored"`
}

type AlertsResponse struct {
	Today  string                  `json:"today"`
	Alerts []cashflow.PaymentAlert `json:"alerts"`
}

type ReportResponse struct {
	Table          report.Table `json:"table"`
	Markdown       string       `json:"markdown"`
	HTML           string       `json:"html"`
	HealthMarkdown string       `json:"health_markdown"`
	HealthHTML     string       `json:"health_html"`
}

// Handler serves cash-flow projection, alerts and reports.
type Handler struct {
	store Store
	log   *logrus.Logger
	now   func() time.Time
}

// NewHandler creates a cash-flow handler. store may be nil.
func NewHandler(s Store, logger *logrus.Logger) *Handler {
	return &Handler{store: s, log: logger, now: time.Now}
}

// WithClock overrides the server clock used when a request omits today.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/cashflow/project", h.HandleProject).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/cashflow/alerts", h.HandleAlerts).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/cashflow/report", h.HandleReport).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/cashflow/export/{format}", h.HandleExport).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/organizations/{org}/analysis", h.HandleLatestAnalysis).Methods(http.MethodGet, http.MethodOptions)
}

// =============================================================================
// INPUT RESOLUTION
// =============================================================================

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*Request, bool) {
	var req Request
	if _, err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if len(req.Periods) > 0 {
		return &req, true
	}
	if req.OrganizationID == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "periods or organization_id is required")
		return nil, false
	}
	if h.store == nil {
		httpx.WriteError(w, r, http.StatusServiceUnavailable, "ledger store is not configured")
		return nil, false
	}

	periods, err := h.store.LoadPeriods(r.Context(), req.OrganizationID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return nil, false
	}
	items, err := h.store.LoadRecurringItems(r.Context(), req.OrganizationID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.writeStoreError(w, r, err)
		return nil, false
	}
	req.Periods, req.Items = periods, items
	return &req, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidScope):
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.log.WithError(err).Error("[CASHFLOW] Store access failed")
		httpx.WriteError(w, r, http.StatusInternalServerError, "failed to access ledger store")
	}
}

func (h *Handler) project(w http.ResponseWriter, r *http.Request, req *Request) ([]cashflow.CashFlowPeriod, bool) {
	out, err := cashflow.Project(req.Periods, req.Items)
	if err != nil {
		httpx.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return out, true
}

// =============================================================================
// HANDLERS
// =============================================================================

func (h *Handler) HandleProject(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	periods, ok := h.project(w, r, req)
	if !ok {
		return
	}

	analysis := cashflow.Analyze(periods)
	resp := ProjectResponse{
		Periods:     periods,
		Analysis:    analysis,
		SeriesCheck: validate.CheckCumulativeSeries(cashflow.NetSeries(periods), cashflow.CumulativeSeries(periods), validate.BalanceTolerance),
	}

	if req.SaveAnalysis {
		if h.store == nil || req.OrganizationID == "" {
			httpx.WriteError(w, r, http.StatusBadRequest, "save_analysis needs organization_id and a ledger store")
			return
		}
		rec := store.AnalysisRecord{OrganizationID: req.OrganizationID, GeneratedAt: h.now().UTC(), CashFlow: &analysis}
		if err := h.store.MergeAnalysis(r.Context(), rec); err != nil {
			h.writeStoreError(w, r, err)
			return
		}
		resp.Stored = true
	}

	h.log.WithFields(logrus.Fields{
		"org":     req.OrganizationID,
		"periods": len(periods),
		"score":   analysis.HealthScore,
	}).Info("[CASHFLOW] Projection computed")
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	today := h.now()
	if req.Today != "" {
		parsed, err := time.Parse(DateLayout, req.Today)
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "today must be formatted as YYYY-MM-DD")
			return
		}
		today = parsed
	}
	for _, it := range req.Items {
		if err := it.Validate(); err != nil {
			httpx.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	alerts := cashflow.Alerts(req.Items, req.Periods, today)
	httpx.WriteJSON(w, http.StatusOK, AlertsResponse{Today: today.Format(DateLayout), Alerts: alerts})
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	periods, ok := h.project(w, r, req)
	if !ok {
		return
	}

	table := report.CashFlowTable(periods, req.Annotation)
	html, err := report.HTML(table)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	healthMD := report.HealthMarkdown(cashflow.Analyze(periods))
	healthHTML, err := report.RenderMarkdown(healthMD)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ReportResponse{
		Table:          table,
		Markdown:       report.Markdown(table),
		HTML:           html,
		HealthMarkdown: healthMD,
		HealthHTML:     healthHTML,
	})
}

// HandleExport returns the annotated cash-flow table as a downloadable
// workbook or PDF.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	contentType, err := report.ContentType(format)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	periods, ok := h.project(w, r, req)
	if !ok {
		return
	}

	data, err := report.Export(report.CashFlowTable(periods, req.Annotation), format)
	if err != nil {
		h.log.WithError(err).WithField("format", format).Error("[CASHFLOW] Export failed")
		httpx.WriteError(w, r, http.StatusInternalServerError, "failed to export report")
		return
	}

	name := "cashflow"
	if req.OrganizationID != "" {
		name += "-" + req.OrganizationID
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"."+format))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) HandleLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httpx.WriteError(w, r, http.StatusServiceUnavailable, "ledger store is not configured")
		return
	}
	rec, err := h.store.LoadAnalysis(r.Context(), mux.Vars(r)["org"])
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}
