package investment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/api/httpx"
	"ledger_analytics/pkg/core/investment"
)

type ProjectRequest struct {
	ProductID string  `json:"product_id" required:"true"`
	Amount    float64 `json:"amount"`
	// Months restricts the projection to one horizon; 0 projects every standard horizon.
	Months int `json:"months,omitempty"`
}

type ProjectResponse struct {
	Product     investment.Product      `json:"product"`
	Projections []investment.Projection `json:"projections"`
}

type PortfolioRequest struct {
	Amount      float64 `json:"amount"`
	RiskProfile string  `json:"risk_profile" required:"true"`
	Strategy    string  `json:"strategy"`
}

type CatalogResponse struct {
	Products   []investment.Product `json:"products"`
	Strategies []string             `json:"strategies"`
	Horizons   []int                `json:"horizons"`
}

// Handler serves return projections and portfolio recommendations over a
// read-only catalog.
type Handler struct {
	catalog *investment.Catalog
	log     *logrus.Logger
}

func NewHandler(catalog *investment.Catalog, logger *logrus.Logger) *Handler {
	return &Handler{catalog: catalog, log: logger}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/investment/project", h.HandleProject).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/investment/portfolio", h.HandlePortfolio).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/investment/catalog", h.HandleCatalog).Methods(http.MethodGet, http.MethodOptions)
}

func (h *Handler) HandleProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if _, err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount < 0 || req.Months < 0 {
		httpx.WriteError(w, r, http.StatusUnprocessableEntity, "amount and months must not be negative")
		return
	}
	product, ok := h.catalog.Product(req.ProductID)
	if !ok {
		httpx.WriteError(w, r, http.StatusNotFound, "unknown product: "+req.ProductID)
		return
	}

	resp := ProjectResponse{Product: product}
	if req.Months > 0 {
		resp.Projections = []investment.Projection{investment.ProjectReturn(req.Amount, product, req.Months)}
	} else {
		resp.Projections = investment.ProjectHorizons(req.Amount, product)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	var req PortfolioRequest
	if _, err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := investment.ParseRiskLevel(req.RiskProfile)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Strategy == "" {
		req.Strategy = investment.EqualStrategy{}.Name()
	}

	portfolio, err := investment.BuildPortfolio(req.Amount, profile, req.Strategy, h.catalog)
	switch {
	case errors.Is(err, investment.ErrUnknownStrategy):
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		httpx.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.log.WithFields(logrus.Fields{
		"profile":     profile,
		"strategy":    portfolio.Strategy,
		"allocations": len(portfolio.Allocations),
	}).Info("[INVESTMENT] Portfolio built")
	httpx.WriteJSON(w, http.StatusOK, portfolio)
}

// HandleCatalog lists the catalog. With ?horizon=N the products are ranked by
// the rate they publish for an N-month horizon.
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.Products()
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil || months <= 0 {
			httpx.WriteError(w, r, http.StatusBadRequest, "horizon must be a positive number of months")
			return
		}
		products = investment.RankForHorizon(h.catalog, months)
	}

	httpx.WriteJSON(w, http.StatusOK, CatalogResponse{
		Products:   products,
		Strategies: investment.StrategyNames(),
		Horizons:   investment.Horizons,
	})
}
