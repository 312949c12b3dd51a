// Package api assembles the HTTP surface: one handler package per calculator
// behind a gorilla/mux router.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/api/balance"
	"ledger_analytics/pkg/api/cashflow"
	"ledger_analytics/pkg/api/cost"
	"ledger_analytics/pkg/api/debt"
	"ledger_analytics/pkg/api/httpx"
	"ledger_analytics/pkg/api/indicators"
	"ledger_analytics/pkg/api/investment"
	coreInvestment "ledger_analytics/pkg/core/investment"
	"ledger_analytics/pkg/core/ledger"
	"ledger_analytics/pkg/core/store"
	"ledger_analytics/pkg/metrics"
)

// Deps holds everything the handlers need. Store may be nil; endpoints that
// read stored data then answer 503.
type Deps struct {
	Logger         *logrus.Logger
	Store          *store.LedgerStore
	Catalog        *coreInvestment.Catalog
	Classification *ledger.ClassificationTable
	EnableMetrics  bool
}

// NewRouter wires every endpoint.
func NewRouter(d Deps) *mux.Router {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}

	r := mux.NewRouter()
	r.Use(httpx.WithRequestID, httpx.CORS, httpx.Instrument(d.Logger))

	// Interfaces stay nil when there is no store
	var (
		snapshots balance.SnapshotSaver
		loans     debt.LoanSource
		flows     cashflow.Store
		figures   indicators.FigureSource
	)
	if d.Store != nil {
		snapshots, loans, flows, figures = d.Store, d.Store, d.Store, d.Store
	}

	balance.NewHandler(d.Classification, snapshots, d.Logger).Register(r)
	cost.NewHandler(d.Logger).Register(r)
	debt.NewHandler(loans, d.Logger).Register(r)
	cashflow.NewHandler(flows, d.Logger).Register(r)
	investment.NewHandler(d.Catalog, d.Logger).Register(r)
	indicators.NewHandler(d.Classification, figures, d.Logger).Register(r)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if d.EnableMetrics {
		metrics.Init()
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
	return r
}

// Routes lists every registered path template with its methods, for startup logs.
func Routes(r *mux.Router) []string {
	var out []string
	_ = r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := route.GetMethods()
		label := "ANY"
		for _, m := range methods {
			if m != http.MethodOptions {
				label = m
				break
			}
		}
		out = append(out, label+" "+tpl)
		return nil
	})
	return out
}
