// Package metrics exposes Prometheus counters for the API and the alert daemon.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "ledger_"

const (
	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	alertScans      *prometheus.CounterVec
	alertsFound     prometheus.Counter
	alertEmailsSent *prometheus.CounterVec
)

// Init registers every collector with the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total API requests by route and status",
			},
			[]string{"route", "method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		)
		alertScans = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_scans_total",
				Help: "Per-organization payment alert scans by result",
			},
			[]string{"result"},
		)
		alertsFound = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "payment_alerts_total",
				Help: "Payment alerts raised across all scans",
			},
		)
		alertEmailsSent = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_emails_total",
				Help: "Alert digest emails by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(httpRequests, httpLatency, alertScans, alertsFound, alertEmailsSent)
	})
}

// ObserveRequest records one served API request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if httpRequests == nil {
		return
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveAlertScan records one organization scan and the alerts it produced.
func ObserveAlertScan(alerts int, err error) {
	if alertScans == nil {
		return
	}
	if err != nil {
		alertScans.WithLabelValues(resultError).Inc()
		return
	}
	alertScans.WithLabelValues(resultSuccess).Inc()
	alertsFound.Add(float64(alerts))
}

// ObserveAlertEmail records one digest delivery attempt.
func ObserveAlertEmail(err error) {
	if alertEmailsSent == nil {
		return
	}
	if err != nil {
		alertEmailsSent.WithLabelValues(resultError).Inc()
		return
	}
	alertEmailsSent.WithLabelValues(resultSuccess).Inc()
}
