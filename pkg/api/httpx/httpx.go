// Package httpx holds the request/response plumbing shared by the API handlers.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/core/utils"
	"ledger_analytics/pkg/metrics"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// RequestIDHeader carries the correlation ID.
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = 0

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorResponse, echoing the request ID when present.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg, RequestID: RequestID(r.Context())})
}

// Decode reads the body into v. Malformed JSON is repaired where possible and
// fields tagged `required:"true"` must be present.
func Decode(r *http.Request, v interface{}) (utils.DecodeMode, error) {
	if r.Body == nil {
		return "", errors.New("request body is required")
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) > MaxBodyBytes {
		return "", fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
	}
	mode, err := utils.DecodeLenient(data, v)
	if err != nil {
		return "", err
	}
	if err := utils.RequireFields(v); err != nil {
		return mode, err
	}
	return mode, nil
}

// RequestID returns the correlation ID stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// WithRequestID propagates or assigns X-Request-ID.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// CORS adds the local-dev CORS headers and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Instrument logs each request and records it in the Prometheus metrics
// under its route template.
func Instrument(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			elapsed := time.Since(start)
			metrics.ObserveRequest(route, r.Method, rec.status, elapsed)

			logger.WithFields(logrus.Fields{
				"request_id": RequestID(r.Context()),
				"method":     r.Method,
				"route":      route,
				"status":     rec.status,
				"elapsed_ms": elapsed.Milliseconds(),
			}).Info("[API] request served")
		})
	}
}
