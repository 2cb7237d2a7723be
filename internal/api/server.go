// Package api exposes the engine over HTTP: aggregate view queries, sale
// submission with inline propagation, and the health snapshot.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"salesync/internal/health"
	"salesync/internal/query"
	"salesync/pkg/model"
)

// Error codes returned in JSON error bodies.
const (
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeInternal   = "INTERNAL"
)

// APIError is the JSON error body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ViewEngine answers aggregate view queries.
type ViewEngine interface {
	Query(ctx context.Context, store, view string, opts query.Options) (*model.Result, error)
}

// FactWriter commits a sale to the store of record.
type FactWriter interface {
	InsertSale(ctx context.Context, in model.NewSale) (model.SaleRecord, error)
}

// Propagator copies a committed sale into the secondary stores.
type Propagator interface {
	Propagate(ctx context.Context, rec model.SaleRecord) error
}

// HealthReporter exposes the latest store probe snapshot.
type HealthReporter interface {
	Latest() map[string]health.Status
}

// Server is the HTTP front of the engine.
type Server struct {
	engine     ViewEngine
	facts      FactWriter
	propagator Propagator
	healthz    HealthReporter
	logger     *slog.Logger
	httpSrv    *http.Server
}

// NewServer wires the HTTP server on addr.
func NewServer(addr string, engine ViewEngine, facts FactWriter, propagator Propagator, healthz HealthReporter, logger *slog.Logger) *Server {
	s := &Server{
		engine:     engine,
		facts:      facts,
		propagator: propagator,
		healthz:    healthz,
		logger:     logger.With("component", "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /views/{view}", s.handleView)
	mux.HandleFunc("POST /sales", s.handleCreateSale)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe blocks serving HTTP until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{Code: code, Message: message}); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

// writeQueryError maps engine errors onto HTTP statuses. Unknown views and
// stores, bad sort fields and bad pagination are caller mistakes; anything
// else is a store failure.
func writeQueryError(w http.ResponseWriter, err error) {
	var (
		unknownView  *query.UnknownViewError
		unknownStore *query.UnknownStoreError
		unknownField *query.UnknownSortFieldError
	)
	switch {
	case errors.As(err, &unknownView):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.As(err, &unknownStore):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.As(err, &unknownField):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, query.ErrInvalidSortOrder), errors.Is(err, query.ErrInvalidPage):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "query failed")
	}
}
