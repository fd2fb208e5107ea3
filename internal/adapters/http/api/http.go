// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/gearscan/internal/adapters/repository"
	"github.com/okian/gearscan/internal/domain/model"
)

// ResultReader exposes committed results.
type ResultReader interface {
	Get(ctx context.Context, id string) (repository.Result, error)
	Latest(ctx context.Context) (repository.Result, error)
	List(ctx context.Context, limit, offset int) ([]repository.Result, error)
	Count(ctx context.Context) int
}

// Calibrator accepts a new screen offset.
type Calibrator interface {
	Calibrate(ctx context.Context, offset model.Offset) error
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ResultReader
	Calibrator
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	resultsHandler     *ResultsHandler
	calibrationHandler *CalibrationHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		resultsHandler:     NewResultsHandler(deps),
		calibrationHandler: NewCalibrationHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/results/latest", MetricsMiddleware(s.resultsHandler.HandleLatest, "results_latest"))
	mux.HandleFunc("/results/", MetricsMiddleware(s.resultsHandler.HandleGet, "result"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandleList, "results"))
	mux.HandleFunc("/calibration", MetricsMiddleware(s.calibrationHandler.HandleCalibrate, "calibration"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeStoreError maps repository errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", wrap(op, err))
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
	}
}
