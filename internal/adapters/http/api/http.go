// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/charades/internal/adapters/repository"
	"github.com/okian/charades/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// EnqueuePayout queues an async payout run. Returns the job ID, or
	// false when a run is already pending or the queue is full.
	EnqueuePayout(ctx context.Context, roundID string, prizePool float64, forceContinue bool) (string, bool)

	// VerifyRound re-checks all revealed commitments for a round.
	VerifyRound(ctx context.Context, roundID string) (bool, error)

	// GetRound returns a copy of the stored round record.
	GetRound(ctx context.Context, roundID string) (*model.Round, error)

	// SaveRound writes a round record, replacing any existing one.
	SaveRound(ctx context.Context, roundID string, rnd *model.Round) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	roundsHandler *RoundsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		roundsHandler: NewRoundsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/rounds/", MetricsMiddleware(s.roundsHandler.HandleRounds, "rounds"))
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

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrRoundNotFound)
}
