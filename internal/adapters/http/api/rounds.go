// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/charades/internal/domain/model"
	"github.com/okian/charades/internal/domain/types"
)

// RoundsHandler serves round snapshots and payout/verification triggers.
type RoundsHandler struct {
	deps Dependencies
}

// NewRoundsHandler creates a new rounds handler.
func NewRoundsHandler(deps Dependencies) *RoundsHandler {
	return &RoundsHandler{deps: deps}
}

// payoutRequest mirrors the body of POST /rounds/{id}/payouts.
type payoutRequest struct {
	PrizePool     float64 `json:"prize_pool"`
	ForceContinue bool    `json:"force_continue"`
}

type payoutAccepted struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	RoundID string `json:"round_id"`
}

type verifyResponse struct {
	RoundID  string `json:"round_id"`
	AllValid bool   `json:"all_valid"`
}

// HandleRounds dispatches requests under /rounds/.
//
//	GET  /rounds/{id}          round snapshot
//	PUT  /rounds/{id}          store a round record
//	POST /rounds/{id}/verify   re-check revealed commitments
//	POST /rounds/{id}/payouts  enqueue an async payout run
func (h *RoundsHandler) HandleRounds(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/rounds/"), "/")
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && parts[0] != "" && r.Method == http.MethodGet:
		h.handleGet(w, r, parts[0])
	case len(parts) == 1 && parts[0] != "" && r.Method == http.MethodPut:
		h.handlePut(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "verify" && r.Method == http.MethodPost:
		h.handleVerify(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "payouts" && r.Method == http.MethodPost:
		h.handlePayouts(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (h *RoundsHandler) handleGet(w http.ResponseWriter, r *http.Request, roundID string) {
	rnd, err := h.deps.GetRound(r.Context(), roundID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "round_not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, types.RoundViewFrom(rnd))
}

func (h *RoundsHandler) handlePut(w http.ResponseWriter, r *http.Request, roundID string) {
	var rnd model.Round
	if err := json.NewDecoder(r.Body).Decode(&rnd); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rnd.RoundID = roundID

	if err := h.deps.SaveRound(r.Context(), roundID, &rnd); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusCreated, types.RoundViewFrom(&rnd))
}

func (h *RoundsHandler) handleVerify(w http.ResponseWriter, r *http.Request, roundID string) {
	allValid, err := h.deps.VerifyRound(r.Context(), roundID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "round_not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{RoundID: roundID, AllValid: allValid})
}

func (h *RoundsHandler) handlePayouts(w http.ResponseWriter, r *http.Request, roundID string) {
	var req payoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.PrizePool < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrNegativePrizePool)
		return
	}

	jobID, ok := h.deps.EnqueuePayout(r.Context(), roundID, req.PrizePool, req.ForceContinue)
	if !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, payoutAccepted{
		Status:  "accepted",
		JobID:   jobID,
		RoundID: roundID,
	})
}
