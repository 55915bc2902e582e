package api

import (
	"net/http"

	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/pkg/logger"
)

type bulkMatchesRequest struct {
	Matches []model.MatchInput `json:"matches"`
}

type bulkMatchesResponse struct {
	TotalMatches int                 `json:"totalMatches"`
	Results      []model.MatchResult `json:"results"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// MatchesHandler handles match classification requests.
type MatchesHandler struct {
	deps MatchDependencies
	log  logger.Logger
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies, log logger.Logger) *MatchesHandler {
	return &MatchesHandler{deps: deps, log: log}
}

// HandleCheckMatch handles POST /check-match.
func (h *MatchesHandler) HandleCheckMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.check_match"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req model.MatchInput
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	c, err := h.deps.CheckMatch(r.Context(), req.HomePlayer, req.AwayPlayer)
	if err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	writeData(w, c)
}

// HandleBulkCheckMatches handles POST /bulk-check-matches.
func (h *MatchesHandler) HandleBulkCheckMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.bulk_check_matches"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req bulkMatchesRequest
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	out, err := h.deps.CheckMatchesBulk(r.Context(), req.Matches)
	if err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	writeData(w, bulkMatchesResponse{TotalMatches: len(req.Matches), Results: out})
}

// HandleCheckStatus handles POST /check-status, the simplified variant.
func (h *MatchesHandler) HandleCheckStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.check_status"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req model.MatchInput
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	st, err := h.deps.Status(r.Context(), req.HomePlayer, req.AwayPlayer)
	if err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: st})
}
