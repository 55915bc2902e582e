package api

import (
	"net/http"

	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/pkg/logger"
)

type checkPlayerRequest struct {
	PlayerName string `json:"playerName"`
}

type bulkPlayersRequest struct {
	Players []string `json:"players"`
}

type bulkPlayersResponse struct {
	TotalPlayers int                   `json:"totalPlayers"`
	Results      []model.PlayerVerdict `json:"results"`
}

type overrideRequest struct {
	PlayerName string `json:"playerName"`
	IsEligible *bool  `json:"isEligible"`
	Reason     string `json:"reason"`
}

// PlayersHandler handles single-player requests.
type PlayersHandler struct {
	deps PlayerDependencies
	log  logger.Logger
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies, log logger.Logger) *PlayersHandler {
	return &PlayersHandler{deps: deps, log: log}
}

// HandleCheckPlayer handles POST /check-player.
func (h *PlayersHandler) HandleCheckPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.check_player"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req checkPlayerRequest
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	v, err := h.deps.CheckPlayer(r.Context(), req.PlayerName)
	if err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	writeData(w, v)
}

// HandleBulkCheckPlayers handles POST /bulk-check-players.
func (h *PlayersHandler) HandleBulkCheckPlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.bulk_check_players"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req bulkPlayersRequest
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	out, err := h.deps.CheckPlayersBulk(r.Context(), req.Players)
	if err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	writeData(w, bulkPlayersResponse{TotalPlayers: len(req.Players), Results: out})
}

// HandleOverridePlayer handles POST /override-player.
func (h *PlayersHandler) HandleOverridePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.override_player"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req overrideRequest
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	if req.PlayerName == "" || req.IsEligible == nil {
		writeFailure(r.Context(), w, h.log, op, model.Validation(op, "playerName and isEligible (boolean) are required"))
		return
	}
	v, err := h.deps.Override(r.Context(), req.PlayerName, *req.IsEligible, req.Reason)
	if err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	writeData(w, v)
}
