package api

import (
	"net/http"

	"github.com/okian/tourcheck/internal/adapters/rows"
	"github.com/okian/tourcheck/pkg/logger"
)

type processRowsRequest struct {
	Data []rows.Row `json:"data"`
}

type processRowsResponse struct {
	Success bool         `json:"success"`
	Data    []rows.Row   `json:"data"`
	Summary rows.Summary `json:"summary"`
}

// RowsHandler handles spreadsheet row requests.
type RowsHandler struct {
	deps RowDependencies
	log  logger.Logger
}

// NewRowsHandler creates a new rows handler.
func NewRowsHandler(deps RowDependencies, log logger.Logger) *RowsHandler {
	return &RowsHandler{deps: deps, log: log}
}

// HandleProcessRows handles POST /process-rows.
func (h *RowsHandler) HandleProcessRows(w http.ResponseWriter, r *http.Request) {
	const op = "api.process_rows"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req processRowsRequest
	if err := decode(w, r, op, &req); err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	out, sum, err := h.deps.ProcessRows(r.Context(), req.Data)
	if err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, processRowsResponse{Success: true, Data: out, Summary: sum})
}
