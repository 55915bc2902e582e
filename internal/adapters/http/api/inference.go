package api

import (
	"net/http"

	"github.com/okian/tourcheck/pkg/logger"
)

// defaultExplainName is used when the name query parameter is absent.
const defaultExplainName = "Maria"

// InferenceHandler exposes inference diagnostics.
type InferenceHandler struct {
	deps InferenceDependencies
	log  logger.Logger
}

// NewInferenceHandler creates a new inference handler.
func NewInferenceHandler(deps InferenceDependencies, log logger.Logger) *InferenceHandler {
	return &InferenceHandler{deps: deps, log: log}
}

// HandleExplain handles GET /test-inference?name=.
func (h *InferenceHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	const op = "api.test_inference"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultExplainName
	}
	exp, err := h.deps.ExplainInference(r.Context(), name)
	if err != nil {
		writeFailure(r.Context(), w, h.log, op, err)
		return
	}
	writeData(w, exp)
}
