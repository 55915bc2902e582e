package api

import "net/http"

type cleanupResponse struct {
	Removed int `json:"removed"`
}

// CacheHandler handles cache maintenance requests.
type CacheHandler struct {
	deps CacheDependencies
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(deps CacheDependencies) *CacheHandler {
	return &CacheHandler{deps: deps}
}

// HandleClear handles POST /cache/clear.
func (h *CacheHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	h.deps.ClearCache(r.Context())
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Cache cleared successfully"})
}

// HandleCleanup handles POST /cache/cleanup.
func (h *CacheHandler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	writeData(w, cleanupResponse{Removed: h.deps.CleanupCache(r.Context())})
}
