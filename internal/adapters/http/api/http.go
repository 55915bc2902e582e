// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/tourcheck/internal/app"
	"github.com/okian/tourcheck/internal/adapters/rows"
	"github.com/okian/tourcheck/internal/domain/inference"
	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/pkg/logger"
)

// Prefix is the mount point of the eligibility endpoints.
const Prefix = "/api/eligibility"

// maxBodyBytes bounds request bodies; 200 rows fit comfortably.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PlayerDependencies
	MatchDependencies
	RowDependencies
	CacheDependencies
	InferenceDependencies
	StatsProvider
}

// PlayerDependencies resolves and overrides single players.
type PlayerDependencies interface {
	CheckPlayer(ctx context.Context, name string) (model.Verdict, error)
	CheckPlayersBulk(ctx context.Context, players []string) ([]model.PlayerVerdict, error)
	Override(ctx context.Context, name string, eligible bool, reason string) (model.Verdict, error)
}

// MatchDependencies classifies matches.
type MatchDependencies interface {
	CheckMatch(ctx context.Context, home, away string) (model.MatchClassification, error)
	CheckMatchesBulk(ctx context.Context, matches []model.MatchInput) ([]model.MatchResult, error)
	Status(ctx context.Context, home, away string) (string, error)
}

// RowDependencies fills spreadsheet rows.
type RowDependencies interface {
	ProcessRows(ctx context.Context, in []rows.Row) ([]rows.Row, rows.Summary, error)
}

// CacheDependencies maintains the confidence cache.
type CacheDependencies interface {
	ClearCache(ctx context.Context)
	CleanupCache(ctx context.Context) int
}

// InferenceDependencies explains gender inference.
type InferenceDependencies interface {
	ExplainInference(ctx context.Context, name string) (inference.Explanation, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) service.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	playersHandler   *PlayersHandler
	matchesHandler   *MatchesHandler
	rowsHandler      *RowsHandler
	cacheHandler     *CacheHandler
	inferenceHandler *InferenceHandler
	log              logger.Logger
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.GetOr(logger.Discard()).Named("http")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.playersHandler = NewPlayersHandler(deps, s.log)
	s.matchesHandler = NewMatchesHandler(deps, s.log)
	s.rowsHandler = NewRowsHandler(deps, s.log)
	s.cacheHandler = NewCacheHandler(deps)
	s.inferenceHandler = NewInferenceHandler(deps, s.log)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.route(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.route(s.healthHandler.HandleHealth, "metrics"))

	mux.HandleFunc(Prefix+"/check-player", s.route(s.playersHandler.HandleCheckPlayer, "check_player"))
	mux.HandleFunc(Prefix+"/bulk-check-players", s.route(s.playersHandler.HandleBulkCheckPlayers, "bulk_check_players"))
	mux.HandleFunc(Prefix+"/override-player", s.route(s.playersHandler.HandleOverridePlayer, "override_player"))
	mux.HandleFunc(Prefix+"/check-match", s.route(s.matchesHandler.HandleCheckMatch, "check_match"))
	mux.HandleFunc(Prefix+"/bulk-check-matches", s.route(s.matchesHandler.HandleBulkCheckMatches, "bulk_check_matches"))
	mux.HandleFunc(Prefix+"/check-status", s.route(s.matchesHandler.HandleCheckStatus, "check_status"))
	mux.HandleFunc(Prefix+"/process-rows", s.route(s.rowsHandler.HandleProcessRows, "process_rows"))
	mux.HandleFunc(Prefix+"/stats", s.route(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc(Prefix+"/cache/clear", s.route(s.cacheHandler.HandleClear, "cache_clear"))
	mux.HandleFunc(Prefix+"/cache/cleanup", s.route(s.cacheHandler.HandleCleanup, "cache_cleanup"))
	mux.HandleFunc(Prefix+"/test-inference", s.route(s.inferenceHandler.HandleExplain, "test_inference"))
}

func (s *Server) route(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	return RequestIDMiddleware(MetricsMiddleware(h, endpoint), s.log)
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: v})
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = model.Message(err)
	}
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}

// writeFailure maps caller mistakes to 400 with their message and anything
// else to a generic 500, so internal fetch errors never leak.
func writeFailure(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	if errors.Is(err, model.ErrValidation) || errors.Is(err, model.ErrUnresolvableName) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	log.Error(ctx, "request failed", logger.String("op", op), logger.String("request_id", RequestID(ctx)), logger.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal_error", Error: "Internal server error"})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	return false
}

// decode reads a JSON body. Malformed bodies are validation errors.
func decode(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.WrapKind(op, model.ErrValidation, fmt.Errorf("invalid JSON body: %w", err))
	}
	return nil
}
