// Package service wires the eligibility components together and implements
// the operations exposed by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/tourcheck/internal/adapters/overrides"
	"github.com/okian/tourcheck/internal/adapters/repository"
	"github.com/okian/tourcheck/internal/adapters/rows"
	"github.com/okian/tourcheck/internal/adapters/source"
	"github.com/okian/tourcheck/internal/domain/batch"
	"github.com/okian/tourcheck/internal/domain/cache"
	"github.com/okian/tourcheck/internal/domain/eligibility"
	"github.com/okian/tourcheck/internal/domain/inference"
	"github.com/okian/tourcheck/internal/domain/match"
	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/internal/domain/roster"
	"github.com/okian/tourcheck/pkg/logger"
	"github.com/okian/tourcheck/pkg/metrics"
)

// Request ceilings.
const (
	DefaultPlayerBulkMax = 50
	DefaultMatchBulkMax  = 25
	DefaultRowsMax       = 200
)

// Service owns the cache, roster, resolvers and classifiers.
type Service struct {
	mu      sync.Mutex
	started bool
	warm    sync.WaitGroup

	store     repository.Store
	cache     *cache.Cache
	roster    *roster.Authority
	inference *inference.Resolver
	players   *eligibility.Resolver
	matches   *match.Engine
	rows      *rows.Processor
	seeder    *overrides.Seeder

	cfg    settings
	logger logger.Logger
}

// New builds every component. Nothing touches the network until Start or
// the first lookup.
func New(opts ...Option) (*Service, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.GetOr(logger.Discard()).Named("service")
	}
	s := &Service{cfg: cfg, logger: cfg.logger}

	s.store = cfg.store
	if s.store == nil {
		st, err := repository.Open(cfg.storeBackend, cfg.storePath)
		if err != nil {
			return nil, model.WrapKind("service.new", model.ErrPersistence, err)
		}
		s.store = st
	}
	s.cache = cache.New(
		cache.WithStore(s.store),
		cache.WithMaxAge(cfg.cacheMaxAge),
		cache.WithPersistEvery(cfg.cachePersistEvery),
		cache.WithCleanupInterval(cfg.cacheCleanup),
		cache.WithClock(cfg.now),
		cache.WithLogger(cfg.logger.Named("cache")),
	)

	src := cfg.rosterSource
	if src == nil {
		src = source.NewStatic(nil)
	}
	s.roster = roster.New(src,
		roster.WithCache(s.cache),
		roster.WithRefreshInterval(cfg.rosterRefresh),
		roster.WithFetchTimeout(cfg.rosterTimeout),
		roster.WithRetryAfter(cfg.rosterRetry),
		roster.WithClock(cfg.now),
		roster.WithLogger(cfg.logger.Named("roster")),
	)

	infOpts := []inference.Option{
		inference.WithCache(s.cache),
		inference.WithLogger(cfg.logger.Named("inference")),
	}
	if cfg.methods != nil {
		infOpts = append(infOpts, inference.WithMethods(cfg.methods...))
	}
	inf, err := inference.New(infOpts...)
	if err != nil {
		_ = s.cache.Close()
		return nil, fmt.Errorf("build inference: %w", err)
	}
	s.inference = inf

	s.players = eligibility.New(s.cache, s.roster, s.inference,
		eligibility.WithClock(cfg.now),
		eligibility.WithLogger(cfg.logger.Named("eligibility")),
	)
	s.matches = match.New(s.players,
		match.WithBatch(cfg.matchBatch.Size, cfg.matchBatch.Pause),
		match.WithLogger(cfg.logger.Named("match")),
	)
	s.rows = rows.New(s.matches,
		rows.WithFields(cfg.rowHome, cfg.rowAway, cfg.rowStatus),
		rows.WithMaxRows(cfg.rowsMax),
		rows.WithBatch(cfg.rowBatch.Size, cfg.rowBatch.Pause),
		rows.WithLogger(cfg.logger.Named("rows")),
	)
	if cfg.overridesFile != "" {
		s.seeder = overrides.New(cfg.overridesFile, s.players, overrides.WithLogger(cfg.logger.Named("overrides")))
	}
	return s, nil
}

// Start applies the overrides file, starts watching it and warms the roster
// in the background.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting eligibility service...")

	if s.seeder != nil {
		if _, err := s.seeder.Apply(ctx); err != nil {
			s.logger.Warn(ctx, "overrides file not applied", logger.Error(err))
		}
		if err := s.seeder.Watch(ctx); err != nil {
			s.logger.Warn(ctx, "overrides file not watched", logger.Error(err))
		}
	}

	s.warm.Add(1)
	go func() {
		defer s.warm.Done()
		s.roster.RefreshIfStale(context.WithoutCancel(ctx))
	}()

	s.started = true
	s.logger.Info(ctx, "eligibility service started",
		logger.Int("playerBulkMax", s.cfg.playerBulkMax),
		logger.Int("matchBulkMax", s.cfg.matchBulkMax),
		logger.Int("rowsMax", s.cfg.rowsMax),
	)
	return nil
}

// Stop stops the watcher, persists the cache and closes the store. On a
// service that was never started it only closes the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		_ = s.cache.Close()
		return
	}
	s.logger.Info(ctx, "stopping eligibility service...")
	if s.seeder != nil {
		if err := s.seeder.Stop(); err != nil {
			s.logger.Warn(ctx, "overrides watcher stop failed", logger.Error(err))
		}
	}
	s.warm.Wait()
	if err := s.cache.Flush(ctx); err != nil {
		s.logger.Warn(ctx, "final cache flush failed", logger.Error(err))
	}
	if err := s.cache.Close(); err != nil {
		s.logger.Warn(ctx, "cache close failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "eligibility service stopped")
}

// Close releases the cache of a service that was never started.
func (s *Service) Close() error {
	return s.cache.Close()
}

// CheckPlayer resolves one player.
func (s *Service) CheckPlayer(ctx context.Context, name string) (model.Verdict, error) {
	if strings.TrimSpace(name) == "" {
		return model.Verdict{}, model.Validation("service.check_player", "playerName is required")
	}
	return s.players.Resolve(ctx, name), nil
}

// CheckMatch classifies one match.
func (s *Service) CheckMatch(ctx context.Context, home, away string) (model.MatchClassification, error) {
	if strings.TrimSpace(home) == "" || strings.TrimSpace(away) == "" {
		return model.MatchClassification{}, model.Validation("service.check_match", "Both homePlayer and awayPlayer are required")
	}
	return s.matches.Classify(ctx, home, away), nil
}

// CheckPlayersBulk resolves up to the player ceiling in paced batches. The
// ceiling is checked before any lookup.
func (s *Service) CheckPlayersBulk(ctx context.Context, players []string) ([]model.PlayerVerdict, error) {
	const op = "service.check_players_bulk"
	if len(players) == 0 {
		return nil, model.Validation(op, "players array is required")
	}
	if len(players) > s.cfg.playerBulkMax {
		return nil, model.Validation(op, fmt.Sprintf("Maximum %d players per request", s.cfg.playerBulkMax))
	}

	results := batch.Run(ctx, s.cfg.playerBatch, players, func(ctx context.Context, name string) (model.Verdict, error) {
		return s.players.Resolve(ctx, name), nil
	})
	out := make([]model.PlayerVerdict, len(players))
	for i, r := range results {
		if r.Err != nil {
			return nil, model.Wrap(op, r.Err)
		}
		out[i] = model.PlayerVerdict{Name: players[i], Verdict: r.Value}
	}
	return out, nil
}

// CheckMatchesBulk classifies up to the match ceiling in paced batches.
func (s *Service) CheckMatchesBulk(ctx context.Context, matches []model.MatchInput) ([]model.MatchResult, error) {
	const op = "service.check_matches_bulk"
	if len(matches) == 0 {
		return nil, model.Validation(op, "matches array is required")
	}
	if len(matches) > s.cfg.matchBulkMax {
		return nil, model.Validation(op, fmt.Sprintf("Maximum %d matches per request", s.cfg.matchBulkMax))
	}
	for _, m := range matches {
		if strings.TrimSpace(m.HomePlayer) == "" || strings.TrimSpace(m.AwayPlayer) == "" {
			return nil, model.Validation(op, "Each match must have homePlayer and awayPlayer")
		}
	}
	return s.matches.ClassifyBulk(ctx, matches), nil
}

// Status is the simplified "WTA" or "" check.
func (s *Service) Status(ctx context.Context, home, away string) (string, error) {
	if strings.TrimSpace(home) == "" || strings.TrimSpace(away) == "" {
		return "", model.Validation("service.status", "Both homePlayer and awayPlayer are required")
	}
	return s.matches.Status(ctx, home, away), nil
}

// ProcessRows fills the status column of spreadsheet rows.
func (s *Service) ProcessRows(ctx context.Context, in []rows.Row) ([]rows.Row, rows.Summary, error) {
	if in == nil {
		return nil, rows.Summary{}, model.Validation("service.process_rows", "data array is required")
	}
	return s.rows.ProcessRows(ctx, in)
}

// StatusField is the column ProcessRows writes.
func (s *Service) StatusField() string { return s.rows.StatusField() }

// Override stores a manual verdict.
func (s *Service) Override(ctx context.Context, name string, eligible bool, reason string) (model.Verdict, error) {
	return s.players.Override(ctx, name, eligible, reason)
}

// ClearCache drops every cached verdict, inference result and roster snapshot.
func (s *Service) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
	s.logger.Info(ctx, "cache cleared")
}

// CleanupCache removes expired entries and returns how many were removed.
func (s *Service) CleanupCache(ctx context.Context) int {
	return s.cache.Cleanup(ctx)
}

// ExplainInference reports each inference method's answer for name.
func (s *Service) ExplainInference(ctx context.Context, name string) (inference.Explanation, error) {
	if strings.TrimSpace(name) == "" {
		return inference.Explanation{}, model.Validation("service.explain", "name is required")
	}
	return s.inference.Explain(ctx, name), nil
}

// RefreshRoster forces a roster fetch.
func (s *Service) RefreshRoster(ctx context.Context) error {
	return s.roster.Refresh(ctx)
}

// RosterStats describes the live roster.
type RosterStats struct {
	Size       int        `json:"size"`
	LastUpdate *time.Time `json:"lastUpdate"`
}

// InferenceStats describes the inference setup.
type InferenceStats struct {
	Methods      []string               `json:"methods"`
	ScoringTable inference.ScoringTable `json:"scoringTable"`
}

// Limits are the bulk request ceilings.
type Limits struct {
	Players int `json:"players"`
	Matches int `json:"matches"`
	Rows    int `json:"rows"`
}

// Stats is the service snapshot returned by GetStats.
type Stats struct {
	Started   bool           `json:"started"`
	Roster    RosterStats    `json:"roster"`
	Cache     cache.Stats    `json:"cache"`
	Inference InferenceStats `json:"inference"`
	Matches   match.Stats    `json:"matches"`
	Limits    Limits         `json:"limits"`
}

// GetStats returns service statistics and refreshes the gauges.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	st := Stats{
		Started: started,
		Roster:  RosterStats{Size: s.roster.Size()},
		Cache:   s.cache.Stats(ctx),
		Inference: InferenceStats{
			Methods:      s.inference.Methods(),
			ScoringTable: s.inference.Table(),
		},
		Matches: s.matches.Stats(),
		Limits:  Limits{Players: s.cfg.playerBulkMax, Matches: s.cfg.matchBulkMax, Rows: s.cfg.rowsMax},
	}
	if lu := s.roster.LastUpdate(); !lu.IsZero() {
		st.Roster.LastUpdate = &lu
		metrics.UpdateRoster(st.Roster.Size, lu.Unix())
	}
	metrics.UpdateCacheEntries(st.Cache.TotalEntries)
	return st
}

// ResetMatchStats zeroes the classifier counters.
func (s *Service) ResetMatchStats() { s.matches.ResetStats() }
