// Package roster maintains the authoritative set of tour-eligible names.
//
// The live set is replaced wholesale on refresh and swapped atomically, so
// readers never lock. A failed refresh falls back to the snapshot mirrored in
// the confidence cache.
package roster

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/internal/domain/names"
	"github.com/okian/tourcheck/pkg/logger"
	"github.com/okian/tourcheck/pkg/metrics"
)

// CacheKey holds the durable mirror of the roster.
const CacheKey = "official_roster"

// Defaults.
const (
	DefaultRefreshInterval = 24 * time.Hour
	DefaultFetchTimeout    = 10 * time.Second
	DefaultRetryAfter      = time.Minute
)

// Source fetches the current roster as raw names.
type Source interface {
	Fetch(ctx context.Context) ([]string, error)
}

// Cache is the subset of the confidence cache the authority needs.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any) error
}

type state struct {
	names      map[string]struct{}
	lastUpdate time.Time
}

// Authority owns the live roster.
type Authority struct {
	source       Source
	cache        Cache
	interval     time.Duration
	fetchTimeout time.Duration
	retryAfter   time.Duration
	now          func() time.Time
	log          logger.Logger

	live        atomic.Pointer[state]
	nextAttempt atomic.Int64 // unix nanos; zero means no backoff
	group       singleflight.Group
}

// New builds an authority with an empty roster. Nothing is fetched until
// the first RefreshIfStale.
func New(source Source, opts ...Option) *Authority {
	a := &Authority{
		source:       source,
		interval:     DefaultRefreshInterval,
		fetchTimeout: DefaultFetchTimeout,
		retryAfter:   DefaultRetryAfter,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.GetOr(logger.Discard()).Named("roster")
	}
	a.live.Store(&state{names: map[string]struct{}{}})
	return a
}

// RefreshIfStale refreshes when the last update is older than the refresh
// interval. Concurrent stale callers share one fetch. Failures are absorbed.
func (a *Authority) RefreshIfStale(ctx context.Context) {
	if !a.stale() {
		return
	}
	_, _, _ = a.group.Do("refresh", func() (any, error) {
		// Another caller may have refreshed while we waited.
		if !a.stale() {
			return nil, nil
		}
		return nil, a.refresh(ctx)
	})
}

// Refresh fetches unconditionally. The returned error is informational; the
// fallback has already been applied when it is non-nil.
func (a *Authority) Refresh(ctx context.Context) error {
	_, err, _ := a.group.Do("refresh", func() (any, error) {
		return nil, a.refresh(ctx)
	})
	return err
}

// Contains reports whether name is on the live roster. The query is
// normalized the same way roster names are. It never triggers a refresh.
func (a *Authority) Contains(name string) bool {
	full := names.Normalize(name).Full
	if full == "" {
		return false
	}
	_, ok := a.live.Load().names[full]
	return ok
}

// Snapshot returns a sorted copy of the live roster.
func (a *Authority) Snapshot() model.RosterSnapshot {
	s := a.live.Load()
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return model.RosterSnapshot{Names: out, LastUpdate: s.lastUpdate}
}

// Size returns the number of names on the live roster.
func (a *Authority) Size() int {
	return len(a.live.Load().names)
}

// LastUpdate returns when the live roster was fetched; zero if never.
func (a *Authority) LastUpdate() time.Time {
	return a.live.Load().lastUpdate
}

func (a *Authority) stale() bool {
	now := a.now()
	if next := a.nextAttempt.Load(); next != 0 && now.UnixNano() < next {
		return false
	}
	last := a.live.Load().lastUpdate
	return last.IsZero() || now.Sub(last) >= a.interval
}

func (a *Authority) refresh(ctx context.Context) error {
	const op = "roster.refresh"
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.fetchTimeout)
	defer cancel()

	began := time.Now()
	raw, err := a.source.Fetch(fctx)
	metrics.RecordRosterFetchLatency(float64(time.Since(began).Milliseconds()))
	if err == nil && len(raw) == 0 {
		err = ErrEmptyRoster
	}
	if err != nil {
		err = model.WrapKind(op, model.ErrSourceFetch, err)
		a.fallback(ctx, err)
		return err
	}

	next := &state{names: normalizeAll(raw), lastUpdate: a.now()}
	a.live.Store(next)
	a.nextAttempt.Store(0)
	metrics.RecordRosterRefresh(metrics.ResultSuccess)
	metrics.UpdateRoster(len(next.names), next.lastUpdate.Unix())
	a.log.Info(ctx, "roster refreshed", logger.Int("players", len(next.names)))

	if a.cache != nil {
		snap := a.Snapshot()
		if err := a.cache.Set(ctx, CacheKey, snap); err != nil {
			a.log.Warn(ctx, "roster snapshot not cached", logger.Error(err))
		}
	}
	return nil
}

// fallback adopts the cached snapshot and its timestamp. With nothing cached
// the current roster stays and the next attempt waits retryAfter.
func (a *Authority) fallback(ctx context.Context, cause error) {
	metrics.RecordRosterRefresh(metrics.ResultFailure)
	a.nextAttempt.Store(a.now().Add(a.retryAfter).UnixNano())

	var snap model.RosterSnapshot
	if a.cache != nil && a.cache.Get(ctx, CacheKey, &snap) && len(snap.Names) > 0 {
		s := &state{names: normalizeAll(snap.Names), lastUpdate: snap.LastUpdate}
		a.live.Store(s)
		metrics.UpdateRoster(len(s.names), s.lastUpdate.Unix())
		a.log.Warn(ctx, "roster fetch failed, using cached snapshot",
			logger.Int("players", len(s.names)), logger.Any("lastUpdate", s.lastUpdate), logger.Error(cause))
		return
	}
	a.log.Warn(ctx, "roster fetch failed and no cached snapshot, keeping current roster",
		logger.Int("players", a.Size()), logger.Duration("retryAfter", a.retryAfter), logger.Error(cause))
}

func normalizeAll(raw []string) map[string]struct{} {
	out := make(map[string]struct{}, len(raw))
	for _, n := range raw {
		if full := names.Normalize(n).Full; full != "" {
			out[full] = struct{}{}
		}
	}
	return out
}
