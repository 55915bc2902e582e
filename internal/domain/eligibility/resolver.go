// Package eligibility decides whether a single player is tour-eligible by
// combining manual overrides, the official roster and gender inference.
package eligibility

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/internal/domain/names"
	"github.com/okian/tourcheck/pkg/logger"
	"github.com/okian/tourcheck/pkg/metrics"
)

// KeyPrefix namespaces player verdicts in the cache.
const KeyPrefix = "player_"

// Verdict reasons.
const (
	ReasonInvalidName    = "Invalid player name"
	ReasonUnparsable     = "Could not parse player name"
	ReasonRoster         = "official roster match"
	ReasonManualOverride = "Manual override"
	cachedReasonPrefix   = "Cached result: "
	maxReasonLength      = 500
)

// Cache is the subset of the confidence cache the resolver needs.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any) error
}

// Roster answers authoritative membership.
type Roster interface {
	RefreshIfStale(ctx context.Context)
	Contains(name string) bool
}

// Inferrer classifies a first name.
type Inferrer interface {
	Infer(ctx context.Context, firstName string) model.InferenceResult
}

// Resolver produces and caches player verdicts.
type Resolver struct {
	cache    Cache
	roster   Roster
	inferrer Inferrer
	policy   *bluemonday.Policy
	now      func() time.Time
	log      logger.Logger
}

// New builds a resolver over its collaborators.
func New(cache Cache, roster Roster, inferrer Inferrer, opts ...Option) *Resolver {
	r := &Resolver{
		cache:    cache,
		roster:   roster,
		inferrer: inferrer,
		policy:   bluemonday.StrictPolicy(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.GetOr(logger.Discard()).Named("eligibility")
	}
	return r
}

// Resolve returns the verdict for raw. It never fails: invalid and
// unparsable names produce a zero-confidence verdict that is not cached.
func (r *Resolver) Resolve(ctx context.Context, raw string) model.Verdict {
	if !names.IsValid(raw) {
		return model.Verdict{Reason: ReasonInvalidName, Details: model.Details{Input: raw}}
	}

	key := names.Key(KeyPrefix, raw)
	var cached model.Verdict
	if r.cache.Get(ctx, key, &cached) {
		if !strings.HasPrefix(cached.Reason, cachedReasonPrefix) {
			cached.Reason = cachedReasonPrefix + cached.Reason
		}
		cached.Details.Cached = true
		return cached
	}

	parsed := names.Normalize(raw)
	if parsed.First == "" {
		return model.Verdict{
			Reason:  ReasonUnparsable,
			Details: model.Details{Input: raw, Parsed: &parsed},
		}
	}

	var v model.Verdict
	r.roster.RefreshIfStale(ctx)
	if r.roster.Contains(raw) {
		v = model.Verdict{
			IsEligible: true,
			Confidence: 1.0,
			Reason:     ReasonRoster,
			Details:    model.Details{Input: raw, Parsed: &parsed, Source: model.SourceRoster},
		}
	} else {
		g := r.inferrer.Infer(ctx, parsed.First)
		v = model.Verdict{
			IsEligible: g.Gender == model.GenderFemale,
			Confidence: g.Confidence,
			Reason:     fmt.Sprintf("Gender inference: %s (%s)", g.Gender, g.Source),
			Details: model.Details{
				Input:           raw,
				Parsed:          &parsed,
				Source:          model.SourceInference,
				GenderDetection: &g,
			},
		}
	}
	metrics.RecordVerdict(v.Details.Source, v.IsEligible)

	if err := r.cache.Set(ctx, key, v); err != nil {
		r.log.Warn(ctx, "verdict not cached", logger.String("key", key), logger.Error(err))
	}
	return v
}

// Override stores a confidence 1.0 verdict for name, bypassing the roster and
// inference. The reason is stripped of markup; blank defaults to "Manual override".
func (r *Resolver) Override(ctx context.Context, name string, eligible bool, reason string) (model.Verdict, error) {
	const op = "eligibility.override"
	if strings.TrimSpace(name) == "" {
		return model.Verdict{}, model.Validation(op, "player name is required")
	}
	key := names.Key(KeyPrefix, name)
	if key == KeyPrefix {
		return model.Verdict{}, model.WrapKind(op, model.ErrUnresolvableName, fmt.Errorf("no usable token in %q", name))
	}

	reason = strings.TrimSpace(r.policy.Sanitize(reason))
	if reason == "" {
		reason = ReasonManualOverride
	}
	if len([]rune(reason)) > maxReasonLength {
		reason = string([]rune(reason)[:maxReasonLength])
	}

	ts := r.now().UTC()
	v := model.Verdict{
		IsEligible: eligible,
		Confidence: 1.0,
		Reason:     reason,
		Details: model.Details{
			Input:          name,
			Source:         model.SourceManualOverride,
			ManualOverride: true,
			Timestamp:      &ts,
		},
	}
	if err := r.cache.Set(ctx, key, v); err != nil {
		return model.Verdict{}, model.WrapKind(op, model.ErrPersistence, err)
	}
	metrics.RecordVerdict(model.SourceManualOverride, eligible)
	r.log.Info(ctx, "manual override set", logger.String("player", name), logger.Bool("eligible", eligible))
	return v, nil
}
