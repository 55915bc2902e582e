// Package match classifies singles, doubles and mixed-doubles matches from
// the verdicts of their individual players.
package match

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tourcheck/internal/domain/batch"
	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/pkg/logger"
	"github.com/okian/tourcheck/pkg/metrics"
)

// StatusEligible is the status value for an eligible match.
const StatusEligible = "WTA"

// Confidence levels for the non-min outcomes.
const (
	certainNegative    = 1.0
	inconsistentDouble = 0.5
	partialMixed       = 0.8
)

// Resolver produces a verdict for one player.
type Resolver interface {
	Resolve(ctx context.Context, raw string) model.Verdict
}

// Engine classifies matches and keeps running statistics.
type Engine struct {
	resolver Resolver
	bulk     batch.Config
	log      logger.Logger

	mu    sync.Mutex
	stats Stats
}

// New builds an engine. Bulk classification defaults to batches of 3 with a
// 200ms pause.
func New(resolver Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		bulk:     batch.Config{Size: DefaultBatchSize, Pause: DefaultBatchPause, Name: "matches"},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.GetOr(logger.Discard()).Named("match")
	}
	return e
}

// Parse splits both groups on commas. 1v1 is singles, 2v2 doubles, anything
// else unknown.
func Parse(home, away string) model.MatchParse {
	team1, team2 := splitGroup(home), splitGroup(away)
	p := model.MatchParse{MatchType: model.MatchUnknown, Team1: team1, Team2: team2}
	switch {
	case len(team1) == 1 && len(team2) == 1:
		p.MatchType = model.MatchSingles
	case len(team1) == 2 && len(team2) == 2:
		p.MatchType = model.MatchDoubles
	}
	return p
}

func splitGroup(group string) []string {
	out := []string{}
	for _, part := range strings.Split(group, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Classify resolves every player concurrently and applies the singles,
// doubles or mixed-doubles rule. It never fails; problems are reported in
// the result with confidence 0.
func (e *Engine) Classify(ctx context.Context, home, away string) model.MatchClassification {
	p := Parse(home, away)
	teams := &model.Teams{Team1: p.Team1, Team2: p.Team2}

	if p.MatchType == model.MatchUnknown {
		msg := fmt.Sprintf("invalid team sizes %dv%d, singles must be 1v1 and doubles 2v2", len(p.Team1), len(p.Team2))
		e.record(func(s *Stats) { s.TotalClassified++; s.Errors++ })
		return model.MatchClassification{
			Reason:    "Parse error: " + msg,
			MatchType: model.MatchUnknown,
			Players:   []model.PlayerVerdict{},
			Teams:     teams,
			Error:     msg,
		}
	}

	players, err := e.resolveAll(ctx, append(append([]string{}, p.Team1...), p.Team2...))
	if err != nil {
		e.log.Error(ctx, "classification failed", logger.String("home", home), logger.String("away", away), logger.Error(err))
		e.record(func(s *Stats) { s.TotalClassified++; s.Errors++ })
		return model.MatchClassification{
			Reason:    "Classification error",
			MatchType: p.MatchType,
			Players:   []model.PlayerVerdict{},
			Teams:     teams,
			Error:     model.Message(err),
		}
	}

	eligible := countEligible(players)
	var c model.MatchClassification
	switch {
	case p.MatchType == model.MatchSingles:
		c = singles(players)
	case eligible == 0 || eligible == len(players):
		c = doubles(players)
	default:
		c = mixedDoubles(players)
	}
	c.MatchType = p.MatchType
	c.EligiblePlayerCount = eligible
	c.Players = players
	c.Teams = teams

	e.record(func(s *Stats) {
		s.TotalClassified++
		switch c.Rule {
		case model.RuleSingles:
			s.Singles++
		case model.RuleDoubles:
			s.Doubles++
		case model.RuleMixedDoubles:
			s.MixedDoubles++
		}
		if c.IsEligible {
			s.EligibleMatches++
		}
	})
	metrics.RecordClassification(c.Rule, c.IsEligible)
	return c
}

// ClassifyBulk classifies matches in small paced batches. Results keep input
// order and echo their match.
func (e *Engine) ClassifyBulk(ctx context.Context, matches []model.MatchInput) []model.MatchResult {
	results := batch.Run(ctx, e.bulk, matches, func(ctx context.Context, m model.MatchInput) (model.MatchClassification, error) {
		return e.Classify(ctx, m.HomePlayer, m.AwayPlayer), nil
	})
	out := make([]model.MatchResult, len(matches))
	for i, r := range results {
		out[i] = model.MatchResult{Match: matches[i], MatchClassification: r.Value}
		if r.Err != nil {
			out[i].Reason = "Classification error"
			out[i].MatchType = model.MatchUnknown
			out[i].Players = []model.PlayerVerdict{}
			out[i].Error = model.Message(r.Err)
		}
	}
	return out
}

// Status is the simplified boolean variant used for row-oriented input. It
// counts players rather than checking team shape and does not compare
// against the expected number of female players: with four players, 2 or 4
// eligible is "WTA" while 0, 1 or 3 is "". Two players need one eligible.
func (e *Engine) Status(ctx context.Context, home, away string) string {
	all := append(splitGroup(home), splitGroup(away)...)
	if len(all) != 2 && len(all) != 4 {
		metrics.RecordStatusCheck("")
		return ""
	}
	players, err := e.resolveAll(ctx, all)
	if err != nil {
		e.log.Error(ctx, "status check failed", logger.Error(err))
		metrics.RecordStatusCheck("")
		return ""
	}

	status := ""
	n := countEligible(players)
	switch len(players) {
	case 2:
		if n >= 1 {
			status = StatusEligible
		}
	case 4:
		if n == 2 || n == 4 {
			status = StatusEligible
		}
	}
	metrics.RecordStatusCheck(status)
	return status
}

func (e *Engine) resolveAll(ctx context.Context, raw []string) ([]model.PlayerVerdict, error) {
	out := make([]model.PlayerVerdict, len(raw))
	var g errgroup.Group
	for i, name := range raw {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("%w: resolving %q: %v", ErrResolvePanic, name, rec)
				}
			}()
			out[i] = model.PlayerVerdict{Name: name, Verdict: e.resolver.Resolve(ctx, name)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, model.Wrap("match.resolve", err)
	}
	return out, nil
}

func singles(players []model.PlayerVerdict) model.MatchClassification {
	n := countEligible(players)
	if n == 0 {
		return model.MatchClassification{
			Confidence: certainNegative,
			Reason:     "Singles match with no eligible players",
			Rule:       model.RuleSingles,
		}
	}
	return model.MatchClassification{
		IsEligible: true,
		Confidence: minEligibleConfidence(players),
		Reason:     fmt.Sprintf("Singles match with %d eligible player(s)", n),
		Rule:       model.RuleSingles,
	}
}

func doubles(players []model.PlayerVerdict) model.MatchClassification {
	switch n := countEligible(players); n {
	case len(players):
		return model.MatchClassification{
			IsEligible: true,
			Confidence: minEligibleConfidence(players),
			Reason:     "All-female doubles match with eligible players",
			Rule:       model.RuleDoubles,
		}
	case 0:
		return model.MatchClassification{
			Confidence: certainNegative,
			Reason:     "All-male doubles match",
			Rule:       model.RuleDoubles,
		}
	default:
		return model.MatchClassification{
			Confidence: inconsistentDouble,
			Reason:     "Inconsistent gender detection in doubles match",
			Rule:       model.RuleDoubles,
		}
	}
}

func mixedDoubles(players []model.PlayerVerdict) model.MatchClassification {
	expected := 0
	for _, p := range players {
		if gd := p.Details.GenderDetection; gd != nil && gd.Gender == model.GenderFemale {
			expected++
		}
	}
	n := countEligible(players)
	switch {
	case expected == 0:
		return model.MatchClassification{
			Confidence: certainNegative,
			Reason:     "Mixed doubles with no detected female players",
			Rule:       model.RuleMixedDoubles,
		}
	case n == expected:
		return model.MatchClassification{
			IsEligible: true,
			Confidence: minEligibleConfidence(players),
			Reason:     fmt.Sprintf("Mixed doubles with all %d female players eligible", n),
			Rule:       model.RuleMixedDoubles,
		}
	default:
		return model.MatchClassification{
			Confidence: partialMixed,
			Reason:     fmt.Sprintf("Mixed doubles: only %d of %d female players are eligible", n, expected),
			Rule:       model.RuleMixedDoubles,
		}
	}
}

func countEligible(players []model.PlayerVerdict) int {
	n := 0
	for _, p := range players {
		if p.IsEligible {
			n++
		}
	}
	return n
}

func minEligibleConfidence(players []model.PlayerVerdict) float64 {
	m := math.Inf(1)
	for _, p := range players {
		if p.IsEligible {
			m = math.Min(m, p.Confidence)
		}
	}
	if math.IsInf(m, 1) {
		return 0
	}
	return m
}
