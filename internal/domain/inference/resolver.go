// Package inference classifies first names by gender from several independent
// methods and merges them by confidence.
package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/internal/domain/names"
	"github.com/okian/tourcheck/pkg/logger"
	"github.com/okian/tourcheck/pkg/metrics"
)

const (
	// KeyPrefix namespaces inference results in the cache.
	KeyPrefix = "gender_"
	// heuristicThreshold is the best confidence below which the heuristic runs.
	heuristicThreshold = 0.5
)

// Cache is the subset of the confidence cache the resolver needs.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any) error
}

// Resolver runs the methods in priority order and keeps the single most
// confident answer.
type Resolver struct {
	cache   Cache
	methods []Method
	table   ScoringTable
	log     logger.Logger
}

// New builds a resolver. Without WithMethods it uses the embedded lexicon
// and frequency data.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{table: DefaultScoringTable()}
	for _, opt := range opts {
		opt(r)
	}
	if r.methods == nil {
		lex, err := NewLexicon()
		if err != nil {
			return nil, err
		}
		freq, err := NewFrequency()
		if err != nil {
			return nil, err
		}
		r.methods = []Method{lex, freq}
	}
	if r.log == nil {
		r.log = logger.GetOr(logger.Discard()).Named("inference")
	}
	return r, nil
}

// Infer classifies firstName. It never fails: method errors count as an
// unknown result. Blank input returns an uncached invalid_input result.
func (r *Resolver) Infer(ctx context.Context, firstName string) model.InferenceResult {
	name := strings.ToLower(strings.TrimSpace(firstName))
	if name == "" {
		return model.InferenceResult{Gender: model.GenderUnknown, Source: SourceInvalid}
	}

	key := names.Key(KeyPrefix, name)
	if r.cache != nil {
		var cached model.InferenceResult
		if r.cache.Get(ctx, key, &cached) {
			cached.Source = SourceCache
			metrics.RecordInference(SourceCache, cached.Gender)
			return cached
		}
	}

	best := r.merge(ctx, name, nil)

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, best); err != nil {
			r.log.Warn(ctx, "inference result not cached", logger.String("name", name), logger.Error(err))
		}
	}
	metrics.RecordInference(best.Source, best.Gender)
	return best
}

// merge applies the precedence policy. When trace is non-nil every raw
// method result is appended to it.
func (r *Resolver) merge(ctx context.Context, name string, trace *[]MethodResult) model.InferenceResult {
	best := model.InferenceResult{Gender: model.GenderUnknown, Source: SourceNone}
	for _, m := range r.methods {
		res, err := r.run(ctx, m, name)
		if trace != nil {
			*trace = append(*trace, newMethodResult(m.Name(), res, err))
		}
		if res.Confidence > best.Confidence {
			best = res
		}
	}
	if best.Confidence < heuristicThreshold {
		h := r.table.Classify(name)
		if trace != nil {
			*trace = append(*trace, newMethodResult(MethodHeuristic, h, nil))
		}
		if h.Confidence > best.Confidence {
			best = h
		}
	}
	return best
}

// run calls one method, converting errors and panics into an unknown result.
func (r *Resolver) run(ctx context.Context, m Method, name string) (res model.InferenceResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrMethodPanic, p)
		}
		if err != nil {
			metrics.RecordInferenceMethodError(m.Name())
			r.log.Warn(ctx, "inference method failed", logger.String("method", m.Name()), logger.Error(err))
			res = model.InferenceResult{Gender: model.GenderUnknown, Source: m.Name() + "_error"}
		}
	}()
	res, err = m.Infer(name)
	if res.Confidence < 0 || res.Confidence > 1 {
		err = fmt.Errorf("confidence %v out of range", res.Confidence)
	}
	return res, err
}

// NamedResult echoes the input name next to its result.
type NamedResult struct {
	Name string `json:"name"`
	model.InferenceResult
}

// InferBulk classifies each name in order. Work is local, so there is no
// pacing between items.
func (r *Resolver) InferBulk(ctx context.Context, firstNames []string) []NamedResult {
	out := make([]NamedResult, len(firstNames))
	for i, n := range firstNames {
		out[i] = NamedResult{Name: n, InferenceResult: r.Infer(ctx, n)}
	}
	return out
}

// MethodResult is the raw output of one method.
type MethodResult struct {
	Method string `json:"method"`
	model.InferenceResult
	Error string `json:"error,omitempty"`
}

func newMethodResult(method string, res model.InferenceResult, err error) MethodResult {
	mr := MethodResult{Method: method, InferenceResult: res}
	if err != nil {
		mr.Error = err.Error()
	}
	return mr
}

// Explanation shows how a name was classified.
type Explanation struct {
	Input     string                `json:"input"`
	FirstName string                `json:"firstName"`
	Methods   []MethodResult        `json:"methods"`
	Heuristic model.InferenceResult `json:"heuristic"`
	Final     model.InferenceResult `json:"finalResult"`
}

// Explain runs every method without the cache and reports their raw output
// alongside the cache-aware final result. Full names are reduced to their
// first token.
func (r *Resolver) Explain(ctx context.Context, raw string) Explanation {
	first := names.FirstNameOf(raw)
	exp := Explanation{Input: raw, FirstName: first, Methods: []MethodResult{}}
	if first == "" {
		exp.Final = r.Infer(ctx, first)
		return exp
	}
	r.merge(ctx, first, &exp.Methods)
	exp.Heuristic = r.table.Classify(first)
	exp.Final = r.Infer(ctx, first)
	return exp
}

// Methods lists the method names in evaluation order, heuristic last.
func (r *Resolver) Methods() []string {
	out := make([]string, 0, len(r.methods)+1)
	for _, m := range r.methods {
		out = append(out, m.Name())
	}
	return append(out, MethodHeuristic)
}

// Table returns the heuristic scoring table in use.
func (r *Resolver) Table() ScoringTable { return r.table }
