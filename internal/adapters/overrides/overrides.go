// Package overrides applies manual eligibility overrides listed in a YAML
// seed file, at start and again whenever the file changes.
//
// File format:
//
//	overrides:
//	  - name: Serena Williams
//	    eligible: true
//	    reason: confirmed by tour office
package overrides

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/pkg/logger"
)

const listKey = "overrides"

// Entry is one override in the seed file.
type Entry struct {
	Name     string `koanf:"name"`
	Eligible bool   `koanf:"eligible"`
	Reason   string `koanf:"reason"`
}

// Overrider stores a manual verdict.
type Overrider interface {
	Override(ctx context.Context, name string, eligible bool, reason string) (model.Verdict, error)
}

// Seeder applies a seed file to an Overrider.
type Seeder struct {
	path     string
	target   Overrider
	provider *file.File
	log      logger.Logger

	mu       sync.Mutex
	watching bool
}

// New builds a seeder for path.
func New(path string, target Overrider, opts ...Option) *Seeder {
	s := &Seeder{path: path, target: target, provider: file.Provider(path)}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.GetOr(logger.Discard()).Named("overrides")
	}
	return s
}

// Load parses the seed file.
func Load(path string) ([]Entry, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	var out []Entry
	if err := k.UnmarshalWithConf(listKey, &out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return out, nil
}

// Apply loads the file and overrides every entry. Entries that fail are
// logged and skipped; the count of applied entries is returned.
func (s *Seeder) Apply(ctx context.Context) (int, error) {
	entries, err := Load(s.path)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			s.log.Warn(ctx, "override entry without name skipped")
			continue
		}
		if _, err := s.target.Override(ctx, e.Name, e.Eligible, e.Reason); err != nil {
			s.log.Warn(ctx, "override entry rejected", logger.String("player", e.Name), logger.Error(err))
			continue
		}
		applied++
	}
	s.log.Info(ctx, "overrides applied", logger.String("path", s.path), logger.Int("count", applied))
	return applied, nil
}

// Watch re-applies the file on every change until Stop is called.
func (s *Seeder) Watch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watching {
		return nil
	}
	bg := context.WithoutCancel(ctx)
	err := s.provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			s.log.Warn(bg, "overrides watch error", logger.Error(err))
			return
		}
		if _, err := s.Apply(bg); err != nil {
			s.log.Warn(bg, "overrides reload failed", logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", s.path, err)
	}
	s.watching = true
	return nil
}

// Stop ends a Watch.
func (s *Seeder) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.watching {
		return nil
	}
	s.watching = false
	return s.provider.Unwatch()
}
