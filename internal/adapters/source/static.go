package source

import (
	"context"
	"strings"
)

// Static serves a fixed roster, for offline deployments.
type Static struct {
	names []string
}

// NewStatic copies names, dropping blanks.
func NewStatic(names []string) *Static {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return &Static{names: out}
}

// Fetch returns the configured names.
func (s *Static) Fetch(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), s.names...), nil
}
