package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names read by Load.
const (
	EnvPrefix = "TOURCHECK_"
	EnvFile   = "TOURCHECK_CONFIG"
)

// listKeys are split on commas when read from the environment.
var listKeys = map[string]bool{
	"roster_static_names": true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if TOURCHECK_CONFIG is set
//  3. env (prefix TOURCHECK_)
//
// Durations accept Go syntax ("90s", "24h"); list values from env are
// comma separated.
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TOURCHECK_CACHE_MAX_AGE -> cache_max_age. Underscores are kept to
	// match the flat koanf tags.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", envValue)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envValue(name, value string) (string, any) {
	if name == EnvFile {
		return "", nil
	}
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	if !listKeys[key] {
		return key, value
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return key, out
}
