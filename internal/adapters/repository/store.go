// Package repository provides durable snapshot stores for the confidence cache.
//
// A store only ever sees whole snapshots: Load returns everything and Save
// replaces everything. Key semantics belong to the cache.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile    = "file"
	BackendLevelDB = "leveldb"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// Entry is one persisted cache value.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store persists and restores cache snapshots.
type Store interface {
	// Load returns the last saved snapshot. A missing snapshot is an empty map.
	Load(ctx context.Context) (map[string]Entry, error)
	// Save replaces the stored snapshot with entries.
	Save(ctx context.Context, entries map[string]Entry) error
	Close() error
}

// Open builds the store for backend at path.
func Open(backend, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore(path, opts...), nil
	case BackendLevelDB:
		return NewLevelDBStore(path, opts...)
	case BackendSQLite:
		return NewSQLiteStore(path, opts...)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func encodeEntry(e Entry) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(raw []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return e, nil
}
