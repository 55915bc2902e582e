package repository

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps the last saved snapshot in process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	saves   int
	closed  bool
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Entry{}}
}

// Load returns a copy of the last snapshot.
func (s *MemoryStore) Load(_ context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return maps.Clone(s.entries), nil
}

// Save replaces the snapshot with a copy of entries.
func (s *MemoryStore) Save(_ context.Context, entries map[string]Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries = maps.Clone(entries)
	if s.entries == nil {
		s.entries = map[string]Entry{}
	}
	s.saves++
	return nil
}

// Saves reports how many snapshots were written.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
