package repository

import (
	"context"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBStore keeps one key per cache entry.
type LevelDBStore struct {
	db *leveldb.DB
}

// NewLevelDBStore opens (or creates) the database directory at path.
func NewLevelDBStore(path string, _ ...Option) (*LevelDBStore, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}
	db, err := leveldb.OpenFile(path, opt)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

// Load iterates every key. Entries that fail to decode are skipped.
func (s *LevelDBStore) Load(ctx context.Context) (map[string]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := map[string]Entry{}
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	var bad int
	for iter.Next() {
		e, err := decodeEntry(iter.Value())
		if err != nil {
			bad++
			continue
		}
		entries[string(iter.Key())] = e
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate leveldb: %w", err)
	}
	if bad > 0 && len(entries) == 0 {
		return nil, fmt.Errorf("%w: %d undecodable entries", ErrCorrupt, bad)
	}
	return entries, nil
}

// Save replaces the contents in a single batch.
func (s *LevelDBStore) Save(ctx context.Context, entries map[string]Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := new(leveldb.Batch)

	iter := s.db.NewIterator(nil, nil)
	for iter.Next() {
		if _, keep := entries[string(iter.Key())]; !keep {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterate leveldb: %w", err)
	}

	for k, e := range entries {
		raw, err := encodeEntry(e)
		if err != nil {
			return fmt.Errorf("encode %q: %w", k, err)
		}
		batch.Put([]byte(k), raw)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("write leveldb batch: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
