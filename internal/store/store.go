// Package store wraps the on-device Badger database shared by the shelf
// cache, the mutation queue, and the local document store.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// ErrKeyNotFound is returned when a key does not exist in the store.
var ErrKeyNotFound = errors.New("key not found")

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	seqMu     sync.Mutex
	sequences map[string]*badger.Sequence
}

// Open opens (or creates) the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:        db,
		logger:    logger,
		sequences: make(map[string]*badger.Sequence),
	}

	if logger != nil {
		logger.Info("badger database opened", "path", path)
	}

	return store, nil
}

// Close releases sequences and gracefully closes the database.
func (s *Store) Close() error {
	s.seqMu.Lock()
	for _, seq := range s.sequences {
		_ = seq.Release()
	}
	s.sequences = make(map[string]*badger.Sequence)
	s.seqMu.Unlock()

	if s.logger != nil {
		s.logger.Info("closing database")
	}
	return s.db.Close()
}

// DB exposes the underlying Badger handle for inspection tooling.
func (s *Store) DB() *badger.DB {
	return s.db
}

// Get retrieves a JSON value by key into dest.
func (s *Store) Get(key string, dest any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrKeyNotFound
	}
	return err
}

// Set stores a JSON-encoded value by key.
func (s *Store) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Delete removes a key from the database. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Exists checks if a key exists.
func (s *Store) Exists(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IteratePrefix visits every key with the given prefix in key order.
// The value slice passed to fn is only valid for the duration of the call.
func (s *Store) IteratePrefix(prefix string, fn func(key string, val []byte) error) error {
	p := []byte(prefix)
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if err := item.Value(func(val []byte) error {
				return fn(key, val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// NextSequence returns the next value of a named monotonic sequence.
// Sequences survive process restarts; values are never reused.
func (s *Store) NextSequence(name string) (uint64, error) {
	s.seqMu.Lock()
	seq, ok := s.sequences[name]
	if !ok {
		var err error
		// Bandwidth 1 trades throughput for gapless ordering, which the
		// mutation queue depends on for replay order.
		seq, err = s.db.GetSequence([]byte("seq:"+name), 1)
		if err != nil {
			s.seqMu.Unlock()
			return 0, fmt.Errorf("get sequence %q: %w", name, err)
		}
		s.sequences[name] = seq
	}
	s.seqMu.Unlock()

	n, err := seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next sequence %q: %w", name, err)
	}
	return n, nil
}
