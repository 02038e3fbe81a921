// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerStore persists the analysis cache on disk, so cached analyses
// survive process restarts. The in-memory backend loses everything when the
// instance is recycled, which on scale-to-zero platforms is constantly.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// NewBadgerStore opens (or creates) a Badger database at path.
func NewBadgerStore(path string, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("path", path).Msg("opened Badger analysis cache")
	return &BadgerStore{db: db, logger: logger}, nil
}

func (s *BadgerStore) Get(key string) ([]byte, bool) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("badger get failed")
		}
		s.stats.misses.Add(1)
		return nil, false
	}
	s.stats.hits.Add(1)
	return out, true
}

func (s *BadgerStore) Set(key string, value []byte, ttl time.Duration) {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("badger set failed")
		return
	}
	s.stats.sets.Add(1)
}

func (s *BadgerStore) Delete(key string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("badger delete failed")
	}
}

func (s *BadgerStore) Stats() Stats {
	var size int
	_ = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			size++
		}
		return nil
	})

	return Stats{
		Hits:        s.stats.hits.Load(),
		Misses:      s.stats.misses.Load(),
		Sets:        s.stats.sets.Load(),
		CurrentSize: size,
	}
}

// HealthCheck reports whether the database is still open.
func (s *BadgerStore) HealthCheck(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
