// Package store provides the durable key-value repository that backs every
// persisted list. One entry holds one full collection snapshot.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgraph-io/badger/v4"
)

// Repository is a durable byte store addressed by string keys.
//
// Get returns ErrNotFound for an absent key. Delete of an absent key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Badger is a Repository backed by a Badger database.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ Repository = (*Badger)(nil)

// OpenBadger opens (or creates) a Badger database at path.
func OpenBadger(path string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Badger's own logging is noisy
	opts.SyncWrites = true       // A mutation is durable once Set returns
	opts.CompactL0OnClose = true // Faster startup

	return openBadger(opts, logger)
}

// OpenBadgerInMemory opens a Badger database that lives only in memory.
func OpenBadgerInMemory(logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts, logger)
}

func openBadger(opts badger.Options, logger *slog.Logger) (*Badger, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if logger != nil {
		logger.Info("Badger database opened", "path", opts.Dir, "in_memory", opts.InMemory)
	}
	return &Badger{db: db, logger: logger}, nil
}

// Close closes the database.
func (b *Badger) Close() error {
	if b.logger != nil {
		b.logger.Info("Closing badger database")
	}
	return b.db.Close()
}

// Get returns a copy of the value stored at key.
func (b *Badger) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, b.wrap(err)
	}
	return value, nil
}

// Set stores value at key, replacing any previous value.
func (b *Badger) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.wrap(b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(encodeKey(key), value)
	}))
}

// Delete removes key.
func (b *Badger) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.wrap(b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(encodeKey(key))
	}))
}

// Keys lists every repository key in sorted order.
func (b *Badger) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if key, ok := decodeKey(it.Item().KeyCopy(nil)); ok {
				keys = append(keys, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, b.wrap(err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Badger) wrap(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed.WithCause(err)
	}
	return err
}
