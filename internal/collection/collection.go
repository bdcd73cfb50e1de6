// Package collection implements a title-keyed record set mirrored to a
// store.Repository. Every mutation writes the whole snapshot.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/goccy/go-json"

	"github.com/marlowai/marlow/internal/metrics"
	"github.com/marlowai/marlow/internal/store"
)

// KeyFunc extracts the identity of a record.
type KeyFunc[T any] func(T) string

// Observer is called with the sorted records after each successful mutation.
// It runs while the collection is locked and must not call back into it.
type Observer[T any] func(items []T)

// Option configures a collection.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for hydration diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// Collection is a keyed set of records bound to one repository key.
// Adding a record whose key is already present replaces it.
type Collection[T any] struct {
	repo   store.Repository
	key    string
	keyFn  KeyFunc[T]
	logger *slog.Logger

	mu        sync.RWMutex
	items     map[string]T
	observers []Observer[T]
}

// Open hydrates the collection stored at key. When nothing decodable is
// stored, the collection is built from seed and the seed is persisted.
func Open[T any](ctx context.Context, repo store.Repository, key string, keyFn KeyFunc[T], seed []T, opts ...Option) (*Collection[T], error) {
	if repo == nil {
		return nil, errors.New("collection: nil repository")
	}
	if keyFn == nil {
		return nil, errors.New("collection: nil key function")
	}

	s := settings{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&s)
	}

	c := &Collection[T]{
		repo:   repo,
		key:    key,
		keyFn:  keyFn,
		logger: s.logger.With("collection", key),
	}

	if items, ok := c.hydrate(ctx); ok {
		c.items = items
		return c, nil
	}

	items := make(map[string]T, len(seed))
	for _, item := range seed {
		items[keyFn(item)] = item
	}
	if err := c.persist(ctx, items); err != nil {
		return nil, fmt.Errorf("persist seed for %q: %w", key, err)
	}
	c.items = items
	return c, nil
}

// hydrate reads and decodes the stored snapshot. Any failure means "nothing stored".
func (c *Collection[T]) hydrate(ctx context.Context) (map[string]T, bool) {
	raw, err := c.repo.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Debug("hydration read failed, using seed", "error", err)
		}
		return nil, false
	}

	var items map[string]T
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.Debug("hydration decode failed, using seed", "error", err)
		return nil, false
	}
	if items == nil {
		// A stored JSON null decodes cleanly but holds no map.
		c.logger.Debug("stored snapshot is null, using seed")
		return nil, false
	}
	return items, true
}

func (c *Collection[T]) persist(ctx context.Context, items map[string]T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %q: %w", c.key, err)
	}
	err = c.repo.Set(ctx, c.key, raw)
	metrics.RecordCollectionWrite(c.key, len(items), err)
	if err != nil {
		return fmt.Errorf("write %q: %w", c.key, err)
	}
	return nil
}

// mutate applies fn to a copy of the current map, persists the copy and
// only then swaps it in. A failed write leaves the collection unchanged.
func (c *Collection[T]) mutate(ctx context.Context, fn func(next map[string]T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := maps.Clone(c.items)
	fn(next)

	if err := c.persist(ctx, next); err != nil {
		return err
	}
	c.items = next
	c.notify()
	return nil
}

func (c *Collection[T]) notify() {
	if len(c.observers) == 0 {
		return
	}
	list := c.sortedLocked()
	for _, obs := range c.observers {
		obs(slices.Clone(list))
	}
}

// Key returns the repository key the collection is bound to.
func (c *Collection[T]) Key() string { return c.key }

// Subscribe registers an observer for subsequent mutations.
func (c *Collection[T]) Subscribe(obs Observer[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, obs)
}

// Add inserts or replaces item.
func (c *Collection[T]) Add(ctx context.Context, item T) error {
	return c.mutate(ctx, func(next map[string]T) {
		next[c.keyFn(item)] = item
	})
}

// Update replaces the record with the same key. It is identical to Add.
func (c *Collection[T]) Update(ctx context.Context, item T) error {
	return c.Add(ctx, item)
}

// AddMany inserts every item and writes once. Later items win on key collision.
func (c *Collection[T]) AddMany(ctx context.Context, items []T) error {
	return c.mutate(ctx, func(next map[string]T) {
		for _, item := range items {
			next[c.keyFn(item)] = item
		}
	})
}

// Remove deletes the record with item's key. Removing an absent record
// is not an error and still writes the snapshot.
func (c *Collection[T]) Remove(ctx context.Context, item T) error {
	return c.RemoveKey(ctx, c.keyFn(item))
}

// RemoveKey deletes the record stored under key.
func (c *Collection[T]) RemoveKey(ctx context.Context, key string) error {
	return c.RemoveKeys(ctx, []string{key})
}

// RemoveKeys deletes every listed key and writes once.
func (c *Collection[T]) RemoveKeys(ctx context.Context, keys []string) error {
	return c.mutate(ctx, func(next map[string]T) {
		for _, k := range keys {
			delete(next, k)
		}
	})
}

// Clear empties the collection and deletes its repository entry, so the
// next Open falls back to its seed.
func (c *Collection[T]) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.repo.Delete(ctx, c.key)
	metrics.RecordCollectionWrite(c.key, 0, err)
	if err != nil {
		return fmt.Errorf("delete %q: %w", c.key, err)
	}
	c.items = make(map[string]T)
	c.notify()
	return nil
}

// Snapshot returns a copy of the keyed records.
func (c *Collection[T]) Snapshot() map[string]T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.items)
}

// List returns the records ordered by key.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedLocked()
}

func (c *Collection[T]) sortedLocked() []T {
	keys := slices.Sorted(maps.Keys(c.items))
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.items[k])
	}
	return out
}

// Get returns the record stored under key.
func (c *Collection[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	return item, ok
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Titles returns the sorted record keys.
func (c *Collection[T]) Titles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.items))
}
