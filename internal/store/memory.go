package store

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// Memory is an in-process Repository. It counts writes so tests can assert
// batching, and can be told to fail writes.
type Memory struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	deletes int
	failSet error
}

var _ Repository = (*Memory)(nil)

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get returns a copy of the value at key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(value), nil
}

// Set stores a copy of value at key.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = slices.Clone(value)
	m.sets++
	return nil
}

// Delete removes key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	m.deletes++
	return nil
}

// Keys lists stored keys in sorted order.
func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.data)), nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// SetCount reports how many successful Set calls were made.
func (m *Memory) SetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// DeleteCount reports how many Delete calls were made.
func (m *Memory) DeleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

// FailWrites makes every subsequent Set return err. Pass nil to recover.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = err
}

// Put seeds raw bytes without counting a write.
func (m *Memory) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
}
