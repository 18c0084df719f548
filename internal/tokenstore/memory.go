// ABOUTME: In-memory token store for tests and ephemeral sessions
// ABOUTME: Supports injected per-method failures to exercise error paths

package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore is a mutex-guarded map. Set the Fail* fields to make the
// corresponding method return that error without touching the map.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]string

	FailGet    error
	FailSet    error
	FailRemove error

	gets int
}

// NewMemoryStore returns an empty store, optionally seeded with a token.
func NewMemoryStore(token string) *MemoryStore {
	m := &MemoryStore{items: map[string]string{}}
	if token != "" {
		m.items[TokenKey] = token
	}
	return m
}

func (m *MemoryStore) GetItem(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.FailGet != nil {
		return "", m.FailGet
	}
	return m.items[key], nil
}

func (m *MemoryStore) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSet != nil {
		return m.FailSet
	}
	if m.items == nil {
		m.items = map[string]string{}
	}
	m.items[key] = value
	return nil
}

func (m *MemoryStore) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRemove != nil {
		return m.FailRemove
	}
	delete(m.items, key)
	return nil
}

// Token returns the stored session token without counting as a read.
func (m *MemoryStore) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[TokenKey]
}

// Reads reports how many times GetItem has been called.
func (m *MemoryStore) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}
