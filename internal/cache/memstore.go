package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-process Store. It backs tests and
// single-node deployments that can afford to lose the cache on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

func compositeKey(typ Type, key string) string {
	return string(typ) + ":" + key
}

func (m *MemoryStore) Get(_ context.Context, typ Type, key string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := compositeKey(typ, key)
	e, ok := m.entries[k]
	if !ok {
		return nil, false
	}
	if !e.ExpiresAt.After(m.now()) {
		delete(m.entries, k)
		return nil, false
	}
	e.HitCount++
	return e.Payload, true
}

func (m *MemoryStore) Set(_ context.Context, typ Type, key string, payload json.RawMessage, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.entries[compositeKey(typ, key)] = &Entry{
		CacheKey:  key,
		CacheType: typ,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		HitCount:  0,
	}
	return nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var removed int64
	for k, e := range m.entries {
		if e.ExpiresAt.Before(now) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed, nil
}

// HitCount reports the current hit counter for an entry, ignoring expiry.
// Exposed for inspection and tests.
func (m *MemoryStore) HitCount(typ Type, key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[compositeKey(typ, key)]; ok {
		return e.HitCount
	}
	return 0
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
