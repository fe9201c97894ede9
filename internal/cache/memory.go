package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value   []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Memory is an in-process Cache. Expired entries are dropped lazily on read
// and swept on every Set once the map grows past sweepThreshold.
type Memory struct {
	mu      sync.Mutex
	prefix  string
	entries map[string]entry
	now     func() time.Time
}

const sweepThreshold = 1024

// NewMemory creates an empty in-memory cache.
func NewMemory(prefix string) *Memory {
	return &Memory{
		prefix:  prefix,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[m.prefix+key]
	if !ok {
		return nil, ErrMiss
	}
	if e.expired(m.now()) {
		delete(m.entries, m.prefix+key)
		return nil, ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if len(m.entries) >= sweepThreshold {
		for k, e := range m.entries {
			if e.expired(now) {
				delete(m.entries, k)
			}
		}
	}

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	m.entries[m.prefix+key] = e
	return nil
}

func (m *Memory) Take(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[m.prefix+key]
	if !ok {
		return nil, ErrMiss
	}
	delete(m.entries, m.prefix+key)
	if e.expired(m.now()) {
		return nil, ErrMiss
	}
	return e.value, nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, m.prefix+k)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
