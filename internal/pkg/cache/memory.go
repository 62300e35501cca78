package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	value   string
	expires time.Time
}

// memoryCache keeps entries in process. It backs dev mode and tests when
// redis is disabled.
type memoryCache struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	namespace string
	now       func() time.Time
}

func NewMemoryCache(namespace string) Cache {
	return &memoryCache{
		entries:   make(map[string]memoryEntry),
		namespace: namespace,
		now:       time.Now,
	}
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}

	e := memoryEntry{value: s}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return "", nil
	}
	return e.value, nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) GenerateKey(operation, key string) string {
	return generateKey(m.namespace, operation, key)
}
