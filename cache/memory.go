package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is the in-process fallback driver. Best effort only: contents
// do not survive a restart and are not shared between instances.
type MemoryStore struct {
	mu sync.Mutex
	c  *gocache.Cache
}

func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &MemoryStore{c: gocache.New(defaultTTL, time.Minute)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	val, _ := v.(string)
	return val, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.c.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	if v, ok := s.c.Get(key); ok {
		if existing, ok := v.(string); ok {
			count, _ = strconv.ParseInt(existing, 10, 64)
		}
	}
	count++

	// go-cache keeps the existing expiry only through Replace, so re-set
	// with DefaultExpiration and let Expire adjust it when callers ask.
	_, expiresAt, found := s.c.GetWithExpiration(key)
	if found && !expiresAt.IsZero() {
		s.c.Set(key, strconv.FormatInt(count, 10), time.Until(expiresAt))
	} else {
		s.c.Set(key, strconv.FormatInt(count, 10), gocache.DefaultExpiration)
	}
	return count, nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.c.Get(key)
	if !ok {
		return nil
	}
	s.c.Set(key, v, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Driver() string { return "memory" }

func (s *MemoryStore) Close() error { return nil }
