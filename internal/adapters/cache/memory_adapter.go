package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
)

// MemoryAdapter is an in-process CacheProvider for single-instance
// deployments and local development. Entries share one TTL; the per-call
// expiration is ignored.
type MemoryAdapter struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryAdapter creates a bounded cache holding up to size entries for
// ttl each.
func NewMemoryAdapter(size int, ttl time.Duration) *MemoryAdapter {
	if size <= 0 {
		size = 10000
	}
	return &MemoryAdapter{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := a.lru.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	return v, nil
}

// Set stores a copy of value.
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	a.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.lru.Remove(key)
	return nil
}

// Exists reports whether an unexpired entry is present.
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := a.lru.Peek(key)
	return ok, nil
}

// DeleteByPrefix removes every key starting with prefix.
func (a *MemoryAdapter) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	n := 0
	for _, k := range a.lru.Keys() {
		if strings.HasPrefix(k, prefix) && a.lru.Remove(k) {
			n++
		}
	}
	return n, nil
}

// EvictExpired drops expired entries and returns how many were removed.
func (a *MemoryAdapter) EvictExpired() int {
	n := 0
	for _, k := range a.lru.Keys() {
		if _, ok := a.lru.Peek(k); !ok && a.lru.Remove(k) {
			n++
		}
	}
	return n
}

// Len returns the number of held entries, expired ones included.
func (a *MemoryAdapter) Len() int {
	return a.lru.Len()
}
