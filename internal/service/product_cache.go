package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/product-media-catalog/internal/observability"
)

const (
	productItemNamespace = "product.item"
	productListNamespace = "product.list"
)

type ProductCacheStore interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
	InvalidateNamespace(ctx context.Context, namespace string) error
}

type NoopProductCacheStore struct{}

func NewNoopProductCacheStore() *NoopProductCacheStore {
	return &NoopProductCacheStore{}
}

func (s *NoopProductCacheStore) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *NoopProductCacheStore) Set(context.Context, string, string, []byte, time.Duration) error {
	return nil
}

func (s *NoopProductCacheStore) Delete(context.Context, string, string) error {
	return nil
}

func (s *NoopProductCacheStore) InvalidateNamespace(context.Context, string) error {
	return nil
}

type memoryCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

type InMemoryProductCacheStore struct {
	mu    sync.RWMutex
	store map[string]map[string]memoryCacheEntry
}

func NewInMemoryProductCacheStore() *InMemoryProductCacheStore {
	return &InMemoryProductCacheStore{
		store: make(map[string]map[string]memoryCacheEntry),
	}
}

func (s *InMemoryProductCacheStore) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	now := time.Now().UTC()
	s.mu.RLock()
	entry, ok := s.store[namespace][key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if now.After(entry.expiresAt) {
		s.mu.Lock()
		s.deleteLocked(namespace, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (s *InMemoryProductCacheStore) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.store[namespace]
	if !ok {
		ns = make(map[string]memoryCacheEntry)
		s.store[namespace] = ns
	}
	ns[key] = memoryCacheEntry{
		payload:   append([]byte(nil), value...),
		expiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}

func (s *InMemoryProductCacheStore) Delete(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(namespace, key)
	return nil
}

func (s *InMemoryProductCacheStore) InvalidateNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, namespace)
	return nil
}

func (s *InMemoryProductCacheStore) deleteLocked(namespace, key string) {
	ns, ok := s.store[namespace]
	if !ok {
		return
	}
	delete(ns, key)
	if len(ns) == 0 {
		delete(s.store, namespace)
	}
}

// productCache wraps a store with JSON encoding. Store failures are logged
// and treated as misses; the repository stays the source of truth.
//
// Every invalidation bumps generation. A value read from the repository is
// saved only if no invalidation ran since the read started, so a slow read
// cannot put back a product that was updated or deleted in the meantime.
type productCache struct {
	store      ProductCacheStore
	ttl        time.Duration
	logger     *slog.Logger
	generation atomic.Uint64
}

func newProductCache(store ProductCacheStore, ttl time.Duration, logger *slog.Logger) *productCache {
	if store == nil {
		store = NewNoopProductCacheStore()
	}
	if logger == nil {
		logger = observability.NewLogger()
	}
	return &productCache{store: store, ttl: ttl, logger: logger}
}

func (c *productCache) load(ctx context.Context, namespace, key string, dst any) bool {
	raw, ok, err := c.store.Get(ctx, namespace, key)
	if err != nil {
		observability.RecordProductCacheEvent(ctx, namespace, "error")
		c.logger.WarnContext(ctx, "product cache read failed", "namespace", namespace, "error", err)
		return false
	}
	if !ok {
		observability.RecordProductCacheEvent(ctx, namespace, "miss")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		observability.RecordProductCacheEvent(ctx, namespace, "decode_error")
		_ = c.store.Delete(ctx, namespace, key)
		return false
	}
	observability.RecordProductCacheEvent(ctx, namespace, "hit")
	return true
}

// snapshot returns the generation to pass to save. Take it before reading
// from the repository.
func (c *productCache) snapshot() uint64 {
	return c.generation.Load()
}

func (c *productCache) save(ctx context.Context, namespace, key string, seen uint64, value any) {
	if c.ttl <= 0 {
		return
	}
	if c.generation.Load() != seen {
		observability.RecordProductCacheEvent(ctx, namespace, "stale_skip")
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, namespace, key, raw, c.ttl); err != nil {
		observability.RecordProductCacheEvent(ctx, namespace, "error")
		c.logger.WarnContext(ctx, "product cache write failed", "namespace", namespace, "error", err)
		return
	}
	// An invalidation racing with Set may have deleted before we wrote.
	if c.generation.Load() != seen {
		_ = c.store.Delete(ctx, namespace, key)
		observability.RecordProductCacheEvent(ctx, namespace, "stale_skip")
		return
	}
	observability.RecordProductCacheEvent(ctx, namespace, "store")
}

// invalidate drops the item entry for id and every cached listing.
func (c *productCache) invalidate(ctx context.Context, id string) {
	c.generation.Add(1)
	if id != "" {
		if err := c.store.Delete(ctx, productItemNamespace, id); err != nil {
			c.logger.WarnContext(ctx, "product cache delete failed", "product_id", id, "error", err)
		}
	}
	if err := c.store.InvalidateNamespace(ctx, productListNamespace); err != nil {
		c.logger.WarnContext(ctx, "product cache invalidate failed", "namespace", productListNamespace, "error", err)
		return
	}
	observability.RecordProductCacheEvent(ctx, productListNamespace, "invalidate")
}
