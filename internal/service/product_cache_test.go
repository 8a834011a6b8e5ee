package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestInMemoryProductCacheStoreGetSetDelete(t *testing.T) {
	store := NewInMemoryProductCacheStore()
	ctx := context.Background()

	if err := store.Set(ctx, productItemNamespace, "p1", []byte(`{"x":1}`), time.Minute); err != nil {
		t.Fatalf("set cache: %v", err)
	}
	got, ok, err := store.Get(ctx, productItemNamespace, "p1")
	if err != nil {
		t.Fatalf("get cache: %v", err)
	}
	if !ok || string(got) != `{"x":1}` {
		t.Fatalf("unexpected cache read: ok=%v payload=%s", ok, string(got))
	}

	if err := store.Delete(ctx, productItemNamespace, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, productItemNamespace, "p1"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestInMemoryProductCacheStoreInvalidateNamespace(t *testing.T) {
	store := NewInMemoryProductCacheStore()
	ctx := context.Background()
	_ = store.Set(ctx, productListNamespace, "category=", []byte(`[]`), time.Minute)
	_ = store.Set(ctx, productItemNamespace, "p1", []byte(`{}`), time.Minute)

	if err := store.InvalidateNamespace(ctx, productListNamespace); err != nil {
		t.Fatalf("invalidate namespace: %v", err)
	}
	if _, ok, _ := store.Get(ctx, productListNamespace, "category="); ok {
		t.Fatal("expected list miss after invalidation")
	}
	if _, ok, _ := store.Get(ctx, productItemNamespace, "p1"); !ok {
		t.Fatal("expected other namespaces to survive")
	}
}

func TestInMemoryProductCacheStoreExpiry(t *testing.T) {
	store := NewInMemoryProductCacheStore()
	ctx := context.Background()

	if err := store.Set(ctx, productItemNamespace, "k-expiry", []byte(`{"ok":true}`), 25*time.Millisecond); err != nil {
		t.Fatalf("set cache: %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	_, ok, err := store.Get(ctx, productItemNamespace, "k-expiry")
	if err != nil {
		t.Fatalf("get cache: %v", err)
	}
	if ok {
		t.Fatal("expected cache entry to expire")
	}
}

func TestNoopProductCacheStoreAlwaysMisses(t *testing.T) {
	store := NewNoopProductCacheStore()
	ctx := context.Background()
	if err := store.Set(ctx, productItemNamespace, "k", []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("set noop cache: %v", err)
	}
	_, ok, err := store.Get(ctx, productItemNamespace, "k")
	if err != nil {
		t.Fatalf("get noop cache: %v", err)
	}
	if ok {
		t.Fatal("expected noop cache miss")
	}
}

func newRedisCacheForTest(t *testing.T) (*RedisProductCacheStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisProductCacheStore(client, "test_product_cache"), mr
}

func TestRedisProductCacheStoreRoundTripAndInvalidate(t *testing.T) {
	store, mr := newRedisCacheForTest(t)
	ctx := context.Background()

	if err := store.Set(ctx, productListNamespace, "category=shoes", []byte(`[1]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, productListNamespace, "category=hats", []byte(`[2]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := store.Get(ctx, productListNamespace, "category=shoes")
	if err != nil || !ok || string(got) != `[1]` {
		t.Fatalf("unexpected read: %s ok=%v err=%v", string(got), ok, err)
	}
	if !mr.Exists(store.namespaceIndexKey(productListNamespace)) {
		t.Fatal("expected namespace index key")
	}

	if err := store.InvalidateNamespace(ctx, productListNamespace); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	for _, key := range []string{"category=shoes", "category=hats"} {
		if _, ok, _ := store.Get(ctx, productListNamespace, key); ok {
			t.Fatalf("expected miss for %s after invalidation", key)
		}
	}
	if mr.Exists(store.namespaceIndexKey(productListNamespace)) {
		t.Fatal("expected namespace index removed")
	}
}

func TestRedisProductCacheStoreDeleteAndTTL(t *testing.T) {
	store, mr := newRedisCacheForTest(t)
	ctx := context.Background()

	_ = store.Set(ctx, productItemNamespace, "p1", []byte(`{}`), time.Minute)
	_ = store.Set(ctx, productItemNamespace, "p2", []byte(`{}`), time.Minute)
	if err := store.Delete(ctx, productItemNamespace, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, productItemNamespace, "p1"); ok {
		t.Fatal("expected p1 miss after delete")
	}
	if _, ok, _ := store.Get(ctx, productItemNamespace, "p2"); !ok {
		t.Fatal("expected p2 hit")
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, productItemNamespace, "p2"); ok {
		t.Fatal("expected p2 to expire")
	}
}

type erroringCacheStore struct{ NoopProductCacheStore }

func (erroringCacheStore) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache offline")
}

func (erroringCacheStore) Set(context.Context, string, string, []byte, time.Duration) error {
	return errors.New("cache offline")
}

func TestProductCacheTreatsStoreErrorsAsMiss(t *testing.T) {
	cache := newProductCache(&erroringCacheStore{}, time.Minute, nil)
	ctx := context.Background()
	var dst map[string]any
	if cache.load(ctx, productItemNamespace, "p1", &dst) {
		t.Fatal("expected miss on store error")
	}
	cache.save(ctx, productItemNamespace, "p1", cache.snapshot(), map[string]any{"id": "p1"})
	cache.invalidate(ctx, "p1")
}

func TestProductCacheSkipsSaveAfterInvalidation(t *testing.T) {
	store := NewInMemoryProductCacheStore()
	cache := newProductCache(store, time.Minute, nil)
	ctx := context.Background()

	seen := cache.snapshot()
	cache.invalidate(ctx, "p1")
	cache.save(ctx, productItemNamespace, "p1", seen, map[string]any{"id": "p1"})
	if _, ok, _ := store.Get(ctx, productItemNamespace, "p1"); ok {
		t.Fatal("value read before an invalidation must not be cached")
	}

	cache.save(ctx, productItemNamespace, "p1", cache.snapshot(), map[string]any{"id": "p1"})
	if _, ok, _ := store.Get(ctx, productItemNamespace, "p1"); !ok {
		t.Fatal("expected fresh value to be cached")
	}
}

// invalidatingCacheStore runs an invalidation while a Set is in flight.
type invalidatingCacheStore struct {
	*InMemoryProductCacheStore
	onSet func()
}

func (s *invalidatingCacheStore) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if s.onSet != nil {
		s.onSet()
	}
	return s.InMemoryProductCacheStore.Set(ctx, namespace, key, value, ttl)
}

func TestProductCacheDropsEntryInvalidatedDuringSet(t *testing.T) {
	inner := NewInMemoryProductCacheStore()
	store := &invalidatingCacheStore{InMemoryProductCacheStore: inner}
	cache := newProductCache(store, time.Minute, nil)
	ctx := context.Background()
	store.onSet = func() { cache.invalidate(ctx, "p1") }

	cache.save(ctx, productItemNamespace, "p1", cache.snapshot(), map[string]any{"id": "p1"})
	if _, ok, _ := inner.Get(ctx, productItemNamespace, "p1"); ok {
		t.Fatal("entry written during an invalidation must be dropped")
	}
}

func TestProductCacheDropsUndecodableEntries(t *testing.T) {
	store := NewInMemoryProductCacheStore()
	ctx := context.Background()
	_ = store.Set(ctx, productItemNamespace, "p1", []byte(`not-json`), time.Minute)

	cache := newProductCache(store, time.Minute, nil)
	var dst map[string]any
	if cache.load(ctx, productItemNamespace, "p1", &dst) {
		t.Fatal("expected miss on decode failure")
	}
	if _, ok, _ := store.Get(ctx, productItemNamespace, "p1"); ok {
		t.Fatal("expected corrupt entry to be removed")
	}
}
