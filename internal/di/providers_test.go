package di

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/mock/gomock"

	"github.com/sandeepkv93/product-media-catalog/internal/config"
	"github.com/sandeepkv93/product-media-catalog/internal/media"
	mediagomock "github.com/sandeepkv93/product-media-catalog/internal/media/gomock"
	"github.com/sandeepkv93/product-media-catalog/internal/repository"
	"github.com/sandeepkv93/product-media-catalog/internal/service"
)

func TestProvideHTTPServer(t *testing.T) {
	cfg := &config.Config{HTTPPort: "9999", HTTPReadTimeout: 30 * time.Second, HTTPWriteTimeout: time.Minute}
	srv := provideHTTPServer(cfg, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadTimeout != 30*time.Second || srv.WriteTimeout != time.Minute {
		t.Fatalf("unexpected timeouts: read=%v write=%v", srv.ReadTimeout, srv.WriteTimeout)
	}
}

func TestProvideRouterDependencies(t *testing.T) {
	cfg := &config.Config{
		CORSAllowedOrigins:       []string{"http://localhost:5173"},
		APIRateLimitPerMin:       100,
		MediaMaxImageBytes:       1 << 20,
		MediaMaxImagesPerRequest: 4,
		OTELMetricsEnabled:       true,
	}
	dep := provideRouterDependencies(nil, nil, nil, cfg)
	if dep.APIRateLimit != 100 {
		t.Fatalf("unexpected rate limit: %+v", dep)
	}
	if !dep.EnableOTelHTTP {
		t.Fatal("expected otel http enabled")
	}
	if dep.MultipartBodyLimit != cfg.MultipartBodyLimit() {
		t.Fatalf("expected multipart limit %d, got %d", cfg.MultipartBodyLimit(), dep.MultipartBodyLimit)
	}
	if len(dep.CORSOrigins) != 1 || dep.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins: %+v", dep.CORSOrigins)
	}
}

func TestProvideRedisClient(t *testing.T) {
	t.Run("disabled without redis features", func(t *testing.T) {
		if c := provideRedisClient(&config.Config{RedisAddr: "localhost:6379"}, nil); c != nil {
			t.Fatal("expected nil client")
		}
	})
	t.Run("disabled without address", func(t *testing.T) {
		if c := provideRedisClient(&config.Config{ProductCacheEnabled: true}, nil); c != nil {
			t.Fatal("expected nil client")
		}
	})
	t.Run("enabled for product cache", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c := provideRedisClient(&config.Config{ProductCacheEnabled: true, RedisAddr: mr.Addr()}, nil)
		if c == nil {
			t.Fatal("expected client")
		}
		t.Cleanup(func() { _ = c.Close() })
		if err := c.Ping(context.Background()).Err(); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}

func TestProvideProductCacheStoreSelection(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	if _, ok := provideProductCacheStore(&config.Config{}, client).(*service.NoopProductCacheStore); !ok {
		t.Fatal("expected noop store when cache disabled")
	}
	if _, ok := provideProductCacheStore(&config.Config{ProductCacheEnabled: true}, nil).(*service.InMemoryProductCacheStore); !ok {
		t.Fatal("expected in-memory store without redis")
	}
	if _, ok := provideProductCacheStore(&config.Config{ProductCacheEnabled: true}, client).(*service.RedisProductCacheStore); !ok {
		t.Fatal("expected redis store")
	}
}

func TestProvideAPIRateLimiterLocal(t *testing.T) {
	limiter := provideAPIRateLimiter(&config.Config{APIRateLimitPerMin: 1}, nil)
	h := limiter(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes: %v", codes)
	}
}

func TestProvideAPIRateLimiterRedisSharesWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cfg := &config.Config{APIRateLimitPerMin: 1, RateLimitRedisEnabled: true, RateLimitRedisPrefix: "rl"}

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	first := provideAPIRateLimiter(cfg, client)(next)
	second := provideAPIRateLimiter(cfg, client)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.RemoteAddr = "10.1.1.2:1234"
	rr := httptest.NewRecorder()
	first.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	second.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second instance to share the window, got %d", rr.Code)
	}
	var found bool
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, "rl:api") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected limiter keys under rl:api, got %v", mr.Keys())
	}
}

func newSQLiteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseDriver: config.DatabaseDriverSQLite,
		DatabaseURL:    "file:di_" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared",
	}
}

func TestProvideStoresSQLiteMigratesSchema(t *testing.T) {
	stores, err := provideStores(newSQLiteConfig(t))
	if err != nil {
		t.Fatalf("provide stores: %v", err)
	}
	if stores.DB == nil || stores.Mongo != nil {
		t.Fatalf("expected relational store only: %+v", stores)
	}
	sqlDB, err := stores.DB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if _, ok := provideProductRepository(stores).(*repository.GormProductRepository); !ok {
		t.Fatal("expected gorm product repository")
	}
	pending := providePendingReleaseRepository(stores)
	if _, ok := pending.(*repository.GormPendingReleaseRepository); !ok {
		t.Fatal("expected gorm pending release repository")
	}
	if n, err := pending.Count(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected empty migrated ledger, got n=%d err=%v", n, err)
	}
}

func TestProvideReadinessProbeRunnerIncludesMediaStore(t *testing.T) {
	stores, err := provideStores(newSQLiteConfig(t))
	if err != nil {
		t.Fatalf("provide stores: %v", err)
	}
	sqlDB, _ := stores.DB.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctrl := gomock.NewController(t)
	store := mediagomock.NewMockObjectStore(ctrl)
	store.EXPECT().Ping(gomock.Any()).Return(errors.New("bucket unreachable"))

	runner := provideReadinessProbeRunner(&config.Config{ReadinessProbeTimeout: time.Second}, stores, nil, store)
	ready, results := runner.Ready(context.Background())
	if ready {
		t.Fatal("expected not ready when media store is down")
	}
	if len(results) != 2 {
		t.Fatalf("expected db and media checks, got %+v", results)
	}
	if results[0].Name != "db" || !results[0].Healthy {
		t.Fatalf("unexpected db result: %+v", results[0])
	}
	if results[1].Name != "media" || results[1].Healthy {
		t.Fatalf("unexpected media result: %+v", results[1])
	}
}

func TestProvideObjectStore(t *testing.T) {
	store, err := provideObjectStore(&config.Config{
		MediaDriver:    config.MediaDriverMinIO,
		MinIOEndpoint:  "localhost:9000",
		MinIOAccessKey: "minioadmin",
		MinIOSecretKey: "minioadmin",
		MediaBucket:    "products",
	})
	if err != nil {
		t.Fatalf("minio store: %v", err)
	}
	if store.Name() != "minio" {
		t.Fatalf("unexpected store %q", store.Name())
	}

	if _, err := provideObjectStore(&config.Config{MediaDriver: "ftp"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestProvideMediaBinderUsesConfiguredLimits(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mediagomock.NewMockObjectStore(ctrl)
	store.EXPECT().Name().Return("mock").AnyTimes()

	binder := provideMediaBinder(&config.Config{MediaUploadConcurrency: 2, MediaMaxImagesPerRequest: 1}, store, nil, nil)
	files := []media.File{media.BytesFile("a.png", []byte("a")), media.BytesFile("b.png", []byte("b"))}
	_, err := binder.BindNew(context.Background(), files)
	if !errors.Is(err, media.ErrUpload) {
		t.Fatalf("expected upload error for too many files, got %v", err)
	}
}

func TestProvideApp(t *testing.T) {
	cfg := &config.Config{ShutdownTimeout: 5 * time.Second}
	stores := &Stores{}
	a := provideApp(cfg, nil, &http.Server{}, nil, stores, nil, nil)
	if a == nil || a.Server == nil {
		t.Fatal("expected app with server")
	}
	if a.ShutdownTimeout != 5*time.Second {
		t.Fatalf("unexpected shutdown timeout: %v", a.ShutdownTimeout)
	}
}
