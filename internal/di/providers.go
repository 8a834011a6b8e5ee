package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-media-catalog/internal/app"
	"github.com/sandeepkv93/product-media-catalog/internal/config"
	"github.com/sandeepkv93/product-media-catalog/internal/database"
	"github.com/sandeepkv93/product-media-catalog/internal/health"
	"github.com/sandeepkv93/product-media-catalog/internal/http/handler"
	"github.com/sandeepkv93/product-media-catalog/internal/http/middleware"
	"github.com/sandeepkv93/product-media-catalog/internal/http/router"
	"github.com/sandeepkv93/product-media-catalog/internal/media"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
	"github.com/sandeepkv93/product-media-catalog/internal/repository"
	"github.com/sandeepkv93/product-media-catalog/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideStores,
	provideRedisClient,
	provideObjectStore,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	provideProductRepository,
	providePendingReleaseRepository,
)

var MediaSet = wire.NewSet(
	provideMediaBinder,
	wire.Bind(new(service.MediaBinder), new(*media.Binder)),
)

var ServiceSet = wire.NewSet(
	provideProductCacheStore,
	provideProductService,
	wire.Bind(new(service.ProductService), new(*service.ProductServiceImpl)),
)

var HTTPSet = wire.NewSet(
	handler.NewProductHandler,
	provideAPIRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// Stores holds whichever product store DATABASE_DRIVER selected. Exactly one
// of DB and Mongo is set.
type Stores struct {
	DB      *gorm.DB
	Mongo   *mongo.Client
	MongoDB *mongo.Database
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(runtime *observability.Runtime) *slog.Logger {
	return runtime.Logger
}

// provideStores connects the product store and brings its schema or indexes
// up to date before the server accepts traffic.
func provideStores(cfg *config.Config) (*Stores, error) {
	ctx := context.Background()
	if cfg.UsesMongo() {
		client, db, err := database.OpenMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &Stores{Mongo: client, MongoDB: db}, nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return &Stores{DB: db}, nil
}

// provideRedisClient returns nil unless a redis backed feature is enabled and
// an address is configured. Callers fall back to in-process implementations.
func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.ProductCacheEnabled && !cfg.RateLimitRedisEnabled {
		return nil
	}
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideObjectStore(cfg *config.Config) (media.ObjectStore, error) {
	switch cfg.MediaDriver {
	case config.MediaDriverMinIO:
		return media.NewMinIOObjectStore(media.MinIOOptions{
			Endpoint:      cfg.MinIOEndpoint,
			AccessKey:     cfg.MinIOAccessKey,
			SecretKey:     cfg.MinIOSecretKey,
			UseSSL:        cfg.MinIOUseSSL,
			Bucket:        cfg.MediaBucket,
			PublicBaseURL: cfg.MediaPublicBaseURL,
			MaxImageBytes: cfg.MediaMaxImageBytes,
		})
	case config.MediaDriverS3:
		return media.NewS3ObjectStore(context.Background(), media.S3Options{
			Region:        cfg.AWSRegion,
			Bucket:        cfg.MediaBucket,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.MediaPublicBaseURL,
			MaxImageBytes: cfg.MediaMaxImageBytes,
		})
	default:
		return nil, fmt.Errorf("unsupported media driver %q", cfg.MediaDriver)
	}
}

func provideProductRepository(stores *Stores) repository.ProductRepository {
	if stores.MongoDB != nil {
		return repository.NewMongoProductRepository(stores.MongoDB.Collection(database.ProductsCollection))
	}
	return repository.NewProductRepository(stores.DB)
}

func providePendingReleaseRepository(stores *Stores) repository.PendingReleaseRepository {
	if stores.MongoDB != nil {
		return repository.NewMongoPendingReleaseRepository(stores.MongoDB.Collection(database.PendingReleasesCollection))
	}
	return repository.NewPendingReleaseRepository(stores.DB)
}

func provideMediaBinder(cfg *config.Config, store media.ObjectStore, pending repository.PendingReleaseRepository, logger *slog.Logger) *media.Binder {
	return media.NewBinder(store, pending, media.BinderOptions{
		Concurrency: cfg.MediaUploadConcurrency,
		MaxFiles:    cfg.MediaMaxImagesPerRequest,
	}, logger)
}

func provideProductCacheStore(cfg *config.Config, redisClient redis.UniversalClient) service.ProductCacheStore {
	if !cfg.ProductCacheEnabled {
		return service.NewNoopProductCacheStore()
	}
	if redisClient != nil {
		return service.NewRedisProductCacheStore(redisClient, "product_cache")
	}
	return service.NewInMemoryProductCacheStore()
}

func provideProductService(
	cfg *config.Config,
	repo repository.ProductRepository,
	binder service.MediaBinder,
	cacheStore service.ProductCacheStore,
	logger *slog.Logger,
) *service.ProductServiceImpl {
	ttl := time.Duration(0)
	if cfg.ProductCacheEnabled {
		ttl = cfg.ProductCacheTTL
	}
	return service.NewProductService(repo, binder, cacheStore, ttl, logger)
}

func provideAPIRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.RateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":api")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute).Middleware()
}

func provideRouterDependencies(
	productHandler *handler.ProductHandler,
	rateLimiter router.RateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		ProductHandler:     productHandler,
		CORSOrigins:        cfg.CORSAllowedOrigins,
		APIRateLimit:       cfg.APIRateLimitPerMin,
		RateLimiter:        rateLimiter,
		MultipartBodyLimit: cfg.MultipartBodyLimit(),
		Readiness:          readiness,
		EnableOTelHTTP:     cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, stores *Stores, redisClient redis.UniversalClient, objectStore media.ObjectStore) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 3)
	if stores.DB != nil {
		checkers = append(checkers, health.NewDBChecker(stores.DB))
	}
	if stores.Mongo != nil {
		checkers = append(checkers, health.NewMongoChecker(stores.Mongo))
	}
	if redisClient != nil {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}
	checkers = append(checkers, health.NewObjectStoreChecker(objectStore))
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ReadinessStartGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	stores *Stores,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, stores.DB, stores.Mongo, redisClient, readiness)
}
