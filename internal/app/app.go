package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-media-catalog/internal/config"
	"github.com/sandeepkv93/product-media-catalog/internal/health"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Mongo         *mongo.Client
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	mongoClient *mongo.Client,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *App {
	return &App{
		Config:                       cfg,
		Logger:                       logger,
		Server:                       server,
		Observability:                runtime,
		DB:                           db,
		Mongo:                        mongoClient,
		Redis:                        redisClient,
		Readiness:                    readiness,
		ShutdownTimeout:              cfg.ShutdownTimeout,
		ShutdownHTTPDrainTimeout:     cfg.ShutdownHTTPDrainTimeout,
		ShutdownObservabilityTimeout: cfg.ShutdownObservabilityTimeout,
	}
}

// Shutdown drains HTTP first, then flushes telemetry, then closes the stores.
// Every step runs even if an earlier one fails.
func (a *App) Shutdown(ctx context.Context) error {
	totalTimeout := a.ShutdownTimeout
	if totalTimeout <= 0 {
		totalTimeout = 20 * time.Second
	}
	totalCtx, totalCancel := context.WithTimeout(ctx, totalTimeout)
	defer totalCancel()

	var errs []error
	if a.Server != nil {
		httpTimeout := a.ShutdownHTTPDrainTimeout
		if httpTimeout <= 0 {
			httpTimeout = 10 * time.Second
		}
		httpCtx, httpCancel := context.WithTimeout(totalCtx, httpTimeout)
		if err := a.Server.Shutdown(httpCtx); err != nil {
			a.logger().Error("failed to shutdown http server", "error", err)
			errs = append(errs, err)
		}
		httpCancel()
	}

	if a.Observability != nil {
		obsTimeout := a.ShutdownObservabilityTimeout
		if obsTimeout <= 0 {
			obsTimeout = 8 * time.Second
		}
		obsCtx, obsCancel := context.WithTimeout(totalCtx, obsTimeout)
		if err := a.Observability.Shutdown(obsCtx); err != nil {
			a.logger().Error("failed to shutdown observability", "error", err)
			errs = append(errs, err)
		}
		obsCancel()
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger().Error("failed to close redis client", "error", err)
			errs = append(errs, err)
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(totalCtx); err != nil {
			a.logger().Error("failed to disconnect mongo", "error", err)
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.logger().Error("failed to close database connection", "error", err)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
