package di

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sandeepkv93/product-media-catalog/internal/config"
	"github.com/sandeepkv93/product-media-catalog/internal/media"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
	"github.com/sandeepkv93/product-media-catalog/internal/repository"
)

// ToolRuntime is the slice of the service graph the operator tooling needs:
// the product stores and the media backend, without HTTP or OTel exporters.
type ToolRuntime struct {
	Config      *config.Config
	Logger      *slog.Logger
	Stores      *Stores
	Products    repository.ProductRepository
	Pending     repository.PendingReleaseRepository
	ObjectStore media.ObjectStore
}

func NewToolRuntime(
	cfg *config.Config,
	logger *slog.Logger,
	stores *Stores,
	products repository.ProductRepository,
	pending repository.PendingReleaseRepository,
	objectStore media.ObjectStore,
) *ToolRuntime {
	return &ToolRuntime{
		Config:      cfg,
		Logger:      logger,
		Stores:      stores,
		Products:    products,
		Pending:     pending,
		ObjectStore: objectStore,
	}
}

func (t *ToolRuntime) Sweeper() *media.Sweeper {
	return media.NewSweeper(t.ObjectStore, t.Pending, t.Logger)
}

func (t *ToolRuntime) Close(ctx context.Context) error {
	if t == nil || t.Stores == nil {
		return nil
	}
	var errs []error
	if t.Stores.Mongo != nil {
		errs = append(errs, t.Stores.Mongo.Disconnect(ctx))
	}
	if t.Stores.DB != nil {
		if sqlDB, err := t.Stores.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

func provideToolLogger(cfg *config.Config) *slog.Logger {
	return observability.NewBootstrapLogger(cfg)
}
