package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sandeepkv93/product-media-catalog/internal/config"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Runtime owns the three OTel pipelines and the logger bound to them.
type Runtime struct {
	Logger         *slog.Logger
	LoggerProvider *sdklog.LoggerProvider
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
}

func InitRuntime(ctx context.Context, cfg *config.Config, bootstrap *slog.Logger) (*Runtime, error) {
	lp, err := InitLogs(ctx, cfg, bootstrap)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{LoggerProvider: lp}

	if rt.MeterProvider, err = InitMetrics(ctx, cfg, bootstrap); err != nil {
		_ = rt.Shutdown(ctx)
		return nil, err
	}
	if rt.TracerProvider, err = InitTracing(ctx, cfg, bootstrap); err != nil {
		_ = rt.Shutdown(ctx)
		return nil, err
	}
	rt.Logger = InitLogger(cfg, lp)
	return rt, nil
}

// Shutdown flushes traces first, then metrics, then logs, so log records
// emitted while flushing the other pipelines still leave the process.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.TracerProvider != nil {
		if err := r.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.MeterProvider != nil {
		if err := r.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.LoggerProvider != nil {
		if err := r.LoggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
