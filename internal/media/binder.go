package media

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
)

const (
	ReasonUpdateReplaced  = "update_replaced"
	ReasonProductDeleted  = "product_deleted"
	ReasonUploadAborted   = "upload_aborted"
	ReasonPersistFailed   = "persist_failed"
	defaultUploadParallel = 4
)

// ReleaseRecorder stores releases that failed so an operator can retry them.
type ReleaseRecorder interface {
	Record(ctx context.Context, entry *domain.PendingMediaRelease) error
}

type BinderOptions struct {
	Concurrency int
	MaxFiles    int
}

// Binder owns the lifecycle of remote image bindings: it creates them from
// uploaded files and releases them once no product refers to them.
type Binder struct {
	store    ObjectStore
	recorder ReleaseRecorder
	opts     BinderOptions
	logger   *slog.Logger
}

func NewBinder(store ObjectStore, recorder ReleaseRecorder, opts BinderOptions, logger *slog.Logger) *Binder {
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultUploadParallel
	}
	return &Binder{
		store:    store,
		recorder: recorder,
		opts:     opts,
		logger:   observability.ComponentLogger(logger, "media_binder"),
	}
}

// BindNew uploads every file and returns the bindings in input order. If any
// upload fails the whole batch fails with an *UploadError and bindings already
// created for the batch are released.
func (b *Binder) BindNew(ctx context.Context, files []File) (images []domain.ProductImage, err error) {
	if len(files) == 0 {
		return []domain.ProductImage{}, nil
	}
	if b.opts.MaxFiles > 0 && len(files) > b.opts.MaxFiles {
		return nil, &UploadError{Index: b.opts.MaxFiles, Err: ErrTooManyFiles}
	}

	ctx, span := observability.StartSpan(ctx, "media.bind_new",
		attribute.Int("media.files", len(files)),
		attribute.String("media.driver", b.store.Name()),
	)
	defer func() { observability.EndSpan(span, err) }()

	results := make([]domain.ProductImage, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			img, uploadErr := b.upload(gctx, f)
			if uploadErr != nil {
				return &UploadError{Index: i, Filename: f.Name, Err: uploadErr}
			}
			results[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		bound := make([]domain.ProductImage, 0, len(results))
		for _, img := range results {
			if img.RemoteID != "" {
				bound = append(bound, img)
			}
		}
		if len(bound) > 0 {
			b.Release(ctx, "", bound, ReasonUploadAborted)
		}
		b.logger.WarnContext(ctx, "image batch upload failed", "files", len(files), "compensated", len(bound), "error", err)
		return nil, err
	}
	return results, nil
}

func (b *Binder) upload(ctx context.Context, f File) (domain.ProductImage, error) {
	start := time.Now()
	img, err := b.store.Upload(ctx, f)
	outcome := "success"
	switch {
	case errors.Is(err, ErrInvalidFileType) || errors.Is(err, ErrFileTooBig):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	observability.RecordMediaOperation(ctx, b.store.Name(), "upload", outcome, time.Since(start))
	if err == nil {
		observability.RecordMediaUploadSize(ctx, b.store.Name(), f.Size)
	}
	return img, err
}

// Release deletes every binding independently. Failures never stop the rest
// and never escalate: each is logged, recorded for a later sweep and returned.
// Releases are not cut short by ctx cancellation.
func (b *Binder) Release(ctx context.Context, productID string, images []domain.ProductImage, reason string) []ReleaseFailure {
	if len(images) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	ctx, span := observability.StartSpan(ctx, "media.release",
		attribute.Int("media.images", len(images)),
		attribute.String("media.reason", reason),
	)
	defer span.End()

	errs := make([]error, len(images))
	var g errgroup.Group
	g.SetLimit(b.opts.Concurrency)
	for i, img := range images {
		g.Go(func() error {
			start := time.Now()
			errs[i] = b.store.Release(ctx, img.RemoteID)
			outcome := "success"
			if errs[i] != nil {
				outcome = "error"
			}
			observability.RecordMediaOperation(ctx, b.store.Name(), "release", outcome, time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	var failures []ReleaseFailure
	for i, err := range errs {
		if err == nil {
			continue
		}
		remoteID := images[i].RemoteID
		failures = append(failures, ReleaseFailure{RemoteID: remoteID, Err: err})
		observability.RecordMediaReleaseFailure(ctx, reason)
		b.logger.WarnContext(ctx, "image release failed",
			"product_id", productID,
			"remote_id", remoteID,
			"reason", reason,
			"error", err,
		)
		b.recordPending(ctx, productID, remoteID, reason, err)
	}
	if len(failures) > 0 {
		span.SetAttributes(attribute.Int("media.release_failures", len(failures)))
	}
	return failures
}

func (b *Binder) recordPending(ctx context.Context, productID, remoteID, reason string, cause error) {
	if b.recorder == nil {
		return
	}
	entry := &domain.PendingMediaRelease{
		ProductID: productID,
		RemoteID:  remoteID,
		Reason:    reason,
		LastError: cause.Error(),
	}
	if err := b.recorder.Record(ctx, entry); err != nil {
		b.logger.ErrorContext(ctx, "record pending image release failed",
			"product_id", productID,
			"remote_id", remoteID,
			"error", err,
		)
	}
}
