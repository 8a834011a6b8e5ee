package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/media"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
	"github.com/sandeepkv93/product-media-catalog/internal/repository"
)

type ProductServiceImpl struct {
	repo   repository.ProductRepository
	binder MediaBinder
	cache  *productCache
	loads  singleflight.Group
	logger *slog.Logger
}

func NewProductService(repo repository.ProductRepository, binder MediaBinder, cacheStore ProductCacheStore, cacheTTL time.Duration, logger *slog.Logger) *ProductServiceImpl {
	logger = observability.ComponentLogger(logger, "product_service")
	return &ProductServiceImpl{
		repo:   repo,
		binder: binder,
		cache:  newProductCache(cacheStore, cacheTTL, logger),
		logger: logger,
	}
}

func (s *ProductServiceImpl) Create(ctx context.Context, input CreateProductInput) (_ *domain.Product, err error) {
	ctx, finish := s.track(ctx, "create", "")
	defer func() { finish(err) }()

	product, err := input.product()
	if err != nil {
		return nil, err
	}
	images, err := s.binder.BindNew(ctx, input.Images)
	if err != nil {
		return nil, err
	}
	product.Images = images

	if err := s.repo.Create(ctx, product); err != nil {
		s.binder.Release(ctx, "", images, media.ReasonPersistFailed)
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.cache.invalidate(ctx, "")
	s.logger.InfoContext(ctx, "product created", "product_id", product.ID, "images", len(images))
	return product, nil
}

// Update applies a partial update. New images are bound before anything is
// released; previous images are released only after the record commits.
func (s *ProductServiceImpl) Update(ctx context.Context, id string, input UpdateProductInput) (_ *domain.Product, err error) {
	ctx, finish := s.track(ctx, "update", id)
	defer func() { finish(err) }()

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := input.apply(next); err != nil {
		return nil, err
	}

	replacing := len(input.Images) > 0
	if replacing {
		images, err := s.binder.BindNew(ctx, input.Images)
		if err != nil {
			return nil, err
		}
		next.Images = images
	}

	if err := s.repo.Replace(ctx, id, next); err != nil {
		if replacing {
			s.binder.Release(ctx, id, next.Images, media.ReasonPersistFailed)
		}
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("replace product: %w", err)
	}
	s.cache.invalidate(ctx, id)

	if replacing {
		failures := s.binder.Release(ctx, id, current.Images, media.ReasonUpdateReplaced)
		s.logger.InfoContext(ctx, "product images replaced",
			"product_id", id,
			"bound", len(next.Images),
			"released", len(current.Images)-len(failures),
			"release_failures", len(failures),
		)
	}
	return next, nil
}

func (s *ProductServiceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, finish := s.track(ctx, "delete", id)
	defer func() { finish(err) }()

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.cache.invalidate(ctx, id)

	failures := s.binder.Release(ctx, id, current.Images, media.ReasonProductDeleted)
	s.logger.InfoContext(ctx, "product deleted", "product_id", id, "images", len(current.Images), "release_failures", len(failures))
	return nil
}

func (s *ProductServiceImpl) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	ctx, finish := s.track(ctx, "get", id)
	defer func() { finish(err) }()

	var cached domain.Product
	if s.cache.load(ctx, productItemNamespace, id, &cached) {
		return &cached, nil
	}
	// Concurrent misses for one id share a single store read.
	result, err, shared := s.loads.Do(id, func() (any, error) {
		seen := s.cache.snapshot()
		product, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cache.save(ctx, productItemNamespace, id, seen, product)
		return product, nil
	})
	if shared {
		observability.RecordProductCacheEvent(ctx, productItemNamespace, "singleflight_shared")
	}
	if err != nil {
		return nil, err
	}
	product, ok := result.(*domain.Product)
	if !ok {
		return nil, fmt.Errorf("invalid product load result type")
	}
	if shared {
		return product.Clone(), nil
	}
	return product, nil
}

func (s *ProductServiceImpl) List(ctx context.Context, filter repository.ProductFilter) (_ []domain.Product, err error) {
	ctx, finish := s.track(ctx, "list", "")
	defer func() { finish(err) }()

	key := listCacheKey(filter, nil)
	var cached []domain.Product
	if s.cache.load(ctx, productListNamespace, key, &cached) {
		return cached, nil
	}
	seen := s.cache.snapshot()
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	s.cache.save(ctx, productListNamespace, key, seen, items)
	return items, nil
}

func (s *ProductServiceImpl) ListPaged(ctx context.Context, filter repository.ProductFilter, req repository.PageRequest) (_ repository.PageResult[domain.Product], err error) {
	ctx, finish := s.track(ctx, "list_paged", "")
	defer func() { finish(err) }()

	key := listCacheKey(filter, &req)
	var cached repository.PageResult[domain.Product]
	if s.cache.load(ctx, productListNamespace, key, &cached) {
		return cached, nil
	}
	seen := s.cache.snapshot()
	page, err := s.repo.ListPaged(ctx, filter, req)
	if err != nil {
		return repository.PageResult[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	s.cache.save(ctx, productListNamespace, key, seen, page)
	return page, nil
}

func (s *ProductServiceImpl) track(ctx context.Context, op, id string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "product."+op, attribute.String("product.id", id))
	return ctx, func(err error) {
		observability.RecordProductOperation(ctx, op, productOutcome(err), time.Since(start))
		observability.EndSpan(span, err)
	}
}

func productOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "validation_error"
	case errors.Is(err, repository.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, media.ErrUpload):
		return "upload_error"
	default:
		return "error"
	}
}

func listCacheKey(filter repository.ProductFilter, req *repository.PageRequest) string {
	if req == nil {
		return fmt.Sprintf("category=%s", filter.Category)
	}
	return fmt.Sprintf("category=%s&page=%d&page_size=%d", filter.Category, req.Page, req.PageSize)
}
