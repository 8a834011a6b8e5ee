//go:generate mockgen -source=interfaces.go -destination=gomock/interfaces_mock.go -package=gomock
package service

import (
	"context"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/media"
	"github.com/sandeepkv93/product-media-catalog/internal/repository"
)

type ProductService interface {
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error)
	ListPaged(ctx context.Context, filter repository.ProductFilter, req repository.PageRequest) (repository.PageResult[domain.Product], error)
}

// MediaBinder creates and releases the remote bindings behind product images.
type MediaBinder interface {
	BindNew(ctx context.Context, files []media.File) ([]domain.ProductImage, error)
	Release(ctx context.Context, productID string, images []domain.ProductImage, reason string) []media.ReleaseFailure
}
