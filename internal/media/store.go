package media

import (
	"context"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
)

//go:generate mockgen -source=store.go -destination=gomock/object_store_mock.go -package=gomock

// ObjectStore is the remote media backend. Upload returns the binding the
// product stores; Release deletes the object behind a remote id and treats an
// already missing object as released.
type ObjectStore interface {
	Name() string
	Upload(ctx context.Context, f File) (domain.ProductImage, error)
	Release(ctx context.Context, remoteID string) error
	Ping(ctx context.Context) error
}
