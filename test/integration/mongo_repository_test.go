package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/product-media-catalog/internal/database"
	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/repository"
)

func newMongoProduct(name, category string, createdAt time.Time) *domain.Product {
	return &domain.Product{
		Name:        name,
		Description: name + " description",
		Price:       20,
		Stock:       3,
		Category:    category,
		CreatedAt:   createdAt,
		Images:      []domain.ProductImage{{RemoteID: "products/" + name + ".png", URL: "http://cdn/" + name + ".png"}},
		Variants:    []domain.ProductVariant{{Color: "red", Size: "M", Stock: 1, Price: 21}},
	}
}

func TestMongoProductRepositoryLifecycle(t *testing.T) {
	env := newMongoIntegrationEnv(t)
	ctx := context.Background()
	repo := repository.NewMongoProductRepository(env.db.Collection(database.ProductsCollection))

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	names := []string{"lamp", "chair", "desk"}
	for i, name := range names {
		category := "home"
		if name == "desk" {
			category = "office"
		}
		if err := repo.Create(ctx, newMongoProduct(name, category, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	home, err := repo.List(ctx, repository.ProductFilter{Category: "home"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(home) != 2 || home[0].Name != "chair" || home[1].Name != "lamp" {
		t.Fatalf("expected newest first within category, got %+v", home)
	}

	page, err := repo.ListPaged(ctx, repository.ProductFilter{}, repository.PageRequest{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 || len(page.Items) != 1 || page.Items[0].Name != "lamp" {
		t.Fatalf("unexpected page: %+v", page)
	}

	stored, err := repo.FindByID(ctx, home[0].ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(stored.Images) != 1 || len(stored.Variants) != 1 {
		t.Fatalf("expected embedded images and variants, got %+v", stored)
	}

	next := stored.Clone()
	next.Stock = 42
	next.CreatedAt = time.Now().UTC()
	if err := repo.Replace(ctx, stored.ID, next); err != nil {
		t.Fatalf("replace: %v", err)
	}
	updated, err := repo.FindByID(ctx, stored.ID)
	if err != nil {
		t.Fatalf("find after replace: %v", err)
	}
	if updated.Stock != 42 {
		t.Fatalf("expected stock 42, got %d", updated.Stock)
	}
	if !updated.CreatedAt.Equal(stored.CreatedAt) {
		t.Fatalf("replace must keep createdAt: before=%v after=%v", stored.CreatedAt, updated.CreatedAt)
	}

	if err := repo.DeleteByID(ctx, stored.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, stored.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Replace(ctx, stored.ID, next); !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected not found on replace, got %v", err)
	}
}

func TestMongoPendingReleaseLedger(t *testing.T) {
	env := newMongoIntegrationEnv(t)
	ctx := context.Background()
	ledger := repository.NewMongoPendingReleaseRepository(env.db.Collection(database.PendingReleasesCollection))

	first := &domain.PendingMediaRelease{ProductID: "p1", RemoteID: "products/a.png", Reason: "product_deleted", CreatedAt: time.Now().UTC().Add(-time.Minute)}
	second := &domain.PendingMediaRelease{ProductID: "p1", RemoteID: "products/b.png", Reason: "product_deleted"}
	for _, e := range []*domain.PendingMediaRelease{first, second} {
		if err := ledger.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	oldest, err := ledger.ListOldest(ctx, 1)
	if err != nil {
		t.Fatalf("list oldest: %v", err)
	}
	if len(oldest) != 1 || oldest[0].RemoteID != "products/a.png" {
		t.Fatalf("unexpected oldest: %+v", oldest)
	}
	if err := ledger.MarkAttempt(ctx, first.ID, "still offline"); err != nil {
		t.Fatalf("mark attempt: %v", err)
	}
	if err := ledger.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	n, err := ledger.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one entry left, got n=%d err=%v", n, err)
	}
	remaining, err := ledger.ListOldest(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if remaining[0].Attempts != 2 || remaining[0].LastError != "still offline" {
		t.Fatalf("unexpected entry after attempt: %+v", remaining[0])
	}
}
