package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
)

var ErrProductNotFound = errors.New("product not found")

// ProductFilter narrows a listing. A zero filter matches every product.
type ProductFilter struct {
	Category string
}

func (f ProductFilter) normalized() ProductFilter {
	return ProductFilter{Category: strings.TrimSpace(f.Category)}
}

// ProductRepository persists one document per product. Writes are single
// record commits; listings are ordered newest first with id as tiebreaker.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	ListPaged(ctx context.Context, filter ProductFilter, req PageRequest) (PageResult[domain.Product], error)
	Replace(ctx context.Context, id string, product *domain.Product) error
	DeleteByID(ctx context.Context, id string) error
}

type GormProductRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

// prepareProductForInsert validates p and assigns the identity and creation
// time a new record keeps for its whole life. An invalid product is left
// without an id.
func prepareProductForInsert(p *domain.Product) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}

func prepareProductForReplace(p *domain.Product) error {
	p.Normalize()
	return p.Validate()
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := prepareProductForInsert(product); err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "create", "invalid")
		return err
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "product", "create", "success")
	return nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "product", "find_by_id", "not_found")
			return nil, ErrProductNotFound
		}
		observability.RecordRepositoryOperation(ctx, "product", "find_by_id", "error")
		return nil, err
	}
	product.Normalize()
	observability.RecordRepositoryOperation(ctx, "product", "find_by_id", "success")
	return &product, nil
}

func (r *GormProductRepository) filtered(ctx context.Context, filter ProductFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if f := filter.normalized(); f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	return q
}

func (r *GormProductRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	items := []domain.Product{}
	if err := r.filtered(ctx, filter).Order("created_at desc").Order("id desc").Find(&items).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "list", "error")
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	observability.RecordRepositoryOperation(ctx, "product", "list", "success")
	return items, nil
}

func (r *GormProductRepository) ListPaged(ctx context.Context, filter ProductFilter, req PageRequest) (PageResult[domain.Product], error) {
	req = req.normalized()
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "list_paged", "error")
		return PageResult[domain.Product]{}, err
	}
	items := []domain.Product{}
	err := r.filtered(ctx, filter).
		Order("created_at desc").Order("id desc").
		Offset(req.offset()).Limit(req.PageSize).
		Find(&items).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "list_paged", "error")
		return PageResult[domain.Product]{}, err
	}
	for i := range items {
		items[i].Normalize()
	}
	observability.RecordRepositoryOperation(ctx, "product", "list_paged", "success")
	return newPageResult(items, req, total), nil
}

// Replace overwrites every mutable column. id and created_at are never written.
func (r *GormProductRepository) Replace(ctx context.Context, id string, product *domain.Product) error {
	if err := prepareProductForReplace(product); err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "invalid")
		return err
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at").
		Updates(product)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "not_found")
		return ErrProductNotFound
	}
	observability.RecordRepositoryOperation(ctx, "product", "replace", "success")
	return nil
}

func (r *GormProductRepository) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "product", "delete_by_id", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "product", "delete_by_id", "not_found")
		return ErrProductNotFound
	}
	observability.RecordRepositoryOperation(ctx, "product", "delete_by_id", "success")
	return nil
}
