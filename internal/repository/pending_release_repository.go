package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
)

var ErrPendingReleaseNotFound = errors.New("pending media release not found")

// PendingReleaseRepository is the ledger of remote images whose release
// failed. Entries are removed once a sweep releases the object.
type PendingReleaseRepository interface {
	Record(ctx context.Context, entry *domain.PendingMediaRelease) error
	ListOldest(ctx context.Context, limit int) ([]domain.PendingMediaRelease, error)
	Count(ctx context.Context) (int64, error)
	MarkAttempt(ctx context.Context, id string, lastErr string) error
	Delete(ctx context.Context, id string) error
}

func preparePendingRelease(entry *domain.PendingMediaRelease) {
	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if entry.Attempts < 1 {
		entry.Attempts = 1
	}
}

func normalizeLedgerLimit(limit int) int {
	if limit < 1 || limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

type GormPendingReleaseRepository struct{ db *gorm.DB }

func NewPendingReleaseRepository(db *gorm.DB) PendingReleaseRepository {
	return &GormPendingReleaseRepository{db: db}
}

func (r *GormPendingReleaseRepository) Record(ctx context.Context, entry *domain.PendingMediaRelease) error {
	preparePendingRelease(entry)
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "record", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "pending_release", "record", "success")
	return nil
}

func (r *GormPendingReleaseRepository) ListOldest(ctx context.Context, limit int) ([]domain.PendingMediaRelease, error) {
	items := []domain.PendingMediaRelease{}
	err := r.db.WithContext(ctx).
		Order("created_at asc").Order("id asc").
		Limit(normalizeLedgerLimit(limit)).
		Find(&items).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "list_oldest", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "pending_release", "list_oldest", "success")
	return items, nil
}

func (r *GormPendingReleaseRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.PendingMediaRelease{}).Count(&n).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "pending_release", "count", "success")
	return n, nil
}

func (r *GormPendingReleaseRepository) MarkAttempt(ctx context.Context, id string, lastErr string) error {
	res := r.db.WithContext(ctx).Model(&domain.PendingMediaRelease{}).Where("id = ?", id).Updates(map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastErr,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "mark_attempt", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "pending_release", "mark_attempt", "not_found")
		return ErrPendingReleaseNotFound
	}
	observability.RecordRepositoryOperation(ctx, "pending_release", "mark_attempt", "success")
	return nil
}

func (r *GormPendingReleaseRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.PendingMediaRelease{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "pending_release", "delete", "not_found")
		return ErrPendingReleaseNotFound
	}
	observability.RecordRepositoryOperation(ctx, "pending_release", "delete", "success")
	return nil
}
