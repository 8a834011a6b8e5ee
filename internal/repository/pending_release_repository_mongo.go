package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
)

type MongoPendingReleaseRepository struct {
	coll *mongo.Collection
}

func NewMongoPendingReleaseRepository(coll *mongo.Collection) PendingReleaseRepository {
	return &MongoPendingReleaseRepository{coll: coll}
}

func (r *MongoPendingReleaseRepository) Record(ctx context.Context, entry *domain.PendingMediaRelease) error {
	preparePendingRelease(entry)
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "record", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "pending_release", "record", "success")
	return nil
}

func (r *MongoPendingReleaseRepository) ListOldest(ctx context.Context, limit int) ([]domain.PendingMediaRelease, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(normalizeLedgerLimit(limit)))
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "list_oldest", "error")
		return nil, err
	}
	items := []domain.PendingMediaRelease{}
	if err := cur.All(ctx, &items); err != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "list_oldest", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "pending_release", "list_oldest", "success")
	return items, nil
}

func (r *MongoPendingReleaseRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "pending_release", "count", "success")
	return n, nil
}

func (r *MongoPendingReleaseRepository) MarkAttempt(ctx context.Context, id string, lastErr string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"last_error": lastErr, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "mark_attempt", "error")
		return err
	}
	if res.MatchedCount == 0 {
		observability.RecordRepositoryOperation(ctx, "pending_release", "mark_attempt", "not_found")
		return ErrPendingReleaseNotFound
	}
	observability.RecordRepositoryOperation(ctx, "pending_release", "mark_attempt", "success")
	return nil
}

func (r *MongoPendingReleaseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "pending_release", "delete", "error")
		return err
	}
	if res.DeletedCount == 0 {
		observability.RecordRepositoryOperation(ctx, "pending_release", "delete", "not_found")
		return ErrPendingReleaseNotFound
	}
	observability.RecordRepositoryOperation(ctx, "pending_release", "delete", "success")
	return nil
}
