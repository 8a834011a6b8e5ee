package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
)

var productSortOrder = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type MongoProductRepository struct {
	coll *mongo.Collection
}

func NewMongoProductRepository(coll *mongo.Collection) ProductRepository {
	return &MongoProductRepository{coll: coll}
}

func (r *MongoProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := prepareProductForInsert(product); err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "create", "invalid")
		return err
	}
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "product", "create", "success")
	return nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
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

func mongoProductFilter(filter ProductFilter) bson.M {
	q := bson.M{}
	if f := filter.normalized(); f.Category != "" {
		q["category"] = f.Category
	}
	return q
}

func (r *MongoProductRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	items, err := r.find(ctx, mongoProductFilter(filter), options.Find().SetSort(productSortOrder))
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "list", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "product", "list", "success")
	return items, nil
}

func (r *MongoProductRepository) ListPaged(ctx context.Context, filter ProductFilter, req PageRequest) (PageResult[domain.Product], error) {
	req = req.normalized()
	q := mongoProductFilter(filter)

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "list_paged", "error")
		return PageResult[domain.Product]{}, err
	}
	opts := options.Find().
		SetSort(productSortOrder).
		SetSkip(int64(req.offset())).
		SetLimit(int64(req.PageSize))
	items, err := r.find(ctx, q, opts)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "list_paged", "error")
		return PageResult[domain.Product]{}, err
	}
	observability.RecordRepositoryOperation(ctx, "product", "list_paged", "success")
	return newPageResult(items, req, total), nil
}

func (r *MongoProductRepository) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]domain.Product, error) {
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	items := []domain.Product{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, nil
}

// Replace sets every stored field except _id and created_at, so a document
// keeps its identity and creation time regardless of what the caller passes.
func (r *MongoProductRepository) Replace(ctx context.Context, id string, product *domain.Product) error {
	if err := prepareProductForReplace(product); err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "invalid")
		return err
	}
	raw, err := bson.Marshal(product)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "error")
		return fmt.Errorf("encode product: %w", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "error")
		return fmt.Errorf("encode product: %w", err)
	}
	delete(fields, "_id")
	delete(fields, "created_at")

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "error")
		return err
	}
	if res.MatchedCount == 0 {
		observability.RecordRepositoryOperation(ctx, "product", "replace", "not_found")
		return ErrProductNotFound
	}
	observability.RecordRepositoryOperation(ctx, "product", "replace", "success")
	return nil
}

func (r *MongoProductRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "delete_by_id", "error")
		return err
	}
	if res.DeletedCount == 0 {
		observability.RecordRepositoryOperation(ctx, "product", "delete_by_id", "not_found")
		return ErrProductNotFound
	}
	observability.RecordRepositoryOperation(ctx, "product", "delete_by_id", "success")
	return nil
}
