package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sandeepkv93/product-media-catalog/internal/config"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	ProductsCollection        = "products"
	PendingReleasesCollection = "pending_media_releases"
)

// OpenMongo connects to the document store and verifies the primary is reachable.
func OpenMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "mongo_connect", time.Since(start))
	}()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "mongo_connect", "error")
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		observability.RecordDatabaseStartupEvent(ctx, "mongo_connect", "error")
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	observability.RecordDatabaseStartupEvent(ctx, "mongo_connect", "success")
	return client, client.Database(cfg.MongoDatabase), nil
}

// EnsureMongoIndexes creates the indexes the repositories rely on. It is
// idempotent and safe to run on every start.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	products := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
	}
	if _, err := db.Collection(ProductsCollection).Indexes().CreateMany(ctx, products); err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "mongo_indexes", "error")
		return fmt.Errorf("create product indexes: %w", err)
	}
	pending := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "product_id", Value: 1}}},
	}
	if _, err := db.Collection(PendingReleasesCollection).Indexes().CreateMany(ctx, pending); err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "mongo_indexes", "error")
		return fmt.Errorf("create pending release indexes: %w", err)
	}
	observability.RecordDatabaseStartupEvent(ctx, "mongo_indexes", "success")
	return nil
}
