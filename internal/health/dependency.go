package health

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

// PingChecker adapts any dependency that can be pinged.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: c.name, Healthy: true}
	if c.ping == nil {
		res.Healthy = false
		res.Error = c.name + " not configured"
		return res
	}
	if err := c.ping(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return NewPingChecker("db", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

func NewMongoChecker(client *mongo.Client) Checker {
	if client == nil {
		return nil
	}
	return NewPingChecker("mongo", func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return NewPingChecker("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

// Pinger is satisfied by the media object stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewObjectStoreChecker(store Pinger) Checker {
	if store == nil {
		return nil
	}
	return NewPingChecker("media", store.Ping)
}
