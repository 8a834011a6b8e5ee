package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sandeepkv93/product-media-catalog/internal/config"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the relational product store selected by DATABASE_DRIVER.
func Open(cfg *config.Config) (*gorm.DB, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "connect", time.Since(start))
	}()

	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DatabaseDriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case config.DatabaseDriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		observability.RecordDatabaseStartupEvent(context.Background(), "connect", "error")
		return nil, fmt.Errorf("database driver %q is not relational", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "connect", "error")
		return nil, fmt.Errorf("open %s: %w", cfg.DatabaseDriver, err)
	}
	observability.RecordDatabaseStartupEvent(context.Background(), "connect", "success")
	return db, nil
}
