package migrate

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sandeepkv93/product-media-catalog/internal/config"
	"github.com/sandeepkv93/product-media-catalog/internal/database"
	"github.com/sandeepkv93/product-media-catalog/internal/tools/common"
)

const exitCode = 3

func NewCommand(opts *common.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Product store schema tooling",
	}
	cmd.AddCommand(
		newUpCommand(opts),
		newStatusCommand(opts),
		newPlanCommand(opts),
	)
	return cmd
}

func newUpCommand(opts *common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply schema migrations or create document indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := common.Run(opts, "migrate", "up", func(ctx context.Context) ([]string, error) {
				cfg, err := loadConfig(opts)
				if err != nil {
					return nil, err
				}
				return Up(ctx, cfg)
			})
			if err != nil {
				os.Exit(exitCode)
			}
			return nil
		},
	}
}

func newStatusCommand(opts *common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report which product tables or collections exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := common.Run(opts, "migrate", "status", func(ctx context.Context) ([]string, error) {
				cfg, err := loadConfig(opts)
				if err != nil {
					return nil, err
				}
				return Status(ctx, cfg)
			})
			if err != nil {
				os.Exit(exitCode)
			}
			return nil
		},
	}
}

func newPlanCommand(opts *common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show what migrate up would do (dry-run)",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := common.Run(opts, "migrate", "plan", func(ctx context.Context) ([]string, error) {
				cfg, err := loadConfig(opts)
				if err != nil {
					return nil, err
				}
				return Plan(cfg), nil
			})
			if err != nil {
				os.Exit(exitCode)
			}
			return nil
		},
	}
}

// Up brings the configured product store up to date.
func Up(ctx context.Context, cfg *config.Config) ([]string, error) {
	if cfg.UsesMongo() {
		client, db, err := database.OpenMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			return nil, err
		}
		return []string{"mongo indexes ensured", "database: " + cfg.MongoDatabase}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	defer func() { _ = sqlDB.Close() }()
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return []string{"schema migration applied", "driver: " + cfg.DatabaseDriver}, nil
}

func Status(ctx context.Context, cfg *config.Config) ([]string, error) {
	if cfg.UsesMongo() {
		client, db, err := database.OpenMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		names, err := db.ListCollectionNames(ctx, bson.D{})
		if err != nil {
			return nil, fmt.Errorf("list collections: %w", err)
		}
		present := make(map[string]bool, len(names))
		for _, n := range names {
			present[n] = true
		}
		details := []string{"database reachable: " + cfg.MongoDatabase}
		for _, coll := range []string{database.ProductsCollection, database.PendingReleasesCollection} {
			details = append(details, statusLine(coll, present[coll]))
		}
		return details, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	defer func() { _ = sqlDB.Close() }()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	tables, err := database.MigrationStatus(db)
	if err != nil {
		return nil, err
	}
	details := []string{"database reachable: " + cfg.DatabaseDriver}
	for _, t := range tables {
		details = append(details, statusLine(t.Table, t.Exists))
	}
	return details, nil
}

func Plan(cfg *config.Config) []string {
	if cfg.UsesMongo() {
		return []string{
			"would create indexes on " + database.ProductsCollection + ": category, created_at desc",
			"would create indexes on " + database.PendingReleasesCollection + ": created_at, product_id",
			"no mutation executed in plan mode",
		}
	}
	return []string{
		"would apply AutoMigrate for products and pending_media_releases",
		"driver: " + cfg.DatabaseDriver,
		"no mutation executed in plan mode",
	}
}

func statusLine(name string, exists bool) string {
	if exists {
		return name + ": present"
	}
	return name + ": missing"
}

func loadConfig(opts *common.Options) (*config.Config, error) {
	if err := common.LoadEnv(opts); err != nil {
		return nil, err
	}
	return config.Load()
}
