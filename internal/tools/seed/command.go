package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/product-media-catalog/internal/di"
	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/tools/common"
)

const exitCode = 3

// ProductCreator is the write side of the product repository.
type ProductCreator interface {
	Create(ctx context.Context, product *domain.Product) error
}

type catalogEntry struct {
	category string
	brand    string
	noun     string
	price    float64
}

var catalog = []catalogEntry{
	{"electronics", "Voltline", "Wireless Earbuds", 79.99},
	{"electronics", "Voltline", "USB-C Charger", 24.5},
	{"apparel", "Northpeak", "Rain Jacket", 129},
	{"apparel", "Northpeak", "Wool Socks", 14.99},
	{"home", "Hearth & Co", "Ceramic Mug", 12},
	{"home", "Hearth & Co", "Linen Throw", 59.95},
}

func NewCommand(opts *common.Options) *cobra.Command {
	cmd := &cobra.Command{Use: "seed", Short: "Demo catalog data"}
	cmd.AddCommand(newProductsCommand(opts), newDryRunCommand(opts))
	return cmd
}

func newProductsCommand(opts *common.Options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Insert demo products without images",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := common.Run(opts, "seed", "products", func(ctx context.Context) ([]string, error) {
				if err := common.LoadEnv(opts); err != nil {
					return nil, err
				}
				rt, err := di.InitializeToolRuntime()
				if err != nil {
					return nil, err
				}
				defer func() { _ = rt.Close(context.Background()) }()
				return Products(ctx, rt.Products, count)
			})
			if err != nil {
				os.Exit(exitCode)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", len(catalog), "number of products to insert")
	return cmd
}

func newDryRunCommand(opts *common.Options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "dry-run",
		Short: "Show the products seeding would insert",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := common.Run(opts, "seed", "dry-run", func(context.Context) ([]string, error) {
				details := []string{}
				for _, p := range DemoProducts(count, time.Now().UTC()) {
					details = append(details, fmt.Sprintf("would insert %q category=%s price=%.2f", p.Name, p.Category, p.Price))
				}
				return details, nil
			})
			if err != nil {
				os.Exit(exitCode)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", len(catalog), "number of products to describe")
	return cmd
}

// Products inserts count demo products and returns one detail line per insert.
func Products(ctx context.Context, repo ProductCreator, count int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be > 0")
	}
	details := make([]string, 0, count)
	for _, p := range DemoProducts(count, time.Now().UTC()) {
		if err := repo.Create(ctx, p); err != nil {
			return details, fmt.Errorf("seed %q: %w", p.Name, err)
		}
		details = append(details, fmt.Sprintf("inserted %s %q", p.ID, p.Name))
	}
	return details, nil
}

// DemoProducts cycles through a small fixed catalog. Creation times step back
// one minute per product so newest-first listings follow insertion order.
func DemoProducts(count int, now time.Time) []*domain.Product {
	out := make([]*domain.Product, 0, max(count, 0))
	for i := 0; i < count; i++ {
		e := catalog[i%len(catalog)]
		name := e.noun
		if round := i / len(catalog); round > 0 {
			name = fmt.Sprintf("%s %d", e.noun, round+1)
		}
		p := &domain.Product{
			Name:        name,
			Description: fmt.Sprintf("%s by %s.", e.noun, e.brand),
			Price:       e.price,
			Stock:       10 + i,
			Category:    e.category,
			Brand:       e.brand,
			IsFeatured:  i%len(catalog) == 0,
			Variants:    []domain.ProductVariant{},
			Images:      []domain.ProductImage{},
			CreatedAt:   now.Add(-time.Duration(i) * time.Minute),
		}
		if i%3 == 1 {
			p.DiscountPrice = float64(int(e.price*80)) / 100
		}
		out = append(out, p)
	}
	return out
}
