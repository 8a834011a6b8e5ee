package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/product-media-catalog/internal/tools/common"
	"github.com/sandeepkv93/product-media-catalog/internal/tools/loadgen"
	"github.com/sandeepkv93/product-media-catalog/internal/tools/mediatool"
	"github.com/sandeepkv93/product-media-catalog/internal/tools/migrate"
	"github.com/sandeepkv93/product-media-catalog/internal/tools/obscheck"
	"github.com/sandeepkv93/product-media-catalog/internal/tools/seed"
)

func main() {
	opts := &common.Options{}
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Operator tooling for the product media catalog",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "path to env file")
	root.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "operation timeout")
	root.PersistentFlags().BoolVar(&opts.CI, "ci", false, "non-interactive machine-readable output")

	root.AddCommand(
		migrate.NewCommand(opts),
		mediatool.NewCommand(opts),
		seed.NewCommand(opts),
		loadgen.NewCommand(opts),
		obscheck.NewCommand(opts),
	)
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
