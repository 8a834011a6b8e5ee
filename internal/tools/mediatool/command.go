package mediatool

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/product-media-catalog/internal/di"
	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/media"
	"github.com/sandeepkv93/product-media-catalog/internal/tools/common"
)

const (
	exitCode     = 5
	defaultLimit = 100
)

// PendingLister is the read side of the pending release ledger.
type PendingLister interface {
	Count(ctx context.Context) (int64, error)
	ListOldest(ctx context.Context, limit int) ([]domain.PendingMediaRelease, error)
}

func NewCommand(opts *common.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Inspect and retry image releases that failed",
	}
	cmd.AddCommand(newSweepCommand(opts), newPendingCommand(opts))
	return cmd
}

func newSweepCommand(opts *common.Options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Retry releasing recorded images, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := common.Run(opts, "media", "sweep", func(ctx context.Context) ([]string, error) {
				rt, err := openRuntime(opts)
				if err != nil {
					return nil, err
				}
				defer func() { _ = rt.Close(context.Background()) }()
				return Sweep(ctx, rt.Sweeper(), limit)
			})
			if err != nil {
				os.Exit(exitCode)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "maximum entries to retry")
	return cmd
}

func newPendingCommand(opts *common.Options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List recorded image releases awaiting a sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := common.Run(opts, "media", "pending", func(ctx context.Context) ([]string, error) {
				rt, err := openRuntime(opts)
				if err != nil {
					return nil, err
				}
				defer func() { _ = rt.Close(context.Background()) }()
				return Pending(ctx, rt.Pending, limit)
			})
			if err != nil {
				os.Exit(exitCode)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}

func Sweep(ctx context.Context, sweeper *media.Sweeper, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	report, err := sweeper.Run(ctx, limit)
	details := []string{
		fmt.Sprintf("scanned=%d", report.Scanned),
		fmt.Sprintf("released=%d", report.Released),
		fmt.Sprintf("failed=%d", report.Failed),
	}
	return details, err
}

func Pending(ctx context.Context, ledger PendingLister, limit int) ([]string, error) {
	total, err := ledger.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pending releases: %w", err)
	}
	details := []string{fmt.Sprintf("pending=%d", total)}
	if total == 0 {
		return details, nil
	}
	entries, err := ledger.ListOldest(ctx, limit)
	if err != nil {
		return details, fmt.Errorf("list pending releases: %w", err)
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s remote_id=%s reason=%s attempts=%d", e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"), e.RemoteID, e.Reason, e.Attempts)
		if e.LastError != "" {
			line += " last_error=" + e.LastError
		}
		details = append(details, line)
	}
	return details, nil
}

func openRuntime(opts *common.Options) (*di.ToolRuntime, error) {
	if err := common.LoadEnv(opts); err != nil {
		return nil, err
	}
	return di.InitializeToolRuntime()
}
