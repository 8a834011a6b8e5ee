package media

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
)

// PendingLedger is the read-write view of recorded release failures.
type PendingLedger interface {
	ListOldest(ctx context.Context, limit int) ([]domain.PendingMediaRelease, error)
	MarkAttempt(ctx context.Context, id string, lastErr string) error
	Delete(ctx context.Context, id string) error
}

type SweepReport struct {
	Scanned  int `json:"scanned"`
	Released int `json:"released"`
	Failed   int `json:"failed"`
}

// Sweeper retries recorded releases on operator request. Nothing schedules it.
type Sweeper struct {
	store  ObjectStore
	ledger PendingLedger
	logger *slog.Logger
}

func NewSweeper(store ObjectStore, ledger PendingLedger, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: store, ledger: ledger, logger: observability.ComponentLogger(logger, "media_sweeper")}
}

func (s *Sweeper) Run(ctx context.Context, limit int) (SweepReport, error) {
	var report SweepReport
	entries, err := s.ledger.ListOldest(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("list pending releases: %w", err)
	}
	report.Scanned = len(entries)
	for _, e := range entries {
		if releaseErr := s.store.Release(ctx, e.RemoteID); releaseErr != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "pending image release failed again",
				"pending_id", e.ID,
				"remote_id", e.RemoteID,
				"attempts", e.Attempts+1,
				"error", releaseErr,
			)
			if err := s.ledger.MarkAttempt(ctx, e.ID, releaseErr.Error()); err != nil {
				return report, fmt.Errorf("mark pending release %s: %w", e.ID, err)
			}
			continue
		}
		if err := s.ledger.Delete(ctx, e.ID); err != nil {
			return report, fmt.Errorf("delete pending release %s: %w", e.ID, err)
		}
		report.Released++
	}
	s.logger.InfoContext(ctx, "pending image sweep finished",
		"scanned", report.Scanned,
		"released", report.Released,
		"failed", report.Failed,
	)
	return report, nil
}
