package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/modules/prices"
)

// PriceSyncer syncs stored prices for a set of tickers
type PriceSyncer interface {
	SyncAll(ctx context.Context, tickers []string, period string) (*prices.SyncResult, error)
}

// PriceSyncJob refreshes stored prices for the configured watchlist
type PriceSyncJob struct {
	log       zerolog.Logger
	syncer    PriceSyncer
	watchlist []string
	period    string
	timeout   time.Duration
}

// NewPriceSyncJob creates a new PriceSyncJob
func NewPriceSyncJob(syncer PriceSyncer, watchlist []string, period string, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		log:       log.With().Str("job", "price_sync").Logger(),
		syncer:    syncer,
		watchlist: watchlist,
		period:    period,
		timeout:   15 * time.Minute,
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Run syncs every watchlist ticker. Individual ticker failures are logged, not returned.
func (j *PriceSyncJob) Run() error {
	if len(j.watchlist) == 0 {
		j.log.Debug().Msg("Watchlist empty, nothing to sync")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	result, err := j.syncer.SyncAll(ctx, j.watchlist, j.period)
	if err != nil {
		return fmt.Errorf("price sync interrupted: %w", err)
	}

	j.log.Info().
		Int("synced", len(result.Synced)).
		Int("failed", len(result.Failed)).
		Dur("duration", time.Since(start)).
		Msg("Price sync completed")

	return nil
}
