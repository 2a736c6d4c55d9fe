package prices

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/utils"
)

// DefaultPeriod is the history length requested when none is given
const DefaultPeriod = "5y"

// maxConcurrentSyncs bounds provider calls during a watchlist sync
const maxConcurrentSyncs = 4

// Provider fetches historical closing prices
type Provider interface {
	GetHistoricalPrices(ctx context.Context, ticker, period string) (domain.PriceSeries, error)
}

// SyncResult summarizes a multi-ticker sync
type SyncResult struct {
	Synced map[string]int    `json:"synced"`
	Failed map[string]string `json:"failed,omitempty"`
}

// Service keeps stored prices in sync with a provider
type Service struct {
	repo     *Repository
	provider Provider
	source   string
	log      zerolog.Logger
}

// NewService creates a new price service. provider may be nil for read-only use.
func NewService(repo *Repository, provider Provider, source string, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		source:   source,
		log:      log.With().Str("service", "prices").Logger(),
	}
}

// Series returns stored prices for a ticker
func (s *Service) Series(ticker string, from, to time.Time) (domain.PriceSeries, error) {
	return s.repo.GetSeries(ticker, from, to)
}

// Sync fetches history for one ticker and stores it.
// Returns the number of rows written.
func (s *Service) Sync(ctx context.Context, ticker, period string) (int, error) {
	if s.provider == nil {
		return 0, fmt.Errorf("no price provider configured")
	}
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return 0, domain.NewValidationError("ticker", "must not be empty")
	}
	if period == "" {
		period = DefaultPeriod
	}

	series, err := s.provider.GetHistoricalPrices(ctx, ticker, period)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch prices for %s: %w", ticker, err)
	}

	n, err := s.repo.Upsert(ticker, series.Points, s.source)
	if err != nil {
		return 0, fmt.Errorf("failed to store prices for %s: %w", ticker, err)
	}

	s.log.Info().Str("ticker", ticker).Str("period", period).Int("rows", n).Msg("Synced prices")
	return n, nil
}

// SyncAll syncs every ticker, continuing past individual failures.
// An error is returned only when the context is cancelled.
func (s *Service) SyncAll(ctx context.Context, tickers []string, period string) (*SyncResult, error) {
	defer utils.OperationTimer("price_sync_all", s.log)()

	result := &SyncResult{
		Synced: make(map[string]int),
		Failed: make(map[string]string),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSyncs)

	for _, ticker := range uniqueTickers(tickers) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := s.Sync(gctx, ticker, period)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warn().Err(err).Str("ticker", ticker).Msg("Price sync failed, continuing")
				result.Failed[ticker] = err.Error()
				return nil
			}
			result.Synced[ticker] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// uniqueTickers normalises and sorts a watchlist
func uniqueTickers(tickers []string) []string {
	out := utils.UniqueTickers(tickers)
	sort.Strings(out)
	return out
}
