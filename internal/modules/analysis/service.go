package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/returns"
	"github.com/stocklab/stocklab/internal/modules/statistics"
	"github.com/stocklab/stocklab/internal/utils"
)

// maxConcurrentAssets bounds how many assets are loaded at once
const maxConcurrentAssets = 4

// PriceSource reads stored closing prices
type PriceSource interface {
	Series(ticker string, from, to time.Time) (domain.PriceSeries, error)
}

// Service runs analyses. prices and runs are optional.
type Service struct {
	calc   *statistics.Calculator
	opts   returns.Options
	loader *returns.Loader
	prices PriceSource
	runs   *RunRepository
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates a new analysis service
func NewService(calc *statistics.Calculator, opts returns.Options, prices PriceSource, runs *RunRepository, log zerolog.Logger) *Service {
	if calc == nil {
		calc = statistics.NewCalculator(statistics.DefaultConfig())
	}
	return &Service{
		calc:   calc,
		opts:   opts,
		loader: returns.NewLoader(opts, log),
		prices: prices,
		runs:   runs,
		log:    log.With().Str("service", "analysis").Logger(),
		now:    time.Now,
	}
}

// Calculator returns the statistics calculator in use
func (s *Service) Calculator() *statistics.Calculator {
	return s.calc
}

// Runs returns the run repository, nil when runs are not recorded
func (s *Service) Runs() *RunRepository {
	return s.runs
}

// Run analyses every requested asset and each pair of assets that loaded.
//
// Assets are loaded concurrently; a failed asset is logged and reported with
// an error message and nil statistics, never aborting the batch. Report order
// follows request order. Only context cancellation fails the run.
func (s *Service) Run(ctx context.Context, req Request) (*domain.Report, error) {
	if len(req.Assets) == 0 {
		return nil, domain.NewValidationError("Assets", "at least one asset is required")
	}
	for i, src := range req.Assets {
		if err := src.validate(i); err != nil {
			return nil, err
		}
	}

	defer utils.OperationTimer("analysis_run", s.log)()

	results := make([]domain.AssetResult, len(req.Assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAssets)

	for i, src := range req.Assets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.analyseAsset(src, req.From, req.To)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: s.now().UTC(),
		Assets:      results,
		Pairs:       []domain.PairStatistics{},
	}
	if req.Market != nil {
		report.Market = *req.Market
		if _, ok := findAsset(results, *req.Market); !ok {
			s.log.Warn().Str("market", *req.Market).Msg("Market asset not among requested assets, betas omitted")
		}
	}

	report.Pairs = s.pairs(results, req.Market, req.Align)

	if s.runs != nil {
		if err := s.runs.Save(report); err != nil {
			s.log.Warn().Err(err).Str("run_id", report.RunID).Msg("Failed to record analysis run")
		}
	}

	s.log.Info().
		Str("run_id", report.RunID).
		Int("assets", len(results)).
		Int("pairs", len(report.Pairs)).
		Msg("Analysis complete")

	return report, nil
}

// ReturnSeries loads a stored ticker and builds its returns
func (s *Service) ReturnSeries(ticker string, from, to time.Time) (domain.ReturnSeries, error) {
	if s.prices == nil {
		return domain.ReturnSeries{}, fmt.Errorf("no price store configured")
	}
	series, err := s.prices.Series(ticker, from, to)
	if err != nil {
		return domain.ReturnSeries{}, err
	}
	rs, err := returns.Build(series, s.opts)
	if err != nil {
		return domain.ReturnSeries{}, fmt.Errorf("%s: %w", series.Name, err)
	}
	return rs, nil
}

func (s *Service) load(src AssetSource, from, to time.Time) (domain.ReturnSeries, error) {
	if src.Ticker != "" {
		rs, err := s.ReturnSeries(src.Ticker, from, to)
		if err != nil {
			return domain.ReturnSeries{}, err
		}
		rs.Name = src.DisplayName()
		return rs, nil
	}
	return s.loader.Load(src.Path, src.Name)
}

func (s *Service) analyseAsset(src AssetSource, from, to time.Time) domain.AssetResult {
	result := domain.AssetResult{Name: src.DisplayName(), Source: src.Describe()}

	rs, err := s.load(src, from, to)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("asset", result.Name).
			Str("source", result.Source).
			Msg("Failed to load asset, continuing with empty result")
		result.Error = err.Error()
		result.Returns = domain.ReturnSeries{Name: result.Name}
		return result
	}

	result.Returns = rs
	if stats, ok := s.calc.ComputeAsset(rs); ok {
		result.Statistics = &stats
	} else {
		s.log.Warn().Str("asset", result.Name).Msg("No valid returns, statistics empty")
	}
	return result
}

// pairs computes statistics for every pair of assets with valid returns, in request order
func (s *Service) pairs(results []domain.AssetResult, market *string, align bool) []domain.PairStatistics {
	pairs := []domain.PairStatistics{}
	for i := 0; i < len(results); i++ {
		if results[i].Statistics == nil {
			continue
		}
		for j := i + 1; j < len(results); j++ {
			if results[j].Statistics == nil {
				continue
			}
			a, b := results[i].Returns, results[j].Returns
			if align {
				a, b = returns.Align(a, b)
			}
			pair, ok := s.calc.ComputePair(a, b, market)
			if !ok {
				s.log.Warn().
					Str("a", a.Name).
					Str("b", b.Name).
					Int("observations", pair.Observations).
					Msg("Not enough overlapping returns for pair statistics")
				continue
			}
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

func findAsset(results []domain.AssetResult, name string) (domain.AssetResult, bool) {
	for _, r := range results {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return domain.AssetResult{}, false
}
