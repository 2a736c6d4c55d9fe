package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/clientdata"
	"github.com/stocklab/stocklab/internal/clients/polygon"
	"github.com/stocklab/stocklab/internal/clients/yahoo"
	"github.com/stocklab/stocklab/internal/config"
	"github.com/stocklab/stocklab/internal/modules/analysis"
	"github.com/stocklab/stocklab/internal/modules/financials"
	"github.com/stocklab/stocklab/internal/modules/prices"
	"github.com/stocklab/stocklab/internal/modules/returns"
	"github.com/stocklab/stocklab/internal/modules/statistics"
	"github.com/stocklab/stocklab/internal/reliability"
)

// InitializeServices creates repositories, provider clients and services
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.DB == nil || container.CacheDB == nil {
		return fmt.Errorf("databases must be initialized first")
	}

	// Repositories
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())
	container.PriceRepo = prices.NewRepository(container.DB.Conn(), log)
	container.FinancialsRepo = financials.NewRepository(container.DB.Conn(), log)
	container.RunRepo = analysis.NewRunRepository(container.DB.Conn())

	// Clients
	container.YahooClient = yahoo.NewClient(container.ClientDataRepo, log)
	var polygonOpts []polygon.Option
	if cfg.PolygonBaseURL != "" {
		polygonOpts = append(polygonOpts, polygon.WithBaseURL(cfg.PolygonBaseURL))
	}
	container.PolygonClient = polygon.NewClient(cfg.PolygonAPIKey, container.ClientDataRepo, log, polygonOpts...)

	// Prices come from Polygon when a key is configured, Yahoo otherwise
	var priceProvider prices.Provider = container.YahooClient
	priceSource := yahoo.Source
	if cfg.PolygonAPIKey != "" {
		priceProvider = container.PolygonClient
		priceSource = polygon.Source
	}
	container.PriceService = prices.NewService(container.PriceRepo, priceProvider, priceSource, log)

	var fundamentals financials.FundamentalsProvider
	if cfg.PolygonAPIKey != "" {
		fundamentals = container.PolygonClient
	}
	container.FinancialsService = financials.NewService(container.FinancialsRepo, container.YahooClient, fundamentals, log)

	container.AnalysisService = NewAnalysisService(cfg, container.PriceService, container.RunRepo, log)

	var store reliability.ObjectStore
	if cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(ctx, reliability.S3Config{
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			Bucket:          cfg.Backup.Bucket,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup client: %w", err)
		}
		store = s3Client
	}
	container.BackupService = reliability.NewBackupService(store, cfg.DataDir, cfg.Backup.Prefix, log, container.Databases()...)

	log.Info().
		Str("price_source", priceSource).
		Bool("fundamentals", fundamentals != nil).
		Bool("backups", store != nil).
		Msg("Services initialized")
	return nil
}

// NewAnalysisService builds an analysis service with the configured statistics parameters.
// source and runs may be nil for CSV-only analyses.
func NewAnalysisService(cfg *config.Config, source analysis.PriceSource, runs *analysis.RunRepository, log zerolog.Logger) *analysis.Service {
	statsCfg := statistics.DefaultConfig()
	statsCfg.RiskFreeRate = cfg.Analysis.RiskFreeRate
	return analysis.NewService(
		statistics.NewCalculator(statsCfg),
		returns.Options{OutlierThreshold: cfg.Analysis.OutlierThreshold},
		source,
		runs,
		log,
	)
}
