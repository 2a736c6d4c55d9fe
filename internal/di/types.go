// Package di provides dependency injection wiring and initialization.
package di

import (
	"errors"

	"github.com/stocklab/stocklab/internal/clientdata"
	"github.com/stocklab/stocklab/internal/clients/polygon"
	"github.com/stocklab/stocklab/internal/clients/yahoo"
	"github.com/stocklab/stocklab/internal/database"
	"github.com/stocklab/stocklab/internal/modules/analysis"
	"github.com/stocklab/stocklab/internal/modules/financials"
	"github.com/stocklab/stocklab/internal/modules/prices"
	"github.com/stocklab/stocklab/internal/reliability"
	"github.com/stocklab/stocklab/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	DB      *database.DB // stocklab.db - companies, filings, prices, valuations, analysis runs
	CacheDB *database.DB // cache.db - provider response cache

	// Repositories
	ClientDataRepo *clientdata.Repository
	PriceRepo      *prices.Repository
	FinancialsRepo *financials.Repository
	RunRepo        *analysis.RunRepository

	// Clients
	YahooClient   *yahoo.Client
	PolygonClient *polygon.Client

	// Services
	PriceService      *prices.Service
	FinancialsService *financials.Service
	AnalysisService   *analysis.Service
	BackupService     *reliability.BackupService
}

// Databases returns the open databases
func (c *Container) Databases() []*database.DB {
	return []*database.DB{c.DB, c.CacheDB}
}

// Close closes every open database
func (c *Container) Close() error {
	var errs []error
	for _, db := range c.Databases() {
		if db != nil {
			if err := db.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// JobInstances holds the scheduled job instances
type JobInstances struct {
	CheckDatabases *scheduler.CheckDatabasesJob
	WALCheckpoints *scheduler.CheckWALCheckpointsJob
	PriceSync      *scheduler.PriceSyncJob
	PruneRuns      *scheduler.PruneRunsJob
	CacheCleanup   *clientdata.CleanupJob
	Maintenance    *reliability.MaintenanceJob
	Backup         *reliability.BackupJob // nil when backups are disabled
}

// All returns every non-nil job, for manual triggering
func (j *JobInstances) All() []scheduler.Job {
	jobs := []scheduler.Job{j.CheckDatabases, j.WALCheckpoints, j.PriceSync, j.PruneRuns, j.CacheCleanup, j.Maintenance}
	if j.Backup != nil {
		jobs = append(jobs, j.Backup)
	}
	return jobs
}
