package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/clientdata"
	"github.com/stocklab/stocklab/internal/config"
	"github.com/stocklab/stocklab/internal/reliability"
	"github.com/stocklab/stocklab/internal/scheduler"
)

const (
	// analysisRunRetention is how long stored analysis runs are kept
	analysisRunRetention = 90 * 24 * time.Hour

	scheduleCheckDatabases = "0 0 4 * * 0"  // Sunday 04:00
	scheduleWALCheckpoints = "0 */15 * * * *"
	schedulePruneRuns      = "0 15 3 * * *"
	scheduleCacheCleanup   = "0 45 3 * * *"
	scheduleMaintenance    = "0 30 4 * * 0" // Sunday 04:30
)

// RegisterJobs creates the background jobs
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}
	if container.PriceService == nil {
		return nil, fmt.Errorf("services must be initialized first")
	}

	dbs := container.Databases()
	instances := &JobInstances{
		CheckDatabases: scheduler.NewCheckDatabasesJob(log, dbs...),
		WALCheckpoints: scheduler.NewCheckWALCheckpointsJob(log, dbs...),
		PriceSync:      scheduler.NewPriceSyncJob(container.PriceService, cfg.Sync.Watchlist, cfg.Sync.Period, log),
		PruneRuns:      scheduler.NewPruneRunsJob(container.RunRepo, analysisRunRetention, log),
		CacheCleanup:   clientdata.NewCleanupJob(container.ClientDataRepo, log),
		Maintenance:    reliability.NewMaintenanceJob(cfg.DataDir, []string{container.CacheDB.Name()}, log, dbs...),
	}

	if cfg.Backup.Enabled {
		instances.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
	}

	log.Info().Int("jobs", len(instances.All())).Msg("Jobs registered")
	return instances, nil
}

// ScheduleJobs adds every job to the scheduler on its cron schedule
func ScheduleJobs(s *scheduler.Scheduler, jobs *JobInstances, cfg *config.Config) error {
	entries := []struct {
		schedule string
		job      scheduler.Job
	}{
		{scheduleCheckDatabases, jobs.CheckDatabases},
		{scheduleWALCheckpoints, jobs.WALCheckpoints},
		{cfg.Sync.Schedule, jobs.PriceSync},
		{schedulePruneRuns, jobs.PruneRuns},
		{scheduleCacheCleanup, jobs.CacheCleanup},
		{scheduleMaintenance, jobs.Maintenance},
	}
	if jobs.Backup != nil {
		entries = append(entries, struct {
			schedule string
			job      scheduler.Job
		}{cfg.Backup.Schedule, jobs.Backup})
	}

	for _, e := range entries {
		if err := s.AddJob(e.schedule, e.job); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", e.job.Name(), err)
		}
	}
	return nil
}
