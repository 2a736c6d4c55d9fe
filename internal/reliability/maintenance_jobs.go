// Package reliability keeps the databases backed up and healthy.
package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/stocklab/stocklab/internal/database"
)

const (
	criticalFreeGB = 0.5
	lowFreeGB      = 5.0
)

// BackupJob uploads a fresh backup and rotates old ones (daily)
type BackupJob struct {
	service       *BackupService
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		timeout:       30 * time.Minute,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "backup"
}

// Run creates and uploads a backup, then rotates expired ones
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.service.CreateAndUploadBackup(ctx); err != nil {
		j.log.Error().Err(err).Msg("Backup failed")
		return err
	}

	// A failed rotation leaves extra archives behind, which is not fatal
	if _, err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// MaintenanceJob performs weekly database maintenance
type MaintenanceJob struct {
	databases []*database.DB
	vacuum    map[string]bool
	dataDir   string
	freeSpace func(path string) (uint64, error)
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job.
// vacuumNames lists the databases that get a VACUUM; the rest are only checkpointed.
func NewMaintenanceJob(dataDir string, vacuumNames []string, log zerolog.Logger, databases ...*database.DB) *MaintenanceJob {
	vacuum := make(map[string]bool, len(vacuumNames))
	for _, name := range vacuumNames {
		vacuum[name] = true
	}
	return &MaintenanceJob{
		databases: databases,
		vacuum:    vacuum,
		dataDir:   dataDir,
		freeSpace: freeBytes,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run checks disk space, then checkpoints and vacuums the databases
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting maintenance")
	startTime := time.Now()

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	for _, db := range j.databases {
		if db == nil {
			continue
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}

		if j.vacuum[db.Name()] {
			if err := j.vacuumDatabase(db); err != nil {
				j.log.Error().Err(err).Str("database", db.Name()).Msg("VACUUM failed")
			}
		}
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Maintenance completed")
	return nil
}

// checkDiskSpace halts maintenance when the data volume is nearly full
func (j *MaintenanceJob) checkDiskSpace() error {
	free, err := j.freeSpace(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(free) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if availableGB < criticalFreeGB {
		j.log.Error().Float64("available_gb", availableGB).Msg("Insufficient disk space, skipping maintenance")
		return fmt.Errorf("only %.2f GB free", availableGB)
	}
	if availableGB < lowFreeGB {
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	}
	return nil
}

func (j *MaintenanceJob) vacuumDatabase(db *database.DB) error {
	before, err := db.GetStats()
	if err != nil {
		return err
	}

	if err := db.Vacuum(); err != nil {
		return err
	}

	after, err := db.GetStats()
	if err != nil {
		return err
	}

	sizeBefore := float64(before.PageCount*before.PageSize) / 1024 / 1024
	sizeAfter := float64(after.PageCount*after.PageSize) / 1024 / 1024
	j.log.Info().
		Str("database", db.Name()).
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Msg("VACUUM completed")
	return nil
}

func freeBytes(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}
