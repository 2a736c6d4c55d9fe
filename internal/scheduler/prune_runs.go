package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RunPruner deletes analysis runs older than a cutoff
type RunPruner interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// PruneRunsJob removes stored analysis runs past their retention
type PruneRunsJob struct {
	log       zerolog.Logger
	runs      RunPruner
	retention time.Duration
	now       func() time.Time
}

// NewPruneRunsJob creates a new PruneRunsJob
func NewPruneRunsJob(runs RunPruner, retention time.Duration, log zerolog.Logger) *PruneRunsJob {
	return &PruneRunsJob{
		log:       log.With().Str("job", "prune_analysis_runs").Logger(),
		runs:      runs,
		retention: retention,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *PruneRunsJob) Name() string {
	return "prune_analysis_runs"
}

// Run deletes runs created before now minus the retention period
func (j *PruneRunsJob) Run() error {
	cutoff := j.now().Add(-j.retention)
	deleted, err := j.runs.DeleteOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune analysis runs: %w", err)
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Pruned analysis runs")
	}
	return nil
}
