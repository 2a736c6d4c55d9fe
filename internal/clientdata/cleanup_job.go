package clientdata

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// CleanupJob deletes expired provider responses from cache.db.
// Stale rows are only a fallback for failed requests, so expired ones can go.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates the cache cleanup job
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "cleanup_client_data").Logger(),
	}
}

// Name returns the job name for scheduling and logging
func (j *CleanupJob) Name() string {
	return "cleanup_client_data"
}

// Run removes expired rows from every cache table
func (j *CleanupJob) Run() error {
	deleted, err := j.repo.DeleteAllExpired()
	if err != nil {
		return fmt.Errorf("failed to delete expired cache rows: %w", err)
	}

	tables := make([]string, 0, len(deleted))
	for table := range deleted {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	event := j.log.Info()
	var total int64
	for _, table := range tables {
		if n := deleted[table]; n > 0 {
			event = event.Int64(table, n)
			total += n
		}
	}
	event.Int64("total_deleted", total).Msg("Expired cache rows removed")

	return nil
}
