package scheduler

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/stocklab/stocklab/internal/testing"
)

func TestCheckWALCheckpointsJob_Name(t *testing.T) {
	job := NewCheckWALCheckpointsJob(zerolog.Nop())
	assert.Equal(t, "check_wal_checkpoints", job.Name())
}

func TestCheckWALCheckpointsJob_Run_NoDatabases(t *testing.T) {
	job := NewCheckWALCheckpointsJob(zerolog.Nop(), nil, nil)

	err := job.Run()
	assert.NoError(t, err) // nil databases are skipped
}

func TestCheckWALCheckpointsJob_Run(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t, "stocklab")
	defer cleanup()

	_, err := db.Conn().Exec(`INSERT INTO daily_prices (ticker, date, close, source) VALUES ('A', '2024-01-02', 10, 'test')`)
	require.NoError(t, err)

	job := NewCheckWALCheckpointsJob(zerolog.Nop(), db)
	assert.NoError(t, job.Run())
}

func TestCheckDatabasesJob_Run(t *testing.T) {
	stocklab, cleanupA := testutil.NewTestDB(t, "stocklab")
	defer cleanupA()
	cache, cleanupB := testutil.NewTestDB(t, "cache")
	defer cleanupB()

	job := NewCheckDatabasesJob(zerolog.Nop(), stocklab, nil, cache)
	assert.Equal(t, "check_databases", job.Name())
	assert.NoError(t, job.Run())
}

func TestCheckDatabasesJob_ClosedDatabaseFails(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t, "stocklab")
	cleanup()

	job := NewCheckDatabasesJob(zerolog.Nop(), db)
	assert.Error(t, job.Run())
}
