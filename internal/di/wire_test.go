package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklab/stocklab/internal/config"
	"github.com/stocklab/stocklab/internal/scheduler"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Sync.Watchlist = []string{"SPY"}
	return cfg
}

func TestInitializeDatabases(t *testing.T) {
	cfg := testConfig(t)

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.Equal(t, "stocklab", container.DB.Name())
	assert.Equal(t, "cache", container.CacheDB.Name())
	assert.FileExists(t, filepath.Join(cfg.DataDir, "stocklab.db"))
	assert.FileExists(t, filepath.Join(cfg.DataDir, "cache.db"))
}

func TestInitializeServices_RequiresDatabases(t *testing.T) {
	err := InitializeServices(context.Background(), &Container{}, testConfig(t), zerolog.Nop())
	assert.Error(t, err)
}

func TestRegisterJobs_RequiresServices(t *testing.T) {
	_, err := RegisterJobs(nil, testConfig(t), zerolog.Nop())
	assert.Error(t, err)
	_, err = RegisterJobs(&Container{}, testConfig(t), zerolog.Nop())
	assert.Error(t, err)
}

func TestWire(t *testing.T) {
	tests := []struct {
		name       string
		configure  func(*config.Config)
		wantBackup bool
		wantJobs   int
	}{
		{name: "defaults", wantJobs: 6},
		{
			name: "polygon and backups",
			configure: func(c *config.Config) {
				c.PolygonAPIKey = "test-key"
				c.Backup.Enabled = true
				c.Backup.Bucket = "backups"
				c.Backup.Endpoint = "http://127.0.0.1:9000"
				c.Backup.AccessKeyID = "id"
				c.Backup.SecretAccessKey = "secret"
			},
			wantBackup: true,
			wantJobs:   7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			if tt.configure != nil {
				tt.configure(cfg)
			}

			container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { container.Close() })

			assert.NotNil(t, container.PriceService)
			assert.NotNil(t, container.FinancialsService)
			assert.NotNil(t, container.AnalysisService)
			assert.NotNil(t, container.BackupService)
			assert.Len(t, jobs.All(), tt.wantJobs)
			assert.Equal(t, tt.wantBackup, jobs.Backup != nil)

			s := scheduler.New(zerolog.Nop())
			require.NoError(t, ScheduleJobs(s, jobs, cfg))
			assert.Equal(t, tt.wantJobs, s.Jobs())
		})
	}
}

func TestScheduleJobs_BadSchedule(t *testing.T) {
	cfg := testConfig(t)
	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	cfg.Sync.Schedule = "every day"
	assert.Error(t, ScheduleJobs(scheduler.New(zerolog.Nop()), jobs, cfg))
}
