package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T, name string, profile DatabaseProfile) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "nested", name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectoryAndDefaultsProfile(t *testing.T) {
	db := newDB(t, "stocklab", "")

	assert.Equal(t, ProfileStandard, db.Profile())
	assert.Equal(t, "stocklab", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))
	require.NoError(t, db.HealthCheck(context.Background()))
}

func TestBuildConnectionString_Profiles(t *testing.T) {
	tests := []struct {
		profile DatabaseProfile
		want    string
	}{
		{ProfileLedger, "synchronous(FULL)"},
		{ProfileCache, "synchronous(OFF)"},
		{ProfileStandard, "synchronous(NORMAL)"},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			conn := buildConnectionString("/tmp/x.db", tt.profile)
			assert.Contains(t, conn, "journal_mode(WAL)")
			assert.Contains(t, conn, tt.want)
			assert.Contains(t, conn, "foreign_keys(1)")
		})
	}
}

func TestMigrate_AppliesEmbeddedSchemaIdempotently(t *testing.T) {
	db := newDB(t, NameMain, ProfileStandard)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	tables, err := db.Tables(context.Background())
	require.NoError(t, err)
	for _, want := range []string{
		"analysis_runs", "balance_sheets", "cash_flow_statements", "companies",
		"daily_prices", "financial_filings", "income_statements", "related_tickers",
		"ticker_details", "top_movers", "valuation_metrics",
	} {
		assert.Contains(t, tables, want)
	}
}

func TestMigrate_CacheSchema(t *testing.T) {
	db := newDB(t, NameCache, ProfileCache)
	require.NoError(t, db.Migrate())

	tables, err := db.Tables(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tables, "polygon_ticker_details")
	assert.Contains(t, tables, "yahoo_company_info")
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newDB(t, "scratch", ProfileStandard)
	require.NoError(t, db.Migrate())

	tables, err := db.Tables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestWithTransaction(t *testing.T) {
	db := newDB(t, "scratch", ProfileStandard)
	_, err := db.Conn().Exec("CREATE TABLE items (name TEXT)")
	require.NoError(t, err)

	count := func() int {
		var n int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM items").Scan(&n))
		return n
	}

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items VALUES ('a')")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count())

	boom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items VALUES ('b')"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec("INSERT INTO items VALUES ('c')")
		panic("unexpected")
	})
	assert.ErrorContains(t, err, "panic in transaction")
	assert.Equal(t, 1, count())

	assert.Error(t, WithTransaction(nil, func(tx *sql.Tx) error { return nil }))
}

func TestSnapshotTo(t *testing.T) {
	db := newDB(t, NameMain, ProfileStandard)
	require.NoError(t, db.Migrate())
	_, err := db.Conn().Exec("INSERT INTO daily_prices (ticker, date, close) VALUES ('SPY', '2024-01-02', 470.5)")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "snap", "stocklab.db")
	require.NoError(t, db.SnapshotTo(context.Background(), dest))

	snap, err := New(Config{Path: dest, Name: "snapshot"})
	require.NoError(t, err)
	defer snap.Close()

	var closePrice float64
	require.NoError(t, snap.Conn().QueryRow("SELECT close FROM daily_prices WHERE ticker = 'SPY'").Scan(&closePrice))
	assert.Equal(t, 470.5, closePrice)
}

func TestMaintenanceOperations(t *testing.T) {
	db := newDB(t, NameMain, ProfileStandard)
	require.NoError(t, db.Migrate())

	require.NoError(t, db.WALCheckpoint(""))
	require.NoError(t, db.Vacuum())

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}
