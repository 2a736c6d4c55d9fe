package analysis

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/stocklab/stocklab/internal/domain"
)

// RunRepository stores analysis reports in the analysis_runs table
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save records a report under its run id
func (r *RunRepository) Save(report *domain.Report) error {
	blob, err := encodeReport(report)
	if err != nil {
		return err
	}

	names := make([]string, len(report.Assets))
	for i, a := range report.Assets {
		names[i] = a.Name
	}

	_, err = r.db.Exec(`
		INSERT INTO analysis_runs (id, created_at, market, assets, report)
		VALUES (?, ?, ?, ?, ?)
	`, report.RunID, report.GeneratedAt.Unix(), nullIfEmpty(report.Market), strings.Join(names, ","), blob)
	if err != nil {
		return fmt.Errorf("failed to save analysis run %s: %w", report.RunID, err)
	}
	return nil
}

// Get loads a stored report
func (r *RunRepository) Get(id string) (*domain.Report, error) {
	var blob []byte
	err := r.db.QueryRow("SELECT report FROM analysis_runs WHERE id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("analysis run", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis run %s: %w", id, err)
	}
	return decodeReport(blob)
}

// List returns the most recent runs, newest first
func (r *RunRepository) List(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, created_at, COALESCE(market, ''), assets
		FROM analysis_runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			run       RunSummary
			createdAt int64
			assets    string
		)
		if err := rows.Scan(&run.ID, &createdAt, &run.Market, &assets); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		run.CreatedAt = time.Unix(createdAt, 0).UTC()
		run.Assets = strings.Split(assets, ",")
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteOlderThan removes runs created before cutoff
func (r *RunRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM analysis_runs WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old analysis runs: %w", err)
	}
	return result.RowsAffected()
}

// Reports are encoded with the json tags so excluded fields stay out of storage
func encodeReport(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeReport(blob []byte) (*domain.Report, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(blob))
	dec.SetCustomStructTag("json")
	var report domain.Report
	if err := dec.Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
