// Package prices stores daily closing prices and keeps them in sync with a provider.
package prices

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/database"
	"github.com/stocklab/stocklab/internal/domain"
)

// DateLayout is the storage format of daily_prices.date
const DateLayout = "2006-01-02"

// Repository provides access to the daily_prices table
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "prices").Logger(),
	}
}

// NormalizeTicker upper-cases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Upsert inserts or replaces the given points for a ticker in one transaction.
// Returns the number of rows written.
func (r *Repository) Upsert(ticker string, points []domain.PricePoint, source string) (int, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return 0, domain.NewValidationError("ticker", "must not be empty")
	}
	if len(points) == 0 {
		return 0, nil
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO daily_prices (ticker, date, close, source, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(ticker, date) DO UPDATE SET
				close = excluded.close,
				source = excluded.source,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare price upsert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().Unix()
		for _, p := range points {
			if p.Close <= 0 {
				return domain.NewValidationError("close", "non-positive price %v on %s", p.Close, p.Date.Format(DateLayout))
			}
			if _, err := stmt.Exec(ticker, p.Date.UTC().Format(DateLayout), p.Close, source, now); err != nil {
				return fmt.Errorf("failed to upsert price for %s on %s: %w", ticker, p.Date.Format(DateLayout), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().Str("ticker", ticker).Int("count", len(points)).Msg("Upserted daily prices")
	return len(points), nil
}

// GetSeries returns the stored series for a ticker ordered by date.
// Zero from/to leave that side of the range open.
func (r *Repository) GetSeries(ticker string, from, to time.Time) (domain.PriceSeries, error) {
	ticker = NormalizeTicker(ticker)

	query := "SELECT date, close FROM daily_prices WHERE ticker = ?"
	args := []interface{}{ticker}
	if !from.IsZero() {
		query += " AND date >= ?"
		args = append(args, from.UTC().Format(DateLayout))
	}
	if !to.IsZero() {
		query += " AND date <= ?"
		args = append(args, to.UTC().Format(DateLayout))
	}
	query += " ORDER BY date ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to query prices for %s: %w", ticker, err)
	}
	defer rows.Close()

	series := domain.PriceSeries{Name: ticker}
	for rows.Next() {
		var dateStr string
		var p domain.PricePoint
		if err := rows.Scan(&dateStr, &p.Close); err != nil {
			return domain.PriceSeries{}, fmt.Errorf("failed to scan price: %w", err)
		}
		p.Date, err = time.Parse(DateLayout, dateStr)
		if err != nil {
			return domain.PriceSeries{}, fmt.Errorf("invalid stored date %q for %s: %w", dateStr, ticker, err)
		}
		series.Points = append(series.Points, p)
	}
	if err := rows.Err(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("error iterating prices: %w", err)
	}

	if len(series.Points) == 0 {
		return domain.PriceSeries{}, domain.NewNotFoundError("prices", ticker)
	}
	return series, nil
}

// LatestDate returns the most recent stored date for a ticker
func (r *Repository) LatestDate(ticker string) (time.Time, bool, error) {
	var dateStr sql.NullString
	err := r.db.QueryRow("SELECT MAX(date) FROM daily_prices WHERE ticker = ?", NormalizeTicker(ticker)).Scan(&dateStr)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest date: %w", err)
	}
	if !dateStr.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(DateLayout, dateStr.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid stored date %q: %w", dateStr.String, err)
	}
	return t, true, nil
}

// Tickers lists every ticker with stored prices
func (r *Repository) Tickers() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT ticker FROM daily_prices ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
