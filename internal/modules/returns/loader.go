package returns

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/domain"
)

const (
	dateColumn  = "Date"
	closeColumn = "Close"
)

// dateLayouts are tried in order when parsing the Date column
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// LoadCSV reads a price file with at least Date and Close columns.
// Extra columns are ignored. A missing file yields a NotFoundError; missing
// columns or unparsable rows yield a ValidationError.
func LoadCSV(path, name string) (domain.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.PriceSeries{}, domain.NewNotFoundError("price file", path)
		}
		return domain.PriceSeries{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if name == "" {
		name = NameFromPath(path)
	}
	return ReadCSV(f, name)
}

// ReadCSV parses price rows from r
func ReadCSV(r io.Reader, name string) (domain.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return domain.PriceSeries{}, domain.NewValidationError("", "file is empty")
	}
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	dateIdx, closeIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case dateColumn:
			dateIdx = i
		case closeColumn:
			closeIdx = i
		}
	}
	if dateIdx < 0 {
		return domain.PriceSeries{}, domain.NewValidationError(dateColumn, "column missing")
	}
	if closeIdx < 0 {
		return domain.PriceSeries{}, domain.NewValidationError(closeColumn, "column missing")
	}

	series := domain.PriceSeries{Name: name}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return domain.PriceSeries{}, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		if len(record) <= dateIdx || len(record) <= closeIdx {
			return domain.PriceSeries{}, domain.NewValidationError("", "line %d has %d fields", line, len(record))
		}

		date, err := ParseDate(record[dateIdx])
		if err != nil {
			return domain.PriceSeries{}, domain.NewValidationError(dateColumn, "line %d: %v", line, err)
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(record[closeIdx]), 64)
		if err != nil {
			return domain.PriceSeries{}, domain.NewValidationError(closeColumn, "line %d: %q is not a number", line, record[closeIdx])
		}

		series.Points = append(series.Points, domain.PricePoint{Date: date, Close: closePrice})
	}

	return series, nil
}

// ParseDate accepts the date layouts commonly found in exported price files
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// NameFromPath derives an asset name from a file name: "data/spy.csv" -> "SPY"
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Loader turns price files into return series with fixed options.
// Callers running batches decide how to treat a failed file.
type Loader struct {
	opts Options
	log  zerolog.Logger
}

// NewLoader creates a loader with the given return options
func NewLoader(opts Options, log zerolog.Logger) *Loader {
	return &Loader{
		opts: opts,
		log:  log.With().Str("component", "returns_loader").Logger(),
	}
}

// Load reads and converts a price file, returning any error
func (l *Loader) Load(path, name string) (domain.ReturnSeries, error) {
	prices, err := LoadCSV(path, name)
	if err != nil {
		return domain.ReturnSeries{}, err
	}
	rs, err := Build(prices, l.opts)
	if err != nil {
		return domain.ReturnSeries{}, fmt.Errorf("%s: %w", prices.Name, err)
	}

	l.log.Debug().
		Str("asset", rs.Name).
		Int("points", rs.Len()).
		Int("valid", rs.ValidCount()).
		Msg("Loaded return series")

	return rs, nil
}
