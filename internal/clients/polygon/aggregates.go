package polygon

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stocklab/stocklab/internal/domain"
)

const aggregatesDateLayout = "2006-01-02"

type aggregatesResponse struct {
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Results      []struct {
		Close     float64 `json:"c"`
		Timestamp int64   `json:"t"`
	} `json:"results"`
}

// GetDailyAggregates fetches adjusted daily closes between from and to inclusive
func (c *Client) GetDailyAggregates(ctx context.Context, ticker string, from, to time.Time) (domain.PriceSeries, error) {
	ticker = normalize(ticker)
	if ticker == "" {
		return domain.PriceSeries{}, domain.NewValidationError("ticker", "must not be empty")
	}
	if to.Before(from) {
		return domain.PriceSeries{}, domain.NewValidationError("to", "must not be before from")
	}

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		url.PathEscape(ticker), from.Format(aggregatesDateLayout), to.Format(aggregatesDateLayout))
	query := url.Values{}
	query.Set("adjusted", "true")
	query.Set("sort", "asc")
	query.Set("limit", "50000")

	var resp aggregatesResponse
	if err := c.getJSON(ctx, path, query, "ticker", ticker, &resp); err != nil {
		return domain.PriceSeries{}, err
	}

	series := domain.PriceSeries{Name: ticker, Points: make([]domain.PricePoint, 0, len(resp.Results))}
	for _, bar := range resp.Results {
		if bar.Close <= 0 {
			continue
		}
		series.Points = append(series.Points, domain.PricePoint{
			Date:  domain.DateKey(time.UnixMilli(bar.Timestamp).UTC()),
			Close: bar.Close,
		})
	}
	if len(series.Points) == 0 {
		return domain.PriceSeries{}, domain.NewNotFoundError("ticker", ticker)
	}
	return series, nil
}

// GetHistoricalPrices fetches daily closes for a Yahoo-style period ("30d", "6mo", "5y", "ytd", "max")
func (c *Client) GetHistoricalPrices(ctx context.Context, ticker, period string) (domain.PriceSeries, error) {
	to := c.now().UTC()
	from, err := PeriodStart(period, to)
	if err != nil {
		return domain.PriceSeries{}, err
	}
	return c.GetDailyAggregates(ctx, ticker, from, to)
}

// PeriodStart resolves a period string to its start date relative to now
func PeriodStart(period string, now time.Time) (time.Time, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	switch period {
	case "":
		period = "5y"
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	case "max":
		return now.AddDate(-30, 0, 0), nil
	}

	for _, unit := range []string{"mo", "d", "y"} {
		if !strings.HasSuffix(period, unit) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(period, unit))
		if err != nil || n <= 0 {
			break
		}
		switch unit {
		case "d":
			return now.AddDate(0, 0, -n), nil
		case "mo":
			return now.AddDate(0, -n, 0), nil
		default:
			return now.AddDate(-n, 0, 0), nil
		}
	}
	return time.Time{}, domain.NewValidationError("period", "unsupported period %q", period)
}
