// Package yahoo provides a Yahoo Finance client backed by go-yfinance.
package yahoo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/stocklab/stocklab/internal/clientdata"
	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/financials"
)

// Source is recorded with every price row fetched through this client
const Source = "yahoo"

// Client fetches daily history and company profiles from Yahoo Finance
type Client struct {
	cache *clientdata.Repository
	log   zerolog.Logger

	// overridable in tests
	fetchHistory func(symbol, period string) ([]models.Bar, error)
	fetchInfo    func(symbol string) (*financials.Company, error)
}

// NewClient creates a new Yahoo client. cache may be nil.
func NewClient(cache *clientdata.Repository, log zerolog.Logger) *Client {
	c := &Client{
		cache: cache,
		log:   log.With().Str("client", "yahoo").Logger(),
	}
	c.fetchHistory = history
	c.fetchInfo = info
	return c
}

// GetHistoricalPrices fetches daily closes for the given period ("1y", "5y", "max", ...)
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol, period string) (domain.PriceSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.PriceSeries{}, domain.NewValidationError("ticker", "must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return domain.PriceSeries{}, err
	}

	bars, err := c.fetchHistory(symbol, period)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to get historical prices for %s: %w", symbol, err)
	}

	series := domain.PriceSeries{Name: symbol, Points: make([]domain.PricePoint, 0, len(bars))}
	for _, bar := range bars {
		if bar.Close <= 0 {
			continue
		}
		series.Points = append(series.Points, domain.PricePoint{Date: domain.DateKey(bar.Date), Close: bar.Close})
	}
	if len(series.Points) == 0 {
		return domain.PriceSeries{}, domain.NewNotFoundError("ticker", symbol)
	}
	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Date.Before(series.Points[j].Date)
	})

	c.log.Debug().Str("symbol", symbol).Int("points", len(series.Points)).Msg("Fetched historical prices")
	return series, nil
}

// GetCompanyInfo fetches a company profile, served from cache when fresh
func (c *Client) GetCompanyInfo(ctx context.Context, symbol string) (*financials.Company, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.NewValidationError("ticker", "must not be empty")
	}

	if c.cache != nil {
		var cached financials.Company
		if ok, err := c.cache.GetIfFresh(clientdata.TableYahooCompanyInfo, symbol, &cached); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to read company info cache")
		} else if ok {
			return &cached, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	company, err := c.fetchInfo(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get company info for %s: %w", symbol, err)
	}
	company.TickerSymbol = symbol
	if company.CompanyName == "" {
		return nil, domain.NewNotFoundError("ticker", symbol)
	}

	if bars, err := c.fetchHistory(symbol, "1y"); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to get 52-week range")
	} else {
		applyYearRange(company, bars)
	}

	if c.cache != nil {
		if err := c.cache.Store(clientdata.TableYahooCompanyInfo, symbol, company, clientdata.TTLCompanyInfo); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache company info")
		}
	}
	return company, nil
}

// applyYearRange fills the 52-week high, low, last volume and average volume from daily bars
func applyYearRange(company *financials.Company, bars []models.Bar) {
	if len(bars) == 0 {
		return
	}

	high, low := bars[0].High, bars[0].Low
	var totalVolume int64
	for _, bar := range bars {
		if bar.High > high {
			high = bar.High
		}
		if bar.Low > 0 && (low <= 0 || bar.Low < low) {
			low = bar.Low
		}
		totalVolume += int64(bar.Volume)
	}

	if high > 0 {
		company.FiftyTwoWeekHigh = &high
	}
	if low > 0 {
		company.FiftyTwoWeekLow = &low
	}
	avg := totalVolume / int64(len(bars))
	company.AverageVolume = &avg
	last := int64(bars[len(bars)-1].Volume)
	company.Volume = &last
}

func history(symbol, period string) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	return t.History(models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
}

func info(symbol string) (*financials.Company, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	data, err := t.Info()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, domain.NewNotFoundError("ticker", symbol)
	}

	company := &financials.Company{
		CompanyName: data.LongName,
		Industry:    data.Industry,
	}
	if company.CompanyName == "" {
		company.CompanyName = data.ShortName
	}
	if data.MarketCap > 0 {
		marketCap := float64(data.MarketCap)
		company.MarketCap = &marketCap
	}
	if data.TrailingPE > 0 {
		pe := data.TrailingPE
		company.PERatioTTM = &pe
	}
	if data.DividendYield > 0 {
		yield := data.DividendYield
		company.ForwardDividendYield = &yield
	}
	if data.CurrentPrice > 0 {
		price := data.CurrentPrice
		company.CurrentSharePrice = &price
	} else if data.RegularMarketPreviousClose > 0 {
		price := data.RegularMarketPreviousClose
		company.CurrentSharePrice = &price
	}
	return company, nil
}
