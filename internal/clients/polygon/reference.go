package polygon

import (
	"context"
	"net/url"

	"github.com/stocklab/stocklab/internal/clientdata"
	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/financials"
)

type tickerDetailsResponse struct {
	Status  string `json:"status"`
	Results struct {
		Ticker                      string   `json:"ticker"`
		Name                        string   `json:"name"`
		Market                      string   `json:"market"`
		Locale                      string   `json:"locale"`
		PrimaryExchange             string   `json:"primary_exchange"`
		Type                        string   `json:"type"`
		CurrencyName                string   `json:"currency_name"`
		CIK                         string   `json:"cik"`
		MarketCap                   *float64 `json:"market_cap"`
		Description                 string   `json:"description"`
		HomepageURL                 string   `json:"homepage_url"`
		TotalEmployees              *int64   `json:"total_employees"`
		ListDate                    string   `json:"list_date"`
		ShareClassSharesOutstanding *int64   `json:"share_class_shares_outstanding"`
		WeightedSharesOutstanding   *int64   `json:"weighted_shares_outstanding"`
	} `json:"results"`
}

type relatedResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Ticker string `json:"ticker"`
	} `json:"results"`
}

// GetTickerDetails fetches reference data for a ticker (v3/reference/tickers)
func (c *Client) GetTickerDetails(ctx context.Context, ticker string) (*financials.TickerDetails, error) {
	ticker = normalize(ticker)
	if ticker == "" {
		return nil, domain.NewValidationError("ticker", "must not be empty")
	}

	details, err := cached(c, clientdata.TablePolygonTickerDetails, ticker, clientdata.TTLTickerDetails,
		func() (financials.TickerDetails, error) {
			var resp tickerDetailsResponse
			if err := c.getJSON(ctx, "/v3/reference/tickers/"+url.PathEscape(ticker), nil, "ticker", ticker, &resp); err != nil {
				return financials.TickerDetails{}, err
			}
			if resp.Results.Ticker == "" {
				return financials.TickerDetails{}, domain.NewNotFoundError("ticker", ticker)
			}
			r := resp.Results
			return financials.TickerDetails{
				Ticker:                      normalize(r.Ticker),
				Name:                        r.Name,
				Market:                      r.Market,
				Locale:                      r.Locale,
				PrimaryExchange:             r.PrimaryExchange,
				Type:                        r.Type,
				CurrencyName:                r.CurrencyName,
				CIK:                         r.CIK,
				MarketCap:                   r.MarketCap,
				Description:                 r.Description,
				HomepageURL:                 r.HomepageURL,
				TotalEmployees:              r.TotalEmployees,
				ListDate:                    r.ListDate,
				ShareClassSharesOutstanding: r.ShareClassSharesOutstanding,
				WeightedSharesOutstanding:   r.WeightedSharesOutstanding,
			}, nil
		})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// GetRelatedTickers fetches tickers Polygon considers related to ticker
func (c *Client) GetRelatedTickers(ctx context.Context, ticker string) ([]string, error) {
	ticker = normalize(ticker)
	if ticker == "" {
		return nil, domain.NewValidationError("ticker", "must not be empty")
	}

	return cached(c, clientdata.TablePolygonRelated, ticker, clientdata.TTLRelatedTickers,
		func() ([]string, error) {
			var resp relatedResponse
			if err := c.getJSON(ctx, "/v1/related-companies/"+url.PathEscape(ticker), nil, "ticker", ticker, &resp); err != nil {
				return nil, err
			}
			related := make([]string, 0, len(resp.Results))
			for _, r := range resp.Results {
				if t := normalize(r.Ticker); t != "" {
					related = append(related, t)
				}
			}
			return related, nil
		})
}
