package polygon

import (
	"context"

	"github.com/stocklab/stocklab/internal/clientdata"
	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/financials"
)

type moversResponse struct {
	Status  string `json:"status"`
	Tickers []struct {
		Ticker           string  `json:"ticker"`
		TodaysChange     float64 `json:"todaysChange"`
		TodaysChangePerc float64 `json:"todaysChangePerc"`
		Day              struct {
			Close  float64 `json:"c"`
			Volume float64 `json:"v"`
		} `json:"day"`
		LastTrade struct {
			Price float64 `json:"p"`
		} `json:"lastTrade"`
	} `json:"tickers"`
}

// GetTopMovers fetches the current gainers or losers snapshot, ranked as returned
func (c *Client) GetTopMovers(ctx context.Context, direction string) ([]financials.TopMover, error) {
	if direction != financials.DirectionGainers && direction != financials.DirectionLosers {
		return nil, domain.NewValidationError("direction", "must be %q or %q", financials.DirectionGainers, financials.DirectionLosers)
	}

	return cached(c, clientdata.TablePolygonMovers, direction, clientdata.TTLTopMovers,
		func() ([]financials.TopMover, error) {
			var resp moversResponse
			path := "/v2/snapshot/locale/us/markets/stocks/" + direction
			if err := c.getJSON(ctx, path, nil, "movers", direction, &resp); err != nil {
				return nil, err
			}

			fetchedAt := c.now().UTC()
			movers := make([]financials.TopMover, 0, len(resp.Tickers))
			for i, t := range resp.Tickers {
				change := t.TodaysChange
				changePerc := t.TodaysChangePerc
				mover := financials.TopMover{
					TickerSymbol:     normalize(t.Ticker),
					Direction:        direction,
					PositionRank:     i + 1,
					TodaysChange:     &change,
					TodaysChangePerc: &changePerc,
					FetchedAt:        fetchedAt,
				}
				price := t.LastTrade.Price
				if price <= 0 {
					price = t.Day.Close
				}
				if price > 0 {
					mover.CurrentPrice = &price
				}
				if t.Day.Volume > 0 {
					volume := int64(t.Day.Volume)
					mover.Volume = &volume
				}
				movers = append(movers, mover)
			}
			return movers, nil
		})
}
