package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Company reference data rarely changes
	TTLTickerDetails  = 7 * 24 * time.Hour
	TTLRelatedTickers = 7 * 24 * time.Hour
	TTLCompanyInfo    = 24 * time.Hour

	// Quarterly filings
	TTLFinancials = 45 * 24 * time.Hour

	// Market snapshot, refreshed through the trading day
	TTLTopMovers = 15 * time.Minute
)
