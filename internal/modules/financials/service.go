package financials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/domain"
)

// CompanyInfoProvider reports a company profile with current market figures
type CompanyInfoProvider interface {
	GetCompanyInfo(ctx context.Context, ticker string) (*Company, error)
}

// FundamentalsProvider reports reference data, filings and market movers
type FundamentalsProvider interface {
	GetTickerDetails(ctx context.Context, ticker string) (*TickerDetails, error)
	GetRelatedTickers(ctx context.Context, ticker string) ([]string, error)
	ListFinancials(ctx context.Context, ticker, timeframe string, limit int) ([]FilingReport, error)
	GetTopMovers(ctx context.Context, direction string) ([]TopMover, error)
}

// Profile is everything stored about one company
type Profile struct {
	Company *Company       `json:"company"`
	Details *TickerDetails `json:"details,omitempty"`
	Related []string       `json:"related"`
}

// Service pulls fundamentals from providers into the repository
type Service struct {
	repo         *Repository
	companies    CompanyInfoProvider
	fundamentals FundamentalsProvider
	log          zerolog.Logger
}

// NewService creates a new financials service. Either provider may be nil.
func NewService(repo *Repository, companies CompanyInfoProvider, fundamentals FundamentalsProvider, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		companies:    companies,
		fundamentals: fundamentals,
		log:          log.With().Str("service", "financials").Logger(),
	}
}

// Repository exposes the underlying repository
func (s *Service) Repository() *Repository {
	return s.repo
}

// FetchCompany refreshes the stored profile of a ticker.
// The company profile is required; reference data and related tickers are best effort.
func (s *Service) FetchCompany(ctx context.Context, ticker string) (*Profile, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if s.companies == nil {
		return nil, fmt.Errorf("no company info provider configured")
	}

	company, err := s.companies.GetCompanyInfo(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company info for %s: %w", ticker, err)
	}
	if company.TickerSymbol == "" {
		company.TickerSymbol = ticker
	}
	if _, err := s.repo.SaveCompany(*company); err != nil {
		return nil, err
	}

	if s.fundamentals != nil {
		if details, err := s.fundamentals.GetTickerDetails(ctx, ticker); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to fetch ticker details, continuing")
		} else if err := s.repo.SaveTickerDetails(*details); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to store ticker details, continuing")
		}

		if related, err := s.fundamentals.GetRelatedTickers(ctx, ticker); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to fetch related tickers, continuing")
		} else if _, err := s.repo.AddRelatedTickers(ticker, related); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to store related tickers, continuing")
		}
	}

	return s.Profile(ticker)
}

// Profile reads the stored profile of a ticker
func (s *Service) Profile(ticker string) (*Profile, error) {
	company, err := s.repo.GetCompanyByTicker(ticker)
	if err != nil {
		return nil, err
	}

	profile := &Profile{Company: company}
	details, err := s.repo.GetTickerDetails(ticker)
	switch {
	case err == nil:
		profile.Details = details
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if profile.Related, err = s.repo.GetRelatedTickers(ticker); err != nil {
		return nil, err
	}
	return profile, nil
}

// FetchFinancials stores the filings a provider reports for a ticker.
// Returns the number of filings stored.
func (s *Service) FetchFinancials(ctx context.Context, ticker, timeframe string, limit int) (int, error) {
	if s.fundamentals == nil {
		return 0, fmt.Errorf("no fundamentals provider configured")
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	reports, err := s.fundamentals.ListFinancials(ctx, ticker, timeframe, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch financials for %s: %w", ticker, err)
	}

	stored := 0
	for _, report := range reports {
		if report.Filing.Ticker == "" {
			report.Filing.Ticker = ticker
		}
		if _, err := s.repo.SaveFilingReport(report); err != nil {
			s.log.Warn().Err(err).
				Str("ticker", ticker).
				Str("fiscal_year", report.Filing.FiscalYear).
				Str("fiscal_period", report.Filing.FiscalPeriod).
				Msg("Skipping filing that failed to store")
			continue
		}
		stored++
	}

	s.log.Info().Str("ticker", ticker).Int("filings", stored).Msg("Stored financial filings")
	return stored, nil
}

// Summary returns the latest stored filing figures
func (s *Service) Summary(ticker, timeframe string) (*FinancialSummary, error) {
	return s.repo.GetFinancialSummary(ticker, timeframe)
}

// RefreshMovers replaces the stored snapshot of one direction with the provider's current list
func (s *Service) RefreshMovers(ctx context.Context, direction string) ([]TopMover, error) {
	if s.fundamentals == nil {
		return nil, fmt.Errorf("no fundamentals provider configured")
	}

	movers, err := s.fundamentals.GetTopMovers(ctx, direction)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", direction, err)
	}
	if err := s.repo.ReplaceTopMovers(direction, movers); err != nil {
		return nil, err
	}
	return s.repo.GetTopMovers(direction, len(movers))
}

// Movers returns the stored snapshot of one direction
func (s *Service) Movers(direction string, limit int) ([]TopMover, error) {
	if direction != DirectionGainers && direction != DirectionLosers {
		return nil, domain.NewValidationError("direction", "must be %s or %s, got %q", DirectionGainers, DirectionLosers, direction)
	}
	return s.repo.GetTopMovers(direction, limit)
}
