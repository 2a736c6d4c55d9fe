package financials

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklab/stocklab/internal/domain"
)

type fakeCompanies struct {
	company *Company
	err     error
}

func (f *fakeCompanies) GetCompanyInfo(ctx context.Context, ticker string) (*Company, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *f.company
	return &c, nil
}

type fakeFundamentals struct {
	details    *TickerDetails
	detailsErr error
	related    []string
	reports    []FilingReport
	movers     []TopMover
}

func (f *fakeFundamentals) GetTickerDetails(ctx context.Context, ticker string) (*TickerDetails, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return f.details, nil
}

func (f *fakeFundamentals) GetRelatedTickers(ctx context.Context, ticker string) ([]string, error) {
	return f.related, nil
}

func (f *fakeFundamentals) ListFinancials(ctx context.Context, ticker, timeframe string, limit int) ([]FilingReport, error) {
	return f.reports, nil
}

func (f *fakeFundamentals) GetTopMovers(ctx context.Context, direction string) ([]TopMover, error) {
	return f.movers, nil
}

func TestService_FetchCompany(t *testing.T) {
	repo := newTestRepo(t)
	company := appleCompany()
	company.TickerSymbol = ""
	fund := &fakeFundamentals{
		details: &TickerDetails{Ticker: "AAPL", Name: "Apple Inc.", Market: "stocks"},
		related: []string{"MSFT", "GOOGL"},
	}
	svc := NewService(repo, &fakeCompanies{company: &company}, fund, zerolog.Nop())

	profile, err := svc.FetchCompany(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", profile.Company.TickerSymbol)
	require.NotNil(t, profile.Details)
	assert.Equal(t, "stocks", profile.Details.Market)
	assert.Equal(t, []string{"MSFT", "GOOGL"}, profile.Related)
}

func TestService_FetchCompanyDetailsFailureIsLenient(t *testing.T) {
	repo := newTestRepo(t)
	company := appleCompany()
	fund := &fakeFundamentals{detailsErr: errors.New("rate limited")}
	svc := NewService(repo, &fakeCompanies{company: &company}, fund, zerolog.Nop())

	profile, err := svc.FetchCompany(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, profile.Details)
	assert.Empty(t, profile.Related)
}

func TestService_FetchCompanyErrors(t *testing.T) {
	repo := newTestRepo(t)

	_, err := NewService(repo, nil, nil, zerolog.Nop()).FetchCompany(context.Background(), "AAPL")
	assert.Error(t, err)

	svc := NewService(repo, &fakeCompanies{err: domain.NewNotFoundError("ticker", "NOPE")}, nil, zerolog.Nop())
	_, err = svc.FetchCompany(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Profile("NOPE")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestService_FetchFinancialsSkipsBadFilings(t *testing.T) {
	repo := newTestRepo(t)
	good := appleFiling()
	good.Ticker = ""
	bad := appleFiling()
	bad.FiscalYear = ""
	fund := &fakeFundamentals{reports: []FilingReport{
		{Filing: good, IncomeStatement: &IncomeStatement{Revenues: f64(100)}},
		{Filing: bad},
	}}
	svc := NewService(repo, nil, fund, zerolog.Nop())

	n, err := svc.FetchFinancials(context.Background(), "aapl", TimeframeAnnual, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	summary, err := svc.Summary("AAPL", TimeframeAnnual)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *summary.Revenues)

	_, err = NewService(repo, nil, nil, zerolog.Nop()).FetchFinancials(context.Background(), "AAPL", "", 1)
	assert.Error(t, err)
}

func TestService_Movers(t *testing.T) {
	repo := newTestRepo(t)
	fund := &fakeFundamentals{movers: []TopMover{
		{TickerSymbol: "NVDA", TodaysChangePerc: f64(8.25)},
		{TickerSymbol: "TSLA", TodaysChangePerc: f64(6.75)},
	}}
	svc := NewService(repo, nil, fund, zerolog.Nop())

	movers, err := svc.RefreshMovers(context.Background(), DirectionGainers)
	require.NoError(t, err)
	require.Len(t, movers, 2)
	assert.Equal(t, "NVDA", movers[0].TickerSymbol)
	assert.Equal(t, DirectionGainers, movers[1].Direction)

	stored, err := svc.Movers(DirectionGainers, 1)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	_, err = svc.Movers("sideways", 1)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
