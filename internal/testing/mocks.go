package testing

import (
	"context"
	"sync"

	"github.com/stocklab/stocklab/internal/domain"
)

// MockPriceProvider is a mock implementation of a historical price provider
type MockPriceProvider struct {
	series map[string]domain.PriceSeries
	err    error
	calls  []string
	mu     sync.RWMutex
}

// NewMockPriceProvider creates a new mock price provider
func NewMockPriceProvider() *MockPriceProvider {
	return &MockPriceProvider{series: make(map[string]domain.PriceSeries)}
}

// SetSeries sets the series returned for a ticker
func (m *MockPriceProvider) SetSeries(ticker string, s domain.PriceSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[ticker] = s
}

// SetError sets the error to return from every call
func (m *MockPriceProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the tickers requested so far
func (m *MockPriceProvider) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.calls...)
}

// GetHistoricalPrices returns the configured series or a NotFoundError
func (m *MockPriceProvider) GetHistoricalPrices(ctx context.Context, ticker, period string) (domain.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ticker)

	if m.err != nil {
		return domain.PriceSeries{}, m.err
	}
	s, ok := m.series[ticker]
	if !ok {
		return domain.PriceSeries{}, domain.NewNotFoundError("ticker", ticker)
	}
	return s, nil
}
