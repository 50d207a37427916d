package collector

import (
	"context"
	"fmt"
	"sync"

	"TickerSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu sync.Mutex

	CrumbValue    string
	CrumbErr      error
	Quotes        map[string]model.Quote
	Extended      map[string]model.Enrichment
	ExtendedErr   error
	Rates         map[string]float64
	RatesErr      error
	SearchResults []model.SearchResult

	// Gate, when set, blocks FetchQuote until it is closed or ctx ends.
	Gate chan struct{}

	CrumbCalls    int
	QuoteCalls    int
	ExtendedCalls int
	RatePairs     [][]string
}

// NewMockFetcher returns a fetcher serving the given quotes.
func NewMockFetcher(quotes ...model.Quote) *MockFetcher {
	m := &MockFetcher{CrumbValue: "mock-crumb", Quotes: map[string]model.Quote{}}
	for _, q := range quotes {
		m.Quotes[q.Symbol] = q
	}
	return m
}

func (m *MockFetcher) Name() string { return "mock" }

// SetQuote replaces or adds the quote served for q.Symbol.
func (m *MockFetcher) SetQuote(q model.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Quotes[q.Symbol] = q
}

// DeleteQuote makes symbol fail like an unknown ticker.
func (m *MockFetcher) DeleteQuote(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Quotes, symbol)
}

// SetCrumbErr makes subsequent auth exchanges fail with err.
func (m *MockFetcher) SetCrumbErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CrumbErr = err
}

// Counts returns the crumb and quote call counters.
func (m *MockFetcher) Counts() (crumb, quote int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CrumbCalls, m.QuoteCalls
}

func (m *MockFetcher) Crumb(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CrumbCalls++
	if m.CrumbErr != nil {
		return "", m.CrumbErr
	}
	return m.CrumbValue, nil
}

func (m *MockFetcher) FetchQuote(ctx context.Context, symbol, crumb string) (*model.Quote, error) {
	m.mu.Lock()
	gate := m.Gate
	m.QuoteCalls++
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if crumb == "" {
		return nil, ErrUnauthorized
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.Quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s: empty result", ErrParse, symbol)
	}
	return &q, nil
}

func (m *MockFetcher) FetchExtended(_ context.Context, symbols []string, _ string) (map[string]model.Enrichment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtendedCalls++
	if m.ExtendedErr != nil {
		return nil, m.ExtendedErr
	}
	out := make(map[string]model.Enrichment)
	for _, s := range symbols {
		if e, ok := m.Extended[s]; ok {
			out[s] = e
		}
	}
	return out, nil
}

func (m *MockFetcher) FetchRates(_ context.Context, pairs []string, _ string) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RatePairs = append(m.RatePairs, append([]string(nil), pairs...))
	if m.RatesErr != nil {
		return nil, m.RatesErr
	}
	out := make(map[string]float64)
	for _, p := range pairs {
		if r, ok := m.Rates[p[:3]]; ok {
			out[p[:3]] = r
		}
	}
	return out, nil
}

func (m *MockFetcher) Search(_ context.Context, _ string) ([]model.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SearchResults, nil
}
