package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerSentinel/internal/model"
)

func ptr(v float64) *float64 { return &v }

func TestCollect_PartialFailure(t *testing.T) {
	mock := NewMockFetcher(
		model.Quote{Symbol: "AAPL", Price: 185, PreviousClose: 183, Currency: "USD"},
		model.Quote{Symbol: "MSFT", Price: 410, PreviousClose: 405, Currency: "USD"},
	)
	c := NewCollector(mock, nil)

	res, err := c.Collect(context.Background(), Request{Symbols: []string{"AAPL", "BOGUS", "MSFT"}})
	require.NoError(t, err)
	require.Len(t, res.Quotes, 2)
	assert.Nil(t, res.Rates, "no holdings, no rate lookup")
	assert.Empty(t, mock.RatePairs)
}

func TestCollect_NoQuotesIsEmptyResult(t *testing.T) {
	mock := NewMockFetcher()
	c := NewCollector(mock, nil)

	res, err := c.Collect(context.Background(), Request{Symbols: []string{"X", "Y"}})
	require.NoError(t, err)
	assert.Empty(t, res.Quotes)
	assert.Equal(t, 0, mock.ExtendedCalls, "enrichment skipped when nothing fetched")
}

func TestCollect_AuthFailure(t *testing.T) {
	mock := NewMockFetcher(model.Quote{Symbol: "AAPL", Price: 1, PreviousClose: 1})
	mock.CrumbErr = errors.New("connection refused")
	c := NewCollector(mock, nil)

	_, err := c.Collect(context.Background(), Request{Symbols: []string{"AAPL"}})
	assert.ErrorIs(t, err, ErrAuth)
	_, quoteCalls := mock.Counts()
	assert.Equal(t, 0, quoteCalls)
}

func TestCollect_AuthFailureKeepsCause(t *testing.T) {
	mock := NewMockFetcher(model.Quote{Symbol: "AAPL", Price: 1, PreviousClose: 1})
	mock.CrumbErr = fmt.Errorf("dial provider: %w", context.Canceled)
	c := NewCollector(mock, nil)

	_, err := c.Collect(context.Background(), Request{Symbols: []string{"AAPL"}})
	assert.ErrorIs(t, err, ErrAuth)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollect_CrumbIsCached(t *testing.T) {
	mock := NewMockFetcher(model.Quote{Symbol: "AAPL", Price: 1, PreviousClose: 1})
	c := NewCollector(mock, nil)
	ctx := context.Background()

	for range 3 {
		_, err := c.Collect(ctx, Request{Symbols: []string{"AAPL"}})
		require.NoError(t, err)
	}
	crumbCalls, _ := mock.Counts()
	assert.Equal(t, 1, crumbCalls)

	c.Auth.Invalidate()
	assert.False(t, c.Auth.Valid())
	_, err := c.Collect(ctx, Request{Symbols: []string{"AAPL"}})
	require.NoError(t, err)
	crumbCalls, _ = mock.Counts()
	assert.Equal(t, 2, crumbCalls)
}

func TestCollect_EnrichmentMerged(t *testing.T) {
	mock := NewMockFetcher(model.Quote{Symbol: "AAPL", Price: 185, PreviousClose: 183})
	mock.Extended = map[string]model.Enrichment{
		"AAPL": {MarketState: model.MarketPre, PreMarketPrice: ptr(186.5)},
	}
	c := NewCollector(mock, nil)

	res, err := c.Collect(context.Background(), Request{Symbols: []string{"AAPL"}})
	require.NoError(t, err)
	require.Len(t, res.Quotes, 1)
	assert.Equal(t, model.MarketPre, res.Quotes[0].MarketState)
	require.NotNil(t, res.Quotes[0].PreMarketPrice)
	assert.Equal(t, 186.5, *res.Quotes[0].PreMarketPrice)
}

func TestCollect_EnrichmentFailureTolerated(t *testing.T) {
	mock := NewMockFetcher(model.Quote{Symbol: "AAPL", Price: 185, PreviousClose: 183})
	mock.ExtendedErr = ErrNetwork
	c := NewCollector(mock, nil)

	res, err := c.Collect(context.Background(), Request{Symbols: []string{"AAPL"}})
	require.NoError(t, err)
	require.Len(t, res.Quotes, 1)
	assert.Equal(t, 185.0, res.Quotes[0].Price)
	assert.Empty(t, res.Quotes[0].MarketState)
}

func TestCollect_RatesForHoldings(t *testing.T) {
	mock := NewMockFetcher(
		model.Quote{Symbol: "AAPL", Price: 185, PreviousClose: 183, Currency: "USD"},
		model.Quote{Symbol: "VOD.L", Price: 72, PreviousClose: 71, Currency: "GBp"},
		model.Quote{Symbol: "SAP.DE", Price: 180, PreviousClose: 178, Currency: "EUR"},
		model.Quote{Symbol: "7203.T", Price: 3000, PreviousClose: 2990, Currency: "JPY"},
	)
	mock.Rates = map[string]float64{"GBP": 1.27, "EUR": 1.08}
	c := NewCollector(mock, nil)

	res, err := c.Collect(context.Background(), Request{
		Symbols: []string{"AAPL", "VOD.L", "SAP.DE", "7203.T"},
		Holdings: map[string]model.Holding{
			"AAPL":   {Shares: 10, CostBasis: 150},
			"VOD.L":  {Shares: 100, CostBasis: 0.8},
			"7203.T": {Shares: 5, CostBasis: 2500},
		},
		BaseCurrency: "USD",
	})
	require.NoError(t, err)

	require.Len(t, mock.RatePairs, 1)
	assert.Equal(t, []string{"GBPUSD=X", "JPYUSD=X"}, mock.RatePairs[0], "only held, non-base currencies")
	assert.Equal(t, model.ExchangeRates{"USD": 1, "GBP": 1.27}, res.Rates)
	assert.Equal(t, []string{"JPY"}, res.MissingRates)
}

func TestCollect_RatesAllBase(t *testing.T) {
	mock := NewMockFetcher(model.Quote{Symbol: "AAPL", Price: 185, PreviousClose: 183, Currency: "USD"})
	c := NewCollector(mock, nil)

	res, err := c.Collect(context.Background(), Request{
		Symbols:      []string{"AAPL"},
		Holdings:     map[string]model.Holding{"AAPL": {Shares: 1, CostBasis: 100}},
		BaseCurrency: "USD",
	})
	require.NoError(t, err)
	assert.Empty(t, mock.RatePairs)
	assert.Equal(t, model.ExchangeRates{"USD": 1}, res.Rates)
}

func TestValidate(t *testing.T) {
	mock := NewMockFetcher(model.Quote{Symbol: "NVDA", Name: "NVIDIA Corporation", Price: 900, PreviousClose: 880})
	c := NewCollector(mock, nil)
	ctx := context.Background()

	q, err := c.Validate(ctx, " nvda ")
	require.NoError(t, err)
	assert.Equal(t, "NVIDIA Corporation", q.Name)

	_, err = c.Validate(ctx, "zzzz")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ZZZZ", verr.Symbol)
	assert.EqualError(t, err, "ZZZZ is not a valid ticker symbol")

	_, err = c.Validate(ctx, "   ")
	assert.ErrorAs(t, err, &verr)
}

func TestValidate_AuthFailure(t *testing.T) {
	mock := NewMockFetcher()
	mock.CrumbErr = ErrAuth
	c := NewCollector(mock, nil)

	_, err := c.Validate(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "unable to validate")
}
