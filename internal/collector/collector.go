package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"TickerSentinel/internal/calculator"
	"TickerSentinel/internal/common"
	"TickerSentinel/internal/model"
)

// Collector runs the network half of a refresh cycle: auth, per-symbol
// fan-out, batch enrichment and cross-rate resolution.
type Collector struct {
	Fetcher Fetcher
	Auth    *AuthSession
	logger  *common.Logger
}

// NewCollector creates a Collector with its own auth session.
func NewCollector(fetcher Fetcher, logger *common.Logger) *Collector {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Collector{
		Fetcher: fetcher,
		Auth:    NewAuthSession(fetcher, logger),
		logger:  logger,
	}
}

// Request is the input of one cycle, copied out of the coordinator state.
type Request struct {
	Symbols      []string
	Holdings     map[string]model.Holding
	BaseCurrency string
}

// Result is the output of one cycle. Quotes are in completion order; the
// coordinator reorders them by watchlist.
type Result struct {
	Quotes []model.Quote
	// Rates is nil when no held instrument needed conversion.
	Rates        model.ExchangeRates
	MissingRates []string
}

// Collect performs one cycle. Only auth failures are returned as errors;
// per-symbol and enrichment failures degrade the result instead.
func (c *Collector) Collect(ctx context.Context, req Request) (*Result, error) {
	crumb, err := c.Auth.Ensure(ctx)
	if err != nil {
		return nil, err
	}

	quotes := c.FetchQuotes(ctx, req.Symbols, crumb)
	if len(quotes) == 0 {
		return &Result{}, nil
	}
	quotes = c.Enrich(ctx, quotes, crumb)

	res := &Result{Quotes: quotes}
	if len(req.Holdings) > 0 {
		res.Rates, res.MissingRates = c.ResolveRates(ctx, quotes, req.Holdings, req.BaseCurrency, crumb)
	}
	return res, nil
}

// FetchQuotes fetches every symbol concurrently, one goroutine per symbol.
// Each goroutine owns one result slot; failed symbols are dropped.
func (c *Collector) FetchQuotes(ctx context.Context, symbols []string, crumb string) []model.Quote {
	slots := make([]*model.Quote, len(symbols))
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			q, err := c.Fetcher.FetchQuote(ctx, sym, crumb)
			if err != nil {
				c.logger.Debug().Err(err).Str("symbol", sym).Msg("quote fetch failed")
				return
			}
			slots[i] = q
		}(i, sym)
	}
	wg.Wait()

	quotes := make([]model.Quote, 0, len(symbols))
	for _, q := range slots {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	c.logger.Debug().Int("requested", len(symbols)).Int("fetched", len(quotes)).Msg("quotes fetched")
	return quotes
}

// Enrich merges extended fields from one batched call. On failure the
// quotes are returned unchanged.
func (c *Collector) Enrich(ctx context.Context, quotes []model.Quote, crumb string) []model.Quote {
	symbols := make([]string, len(quotes))
	for i := range quotes {
		symbols[i] = quotes[i].Symbol
	}
	extra, err := c.Fetcher.FetchExtended(ctx, symbols, crumb)
	if err != nil {
		c.logger.Warn().Err(err).Msg("enrichment failed, continuing without extended fields")
		return quotes
	}
	out := make([]model.Quote, len(quotes))
	for i, q := range quotes {
		if e, ok := extra[q.Symbol]; ok {
			q = q.WithEnrichment(e)
		}
		out[i] = q
	}
	return out
}

// ResolveRates looks up the rates needed to value holdings in base with a
// single batched request. Unresolved currencies are returned as missing.
func (c *Collector) ResolveRates(ctx context.Context, quotes []model.Quote, holdings map[string]model.Holding, base, crumb string) (model.ExchangeRates, []string) {
	needed := calculator.NeededCurrencies(quotes, holdings, base)
	if len(needed) == 0 {
		return model.ExchangeRates{base: 1.0}, nil
	}
	pairs := make([]string, len(needed))
	for i, cur := range needed {
		pairs[i] = calculator.RateSymbol(cur, base)
	}
	resolved, err := c.Fetcher.FetchRates(ctx, pairs, crumb)
	if err != nil {
		c.logger.Warn().Err(err).Strs("pairs", pairs).Msg("exchange rate fetch failed")
	}
	rates, missing := calculator.BuildRateTable(needed, resolved, base)
	if len(missing) > 0 {
		c.logger.Warn().Strs("currencies", missing).Str("base", base).Msg("exchange rates unavailable, valuing at 1:1")
	}
	return rates, missing
}

// Validate checks that symbol resolves to a quote. A failed lookup returns
// *ValidationError; an auth failure returns an ErrAuth error.
func (c *Collector) Validate(ctx context.Context, symbol string) (*model.Quote, error) {
	symbol = model.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, &ValidationError{Symbol: symbol}
	}
	crumb, err := c.Auth.Ensure(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to validate: %w", err)
	}
	q, err := c.Fetcher.FetchQuote(ctx, symbol, crumb)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Debug().Err(err).Str("symbol", symbol).Msg("symbol validation failed")
		return nil, &ValidationError{Symbol: symbol}
	}
	return q, nil
}

// Search queries the provider's symbol search.
func (c *Collector) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	return c.Fetcher.Search(ctx, query)
}
