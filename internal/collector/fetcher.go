package collector

import (
	"context"

	"TickerSentinel/internal/model"
)

// Fetcher defines the provider calls the engine needs. Every call except
// Search and Crumb must carry the crumb obtained from Crumb.
type Fetcher interface {
	// Crumb performs the cookie + token exchange and returns the token.
	Crumb(ctx context.Context) (string, error)
	FetchQuote(ctx context.Context, symbol, crumb string) (*model.Quote, error)
	// FetchExtended returns extended fields keyed by symbol in one call.
	FetchExtended(ctx context.Context, symbols []string, crumb string) (map[string]model.Enrichment, error)
	// FetchRates resolves "{SRC}{BASE}=X" pair symbols, keyed by source currency.
	FetchRates(ctx context.Context, pairs []string, crumb string) (map[string]float64, error)
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
	Name() string
}
