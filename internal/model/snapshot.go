package model

import "time"

// PortfolioSummary is the aggregate valuation in the base currency.
type PortfolioSummary struct {
	BaseCurrency string
	Value        float64
	Cost         float64
	Gain         float64
	GainPercent  float64
}

// Snapshot is the published, read-only view of the engine state.
type Snapshot struct {
	Quotes       []Quote // watchlist order
	Selected     *Quote
	Rates        ExchangeRates
	MissingRates []string // currencies valued at 1:1 because no rate resolved
	Portfolio    PortfolioSummary
	LastUpdated  time.Time
	Loading      bool
	Error        string
}
