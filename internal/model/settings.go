package model

import (
	"slices"
	"time"
)

// DefaultWatchlist seeds a fresh installation.
var DefaultWatchlist = Watchlist{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"}

// SupportedBaseCurrencies lists the currencies a portfolio can be valued in.
var SupportedBaseCurrencies = []string{"USD", "GBP", "EUR", "JPY", "CAD", "AUD", "CHF"}

const (
	DefaultRefreshInterval = 60 * time.Second
	DefaultRotationSpeed   = 5 * time.Second
)

// Settings are the user-controlled values persisted across restarts.
type Settings struct {
	Watchlist         Watchlist          `json:"watchlist"`
	RefreshInterval   time.Duration      `json:"refreshInterval"`
	RotationEnabled   bool               `json:"rotationEnabled"`
	RotationSpeed     time.Duration      `json:"rotationSpeed"`
	PinnedSymbol      string             `json:"pinnedSymbol"`
	MarketHoursOnly   bool               `json:"marketHoursOnly"`
	ShowPercentChange bool               `json:"showPercentChange"`
	CompactDisplay    bool               `json:"compactDisplay"`
	BaseCurrency      string             `json:"baseCurrency"`
	PriceAlerts       []PriceAlert       `json:"priceAlerts"`
	Holdings          map[string]Holding `json:"holdings"`

	DismissedVersion string `json:"dismissedUpdateVersion,omitempty"`
}

// DefaultSettings returns the settings of a fresh installation.
func DefaultSettings() *Settings {
	return &Settings{
		Watchlist:         slices.Clone(DefaultWatchlist),
		RefreshInterval:   DefaultRefreshInterval,
		RotationEnabled:   true,
		RotationSpeed:     DefaultRotationSpeed,
		PinnedSymbol:      DefaultWatchlist[0],
		MarketHoursOnly:   true,
		ShowPercentChange: true,
		BaseCurrency:      DefaultCurrency,
		Holdings:          map[string]Holding{},
	}
}

// ApplyDefaults fills zero values left by a partial or missing store.
func (s *Settings) ApplyDefaults() {
	d := DefaultSettings()
	if len(s.Watchlist) == 0 {
		s.Watchlist = d.Watchlist
	}
	if s.RefreshInterval <= 0 {
		s.RefreshInterval = d.RefreshInterval
	}
	if s.RotationSpeed <= 0 {
		s.RotationSpeed = d.RotationSpeed
	}
	if s.PinnedSymbol == "" {
		s.PinnedSymbol = d.PinnedSymbol
	}
	if !IsSupportedBaseCurrency(s.BaseCurrency) {
		s.BaseCurrency = d.BaseCurrency
	}
	if s.Holdings == nil {
		s.Holdings = map[string]Holding{}
	}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *Settings) Clone() *Settings {
	c := *s
	c.Watchlist = slices.Clone(s.Watchlist)
	c.PriceAlerts = slices.Clone(s.PriceAlerts)
	c.Holdings = make(map[string]Holding, len(s.Holdings))
	for k, v := range s.Holdings {
		c.Holdings[k] = v
	}
	return &c
}

func IsSupportedBaseCurrency(code string) bool {
	return slices.Contains(SupportedBaseCurrencies, code)
}
