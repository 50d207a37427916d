// Package store persists user settings and the fired-alert history.
package store

import (
	"context"

	"TickerSentinel/internal/model"
)

// Store loads and saves user settings. Load on an empty store returns the
// default settings.
type Store interface {
	Load(ctx context.Context) (*model.Settings, error)
	Save(ctx context.Context, s *model.Settings) error
	// RecordAlert appends a fired alert to the history, if the backend keeps one.
	RecordAlert(ctx context.Context, f model.FiredAlert) error
	Close() error
}

// AlertHistorian is implemented by stores that can read back fired alerts.
type AlertHistorian interface {
	// AlertHistory returns up to limit fired alerts for symbol, newest
	// first. An empty symbol matches every symbol.
	AlertHistory(ctx context.Context, symbol string, limit int) ([]model.FiredAlert, error)
}

// settingsFields maps each persisted key to the field it decodes into.
func settingsFields(s *model.Settings) map[string]any {
	return map[string]any{
		"watchlist":         &s.Watchlist,
		"refreshInterval":   &s.RefreshInterval,
		"rotationEnabled":   &s.RotationEnabled,
		"rotationSpeed":     &s.RotationSpeed,
		"pinnedSymbol":      &s.PinnedSymbol,
		"marketHoursOnly":   &s.MarketHoursOnly,
		"showPercentChange": &s.ShowPercentChange,
		"compactDisplay":    &s.CompactDisplay,
		"baseCurrency":      &s.BaseCurrency,
		"priceAlerts":       &s.PriceAlerts,
		"holdings":          &s.Holdings,

		"dismissedUpdateVersion": &s.DismissedVersion,
	}
}
