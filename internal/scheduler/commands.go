package scheduler

import (
	"context"
	"fmt"
	"slices"
	"time"

	"TickerSentinel/internal/alert"
	"TickerSentinel/internal/calculator"
	"TickerSentinel/internal/model"
	"TickerSentinel/internal/store"
)

// mutate runs f on the loop and returns its error.
func (s *Scheduler) mutate(ctx context.Context, f func() error) error {
	var ferr error
	if err := s.do(ctx, func() { ferr = f() }); err != nil {
		return err
	}
	return ferr
}

// AddSymbol validates symbol against the provider and appends it to the
// watchlist. The validated quote is shown at once; a refresh fills in the
// enrichment fields.
func (s *Scheduler) AddSymbol(ctx context.Context, symbol string) (*model.Quote, error) {
	symbol = model.NormalizeSymbol(symbol)

	var dup bool
	if err := s.do(ctx, func() { dup = s.settings.Watchlist.Contains(symbol) }); err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("%s: %w", symbol, ErrDuplicateSymbol)
	}

	q, err := s.Collector.Validate(ctx, symbol)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, func() error {
		wl, added := s.settings.Watchlist.Add(q.Symbol)
		if !added {
			return fmt.Errorf("%s: %w", q.Symbol, ErrDuplicateSymbol)
		}
		s.settings.Watchlist = wl
		s.persist()
		s.quotes = orderByWatchlist(append(slices.Clone(s.quotes), *q), wl)
		s.logger.Info().Str("symbol", q.Symbol).Msg("symbol added")
		if !s.startRefresh(false) {
			s.publish()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// RemoveSymbol drops symbol from the watchlist together with its quote,
// alerts and holding.
func (s *Scheduler) RemoveSymbol(ctx context.Context, symbol string) error {
	symbol = model.NormalizeSymbol(symbol)
	return s.mutate(ctx, func() error {
		wl, removed := s.settings.Watchlist.Remove(symbol)
		if !removed {
			return fmt.Errorf("%s: %w", symbol, ErrNotWatched)
		}
		s.settings.Watchlist = wl
		s.settings.PriceAlerts = alert.RemoveSymbol(s.settings.PriceAlerts, symbol)
		delete(s.settings.Holdings, symbol)
		if s.settings.PinnedSymbol == symbol {
			s.settings.PinnedSymbol = ""
			if len(wl) > 0 {
				s.settings.PinnedSymbol = wl[0]
			}
			s.rotator.Pinned = s.settings.PinnedSymbol
		}
		s.quotes = orderByWatchlist(s.quotes, wl)
		s.rotator.Clamp(len(s.quotes))
		s.persist()
		s.publish()
		s.logger.Info().Str("symbol", symbol).Msg("symbol removed")
		return nil
	})
}

// MoveSymbol moves symbol to position to (zero-based).
func (s *Scheduler) MoveSymbol(ctx context.Context, symbol string, to int) error {
	symbol = model.NormalizeSymbol(symbol)
	return s.mutate(ctx, func() error {
		from := s.settings.Watchlist.Index(symbol)
		if from < 0 {
			return fmt.Errorf("%s: %w", symbol, ErrNotWatched)
		}
		wl, moved := s.settings.Watchlist.Move(from, to)
		if !moved {
			return nil
		}
		s.settings.Watchlist = wl
		s.quotes = orderByWatchlist(s.quotes, wl)
		s.persist()
		s.publish()
		return nil
	})
}

// SetPinned selects the symbol shown while rotation is off.
func (s *Scheduler) SetPinned(ctx context.Context, symbol string) error {
	symbol = model.NormalizeSymbol(symbol)
	return s.mutate(ctx, func() error {
		if !s.settings.Watchlist.Contains(symbol) {
			return fmt.Errorf("%s: %w", symbol, ErrNotWatched)
		}
		s.settings.PinnedSymbol = symbol
		s.rotator.Pinned = symbol
		s.persist()
		s.publish()
		return nil
	})
}

// AddAlert creates an unarmed alert on a watched symbol.
func (s *Scheduler) AddAlert(ctx context.Context, symbol string, dir model.Direction, target float64) (model.PriceAlert, error) {
	symbol = model.NormalizeSymbol(symbol)
	if target <= 0 {
		return model.PriceAlert{}, ErrInvalidTarget
	}
	if dir != model.Above && dir != model.Below {
		return model.PriceAlert{}, fmt.Errorf("unknown direction %q", dir)
	}
	var a model.PriceAlert
	err := s.mutate(ctx, func() error {
		if !s.settings.Watchlist.Contains(symbol) {
			return fmt.Errorf("%s: %w", symbol, ErrNotWatched)
		}
		a = model.NewPriceAlert(symbol, target, dir)
		a.CreatedAt = s.Now()
		s.settings.PriceAlerts = append(s.settings.PriceAlerts, a)
		s.persist()
		return nil
	})
	return a, err
}

// RemoveAlert deletes the alert with id.
func (s *Scheduler) RemoveAlert(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error {
		alerts, ok := alert.Remove(s.settings.PriceAlerts, id)
		if !ok {
			return fmt.Errorf("%s: %w", id, ErrAlertNotFound)
		}
		s.settings.PriceAlerts = alerts
		s.persist()
		return nil
	})
}

// Alerts lists pending alerts, all of them when symbol is empty.
func (s *Scheduler) Alerts(ctx context.Context, symbol string) ([]model.PriceAlert, error) {
	symbol = model.NormalizeSymbol(symbol)
	var out []model.PriceAlert
	err := s.do(ctx, func() {
		if symbol == "" {
			out = slices.Clone(s.settings.PriceAlerts)
			return
		}
		out = alert.ForSymbol(s.settings.PriceAlerts, symbol)
	})
	return out, err
}

// AlertHistory returns the most recently fired alerts, for every symbol
// when symbol is empty.
func (s *Scheduler) AlertHistory(ctx context.Context, symbol string) ([]model.FiredAlert, error) {
	h, ok := s.Store.(store.AlertHistorian)
	if !ok {
		return nil, ErrNoHistory
	}
	return h.AlertHistory(ctx, model.NormalizeSymbol(symbol), HistoryLimit)
}

// SetHolding records a position. Zero shares deletes it. When the holding
// needs a rate the current table lacks, a refresh is started.
func (s *Scheduler) SetHolding(ctx context.Context, symbol string, shares, costBasis float64) error {
	symbol = model.NormalizeSymbol(symbol)
	if shares < 0 || costBasis < 0 {
		return ErrInvalidHolding
	}
	return s.mutate(ctx, func() error {
		if !s.settings.Watchlist.Contains(symbol) {
			return fmt.Errorf("%s: %w", symbol, ErrNotWatched)
		}
		if shares == 0 {
			delete(s.settings.Holdings, symbol)
		} else {
			s.settings.Holdings[symbol] = model.Holding{Shares: shares, CostBasis: costBasis}
		}
		s.persist()
		if shares > 0 && s.needsRate(symbol) && s.startRefresh(false) {
			return nil
		}
		s.publish()
		return nil
	})
}

// needsRate reports whether symbol's currency is missing from the rate
// table. Loop only.
func (s *Scheduler) needsRate(symbol string) bool {
	for i := range s.quotes {
		if s.quotes[i].Symbol != symbol {
			continue
		}
		cur := s.quotes[i].NormalizedCurrency()
		if cur == s.settings.BaseCurrency {
			return false
		}
		_, ok := s.rates[cur]
		return !ok
	}
	return false
}

// Holding returns the position in symbol, if any.
func (s *Scheduler) Holding(ctx context.Context, symbol string) (model.Holding, bool, error) {
	symbol = model.NormalizeSymbol(symbol)
	var (
		h  model.Holding
		ok bool
	)
	err := s.do(ctx, func() { h, ok = s.settings.Holdings[symbol] })
	return h, ok, err
}

// Portfolio is the current valuation with its per-holding breakdown and
// the currencies that were valued 1:1.
type Portfolio struct {
	Summary   model.PortfolioSummary
	Positions []calculator.Position
	Missing   []string
}

func (s *Scheduler) Portfolio(ctx context.Context) (*Portfolio, error) {
	var p *Portfolio
	err := s.do(ctx, func() {
		base := s.settings.BaseCurrency
		p = &Portfolio{
			Summary:   calculator.Summarize(s.quotes, s.settings.Holdings, s.rates, base),
			Positions: calculator.Positions(s.quotes, s.settings.Holdings, s.rates, base),
			Missing:   slices.Clone(s.missing),
		}
	})
	return p, err
}

// SetRefreshInterval changes the refresh cadence and restarts its timer.
// A cycle already in flight is not cancelled.
func (s *Scheduler) SetRefreshInterval(ctx context.Context, d time.Duration) error {
	if d < MinRefreshInterval {
		return fmt.Errorf("%w: minimum is %s", ErrIntervalTooShort, MinRefreshInterval)
	}
	return s.mutate(ctx, func() error {
		s.settings.RefreshInterval = d
		s.persist()
		return s.scheduleRefresh()
	})
}

// SetRotation turns rotation on or off. A zero speed keeps the current one.
func (s *Scheduler) SetRotation(ctx context.Context, enabled bool, speed time.Duration) error {
	if speed != 0 && speed < MinRotationSpeed {
		return fmt.Errorf("%w: minimum is %s", ErrIntervalTooShort, MinRotationSpeed)
	}
	return s.mutate(ctx, func() error {
		s.settings.RotationEnabled = enabled
		if speed != 0 {
			s.settings.RotationSpeed = speed
		}
		s.rotator.Enabled = enabled
		s.persist()
		s.publish()
		return s.scheduleRotation()
	})
}

// SetBaseCurrency changes the valuation currency and refreshes rates.
func (s *Scheduler) SetBaseCurrency(ctx context.Context, code string) error {
	code = model.NormalizeSymbol(code)
	if !model.IsSupportedBaseCurrency(code) {
		return fmt.Errorf("%s: %w", code, ErrUnsupportedCurrency)
	}
	return s.mutate(ctx, func() error {
		if s.settings.BaseCurrency == code {
			return nil
		}
		s.settings.BaseCurrency = code
		s.rates = nil
		s.missing = nil
		s.persist()
		if !s.startRefresh(false) {
			s.publish()
		}
		return nil
	})
}

// SetMarketHoursOnly toggles skipping timer refreshes while markets are shut.
func (s *Scheduler) SetMarketHoursOnly(ctx context.Context, on bool) error {
	return s.mutate(ctx, func() error {
		s.settings.MarketHoursOnly = on
		s.persist()
		return nil
	})
}

// SetDisplay changes the ticker text format.
func (s *Scheduler) SetDisplay(ctx context.Context, showPercent, compact bool) error {
	return s.mutate(ctx, func() error {
		s.settings.ShowPercentChange = showPercent
		s.settings.CompactDisplay = compact
		s.persist()
		return nil
	})
}

// DismissUpdate hides the announced release, or version when given.
func (s *Scheduler) DismissUpdate(ctx context.Context, version string) (string, error) {
	var dismissed string
	err := s.mutate(ctx, func() error {
		if version == "" {
			version = s.offered
		}
		if version == "" {
			return nil
		}
		s.settings.DismissedVersion = version
		dismissed = version
		s.persist()
		return nil
	})
	return dismissed, err
}
