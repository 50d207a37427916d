package scheduler

import (
	"errors"
	"time"
)

var (
	ErrDuplicateSymbol     = errors.New("symbol already in watchlist")
	ErrNotWatched          = errors.New("symbol not in watchlist")
	ErrAlertNotFound       = errors.New("alert not found")
	ErrInvalidTarget       = errors.New("target price must be positive")
	ErrInvalidHolding      = errors.New("shares and cost basis must not be negative")
	ErrUnsupportedCurrency = errors.New("unsupported base currency")
	ErrIntervalTooShort    = errors.New("interval too short")
	ErrNoHistory           = errors.New("alert history is not kept by this store")
)

// MinRefreshInterval and MinRotationSpeed bound user-set timer cadences.
const (
	MinRefreshInterval = 5 * time.Second
	MinRotationSpeed   = time.Second
)

// HistoryLimit caps the fired alerts returned by AlertHistory.
const HistoryLimit = 10
