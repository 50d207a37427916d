// Package display selects which watchlist instrument is currently shown.
package display

import (
	"time"

	"TickerSentinel/internal/market"
	"TickerSentinel/internal/model"
)

// Rotator holds the rotation cursor. It is not safe for concurrent use; the
// refresh coordinator owns it.
type Rotator struct {
	Index   int
	Enabled bool
	Pinned  string

	now func() time.Time
}

// NewRotator creates a rotator using the wall clock.
func NewRotator(enabled bool, pinned string) *Rotator {
	return &Rotator{Enabled: enabled, Pinned: pinned, now: time.Now}
}

// WithClock replaces the clock used for market-hours checks.
func (r *Rotator) WithClock(now func() time.Time) *Rotator {
	r.now = now
	return r
}

func (r *Rotator) isOpen(q *model.Quote) bool {
	return market.QuoteOpen(q, r.now())
}

// Current returns the quote to show, or nil for an empty list.
//
// With rotation off it is the pinned symbol, else the first quote. With
// rotation on it is the quote under the cursor, unless that market is
// closed while another is open, in which case the first open quote is shown
// and the cursor stays put.
func (r *Rotator) Current(quotes []model.Quote) *model.Quote {
	if len(quotes) == 0 {
		return nil
	}
	if !r.Enabled {
		for i := range quotes {
			if quotes[i].Symbol == r.Pinned {
				return &quotes[i]
			}
		}
		return &quotes[0]
	}

	cur := &quotes[r.Index%len(quotes)]
	if !r.isOpen(cur) {
		for i := range quotes {
			if r.isOpen(&quotes[i]) {
				return &quotes[i]
			}
		}
	}
	return cur
}

// Advance moves the cursor. When every market is closed it steps round-robin
// over all quotes; otherwise it jumps to the next open quote after the
// cursor, wrapping, and leaves the cursor alone if none is found.
func (r *Rotator) Advance(quotes []model.Quote) {
	n := len(quotes)
	if n == 0 || !r.Enabled {
		return
	}

	if !market.AnyOpen(quotes, r.now()) {
		r.Index = (r.Index + 1) % n
		return
	}
	for offset := 1; offset <= n; offset++ {
		candidate := (r.Index + offset) % n
		if r.isOpen(&quotes[candidate]) {
			r.Index = candidate
			return
		}
	}
}

// Clamp keeps the cursor inside a list of length n after removals.
func (r *Rotator) Clamp(n int) {
	if n == 0 || r.Index < 0 {
		r.Index = 0
		return
	}
	if r.Index >= n {
		r.Index %= n
	}
}
