// Package search debounces symbol lookups so only the latest query wins.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"TickerSentinel/internal/model"
)

// DefaultDelay is the quiet period before a query is sent.
const DefaultDelay = 300 * time.Millisecond

// ErrSuperseded is returned to a query replaced by a newer one before its
// results could be applied.
var ErrSuperseded = errors.New("search superseded")

// SearchFunc performs the actual lookup.
type SearchFunc func(ctx context.Context, query string) ([]model.SearchResult, error)

// Debouncer cancels the pending query whenever a new one arrives.
type Debouncer struct {
	delay  time.Duration
	search SearchFunc

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewDebouncer(delay time.Duration, fn SearchFunc) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, search: fn}
}

// Search waits for the quiet period and runs the query. If another Search
// starts meanwhile this one returns ErrSuperseded and nil results, whether
// it was still waiting or already in flight. An empty query cancels the
// pending one and returns no results.
func (d *Debouncer) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.seq++
	mine := d.seq
	d.mu.Unlock()
	defer cancel()

	if query == "" {
		return nil, nil
	}

	timer := time.NewTimer(d.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		if !d.latest(mine) {
			return nil, ErrSuperseded
		}
		return nil, ctx.Err()
	}

	results, err := d.search(ctx, query)
	if !d.latest(mine) {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Debouncer) latest(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return seq == d.seq
}

// Cancel drops any pending query.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.seq++
}
