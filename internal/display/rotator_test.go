package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerSentinel/internal/model"
)

// Wednesday 2026-02-18 12:00 New York: US open, Tokyo closed.
var usMidday = time.Date(2026, time.February, 18, 17, 0, 0, 0, time.UTC)

// Saturday: everything closed.
var weekend = time.Date(2026, time.February, 21, 17, 0, 0, 0, time.UTC)

func clock(t time.Time) func() time.Time { return func() time.Time { return t } }

func usQuotes(n int) []model.Quote {
	syms := []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"}
	out := make([]model.Quote, n)
	for i := range out {
		out[i] = model.Quote{Symbol: syms[i], Timezone: "America/New_York"}
	}
	return out
}

func TestAdvance_WrapsWhenAllOpen(t *testing.T) {
	r := NewRotator(true, "").WithClock(clock(usMidday))
	r.Index = 4
	r.Advance(usQuotes(5))
	assert.Equal(t, 0, r.Index)
}

func TestAdvance_RoundRobinWhenAllClosed(t *testing.T) {
	r := NewRotator(true, "").WithClock(clock(weekend))
	quotes := usQuotes(3)
	var seen []int
	for range 4 {
		r.Advance(quotes)
		seen = append(seen, r.Index)
	}
	assert.Equal(t, []int{1, 2, 0, 1}, seen)
}

func TestAdvance_SkipsClosedMarkets(t *testing.T) {
	quotes := []model.Quote{
		{Symbol: "AAPL", Timezone: "America/New_York"},
		{Symbol: "7203.T", Timezone: "Asia/Tokyo"},
		{Symbol: "SONY", Timezone: "Asia/Tokyo"},
		{Symbol: "MSFT", Timezone: "America/New_York"},
	}
	r := NewRotator(true, "").WithClock(clock(usMidday))

	r.Advance(quotes)
	assert.Equal(t, 3, r.Index)
	r.Advance(quotes)
	assert.Equal(t, 0, r.Index)
}

func TestAdvance_SingleOpenStaysPut(t *testing.T) {
	quotes := []model.Quote{
		{Symbol: "AAPL", Timezone: "America/New_York"},
		{Symbol: "7203.T", Timezone: "Asia/Tokyo"},
	}
	r := NewRotator(true, "").WithClock(clock(usMidday))
	r.Advance(quotes)
	assert.Equal(t, 0, r.Index, "wraps back onto the only open quote")
}

func TestAdvance_DisabledOrEmpty(t *testing.T) {
	r := NewRotator(false, "").WithClock(clock(usMidday))
	r.Advance(usQuotes(3))
	assert.Equal(t, 0, r.Index)

	r.Enabled = true
	r.Advance(nil)
	assert.Equal(t, 0, r.Index)
}

func TestCurrent_Pinned(t *testing.T) {
	quotes := usQuotes(3)
	r := NewRotator(false, "MSFT").WithClock(clock(usMidday))

	got := r.Current(quotes)
	require.NotNil(t, got)
	assert.Equal(t, "MSFT", got.Symbol)

	r.Pinned = "NFLX"
	assert.Equal(t, "AAPL", r.Current(quotes).Symbol, "unknown pin falls back to first")

	assert.Nil(t, r.Current(nil))
}

func TestCurrent_OpenOverride(t *testing.T) {
	quotes := []model.Quote{
		{Symbol: "7203.T", Timezone: "Asia/Tokyo"},
		{Symbol: "AAPL", Timezone: "America/New_York"},
		{Symbol: "MSFT", Timezone: "America/New_York"},
	}
	r := NewRotator(true, "").WithClock(clock(usMidday))

	assert.Equal(t, "AAPL", r.Current(quotes).Symbol)
	assert.Equal(t, 0, r.Index, "override does not move the cursor")

	r.Index = 2
	assert.Equal(t, "MSFT", r.Current(quotes).Symbol)

	r.WithClock(clock(weekend))
	r.Index = 0
	assert.Equal(t, "7203.T", r.Current(quotes).Symbol, "all closed shows the cursor")
}

func TestClamp(t *testing.T) {
	r := NewRotator(true, "")
	r.Index = 4
	r.Clamp(3)
	assert.Equal(t, 1, r.Index)
	r.Clamp(0)
	assert.Equal(t, 0, r.Index)
}
