package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestQuote_Change(t *testing.T) {
	up := Quote{Symbol: "AAPL", Price: 185.23, PreviousClose: 183.00}
	assert.InDelta(t, 2.23, up.Change(), 0.001)
	assert.InDelta(t, 2.23/183.0*100, up.ChangePercent(), 0.001)
	assert.True(t, up.IsPositive())

	down := Quote{Symbol: "TSLA", Price: 240, PreviousClose: 250}
	assert.InDelta(t, -10, down.Change(), 0.001)
	assert.InDelta(t, -4, down.ChangePercent(), 0.001)
	assert.False(t, down.IsPositive())
}

func TestQuote_FlatIsPositive(t *testing.T) {
	q := Quote{Price: 9, PreviousClose: 9}
	assert.True(t, q.IsPositive())
}

func TestQuote_ZeroPreviousClose(t *testing.T) {
	q := Quote{Price: 10, PreviousClose: 0}
	assert.Equal(t, 0.0, q.ChangePercent())
}

func TestQuote_DisplaySubUnit(t *testing.T) {
	tests := []struct {
		currency string
		want     float64
	}{
		{"GBp", 12.5},
		{"GBX", 12.5},
		{"gbx", 12.5},
		{"ILA", 12.5},
		{"GBP", 1250},
		{"USD", 1250},
		{"", 1250},
	}
	for _, tt := range tests {
		q := Quote{Price: 1250, PreviousClose: 1200, Currency: tt.currency}
		assert.Equal(t, tt.want, q.DisplayPrice(), "currency %q", tt.currency)
	}
}

func TestQuote_DisplayFieldsScaledTogether(t *testing.T) {
	q := Quote{
		Price: 1000, PreviousClose: 900, Currency: "GBp",
		DayHigh: ptr(1100), High52w: ptr(1500), Intraday: []float64{950, 1000},
	}
	assert.Equal(t, 9.0, q.DisplayPreviousClose())
	assert.Equal(t, 1.0, q.DisplayChange())
	assert.Equal(t, 11.0, *q.DisplayDayHigh())
	assert.Equal(t, 15.0, *q.DisplayHigh52w())
	assert.Nil(t, q.DisplayDayLow())
	assert.Equal(t, []float64{9.5, 10}, q.DisplayIntraday())
	// raw values stay untouched
	assert.Equal(t, 1000.0, q.Price)
	assert.Equal(t, []float64{950, 1000}, q.Intraday)
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "GBP", NormalizeCurrency("GBp"))
	assert.Equal(t, "GBP", NormalizeCurrency("GBX"))
	assert.Equal(t, "ILS", NormalizeCurrency("ILA"))
	assert.Equal(t, "EUR", NormalizeCurrency("eur"))
	assert.Equal(t, "USD", NormalizeCurrency(""))
	assert.False(t, IsSubUnitCurrency("GBP"))
}

func TestQuote_WithEnrichment(t *testing.T) {
	q := Quote{Symbol: "AAPL", Price: 10}
	e := q.WithEnrichment(Enrichment{MarketState: MarketPost, PostMarketPrice: ptr(11)})
	assert.Equal(t, MarketPost, e.MarketState)
	assert.Equal(t, 11.0, *e.PostMarketPrice)
	assert.Nil(t, q.PostMarketPrice)
}

func TestCurrencySymbol(t *testing.T) {
	tests := map[string]string{
		"USD": "$",
		"GBp": "£",
		"GBP": "£",
		"EUR": "€",
		"JPY": "¥",
		"HKD": "HK$",
		"CAD": "C$",
		"CHF": "CHF ",
		"":    "$",
		"ZZZ": "$",
	}
	for code, want := range tests {
		assert.Equal(t, want, CurrencySymbol(code), "code %q", code)
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(1234.5, "USD"))
	assert.Equal(t, "$3.10", FormatMoney(3.1, "ZZZ"))
}
