package model

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// DefaultCurrency is assumed when the provider omits a quote currency.
const DefaultCurrency = "USD"

// subUnitMajor maps provider codes quoted in 1/100 of a major unit to the ISO
// major-unit code. Yahoo reports pence as "GBp" and sometimes "GBX".
func subUnitMajor(code string) (string, bool) {
	if code == "GBp" {
		return "GBP", true
	}
	switch strings.ToUpper(code) {
	case "GBX":
		return "GBP", true
	case "ILA":
		return "ILS", true
	}
	return "", false
}

// IsSubUnitCurrency reports whether prices in code are quoted in 1/100 units.
func IsSubUnitCurrency(code string) bool {
	_, ok := subUnitMajor(code)
	return ok
}

// NormalizeCurrency returns the ISO major-unit code for a provider currency.
// An empty code normalizes to DefaultCurrency.
func NormalizeCurrency(code string) string {
	if code == "" {
		return DefaultCurrency
	}
	if major, ok := subUnitMajor(code); ok {
		return major
	}
	return strings.ToUpper(code)
}

// symbolOverrides pins prefixes that differ from the ISO grapheme or are
// ambiguous as a bare "$".
var symbolOverrides = map[string]string{
	"HKD": "HK$",
	"CAD": "C$",
	"AUD": "A$",
	"CHF": "CHF ",
	"CNY": "¥",
	"CNH": "¥",
}

// CurrencySymbol returns the display prefix for a provider currency code.
// Unknown codes fall back to "$".
func CurrencySymbol(code string) string {
	c := NormalizeCurrency(code)
	if s, ok := symbolOverrides[c]; ok {
		return s
	}
	if cur := money.GetCurrency(c); cur != nil && cur.Grapheme != "" {
		return cur.Grapheme
	}
	return "$"
}

// FormatMoney renders amount in the currency's own template and precision,
// e.g. "$1,234.50" or "£12.00".
func FormatMoney(amount float64, code string) string {
	c := NormalizeCurrency(code)
	if money.GetCurrency(c) == nil {
		return fmt.Sprintf("%s%.2f", CurrencySymbol(c), amount)
	}
	return money.NewFromFloat(amount, c).Display()
}
