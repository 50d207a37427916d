package calculator

import (
	"sort"

	"TickerSentinel/internal/model"
)

// RateSymbol formats the provider pair symbol for converting src into base.
func RateSymbol(src, base string) string {
	return src + base + "=X"
}

// NeededCurrencies returns the sorted, deduplicated normalized currencies of
// held quotes that differ from base. Nil means no rate lookup is needed.
func NeededCurrencies(quotes []model.Quote, holdings map[string]model.Holding, base string) []string {
	seen := make(map[string]struct{})
	for i := range quotes {
		if _, ok := holdings[quotes[i].Symbol]; !ok {
			continue
		}
		cur := quotes[i].NormalizedCurrency()
		if cur == base {
			continue
		}
		seen[cur] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for cur := range seen {
		out = append(out, cur)
	}
	sort.Strings(out)
	return out
}

// BuildRateTable keeps the resolved rates for needed currencies, pins base to
// 1 and reports the needed currencies that did not resolve.
func BuildRateTable(needed []string, resolved map[string]float64, base string) (model.ExchangeRates, []string) {
	rates := model.ExchangeRates{base: 1.0}
	var missing []string
	for _, cur := range needed {
		r, ok := resolved[cur]
		if !ok || r <= 0 {
			missing = append(missing, cur)
			continue
		}
		rates[cur] = r
	}
	return rates, missing
}

// RateToBase is the multiplier from the quote's currency into base. Unknown
// rates fall back to 1.0, which misstates converted values; callers surface
// the missing currencies separately.
func RateToBase(q *model.Quote, rates model.ExchangeRates, base string) float64 {
	cur := q.NormalizedCurrency()
	if cur == base {
		return 1.0
	}
	if r, ok := rates[cur]; ok && r > 0 {
		return r
	}
	return 1.0
}
