package calculator

import (
	"github.com/shopspring/decimal"

	"TickerSentinel/internal/model"
)

// Position is one holding valued in the base currency.
type Position struct {
	Symbol      string
	Shares      float64
	Rate        float64
	Value       float64
	Cost        float64
	Gain        float64
	GainPercent float64
}

var hundred = decimal.NewFromInt(100)

// GainPercent returns gain/cost*100, or 0 when cost is not positive.
func GainPercent(gain, cost float64) float64 {
	c := decimal.NewFromFloat(cost)
	if !c.IsPositive() {
		return 0
	}
	return decimal.NewFromFloat(gain).Div(c).Mul(hundred).InexactFloat64()
}

func valueAndCost(q *model.Quote, h model.Holding, rate decimal.Decimal) (value, cost decimal.Decimal) {
	shares := decimal.NewFromFloat(h.Shares)
	value = decimal.NewFromFloat(q.DisplayPrice()).Mul(shares).Mul(rate)
	cost = decimal.NewFromFloat(h.CostBasis).Mul(shares).Mul(rate)
	return value, cost
}

// Positions values every quote that has a holding, in quote order.
func Positions(quotes []model.Quote, holdings map[string]model.Holding, rates model.ExchangeRates, base string) []Position {
	var out []Position
	for i := range quotes {
		q := &quotes[i]
		h, ok := holdings[q.Symbol]
		if !ok {
			continue
		}
		rate := RateToBase(q, rates, base)
		value, cost := valueAndCost(q, h, decimal.NewFromFloat(rate))
		gain := value.Sub(cost)
		out = append(out, Position{
			Symbol:      q.Symbol,
			Shares:      h.Shares,
			Rate:        rate,
			Value:       value.InexactFloat64(),
			Cost:        cost.InexactFloat64(),
			Gain:        gain.InexactFloat64(),
			GainPercent: GainPercent(gain.InexactFloat64(), cost.InexactFloat64()),
		})
	}
	return out
}

func totals(quotes []model.Quote, holdings map[string]model.Holding, rates model.ExchangeRates, base string) (value, cost decimal.Decimal) {
	value, cost = decimal.Zero, decimal.Zero
	for i := range quotes {
		q := &quotes[i]
		h, ok := holdings[q.Symbol]
		if !ok {
			continue
		}
		v, c := valueAndCost(q, h, decimal.NewFromFloat(RateToBase(q, rates, base)))
		value = value.Add(v)
		cost = cost.Add(c)
	}
	return value, cost
}

// TotalValue is Σ displayPrice × shares × rateToBase.
func TotalValue(quotes []model.Quote, holdings map[string]model.Holding, rates model.ExchangeRates, base string) float64 {
	v, _ := totals(quotes, holdings, rates, base)
	return v.InexactFloat64()
}

// TotalCost is Σ costBasis × shares × rateToBase.
func TotalCost(quotes []model.Quote, holdings map[string]model.Holding, rates model.ExchangeRates, base string) float64 {
	_, c := totals(quotes, holdings, rates, base)
	return c.InexactFloat64()
}

// Summarize computes value, cost, gain and gain percent in one pass.
func Summarize(quotes []model.Quote, holdings map[string]model.Holding, rates model.ExchangeRates, base string) model.PortfolioSummary {
	v, c := totals(quotes, holdings, rates, base)
	gain := v.Sub(c)
	return model.PortfolioSummary{
		BaseCurrency: base,
		Value:        v.InexactFloat64(),
		Cost:         c.InexactFloat64(),
		Gain:         gain.InexactFloat64(),
		GainPercent:  GainPercent(gain.InexactFloat64(), c.InexactFloat64()),
	}
}
