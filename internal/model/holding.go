package model

// Holding is a position in one instrument. CostBasis is the average price
// per share in the instrument's major-unit native currency.
type Holding struct {
	Shares    float64 `json:"shares"`
	CostBasis float64 `json:"cost_basis"`
}

// ExchangeRates maps a currency code to the value of one unit in the base
// currency. The base currency maps to 1.
type ExchangeRates map[string]float64
