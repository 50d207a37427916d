package model

// MarketState is the provider's session tag for an instrument.
type MarketState string

const (
	MarketPre     MarketState = "PRE"
	MarketRegular MarketState = "REGULAR"
	MarketPost    MarketState = "POST"
	MarketClosed  MarketState = "CLOSED"
)

// Quote is an immutable per-symbol snapshot. Prices are stored exactly as the
// provider reports them; sub-unit scaling happens in the Display* methods.
// Optional fields are nil when the provider did not supply them.
type Quote struct {
	Symbol        string
	Name          string
	Price         float64
	PreviousClose float64
	Currency      string
	Timezone      string    // exchange timezone, e.g. "America/New_York"
	Intraday      []float64 // chronological 5m closes for the sparkline

	DayHigh *float64
	DayLow  *float64

	PreMarketPrice   *float64
	PreMarketChange  *float64
	PostMarketPrice  *float64
	PostMarketChange *float64
	MarketState      MarketState
	High52w          *float64
	Low52w           *float64
}

// Change is price minus previous close.
func (q *Quote) Change() float64 {
	return q.Price - q.PreviousClose
}

// ChangePercent is the change relative to the previous close, 0 when the
// previous close is 0.
func (q *Quote) ChangePercent() float64 {
	if q.PreviousClose == 0 {
		return 0
	}
	return q.Change() / q.PreviousClose * 100
}

// IsPositive treats an unchanged price as positive.
func (q *Quote) IsPositive() bool {
	return q.Change() >= 0
}

func (q *Quote) IsSubUnit() bool {
	return IsSubUnitCurrency(q.Currency)
}

// Divisor converts stored prices to major units.
func (q *Quote) Divisor() float64 {
	if q.IsSubUnit() {
		return 100
	}
	return 1
}

// CurrencySymbol is the display prefix for the quote currency.
func (q *Quote) CurrencySymbol() string {
	return CurrencySymbol(q.Currency)
}

// NormalizedCurrency is the ISO major-unit currency of the quote.
func (q *Quote) NormalizedCurrency() string {
	return NormalizeCurrency(q.Currency)
}

func (q *Quote) DisplayPrice() float64         { return q.Price / q.Divisor() }
func (q *Quote) DisplayPreviousClose() float64 { return q.PreviousClose / q.Divisor() }
func (q *Quote) DisplayChange() float64        { return q.Change() / q.Divisor() }

func (q *Quote) DisplayDayHigh() *float64          { return q.scaled(q.DayHigh) }
func (q *Quote) DisplayDayLow() *float64           { return q.scaled(q.DayLow) }
func (q *Quote) DisplayPreMarketPrice() *float64   { return q.scaled(q.PreMarketPrice) }
func (q *Quote) DisplayPreMarketChange() *float64  { return q.scaled(q.PreMarketChange) }
func (q *Quote) DisplayPostMarketPrice() *float64  { return q.scaled(q.PostMarketPrice) }
func (q *Quote) DisplayPostMarketChange() *float64 { return q.scaled(q.PostMarketChange) }
func (q *Quote) DisplayHigh52w() *float64          { return q.scaled(q.High52w) }
func (q *Quote) DisplayLow52w() *float64           { return q.scaled(q.Low52w) }

// DisplayIntraday returns a scaled copy of the intraday series.
func (q *Quote) DisplayIntraday() []float64 {
	if len(q.Intraday) == 0 {
		return nil
	}
	d := q.Divisor()
	out := make([]float64, len(q.Intraday))
	for i, p := range q.Intraday {
		out[i] = p / d
	}
	return out
}

func (q *Quote) scaled(v *float64) *float64 {
	if v == nil {
		return nil
	}
	s := *v / q.Divisor()
	return &s
}

// Enrichment holds the extended fields returned by the batched quote call.
type Enrichment struct {
	PreMarketPrice   *float64
	PreMarketChange  *float64
	PostMarketPrice  *float64
	PostMarketChange *float64
	MarketState      MarketState
	High52w          *float64
	Low52w           *float64
}

// WithEnrichment returns a copy of q carrying the extended fields of e.
func (q Quote) WithEnrichment(e Enrichment) Quote {
	q.PreMarketPrice = e.PreMarketPrice
	q.PreMarketChange = e.PreMarketChange
	q.PostMarketPrice = e.PostMarketPrice
	q.PostMarketChange = e.PostMarketChange
	q.MarketState = e.MarketState
	q.High52w = e.High52w
	q.Low52w = e.Low52w
	return q
}

// SearchResult is one symbol-search match.
type SearchResult struct {
	Symbol   string
	Name     string
	Exchange string
}
