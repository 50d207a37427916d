package collector

import (
	"encoding/json"
	"fmt"
	"strings"

	"TickerSentinel/internal/model"
)

// chartResponse is the subset of the v8 chart payload the engine reads.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string   `json:"symbol"`
				LongName             string   `json:"longName"`
				ShortName            string   `json:"shortName"`
				Currency             string   `json:"currency"`
				ExchangeTimezoneName string   `json:"exchangeTimezoneName"`
				RegularMarketPrice   *float64 `json:"regularMarketPrice"`
				ChartPreviousClose   *float64 `json:"chartPreviousClose"`
				RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
				RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// ParseChart decodes one v8 chart response. Symbol, regularMarketPrice and
// chartPreviousClose are required; everything else is optional.
func ParseChart(data []byte) (*model.Quote, error) {
	var chart chartResponse
	if err := json.Unmarshal(data, &chart); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrParse, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: api error: %s", ErrParse, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty result", ErrParse)
	}

	result := chart.Chart.Result[0]
	meta := result.Meta
	switch {
	case meta.Symbol == "":
		return nil, fmt.Errorf("%w: missing symbol", ErrParse)
	case meta.RegularMarketPrice == nil:
		return nil, fmt.Errorf("%w: %s: missing regularMarketPrice", ErrParse, meta.Symbol)
	case meta.ChartPreviousClose == nil:
		return nil, fmt.Errorf("%w: %s: missing chartPreviousClose", ErrParse, meta.Symbol)
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = meta.Symbol
	}

	var intraday []float64
	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		intraday = make([]float64, 0, len(closes))
		for _, c := range closes {
			if c != nil {
				intraday = append(intraday, *c)
			}
		}
	}

	return &model.Quote{
		Symbol:        strings.ToUpper(meta.Symbol),
		Name:          name,
		Price:         *meta.RegularMarketPrice,
		PreviousClose: *meta.ChartPreviousClose,
		Currency:      meta.Currency,
		Timezone:      meta.ExchangeTimezoneName,
		Intraday:      intraday,
		DayHigh:       meta.RegularMarketDayHigh,
		DayLow:        meta.RegularMarketDayLow,
	}, nil
}

// v7Response is the batched quote payload used for enrichment and rates.
type v7Response struct {
	QuoteResponse struct {
		Result []v7Quote `json:"result"`
	} `json:"quoteResponse"`
}

type v7Quote struct {
	Symbol             string   `json:"symbol"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	PreMarketPrice     *float64 `json:"preMarketPrice"`
	PreMarketChange    *float64 `json:"preMarketChange"`
	PostMarketPrice    *float64 `json:"postMarketPrice"`
	PostMarketChange   *float64 `json:"postMarketChange"`
	MarketState        string   `json:"marketState"`
	FiftyTwoWeekHigh   *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow    *float64 `json:"fiftyTwoWeekLow"`
}

func parseV7(data []byte) ([]v7Quote, error) {
	var resp v7Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode batch: %v", ErrParse, err)
	}
	return resp.QuoteResponse.Result, nil
}

// ParseExtended decodes a batched quote payload into enrichment by symbol.
func ParseExtended(data []byte) (map[string]model.Enrichment, error) {
	quotes, err := parseV7(data)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Enrichment, len(quotes))
	for _, q := range quotes {
		if q.Symbol == "" {
			continue
		}
		out[strings.ToUpper(q.Symbol)] = model.Enrichment{
			PreMarketPrice:   q.PreMarketPrice,
			PreMarketChange:  q.PreMarketChange,
			PostMarketPrice:  q.PostMarketPrice,
			PostMarketChange: q.PostMarketChange,
			MarketState:      model.MarketState(q.MarketState),
			High52w:          q.FiftyTwoWeekHigh,
			Low52w:           q.FiftyTwoWeekLow,
		}
	}
	return out, nil
}

// ParseRates decodes a batched pair quote payload. "GBPUSD=X" yields GBP.
func ParseRates(data []byte) (map[string]float64, error) {
	quotes, err := parseV7(data)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		if len(q.Symbol) < 3 || q.RegularMarketPrice == nil {
			continue
		}
		out[strings.ToUpper(q.Symbol[:3])] = *q.RegularMarketPrice
	}
	return out, nil
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		ExchDisp  string `json:"exchDisp"`
	} `json:"quotes"`
}

// ParseSearch decodes symbol search results; matches without any name are skipped.
func ParseSearch(data []byte) ([]model.SearchResult, error) {
	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode search: %v", ErrParse, err)
	}
	out := make([]model.SearchResult, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		if q.Symbol == "" || name == "" {
			continue
		}
		out = append(out, model.SearchResult{Symbol: q.Symbol, Name: name, Exchange: q.ExchDisp})
	}
	return out, nil
}

// looksLikeHTML rejects crumb bodies that are really error pages.
func looksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype")
}
