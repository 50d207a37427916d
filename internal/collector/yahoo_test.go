package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartAAPL = `{"chart":{"result":[{"meta":{
	"symbol":"AAPL","longName":"Apple Inc.","shortName":"Apple",
	"currency":"USD","exchangeTimezoneName":"America/New_York",
	"regularMarketPrice":185.23,"chartPreviousClose":183.0,
	"regularMarketDayHigh":186.1,"regularMarketDayLow":182.5},
	"indicators":{"quote":[{"close":[183.5,null,184.9,185.23]}]}}],"error":null}}`

func chartFor(symbol string, price, prev float64, currency string) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":%q,"shortName":%q,"currency":%q,
		"regularMarketPrice":%g,"chartPreviousClose":%g},"indicators":{"quote":[{"close":[]}]}}]}}`,
		symbol, symbol+" plc", currency, price, prev)
}

func newProviderServer(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewYahooFetcher(YahooOptions{APIURL: srv.URL, CookieURL: srv.URL + "/cookie"}, nil)
}

func TestParseChart(t *testing.T) {
	q, err := ParseChart([]byte(chartAAPL))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "Apple Inc.", q.Name, "longName wins over shortName")
	assert.Equal(t, 185.23, q.Price)
	assert.Equal(t, 183.0, q.PreviousClose)
	assert.Equal(t, "America/New_York", q.Timezone)
	assert.Equal(t, []float64{183.5, 184.9, 185.23}, q.Intraday, "null closes are skipped")
	require.NotNil(t, q.DayHigh)
	assert.Equal(t, 186.1, *q.DayHigh)
}

func TestParseChart_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty result", `{"chart":{"result":[]}}`},
		{"no price", `{"chart":{"result":[{"meta":{"symbol":"X","chartPreviousClose":1}}]}}`},
		{"no previous close", `{"chart":{"result":[{"meta":{"symbol":"X","regularMarketPrice":1}}]}}`},
		{"no symbol", `{"chart":{"result":[{"meta":{"regularMarketPrice":1,"chartPreviousClose":1}}]}}`},
		{"api error", `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{"not json", `<html>oops</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChart([]byte(tt.body))
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestParseChart_NameFallsBackToSymbol(t *testing.T) {
	q, err := ParseChart([]byte(`{"chart":{"result":[{"meta":{"symbol":"vod.l","currency":"GBp",
		"regularMarketPrice":72.1,"chartPreviousClose":71.0}}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "VOD.L", q.Symbol)
	assert.Equal(t, "vod.l", q.Name)
	assert.Nil(t, q.DayHigh)
	assert.Empty(t, q.Intraday)
}

func TestYahoo_Crumb(t *testing.T) {
	var cookieHits atomic.Int32
	f := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cookie":
			cookieHits.Add(1)
			http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
			w.WriteHeader(http.StatusNotFound)
		case "/v1/test/getcrumb":
			if c, err := r.Cookie("A3"); err != nil || c.Value != "session" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, "  abc123  \n")
		}
	})

	crumb, err := f.Crumb(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", crumb)
	assert.Equal(t, int32(1), cookieHits.Load())
}

func TestYahoo_CrumbRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"html page", http.StatusOK, "<!DOCTYPE html><html>denied</html>"},
		{"empty", http.StatusOK, "   "},
		{"bad status", http.StatusTooManyRequests, "slow down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/v1/test/getcrumb" {
					w.WriteHeader(tt.status)
					fmt.Fprint(w, tt.body)
				}
			})
			_, err := f.Crumb(context.Background())
			assert.ErrorIs(t, err, ErrAuth)
		})
	}
}

func TestYahoo_CrumbCancelled(t *testing.T) {
	f := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "abc123")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Crumb(ctx)
	assert.ErrorIs(t, err, ErrAuth)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestYahoo_FetchQuote(t *testing.T) {
	f := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "5m", r.URL.Query().Get("interval"))
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		assert.Equal(t, "tok", r.URL.Query().Get("crumb"))
		fmt.Fprint(w, chartAAPL)
	})

	q, err := f.FetchQuote(context.Background(), "AAPL", "tok")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", q.Name)
}

func TestYahoo_FetchQuoteStatus(t *testing.T) {
	f := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v8/finance/chart/DENY":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	_, err := f.FetchQuote(context.Background(), "DENY", "tok")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, ErrNetwork)

	_, err = f.FetchQuote(context.Background(), "BOOM", "tok")
	assert.ErrorIs(t, err, ErrNetwork)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestYahoo_FetchExtendedAndRates(t *testing.T) {
	f := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("formatted"))
		symbols := r.URL.Query().Get("symbols")
		if strings.Contains(symbols, "=X") {
			assert.Equal(t, "EURUSD=X,GBPUSD=X", symbols)
			fmt.Fprint(w, `{"quoteResponse":{"result":[
				{"symbol":"GBPUSD=X","regularMarketPrice":1.27},
				{"symbol":"EURUSD=X"}]}}`)
			return
		}
		fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"aapl","marketState":"POST",
			"postMarketPrice":186.0,"postMarketChange":0.77,"fiftyTwoWeekHigh":199.6,"fiftyTwoWeekLow":164.1}]}}`)
	})
	ctx := context.Background()

	ext, err := f.FetchExtended(ctx, []string{"AAPL"}, "tok")
	require.NoError(t, err)
	require.Contains(t, ext, "AAPL")
	assert.Equal(t, "POST", string(ext["AAPL"].MarketState))
	require.NotNil(t, ext["AAPL"].High52w)
	assert.Equal(t, 199.6, *ext["AAPL"].High52w)
	assert.Nil(t, ext["AAPL"].PreMarketPrice)

	rates, err := f.FetchRates(ctx, []string{"EURUSD=X", "GBPUSD=X"}, "tok")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"GBP": 1.27}, rates, "pairs without a price are omitted")
}

func TestYahoo_Search(t *testing.T) {
	f := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"quotes":[
			{"symbol":"AAPL","shortname":"Apple Inc.","exchDisp":"NASDAQ"},
			{"symbol":"APLE","longname":"Apple Hospitality REIT","exchDisp":"NYSE"},
			{"symbol":"NONAME"}]}`)
	})

	results, err := f.Search(context.Background(), " apple ")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "Apple Hospitality REIT", results[1].Name)

	results, err = f.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, results)
}
