package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"TickerSentinel/internal/common"
	"TickerSentinel/internal/model"
)

const (
	DefaultAPIURL    = "https://query2.finance.yahoo.com"
	DefaultCookieURL = "https://fc.yahoo.com"
	DefaultRateLimit = 20 // requests per second
	DefaultTimeout   = 30 * time.Second

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// YahooOptions configures a YahooFetcher. Zero values take the defaults.
type YahooOptions struct {
	APIURL    string
	CookieURL string
	Proxy     string
	RateLimit int
	Timeout   time.Duration
}

// YahooFetcher implements Fetcher against the Yahoo Finance endpoints.
// The underlying resty client keeps the session cookie jar.
type YahooFetcher struct {
	Client    *resty.Client
	CookieURL string
	limiter   *rate.Limiter
	logger    *common.Logger
}

// NewYahooFetcher creates a fetcher with its own cookie jar and rate limiter.
func NewYahooFetcher(opts YahooOptions, logger *common.Logger) *YahooFetcher {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.CookieURL == "" {
		opts.CookieURL = DefaultCookieURL
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.APIURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", userAgent)
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}

	return &YahooFetcher{
		Client:    client,
		CookieURL: opts.CookieURL,
		limiter:   rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimit),
		logger:    logger,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// get performs a rate-limited GET. Non-2xx statuses are not errors here.
func (f *YahooFetcher) get(ctx context.Context, path string, params map[string]string) (*resty.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrNetwork, err)
	}
	req := f.Client.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, path, err)
	}
	f.logger.Debug().Str("path", path).Int("status", resp.StatusCode()).Msg("provider request")
	return resp, nil
}

// Crumb hits the cookie host for its Set-Cookie side effect, then requests
// the plain-text crumb with the resulting jar.
func (f *YahooFetcher) Crumb(ctx context.Context) (string, error) {
	if _, err := f.get(ctx, f.CookieURL, nil); err != nil {
		f.logger.Debug().Err(err).Msg("cookie request failed, trying crumb anyway")
	}

	resp, err := f.get(ctx, "/v1/test/getcrumb", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: crumb status %d", ErrAuth, resp.StatusCode())
	}
	crumb := strings.TrimSpace(resp.String())
	if crumb == "" || looksLikeHTML(crumb) {
		return "", fmt.Errorf("%w: malformed crumb", ErrAuth)
	}
	return crumb, nil
}

func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol, crumb string) (*model.Quote, error) {
	path := "/v8/finance/chart/" + url.PathEscape(symbol)
	resp, err := f.get(ctx, path, map[string]string{
		"interval": "5m",
		"range":    "1d",
		"crumb":    crumb,
	})
	if err != nil {
		return nil, err
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s status %d", ErrUnauthorized, symbol, code)
	case code < 200 || code > 299:
		return nil, fmt.Errorf("%w: %s status %d", ErrNetwork, symbol, code)
	}
	return ParseChart(resp.Body())
}

func (f *YahooFetcher) batch(ctx context.Context, symbols []string, crumb string) ([]byte, error) {
	resp, err := f.get(ctx, "/v7/finance/quote", map[string]string{
		"symbols":   strings.Join(symbols, ","),
		"formatted": "false",
		"crumb":     crumb,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: batch quote status %d", ErrNetwork, resp.StatusCode())
	}
	return resp.Body(), nil
}

func (f *YahooFetcher) FetchExtended(ctx context.Context, symbols []string, crumb string) (map[string]model.Enrichment, error) {
	body, err := f.batch(ctx, symbols, crumb)
	if err != nil {
		return nil, err
	}
	return ParseExtended(body)
}

func (f *YahooFetcher) FetchRates(ctx context.Context, pairs []string, crumb string) (map[string]float64, error) {
	body, err := f.batch(ctx, pairs, crumb)
	if err != nil {
		return nil, err
	}
	return ParseRates(body)
}

func (f *YahooFetcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	resp, err := f.get(ctx, "/v1/finance/search", map[string]string{
		"q":           query,
		"quotesCount": "6",
		"newsCount":   "0",
		"listsCount":  "0",
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: search status %d", ErrNetwork, resp.StatusCode())
	}
	return ParseSearch(resp.Body())
}
