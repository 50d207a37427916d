// Package publisher pushes refreshed snapshots to external consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TickerSentinel/internal/common"
	"TickerSentinel/internal/model"
)

const (
	// DefaultTTL bounds how long a published quote stays readable after the
	// last refresh that produced it.
	DefaultTTL = 10 * time.Minute

	keyPrefix       = "ticker"
	snapshotChannel = "ticker:snapshots"
)

// QuoteView is the published form of a quote, in display units.
type QuoteView struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Currency      string    `json:"currency"`
	MarketState   string    `json:"market_state,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SnapshotView is the published form of a snapshot.
type SnapshotView struct {
	Quotes       []QuoteView            `json:"quotes"`
	Selected     string                 `json:"selected,omitempty"`
	Portfolio    model.PortfolioSummary `json:"portfolio"`
	MissingRates []string               `json:"missing_rates,omitempty"`
	Error        string                 `json:"error,omitempty"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func NewQuoteView(q *model.Quote, at time.Time) QuoteView {
	return QuoteView{
		Symbol:        q.Symbol,
		Name:          q.Name,
		Price:         q.DisplayPrice(),
		PreviousClose: q.DisplayPreviousClose(),
		Change:        q.DisplayChange(),
		ChangePercent: q.ChangePercent(),
		Currency:      q.NormalizedCurrency(),
		MarketState:   string(q.MarketState),
		UpdatedAt:     at,
	}
}

func NewSnapshotView(snap *model.Snapshot) SnapshotView {
	v := SnapshotView{
		Quotes:       make([]QuoteView, len(snap.Quotes)),
		Portfolio:    snap.Portfolio,
		MissingRates: snap.MissingRates,
		Error:        snap.Error,
		UpdatedAt:    snap.LastUpdated,
	}
	for i := range snap.Quotes {
		v.Quotes[i] = NewQuoteView(&snap.Quotes[i], snap.LastUpdated)
	}
	if snap.Selected != nil {
		v.Selected = snap.Selected.Symbol
	}
	return v
}

// RedisPublisher stores the latest quote per symbol and the latest snapshot
// with a TTL, and announces each snapshot on a pub/sub channel.
type RedisPublisher struct {
	client *redis.Client
	ttl    time.Duration
	logger *common.Logger
}

func NewRedisPublisher(client *redis.Client, ttl time.Duration, logger *common.Logger) *RedisPublisher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &RedisPublisher{client: client, ttl: ttl, logger: logger}
}

// Ping checks the connection to the Redis server.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// QuoteKey is the key holding the latest quote for symbol.
func QuoteKey(symbol string) string {
	return fmt.Sprintf("%s:quote:%s", keyPrefix, symbol)
}

// SnapshotKey is the key holding the latest snapshot.
func SnapshotKey() string {
	return keyPrefix + ":snapshot"
}

// Publish writes every quote and the snapshot in one pipeline.
func (p *RedisPublisher) Publish(ctx context.Context, snap *model.Snapshot) error {
	view := NewSnapshotView(snap)
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	pipe := p.client.Pipeline()
	for _, q := range view.Quotes {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encode %s: %w", q.Symbol, err)
		}
		pipe.Set(ctx, QuoteKey(q.Symbol), data, p.ttl)
	}
	pipe.Set(ctx, SnapshotKey(), payload, p.ttl)
	pipe.Publish(ctx, snapshotChannel, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Error().Err(err).Msg("failed to publish snapshot to redis")
		return err
	}
	return nil
}

// LatestQuote reads back the last published quote for symbol.
func (p *RedisPublisher) LatestQuote(ctx context.Context, symbol string) (*QuoteView, error) {
	data, err := p.client.Get(ctx, QuoteKey(symbol)).Bytes()
	if err != nil {
		return nil, err
	}
	var q QuoteView
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("decode %s: %w", symbol, err)
	}
	return &q, nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
