package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"TickerSentinel/internal/common"
)

// tokenSource performs the cookie + crumb exchange.
type tokenSource interface {
	Crumb(ctx context.Context) (string, error)
}

// AuthSession caches the provider crumb until Invalidate is called. The
// cookie jar behind it lives in the fetcher's HTTP client.
type AuthSession struct {
	mu     sync.Mutex
	source tokenSource
	crumb  string
	logger *common.Logger
}

func NewAuthSession(source tokenSource, logger *common.Logger) *AuthSession {
	return &AuthSession{source: source, logger: logger}
}

// Ensure returns the cached crumb, acquiring one first if needed. Errors
// wrap ErrAuth.
func (a *AuthSession) Ensure(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.crumb != "" {
		return a.crumb, nil
	}
	crumb, err := a.source.Crumb(ctx)
	if err != nil {
		if !errors.Is(err, ErrAuth) {
			err = fmt.Errorf("%w: %w", ErrAuth, err)
		}
		return "", err
	}
	a.crumb = crumb
	a.logger.Info().Msg("provider session established")
	return crumb, nil
}

// Invalidate drops the cached crumb so the next Ensure redoes the exchange.
func (a *AuthSession) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.crumb != "" {
		a.logger.Info().Msg("provider session invalidated")
	}
	a.crumb = ""
}

// Valid reports whether a crumb is cached.
func (a *AuthSession) Valid() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.crumb != ""
}
