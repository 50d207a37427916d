package collector

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth means the cookie/crumb exchange failed or returned garbage.
	ErrAuth = errors.New("auth failed")
	// ErrParse means a quote payload lacked a required field.
	ErrParse = errors.New("parse quote")
	// ErrNetwork covers transport failures and unexpected HTTP statuses.
	ErrNetwork = errors.New("network")
	// ErrUnauthorized is a 401/403 from a quote endpoint.
	ErrUnauthorized = fmt.Errorf("%w: unauthorized", ErrNetwork)
)

// ValidationError is returned when a symbol lookup finds nothing.
type ValidationError struct {
	Symbol string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is not a valid ticker symbol", e.Symbol)
}
