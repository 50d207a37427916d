package model

import (
	"time"

	"github.com/google/uuid"
)

// Direction selects which side of the target triggers an alert.
type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
)

// PriceAlert is a one-shot alert on a symbol's major-unit price.
// Armed is false at creation and set by the first evaluation against a fresh
// quote; an unarmed alert never triggers.
type PriceAlert struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	TargetPrice float64   `json:"target_price"`
	Direction   Direction `json:"direction"`
	Armed       bool      `json:"armed"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewPriceAlert creates an unarmed alert with a fresh ID.
func NewPriceAlert(symbol string, target float64, dir Direction) PriceAlert {
	return PriceAlert{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		TargetPrice: target,
		Direction:   dir,
		CreatedAt:   time.Now(),
	}
}

// IsTriggered evaluates the alert against a major-unit price.
func (a PriceAlert) IsTriggered(price float64) bool {
	if !a.Armed {
		return false
	}
	if a.Direction == Below {
		return price <= a.TargetPrice
	}
	return price >= a.TargetPrice
}

// FiredAlert is an alert that triggered during a refresh cycle.
type FiredAlert struct {
	Alert    PriceAlert
	Price    float64 // display price that triggered the alert
	Currency string
	FiredAt  time.Time
}
