package market

import (
	"fmt"
	"strings"
	"time"
)

// Tick is the latest bid/ask pair reported by the venue for a symbol.
// Ticks are value objects: every quote request produces a fresh one and
// nothing in this package caches them.
type Tick struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// NormalizeSymbol trims surrounding whitespace and uppercases the symbol,
// matching what the venue expects on the wire.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide normalizes case and whitespace and accepts exactly "buy" or
// "sell". Anything else is an error.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return "", fmt.Errorf("side must be 'buy' or 'sell', got %q", s)
	}
}
