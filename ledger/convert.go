package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONVERTER - Currency conversion collaborator (injected)
// =============================================================================

// Converter is the currency-rate collaborator. The engine uses it two ways:
//   - Rate: synchronous, cached/best-effort, for computed aggregates
//   - Convert: asynchronous, accurate, for balance updates
type Converter interface {
	// Rate returns the cached conversion rate from -> to, if known.
	Rate(from, to Currency) (decimal.Decimal, bool)

	// Convert converts an amount accurately. May suspend (network lookup).
	Convert(ctx context.Context, amount decimal.Decimal, from, to Currency) (decimal.Decimal, error)
}

// convertBestEffort applies the sync cached rate, falling back to the
// unconverted amount when no rate is known. The fallback is deterministic
// so incremental aggregates and full rebuilds stay bit-for-bit equal.
func convertBestEffort(c Converter, amount decimal.Decimal, from, to Currency) decimal.Decimal {
	if from == to || from == "" || to == "" {
		return amount
	}
	if rate, ok := c.Rate(from, to); ok {
		return amount.Mul(rate)
	}
	return amount
}

// =============================================================================
// STATIC CONVERTER - Fixed rate table (tests, offline default)
// =============================================================================

type ratePair struct {
	from, to Currency
}

// StaticConverter serves a fixed rate table. Inverse rates are derived
// automatically. Safe for concurrent use.
type StaticConverter struct {
	mu    sync.RWMutex
	rates map[ratePair]decimal.Decimal
}

func NewStaticConverter() *StaticConverter {
	return &StaticConverter{rates: make(map[ratePair]decimal.Decimal)}
}

// SetRate registers a conversion rate and its inverse.
func (c *StaticConverter) SetRate(from, to Currency, rate decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates[ratePair{from, to}] = rate
	if !rate.IsZero() {
		c.rates[ratePair{to, from}] = decimal.NewFromInt(1).Div(rate)
	}
}

func (c *StaticConverter) Rate(from, to Currency) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	rate, ok := c.rates[ratePair{from, to}]
	return rate, ok
}

func (c *StaticConverter) Convert(_ context.Context, amount decimal.Decimal, from, to Currency) (decimal.Decimal, error) {
	rate, ok := c.Rate(from, to)
	if !ok {
		return decimal.Zero, fmt.Errorf("no conversion rate %s -> %s", from, to)
	}
	return amount.Mul(rate), nil
}
