package domain

import (
	"context"
	"time"
)

// Fill is the result of a successfully submitted buy or sell.
type Fill struct {
	TxID  string
	Price float64
}

// Trader is the execution collaborator. Implementations submit and sign
// transactions against the venue; the engine never holds its ledger lock
// across these calls.
type Trader interface {
	// Buy commits amount of base currency to the opportunity's bonding
	// curve and returns the fill.
	Buy(ctx context.Context, opp Opportunity, amount float64) (Fill, error)
	// Sell exits the full position for tokenID using the stored route.
	Sell(ctx context.Context, tokenID string, route Route) (Fill, error)
	// Balance returns the wallet balance in base currency.
	Balance(ctx context.Context) (float64, error)
}

// PriceSource quotes the current price for a token's bonding curve.
type PriceSource interface {
	Price(ctx context.Context, route Route) (float64, error)
}

// LiquiditySource estimates the liquidity available on a token's bonding
// curve, in base currency.
type LiquiditySource interface {
	Liquidity(ctx context.Context, route Route) (float64, error)
}

// Feed produces opportunities discovered on chain. Run blocks until the
// context is cancelled, reconnecting as needed; ordering of emitted
// opportunities is not guaranteed.
type Feed interface {
	Run(ctx context.Context) error
	Opportunities() <-chan Opportunity
}

// PriceCache provides fast access to the latest observed prices.
type PriceCache interface {
	SetPrice(ctx context.Context, tokenID string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, tokenID string) (float64, time.Time, error)
}

// RateLimiter provides sliding-window rate limiting, keyed by caller.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
