package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOpportunity(tokenID string, score float64) domain.Opportunity {
	return domain.Opportunity{
		TokenID: tokenID,
		Name:    "Moon Cat",
		Symbol:  "MCAT",
		Creator: "creator-1",
		Route: domain.Route{
			BondingCurve:           "curve-" + tokenID,
			AssociatedBondingCurve: "assoc-" + tokenID,
		},
		Score:      score,
		DetectedAt: time.Now().UTC(),
	}
}

// fakeLiquidity serves canned liquidity values and records call counts.
type fakeLiquidity struct {
	mu        sync.Mutex
	liquidity float64
	err       error
	calls     int
}

func (f *fakeLiquidity) Liquidity(ctx context.Context, route domain.Route) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.liquidity, nil
}

func (f *fakeLiquidity) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePrices serves per-curve prices.
type fakePrices struct {
	mu     sync.Mutex
	prices map[string]float64 // keyed by route.BondingCurve
	err    error
	errFor map[string]error
}

func newFakePrices() *fakePrices {
	return &fakePrices{
		prices: make(map[string]float64),
		errFor: make(map[string]error),
	}
}

func (f *fakePrices) set(curve string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[curve] = price
}

func (f *fakePrices) failFor(curve string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errFor[curve] = err
}

func (f *fakePrices) Price(ctx context.Context, route domain.Route) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if err, ok := f.errFor[route.BondingCurve]; ok && err != nil {
		return 0, err
	}
	price, ok := f.prices[route.BondingCurve]
	if !ok {
		return 0, domain.ErrPriceUnavailable
	}
	return price, nil
}

// fakeTrader fills every order at fixed prices and tracks transactions.
// buyDelay holds each buy open for that long, keeping entry slots reserved
// while other submissions race through the diversification check.
type fakeTrader struct {
	mu           sync.Mutex
	balance      float64
	balanceErr   error
	buyPrice     float64
	buyErr       error
	buyDelay     time.Duration
	sellPrice    float64
	sellErr      error
	buys         int
	sells        int
	balanceCalls int
}

func (f *fakeTrader) Buy(ctx context.Context, opp domain.Opportunity, amount float64) (domain.Fill, error) {
	if f.buyDelay > 0 {
		time.Sleep(f.buyDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buyErr != nil {
		return domain.Fill{}, f.buyErr
	}
	f.buys++
	return domain.Fill{TxID: "buy-tx", Price: f.buyPrice}, nil
}

func (f *fakeTrader) Sell(ctx context.Context, tokenID string, route domain.Route) (domain.Fill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sellErr != nil {
		return domain.Fill{}, f.sellErr
	}
	f.sells++
	return domain.Fill{TxID: "sell-tx", Price: f.sellPrice}, nil
}

func (f *fakeTrader) Balance(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	if f.balanceErr != nil {
		return 0, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeTrader) sellCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sells
}

func (f *fakeTrader) balanceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceCalls
}
