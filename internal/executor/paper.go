// Package executor provides trade execution backends. The paper trader
// simulates fills against live quotes without touching the venue wallet.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// PaperTrader simulates execution. Buys and sells fill instantly at the
// quoted price; the wallet balance is tracked locally starting from an
// initial paper balance. Positions are held at cost; unrealized moves do
// not change the paper balance until the sell fills.
type PaperTrader struct {
	prices domain.PriceSource
	logger *slog.Logger

	mu      sync.Mutex
	balance float64
	// cost basis per open token, so sells can realize pnl
	costs map[string]paperLot
}

type paperLot struct {
	amount     float64
	entryPrice float64
}

// NewPaperTrader creates a paper trader with the given starting balance.
func NewPaperTrader(prices domain.PriceSource, initialBalance float64, logger *slog.Logger) *PaperTrader {
	return &PaperTrader{
		prices:  prices,
		balance: initialBalance,
		costs:   make(map[string]paperLot),
		logger:  logger.With(slog.String("component", "paper_trader")),
	}
}

// Buy fills instantly at the current quote and deducts amount from the
// paper balance.
func (p *PaperTrader) Buy(ctx context.Context, opp domain.Opportunity, amount float64) (domain.Fill, error) {
	price, err := p.prices.Price(ctx, opp.Route)
	if err != nil {
		return domain.Fill{}, fmt.Errorf("paper: buy %s: %w", opp.TokenID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if amount > p.balance {
		return domain.Fill{}, fmt.Errorf("paper: buy %s: amount %.6f exceeds balance %.6f: %w",
			opp.TokenID, amount, p.balance, domain.ErrExecution)
	}
	p.balance -= amount
	p.costs[opp.TokenID] = paperLot{amount: amount, entryPrice: price}

	fill := domain.Fill{TxID: "paper-" + uuid.New().String(), Price: price}
	p.logger.InfoContext(ctx, "paper buy filled",
		slog.String("token_id", opp.TokenID),
		slog.Float64("amount", amount),
		slog.Float64("price", price),
	)
	return fill, nil
}

// Sell fills instantly at the current quote, returning the position's value
// at that quote to the paper balance.
func (p *PaperTrader) Sell(ctx context.Context, tokenID string, route domain.Route) (domain.Fill, error) {
	price, err := p.prices.Price(ctx, route)
	if err != nil {
		return domain.Fill{}, fmt.Errorf("paper: sell %s: %w", tokenID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	lot, ok := p.costs[tokenID]
	if !ok {
		return domain.Fill{}, fmt.Errorf("paper: sell %s: %w", tokenID, domain.ErrNotFound)
	}
	delete(p.costs, tokenID)

	proceeds := lot.amount
	if lot.entryPrice > 0 {
		proceeds = lot.amount * (price / lot.entryPrice)
	}
	p.balance += proceeds

	fill := domain.Fill{TxID: "paper-" + uuid.New().String(), Price: price}
	p.logger.InfoContext(ctx, "paper sell filled",
		slog.String("token_id", tokenID),
		slog.Float64("proceeds", proceeds),
		slog.Float64("price", price),
	)
	return fill, nil
}

// Balance returns the simulated wallet balance.
func (p *PaperTrader) Balance(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance, nil
}

var _ domain.Trader = (*PaperTrader)(nil)
