// Package ledger owns the authoritative record of open positions and the
// append-only closed-trade history. All mutation goes through Open and
// Close under a single mutual-exclusion domain; every other component
// observes ledger state only through point-in-time snapshots.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// Ledger tracks open positions keyed by token ID plus the ordered history
// of closed trades. The zero value is not usable; construct with New.
type Ledger struct {
	mu     sync.Mutex
	open   map[string]domain.Position
	closed []domain.ClosedTrade
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		open: make(map[string]domain.Position),
	}
}

// Open records a new position. It returns domain.ErrAlreadyExists when a
// position for pos.TokenID is already open, and domain.ErrInvalidInput
// when the token ID is empty or the size or entry price is non-positive.
// On success the stored position is returned.
func (l *Ledger) Open(pos domain.Position) (domain.Position, error) {
	if pos.TokenID == "" {
		return domain.Position{}, fmt.Errorf("ledger: open: empty token id: %w", domain.ErrInvalidInput)
	}
	if pos.Size <= 0 || pos.EntryPrice <= 0 {
		return domain.Position{}, fmt.Errorf("ledger: open %s: size %v price %v: %w",
			pos.TokenID, pos.Size, pos.EntryPrice, domain.ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.open[pos.TokenID]; ok {
		return domain.Position{}, fmt.Errorf("ledger: open %s: %w", pos.TokenID, domain.ErrAlreadyExists)
	}
	l.open[pos.TokenID] = pos
	return pos, nil
}

// Close removes the open position for tokenID, appends a ClosedTrade with
// the profit/loss ratio computed from the recorded entry price, and
// returns the record. It returns domain.ErrNotFound when no position is
// open for tokenID; the ledger is unchanged in that case.
func (l *Ledger) Close(tokenID string, exitPrice float64, reason, sellTxID string, now time.Time) (domain.ClosedTrade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.open[tokenID]
	if !ok {
		return domain.ClosedTrade{}, fmt.Errorf("ledger: close %s: %w", tokenID, domain.ErrNotFound)
	}

	trade := domain.ClosedTrade{
		Position:        pos,
		ExitPrice:       exitPrice,
		ExitReason:      reason,
		SellTxID:        sellTxID,
		ProfitLossRatio: (exitPrice - pos.EntryPrice) / pos.EntryPrice,
		ClosedAt:        now,
	}

	delete(l.open, tokenID)
	l.closed = append(l.closed, trade)
	return trade, nil
}

// GetOpen returns a point-in-time copy of all open positions. The snapshot
// does not track later mutations.
func (l *Ledger) GetOpen() []domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Position, 0, len(l.open))
	for _, pos := range l.open {
		out = append(out, pos)
	}
	return out
}

// Get returns the open position for tokenID, or domain.ErrNotFound.
func (l *Ledger) Get(tokenID string) (domain.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.open[tokenID]
	if !ok {
		return domain.Position{}, fmt.Errorf("ledger: get %s: %w", tokenID, domain.ErrNotFound)
	}
	return pos, nil
}

// OpenCount returns the number of currently open positions.
func (l *Ledger) OpenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.open)
}

// PerformanceSummary folds over the closed-trade history. An empty history
// yields an all-zero summary.
func (l *Ledger) PerformanceSummary() domain.PerformanceSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	var s domain.PerformanceSummary
	s.TotalClosed = len(l.closed)
	if s.TotalClosed == 0 {
		return s
	}
	for _, t := range l.closed {
		if t.ProfitLossRatio > 0 {
			s.WinCount++
		}
		s.TotalPnL += t.ProfitLossRatio
	}
	s.WinRate = float64(s.WinCount) / float64(s.TotalClosed)
	s.AveragePnL = s.TotalPnL / float64(s.TotalClosed)
	return s
}

// ClosedTrades returns a copy of the closed-trade history in close order.
func (l *Ledger) ClosedTrades() []domain.ClosedTrade {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.ClosedTrade, len(l.closed))
	copy(out, l.closed)
	return out
}
