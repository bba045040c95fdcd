// Package engine implements the decision and risk-control core: position
// sizing, entry and exit rules, the pre-trade safety gate, the wallet
// circuit breaker, and the monitoring loop that drives exits. The engine
// owns the trade ledger and breaker state; callers interact with trading
// state only through the Engine surface.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/curvebot/internal/domain"
	"github.com/alanyoungcy/curvebot/internal/ledger"
)

// Engine is the facade over the trading core. It evaluates opportunities,
// applies accepted entries (buy, then ledger open), decides exits on each
// monitoring tick, and applies them (sell, then ledger close). A single
// Engine instance is shared by the entry path and the monitoring loop.
type Engine struct {
	ledger  *ledger.Ledger
	policy  domain.RiskPolicy
	trader  domain.Trader
	prices  domain.PriceSource
	entry   *EntryRules
	gate    *SafetyGate
	breaker *CircuitBreaker
	logger  *slog.Logger

	journal domain.ClosedTradeStore // optional mirror of closed trades
	audit   domain.AuditStore       // optional event log

	// mu guards pending, the count of entry slots reserved by in-flight
	// buys. Reserving before the buy keeps the diversification check
	// consistent without holding any lock across the execution call.
	mu      sync.Mutex
	pending int
}

// New creates an Engine. The policy must already be validated.
func New(
	led *ledger.Ledger,
	policy domain.RiskPolicy,
	trader domain.Trader,
	prices domain.PriceSource,
	gate *SafetyGate,
	breaker *CircuitBreaker,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		ledger:  led,
		policy:  policy,
		trader:  trader,
		prices:  prices,
		entry:   NewEntryRules(gate, logger),
		gate:    gate,
		breaker: breaker,
		logger:  logger.With(slog.String("component", "engine")),
	}
}

// SetJournal attaches the optional closed-trade journal and audit stores.
// Journal failures are logged and never affect ledger state.
func (e *Engine) SetJournal(journal domain.ClosedTradeStore, audit domain.AuditStore) {
	e.journal = journal
	e.audit = audit
}

// SubmitOpportunity evaluates a discovered opportunity and, when accepted,
// executes the buy and commits the resulting position to the ledger. The
// returned decision always carries a reason. A non-nil error indicates a
// collaborator failure (balance fetch or buy); rule rejections are not
// errors.
func (e *Engine) SubmitOpportunity(ctx context.Context, opp domain.Opportunity) (domain.EntryDecision, error) {
	dec := domain.EntryDecision{
		ID:      uuid.New().String(),
		TokenID: opp.TokenID,
	}

	// Breaker and duplicate checks come before any collaborator call: a
	// halted engine or a duplicate token must cost nothing per submission.
	if state := e.breaker.State(); state.Halted {
		dec.Reason = "halted: " + state.Reason
		return dec, nil
	}

	var snap EntrySnapshot

	// Reserve an entry slot so concurrent submissions cannot all pass the
	// diversification check and overshoot MaxPositions.
	reserved := false
	e.mu.Lock()
	if _, getErr := e.ledger.Get(opp.TokenID); getErr == nil {
		e.mu.Unlock()
		dec.Reason = "position already open"
		return dec, nil
	}
	snap.OpenCount = e.ledger.OpenCount() + e.pending
	if snap.OpenCount < e.policy.MaxPositions {
		e.pending++
		reserved = true
	}
	e.mu.Unlock()
	defer func() {
		if reserved {
			e.mu.Lock()
			e.pending--
			e.mu.Unlock()
		}
	}()

	balance, err := e.trader.Balance(ctx)
	if err != nil {
		dec.Reason = "wallet balance unavailable"
		return dec, fmt.Errorf("engine: balance: %w", err)
	}
	snap.Balance = balance
	snap.Breaker = e.breaker.State()

	accept, size, reason := e.entry.Evaluate(ctx, opp, e.policy, snap)
	dec.Reason = reason
	if !accept {
		e.logger.InfoContext(ctx, "opportunity rejected",
			slog.String("token_id", opp.TokenID),
			slog.String("symbol", opp.Symbol),
			slog.Float64("score", opp.Score),
			slog.String("reason", reason),
		)
		return dec, nil
	}

	fill, err := e.trader.Buy(ctx, opp, size)
	if err != nil {
		dec.Reason = "buy failed"
		return dec, fmt.Errorf("engine: buy %s: %w", opp.TokenID, err)
	}

	pos, err := e.ledger.Open(domain.Position{
		TokenID:    opp.TokenID,
		Name:       opp.Name,
		Symbol:     opp.Symbol,
		Creator:    opp.Creator,
		Route:      opp.Route,
		EntryPrice: fill.Price,
		Size:       size,
		BuyTxID:    fill.TxID,
		OpenedAt:   time.Now().UTC(),
	})
	if err != nil {
		// Contract violation: the buy filled but the ledger refused the
		// open. Surfaced, never swallowed.
		dec.Reason = "ledger open failed"
		return dec, fmt.Errorf("engine: open %s after fill %s: %w", opp.TokenID, fill.TxID, err)
	}

	dec.Accepted = true
	dec.Size = size
	dec.Position = &pos

	e.logger.InfoContext(ctx, "position opened",
		slog.String("token_id", pos.TokenID),
		slog.String("symbol", pos.Symbol),
		slog.Float64("size", pos.Size),
		slog.Float64("entry_price", pos.EntryPrice),
		slog.String("tx_id", pos.BuyTxID),
	)
	e.auditEvent(ctx, "entry", map[string]any{
		"token_id":    pos.TokenID,
		"symbol":      pos.Symbol,
		"size":        pos.Size,
		"entry_price": pos.EntryPrice,
		"tx_id":       pos.BuyTxID,
		"score":       opp.Score,
	})
	return dec, nil
}

// Tick evaluates every open position against the exit rules using a
// point-in-time snapshot and returns the positions that should close. It
// never mutates the ledger. A price failure for one position is logged
// and skipped; that position is retried on the next tick.
func (e *Engine) Tick(ctx context.Context) []domain.CloseDecision {
	positions := e.ledger.GetOpen()
	now := time.Now().UTC()

	var decisions []domain.CloseDecision
	for _, pos := range positions {
		if ctx.Err() != nil {
			return decisions
		}

		price, err := e.prices.Price(ctx, pos.Route)
		if err != nil {
			e.logger.WarnContext(ctx, "price fetch failed, will retry next tick",
				slog.String("token_id", pos.TokenID),
				slog.String("error", err.Error()),
			)
			continue
		}

		shouldClose, reason := EvaluateExit(pos, price, e.policy, now)
		if !shouldClose {
			continue
		}
		decisions = append(decisions, domain.CloseDecision{
			TokenID: pos.TokenID,
			Reason:  reason,
			Price:   price,
		})
	}
	return decisions
}

// ExecuteClose applies a close decision: sell through the execution
// collaborator, then commit the close to the ledger. A failed sell leaves
// the position open. domain.ErrNotFound means the position was already
// closed by a concurrent path; callers should treat that as a no-op.
//
// Closes are deliberately not blocked by a halted breaker.
func (e *Engine) ExecuteClose(ctx context.Context, dec domain.CloseDecision) (domain.ClosedTrade, error) {
	pos, err := e.ledger.Get(dec.TokenID)
	if err != nil {
		return domain.ClosedTrade{}, err
	}

	fill, err := e.trader.Sell(ctx, dec.TokenID, pos.Route)
	if err != nil {
		return domain.ClosedTrade{}, fmt.Errorf("engine: sell %s: %w", dec.TokenID, err)
	}

	trade, err := e.ledger.Close(dec.TokenID, fill.Price, dec.Reason, fill.TxID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost the race with a concurrent close after our sell filled.
			// The fill is surfaced so the operator can reconcile.
			return domain.ClosedTrade{}, fmt.Errorf("engine: close %s after fill %s: %w", dec.TokenID, fill.TxID, err)
		}
		return domain.ClosedTrade{}, err
	}

	e.logger.InfoContext(ctx, "position closed",
		slog.String("token_id", trade.TokenID),
		slog.String("symbol", trade.Symbol),
		slog.String("reason", trade.ExitReason),
		slog.Float64("exit_price", trade.ExitPrice),
		slog.Float64("pnl_ratio", trade.ProfitLossRatio),
	)

	if e.journal != nil {
		if err := e.journal.Insert(ctx, trade); err != nil {
			e.logger.ErrorContext(ctx, "closed-trade journal insert failed",
				slog.String("token_id", trade.TokenID),
				slog.String("error", err.Error()),
			)
		}
	}
	e.auditEvent(ctx, "exit", map[string]any{
		"token_id":   trade.TokenID,
		"symbol":     trade.Symbol,
		"reason":     trade.ExitReason,
		"exit_price": trade.ExitPrice,
		"pnl_ratio":  trade.ProfitLossRatio,
		"tx_id":      trade.SellTxID,
	})
	return trade, nil
}

// SampleWallet fetches the wallet balance and feeds it to the circuit
// breaker.
func (e *Engine) SampleWallet(ctx context.Context) error {
	balance, err := e.trader.Balance(ctx)
	if err != nil {
		return fmt.Errorf("engine: sample wallet: %w", err)
	}
	e.breaker.ObserveBalance(balance)
	return nil
}

// Halt forces the circuit breaker into the halted state. Open positions
// remain monitored and can still close.
func (e *Engine) Halt(ctx context.Context, reason string) {
	e.breaker.Halt(reason)
	e.auditEvent(ctx, "halt", map[string]any{"reason": reason})
}

// Resume returns the circuit breaker to the active state.
func (e *Engine) Resume(ctx context.Context) {
	e.breaker.Resume()
	e.auditEvent(ctx, "resume", nil)
}

// BreakerState returns a snapshot of the circuit breaker.
func (e *Engine) BreakerState() domain.BreakerState {
	return e.breaker.State()
}

// MarkSuspicious adds a creator to the safety gate's suspicious set.
func (e *Engine) MarkSuspicious(creator string) {
	e.gate.MarkSuspicious(creator)
}

// OpenPositions returns a snapshot of the open positions.
func (e *Engine) OpenPositions() []domain.Position {
	return e.ledger.GetOpen()
}

// PerformanceSummary aggregates the closed-trade history.
func (e *Engine) PerformanceSummary() domain.PerformanceSummary {
	return e.ledger.PerformanceSummary()
}

func (e *Engine) auditEvent(ctx context.Context, event string, detail map[string]any) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Log(ctx, event, detail); err != nil {
		e.logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
