package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// EntrySnapshot is the consistent view of shared state an entry evaluation
// runs against: the breaker state, the wallet balance, and the open count
// including slots reserved by in-flight entries.
type EntrySnapshot struct {
	Breaker   domain.BreakerState
	Balance   float64
	OpenCount int
}

// EntryRules evaluates whether a scored opportunity should be entered. It
// performs no mutation; the caller applies the effect (execute the buy,
// then commit to the ledger).
type EntryRules struct {
	gate   *SafetyGate
	logger *slog.Logger
}

// NewEntryRules creates an EntryRules evaluator backed by the given
// safety gate.
func NewEntryRules(gate *SafetyGate, logger *slog.Logger) *EntryRules {
	return &EntryRules{
		gate:   gate,
		logger: logger.With(slog.String("component", "entry_rules")),
	}
}

// Evaluate runs the entry checks in fixed order, short-circuiting on the
// first failure: breaker, minimum score, diversification limit, safety
// gate, position sizing. Each failure yields a distinct reason.
func (r *EntryRules) Evaluate(ctx context.Context, opp domain.Opportunity, policy domain.RiskPolicy, snap EntrySnapshot) (bool, float64, string) {
	if snap.Breaker.Halted {
		return false, 0, "halted: " + snap.Breaker.Reason
	}

	if opp.Score < 0 || opp.Score > 100 {
		return false, 0, fmt.Sprintf("invalid score %.2f", opp.Score)
	}
	if opp.Score < policy.MinScore {
		return false, 0, fmt.Sprintf("score %.0f below minimum %.0f", opp.Score, policy.MinScore)
	}

	if snap.OpenCount >= policy.MaxPositions {
		return false, 0, "diversification limit"
	}

	gate, err := r.gate.Check(ctx, opp, policy)
	if err != nil {
		r.logger.WarnContext(ctx, "safety gate collaborator error",
			slog.String("token_id", opp.TokenID),
			slog.String("error", err.Error()),
		)
	}
	if !gate.Passed {
		return false, 0, "safety: " + gate.Reason
	}

	size, err := PositionSize(snap.Balance, opp.Score, policy)
	if err != nil {
		return false, 0, "sizing: " + err.Error()
	}
	if size < policy.MinTradeAmount {
		return false, 0, fmt.Sprintf("position size %.6f below minimum %.6f", size, policy.MinTradeAmount)
	}

	return true, size, "entry criteria met"
}
