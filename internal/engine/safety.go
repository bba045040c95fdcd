package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// GateResult reports the outcome of the safety gate. When Passed is false,
// Reason names the first failing stage; later stages were not evaluated.
type GateResult struct {
	Passed bool
	Reason string
}

// SafetyGate runs the ordered pre-trade checks that every opportunity must
// clear before a buy is attempted: schema, content denylist, suspicious
// creator, and on-curve liquidity. The pipeline is fail-fast; the first
// failing stage short-circuits the rest, so the liquidity collaborator is
// only consulted for opportunities that already look clean.
type SafetyGate struct {
	denylist  []string
	liquidity domain.LiquiditySource
	logger    *slog.Logger

	mu         sync.Mutex
	suspicious map[string]struct{}
}

// NewSafetyGate creates a SafetyGate with the given content denylist and
// liquidity collaborator. Denylist terms are matched case-insensitively as
// substrings of the token name and symbol.
func NewSafetyGate(denylist []string, liquidity domain.LiquiditySource, logger *slog.Logger) *SafetyGate {
	lowered := make([]string, 0, len(denylist))
	for _, term := range denylist {
		if t := strings.ToLower(strings.TrimSpace(term)); t != "" {
			lowered = append(lowered, t)
		}
	}
	return &SafetyGate{
		denylist:   lowered,
		liquidity:  liquidity,
		logger:     logger.With(slog.String("component", "safety_gate")),
		suspicious: make(map[string]struct{}),
	}
}

// MarkSuspicious adds a creator identifier to the suspicious set. This is
// the only way entries are added; they never expire.
func (g *SafetyGate) MarkSuspicious(creator string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.suspicious[creator] = struct{}{}
	g.logger.Warn("creator marked suspicious", slog.String("creator", creator))
}

// IsSuspicious reports whether the creator has been marked.
func (g *SafetyGate) IsSuspicious(creator string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.suspicious[creator]
	return ok
}

// Check runs the gate stages in order and returns the first failure. The
// error return is non-nil only when the liquidity collaborator itself
// failed; the opportunity is not cleared in that case.
func (g *SafetyGate) Check(ctx context.Context, opp domain.Opportunity, policy domain.RiskPolicy) (GateResult, error) {
	if reason := g.checkSchema(opp); reason != "" {
		return GateResult{Reason: reason}, nil
	}
	if reason := g.checkContent(opp); reason != "" {
		return GateResult{Reason: reason}, nil
	}
	if g.IsSuspicious(opp.Creator) {
		return GateResult{Reason: fmt.Sprintf("suspicious creator %s", opp.Creator)}, nil
	}

	liq, err := g.liquidity.Liquidity(ctx, opp.Route)
	if err != nil {
		return GateResult{Reason: "liquidity lookup failed"}, fmt.Errorf("safety_gate: liquidity %s: %w", opp.TokenID, err)
	}
	if liq < policy.MinLiquidity {
		return GateResult{Reason: fmt.Sprintf("insufficient liquidity %.4f (minimum %.4f)", liq, policy.MinLiquidity)}, nil
	}

	return GateResult{Passed: true, Reason: "all checks passed"}, nil
}

// checkSchema verifies that all required opportunity fields are present
// and non-empty.
func (g *SafetyGate) checkSchema(opp domain.Opportunity) string {
	required := map[string]string{
		"token_id":                 opp.TokenID,
		"name":                     opp.Name,
		"symbol":                   opp.Symbol,
		"creator":                  opp.Creator,
		"bonding_curve":            opp.Route.BondingCurve,
		"associated_bonding_curve": opp.Route.AssociatedBondingCurve,
	}
	// Deterministic order for the reported reason.
	for _, field := range []string{"token_id", "name", "symbol", "creator", "bonding_curve", "associated_bonding_curve"} {
		if strings.TrimSpace(required[field]) == "" {
			return "missing required field " + field
		}
	}
	return ""
}

// checkContent matches the denylist against name and symbol.
func (g *SafetyGate) checkContent(opp domain.Opportunity) string {
	name := strings.ToLower(opp.Name)
	symbol := strings.ToLower(opp.Symbol)
	for _, term := range g.denylist {
		if strings.Contains(name, term) || strings.Contains(symbol, term) {
			return fmt.Sprintf("denylisted term %q in name/symbol", term)
		}
	}
	return ""
}
