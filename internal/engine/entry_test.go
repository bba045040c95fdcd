package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

func activeSnapshot() EntrySnapshot {
	return EntrySnapshot{Balance: 100}
}

func TestEntryRulesAccept(t *testing.T) {
	liq := &fakeLiquidity{liquidity: 5000}
	rules := NewEntryRules(NewSafetyGate(nil, liq, testLogger()), testLogger())

	accept, size, reason := rules.Evaluate(context.Background(), testOpportunity("m", 90), testPolicy(), activeSnapshot())
	assert.True(t, accept)
	assert.Greater(t, size, 0.0)
	assert.Equal(t, "entry criteria met", reason)
}

func TestEntryRulesHaltedShortCircuits(t *testing.T) {
	liq := &fakeLiquidity{liquidity: 5000}
	rules := NewEntryRules(NewSafetyGate(nil, liq, testLogger()), testLogger())

	snap := activeSnapshot()
	snap.Breaker = domain.BreakerState{Halted: true, Reason: "wallet drawdown 25%"}

	accept, _, reason := rules.Evaluate(context.Background(), testOpportunity("m", 90), testPolicy(), snap)
	assert.False(t, accept)
	assert.Equal(t, "halted: wallet drawdown 25%", reason)
	assert.Zero(t, liq.callCount(), "halted entries never reach the gate")
}

func TestEntryRulesInvalidScore(t *testing.T) {
	liq := &fakeLiquidity{liquidity: 5000}
	rules := NewEntryRules(NewSafetyGate(nil, liq, testLogger()), testLogger())

	accept, _, reason := rules.Evaluate(context.Background(), testOpportunity("m", 101), testPolicy(), activeSnapshot())
	assert.False(t, accept)
	assert.Contains(t, reason, "invalid score")

	accept, _, reason = rules.Evaluate(context.Background(), testOpportunity("m", -1), testPolicy(), activeSnapshot())
	assert.False(t, accept)
	assert.Contains(t, reason, "invalid score")
}

func TestEntryRulesDiversificationBeforeGate(t *testing.T) {
	liq := &fakeLiquidity{liquidity: 5000}
	rules := NewEntryRules(NewSafetyGate(nil, liq, testLogger()), testLogger())

	snap := activeSnapshot()
	snap.OpenCount = testPolicy().MaxPositions

	accept, _, reason := rules.Evaluate(context.Background(), testOpportunity("m", 90), testPolicy(), snap)
	assert.False(t, accept)
	assert.Equal(t, "diversification limit", reason)
	assert.Zero(t, liq.callCount(), "the limit check precedes the liquidity lookup")
}

func TestEntryRulesGateReasonIsPrefixed(t *testing.T) {
	liq := &fakeLiquidity{liquidity: 5000}
	rules := NewEntryRules(NewSafetyGate([]string{"scam"}, liq, testLogger()), testLogger())

	opp := testOpportunity("m", 90)
	opp.Name = "Totally Not A Scam"

	accept, _, reason := rules.Evaluate(context.Background(), opp, testPolicy(), activeSnapshot())
	assert.False(t, accept)
	assert.Contains(t, reason, "safety: ")
}

func TestEntryRulesSizeBelowMinimum(t *testing.T) {
	liq := &fakeLiquidity{liquidity: 5000}
	rules := NewEntryRules(NewSafetyGate(nil, liq, testLogger()), testLogger())

	// Balance so small that the allocation cap lands under MinTradeAmount.
	snap := EntrySnapshot{Balance: 0.05}

	accept, _, reason := rules.Evaluate(context.Background(), testOpportunity("m", 90), testPolicy(), snap)
	assert.False(t, accept)
	assert.Contains(t, reason, "below minimum")
}
