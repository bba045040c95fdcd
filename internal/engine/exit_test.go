package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

func openPosition(entryPrice float64, openedAt time.Time) domain.Position {
	return domain.Position{
		TokenID:    "mint-1",
		Name:       "Test Token",
		Symbol:     "TEST",
		Creator:    "creator-1",
		EntryPrice: entryPrice,
		Size:       0.5,
		OpenedAt:   openedAt,
	}
}

func TestEvaluateExitStopLoss(t *testing.T) {
	policy := testPolicy()
	now := time.Now().UTC()
	pos := openPosition(1.0, now)

	shouldClose, reason := EvaluateExit(pos, 0.84, policy, now)
	assert.True(t, shouldClose)
	assert.Equal(t, ExitReasonStopLoss, reason)

	// Exactly at the threshold still triggers.
	shouldClose, reason = EvaluateExit(pos, 0.85, policy, now)
	assert.True(t, shouldClose)
	assert.Equal(t, ExitReasonStopLoss, reason)

	// Just above the threshold holds.
	shouldClose, reason = EvaluateExit(pos, 0.851, policy, now)
	assert.False(t, shouldClose)
	assert.Equal(t, ReasonHolding, reason)
}

func TestEvaluateExitTakeProfit(t *testing.T) {
	policy := testPolicy()
	now := time.Now().UTC()
	pos := openPosition(1.0, now)

	shouldClose, reason := EvaluateExit(pos, 1.30, policy, now)
	assert.True(t, shouldClose)
	assert.Equal(t, ExitReasonTakeProfit, reason)

	shouldClose, _ = EvaluateExit(pos, 1.29, policy, now)
	assert.False(t, shouldClose)
}

func TestEvaluateExitMaxHold(t *testing.T) {
	policy := testPolicy()
	opened := time.Now().UTC().Add(-25 * time.Hour)
	pos := openPosition(1.0, opened)

	// Price is flat but the hold limit has passed.
	shouldClose, reason := EvaluateExit(pos, 1.0, policy, time.Now().UTC())
	assert.True(t, shouldClose)
	assert.Equal(t, ExitReasonMaxHold, reason)
}

func TestEvaluateExitStopLossWinsOverSymmetricTakeProfit(t *testing.T) {
	// With symmetric thresholds a -10% move satisfies only the stop loss,
	// and the fixed priority order must report stop_loss.
	policy := testPolicy()
	policy.StopLossFraction = 0.10
	policy.TakeProfitFraction = 0.10

	now := time.Now().UTC()
	pos := openPosition(1.0, now)

	shouldClose, reason := EvaluateExit(pos, 0.90, policy, now)
	assert.True(t, shouldClose)
	assert.Equal(t, ExitReasonStopLoss, reason)
}

func TestEvaluateExitStopLossBeatsExpiredHold(t *testing.T) {
	policy := testPolicy()
	opened := time.Now().UTC().Add(-48 * time.Hour)
	pos := openPosition(1.0, opened)

	// Both stop loss and max hold apply; priority picks stop loss.
	shouldClose, reason := EvaluateExit(pos, 0.5, policy, time.Now().UTC())
	assert.True(t, shouldClose)
	assert.Equal(t, ExitReasonStopLoss, reason)
}

func TestEvaluateExitHolding(t *testing.T) {
	policy := testPolicy()
	now := time.Now().UTC()
	pos := openPosition(1.0, now)

	shouldClose, reason := EvaluateExit(pos, 1.05, policy, now)
	assert.False(t, shouldClose)
	assert.Equal(t, ReasonHolding, reason)
}
