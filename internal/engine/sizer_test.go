package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

func testPolicy() domain.RiskPolicy {
	return domain.RiskPolicy{
		MinScore:                   70,
		MaxPositions:               5,
		MinLiquidity:               1000,
		MaxAllocationFraction:      0.1,
		MinTradeAmount:             0.01,
		StopLossFraction:           0.15,
		TakeProfitFraction:         0.30,
		MaxHoldDuration:            24 * time.Hour,
		WalletDrawdownHaltFraction: 0.20,
	}
}

func TestPositionSizeScalesWithScore(t *testing.T) {
	policy := testPolicy()

	// Full score commits the full allocation cap.
	size, err := PositionSize(100, 100, policy)
	require.NoError(t, err)
	assert.InDelta(t, 10, size, 1e-9)

	// Half score commits half of it.
	size, err = PositionSize(100, 50, policy)
	require.NoError(t, err)
	assert.InDelta(t, 5, size, 1e-9)
}

func TestPositionSizeNeverExceedsAllocationCap(t *testing.T) {
	policy := testPolicy()

	for _, score := range []float64{0, 10, 55.5, 99, 100} {
		size, err := PositionSize(200, score, policy)
		require.NoError(t, err)
		assert.LessOrEqual(t, size, 200*policy.MaxAllocationFraction,
			"score %.1f must respect the allocation cap", score)
	}
}

func TestPositionSizeFloorsAtMinimumThenCaps(t *testing.T) {
	policy := testPolicy()

	// Tiny raw allocation gets floored up to the minimum trade amount.
	size, err := PositionSize(10, 1, policy)
	require.NoError(t, err)
	assert.InDelta(t, policy.MinTradeAmount, size, 1e-9)

	// With a tiny balance the cap wins over the minimum floor, so the
	// resulting size falls below MinTradeAmount and the entry rules will
	// reject it.
	size, err = PositionSize(0.05, 1, policy)
	require.NoError(t, err)
	assert.InDelta(t, 0.05*policy.MaxAllocationFraction, size, 1e-9)
	assert.Less(t, size, policy.MinTradeAmount)
}

func TestPositionSizeInvalidInput(t *testing.T) {
	policy := testPolicy()

	_, err := PositionSize(0, 80, policy)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = PositionSize(-5, 80, policy)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = PositionSize(100, -0.1, policy)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = PositionSize(100, 100.1, policy)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPositionSizeDeterministic(t *testing.T) {
	policy := testPolicy()

	first, err := PositionSize(123.45, 87, policy)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := PositionSize(123.45, 87, policy)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
