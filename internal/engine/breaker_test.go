package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakerTripsAtDrawdownThreshold(t *testing.T) {
	b := NewCircuitBreaker(10, 0.20, testLogger())

	b.ObserveBalance(8.5)
	assert.False(t, b.State().Halted, "15% drawdown is under the 20% threshold")

	b.ObserveBalance(7.9)
	state := b.State()
	assert.True(t, state.Halted, "21% drawdown must trip the breaker")
	assert.NotEmpty(t, state.Reason)
}

func TestBreakerTripsExactlyAtThreshold(t *testing.T) {
	b := NewCircuitBreaker(10, 0.20, testLogger())

	b.ObserveBalance(8.0)
	assert.True(t, b.State().Halted)
}

func TestBreakerNeverRecoversAutomatically(t *testing.T) {
	b := NewCircuitBreaker(10, 0.20, testLogger())

	b.ObserveBalance(7.0)
	assert.True(t, b.State().Halted)

	// Balance fully recovers; the breaker must stay halted.
	b.ObserveBalance(12.0)
	assert.True(t, b.State().Halted)

	b.Resume()
	assert.False(t, b.State().Halted)
	assert.Empty(t, b.State().Reason)
}

func TestBreakerManualHalt(t *testing.T) {
	b := NewCircuitBreaker(10, 0.20, testLogger())

	b.Halt("operator maintenance")
	state := b.State()
	assert.True(t, state.Halted)
	assert.Equal(t, "operator maintenance", state.Reason)
}

func TestBreakerDrawdownSampleKeepsFirstReason(t *testing.T) {
	b := NewCircuitBreaker(10, 0.20, testLogger())

	b.ObserveBalance(7.9)
	first := b.State().Reason

	// A deeper sample while halted is ignored.
	b.ObserveBalance(1.0)
	assert.Equal(t, first, b.State().Reason)
}

func TestBreakerIgnoresNonPositiveInitial(t *testing.T) {
	b := NewCircuitBreaker(0, 0.20, testLogger())

	b.ObserveBalance(-5)
	assert.False(t, b.State().Halted)
}
