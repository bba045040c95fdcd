package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// CircuitBreaker tracks wallet health against a fixed initial balance and
// can halt all new entries. Halting happens on a drawdown breach or an
// explicit Halt call; a halted breaker only returns to Active through an
// explicit Resume. The breaker never blocks exits.
type CircuitBreaker struct {
	initial  float64 // reference balance, fixed for the lifetime of a run
	drawdown float64 // halt threshold as a fraction of initial
	logger   *slog.Logger

	mu     sync.Mutex
	halted bool
	reason string
}

// NewCircuitBreaker creates a breaker with the given initial wallet
// balance and drawdown halt fraction.
func NewCircuitBreaker(initialBalance, drawdownHaltFraction float64, logger *slog.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		initial:  initialBalance,
		drawdown: drawdownHaltFraction,
		logger:   logger.With(slog.String("component", "circuit_breaker")),
	}
}

// ObserveBalance feeds a wallet-balance sample to the breaker. When the
// drawdown from the initial balance reaches the halt fraction, the breaker
// trips. Samples observed while already halted are ignored; recovery is
// never automatic.
func (b *CircuitBreaker) ObserveBalance(current float64) {
	if b.initial <= 0 {
		return
	}
	change := (current - b.initial) / b.initial
	if change > -b.drawdown {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.halted {
		return
	}
	b.halted = true
	b.reason = fmt.Sprintf("wallet drawdown %.1f%% (balance %.4f of initial %.4f)",
		-change*100, current, b.initial)
	b.logger.Error("circuit breaker tripped",
		slog.Float64("balance", current),
		slog.Float64("initial", b.initial),
		slog.String("reason", b.reason),
	)
}

// Halt forces the breaker into the halted state with the given reason.
func (b *CircuitBreaker) Halt(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.halted = true
	b.reason = reason
	b.logger.Warn("trading halted", slog.String("reason", reason))
}

// Resume returns the breaker to the active state.
func (b *CircuitBreaker) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.halted = false
	b.reason = ""
	b.logger.Info("trading resumed")
}

// State returns a snapshot of the breaker.
func (b *CircuitBreaker) State() domain.BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.BreakerState{Halted: b.halted, Reason: b.reason}
}
