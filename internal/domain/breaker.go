package domain

// BreakerState is a snapshot of the circuit breaker. Reason is empty
// unless Halted is true.
type BreakerState struct {
	Halted bool
	Reason string
}
