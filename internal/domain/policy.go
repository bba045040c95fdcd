package domain

import (
	"fmt"
	"time"
)

// RiskPolicy is the immutable set of limits governing entries, exits, and
// the wallet-level circuit breaker. It is constructed once from config and
// shared by value.
type RiskPolicy struct {
	// MinScore is the minimum opportunity score required to enter.
	MinScore float64

	// MaxPositions caps the number of concurrently open positions.
	MaxPositions int

	// MinLiquidity is the minimum bonding-curve liquidity (in base
	// currency) required before a buy is attempted.
	MinLiquidity float64

	// MaxAllocationFraction caps each trade at this fraction of the
	// wallet balance.
	MaxAllocationFraction float64

	// MinTradeAmount floors the computed position size.
	MinTradeAmount float64

	// StopLossFraction closes a position once it has lost this fraction
	// of its entry price.
	StopLossFraction float64

	// TakeProfitFraction closes a position once it has gained this
	// fraction over its entry price.
	TakeProfitFraction float64

	// MaxHoldDuration closes a position held longer than this regardless
	// of price.
	MaxHoldDuration time.Duration

	// WalletDrawdownHaltFraction halts all new entries once the wallet
	// has drawn down by this fraction from its initial balance.
	WalletDrawdownHaltFraction float64
}

// Validate checks the policy for internally consistent limits.
func (p RiskPolicy) Validate() error {
	if p.MinScore < 0 || p.MinScore > 100 {
		return fmt.Errorf("policy: min_score must be in [0,100], got %v", p.MinScore)
	}
	if p.MaxPositions <= 0 {
		return fmt.Errorf("policy: max_positions must be positive, got %d", p.MaxPositions)
	}
	if p.MaxAllocationFraction <= 0 || p.MaxAllocationFraction > 1 {
		return fmt.Errorf("policy: max_allocation_fraction must be in (0,1], got %v", p.MaxAllocationFraction)
	}
	if p.MinTradeAmount <= 0 {
		return fmt.Errorf("policy: min_trade_amount must be positive, got %v", p.MinTradeAmount)
	}
	if p.StopLossFraction <= 0 || p.StopLossFraction >= 1 {
		return fmt.Errorf("policy: stop_loss_fraction must be in (0,1), got %v", p.StopLossFraction)
	}
	if p.TakeProfitFraction <= 0 {
		return fmt.Errorf("policy: take_profit_fraction must be positive, got %v", p.TakeProfitFraction)
	}
	if p.MaxHoldDuration <= 0 {
		return fmt.Errorf("policy: max_hold_duration must be positive, got %v", p.MaxHoldDuration)
	}
	if p.WalletDrawdownHaltFraction <= 0 || p.WalletDrawdownHaltFraction >= 1 {
		return fmt.Errorf("policy: wallet_drawdown_halt_fraction must be in (0,1), got %v", p.WalletDrawdownHaltFraction)
	}
	return nil
}
