package engine

import (
	"fmt"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// PositionSize computes the amount of base currency to commit to an
// opportunity. The allocation fraction scales linearly with score up to
// policy.MaxAllocationFraction; the result is floored at
// policy.MinTradeAmount and capped at balance*MaxAllocationFraction.
//
// It is deterministic and has no side effects. It returns
// domain.ErrInvalidInput when balance is non-positive or score is outside
// [0,100].
func PositionSize(balance, score float64, policy domain.RiskPolicy) (float64, error) {
	if balance <= 0 {
		return 0, fmt.Errorf("sizer: balance %v: %w", balance, domain.ErrInvalidInput)
	}
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("sizer: score %v outside [0,100]: %w", score, domain.ErrInvalidInput)
	}

	allocation := (score / 100) * policy.MaxAllocationFraction
	if allocation > policy.MaxAllocationFraction {
		allocation = policy.MaxAllocationFraction
	}

	amount := balance * allocation
	if amount < policy.MinTradeAmount {
		amount = policy.MinTradeAmount
	}
	if ceiling := balance * policy.MaxAllocationFraction; amount > ceiling {
		amount = ceiling
	}
	return amount, nil
}
