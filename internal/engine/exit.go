package engine

import (
	"time"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// Exit reasons, in evaluation priority order.
const (
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonTakeProfit = "take_profit"
	ExitReasonMaxHold    = "max_hold_time"
	ReasonHolding        = "holding"
)

// EvaluateExit decides whether an open position should be closed at the
// given price and time. Rules are checked in fixed priority order: stop
// loss, take profit, max hold time. The first match wins; a price drop
// that hits the stop-loss threshold exactly reports stop_loss even when
// the take-profit threshold is symmetric.
//
// The entry price is nonzero by construction: the ledger rejects
// zero-price opens.
func EvaluateExit(pos domain.Position, currentPrice float64, policy domain.RiskPolicy, now time.Time) (bool, string) {
	change := (currentPrice - pos.EntryPrice) / pos.EntryPrice

	if change <= -policy.StopLossFraction {
		return true, ExitReasonStopLoss
	}
	if change >= policy.TakeProfitFraction {
		return true, ExitReasonTakeProfit
	}
	if now.Sub(pos.OpenedAt) >= policy.MaxHoldDuration {
		return true, ExitReasonMaxHold
	}
	return false, ReasonHolding
}
