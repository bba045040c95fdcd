package domain

import "time"

// Position is an open trade. Exactly one open Position may exist per
// TokenID at any time; it is created by the ledger's Open and destroyed by
// the ledger's Close, never by any other path.
type Position struct {
	TokenID    string
	Name       string
	Symbol     string
	Creator    string
	Route      Route
	EntryPrice float64
	Size       float64 // base currency committed
	BuyTxID    string
	OpenedAt   time.Time
}

// ClosedTrade is the immutable historical record of a completed round
// trip. ProfitLossRatio is computed once at close time from the recorded
// entry price and never recomputed afterwards.
type ClosedTrade struct {
	Position
	ExitPrice       float64
	ExitReason      string
	SellTxID        string
	ProfitLossRatio float64
	ClosedAt        time.Time
}

// PerformanceSummary aggregates the closed-trade history.
type PerformanceSummary struct {
	TotalClosed int
	WinCount    int
	WinRate     float64
	AveragePnL  float64
	TotalPnL    float64
}
