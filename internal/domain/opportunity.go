// Package domain defines the core types, collaborator contracts, and
// sentinel errors shared across the curvebot engine. All other packages
// depend on domain; domain depends on nothing but the standard library.
package domain

import "time"

// Route carries the venue-specific addressing needed to trade a token on
// its bonding curve. The engine treats these fields as opaque and passes
// them through to the execution, price, and liquidity collaborators.
type Route struct {
	BondingCurve           string
	AssociatedBondingCurve string
}

// Opportunity is a newly created token surfaced by the discovery feed,
// together with the aggregate score computed upstream. Score is on a 0-100
// scale; higher means a more attractive entry.
type Opportunity struct {
	TokenID    string
	Name       string
	Symbol     string
	Creator    string
	Route      Route
	Score      float64
	DetectedAt time.Time
}

// EntryDecision is the outcome of evaluating an opportunity through the
// entry rules. When Accepted is true, Size holds the amount of base
// currency committed and Position the ledger entry created after the buy
// filled. Reason always explains the outcome, accepted or not.
type EntryDecision struct {
	ID       string
	TokenID  string
	Accepted bool
	Size     float64
	Reason   string
	Position *Position
}

// CloseDecision is emitted by a monitoring tick for a position that met an
// exit condition. The close effect (sell, then ledger commit) is applied
// separately by the caller.
type CloseDecision struct {
	TokenID string
	Reason  string
	Price   float64
}
