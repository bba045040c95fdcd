// Package notify delivers operator alerts for trading events. Alerts fan
// out to every registered sender (Telegram, Discord) and are filtered by
// event type so operators receive only the alerts they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// Event types emitted by the trading engine.
const (
	EventEntry  = "entry"
	EventExit   = "exit"
	EventHalt   = "halt"
	EventResume = "resume"
)

// Sender is the interface each notification channel implements.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Notifier dispatches trading alerts to one or more Senders, filtered by an
// allowed event set. An empty set allows every event.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only
// events named in the events slice are forwarded; an empty slice allows all.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// EntryOpened formats and dispatches a position-opened alert.
func (n *Notifier) EntryOpened(ctx context.Context, pos domain.Position) {
	msg := fmt.Sprintf("%s (%s)\nsize %.6f at %.8f\ntx %s",
		pos.Name, pos.Symbol, pos.Size, pos.EntryPrice, pos.BuyTxID)
	n.notify(ctx, EventEntry, "Position opened", msg)
}

// PositionClosed formats and dispatches a position-closed alert.
func (n *Notifier) PositionClosed(ctx context.Context, trade domain.ClosedTrade) {
	msg := fmt.Sprintf("%s (%s)\n%s at %.8f, pnl %+.2f%%\ntx %s",
		trade.Name, trade.Symbol, trade.ExitReason, trade.ExitPrice,
		trade.ProfitLossRatio*100, trade.SellTxID)
	n.notify(ctx, EventExit, "Position closed", msg)
}

// Halted dispatches a trading-halted alert.
func (n *Notifier) Halted(ctx context.Context, reason string) {
	n.notify(ctx, EventHalt, "Trading halted", reason)
}

// Resumed dispatches a trading-resumed alert.
func (n *Notifier) Resumed(ctx context.Context) {
	n.notify(ctx, EventResume, "Trading resumed", "new entries are accepted again")
}

// notify forwards the alert when the event type is allowed. Delivery
// failures are logged, never propagated; alerting must not affect trading.
func (n *Notifier) notify(ctx context.Context, event, title, message string) {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return
	}

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
}
