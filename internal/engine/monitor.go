package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// CloseHook is called after a position closes, e.g. to notify operators.
type CloseHook func(ctx context.Context, trade domain.ClosedTrade)

// Monitor drives the continuous re-evaluation of open positions. On each
// tick it samples the wallet balance into the circuit breaker, asks the
// engine for close decisions, and applies them one by one. A failure on
// one position never aborts the rest of the tick; the position is retried
// on the next tick. The loop stops cooperatively when the context is
// cancelled: in-flight calls complete, no new tick starts.
type Monitor struct {
	engine   *Engine
	interval time.Duration
	onClose  CloseHook
	logger   *slog.Logger
}

// NewMonitor creates a Monitor that ticks at the given interval.
func NewMonitor(eng *Engine, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		engine:   eng,
		interval: interval,
		logger:   logger.With(slog.String("component", "monitor")),
	}
}

// OnClose registers a hook invoked for every successfully closed position.
func (m *Monitor) OnClose(hook CloseHook) {
	m.onClose = hook
}

// Run blocks until the context is cancelled, executing one tick per
// interval. The first tick runs after one full interval.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "monitor started", slog.Duration("interval", m.interval))
	defer m.logger.Info("monitor stopped")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick performs one monitoring pass.
func (m *Monitor) tick(ctx context.Context) {
	if err := m.engine.SampleWallet(ctx); err != nil {
		m.logger.WarnContext(ctx, "wallet sample failed", slog.String("error", err.Error()))
	}

	decisions := m.engine.Tick(ctx)
	for _, dec := range decisions {
		if ctx.Err() != nil {
			return
		}
		trade, err := m.engine.ExecuteClose(ctx, dec)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Already closed elsewhere; nothing to do.
				continue
			}
			m.logger.ErrorContext(ctx, "close failed, position stays open",
				slog.String("token_id", dec.TokenID),
				slog.String("reason", dec.Reason),
				slog.String("error", err.Error()),
			)
			continue
		}
		if m.onClose != nil {
			m.onClose(ctx, trade)
		}
	}

	if summary := m.engine.PerformanceSummary(); summary.TotalClosed > 0 {
		m.logger.InfoContext(ctx, "performance",
			slog.Int("closed", summary.TotalClosed),
			slog.Int("wins", summary.WinCount),
			slog.Float64("win_rate", summary.WinRate),
			slog.Float64("total_pnl", summary.TotalPnL),
		)
	}
}
