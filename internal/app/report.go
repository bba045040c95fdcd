package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// statusReportInterval controls how often the journal digest is logged.
const statusReportInterval = 15 * time.Minute

// statusReportLimit caps how many journal rows a single report reads.
const statusReportLimit = 50

// StatusReporter periodically logs a digest of journal activity since the
// previous report: trades closed, realised pnl, and audit events. It is the
// operator's heartbeat between notifications.
type StatusReporter struct {
	journal  domain.ClosedTradeStore
	audit    domain.AuditStore
	interval time.Duration
	logger   *slog.Logger

	lastReport time.Time
}

// NewStatusReporter creates a StatusReporter. The audit store may be nil.
func NewStatusReporter(journal domain.ClosedTradeStore, audit domain.AuditStore, interval time.Duration, logger *slog.Logger) *StatusReporter {
	return &StatusReporter{
		journal:    journal,
		audit:      audit,
		interval:   interval,
		logger:     logger.With(slog.String("component", "status_reporter")),
		lastReport: time.Now().UTC(),
	}
}

// Run emits a report every interval until the context is cancelled.
func (r *StatusReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.report(ctx, time.Now().UTC())
		}
	}
}

// report logs activity between the previous report and now. A journal
// failure keeps the window open so the next report covers it.
func (r *StatusReporter) report(ctx context.Context, now time.Time) {
	since := r.lastReport

	trades, err := r.journal.List(ctx, domain.ListOpts{Since: &since, Limit: statusReportLimit})
	if err != nil {
		r.logger.WarnContext(ctx, "status report journal query failed",
			slog.String("error", err.Error()),
		)
		return
	}
	r.lastReport = now

	var pnl float64
	wins := 0
	for _, t := range trades {
		pnl += t.ProfitLossRatio * t.Size
		if t.ProfitLossRatio > 0 {
			wins++
		}
	}

	attrs := []any{
		slog.Time("since", since),
		slog.Int("trades_closed", len(trades)),
		slog.Int("wins", wins),
		slog.Float64("realised_pnl", pnl),
	}

	if r.audit != nil {
		entries, err := r.audit.List(ctx, domain.ListOpts{Since: &since, Limit: statusReportLimit})
		if err != nil {
			r.logger.WarnContext(ctx, "status report audit query failed",
				slog.String("error", err.Error()),
			)
		} else {
			attrs = append(attrs, slog.Int("audit_events", len(entries)))
		}
	}

	r.logger.InfoContext(ctx, "journal status", attrs...)
}
