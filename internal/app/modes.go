package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/curvebot/internal/domain"
	"github.com/alanyoungcy/curvebot/internal/engine"
	"github.com/alanyoungcy/curvebot/internal/executor"
	"github.com/alanyoungcy/curvebot/internal/feed"
	"github.com/alanyoungcy/curvebot/internal/ledger"
)

// breakerPollInterval controls how often the breaker watcher samples state
// for halt/resume notifications.
const breakerPollInterval = 5 * time.Second

// TradeMode runs the full pipeline with live execution: discovery feed,
// entry worker, monitoring loop, and optional trade archiver.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")
	return a.runTrading(ctx, deps, deps.Venue)
}

// PaperMode runs the same pipeline as TradeMode but with simulated
// execution against live quotes.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting paper mode",
		slog.Float64("paper_balance", a.cfg.Venue.PaperBalance),
	)
	trader := executor.NewPaperTrader(deps.Prices, a.cfg.Venue.PaperBalance, a.logger)
	return a.runTrading(ctx, deps, trader)
}

// MonitorMode observes the discovery feed and logs how each opportunity
// would fare against the safety gate, without ever trading.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	gate := a.buildGate(deps)
	policy := a.cfg.Risk.Policy()

	g, ctx := errgroup.WithContext(ctx)

	wsFeed := feed.NewPumpFunWSFeed(a.cfg.Venue.WsHost, 64, a.logger)
	g.Go(func() error {
		defer wsFeed.Close()
		return wsFeed.Run(ctx)
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case opp := <-wsFeed.Opportunities():
				res, err := gate.Check(ctx, opp, policy)
				if err != nil {
					a.logger.WarnContext(ctx, "gate check failed",
						slog.String("token_id", opp.TokenID),
						slog.String("error", err.Error()),
					)
					continue
				}
				a.logger.InfoContext(ctx, "opportunity observed",
					slog.String("token_id", opp.TokenID),
					slog.String("symbol", opp.Symbol),
					slog.Float64("score", opp.Score),
					slog.Bool("gate_passed", res.Passed),
					slog.String("gate_reason", res.Reason),
				)
			}
		}
	})

	return g.Wait()
}

// runTrading wires the engine around the given trader and starts the
// discovery feed, entry worker, monitoring loop, breaker watcher, status
// reporter, and archiver.
func (a *App) runTrading(ctx context.Context, deps *Dependencies, trader domain.Trader) error {
	initialBalance, err := trader.Balance(ctx)
	if err != nil {
		return fmt.Errorf("app: initial balance: %w", err)
	}
	a.logger.InfoContext(ctx, "wallet balance at startup", slog.Float64("balance", initialBalance))

	policy := a.cfg.Risk.Policy()
	gate := a.buildGate(deps)
	breaker := engine.NewCircuitBreaker(initialBalance, policy.WalletDrawdownHaltFraction, a.logger)

	eng := engine.New(ledger.New(), policy, trader, deps.Prices, gate, breaker, a.logger)
	if deps.Journal != nil {
		eng.SetJournal(deps.Journal, deps.Audit)
	}

	monitor := engine.NewMonitor(eng, a.cfg.Monitor.Interval.Duration, a.logger)
	monitor.OnClose(func(ctx context.Context, trade domain.ClosedTrade) {
		deps.Notifier.PositionClosed(ctx, trade)
	})

	g, ctx := errgroup.WithContext(ctx)

	wsFeed := feed.NewPumpFunWSFeed(a.cfg.Venue.WsHost, 64, a.logger)
	g.Go(func() error {
		defer wsFeed.Close()
		return wsFeed.Run(ctx)
	})

	g.Go(func() error {
		return a.entryWorker(ctx, deps, eng, wsFeed.Opportunities())
	})

	g.Go(func() error {
		return monitor.Run(ctx)
	})

	g.Go(func() error {
		return a.watchBreaker(ctx, deps, eng)
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			return a.archiveLoop(ctx, deps)
		})
	}

	if deps.Journal != nil {
		reporter := NewStatusReporter(deps.Journal, deps.Audit, statusReportInterval, a.logger)
		g.Go(func() error {
			return reporter.Run(ctx)
		})
	}

	return g.Wait()
}

// buildGate creates the safety gate and seeds it with creators the operator
// flagged in configuration.
func (a *App) buildGate(deps *Dependencies) *engine.SafetyGate {
	gate := engine.NewSafetyGate(a.cfg.Safety.Denylist, deps.Liquidity, a.logger)
	for _, creator := range a.cfg.Safety.SuspiciousCreators {
		gate.MarkSuspicious(creator)
	}
	return gate
}

// entryWorker consumes discovered opportunities and submits them to the
// engine. A per-creator rate limit, when Redis is available, caps how many
// entries one creator can trigger inside the cooldown window.
func (a *App) entryWorker(ctx context.Context, deps *Dependencies, eng *engine.Engine, opps <-chan domain.Opportunity) error {
	limit := a.cfg.Safety.CreatorEntryLimit
	window := a.cfg.Safety.CreatorCooldown.Duration

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case opp := <-opps:
			if deps.RateLimiter != nil && limit > 0 && window > 0 {
				allowed, err := deps.RateLimiter.Allow(ctx, "creator:"+opp.Creator, limit, window)
				if err != nil {
					a.logger.WarnContext(ctx, "creator rate limit check failed, submitting anyway",
						slog.String("creator", opp.Creator),
						slog.String("error", err.Error()),
					)
				} else if !allowed {
					a.logger.InfoContext(ctx, "creator in cooldown, skipping",
						slog.String("token_id", opp.TokenID),
						slog.String("creator", opp.Creator),
					)
					continue
				}
			}

			dec, err := eng.SubmitOpportunity(ctx, opp)
			if err != nil {
				a.logger.ErrorContext(ctx, "entry failed",
					slog.String("token_id", opp.TokenID),
					slog.String("reason", dec.Reason),
					slog.String("error", err.Error()),
				)
				continue
			}
			if dec.Accepted && dec.Position != nil {
				deps.Notifier.EntryOpened(ctx, *dec.Position)
			}
		}
	}
}

// watchBreaker polls the circuit breaker and notifies operators on halt
// and resume transitions.
func (a *App) watchBreaker(ctx context.Context, deps *Dependencies, eng *engine.Engine) error {
	ticker := time.NewTicker(breakerPollInterval)
	defer ticker.Stop()

	var wasHalted bool
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			state := eng.BreakerState()
			if state.Halted && !wasHalted {
				deps.Notifier.Halted(ctx, state.Reason)
			}
			if !state.Halted && wasHalted {
				deps.Notifier.Resumed(ctx)
			}
			wasHalted = state.Halted
		}
	}
}

// archiveLoop periodically moves aged closed trades from the journal into
// object storage.
func (a *App) archiveLoop(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.S3.Interval.Duration
	retention := time.Duration(a.cfg.S3.RetentionDays) * 24 * time.Hour

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-retention)
			count, err := deps.Archiver.ArchiveClosedTrades(ctx, cutoff)
			if err != nil {
				a.logger.ErrorContext(ctx, "trade archive failed", slog.String("error", err.Error()))
				continue
			}
			if count > 0 {
				a.logger.InfoContext(ctx, "trades archived",
					slog.Int64("count", count),
					slog.Time("cutoff", cutoff),
				)
			}
		}
	}
}
