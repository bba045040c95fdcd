package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubJournal struct {
	trades  []domain.ClosedTrade
	err     error
	gotOpts domain.ListOpts
	calls   int
}

func (s *stubJournal) Insert(ctx context.Context, trade domain.ClosedTrade) error { return nil }

func (s *stubJournal) List(ctx context.Context, opts domain.ListOpts) ([]domain.ClosedTrade, error) {
	s.gotOpts = opts
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.trades, nil
}

func (s *stubJournal) ListBefore(ctx context.Context, before time.Time) ([]domain.ClosedTrade, error) {
	return nil, nil
}

func (s *stubJournal) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type stubAudit struct {
	entries []domain.AuditEntry
	gotOpts domain.ListOpts
	calls   int
}

func (s *stubAudit) Log(ctx context.Context, event string, detail map[string]any) error { return nil }

func (s *stubAudit) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	s.gotOpts = opts
	s.calls++
	return s.entries, nil
}

func TestStatusReportQueriesWindowSinceLastReport(t *testing.T) {
	journal := &stubJournal{trades: []domain.ClosedTrade{
		{ProfitLossRatio: 0.5, Position: domain.Position{TokenID: "mint-1", Size: 2}},
		{ProfitLossRatio: -0.2, Position: domain.Position{TokenID: "mint-2", Size: 1}},
	}}
	audit := &stubAudit{entries: []domain.AuditEntry{{Event: "entry"}, {Event: "exit"}}}

	r := NewStatusReporter(journal, audit, time.Minute, testLogger())
	start := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	now := start.Add(15 * time.Minute)
	r.lastReport = start

	r.report(context.Background(), now)

	require.Equal(t, 1, journal.calls)
	require.NotNil(t, journal.gotOpts.Since)
	assert.Equal(t, start, *journal.gotOpts.Since)
	assert.Equal(t, statusReportLimit, journal.gotOpts.Limit)

	require.Equal(t, 1, audit.calls)
	require.NotNil(t, audit.gotOpts.Since)
	assert.Equal(t, start, *audit.gotOpts.Since)

	assert.Equal(t, now, r.lastReport, "a successful report advances the window")
}

func TestStatusReportJournalFailureKeepsWindow(t *testing.T) {
	journal := &stubJournal{err: errors.New("pool closed")}

	r := NewStatusReporter(journal, nil, time.Minute, testLogger())
	start := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	r.lastReport = start

	r.report(context.Background(), start.Add(15*time.Minute))

	assert.Equal(t, start, r.lastReport, "a failed query must not skip the window")
}

func TestStatusReportWithoutAuditStore(t *testing.T) {
	journal := &stubJournal{}

	r := NewStatusReporter(journal, nil, time.Minute, testLogger())
	r.report(context.Background(), time.Now().UTC())

	assert.Equal(t, 1, journal.calls)
}
