package ledger

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

func testPosition(tokenID string, entryPrice float64) domain.Position {
	return domain.Position{
		TokenID:    tokenID,
		Name:       "Test Token",
		Symbol:     "TEST",
		Creator:    "creator-1",
		EntryPrice: entryPrice,
		Size:       0.5,
		BuyTxID:    "buy-" + tokenID,
		OpenedAt:   time.Now().UTC(),
	}
}

func TestOpenAndClose(t *testing.T) {
	l := New()

	pos, err := l.Open(testPosition("mint-1", 0.001))
	require.NoError(t, err)
	assert.Equal(t, "mint-1", pos.TokenID)
	assert.Equal(t, 1, l.OpenCount())

	trade, err := l.Close("mint-1", 0.0012, "take_profit", "sell-1", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 0, l.OpenCount())
	assert.Equal(t, "take_profit", trade.ExitReason)
	assert.InDelta(t, 0.2, trade.ProfitLossRatio, 1e-9)
	assert.Len(t, l.ClosedTrades(), 1)
}

func TestOpenRejectsInvalidInput(t *testing.T) {
	l := New()

	cases := []struct {
		name string
		pos  domain.Position
	}{
		{"empty token id", domain.Position{Size: 1, EntryPrice: 1}},
		{"zero size", domain.Position{TokenID: "m", Size: 0, EntryPrice: 1}},
		{"negative size", domain.Position{TokenID: "m", Size: -1, EntryPrice: 1}},
		{"zero entry price", domain.Position{TokenID: "m", Size: 1, EntryPrice: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Open(tc.pos)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, l.OpenCount())
}

func TestOpenRejectsDuplicateWithoutMutation(t *testing.T) {
	l := New()

	original := testPosition("mint-1", 0.001)
	_, err := l.Open(original)
	require.NoError(t, err)

	dup := testPosition("mint-1", 0.005)
	_, err = l.Open(dup)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// The stored position is untouched.
	got, err := l.Get("mint-1")
	require.NoError(t, err)
	assert.Equal(t, original.EntryPrice, got.EntryPrice)
	assert.Equal(t, 1, l.OpenCount())
}

func TestCloseUnknownTokenIsNotFound(t *testing.T) {
	l := New()

	_, err := l.Close("missing", 1, "stop_loss", "sell-1", time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, l.ClosedTrades())
}

func TestCloseIsExactlyOnce(t *testing.T) {
	l := New()
	_, err := l.Open(testPosition("mint-1", 0.001))
	require.NoError(t, err)

	_, err = l.Close("mint-1", 0.001, "max_hold_time", "sell-1", time.Now().UTC())
	require.NoError(t, err)

	// Second close of the same token must fail and leave history alone.
	_, err = l.Close("mint-1", 0.001, "max_hold_time", "sell-2", time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, l.ClosedTrades(), 1)
}

func TestRoundTripAtEntryPriceIsZeroPnL(t *testing.T) {
	l := New()
	_, err := l.Open(testPosition("mint-1", 0.003))
	require.NoError(t, err)

	trade, err := l.Close("mint-1", 0.003, "max_hold_time", "sell-1", time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, trade.ProfitLossRatio)

	s := l.PerformanceSummary()
	assert.Equal(t, 1, s.TotalClosed)
	assert.Equal(t, 0, s.WinCount)
	assert.Zero(t, s.TotalPnL)
}

func TestPerformanceSummary(t *testing.T) {
	l := New()

	// Empty history: all zeros, no division by zero.
	s := l.PerformanceSummary()
	assert.Zero(t, s.TotalClosed)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.AveragePnL)

	now := time.Now().UTC()
	_, err := l.Open(testPosition("win", 0.001))
	require.NoError(t, err)
	_, err = l.Close("win", 0.002, "take_profit", "s1", now)
	require.NoError(t, err)

	_, err = l.Open(testPosition("loss", 0.001))
	require.NoError(t, err)
	_, err = l.Close("loss", 0.0005, "stop_loss", "s2", now)
	require.NoError(t, err)

	s = l.PerformanceSummary()
	assert.Equal(t, 2, s.TotalClosed)
	assert.Equal(t, 1, s.WinCount)
	assert.InDelta(t, 0.5, s.WinRate, 1e-9)
	assert.InDelta(t, 0.5, s.TotalPnL, 1e-9)
	assert.InDelta(t, 0.25, s.AveragePnL, 1e-9)

	// Summaries are read-only; a second call sees the same history.
	again := l.PerformanceSummary()
	assert.Equal(t, s, again)
}

func TestSnapshotDoesNotTrackMutation(t *testing.T) {
	l := New()
	_, err := l.Open(testPosition("mint-1", 0.001))
	require.NoError(t, err)

	snap := l.GetOpen()
	require.Len(t, snap, 1)

	_, err = l.Close("mint-1", 0.001, "max_hold_time", "s1", time.Now().UTC())
	require.NoError(t, err)

	assert.Len(t, snap, 1, "snapshot should be unaffected by later close")
	assert.Equal(t, 0, l.OpenCount())
}

func TestConcurrentOpensSingleWinner(t *testing.T) {
	l := New()

	const goroutines = 32
	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Open(testPosition("contended", 0.001))
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var successes, duplicates int
	for err := range errCh {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrAlreadyExists):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, goroutines-1, duplicates)
	assert.Equal(t, 1, l.OpenCount())
}
