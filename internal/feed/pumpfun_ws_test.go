package feed

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleMessageEmitsOpportunity(t *testing.T) {
	f := NewPumpFunWSFeed("wss://example", 4, testLogger())

	payload := `{
		"event": "token_created",
		"mint": "mint-1",
		"name": "Moon Cat",
		"symbol": "MCAT",
		"creator": "creator-1",
		"bonding_curve": "curve-1",
		"associated_bonding_curve": "assoc-1",
		"score": 88.5,
		"timestamp": "2026-08-01T10:00:00Z"
	}`
	f.handleMessage([]byte(payload))

	select {
	case opp := <-f.Opportunities():
		assert.Equal(t, "mint-1", opp.TokenID)
		assert.Equal(t, "MCAT", opp.Symbol)
		assert.Equal(t, "curve-1", opp.Route.BondingCurve)
		assert.Equal(t, 88.5, opp.Score)
		assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), opp.DetectedAt)
	default:
		t.Fatal("expected an opportunity on the channel")
	}
}

func TestHandleMessageIgnoresOtherEvents(t *testing.T) {
	f := NewPumpFunWSFeed("wss://example", 4, testLogger())

	f.handleMessage([]byte(`{"event": "trade", "mint": "mint-1"}`))
	f.handleMessage([]byte(`{"event": "token_created", "mint": ""}`))
	f.handleMessage([]byte(`not json`))

	select {
	case opp := <-f.Opportunities():
		t.Fatalf("unexpected opportunity %+v", opp)
	default:
	}
}

func TestHandleMessageDefaultsDetectedAt(t *testing.T) {
	f := NewPumpFunWSFeed("wss://example", 4, testLogger())

	before := time.Now().UTC()
	f.handleMessage([]byte(`{"event": "token_created", "mint": "mint-1", "name": "n", "symbol": "s", "creator": "c"}`))

	opp := <-f.Opportunities()
	assert.False(t, opp.DetectedAt.Before(before))
}

func TestHandleMessageDropsWhenChannelFull(t *testing.T) {
	f := NewPumpFunWSFeed("wss://example", 1, testLogger())

	msg := []byte(`{"event": "token_created", "mint": "mint-1", "name": "n", "symbol": "s", "creator": "c"}`)
	f.handleMessage(msg)
	f.handleMessage(msg) // buffer full, dropped without blocking

	require.Len(t, f.Opportunities(), 1)
}
