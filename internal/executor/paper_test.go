package executor

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

type stubPrices struct {
	price float64
	err   error
}

func (s *stubPrices) Price(ctx context.Context, route domain.Route) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOpp() domain.Opportunity {
	return domain.Opportunity{
		TokenID: "mint-1",
		Name:    "Test",
		Symbol:  "TST",
		Creator: "creator-1",
		Route:   domain.Route{BondingCurve: "curve-1", AssociatedBondingCurve: "assoc-1"},
		Score:   90,
	}
}

func TestPaperBuyDeductsBalance(t *testing.T) {
	prices := &stubPrices{price: 0.001}
	p := NewPaperTrader(prices, 10, testLogger())
	ctx := context.Background()

	fill, err := p.Buy(ctx, testOpp(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0.001, fill.Price)
	assert.NotEmpty(t, fill.TxID)

	balance, err := p.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 9, balance, 1e-9)
}

func TestPaperBuyRejectsOverdraft(t *testing.T) {
	p := NewPaperTrader(&stubPrices{price: 0.001}, 0.5, testLogger())

	_, err := p.Buy(context.Background(), testOpp(), 1)
	assert.ErrorIs(t, err, domain.ErrExecution)

	balance, err := p.Balance(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, balance, 1e-9)
}

func TestPaperSellRealizesPnL(t *testing.T) {
	prices := &stubPrices{price: 0.001}
	p := NewPaperTrader(prices, 10, testLogger())
	ctx := context.Background()

	opp := testOpp()
	_, err := p.Buy(ctx, opp, 1)
	require.NoError(t, err)

	// Price doubles; the position's value doubles with it.
	prices.price = 0.002
	fill, err := p.Sell(ctx, opp.TokenID, opp.Route)
	require.NoError(t, err)
	assert.Equal(t, 0.002, fill.Price)

	balance, err := p.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 11, balance, 1e-9)
}

func TestPaperSellUnknownTokenIsNotFound(t *testing.T) {
	p := NewPaperTrader(&stubPrices{price: 0.001}, 10, testLogger())

	_, err := p.Sell(context.Background(), "missing", domain.Route{BondingCurve: "c"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaperSellIsExactlyOnce(t *testing.T) {
	prices := &stubPrices{price: 0.001}
	p := NewPaperTrader(prices, 10, testLogger())
	ctx := context.Background()

	opp := testOpp()
	_, err := p.Buy(ctx, opp, 1)
	require.NoError(t, err)

	_, err = p.Sell(ctx, opp.TokenID, opp.Route)
	require.NoError(t, err)

	_, err = p.Sell(ctx, opp.TokenID, opp.Route)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
