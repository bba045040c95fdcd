package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// ClosedTradeStore implements domain.ClosedTradeStore using PostgreSQL.
type ClosedTradeStore struct {
	pool *pgxpool.Pool
}

// NewClosedTradeStore creates a store backed by the given connection pool.
func NewClosedTradeStore(pool *pgxpool.Pool) *ClosedTradeStore {
	return &ClosedTradeStore{pool: pool}
}

const closedTradeSelectCols = `token_id, name, symbol, creator, bonding_curve,
	associated_bonding_curve, entry_price, exit_price, size, pnl_ratio,
	exit_reason, buy_tx_id, sell_tx_id, opened_at, closed_at`

func scanClosedTradeRows(rows pgx.Rows) ([]domain.ClosedTrade, error) {
	var trades []domain.ClosedTrade
	for rows.Next() {
		var t domain.ClosedTrade
		if err := rows.Scan(
			&t.TokenID, &t.Name, &t.Symbol, &t.Creator,
			&t.Route.BondingCurve, &t.Route.AssociatedBondingCurve,
			&t.EntryPrice, &t.ExitPrice, &t.Size, &t.ProfitLossRatio,
			&t.ExitReason, &t.BuyTxID, &t.SellTxID,
			&t.OpenedAt, &t.ClosedAt,
		); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Insert appends one closed trade to the journal. A replay of the same
// close (same token and buy transaction) is silently skipped via ON
// CONFLICT DO NOTHING.
func (s *ClosedTradeStore) Insert(ctx context.Context, trade domain.ClosedTrade) error {
	const query = `
		INSERT INTO closed_trades (
			token_id, name, symbol, creator, bonding_curve,
			associated_bonding_curve, entry_price, exit_price, size,
			pnl_ratio, exit_reason, buy_tx_id, sell_tx_id,
			opened_at, closed_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15
		) ON CONFLICT (token_id, buy_tx_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		trade.TokenID, trade.Name, trade.Symbol, trade.Creator,
		trade.Route.BondingCurve, trade.Route.AssociatedBondingCurve,
		trade.EntryPrice, trade.ExitPrice, trade.Size,
		trade.ProfitLossRatio, trade.ExitReason, trade.BuyTxID, trade.SellTxID,
		trade.OpenedAt, trade.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert closed trade %s: %w", trade.TokenID, err)
	}
	return nil
}

// List returns closed trades with pagination and optional time filtering on
// the close timestamp, newest first.
func (s *ClosedTradeStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.ClosedTrade, error) {
	query := `SELECT ` + closedTradeSelectCols + ` FROM closed_trades WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND closed_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND closed_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY closed_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list closed trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanClosedTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan closed trades: %w", err)
	}
	return trades, nil
}

// ListBefore returns all trades closed strictly before the given time, in
// close order (for archiving).
func (s *ClosedTradeStore) ListBefore(ctx context.Context, before time.Time) ([]domain.ClosedTrade, error) {
	query := `SELECT ` + closedTradeSelectCols + ` FROM closed_trades WHERE closed_at < $1 ORDER BY closed_at ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list closed trades before: %w", err)
	}
	defer rows.Close()
	return scanClosedTradeRows(rows)
}

// DeleteBefore deletes all trades closed before the given time. Returns the
// number deleted.
func (s *ClosedTradeStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM closed_trades WHERE closed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete closed trades before: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.ClosedTradeStore = (*ClosedTradeStore)(nil)
