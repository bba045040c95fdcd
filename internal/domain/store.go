package domain

import (
	"context"
	"io"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// ClosedTradeStore persists the append-only closed-trade journal. The
// journal mirrors the in-memory ledger history for reporting and archival;
// it is never read back into live trading state.
type ClosedTradeStore interface {
	Insert(ctx context.Context, trade ClosedTrade) error
	List(ctx context.Context, opts ListOpts) ([]ClosedTrade, error)
	ListBefore(ctx context.Context, before time.Time) ([]ClosedTrade, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log of engine events.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver moves aged closed trades from the journal into blob storage.
type Archiver interface {
	ArchiveClosedTrades(ctx context.Context, before time.Time) (int64, error)
}
