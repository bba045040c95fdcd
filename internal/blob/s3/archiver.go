package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// MultipartWriter is implemented by blob writers that can split large
// uploads into parts.
type MultipartWriter interface {
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// TradeArchiver implements domain.Archiver by moving aged closed trades
// from the journal into object storage. Trades are serialised as JSONL,
// uploaded under archive/closed_trades/YYYY-MM.jsonl, and only deleted
// from the journal once the upload succeeded.
type TradeArchiver struct {
	writer domain.BlobWriter
	trades domain.ClosedTradeStore
	audit  domain.AuditStore

	// multipartCutoff is the payload size at which uploads switch to the
	// multipart path, when the writer supports it.
	multipartCutoff int64
}

// NewTradeArchiver creates a TradeArchiver. The audit store may be nil.
func NewTradeArchiver(writer domain.BlobWriter, trades domain.ClosedTradeStore, audit domain.AuditStore) *TradeArchiver {
	return &TradeArchiver{
		writer:          writer,
		trades:          trades,
		audit:           audit,
		multipartCutoff: minPartSize,
	}
}

// ArchiveClosedTrades archives and then deletes all trades closed before
// the cutoff. Returns the number of archived records.
func (a *TradeArchiver) ArchiveClosedTrades(ctx context.Context, before time.Time) (int64, error) {
	trades, err := a.trades.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive closed trades query: %w", err)
	}
	if len(trades) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(trades)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive closed trades marshal: %w", err)
	}

	path := archivePath("closed_trades", before)
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive closed trades upload: %w", err)
	}

	deleted, err := a.trades.DeleteBefore(ctx, before)
	if err != nil {
		// The upload succeeded, so records are safe in the archive even
		// though they remain in the journal. The next run re-archives them.
		return 0, fmt.Errorf("s3blob: archive closed trades delete: %w", err)
	}

	if a.audit != nil {
		if err := a.audit.Log(ctx, "archive.closed_trades", map[string]any{
			"path":    path,
			"count":   int64(len(trades)),
			"deleted": deleted,
			"before":  before.Format(time.RFC3339),
		}); err != nil {
			return deleted, fmt.Errorf("s3blob: archive closed trades audit log: %w", err)
		}
	}

	return int64(len(trades)), nil
}

// upload sends the archive payload in one shot, or through the multipart
// path once it crosses the cutoff.
func (a *TradeArchiver) upload(ctx context.Context, path string, buf []byte) error {
	if mp, ok := a.writer.(MultipartWriter); ok && int64(len(buf)) >= a.multipartCutoff {
		return mp.PutMultipart(ctx, path, bytes.NewReader(buf), a.multipartCutoff)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
}

// archivePath builds the object key for an archive file, partitioned by
// the year-month of the cutoff time.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*TradeArchiver)(nil)
