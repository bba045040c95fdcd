// Package feed implements the token discovery feed: a websocket
// subscription to the venue's new-token event stream that emits scored
// opportunities on a channel. The stream is restartable and makes no
// ordering guarantees.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// tokenCreatedEvent is the wire shape of a new-token event.
type tokenCreatedEvent struct {
	Event                  string  `json:"event"`
	Mint                   string  `json:"mint"`
	Name                   string  `json:"name"`
	Symbol                 string  `json:"symbol"`
	Creator                string  `json:"creator"`
	BondingCurve           string  `json:"bonding_curve"`
	AssociatedBondingCurve string  `json:"associated_bonding_curve"`
	Score                  float64 `json:"score"`
	Timestamp              string  `json:"timestamp"`
}

// PumpFunWSFeed subscribes to the venue's new-token websocket stream and
// emits opportunities on a buffered channel. Slow consumers cause events
// to be dropped rather than stalling the read loop.
type PumpFunWSFeed struct {
	wsURL     string
	out       chan domain.Opportunity
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewPumpFunWSFeed creates a feed for the given websocket endpoint.
func NewPumpFunWSFeed(wsURL string, buffer int, logger *slog.Logger) *PumpFunWSFeed {
	if buffer <= 0 {
		buffer = 64
	}
	return &PumpFunWSFeed{
		wsURL:  wsURL,
		out:    make(chan domain.Opportunity, buffer),
		logger: logger.With(slog.String("component", "pumpfun_ws_feed")),
		done:   make(chan struct{}),
	}
}

// Opportunities returns the channel of discovered opportunities.
func (f *PumpFunWSFeed) Opportunities() <-chan domain.Opportunity {
	return f.out
}

// Run connects, subscribes to token-created events, and runs until the
// context is cancelled. Reconnects with exponential backoff on disconnect.
func (f *PumpFunWSFeed) Run(ctx context.Context) error {
	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("feed disconnected, reconnecting",
			slog.String("error", errString(err)),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// Close stops the feed.
func (f *PumpFunWSFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

func (f *PumpFunWSFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	sub := map[string]any{"action": "subscribe", "channel": "token_created"}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	f.logger.Info("subscribed to token_created stream")

	// Ping loop and context watcher; closing the connection unblocks the
	// blocked ReadMessage below.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-pingDone:
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read: %w", domain.ErrWSDisconnect)
		}
		f.handleMessage(data)
	}
}

func (f *PumpFunWSFeed) handleMessage(data []byte) {
	var ev tokenCreatedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		f.logger.Debug("unparseable feed message",
			slog.Int("payload_len", len(data)),
			slog.String("error", err.Error()),
		)
		return
	}
	if ev.Event != "" && ev.Event != "token_created" {
		return
	}
	if strings.TrimSpace(ev.Mint) == "" {
		return
	}

	detectedAt := time.Now().UTC()
	if ev.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, ev.Timestamp); err == nil {
			detectedAt = t
		}
	}

	opp := domain.Opportunity{
		TokenID: ev.Mint,
		Name:    ev.Name,
		Symbol:  ev.Symbol,
		Creator: ev.Creator,
		Route: domain.Route{
			BondingCurve:           ev.BondingCurve,
			AssociatedBondingCurve: ev.AssociatedBondingCurve,
		},
		Score:      ev.Score,
		DetectedAt: detectedAt,
	}

	select {
	case f.out <- opp:
	default:
		f.logger.Warn("opportunity channel full, dropping event",
			slog.String("token_id", opp.TokenID),
		)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Compile-time interface check.
var _ domain.Feed = (*PumpFunWSFeed)(nil)
