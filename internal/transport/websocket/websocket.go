// Package websocket subscribes to telemetry topics on a streaming server
// over a WebSocket.
package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mapshow/planplot/internal/transport"
	"github.com/mapshow/planplot/pkg/streaming"
)

// Config holds WebSocket subscriber configuration.
type Config struct {
	URL    string // e.g. "ws://localhost:8888/stream"
	Secret string
}

// Subscriber is a transport.Subscriber backed by a WebSocket connection.
type Subscriber struct {
	cfg      Config
	clientID string
	logger   *slog.Logger

	// first reconnect delay; doubles up to maxBackoff
	backoff time.Duration
}

// New creates a subscriber with a fresh client ID.
func New(cfg Config, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Subscriber{
		cfg:      cfg,
		clientID: id,
		logger:   logger.With("component", "websocket", "clientId", id),
		backoff:  time.Second,
	}
}

// ClientID returns the ID sent in the subscribe frame.
func (s *Subscriber) ClientID() string { return s.clientID }

// Run dials the server, subscribes to topics and delivers message envelopes
// to sink until ctx is cancelled. It returns an error when the first dial
// fails or reconnecting gives up.
func (s *Subscriber) Run(ctx context.Context, topics []string, sink transport.Sink) error {
	subscribe, err := streaming.MarshalFrame(streaming.TypeSubscribe, "", 0,
		streaming.SubscribePayload{ClientID: s.clientID, Topics: topics}, streaming.EncodingJSON)
	if err != nil {
		return err
	}

	c := newConnection(s.logger, transport.TopicSet(topics), sink)
	c.initialBackoff = s.backoff
	if err := c.dial(s.cfg.URL, s.cfg.Secret, subscribe); err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	s.logger.Info("WebSocket subscribed", "url", s.cfg.URL, "topics", topics)

	select {
	case <-ctx.Done():
		return c.close()
	case err := <-c.failed:
		_ = c.close()
		return err
	}
}

var _ transport.Subscriber = (*Subscriber)(nil)
