package websocket

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/mapshow/planplot/pkg/streaming"
)

const (
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
)

var errReconnectFailed = errors.New("websocket reconnect failed after max attempts")

// connection owns one live WebSocket and its read loop, re-dialling with
// exponential backoff when the socket drops.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	done   chan struct{} // closed on shutdown
	failed chan error    // receives once when reconnecting gives up
	closed bool

	wsURL  string
	secret string

	// Subscribe frame replayed after every reconnect.
	subscribeMsg []byte

	topics  map[string]struct{}
	deliver func(streaming.Envelope)

	initialBackoff time.Duration
	logger         *slog.Logger
}

func newConnection(logger *slog.Logger, topics map[string]struct{}, deliver func(streaming.Envelope)) *connection {
	return &connection{
		done:           make(chan struct{}),
		failed:         make(chan error, 1),
		topics:         topics,
		deliver:        deliver,
		initialBackoff: time.Second,
		logger:         logger,
	}
}

// dial connects, sends the subscribe frame and starts the read loop.
func (c *connection) dial(rawURL, secret string, subscribe []byte) error {
	c.wsURL = rawURL
	c.secret = secret
	c.subscribeMsg = subscribe

	conn, err := c.dialOnce()
	if err != nil {
		return err
	}
	if err := c.writeText(conn, subscribe); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to send subscribe: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// dialOnce performs a single WebSocket dial with the secret query param.
func (c *connection) dialOnce() (*ws.Conn, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if c.secret != "" {
		q := u.Query()
		q.Set("secret", c.secret)
		u.RawQuery = q.Encode()
	}

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (c *connection) writeText(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

// readLoop decodes frames from conn until it fails. Text frames are JSON,
// binary frames msgpack.
func (c *connection) readLoop(conn *ws.Conn) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Warn("WebSocket read error", "error", err)
			go c.reconnect()
			return
		}

		encoding := streaming.EncodingJSON
		if kind == ws.BinaryMessage {
			encoding = streaming.EncodingMsgpack
		}
		env, err := streaming.UnmarshalFrame(data, encoding)
		if err != nil {
			c.logger.Debug("Undecodable frame dropped", "error", err, "size", len(data))
			continue
		}

		switch env.Type {
		case streaming.TypeMessage:
			if _, ok := c.topics[env.Topic]; ok {
				c.deliver(env)
			}
		case streaming.TypeAck:
			c.logger.Debug("Subscription acknowledged")
		default:
			c.logger.Debug("Unhandled frame type", "type", env.Type)
		}
	}
}

// reconnect re-establishes the connection with exponential backoff and
// replays the subscribe frame. After maxReconnect failed attempts it
// reports errReconnectFailed on c.failed.
func (c *connection) reconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	backoff := c.initialBackoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		c.logger.Info("Reconnecting to WebSocket", "attempt", attempt, "backoff", backoff)
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		conn, err := c.dialOnce()
		if err == nil {
			err = c.writeText(conn, c.subscribeMsg)
			if err != nil {
				_ = conn.Close()
			}
		}
		if err != nil {
			c.logger.Warn("Reconnect failed", "attempt", attempt, "error", err)
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()

		c.logger.Info("WebSocket reconnected", "attempt", attempt)
		go c.readLoop(conn)
		return
	}

	c.logger.Error("WebSocket reconnect failed after max attempts", "maxAttempts", maxReconnect)
	select {
	case c.failed <- errReconnectFailed:
	default:
	}
}

// close sends a close frame and stops the read loop.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		return conn.Close()
	}
	return nil
}
