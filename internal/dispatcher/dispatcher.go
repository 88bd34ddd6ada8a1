package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrUnknownTopic is returned when no handler is registered for a topic.
	ErrUnknownTopic = errors.New("unknown topic")
	// ErrQueueFull is returned when a non-blocking buffered handler drops an event.
	ErrQueueFull = errors.New("queue full")
)

// Event is one message received on a subscribed topic. Payload is still
// encoded.
type Event struct {
	Topic      string
	Encoding   string
	Payload    []byte
	Timestamp  float64 // sender clock, seconds
	ReceivedAt time.Time
}

// HandlerFunc processes an event.
type HandlerFunc func(Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	conflate   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Conflate makes a buffered handler evict the oldest pending event when the
// queue is full, so the handler always catches up to the newest message.
// It takes precedence over Blocking.
func Conflate() Option {
	return func(c *config) {
		c.conflate = true
	}
}

// Logged adds debug logging and error logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to the handler registered for their topic.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter
	replaced  metric.Int64Counter

	// Track buffers for gauge callback
	mu      sync.RWMutex
	buffers map[string]chan Event
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		buffers:  make(map[string]chan Event),
		logger:   logger,
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events waiting per topic"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for topic, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("topic", topic)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	if d.processed, err = m.Int64Counter("dispatcher.events.processed",
		metric.WithDescription("Total events handled")); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if d.failed, err = m.Int64Counter("dispatcher.events.failed",
		metric.WithDescription("Total events whose handler returned an error")); err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	if d.dropped, err = m.Int64Counter("dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue")); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	if d.replaced, err = m.Int64Counter("dispatcher.events.replaced",
		metric.WithDescription("Total pending events evicted by a newer one")); err != nil {
		return nil, fmt.Errorf("creating replaced counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given topic with optional configuration.
// Registration happens at startup, before any Dispatch.
func (d *Dispatcher) Register(topic string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.logged {
		handler = d.withLogging(topic, handler)
	}

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(topic, cfg, handler)
	}

	d.handlers[topic] = handler
}

// Dispatch routes an event to its registered handler. For buffered
// handlers the returned error only reports queueing.
func (d *Dispatcher) Dispatch(e Event) error {
	h, ok := d.handlers[e.Topic]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, e.Topic)
	}
	return h(e)
}

func (d *Dispatcher) withBuffer(topic string, cfg *config, h HandlerFunc) HandlerFunc {
	buffer := make(chan Event, cfg.bufferSize)

	d.mu.Lock()
	d.buffers[topic] = buffer
	d.mu.Unlock()

	topicAttr := metric.WithAttributes(attribute.String("topic", topic))

	go func() {
		for e := range buffer {
			if err := h(e); err != nil {
				d.failed.Add(context.Background(), 1, topicAttr)
			}
			d.processed.Add(context.Background(), 1, topicAttr)
		}
	}()

	switch {
	case cfg.conflate:
		return func(e Event) error {
			for {
				select {
				case buffer <- e:
					return nil
				default:
				}
				select {
				case <-buffer:
					d.replaced.Add(context.Background(), 1, topicAttr)
				default:
				}
			}
		}
	case cfg.blocking:
		return func(e Event) error {
			buffer <- e
			return nil
		}
	default:
		return func(e Event) error {
			select {
			case buffer <- e:
				return nil
			default:
				d.dropped.Add(context.Background(), 1, topicAttr)
				return fmt.Errorf("%w: %s", ErrQueueFull, topic)
			}
		}
	}
}

func (d *Dispatcher) withLogging(topic string, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		start := time.Now()
		d.logger.Debug("handling event", "topic", topic, "bytes", len(e.Payload))

		err := h(e)

		if err != nil {
			d.logger.Error("event failed", "topic", topic, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "topic", topic, "duration", time.Since(start))
		}

		return err
	}
}
