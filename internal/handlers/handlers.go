// Package handlers decodes telemetry events and feeds the state holders.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mapshow/planplot/internal/dispatcher"
	"github.com/mapshow/planplot/internal/localization"
	"github.com/mapshow/planplot/internal/planning"
	"github.com/mapshow/planplot/internal/transport"
	"github.com/mapshow/planplot/pkg/core"
	"github.com/mapshow/planplot/pkg/streaming"
)

// Topics names the two inbound channels.
type Topics struct {
	Planning     string
	Localization string
}

// DefaultTopics returns the standard channel names.
func DefaultTopics() Topics {
	return Topics{Planning: streaming.TopicPlanning, Localization: streaming.TopicLocalization}
}

// List returns the topics in subscription order.
func (t Topics) List() []string {
	return []string{t.Planning, t.Localization}
}

// Dependencies holds everything the handlers write to.
type Dependencies struct {
	Planning     *planning.Holder
	Localization *localization.Holder
	Topics       Topics
}

// Service provides the per-topic handler methods.
type Service struct {
	deps Dependencies
}

// NewService creates a handler service. Empty topic names fall back to the
// defaults.
func NewService(deps Dependencies) *Service {
	def := DefaultTopics()
	if deps.Topics.Planning == "" {
		deps.Topics.Planning = def.Planning
	}
	if deps.Topics.Localization == "" {
		deps.Topics.Localization = def.Localization
	}
	return &Service{deps: deps}
}

// Topics returns the channel names the service handles.
func (s *Service) Topics() Topics { return s.deps.Topics }

// HandlePlanning decodes a trajectory and stores it.
func (s *Service) HandlePlanning(e dispatcher.Event) error {
	var t core.Trajectory
	if err := decode(e, &t); err != nil {
		return err
	}
	s.deps.Planning.Update(&t)
	return nil
}

// HandleLocalization decodes a pose and stores it.
func (s *Service) HandleLocalization(e dispatcher.Event) error {
	var p core.Pose
	if err := decode(e, &p); err != nil {
		return err
	}
	s.deps.Localization.Update(&p)
	return nil
}

func decode(e dispatcher.Event, v any) error {
	env := streaming.Envelope{Topic: e.Topic, Encoding: e.Encoding, Payload: e.Payload}
	if err := streaming.DecodePayload(env, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Topic, err)
	}
	return nil
}

// RegisterHandlers registers both topics on d. Each topic gets its own
// conflating queue so a slow decode only ever skips stale messages.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher, bufferSize int) {
	bufferSize = max(bufferSize, 1)
	d.Register(s.deps.Topics.Planning, s.HandlePlanning,
		dispatcher.Buffered(bufferSize), dispatcher.Conflate(), dispatcher.Logged())
	d.Register(s.deps.Topics.Localization, s.HandleLocalization,
		dispatcher.Buffered(bufferSize), dispatcher.Conflate(), dispatcher.Logged())
}

// Sink adapts a dispatcher to a transport sink. Envelopes on topics without
// a handler are dropped.
func Sink(d *dispatcher.Dispatcher, logger *slog.Logger) transport.Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return func(env streaming.Envelope) {
		err := d.Dispatch(dispatcher.Event{
			Topic:      env.Topic,
			Encoding:   env.Encoding,
			Payload:    env.Payload,
			Timestamp:  env.Timestamp,
			ReceivedAt: time.Now(),
		})
		switch {
		case err == nil:
		case errors.Is(err, dispatcher.ErrUnknownTopic):
			logger.Debug("No handler for topic", "topic", env.Topic)
		default:
			logger.Warn("Dispatch failed", "topic", env.Topic, "error", err)
		}
	}
}
