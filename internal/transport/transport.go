// Package transport defines how telemetry envelopes reach the dispatcher.
package transport

import (
	"context"

	"github.com/mapshow/planplot/pkg/streaming"
)

// Sink receives every message envelope on a subscribed topic. It is called
// from the transport's goroutine and must not block.
type Sink func(streaming.Envelope)

// Subscriber delivers envelopes for topics to sink until ctx is cancelled
// or the source is exhausted.
type Subscriber interface {
	Run(ctx context.Context, topics []string, sink Sink) error
}

// TopicSet returns a membership filter for topics.
func TopicSet(topics []string) map[string]struct{} {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	return set
}
