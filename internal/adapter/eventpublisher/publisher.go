// Package eventpublisher fans live events out to every sink: the websocket
// hub the pages listen on, and optionally a Redis channel for observers
// outside the process.
package eventpublisher

import (
	"errors"
	"fmt"
	"log/slog"
)

// Sink receives a named event whose payload is already a wire value.
type Sink interface {
	Publish(name string, payload any) error
}

// EventPublisher implements app.Publisher. The primary sink's error is
// returned; secondary sinks only log.
type EventPublisher struct {
	primary   Sink
	secondary []Sink
}

func New(primary Sink, secondary ...Sink) *EventPublisher {
	return &EventPublisher{primary: primary, secondary: secondary}
}

func (ep *EventPublisher) Publish(name string, payload any) error {
	var errs []error
	if err := ep.primary.Publish(name, payload); err != nil {
		errs = append(errs, fmt.Errorf("publish %s: %w", name, err))
	}

	for _, s := range ep.secondary {
		if err := s.Publish(name, payload); err != nil {
			slog.Warn("Failed to mirror event", "event", name, "error", err)
		}
	}
	return errors.Join(errs...)
}
