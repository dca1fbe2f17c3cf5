package device

import (
	"context"
	"errors"
	"strings"
	"time"
)

// EventType names a device lifecycle notification.
type EventType string

// Event types.
const (
	EventCreated EventType = "device.created"
	EventUpdated EventType = "device.updated"
	EventDeleted EventType = "device.deleted"
)

// Short returns the type without the "device." prefix, e.g. "created".
func (t EventType) Short() string {
	return strings.TrimPrefix(string(t), "device.")
}

// Event describes a completed change to a device.
type Event struct {
	Type EventType `json:"type"`

	// Device is the record after the change (before it, for deletions).
	Device Device `json:"device"`

	// PreviousState is set on updates that changed the state.
	PreviousState DeviceState `json:"previousState,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives device events.
//
// Delivery is best effort: the Service logs sink errors and never fails an
// operation because of them.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event Event) error

// Publish implements EventSink.
func (f EventSinkFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// MultiSink fans an event out to every sink. All sinks are attempted and
// their errors joined.
type MultiSink []EventSink

// Publish implements EventSink.
func (m MultiSink) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
