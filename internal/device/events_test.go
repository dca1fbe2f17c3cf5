package device

import (
	"context"
	"errors"
	"testing"
)

func TestEventType_Short(t *testing.T) {
	tests := map[EventType]string{
		EventCreated: "created",
		EventUpdated: "updated",
		EventDeleted: "deleted",
		"custom":     "custom",
	}
	for in, want := range tests {
		if got := in.Short(); got != want {
			t.Errorf("%q.Short() = %q, want %q", in, got, want)
		}
	}
}

func TestMultiSink(t *testing.T) {
	first := &recordingSink{}
	failing := &recordingSink{err: errors.New("mqtt offline")}
	last := &recordingSink{}

	sink := MultiSink{first, nil, failing, last}
	err := sink.Publish(context.Background(), Event{Type: EventCreated})

	if err == nil || err.Error() != "mqtt offline" {
		t.Errorf("Publish() error = %v, want mqtt offline", err)
	}
	for name, s := range map[string]*recordingSink{"first": first, "failing": failing, "last": last} {
		if len(s.events) != 1 {
			t.Errorf("%s sink received %d events, want 1", name, len(s.events))
		}
	}
}

func TestEventSinkFunc(t *testing.T) {
	var got Event
	sink := EventSinkFunc(func(_ context.Context, e Event) error {
		got = e
		return nil
	})

	if err := sink.Publish(context.Background(), Event{Type: EventDeleted}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if got.Type != EventDeleted {
		t.Errorf("Type = %q, want %q", got.Type, EventDeleted)
	}
}
