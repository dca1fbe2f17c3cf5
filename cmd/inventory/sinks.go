package main

import (
	"context"

	"github.com/nerrad567/device-inventory/internal/device"
	"github.com/nerrad567/device-inventory/internal/infrastructure/influxdb"
	"github.com/nerrad567/device-inventory/internal/infrastructure/mqtt"
)

// jsonPublisher is the part of mqtt.Client used for device events.
type jsonPublisher interface {
	PublishJSON(ctx context.Context, topic string, v any) error
}

// mqttSink publishes each device event as JSON on
// inventory/device/{created|updated|deleted}/{id}.
type mqttSink struct {
	client jsonPublisher
}

func newMQTTSink(client jsonPublisher) *mqttSink {
	return &mqttSink{client: client}
}

// Publish implements device.EventSink.
func (s *mqttSink) Publish(ctx context.Context, event device.Event) error {
	topic := mqtt.Topics{}.DeviceEvent(event.Type.Short(), event.Device.ID)
	return s.client.PublishJSON(ctx, topic, event)
}

// deviceEventWriter is the part of influxdb.Client used for device events.
type deviceEventWriter interface {
	WriteDeviceEvent(e influxdb.DeviceEvent) error
}

// influxSink records each device event as a device_events point.
type influxSink struct {
	writer deviceEventWriter
}

func newInfluxSink(writer deviceEventWriter) *influxSink {
	return &influxSink{writer: writer}
}

// Publish implements device.EventSink.
func (s *influxSink) Publish(_ context.Context, event device.Event) error {
	return s.writer.WriteDeviceEvent(influxdb.DeviceEvent{
		Event:         event.Type.Short(),
		DeviceID:      event.Device.ID,
		Brand:         event.Device.Brand,
		State:         string(event.Device.State),
		PreviousState: string(event.PreviousState),
		Time:          event.Timestamp,
	})
}
