package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementDeviceEvents is the measurement holding device lifecycle events.
const MeasurementDeviceEvents = "device_events"

// DeviceEvent is one device lifecycle change to record.
type DeviceEvent struct {
	// Event is the short event name: created, updated or deleted.
	Event string

	DeviceID int64
	Brand    string
	State    string

	// PreviousState is set when the event changed the state.
	PreviousState string

	Time time.Time
}

// WriteDeviceEvent records a device lifecycle event.
//
// Event, brand and state are tags; the device ID is a field to keep series
// cardinality bounded. The write is non-blocking; points are batched and
// sent asynchronously.
//
// Returns:
//   - error: ErrNotConnected if the client is closed
func (c *Client) WriteDeviceEvent(e DeviceEvent) error {
	if c.closed.Load() {
		return ErrNotConnected
	}
	c.writeAPI.WritePoint(newDeviceEventPoint(e))
	return nil
}

func newDeviceEventPoint(e DeviceEvent) *write.Point {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	tags := map[string]string{
		"event": e.Event,
		"brand": e.Brand,
		"state": e.State,
	}
	fields := map[string]interface{}{
		"device_id": e.DeviceID,
		"count":     int64(1),
	}
	if e.PreviousState != "" {
		fields["previous_state"] = e.PreviousState
	}

	return write.NewPoint(MeasurementDeviceEvents, tags, fields, ts)
}
