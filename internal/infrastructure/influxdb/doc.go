// Package influxdb records device lifecycle events as InfluxDB time series.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health monitoring.
//
// # Data Model
//
//	measurement: device_events
//	tags:        event (created|updated|deleted), brand, state
//	fields:      device_id, count, previous_state (state changes only)
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.WriteDeviceEvent(influxdb.DeviceEvent{
//	    Event: "created", DeviceID: d.ID, Brand: d.Brand, State: string(d.State),
//	})
//
// # Error Handling
//
// Writes are non-blocking and batched according to config.yaml
// (batch_size, flush_interval). Batch failures are delivered to the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
