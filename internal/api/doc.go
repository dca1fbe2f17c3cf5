// Package api implements the HTTP REST API for the device inventory.
//
// This package provides:
//   - REST endpoints for device CRUD, state changes and state history
//   - Health and metrics endpoints
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Routes
//
//	GET    /health                          liveness and dependency health
//	GET    /api/v1/health                   same as /health
//	GET    /api/v1/metrics                  runtime, pool and inventory metrics
//	GET    /api/v1/devices                  list (brand, state, page, size)
//	POST   /api/v1/devices                  create {name, brand}
//	GET    /api/v1/devices/stats            totals per state
//	GET    /api/v1/devices/{id}             fetch one
//	PATCH  /api/v1/devices/{id}             partial update {name?, brand?, state?}
//	PUT    /api/v1/devices/{id}/state       state only {state}
//	DELETE /api/v1/devices/{id}             delete an AVAILABLE device
//	GET    /api/v1/devices/{id}/history     state transitions (limit)
//
// # Errors
//
// Failures use one body shape, {status, code, message, timestamp}. Service
// errors are mapped to status codes in writeServiceError.
//
// # Graceful Degradation
//
// MQTT and InfluxDB are optional. Their failures mark /health degraded but
// never fail a request.
package api
