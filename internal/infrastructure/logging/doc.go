// Package logging provides structured logging for the inventory service.
//
// It wraps log/slog with JSON or text output, level filtering and default
// fields (service, version) on every entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting service", "port", 8080)
//	logger.Component("store").Error("query failed", "error", err)
//
// Never log database DSNs, MQTT passwords or InfluxDB tokens.
package logging
