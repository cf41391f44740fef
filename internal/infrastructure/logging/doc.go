// Package logging provides structured logging for retimer-core.
//
// It wraps the standard log/slog package so every component logs in the
// same shape: JSON for production, text for development, with a default
// service/version pair on each entry and level-based filtering.
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting service", "port", 8086)
//
// Never log secrets: broker passwords and InfluxDB tokens stay out of log
// fields.
package logging
