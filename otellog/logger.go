// Package otellog builds the service loggers: a plain text slog logger for
// local development and an OpenTelemetry slog-bridge logger with automatic
// trace correlation for deployments with an OTel collector.
package otellog

import (
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// NewBridgeLogger creates a logger routed through the OpenTelemetry slog
// bridge, using the global OTel LoggerProvider.
func NewBridgeLogger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

// NewTextLogger creates a plain slog text logger writing to stdout.
func NewTextLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
