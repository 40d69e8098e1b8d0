package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// LogHandlerSpy is a slog.Handler that captures log records for assertions.
type LogHandlerSpy struct {
	mu      sync.Mutex
	records []slog.Record
}

// NewLogHandlerSpy creates a LogHandlerSpy.
func NewLogHandlerSpy() *LogHandlerSpy {
	return &LogHandlerSpy{records: make([]slog.Record, 0)}
}

// Handle captures the record.
func (s *LogHandlerSpy) Handle(_ context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)

	return nil
}

// Enabled reports true for every level.
func (s *LogHandlerSpy) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// WithAttrs returns the handler unchanged.
func (s *LogHandlerSpy) WithAttrs(_ []slog.Attr) slog.Handler {
	return s
}

// WithGroup returns the handler unchanged.
func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

// Records returns a copy of the captured records.
func (s *LogHandlerSpy) Records() []slog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]slog.Record, len(s.records))
	copy(records, s.records)

	return records
}

// HasMessage reports whether any captured record carries the message.
func (s *LogHandlerSpy) HasMessage(message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Message == message {
			return true
		}
	}

	return false
}
