// Package logger adapts github.com/baditaflorin/l to ports.Logger.
package logger

import (
	"io"
	"os"

	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/baditaflorin/l"
)

// Options selects the output and format of a StdLogger.
type Options struct {
	Output     io.Writer
	JSON       bool
	AsyncWrite bool
}

// StdLogger adapts the l.Logger to the ports.Logger interface.
type StdLogger struct {
	logger l.Logger
}

// NewStdLogger creates a text logger on stdout.
func NewStdLogger() (ports.Logger, error) {
	return NewWithOptions(Options{Output: os.Stdout, AsyncWrite: true})
}

// NewWithOptions creates a logger writing to opts.Output, or stderr when unset.
func NewWithOptions(opts Options) (ports.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return NewCustomStdLogger(l.Config{
		Output:      out,
		JsonFormat:  opts.JSON,
		AsyncWrite:  opts.AsyncWrite,
		BufferSize:  1024 * 1024,      // 1MB buffer
		MaxFileSize: 10 * 1024 * 1024, // 10MB max file size
		MaxBackups:  5,
		AddSource:   true,
		Metrics:     true,
	})
}

// NewCustomStdLogger creates a new standard logger with custom configuration.
func NewCustomStdLogger(config l.Config) (ports.Logger, error) {
	logger, err := l.NewStandardFactory().CreateLogger(config)
	if err != nil {
		return nil, err
	}

	return &StdLogger{logger: logger}, nil
}

// Debug logs a debug message.
func (s *StdLogger) Debug(msg string, keysAndValues ...interface{}) {
	s.logger.Debug(msg, keysAndValues...)
}

// Info logs an info message.
func (s *StdLogger) Info(msg string, keysAndValues ...interface{}) {
	s.logger.Info(msg, keysAndValues...)
}

// Warn logs a warning message.
func (s *StdLogger) Warn(msg string, keysAndValues ...interface{}) {
	s.logger.Warn(msg, keysAndValues...)
}

// Error logs an error message.
func (s *StdLogger) Error(msg string, keysAndValues ...interface{}) {
	s.logger.Error(msg, keysAndValues...)
}

// Close flushes and closes the logger.
func (s *StdLogger) Close() error {
	return s.logger.Close()
}

// FromExisting creates a new StdLogger from an existing l.Logger.
func FromExisting(logger l.Logger) ports.Logger {
	return &StdLogger{logger: logger}
}

// NopLogger discards everything.
type NopLogger struct{}

// NewNop returns a logger that discards everything.
func NewNop() ports.Logger { return NopLogger{} }

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{}) {}
func (NopLogger) Warn(string, ...interface{}) {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Close() error { return nil }
