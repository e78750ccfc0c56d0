package statemachine

import (
	"context"
	"log/slog"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityWarning is a misconfiguration the machine recovered from.
	SeverityWarning Severity = iota + 1
	// SeverityError is a rejected operation.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a non-fatal report from a machine. Every rejected operation and
// every fallback produces exactly one.
type Diagnostic struct {
	MachineID string
	Machine   string
	Severity  Severity
	// Code is the sentinel error describing what happened, e.g. ErrStateNotFound.
	Code error
	// State is the active (or requesting) state, if any.
	State string
	// Target is the requested state, if any.
	Target  string
	Message string
}

// Sink receives diagnostics. Implementations are called on the ticking goroutine
// and should not block.
type Sink interface {
	Report(ctx context.Context, d Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, d Diagnostic)

// Report implements Sink.
func (f SinkFunc) Report(ctx context.Context, d Diagnostic) {
	f(ctx, d)
}

// MultiSink fans a diagnostic out to several sinks. Nil sinks are skipped.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Report(ctx, d)
			}
		}
	})
}

// SlogSink writes diagnostics to a slog.Logger: warnings at Warn, errors at Error.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink that logs to logger, or to slog.Default() if logger is nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &SlogSink{logger: logger}
}

// Report implements Sink.
func (s *SlogSink) Report(ctx context.Context, d Diagnostic) {
	fields := []any{
		"machine", d.Machine,
		"machine_id", d.MachineID,
	}

	if d.State != "" {
		fields = append(fields, "state", d.State)
	}

	if d.Target != "" {
		fields = append(fields, "target", d.Target)
	}

	if d.Code != nil {
		fields = append(fields, "error", d.Code)
	}

	level := slog.LevelError
	if d.Severity == SeverityWarning {
		level = slog.LevelWarn
	}

	s.logger.Log(ctx, level, d.Message, fields...)
}
