package logger

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// AnnotateError attaches slog key-value pairs to err. When the error is later
// logged under any key through a logger configured by this package, the pairs
// are added to the record next to it. The annotation survives wrapping with %w.
//
//	if err := runner.Run(ctx, scenario); err != nil {
//	    return logger.AnnotateError(err, "scenario", scenario.Name, "tick", tick)
//	}
//
// Returns nil if err is nil.
func AnnotateError(err error, args ...any) error {
	if err == nil {
		return nil
	}

	r := slog.NewRecord(time.Now(), slog.LevelDebug, "", 0)
	r.Add(args...)

	attrs := make([]slog.Attr, 0, r.NumAttrs())

	r.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)

		return true
	})

	return &slogError{err: err, attrs: attrs}
}

// ErrorAttrs returns the attributes attached to err, or any error it wraps, by AnnotateError.
func ErrorAttrs(err error) []slog.Attr {
	var se *slogError
	if !errors.As(err, &se) {
		return nil
	}

	return se.attrs
}

// slogError is an error carrying structured logging attributes.
type slogError struct {
	err   error
	attrs []slog.Attr
}

func (s *slogError) Error() string {
	return s.err.Error()
}

func (s *slogError) Unwrap() error {
	return s.err
}

var _ error = (*slogError)(nil)

// slogErrorLogger is a slog.Handler decorator that expands annotated errors
// into their attributes.
type slogErrorLogger struct {
	inner slog.Handler
}

var _ slog.Handler = (*slogErrorLogger)(nil)

func (s *slogErrorLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return s.inner.Enabled(ctx, level)
}

func (s *slogErrorLogger) Handle(ctx context.Context, record slog.Record) error {
	var (
		base  []slog.Attr
		extra []slog.Attr
	)

	record.Attrs(func(attr slog.Attr) bool {
		err, isErr := attr.Value.Any().(error)

		var se *slogError
		if isErr && errors.As(err, &se) {
			base = append(base, slog.Any(attr.Key, se.err))
			extra = append(extra, se.attrs...)

			return true
		}

		base = append(base, attr)

		return true
	})

	if len(extra) == 0 {
		return s.inner.Handle(ctx, record)
	}

	r := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	r.AddAttrs(base...)
	r.AddAttrs(extra...)

	return s.inner.Handle(ctx, r)
}

func (s *slogErrorLogger) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &slogErrorLogger{inner: s.inner.WithAttrs(attrs)}
}

func (s *slogErrorLogger) WithGroup(name string) slog.Handler {
	return &slogErrorLogger{inner: s.inner.WithGroup(name)}
}
