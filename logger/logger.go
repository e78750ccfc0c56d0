// Package logger configures log/slog for gamecore binaries and carries
// per-entity logging context (subsystem, entity, extra key-values) through
// context.Context.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hexapus/gamecore/shutdown"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Used for tagging log lines with the part of the system that produced them.
// Using atomic.Value to ensure thread-safe reads and writes.
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex protects concurrent calls to ConfigureLoggingWithOptions.
// This is necessary because the function modifies global state (slog.SetDefault and log.Default).
var configMutex sync.Mutex //nolint:gochecknoglobals

// Unexported context key type, so keys never collide with other packages.
type contextKey string

// ErrInvalidLogOutput is returned when an invalid log output destination is specified.
var ErrInvalidLogOutput = errors.New("invalid log output")

// Fatal logs an error message, runs the shutdown hooks and exits the application.
func Fatal(msg string, args ...any) {
	slog.Error(msg, args...)

	shutdown.Shutdown()

	time.Sleep(time.Second)

	os.Exit(1)
}

// Options is used to configure logging.
type Options struct {
	Subsystem   string
	JSON        bool
	MinLevel    slog.Level
	LegacyLevel slog.Level
	Output      io.Writer
	// OTelBridge additionally sends every record to the global OpenTelemetry
	// LoggerProvider (see the telemetry package).
	OTelBridge bool
}

// Config is the YAML form of Options.
type Config struct {
	Subsystem string `json:"subsystem,omitempty" yaml:"subsystem,omitempty"`
	JSON      bool   `json:"json,omitempty"      yaml:"json,omitempty"`
	// Level is a slog level name: debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Output is stdout (the default) or stderr.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	OTel   bool   `json:"otel,omitempty"   yaml:"otel,omitempty"`
}

// Options converts the configuration.
func (c Config) Options() (Options, error) {
	opts := Options{
		Subsystem:   c.Subsystem,
		JSON:        c.JSON,
		MinLevel:    slog.LevelInfo,
		LegacyLevel: slog.LevelInfo,
		Output:      os.Stdout,
		OTelBridge:  c.OTel,
	}

	if c.Level != "" {
		if err := opts.MinLevel.UnmarshalText([]byte(c.Level)); err != nil {
			return Options{}, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
	}

	switch strings.ToLower(c.Output) {
	case "", "stdout":
	case "stderr":
		opts.Output = os.Stderr
	default:
		return Options{}, fmt.Errorf("%w: %q", ErrInvalidLogOutput, c.Output)
	}

	return opts, nil
}

// ConfigureLoggingWithOptions configures logging for the application.
// It returns the default logger.
// This function is thread-safe but modifies global state, so concurrent calls
// will be serialized.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level: opts.MinLevel,
	}

	var handler slog.Handler

	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	if opts.OTelBridge {
		name := opts.Subsystem
		if name == "" {
			name = "gamecore"
		}

		handler = withBridge(handler, otelslog.NewHandler(name), opts.MinLevel)
	}

	handler = &slogErrorLogger{inner: handler}

	logger := slog.New(handler)

	slog.SetDefault(logger)

	// Third-party packages may still use the log package; route it through slog.
	def := log.Default()
	*def = *slog.NewLogLogger(handler, opts.LegacyLevel)

	subsystem.Store(opts.Subsystem)

	return logger
}

// WithMuted adds a muted flag to the context. Loggers obtained with Get from a
// muted context discard everything. Useful for per-tick code paths that would
// otherwise flood the output.
func WithMuted(ctx context.Context, muted bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("mute"), muted)
}

func isMuted(ctx context.Context) bool {
	muted, ok := ctx.Value(contextKey("mute")).(bool)

	return ok && muted
}

// WithSubsystem adds a subsystem to the context. If the subsystem is not provided, the default subsystem
// will be used. The default subsystem is set by ConfigureLoggingWithOptions.
func WithSubsystem(ctx context.Context, subsystem string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("subsystem"), subsystem)
}

// GetSubsystem returns the subsystem from the context. If the
// subsystem is not provided, the default subsystem will be used.
func GetSubsystem(ctx context.Context) string { //nolint:contextcheck
	if ctx == nil {
		ctx = context.Background()
	}

	if val, ok := ctx.Value(contextKey("subsystem")).(string); ok {
		return val
	}

	if val, ok := subsystem.Load().(string); ok {
		return val
	}

	return ""
}

// WithEntity adds the name of the simulated entity (player, enemy...) the
// current code is acting for.
func WithEntity(ctx context.Context, entity string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("entity"), entity)
}

// GetEntity returns the entity from the context, if one was set with WithEntity.
func GetEntity(ctx context.Context) (string, bool) { //nolint:contextcheck
	if ctx == nil {
		ctx = context.Background()
	}

	val, ok := ctx.Value(contextKey("entity")).(string)

	return val, ok
}

// getRealContext extracts the first non-nil context from a variadic list.
// If no context is provided or all are nil, it returns context.Background().
func getRealContext(ctx ...context.Context) context.Context {
	for _, c := range ctx {
		if c != nil {
			return c
		}
	}

	return context.Background()
}

// nullHandler is a slog.Handler that discards everything. It backs muted loggers.
type nullHandler struct{}

func (n *nullHandler) Enabled(context.Context, slog.Level) bool { return false }

func (n *nullHandler) Handle(context.Context, slog.Record) error { return nil }

func (n *nullHandler) WithAttrs([]slog.Attr) slog.Handler { return n }

func (n *nullHandler) WithGroup(string) slog.Handler { return n }

var nullLogger = slog.New(&nullHandler{}) //nolint:gochecknoglobals

// Get returns the default logger decorated with what the context carries: the
// subsystem, the entity and any values added with With.
//
//nolint:contextcheck
func Get(ctx ...context.Context) *slog.Logger {
	realCtx := getRealContext(ctx...)

	if isMuted(realCtx) {
		return nullLogger
	}

	logger := slog.Default().With("subsystem", GetSubsystem(realCtx))

	if entity, ok := GetEntity(realCtx); ok {
		logger = logger.With("entity", entity)
	}

	if vals := getValues(realCtx); vals != nil {
		logger = logger.With(vals...)
	}

	return logger
}

// With returns a new context with the given values added.
// The values are added to the logger automatically.
func With(ctx context.Context, values ...any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(values) == 0 {
		return ctx
	}

	prev := getValues(ctx)
	vals := make([]any, 0, len(prev)+len(values))
	vals = append(vals, prev...)
	vals = append(vals, values...)

	return context.WithValue(ctx, contextKey("loggerValues"), vals)
}

// getValues retrieves logger values from the context that were added via With.
func getValues(ctx context.Context) []any {
	vals, _ := ctx.Value(contextKey("loggerValues")).([]any)

	return vals
}
