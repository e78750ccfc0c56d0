package logger

import (
	"context"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// withBridge sends every record to local, and records at or above level to bridge.
func withBridge(local, bridge slog.Handler, level slog.Level) slog.Handler {
	return slogmulti.Fanout(
		local,
		slogmulti.Router().
			Add(bridge, atLeast(level)).
			Handler(),
	)
}

func atLeast(level slog.Level) func(context.Context, slog.Record) bool {
	return func(_ context.Context, r slog.Record) bool {
		return r.Level >= level
	}
}
