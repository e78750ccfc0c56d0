// Package shutdown turns SIGINT/SIGTERM into context cancellation and runs
// registered cleanup hooks (flushing telemetry, closing machines) first.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// HookTimeout bounds how long all hooks together may run.
const HookTimeout = 10 * time.Second

// Hook is a cleanup function run before the root context is cancelled.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

var (
	mut     sync.Mutex     //nolint:gochecknoglobals
	hooks   []namedHook    //nolint:gochecknoglobals
	channel chan os.Signal //nolint:gochecknoglobals
)

// BeforeShutdown registers a hook to be called before the root context is
// cancelled. Hooks run in reverse registration order, like deferred calls, so
// things set up first are torn down last.
func BeforeShutdown(name string, h Hook) {
	mut.Lock()
	defer mut.Unlock()

	hooks = append(hooks, namedHook{name: name, fn: h})
}

// Shutdown triggers the shutdown process. Usually the
// shutdown is kicked off by a signal handler, but this
// function can be used to trigger it programmatically.
func Shutdown() {
	mut.Lock()
	ch := channel
	mut.Unlock()

	if ch == nil {
		return
	}

	select {
	case ch <- os.Interrupt:
	default:
	}
}

// SetupHandler installs a SIGINT/SIGTERM handler and returns a child of parent
// that is cancelled once a signal arrives (or Shutdown is called) and every
// hook has run.
func SetupHandler(parent context.Context) context.Context {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	mut.Lock()
	channel = ch
	mut.Unlock()

	ctx, cancel := context.WithCancel(parent)

	go func() {
		defer cancel()

		select {
		case sig := <-ch:
			slog.Warn("Received " + sig.String() + ", shutting down...")
		case <-parent.Done():
		}

		signal.Stop(ch)

		mut.Lock()
		if channel == ch {
			channel = nil
		}
		mut.Unlock()

		hookCtx, hookCancel := context.WithTimeout(context.WithoutCancel(parent), HookTimeout)
		defer hookCancel()

		cleanup(hookCtx)
	}()

	return ctx
}

// cleanup runs and clears the registered hooks.
func cleanup(ctx context.Context) {
	mut.Lock()
	pending := hooks
	hooks = nil
	mut.Unlock()

	for i := len(pending) - 1; i >= 0; i-- {
		h := pending[i]

		if err := h.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "shutdown hook failed", "hook", h.name, "error", err)
		}
	}
}
