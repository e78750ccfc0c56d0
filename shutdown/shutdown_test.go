package shutdown

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	mut.Lock()
	defer mut.Unlock()

	hooks = nil
	channel = nil
}

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled")
	}
}

func TestBeforeShutdown(t *testing.T) { //nolint:paralleltest
	reset()

	var called atomic.Int32

	BeforeShutdown("one", func(context.Context) error {
		called.Add(1)

		return nil
	})
	BeforeShutdown("ten", func(context.Context) error {
		called.Add(10)

		return errors.New("flush failed") //nolint:err113 // test error
	})

	cleanup(t.Context())

	assert.Equal(t, int32(11), called.Load())

	mut.Lock()
	assert.Nil(t, hooks)
	mut.Unlock()
}

func TestHooksRunInReverseOrder(t *testing.T) { //nolint:paralleltest
	reset()

	var order []int

	for i := 1; i <= 3; i++ {
		BeforeShutdown("hook", func(context.Context) error {
			order = append(order, i)

			return nil
		})
	}

	cleanup(t.Context())

	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestSetupHandlerSignal(t *testing.T) { //nolint:paralleltest
	for _, sig := range []syscall.Signal{syscall.SIGTERM, syscall.SIGINT} {
		reset()

		ctx := SetupHandler(context.Background())

		mut.Lock()
		ch := channel
		mut.Unlock()
		require.NotNil(t, ch)

		var hookCalled atomic.Bool

		BeforeShutdown("flag", func(context.Context) error {
			hookCalled.Store(true)

			return nil
		})

		ch <- sig

		waitDone(t, ctx)
		assert.True(t, hookCalled.Load(), sig.String())

		mut.Lock()
		assert.Nil(t, channel)
		mut.Unlock()
	}
}

func TestShutdown(t *testing.T) { //nolint:paralleltest
	reset()

	ctx := SetupHandler(context.Background())

	var hookSawLiveContext atomic.Bool

	BeforeShutdown("check", func(hookCtx context.Context) error {
		hookSawLiveContext.Store(ctx.Err() == nil && hookCtx.Err() == nil)

		return nil
	})

	Shutdown()

	waitDone(t, ctx)
	assert.True(t, hookSawLiveContext.Load(), "hooks run before the root context is cancelled")
}

func TestParentCancellationRunsHooks(t *testing.T) { //nolint:paralleltest
	reset()

	parent, cancel := context.WithCancel(context.Background())
	ctx := SetupHandler(parent)

	var hookCalled atomic.Bool

	BeforeShutdown("flag", func(hookCtx context.Context) error {
		hookCalled.Store(hookCtx.Err() == nil)

		return nil
	})

	cancel()

	waitDone(t, ctx)

	require.Eventually(t, hookCalled.Load, time.Second, 10*time.Millisecond)
}

func TestShutdownWithoutSetup(t *testing.T) { //nolint:paralleltest
	reset()

	assert.NotPanics(t, Shutdown)
}

func TestConcurrentBeforeShutdown(t *testing.T) { //nolint:paralleltest
	reset()

	const numGoroutines = 100

	var wg sync.WaitGroup

	for range numGoroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			BeforeShutdown("noop", func(context.Context) error { return nil })
		}()
	}

	wg.Wait()

	mut.Lock()
	assert.Len(t, hooks, numGoroutines)
	mut.Unlock()
}
