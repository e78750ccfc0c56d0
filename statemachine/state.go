// Package statemachine provides a tick-driven finite state machine.
//
// A Machine owns a fixed set of named states and keeps exactly one of them active.
// The host calls Tick once per simulation step; the machine forwards it to the active
// state's PhysicsUpdate and then advances its scheduler so that delayed continuations
// resume on the same goroutine. States never hold a reference to the Machine: they
// ask for transitions through the Link they are given at registration, and the
// machine decides whether the request is valid.
package statemachine

import (
	"context"
	"time"

	"github.com/hexapus/gamecore/scheduler"
)

// State is one mode of behavior of the entity a Machine drives.
type State interface {
	// Enter is called once each time the state becomes active.
	Enter(ctx context.Context)
	// PhysicsUpdate is called once per tick while the state is active.
	// delta is the simulated time since the previous tick, in seconds.
	PhysicsUpdate(ctx context.Context, delta float64)
	// Exit is called once when the state stops being active, before the
	// next state's Enter.
	Exit(ctx context.Context)
}

// Attacher is implemented by states that want to talk back to their machine.
// Attach is called once, from RegisterState.
type Attacher interface {
	Attach(link Link)
}

// Link is the channel from a registered state back to its machine.
type Link struct {
	// Name is the name the state was registered under.
	Name string
	// Request asks the machine to transition to target. Fire and forget:
	// the machine validates the request and reports failures itself.
	Request func(ctx context.Context, target string)
	// Activity returns the scope of the state's current active period. It is
	// closed when the state exits, cancelling anything scheduled through it.
	Activity func() *scheduler.Scope
	// Owner returns the scope of the machine's lifetime, closed by Machine.Close.
	Owner func() *scheduler.Scope
	// Active reports whether the state is the machine's active state.
	Active func() bool
}

// Base is an embeddable State with no-op hooks that keeps the Link it is attached
// with. Embed it and override the hooks you need:
//
//	type idle struct {
//	    statemachine.Base
//	    body Body
//	}
//
//	func (s *idle) Enter(ctx context.Context) { s.body.PlayAnimation("idle") }
type Base struct {
	link Link
}

// Attach implements Attacher.
func (b *Base) Attach(link Link) {
	b.link = link
}

// Name returns the name the state was registered under, or "" if it was never registered.
func (b *Base) Name() string {
	return b.link.Name
}

// Enter does nothing.
func (b *Base) Enter(context.Context) {}

// PhysicsUpdate does nothing.
func (b *Base) PhysicsUpdate(context.Context, float64) {}

// Exit does nothing.
func (b *Base) Exit(context.Context) {}

// RequestTransition asks the owning machine to make target the active state.
// Unattached states drop the request.
func (b *Base) RequestTransition(ctx context.Context, target string) {
	if b.link.Request == nil {
		return
	}

	b.link.Request(ctx, target)
}

// After schedules fn to run once delay has elapsed on the machine's clock, as long
// as the state is still active. Leaving the state cancels it.
func (b *Base) After(delay time.Duration, fn scheduler.Task) *scheduler.Handle {
	if b.link.Activity == nil {
		return scheduler.Cancelled()
	}

	return b.link.Activity().After(delay, fn)
}

// AfterDetached schedules fn to run once delay has elapsed, even if the state has
// been left in the meantime. It is only cancelled when the machine is closed.
func (b *Base) AfterDetached(delay time.Duration, fn scheduler.Task) *scheduler.Handle {
	if b.link.Owner == nil {
		return scheduler.Cancelled()
	}

	return b.link.Owner().After(delay, fn)
}

// Active reports whether this state is currently the machine's active state.
func (b *Base) Active() bool {
	return b.link.Active != nil && b.link.Active()
}
