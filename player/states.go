package player

import (
	"context"
	"time"

	"github.com/hexapus/gamecore/statemachine"
)

// State names.
const (
	StateIdle      = "Idle"
	StateWalk      = "Walk"
	StateDead      = "Dead"
	StateKnockback = "Knockback"
)

// Animation names.
const (
	AnimIdle      = "idle"
	AnimWalk      = "walk"
	AnimDeath     = "death"
	AnimKnockback = "knockback"
)

// State kinds, as used in MachineConfig.
const (
	KindIdle      = "idle"
	KindWalk      = "walk"
	KindDead      = "dead"
	KindKnockback = "knockback"
)

// controls is what player states may do to their player.
type controls interface {
	direction() Vector
	move(direction Vector, delta float64)
	applyVelocity(delta float64)
	playAnimation(name string)
	stopAnimations()
	setCanAttack(canAttack bool)
	knockback()
	die(ctx context.Context)
}

type idleState struct {
	statemachine.Base

	p controls
}

func (s *idleState) Enter(context.Context) {
	s.p.playAnimation(AnimIdle)
}

func (s *idleState) PhysicsUpdate(ctx context.Context, delta float64) {
	if !s.p.direction().IsZero() {
		s.RequestTransition(ctx, StateWalk)

		return
	}

	s.p.move(Zero, delta)
	s.p.applyVelocity(delta)
}

type walkState struct {
	statemachine.Base

	p controls
}

func (s *walkState) Enter(context.Context) {
	s.p.playAnimation(AnimWalk)
}

func (s *walkState) PhysicsUpdate(ctx context.Context, delta float64) {
	dir := s.p.direction()
	if dir.IsZero() {
		s.RequestTransition(ctx, StateIdle)

		return
	}

	s.p.move(dir, delta)
	s.p.applyVelocity(delta)
}

func (s *walkState) Exit(context.Context) {
	s.p.stopAnimations()
}

type knockbackState struct {
	statemachine.Base

	p        controls
	duration time.Duration
}

func (s *knockbackState) Enter(context.Context) {
	s.p.playAnimation(AnimKnockback)
	s.p.knockback()

	s.After(s.duration, func(ctx context.Context) {
		s.RequestTransition(ctx, StateIdle)
	})
}

func (s *knockbackState) PhysicsUpdate(_ context.Context, delta float64) {
	s.p.applyVelocity(delta)
}

// deadState is terminal. Its clean-up continuation is tied to the machine, not
// to the state, so it only stops if the machine is closed first.
type deadState struct {
	statemachine.Base

	p     controls
	delay time.Duration
}

func (s *deadState) Enter(context.Context) {
	s.p.setCanAttack(false)
	s.p.playAnimation(AnimDeath)

	s.AfterDetached(s.delay, s.p.die)
}

// MachineConfig describes the player's state machine.
func MachineConfig(cfg Config) *statemachine.Config {
	cfg = cfg.WithDefaults()

	return &statemachine.Config{
		Name:         cfg.Name,
		InitialState: cfg.InitialState,
		States: []statemachine.StateConfig{
			{Name: StateIdle, Kind: KindIdle},
			{Name: StateWalk, Kind: KindWalk},
			{Name: StateKnockback, Kind: KindKnockback},
			{Name: StateDead, Kind: KindDead},
		},
		Transitions: []statemachine.Edge{
			{From: StateIdle, To: StateWalk},
			{From: StateWalk, To: StateIdle},
			{From: StateIdle, To: StateKnockback},
			{From: StateWalk, To: StateKnockback},
			{From: StateKnockback, To: StateIdle},
			{From: StateIdle, To: StateDead},
			{From: StateWalk, To: StateDead},
			{From: StateKnockback, To: StateDead},
		},
	}
}

// catalog returns constructors binding each state kind to p.
func catalog(p controls, cfg Config) *statemachine.Catalog {
	return statemachine.NewCatalog().
		Register(KindIdle, func(statemachine.StateConfig) (statemachine.State, error) {
			return &idleState{p: p}, nil
		}).
		Register(KindWalk, func(statemachine.StateConfig) (statemachine.State, error) {
			return &walkState{p: p}, nil
		}).
		Register(KindKnockback, func(statemachine.StateConfig) (statemachine.State, error) {
			return &knockbackState{p: p, duration: cfg.KnockbackDuration}, nil
		}).
		Register(KindDead, func(statemachine.StateConfig) (statemachine.State, error) {
			return &deadState{p: p, delay: cfg.DeathDelay}, nil
		})
}
