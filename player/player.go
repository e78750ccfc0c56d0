// Package player implements the player character's behaviour: idle, walking,
// knockback on enemy contact and death, plus wall clinging. It talks to the
// game world only through the Body, Input and Hud capabilities it is given.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hexapus/gamecore/statemachine"
)

var (
	// ErrNilBody is returned by New without a Body.
	ErrNilBody = errors.New("player body is nil")
	// ErrNilInput is returned by New without an Input.
	ErrNilInput = errors.New("player input is nil")
)

// Option configures a Player.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	machineOpts []statemachine.Option
	onDead      func()
}

// WithLogger sets the logger used by the player and its state machine.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMachineOptions passes options through to the player's state machine.
func WithMachineOptions(opts ...statemachine.Option) Option {
	return func(o *options) {
		o.machineOpts = append(o.machineOpts, opts...)
	}
}

// WithDeathHandler sets a callback run when the death animation has finished,
// just before the body is freed.
func WithDeathHandler(fn func()) Option {
	return func(o *options) {
		o.onDead = fn
	}
}

// Player is the player character controller. Like its state machine it is
// confined to the goroutine that calls PhysicsProcess.
type Player struct {
	cfg     Config
	body    Body
	input   Input
	hud     Hud
	logger  *slog.Logger
	onDead  func()
	machine *statemachine.Machine

	health    int
	canAttack bool
	canMoveUp bool
	surface   Surface
	// push is the direction from the player to the last enemy that hit it.
	push  Vector
	freed bool
}

// New creates a player over body, reading input. hud may be nil.
func New(body Body, input Input, hud Hud, cfg Config, opts ...Option) (*Player, error) {
	if body == nil {
		return nil, ErrNilBody
	}

	if input == nil {
		return nil, ErrNilInput
	}

	if hud == nil {
		hud = noopHud{}
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Player{
		cfg:       cfg,
		body:      body,
		input:     input,
		hud:       hud,
		logger:    o.logger,
		onDead:    o.onDead,
		health:    cfg.MaxHealth,
		canAttack: true,
		canMoveUp: cfg.CanMoveUp,
		surface:   SurfaceGround,
	}

	machineOpts := append([]statemachine.Option{statemachine.WithLogger(o.logger)}, o.machineOpts...)

	m, err := statemachine.NewFromConfig(MachineConfig(cfg), catalog(p, cfg), machineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build player state machine: %w", err)
	}

	p.machine = m

	return p, nil
}

// Ready shows the player's health and enters the initial state.
func (p *Player) Ready(ctx context.Context) error {
	p.hud.SetupHealth(p.cfg.MaxHealth)

	return p.machine.Initialize(ctx, p.cfg.InitialState)
}

// PhysicsProcess runs one physics frame of delta seconds: surface detection
// from sensors, gravity, then the active state.
func (p *Player) PhysicsProcess(ctx context.Context, delta float64, sensors Sensors) {
	if p.freed || p.machine.Status() != statemachine.StatusRunning {
		return
	}

	p.detectSurface(sensors)
	p.applyGravity(delta)
	p.machine.Tick(ctx, delta)
}

// OnEnemyCollision knocks the player back from a live enemy and applies its damage.
func (p *Player) OnEnemyCollision(ctx context.Context, enemy Enemy) {
	if enemy == nil || !enemy.Alive() || p.Dead() {
		return
	}

	p.push = p.body.Position().DirectionTo(enemy.Position())

	_ = p.machine.Transition(ctx, StateKnockback)

	p.TakeDamage(ctx, enemy.Damage())
}

// TakeDamage lowers health, updates the HUD and kills the player at zero.
func (p *Player) TakeDamage(ctx context.Context, damage int) {
	if p.Dead() {
		return
	}

	p.health -= damage
	p.hud.CheckHealth(damage)

	p.logger.DebugContext(ctx, "player took damage", "damage", damage, "health", p.health)

	if p.health <= 0 {
		_ = p.machine.Transition(ctx, StateDead)
	}
}

// Destroy tears the player down without running the death sequence. Pending
// timers, including a running death delay, are cancelled.
func (p *Player) Destroy(ctx context.Context) error {
	return p.machine.Close(ctx)
}

// Health returns the remaining health. It may be negative.
func (p *Player) Health() int {
	return p.health
}

// State returns the active state's name.
func (p *Player) State() string {
	name, _ := p.machine.Current()

	return name
}

// Dead reports whether the player is dead or dying.
func (p *Player) Dead() bool {
	return p.State() == StateDead
}

// Freed reports whether the death sequence has completed and the body was freed.
func (p *Player) Freed() bool {
	return p.freed
}

// CanAttack reports whether the player may attack.
func (p *Player) CanAttack() bool {
	return p.canAttack
}

// Surface returns the surface the player is on.
func (p *Player) Surface() Surface {
	return p.surface
}

// CanMoveUp reports whether vertical input currently moves the player.
func (p *Player) CanMoveUp() bool {
	return p.canMoveUp
}

// Machine returns the player's state machine.
func (p *Player) Machine() *statemachine.Machine {
	return p.machine
}

func (p *Player) detectSurface(sensors Sensors) {
	next := Classify(sensors, p.surface)
	if next == p.surface {
		return
	}

	p.surface = next
	p.canMoveUp = next.CanMoveUp()
	p.body.SetRotation(next.Rotation())

	p.logger.Debug("player surface changed", "surface", next.String())
}

func (p *Player) applyGravity(delta float64) {
	v := p.body.Velocity().Add(p.surface.Gravity().Scale(p.cfg.Gravity * delta))
	p.body.SetVelocity(v)
}

func (p *Player) direction() Vector {
	return p.input.Direction()
}

// move steers the velocity toward direction at full speed. Vertical input only
// counts when the player can move up.
func (p *Player) move(direction Vector, _ float64) {
	v := p.body.Velocity()
	speed := p.cfg.Speed

	if direction.IsZero() {
		v.X = moveToward(v.X, 0, speed)
	} else {
		v.X = direction.X * speed
	}

	if p.canMoveUp {
		if direction.Y != 0 {
			v.Y = direction.Y * speed
		} else {
			v.Y = moveToward(v.Y, 0, speed)
		}
	}

	p.body.SetVelocity(v)
	p.flip(v)
}

func (p *Player) flip(v Vector) {
	switch {
	case v.X < 0:
		p.body.SetFacing(true)
	case v.X > 0:
		p.body.SetFacing(false)
	}
}

func (p *Player) applyVelocity(delta float64) {
	p.body.MoveAndSlide(delta)
}

func (p *Player) playAnimation(name string) {
	p.body.PlayAnimation(name)
}

func (p *Player) stopAnimations() {
	p.body.StopAnimations()
}

func (p *Player) setCanAttack(canAttack bool) {
	p.canAttack = canAttack
}

// knockback pushes the player away from the last enemy hit.
func (p *Player) knockback() {
	v := p.body.Velocity()
	v.X = -p.push.X * p.cfg.KnockbackSpeed
	p.body.SetVelocity(v)
	p.flip(Vector{X: p.push.X})
}

// die completes the death sequence: notify, free the body, stop the machine.
func (p *Player) die(ctx context.Context) {
	if p.freed {
		return
	}

	p.freed = true

	p.logger.InfoContext(ctx, "player died", "machine", p.machine.Name())

	if p.onDead != nil {
		p.onDead()
	}

	p.body.Free()

	_ = p.machine.Close(ctx)
}
