package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/hexapus/gamecore/logger"
	"github.com/hexapus/gamecore/player"
	"github.com/hexapus/gamecore/statemachine"
	"go.uber.org/atomic"
)

// Result is the outcome of one scenario.
type Result struct {
	Name   string `json:"name"   yaml:"name"`
	State  string `json:"state"  yaml:"state"`
	Health int    `json:"health" yaml:"health"`
	Alive  bool   `json:"alive"  yaml:"alive"`
	// Freed is set once the death sequence has finished.
	Freed       bool                            `json:"freed"       yaml:"freed"`
	Ticks       uint64                          `json:"ticks"       yaml:"ticks"`
	Elapsed     time.Duration                   `json:"elapsed"     yaml:"elapsed"`
	Position    player.Vector                   `json:"position"    yaml:"position"`
	Animations  []string                        `json:"animations"  yaml:"animations"`
	History     []statemachine.TransitionRecord `json:"history"     yaml:"history"`
	Diagnostics int                             `json:"diagnostics" yaml:"diagnostics"`
}

// Path returns the sequence of states the entity went through.
func (r Result) Path() []string {
	return statemachine.Path(r.History)
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of entities simulated at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithLogger sets the base logger. Each entity logs with an "entity" attribute.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = log
	}
}

// WithMachineOptions passes options to every entity's state machine.
func WithMachineOptions(opts ...statemachine.Option) Option {
	return func(r *Runner) {
		r.machineOpts = append(r.machineOpts, opts...)
	}
}

// Runner simulates scenarios. Entities run in parallel on a worker pool, each
// confined to one task.
type Runner struct {
	player      player.Config
	workers     int
	logger      *slog.Logger
	machineOpts []statemachine.Option

	completed *atomic.Int64
	deaths    *atomic.Int64
}

// NewRunner creates a runner using cfg as the default player tuning.
func NewRunner(cfg player.Config, opts ...Option) *Runner {
	r := &Runner{
		player:    cfg,
		completed: atomic.NewInt64(0),
		deaths:    atomic.NewInt64(0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Completed returns how many scenarios have finished, with or without error.
func (r *Runner) Completed() int64 {
	return r.completed.Load()
}

// Deaths returns how many entities have died.
func (r *Runner) Deaths() int64 {
	return r.deaths.Load()
}

// Run simulates every scenario and returns the results in scenario order. The
// error joins every scenario's error; results of failed scenarios are partial.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	if len(scenarios) == 0 {
		return nil, ErrNoScenarios
	}

	workers := r.workers
	if workers <= 0 || workers > len(scenarios) {
		workers = len(scenarios)
	}

	pool := pond.NewPool(workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	results := make([]Result, len(scenarios))
	errs := make([]error, len(scenarios))
	group := pool.NewGroup()

	for i, sc := range scenarios {
		group.Submit(func() {
			results[i], errs[i] = r.RunScenario(ctx, sc)
		})
	}

	if err := group.Wait(); err != nil {
		return results, fmt.Errorf("simulation interrupted: %w", err)
	}

	return results, errors.Join(errs...)
}

// RunScenario simulates one scenario on the calling goroutine.
func (r *Runner) RunScenario(ctx context.Context, sc Scenario) (Result, error) {
	defer r.completed.Inc()

	sc = sc.withDefaults()
	res := Result{Name: sc.Name}

	if err := sc.Validate(); err != nil {
		entitiesTotal.WithLabelValues(outcomeError).Inc()

		return res, logger.AnnotateError(err, "scenario", sc.Name)
	}

	ctx = logger.WithEntity(ctx, sc.Name)
	log := r.entityLogger(ctx, sc.Name)

	cfg := r.player
	if sc.Player != nil {
		cfg = *sc.Player
	}

	cfg.Name = sc.Name

	body := NewKinematicBody(player.Zero)
	input := NewScriptedInput(sc.Input)

	diagnostics := atomic.NewInt64(0)
	counter := statemachine.SinkFunc(func(context.Context, statemachine.Diagnostic) { diagnostics.Inc() })

	machineOpts := append([]statemachine.Option{
		statemachine.WithSink(statemachine.MultiSink(statemachine.NewSlogSink(log), counter)),
	}, r.machineOpts...)

	p, err := player.New(body, input, nil, cfg,
		player.WithLogger(log),
		player.WithMachineOptions(machineOpts...),
		player.WithDeathHandler(func() { r.deaths.Inc() }),
	)
	if err != nil {
		entitiesTotal.WithLabelValues(outcomeError).Inc()

		return res, logger.AnnotateError(err, "scenario", sc.Name)
	}

	defer func() { _ = p.Destroy(ctx) }()

	if err := p.Ready(ctx); err != nil {
		entitiesTotal.WithLabelValues(outcomeError).Inc()

		return res, logger.AnnotateError(err, "scenario", sc.Name)
	}

	log.DebugContext(ctx, "scenario started", "ticks", sc.Ticks(), "tickRate", sc.TickRate)

	runErr := r.loop(ctx, sc, p, body, input)

	res.State = p.State()
	res.Health = p.Health()
	res.Alive = !p.Dead()
	res.Freed = p.Freed()
	res.Ticks = p.Machine().Ticks()
	res.Elapsed = p.Machine().Scheduler().Now()
	res.Position = body.Position()
	res.Animations = body.Animations()
	res.History = p.Machine().History()
	res.Diagnostics = int(diagnostics.Load())

	switch {
	case runErr != nil:
		entitiesTotal.WithLabelValues(outcomeCancelled).Inc()

		return res, logger.AnnotateError(runErr, "scenario", sc.Name, "ticks", res.Ticks)
	case res.Alive:
		entitiesTotal.WithLabelValues(outcomeAlive).Inc()
	default:
		entitiesTotal.WithLabelValues(outcomeDead).Inc()
	}

	log.InfoContext(ctx, "scenario finished",
		"state", res.State, "health", res.Health, "ticks", res.Ticks, "path", res.Path())

	return res, nil
}

// loop ticks the player until the scenario ends, the body is freed or ctx is done.
func (r *Runner) loop(ctx context.Context, sc Scenario, p *player.Player, body *KinematicBody, input *ScriptedInput) error {
	delta := 1 / float64(sc.TickRate)
	step := time.Second / time.Duration(sc.TickRate)
	sensors := surfaces["ground"]
	nextEvent, nextSurface := 0, 0

	for tick := range sc.Ticks() {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := time.Duration(tick) * step

		input.Advance(now)

		for nextSurface < len(sc.Surfaces) && sc.Surfaces[nextSurface].At <= now {
			sensors = surfaces[sc.Surfaces[nextSurface].Surface]
			nextSurface++
		}

		for nextEvent < len(sc.Events) && sc.Events[nextEvent].At <= now {
			r.fire(ctx, p, body, sc.Events[nextEvent])
			nextEvent++
		}

		p.PhysicsProcess(ctx, delta, sensors)

		if p.Freed() {
			break
		}
	}

	return nil
}

func (r *Runner) fire(ctx context.Context, p *player.Player, body *KinematicBody, ev Event) {
	switch ev.Kind {
	case EventEnemy:
		p.OnEnemyCollision(ctx, newEnemy(ev, body.Position()))
	case EventDamage:
		p.TakeDamage(ctx, ev.Damage)
	}
}

func (r *Runner) entityLogger(ctx context.Context, name string) *slog.Logger {
	if r.logger != nil {
		return r.logger.With("entity", name)
	}

	return logger.Get(ctx)
}
