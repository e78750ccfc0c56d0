package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hexapus/gamecore/scheduler"
	"go.opentelemetry.io/otel/codes"
)

// Status is the lifecycle stage of a Machine.
type Status int

const (
	// StatusUninitialized is the stage before Initialize. States may be registered.
	StatusUninitialized Status = iota
	// StatusRunning is the stage after Initialize. The registry is frozen.
	StatusRunning
	// StatusClosed is the stage after Close. The machine ignores ticks and rejects transitions.
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusRunning:
		return "running"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// pendingRequest is a transition request raised while another transition was in flight.
type pendingRequest struct {
	from   string
	target string
}

// Machine drives a fixed set of named states, keeping at most one active.
//
// A Machine is confined to one goroutine: RegisterState, Initialize, Tick,
// Transition and Close must all be called from the goroutine that drives it.
type Machine struct {
	id     string
	name   string
	label  string
	logger *slog.Logger
	sink   Sink

	states map[string]State
	order  []string
	edges  []Edge

	initial     string
	status      Status
	current     State
	currentName string

	// entering is the state whose Enter is running, during a transition.
	entering      string
	transitioning bool
	pending       []pendingRequest

	sched         *scheduler.Scheduler
	ownsScheduler bool
	activity      map[string]*scheduler.Scope
	owner         *scheduler.Scope

	ticks    uint64
	history  transitionHistory
	onChange func(from, to string)
}

// New creates an uninitialized machine.
func New(opts ...Option) *Machine {
	m := &Machine{
		id:            uuid.NewString(),
		name:          defaultMachineName,
		logger:        slog.Default(),
		states:        make(map[string]State),
		sched:         scheduler.New(),
		ownsScheduler: true,
		activity:      make(map[string]*scheduler.Scope),
		history:       transitionHistory{limit: defaultHistoryLimit},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.sink == nil {
		m.sink = NewSlogSink(m.logger)
	}

	m.label = sanitizeMachine(m.name)
	m.owner = m.sched.NewScope(m.name + "/owner")

	return m
}

// ID returns the machine's unique instance id.
func (m *Machine) ID() string {
	return m.id
}

// Name returns the machine's name.
func (m *Machine) Name() string {
	return m.name
}

// Status returns the machine's lifecycle stage.
func (m *Machine) Status() Status {
	return m.status
}

// Scheduler returns the scheduler continuations are queued on.
func (m *Machine) Scheduler() *scheduler.Scheduler {
	return m.sched
}

// RegisterState adds a state under name. It must be called before Initialize.
// If the state implements Attacher it is attached to the machine here.
func (m *Machine) RegisterState(name string, state State) error {
	switch {
	case m.status != StatusUninitialized:
		return WrapStateError(name, ErrRegistryFrozen)
	case name == "":
		return ErrStateNameRequired
	case state == nil:
		return WrapStateError(name, ErrNilState)
	}

	if _, exists := m.states[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStateName, name)
	}

	m.states[name] = state
	m.order = append(m.order, name)

	if a, ok := state.(Attacher); ok {
		a.Attach(m.link(name))
	}

	return nil
}

// link builds the Link handed to the state registered under name.
func (m *Machine) link(name string) Link {
	return Link{
		Name: name,
		Request: func(ctx context.Context, target string) {
			_ = m.request(ctx, name, target)
		},
		Activity: func() *scheduler.Scope {
			return m.activity[name]
		},
		Owner: func() *scheduler.Scope {
			return m.owner
		},
		Active: func() bool {
			return m.status == StatusRunning && m.currentName == name
		},
	}
}

// States returns the registered state names in registration order.
func (m *Machine) States() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)

	return out
}

// Current returns the name of the active state, if there is one.
func (m *Machine) Current() (string, bool) {
	return m.currentName, m.current != nil
}

// CurrentState returns the active state, or nil.
func (m *Machine) CurrentState() State {
	return m.current
}

// Ticks returns the number of ticks forwarded to a state so far.
func (m *Machine) Ticks() uint64 {
	return m.ticks
}

// History returns the most recent completed transitions, oldest first.
func (m *Machine) History() []TransitionRecord {
	return m.history.snapshot()
}

// Initialize selects and enters the initial state, and freezes the registry.
//
// The state entered is initial if given, else the one pre-selected with
// WithInitialState, else the first registered state. Falling back to the first
// registered state is reported as a warning. With no states registered the
// machine is left running but inert and ErrNoStates is returned.
func (m *Machine) Initialize(ctx context.Context, initial string) (err error) {
	ctx, span := startInitializeSpan(ctx, m)

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "initialized")
		}

		span.End()
	}()

	if m.status != StatusUninitialized {
		m.report(ctx, SeverityError, ErrAlreadyInitialized, m.currentName, "",
			"state machine already initialized")

		return ErrAlreadyInitialized
	}

	m.status = StatusRunning

	if len(m.order) == 0 {
		m.report(ctx, SeverityError, ErrNoStates, "", "",
			"no states registered, state machine is inert")

		return ErrNoStates
	}

	if initial == "" {
		initial = m.initial
	}

	name := initial

	switch {
	case name == "":
		name = m.order[0]
		m.report(ctx, SeverityWarning, ErrNoDefaultState, "", name,
			"no default state set, falling back to first registered state")
	case m.states[name] == nil:
		name = m.order[0]
		m.report(ctx, SeverityWarning, ErrStateNotFound, "", initial,
			"initial state not found, falling back to first registered state")
	}

	m.logger.DebugContext(ctx, "initializing state machine",
		"machine", m.name,
		"machine_id", m.id,
		"state", name,
	)

	m.transitioning = true
	m.entering = name
	m.enter(ctx, name)
	m.entering = ""
	m.current, m.currentName = m.states[name], name
	m.transitioning = false

	m.completed(ctx, "", name)
	m.drain(ctx)

	return nil
}

// Tick forwards one simulation step to the active state and then, if the machine
// owns its scheduler, advances it by delta so due continuations run. Tick is a
// no-op when no state is active. Negative or non-finite deltas are reported and
// treated as zero.
func (m *Machine) Tick(ctx context.Context, delta float64) {
	if m.status != StatusRunning || m.current == nil {
		return
	}

	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		m.report(ctx, SeverityWarning, ErrInvalidDelta, m.currentName, "",
			fmt.Sprintf("invalid tick delta %v, using 0", delta))

		delta = 0
	}

	m.ticks++
	ticksTotal.WithLabelValues(m.label).Inc()

	m.current.PhysicsUpdate(ctx, delta)

	if m.ownsScheduler && m.status == StatusRunning {
		m.sched.Advance(ctx, seconds(delta))
	}
}

// Transition makes target the active state. Unknown targets are reported and
// rejected, leaving the active state unchanged. Transitioning to the active state
// does nothing. A Transition call made while another transition is in progress
// (from inside Enter or Exit) is queued and performed right after it; nil is
// returned for queued requests.
func (m *Machine) Transition(ctx context.Context, target string) error {
	return m.request(ctx, "", target)
}

// request is the single path by which the active state changes. from is the
// requesting state, or "" for the owner.
func (m *Machine) request(ctx context.Context, from, target string) error {
	switch m.status {
	case StatusUninitialized:
		return m.reject(ctx, from, target, ErrNotInitialized, "state machine not initialized")
	case StatusClosed:
		return m.reject(ctx, from, target, ErrMachineClosed, "state machine closed")
	case StatusRunning:
	}

	if m.transitioning {
		m.pending = append(m.pending, pendingRequest{from: from, target: target})

		return nil
	}

	err := m.transition(ctx, from, target)

	m.drain(ctx)

	return err
}

// drain performs requests queued during a transition, in order.
func (m *Machine) drain(ctx context.Context) {
	for n := 0; len(m.pending) > 0 && m.status == StatusRunning; n++ {
		if n >= defaultDrainLimit {
			dropped := len(m.pending)
			last := m.pending[dropped-1]
			m.pending = nil

			_ = m.reject(ctx, last.from, last.target, ErrTransitionLoop,
				fmt.Sprintf("dropped %d chained transition requests", dropped))

			return
		}

		next := m.pending[0]
		m.pending = m.pending[1:]

		_ = m.transition(ctx, next.from, next.target)
	}

	m.pending = nil
}

func (m *Machine) transition(ctx context.Context, from, target string) error {
	if from != "" && from != m.currentName && from != m.entering {
		return m.reject(ctx, from, target, ErrStaleRequest, "transition requested by inactive state")
	}

	next, ok := m.states[target]
	if !ok {
		return m.reject(ctx, from, target, ErrStateNotFound, "no state found with key")
	}

	if target == m.currentName {
		return nil
	}

	if !m.allowed(m.currentName, target) {
		return m.reject(ctx, from, target, ErrTransitionNotAllowed, "transition not allowed")
	}

	prev := m.currentName

	ctx, span := startTransitionSpan(ctx, m, prev, target)
	defer span.End()

	m.transitioning = true

	if prev != "" {
		m.exit(ctx, prev)
	}

	// Exit may have closed the machine.
	if m.status != StatusRunning {
		m.transitioning = false
		span.SetStatus(codes.Error, ErrMachineClosed.Error())

		return m.reject(ctx, prev, target, ErrMachineClosed, "state machine closed during exit")
	}

	m.entering = target
	m.enter(ctx, target)
	m.entering = ""

	m.current, m.currentName = next, target
	m.transitioning = false

	span.SetStatus(codes.Ok, "completed")

	m.completed(ctx, prev, target)

	return nil
}

// enter opens a fresh activity scope for name and runs its Enter hook.
func (m *Machine) enter(ctx context.Context, name string) {
	scope := m.sched.NewScope(m.name + "/" + name)
	if m.status == StatusClosed {
		scope.Close()
	}

	m.activity[name] = scope

	m.logger.DebugContext(ctx, "entering state", "machine", m.name, "state", name)

	m.states[name].Enter(ctx)
}

// exit cancels everything scheduled during name's active period and runs its Exit hook.
func (m *Machine) exit(ctx context.Context, name string) {
	if scope := m.activity[name]; scope != nil {
		if n := scope.Close(); n > 0 {
			m.logger.DebugContext(ctx, "cancelled state continuations",
				"machine", m.name, "state", name, "count", n)
		}
	}

	m.logger.DebugContext(ctx, "exiting state", "machine", m.name, "state", name)

	m.states[name].Exit(ctx)
}

func (m *Machine) completed(ctx context.Context, from, to string) {
	m.history.add(TransitionRecord{
		From: from,
		To:   to,
		Tick: m.ticks,
		At:   time.Now(),
	})

	transitionsTotal.WithLabelValues(m.label, sanitizeState(from), to).Inc()

	m.logger.DebugContext(ctx, "transition executed", "machine", m.name, "from", from, "to", to)

	if m.onChange != nil {
		m.onChange(from, to)
	}
}

func (m *Machine) allowed(from, to string) bool {
	if len(m.edges) == 0 {
		return true
	}

	for _, e := range m.edges {
		if e.To == to && (e.From == from || e.From == WildcardState) {
			return true
		}
	}

	return false
}

// reject reports a refused transition and returns the matching error.
func (m *Machine) reject(ctx context.Context, from, target string, code error, msg string) error {
	state := from
	if state == "" {
		state = m.currentName
	}

	rejectionsTotal.WithLabelValues(m.label, reasonOf(code)).Inc()
	m.report(ctx, SeverityError, code, state, target, msg)

	return WrapTransitionError(state, target, code)
}

func (m *Machine) report(ctx context.Context, sev Severity, code error, state, target, msg string) {
	diagnosticsTotal.WithLabelValues(m.label, sev.String()).Inc()
	recordDiagnosticEvent(ctx, sev, code, state, target)

	m.sink.Report(ctx, Diagnostic{
		MachineID: m.id,
		Machine:   m.name,
		Severity:  sev,
		Code:      code,
		State:     state,
		Target:    target,
		Message:   msg,
	})
}

// Close tears the machine down: every pending continuation scheduled by its states
// is cancelled and later calls to Tick and Transition do nothing. The active
// state's Exit is not called. Close is idempotent.
func (m *Machine) Close(ctx context.Context) error {
	if m.status == StatusClosed {
		return nil
	}

	m.status = StatusClosed
	m.pending = nil

	cancelled := m.owner.Close()
	for _, scope := range m.activity {
		cancelled += scope.Close()
	}

	m.logger.DebugContext(ctx, "state machine closed",
		"machine", m.name,
		"machine_id", m.id,
		"state", m.currentName,
		"cancelled_continuations", cancelled,
	)

	return nil
}

func seconds(delta float64) time.Duration {
	return time.Duration(delta * float64(time.Second))
}
