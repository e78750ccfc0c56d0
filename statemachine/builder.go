package statemachine

import "fmt"

// Builder provides a fluent API for constructing state machines from state
// values rather than a Config.
type Builder struct {
	name    string
	initial string
	states  []namedState
	edges   []Edge
	opts    []Option
}

type namedState struct {
	name  string
	state State
}

// NewBuilder creates a new state machine builder.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// WithInitialState sets the initial state.
func (b *Builder) WithInitialState(state string) *Builder {
	b.initial = state

	return b
}

// AddState adds a state. States are registered in the order they are added.
func (b *Builder) AddState(name string, state State) *Builder {
	b.states = append(b.states, namedState{name: name, state: state})

	return b
}

// AddTransition declares an allowed transition. If no transitions are declared
// every transition is allowed.
func (b *Builder) AddTransition(from, to string) *Builder {
	b.edges = append(b.edges, Edge{From: from, To: to})

	return b
}

// WithOptions appends machine options.
func (b *Builder) WithOptions(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)

	return b
}

// Config returns the declarative form of what has been built so far, e.g. for
// rendering a diagram.
func (b *Builder) Config() *Config {
	cfg := &Config{
		Name:         b.name,
		InitialState: b.initial,
		Transitions:  append([]Edge(nil), b.edges...),
	}

	for _, ns := range b.states {
		cfg.States = append(cfg.States, StateConfig{Name: ns.name, Kind: fmt.Sprintf("%T", ns.state)})
	}

	return cfg
}

// Build validates the declaration and returns an uninitialized machine with every
// state registered.
func (b *Builder) Build() (*Machine, error) {
	if err := b.Config().Validate(); err != nil {
		return nil, err
	}

	opts := []Option{
		WithName(b.name),
		WithInitialState(b.initial),
	}

	if len(b.edges) > 0 {
		opts = append(opts, WithAllowedTransitions(b.edges...))
	}

	m := New(append(opts, b.opts...)...)

	for _, ns := range b.states {
		if err := m.RegisterState(ns.name, ns.state); err != nil {
			return nil, err
		}
	}

	return m, nil
}
