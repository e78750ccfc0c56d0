package statemachine

import (
	"fmt"
	"sort"
)

// Constructor creates a State from its configuration.
type Constructor func(cfg StateConfig) (State, error)

// Catalog maps state kinds to constructors so that machines can be built from a
// Config. Applications register their own kinds.
type Catalog struct {
	ctors map[string]Constructor
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		ctors: make(map[string]Constructor),
	}
}

// Register registers a constructor for kind, replacing any previous one.
func (c *Catalog) Register(kind string, ctor Constructor) *Catalog {
	c.ctors[kind] = ctor

	return c
}

// Kinds returns the registered kinds, sorted.
func (c *Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.ctors))
	for kind := range c.ctors {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)

	return kinds
}

// Create creates a state from configuration.
func (c *Catalog) Create(cfg StateConfig) (State, error) {
	ctor, ok := c.ctors[cfg.KindOrName()]
	if !ok {
		return nil, WrapStateError(cfg.Name, fmt.Errorf("%w: %s", ErrUnknownStateKind, cfg.KindOrName()))
	}

	state, err := ctor(cfg)
	if err != nil {
		return nil, WrapStateError(cfg.Name, err)
	}

	return state, nil
}

// NewFromConfig validates cfg, creates every state through catalog and registers
// them on a new machine, in declaration order. Options given here are applied
// after the ones derived from cfg. The machine is returned uninitialized.
func NewFromConfig(cfg *Config, catalog *Catalog, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []Option{
		WithName(cfg.Name),
		WithInitialState(cfg.InitialState),
	}

	if cfg.HistoryLimit != 0 {
		base = append(base, WithHistoryLimit(cfg.HistoryLimit))
	}

	if len(cfg.Transitions) > 0 {
		base = append(base, WithAllowedTransitions(cfg.Transitions...))
	}

	m := New(append(base, opts...)...)

	for _, sc := range cfg.States {
		state, err := catalog.Create(sc)
		if err != nil {
			return nil, err
		}

		if err := m.RegisterState(sc.Name, state); err != nil {
			return nil, err
		}
	}

	return m, nil
}
