package statemachine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes a machine declaratively: which states it has, which one it
// starts in and, optionally, which transitions are allowed.
//
//	name: player
//	initialState: Idle
//	states:
//	  - name: Idle
//	    kind: idle
//	  - name: Walk
//	    kind: walk
//	transitions:
//	  - {from: Idle, to: Walk}
//	  - {from: Walk, to: Idle}
type Config struct {
	Name         string        `json:"name"                   yaml:"name"`
	InitialState string        `json:"initialState,omitempty" yaml:"initialState,omitempty"`
	States       []StateConfig `json:"states"                 yaml:"states"`
	// Transitions, when non-empty, is the complete set of allowed edges.
	Transitions  []Edge `json:"transitions,omitempty"  yaml:"transitions,omitempty"`
	HistoryLimit int    `json:"historyLimit,omitempty" yaml:"historyLimit,omitempty"`
}

// StateConfig describes one state. Kind selects the constructor in a Catalog;
// it defaults to the state's name.
type StateConfig struct {
	Name   string         `json:"name"             yaml:"name"`
	Kind   string         `json:"kind,omitempty"   yaml:"kind,omitempty"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// KindOrName returns Kind, or Name when no kind is set.
func (s StateConfig) KindOrName() string {
	if s.Kind != "" {
		return s.Kind
	}

	return s.Name
}

// LoadConfig loads and validates a machine configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes loads and validates a machine configuration from YAML bytes.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS loads a configuration from a filesystem such as an embed.FS.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// Validate checks the configuration and returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, ErrConfigNameRequired)
	}

	if len(c.States) == 0 {
		errs = append(errs, ErrNoStates)
	}

	seen := make(map[string]bool, len(c.States))

	for i, state := range c.States {
		if state.Name == "" {
			errs = append(errs, fmt.Errorf("state %d: %w", i, ErrStateNameRequired))

			continue
		}

		if seen[state.Name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateStateName, state.Name))
		}

		seen[state.Name] = true
	}

	if c.InitialState != "" && !seen[c.InitialState] {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInitialStateNotFound, c.InitialState))
	}

	for i, edge := range c.Transitions {
		switch {
		case edge.From == "":
			errs = append(errs, fmt.Errorf("transition %d: %w", i, ErrTransitionFromRequired))
		case edge.From != WildcardState && !seen[edge.From]:
			errs = append(errs, fmt.Errorf("transition %d: %w: %s", i, ErrTransitionFromNotFound, edge.From))
		}

		switch {
		case edge.To == "":
			errs = append(errs, fmt.Errorf("transition %d: %w", i, ErrTransitionToRequired))
		case !seen[edge.To]:
			errs = append(errs, fmt.Errorf("transition %d: %w: %s", i, ErrTransitionToNotFound, edge.To))
		}
	}

	return errors.Join(errs...)
}

// Unreachable returns the states that cannot be reached from the initial state
// (or the first state, if none is set) through the declared transitions. With no
// declared transitions every state is reachable.
func (c *Config) Unreachable() []string {
	if len(c.Transitions) == 0 || len(c.States) == 0 {
		return nil
	}

	start := c.InitialState
	if start == "" {
		start = c.States[0].Name
	}

	reachable := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, edge := range c.Transitions {
			if (edge.From == current || edge.From == WildcardState) && !reachable[edge.To] {
				reachable[edge.To] = true
				queue = append(queue, edge.To)
			}
		}
	}

	var out []string

	for _, state := range c.States {
		if !reachable[state.Name] {
			out = append(out, state.Name)
		}
	}

	return out
}
