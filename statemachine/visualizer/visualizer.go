// Package visualizer generates Mermaid state diagrams from state machine configurations.
//
//nolint:varnamelen // short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hexapus/gamecore/statemachine"
)

// Visualizer errors.
var (
	ErrConfigNil = errors.New("config cannot be nil")
	ErrNoStates  = errors.New("config must have at least one state")
)

// GenerateMermaid converts a Config to a Mermaid state diagram.
func GenerateMermaid(config *statemachine.Config) (string, error) {
	return GenerateMermaidWithOptions(config, DefaultOptions())
}

// GenerateMermaidFromFile loads a config from a file and generates a Mermaid diagram.
func GenerateMermaidFromFile(path string, opts Options) (string, error) {
	config, err := statemachine.LoadConfig(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return GenerateMermaidWithOptions(config, opts)
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
//
// Without declared transitions every state may reach every other one; such
// machines are drawn with only their states, plus the edges of HighlightPath.
// Wildcard edges are expanded to one edge per source state.
func GenerateMermaidWithOptions(config *statemachine.Config, opts Options) (string, error) {
	if config == nil {
		return "", ErrConfigNil
	}

	if len(config.States) == 0 {
		return "", ErrNoStates
	}

	initial := config.InitialState
	if initial == "" {
		initial = config.States[0].Name
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("stateDiagram-v2\n")

	if opts.Direction != "" {
		fmt.Fprintf(&sb, "    direction %s\n", opts.Direction)
	}

	fmt.Fprintf(&sb, "    [*] --> %s\n", initial)

	highlighted := make(map[string]bool)
	for _, state := range opts.HighlightPath {
		highlighted[state] = true
	}

	walked := make(map[statemachine.Edge]bool)
	for i := 1; i < len(opts.HighlightPath); i++ {
		walked[statemachine.Edge{From: opts.HighlightPath[i-1], To: opts.HighlightPath[i]}] = true
	}

	edges := expandEdges(config)
	drawn := make(map[statemachine.Edge]bool, len(edges))

	for _, state := range config.States {
		if opts.ShowKinds && state.Kind != "" && state.Kind != state.Name {
			fmt.Fprintf(&sb, "    %s: %s\\n[%s]\n", state.Name, state.Name, state.Kind)
		}

		if highlighted[state.Name] {
			fmt.Fprintf(&sb, "    class %s highlighted\n", state.Name)
		}

		for _, edge := range edges {
			if edge.From != state.Name || drawn[edge] {
				continue
			}

			drawn[edge] = true

			label := ""
			if walked[edge] {
				label = ": taken"
			}

			fmt.Fprintf(&sb, "    %s --> %s%s\n", edge.From, edge.To, label)
		}
	}

	// Observed transitions that were never declared (or none were declared).
	for i := 1; i < len(opts.HighlightPath); i++ {
		edge := statemachine.Edge{From: opts.HighlightPath[i-1], To: opts.HighlightPath[i]}
		if drawn[edge] {
			continue
		}

		drawn[edge] = true

		fmt.Fprintf(&sb, "    %s --> %s: taken\n", edge.From, edge.To)
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
	sb.WriteString("```\n")

	return sb.String(), nil
}

// expandEdges returns the declared edges with wildcard sources replaced by one
// edge per state, excluding self loops.
func expandEdges(config *statemachine.Config) []statemachine.Edge {
	var out []statemachine.Edge

	for _, edge := range config.Transitions {
		if edge.From != statemachine.WildcardState {
			out = append(out, edge)

			continue
		}

		for _, state := range config.States {
			if state.Name != edge.To {
				out = append(out, statemachine.Edge{From: state.Name, To: edge.To})
			}
		}
	}

	return out
}
