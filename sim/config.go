// Package sim runs player entities headlessly from scripted scenarios.
package sim

import (
	"errors"
	"fmt"
	"os"

	"github.com/hexapus/gamecore/logger"
	"github.com/hexapus/gamecore/player"
	"github.com/hexapus/gamecore/telemetry"
	"gopkg.in/yaml.v3"
)

// ErrNoScenarios is returned for a config without scenarios.
var ErrNoScenarios = errors.New("no scenarios configured")

// FileConfig is the playersim configuration file.
type FileConfig struct {
	Logging   logger.Config    `json:"logging"           yaml:"logging"`
	Telemetry telemetry.Config `json:"telemetry"         yaml:"telemetry"`
	Player    player.Config    `json:"player"            yaml:"player"`
	// Workers bounds how many entities run at once. Zero means one per scenario.
	Workers   int        `json:"workers,omitempty" yaml:"workers,omitempty"`
	Scenarios []Scenario `json:"scenarios"         yaml:"scenarios"`
}

// LoadFileConfig reads and validates a configuration file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseFileConfig(data)
}

// ParseFileConfig parses and validates YAML configuration.
func ParseFileConfig(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every problem in the configuration.
func (c *FileConfig) Validate() error {
	var errs []error

	if len(c.Scenarios) == 0 {
		errs = append(errs, ErrNoScenarios)
	}

	if err := c.Player.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers %d is negative", ErrInvalidScenario, c.Workers))
	}

	seen := make(map[string]bool, len(c.Scenarios))

	for _, sc := range c.Scenarios {
		if err := sc.Validate(); err != nil {
			errs = append(errs, err)
		}

		if sc.Name != "" && seen[sc.Name] {
			errs = append(errs, fmt.Errorf("%w: duplicate scenario name %q", ErrInvalidScenario, sc.Name))
		}

		seen[sc.Name] = true
	}

	return errors.Join(errs...)
}
