package player

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultName              = "player"
	defaultSpeed             = 400.0
	defaultMaxHealth         = 5
	defaultGravity           = 980.0
	defaultKnockbackSpeed    = 300.0
	defaultKnockbackDuration = 300 * time.Millisecond
	defaultDeathDelay        = 1500 * time.Millisecond
)

// ErrInvalidConfig is returned for out-of-range tuning values.
var ErrInvalidConfig = errors.New("invalid player config")

// Config is the player's tuning. Zero values are replaced by defaults.
type Config struct {
	// Name names the player's state machine in logs, metrics and traces.
	Name              string        `json:"name,omitempty"              yaml:"name,omitempty"`
	Speed             float64       `json:"speed,omitempty"             yaml:"speed,omitempty"`
	MaxHealth         int           `json:"maxHealth,omitempty"         yaml:"maxHealth,omitempty"`
	Gravity           float64       `json:"gravity,omitempty"           yaml:"gravity,omitempty"`
	KnockbackSpeed    float64       `json:"knockbackSpeed,omitempty"    yaml:"knockbackSpeed,omitempty"`
	KnockbackDuration time.Duration `json:"knockbackDuration,omitempty" yaml:"knockbackDuration,omitempty"`
	// DeathDelay is how long the death animation plays before the player is freed.
	DeathDelay   time.Duration `json:"deathDelay,omitempty"   yaml:"deathDelay,omitempty"`
	InitialState string        `json:"initialState,omitempty" yaml:"initialState,omitempty"`
	// CanMoveUp lets vertical input move the player from the start. The first
	// surface change replaces it with what the new surface allows.
	CanMoveUp bool `json:"canMoveUp,omitempty" yaml:"canMoveUp,omitempty"`
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Name == "" {
		c.Name = defaultName
	}

	if c.Speed == 0 {
		c.Speed = defaultSpeed
	}

	if c.MaxHealth == 0 {
		c.MaxHealth = defaultMaxHealth
	}

	if c.Gravity == 0 {
		c.Gravity = defaultGravity
	}

	if c.KnockbackSpeed == 0 {
		c.KnockbackSpeed = defaultKnockbackSpeed
	}

	if c.KnockbackDuration == 0 {
		c.KnockbackDuration = defaultKnockbackDuration
	}

	if c.DeathDelay == 0 {
		c.DeathDelay = defaultDeathDelay
	}

	if c.InitialState == "" {
		c.InitialState = StateIdle
	}

	return c
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error

	if c.Speed < 0 {
		errs = append(errs, fmt.Errorf("%w: speed %v", ErrInvalidConfig, c.Speed))
	}

	if c.MaxHealth < 0 {
		errs = append(errs, fmt.Errorf("%w: maxHealth %d", ErrInvalidConfig, c.MaxHealth))
	}

	if c.KnockbackSpeed < 0 {
		errs = append(errs, fmt.Errorf("%w: knockbackSpeed %v", ErrInvalidConfig, c.KnockbackSpeed))
	}

	if c.KnockbackDuration < 0 {
		errs = append(errs, fmt.Errorf("%w: knockbackDuration %v", ErrInvalidConfig, c.KnockbackDuration))
	}

	if c.DeathDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: deathDelay %v", ErrInvalidConfig, c.DeathDelay))
	}

	return errors.Join(errs...)
}
