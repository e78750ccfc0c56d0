package player

import (
	"testing"
	"time"

	"github.com/hexapus/gamecore/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.Equal(t, "player", cfg.Name)
	assert.InDelta(t, 400, cfg.Speed, 0)
	assert.Equal(t, 5, cfg.MaxHealth)
	assert.Equal(t, 1500*time.Millisecond, cfg.DeathDelay)
	assert.Equal(t, StateIdle, cfg.InitialState)
	require.NoError(t, cfg.Validate())
}

func TestConfigYAML(t *testing.T) {
	t.Parallel()

	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(`
speed: 250
maxHealth: 3
knockbackDuration: 200ms
deathDelay: 2s
`), &cfg))

	cfg = cfg.WithDefaults()
	assert.InDelta(t, 250, cfg.Speed, 0)
	assert.Equal(t, 3, cfg.MaxHealth)
	assert.Equal(t, 200*time.Millisecond, cfg.KnockbackDuration)
	assert.Equal(t, 2*time.Second, cfg.DeathDelay)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	err := Config{Speed: -1, MaxHealth: -2, DeathDelay: -time.Second}.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "speed")
	assert.Contains(t, err.Error(), "maxHealth")
	assert.Contains(t, err.Error(), "deathDelay")
}

func TestMachineConfig(t *testing.T) {
	t.Parallel()

	cfg := MachineConfig(Config{Name: "p2"})

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "p2", cfg.Name)
	assert.Equal(t, StateIdle, cfg.InitialState)
	assert.Empty(t, cfg.Unreachable())

	for _, e := range cfg.Transitions {
		assert.NotEqual(t, StateDead, e.From, "Dead is terminal")
	}

	assert.Contains(t, cfg.Transitions, statemachine.Edge{From: StateKnockback, To: StateIdle})
}
