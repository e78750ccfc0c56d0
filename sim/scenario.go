package sim

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hexapus/gamecore/player"
)

const (
	defaultTickRate = 60
	defaultDuration = 5 * time.Second
)

// ErrInvalidScenario is returned for a scenario that cannot be run.
var ErrInvalidScenario = errors.New("invalid scenario")

// EventKind is what happens to the player at a scripted time.
type EventKind string

const (
	// EventEnemy is a collision with a live enemy: knockback plus damage.
	EventEnemy EventKind = "enemy"
	// EventDamage is damage without knockback.
	EventDamage EventKind = "damage"
)

var directions = map[string]player.Vector{ //nolint:gochecknoglobals
	"":      player.Zero,
	"none":  player.Zero,
	"left":  player.Left,
	"right": player.Right,
	"up":    player.Up,
	"down":  player.Down,
}

var surfaces = map[string]player.Sensors{ //nolint:gochecknoglobals
	"ground": {Down: player.Ray{Hit: true, Group: player.GroupGround}},
	"right":  {Right: player.Ray{Hit: true, Group: player.GroupWalls}},
	"left":   {Left: player.Ray{Hit: true, Group: player.GroupWalls}},
	"air":    {},
}

// Scenario scripts one player entity.
type Scenario struct {
	Name string `json:"name" yaml:"name"`
	// TickRate is the number of physics frames per second.
	TickRate int           `json:"tickRate,omitempty" yaml:"tickRate,omitempty"`
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
	// Player overrides the file-level player tuning for this entity.
	Player   *player.Config `json:"player,omitempty"   yaml:"player,omitempty"`
	Input    []InputStep    `json:"input,omitempty"    yaml:"input,omitempty"`
	Events   []Event        `json:"events,omitempty"   yaml:"events,omitempty"`
	Surfaces []SurfaceStep  `json:"surfaces,omitempty" yaml:"surfaces,omitempty"`
}

// InputStep holds a direction from At until the next step.
type InputStep struct {
	At time.Duration `json:"at" yaml:"at"`
	// Direction is none, left, right, up or down.
	Direction string `json:"direction" yaml:"direction"`
}

// Event happens once at At.
type Event struct {
	At     time.Duration `json:"at"               yaml:"at"`
	Kind   EventKind     `json:"kind"             yaml:"kind"`
	Damage int           `json:"damage,omitempty" yaml:"damage,omitempty"`
	// From is the side an enemy comes from: left or right (the default).
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	// Dead marks an enemy that is already dying; the collision is ignored.
	Dead bool `json:"dead,omitempty" yaml:"dead,omitempty"`
}

// SurfaceStep sets what the player's rays report from At on.
type SurfaceStep struct {
	At time.Duration `json:"at" yaml:"at"`
	// Surface is ground, right, left or air.
	Surface string `json:"surface" yaml:"surface"`
}

func (s Scenario) withDefaults() Scenario {
	if s.TickRate == 0 {
		s.TickRate = defaultTickRate
	}

	if s.Duration == 0 {
		s.Duration = defaultDuration
	}

	s.Input = slices.Clone(s.Input)
	s.Events = slices.Clone(s.Events)
	s.Surfaces = slices.Clone(s.Surfaces)

	slices.SortStableFunc(s.Input, func(a, b InputStep) int { return compareDurations(a.At, b.At) })
	slices.SortStableFunc(s.Events, func(a, b Event) int { return compareDurations(a.At, b.At) })
	slices.SortStableFunc(s.Surfaces, func(a, b SurfaceStep) int { return compareDurations(a.At, b.At) })

	return s
}

// Validate reports every problem with the scenario.
func (s Scenario) Validate() error {
	var errs []error

	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidScenario, s.Name, fmt.Sprintf(format, args...)))
	}

	if s.Name == "" {
		fail("name is required")
	}

	if s.TickRate < 0 {
		fail("tickRate %d is negative", s.TickRate)
	}

	if s.Duration < 0 {
		fail("duration %v is negative", s.Duration)
	}

	if s.Player != nil {
		if err := s.Player.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidScenario, s.Name, err))
		}
	}

	for i, step := range s.Input {
		if _, ok := directions[step.Direction]; !ok {
			fail("input[%d]: unknown direction %q", i, step.Direction)
		}
	}

	for i, ev := range s.Events {
		switch ev.Kind {
		case EventEnemy, EventDamage:
		default:
			fail("events[%d]: unknown kind %q", i, ev.Kind)
		}

		if ev.Damage < 0 {
			fail("events[%d]: damage %d is negative", i, ev.Damage)
		}

		switch ev.From {
		case "", "left", "right":
		default:
			fail("events[%d]: unknown side %q", i, ev.From)
		}
	}

	for i, step := range s.Surfaces {
		if _, ok := surfaces[step.Surface]; !ok {
			fail("surfaces[%d]: unknown surface %q", i, step.Surface)
		}
	}

	return errors.Join(errs...)
}

// Ticks returns the number of physics frames the scenario runs for.
func (s Scenario) Ticks() int {
	s = s.withDefaults()

	return int((s.Duration*time.Duration(s.TickRate) + time.Second - 1) / time.Second)
}

func compareDurations(a, b time.Duration) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// enemy is a scripted Event of kind EventEnemy.
type enemy struct {
	alive  bool
	damage int
	pos    player.Vector
}

func (e enemy) Alive() bool             { return e.alive }
func (e enemy) Damage() int             { return e.damage }
func (e enemy) Position() player.Vector { return e.pos }

func newEnemy(ev Event, at player.Vector) enemy {
	side := player.Right
	if ev.From == "left" {
		side = player.Left
	}

	return enemy{alive: !ev.Dead, damage: ev.Damage, pos: at.Add(side)}
}
