package sim

import (
	"time"

	"github.com/hexapus/gamecore/player"
)

// ScriptedInput replays a scenario's input steps.
type ScriptedInput struct {
	steps   []InputStep
	next    int
	current player.Vector
}

var _ player.Input = (*ScriptedInput)(nil)

// NewScriptedInput creates an input over steps sorted by At.
func NewScriptedInput(steps []InputStep) *ScriptedInput {
	return &ScriptedInput{steps: steps}
}

// Advance applies every step due at or before now.
func (in *ScriptedInput) Advance(now time.Duration) {
	for in.next < len(in.steps) && in.steps[in.next].At <= now {
		in.current = directions[in.steps[in.next].Direction]
		in.next++
	}
}

func (in *ScriptedInput) Direction() player.Vector { return in.current }
