package sim

import (
	"slices"

	"github.com/hexapus/gamecore/player"
)

// KinematicBody is a headless player.Body. It integrates velocity into position
// with a flat floor at Y=0 and records everything it is asked to show.
type KinematicBody struct {
	pos, vel   player.Vector
	animations []string
	playing    string
	facingLeft bool
	rotation   float64
	freed      bool
}

var _ player.Body = (*KinematicBody)(nil)

// NewKinematicBody creates a body at pos.
func NewKinematicBody(pos player.Vector) *KinematicBody {
	return &KinematicBody{pos: pos}
}

func (b *KinematicBody) Position() player.Vector { return b.pos }

func (b *KinematicBody) Velocity() player.Vector { return b.vel }

func (b *KinematicBody) SetVelocity(v player.Vector) { b.vel = v }

// MoveAndSlide moves by velocity*delta. Landing on the floor stops vertical motion.
func (b *KinematicBody) MoveAndSlide(delta float64) {
	b.pos = b.pos.Add(b.vel.Scale(delta))

	if b.pos.Y > 0 {
		b.pos.Y = 0
		b.vel.Y = 0
	}
}

func (b *KinematicBody) PlayAnimation(name string) {
	b.playing = name
	b.animations = append(b.animations, name)
}

func (b *KinematicBody) StopAnimations() { b.playing = "" }

func (b *KinematicBody) SetFacing(left bool) { b.facingLeft = left }

func (b *KinematicBody) SetRotation(degrees float64) { b.rotation = degrees }

func (b *KinematicBody) Free() { b.freed = true }

// Animations returns every animation started, in order.
func (b *KinematicBody) Animations() []string { return slices.Clone(b.animations) }

// Playing returns the running animation, or "" when stopped.
func (b *KinematicBody) Playing() string { return b.playing }

func (b *KinematicBody) FacingLeft() bool { return b.facingLeft }

func (b *KinematicBody) Rotation() float64 { return b.rotation }

func (b *KinematicBody) Freed() bool { return b.freed }
