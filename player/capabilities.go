package player

// Body is the physics and presentation object a Player drives. Implementations
// bind it to an engine; the simulator provides a kinematic one.
type Body interface {
	Position() Vector
	Velocity() Vector
	SetVelocity(v Vector)
	// MoveAndSlide integrates the current velocity over delta seconds, resolving collisions.
	MoveAndSlide(delta float64)

	PlayAnimation(name string)
	StopAnimations()
	// SetFacing mirrors the visuals horizontally; left is true when facing left.
	SetFacing(left bool)
	// SetRotation rotates the visuals, in degrees.
	SetRotation(degrees float64)

	// Free removes the body from the world.
	Free()
}

// Input reports the player's desired direction.
type Input interface {
	Direction() Vector
}

// Hud shows the player's health.
type Hud interface {
	SetupHealth(maxHealth int)
	CheckHealth(damage int)
}

// Enemy is whatever the player collided with.
type Enemy interface {
	Alive() bool
	Damage() int
	Position() Vector
}

type noopHud struct{}

func (noopHud) SetupHealth(int) {}

func (noopHud) CheckHealth(int) {}
