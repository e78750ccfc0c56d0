package player

import "math"

// Vector is a 2D vector in screen space: X grows to the right, Y grows downwards.
type Vector struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Directions.
var (
	Zero  = Vector{}
	Up    = Vector{Y: -1}
	Down  = Vector{Y: 1}
	Left  = Vector{X: -1}
	Right = Vector{X: 1}
)

// IsZero reports whether v is the zero vector.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Add returns v+o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v-o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v*f.
func (v Vector) Scale(f float64) Vector {
	return Vector{X: v.X * f, Y: v.Y * f}
}

// Length returns the euclidean length of v.
func (v Vector) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalized returns v scaled to length 1, or the zero vector.
func (v Vector) Normalized() Vector {
	l := v.Length()
	if l == 0 {
		return Zero
	}

	return v.Scale(1 / l)
}

// DirectionTo returns the unit vector pointing from v to o.
func (v Vector) DirectionTo(o Vector) Vector {
	return o.Sub(v).Normalized()
}

// moveToward moves from toward to by at most step.
func moveToward(from, to, step float64) float64 {
	if math.Abs(to-from) <= step {
		return to
	}

	if to > from {
		return from + step
	}

	return from - step
}
