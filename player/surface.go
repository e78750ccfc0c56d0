package player

// Surface is what the player is clinging to.
type Surface int

const (
	SurfaceGround Surface = iota
	SurfaceRight
	SurfaceLeft
	SurfaceCeiling
	SurfaceAir
)

func (s Surface) String() string {
	switch s {
	case SurfaceGround:
		return "ground"
	case SurfaceRight:
		return "right"
	case SurfaceLeft:
		return "left"
	case SurfaceCeiling:
		return "ceiling"
	case SurfaceAir:
		return "air"
	default:
		return "unknown"
	}
}

// Collider groups.
const (
	GroupWalls  = "walls"
	GroupGround = "ground"
)

// wallRotation is the visual tilt applied when clinging to a wall, in degrees.
const wallRotation = 70

// Ray is the result of one ray cast.
type Ray struct {
	Hit bool `json:"hit" yaml:"hit"`
	// Group is the group of the collider hit. Empty means the collider is gone,
	// e.g. an enemy freed in the same frame.
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
}

// Sensors holds the player's three surface rays.
type Sensors struct {
	Right Ray `json:"right" yaml:"right"`
	Left  Ray `json:"left"  yaml:"left"`
	Down  Ray `json:"down"  yaml:"down"`
}

// Classify returns the surface indicated by sensors. The right ray wins over the
// left, and the left over the down ray. A ray that hits something of the wrong
// group keeps the current surface.
func Classify(sensors Sensors, current Surface) Surface {
	switch {
	case sensors.Right.Hit && sensors.Right.Group != "":
		if sensors.Right.Group == GroupWalls {
			return SurfaceRight
		}
	case sensors.Left.Hit:
		if sensors.Left.Group == GroupWalls {
			return SurfaceLeft
		}
	case sensors.Down.Hit:
		if sensors.Down.Group == GroupGround {
			return SurfaceGround
		}
	default:
		return SurfaceAir
	}

	return current
}

// Gravity returns the direction gravity pulls in on s.
func (s Surface) Gravity() Vector {
	switch s {
	case SurfaceRight:
		return Right
	case SurfaceLeft:
		return Left
	default:
		return Down
	}
}

// CanMoveUp reports whether vertical input moves the player on s.
func (s Surface) CanMoveUp() bool {
	return s == SurfaceRight || s == SurfaceLeft
}

// Rotation returns the visual rotation on s, in degrees.
func (s Surface) Rotation() float64 {
	switch s {
	case SurfaceRight:
		return -wallRotation
	case SurfaceLeft:
		return wallRotation
	default:
		return 0
	}
}
