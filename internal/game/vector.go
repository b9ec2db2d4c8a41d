package game

// --- Direction ---

// Direction is one of the eight instruction directions: four body-fixed
// (interpreted against the anchor's rotation) and four world-fixed.
type Direction int

const (
	DirFront Direction = iota
	DirRight
	DirBack
	DirLeft
	DirNorth
	DirEast
	DirSouth
	DirWest
)

// relativeDirections and absoluteDirections are the sampling sets used by
// the generator, ordered to match the enum.
var (
	relativeDirections = []Direction{DirFront, DirRight, DirBack, DirLeft}
	absoluteDirections = []Direction{DirNorth, DirEast, DirSouth, DirWest}
)

// Relative reports whether the direction is body-fixed.
func (d Direction) Relative() bool {
	return d >= DirFront && d <= DirLeft
}

func (d Direction) String() string {
	switch d {
	case DirFront:
		return "front"
	case DirRight:
		return "right"
	case DirBack:
		return "back"
	case DirLeft:
		return "left"
	case DirNorth:
		return "north"
	case DirEast:
		return "east"
	case DirSouth:
		return "south"
	case DirWest:
		return "west"
	default:
		return "unknown"
	}
}

// --- Rotation ---

// Rotation is the anchor's facing in degrees. Only the four cardinal
// rotations {0, 90, 180, 270} are ever generated; 0 faces north (up).
type Rotation int

var cardinalRotations = []Rotation{0, 90, 180, 270}

// angularOffset is the body-fixed offset added to the anchor rotation.
var angularOffset = map[Direction]int{
	DirFront: 0,
	DirRight: 90,
	DirBack:  180,
	DirLeft:  270,
}

// unitVector maps a reduced angle to its axis-aligned unit displacement.
// Screen convention: y grows downward, so 0° (north) is (0,-1).
func unitVector(deg int) (int, int) {
	switch deg {
	case 0:
		return 0, -1
	case 90:
		return 1, 0
	case 180:
		return 0, 1
	case 270:
		return -1, 0
	default:
		return 0, 0
	}
}

// normDeg reduces an angle into [0, 360). Go's % can return negatives, so
// the reduction is done twice.
func normDeg(deg int) int {
	return ((deg % 360) + 360) % 360
}

// Resolve maps a (rotation, direction) pair to a unit grid displacement.
// World-fixed directions ignore the rotation entirely; body-fixed directions
// add their angular offset to the rotation before mapping.
func Resolve(rot Rotation, d Direction) (dx, dy int) {
	switch d {
	case DirNorth:
		return 0, -1
	case DirEast:
		return 1, 0
	case DirSouth:
		return 0, 1
	case DirWest:
		return -1, 0
	}
	return unitVector(normDeg(int(rot) + angularOffset[d]))
}

// Invert returns the opposite direction: geographic opposite for world-fixed
// directions, body-fixed opposite (front↔back, left↔right) for the rest.
// Invert is its own inverse for every direction.
func Invert(d Direction) Direction {
	switch d {
	case DirFront:
		return DirBack
	case DirBack:
		return DirFront
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	case DirNorth:
		return DirSouth
	case DirSouth:
		return DirNorth
	case DirEast:
		return DirWest
	case DirWest:
		return DirEast
	default:
		return d
	}
}
