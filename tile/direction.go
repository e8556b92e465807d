package tile

// Direction is one of the eight compass directions.
// Order: N, NE, E, SE, S, SW, W, NW. Odd values are diagonals.
type Direction uint8

const (
	N Direction = iota
	NE
	E
	SE
	S
	SW
	W
	NW
	NumDirections = 8
)

// Edge costs: cardinal = 10, diagonal = 14 (approximately 10*sqrt(2)).
const (
	CostCardinal = 10
	CostDiagonal = 14
)

// DirVectors holds the unit offset for each Direction.
var DirVectors = [NumDirections][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

var dirNames = [NumDirections]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Diagonal reports whether d is one of the four diagonal directions.
func (d Direction) Diagonal() bool {
	return d&1 == 1
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return (d + 4) & 7
}

// Cost returns the step cost of moving one tile in direction d.
func (d Direction) Cost() int {
	if d.Diagonal() {
		return CostDiagonal
	}
	return CostCardinal
}

// Delta returns the (dx, dy) offset of direction d.
func (d Direction) Delta() (int, int) {
	v := DirVectors[d]
	return v[0], v[1]
}

// Corners returns the two cardinal directions a diagonal move passes between.
// For a cardinal direction both results equal d.
func (d Direction) Corners() (Direction, Direction) {
	if !d.Diagonal() {
		return d, d
	}
	return (d + 7) & 7, (d + 1) & 7
}

func (d Direction) String() string {
	if d >= NumDirections {
		return "?"
	}
	return dirNames[d]
}

// DirectionTo returns the direction from a to an adjacent tile b.
// The second result is false when b is not one of a's eight neighbours.
func DirectionTo(a, b Tile) (Direction, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	for d := Direction(0); d < NumDirections; d++ {
		if DirVectors[d][0] == dx && DirVectors[d][1] == dy {
			return d, true
		}
	}
	return 0, false
}
