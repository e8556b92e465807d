// Package tile defines the coordinate systems shared by the navigation packages:
// pixel positions, 8px sub-tiles and 32px build tiles.
package tile

// Coordinate scales. A tile is 32 pixels square and holds 4x4 sub-tiles.
const (
	TileSize        = 32
	SubTileSize     = 8
	SubTilesPerTile = TileSize / SubTileSize
)

// Tile is a build-tile coordinate.
type Tile struct {
	X, Y int
}

// SubTile is an 8px walk-resolution coordinate.
type SubTile struct {
	X, Y int
}

// Position is a pixel coordinate.
type Position struct {
	X, Y int
}

// Add returns t offset by (dx, dy).
func (t Tile) Add(dx, dy int) Tile {
	return Tile{X: t.X + dx, Y: t.Y + dy}
}

// Center returns the pixel position at the middle of the tile.
func (t Tile) Center() Position {
	return Position{X: t.X<<5 + TileSize/2, Y: t.Y<<5 + TileSize/2}
}

// Position returns the top-left pixel of the tile.
func (t Tile) Position() Position {
	return Position{X: t.X << 5, Y: t.Y << 5}
}

// Tile returns the tile containing p.
func (p Position) Tile() Tile {
	return Tile{X: p.X >> 5, Y: p.Y >> 5}
}

// SubTile returns the sub-tile containing p.
func (p Position) SubTile() SubTile {
	return SubTile{X: p.X >> 3, Y: p.Y >> 3}
}

// Add returns p offset by (dx, dy) pixels.
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Tile returns the tile containing s.
func (s SubTile) Tile() Tile {
	return Tile{X: s.X >> 2, Y: s.Y >> 2}
}

// Position returns the top-left pixel of the sub-tile.
func (s SubTile) Position() Position {
	return Position{X: s.X << 3, Y: s.Y << 3}
}

// Center returns the pixel position at the middle of the sub-tile.
func (s SubTile) Center() Position {
	return Position{X: s.X<<3 + SubTileSize/2, Y: s.Y<<3 + SubTileSize/2}
}

// ApproxDistance returns the game engine's integer octagonal approximation of
// the Euclidean distance between two pixel positions.
func ApproxDistance(a, b Position) int {
	return ApproxLength(b.X-a.X, b.Y-a.Y)
}

// ApproxLength returns the octagonal approximation of the length of (dx, dy).
func ApproxLength(dx, dy int) int {
	lo := abs(dx)
	hi := abs(dy)
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo < hi>>2 {
		return hi
	}

	loCalc := (3 * lo) >> 3
	return (loCalc >> 5) + loCalc + hi - (hi >> 4) - (hi >> 6)
}

// Octile returns the 10/14 weighted distance between two tiles, the exact
// cost of a corner-free path on an empty grid.
func Octile(a, b Tile) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx < dy {
		dx, dy = dy, dx
	}
	return 10*(dx-dy) + 14*dy
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
