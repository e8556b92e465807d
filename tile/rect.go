package tile

// Rect is an axis-aligned rectangle of tiles with its top-left corner at
// (X, Y). A Rect with non-positive width or height is empty.
type Rect struct {
	X, Y int
	W, H int
}

// RectAt returns the rectangle of the given size with its top-left at t.
func RectAt(t Tile, w, h int) Rect {
	return Rect{X: t.X, Y: t.Y, W: w, H: h}
}

// Empty reports whether r contains no tiles.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// ContainsTile reports whether t lies inside r.
func (r Rect) ContainsTile(t Tile) bool {
	return r.Contains(t.X, t.Y)
}

// Clip returns r intersected with the map [0,width) x [0,height).
func (r Rect) Clip(width, height int) Rect {
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.X+r.W, width), min(r.Y+r.H, height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Expand grows r by n tiles on every side.
func (r Rect) Expand(n int) Rect {
	return Rect{X: r.X - n, Y: r.Y - n, W: r.W + 2*n, H: r.H + 2*n}
}

// Area returns the number of tiles in r.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// TopLeft returns the tile at the rectangle's origin.
func (r Rect) TopLeft() Tile {
	return Tile{X: r.X, Y: r.Y}
}

// Center returns the pixel centre of the rectangle.
func (r Rect) Center() Position {
	return Position{X: r.X<<5 + r.W*TileSize/2, Y: r.Y<<5 + r.H*TileSize/2}
}

// Perimeter returns the tiles on the rectangle's border, clockwise from the
// top-left. A 1xN rectangle returns each tile once.
func (r Rect) Perimeter() []Tile {
	if r.Empty() {
		return nil
	}
	if r.W == 1 || r.H == 1 {
		tiles := make([]Tile, 0, r.Area())
		for y := r.Y; y < r.Y+r.H; y++ {
			for x := r.X; x < r.X+r.W; x++ {
				tiles = append(tiles, Tile{X: x, Y: y})
			}
		}
		return tiles
	}

	tiles := make([]Tile, 0, 2*(r.W+r.H)-4)
	right, bottom := r.X+r.W-1, r.Y+r.H-1
	for x := r.X; x <= right; x++ {
		tiles = append(tiles, Tile{X: x, Y: r.Y})
	}
	for y := r.Y + 1; y <= bottom; y++ {
		tiles = append(tiles, Tile{X: right, Y: y})
	}
	for x := right - 1; x >= r.X; x-- {
		tiles = append(tiles, Tile{X: x, Y: bottom})
	}
	for y := bottom - 1; y > r.Y; y-- {
		tiles = append(tiles, Tile{X: r.X, Y: y})
	}
	return tiles
}
