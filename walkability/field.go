// Package walkability maintains the tile-resolution ground occupancy bitmap
// and the distance fields derived from it.
//
// Every walkable tile carries eight directional run-lengths: the number of
// consecutive walkable tiles starting at the tile (inclusive) and heading in
// each compass direction, capped at MaxDistance. The map edge acts as a
// boundary. Proximity and width are folded from the run-lengths, and a
// repulsion vector is accumulated from adjacent unwalkable tiles.
package walkability

import (
	"github.com/pthm-cable/pathing/tile"
)

// MaxDistance caps every directional run-length and the proximity value.
// Anything further away is treated as open terrain.
const MaxDistance = 20

// Collision vector contributions per axis from one adjacent obstacle.
const (
	repelCardinal = 14
	repelDiagonal = 10
)

// Vector is an integer 2D vector in pixel-like units.
type Vector struct {
	X, Y int
}

// Field stores walkability and its derived per-tile data.
// It is not safe for concurrent use.
type Field struct {
	width, height int

	terrain  []bool   // terrain walkability, ignoring every obstacle
	walkable []bool   // current walkability
	dist     []uint8  // 8 directional run-lengths per tile, indexed (i<<3)+dir
	prox     []uint8  // min over dist, capped
	wide     []uint8  // min opposing-pair sum
	repel    []Vector // collision vectors

	// scratch for incremental updates
	stamp    []uint32
	curStamp uint32
	changed  []int

	version uint64
}

// New builds a field of the given size. terrainWalkable reports the static
// ground walkability of each tile. Static obstacles (resources, neutral
// rocks) are applied through SetBlocked on top of the terrain, so removing
// one later makes its tiles walkable again.
func New(width, height int, terrainWalkable func(x, y int) bool, static []tile.Rect) *Field {
	n := width * height
	f := &Field{
		width:    width,
		height:   height,
		terrain:  make([]bool, n),
		walkable: make([]bool, n),
		dist:     make([]uint8, n*tile.NumDirections),
		prox:     make([]uint8, n),
		wide:     make([]uint8, n),
		repel:    make([]Vector, n),
		stamp:    make([]uint32, n),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			w := terrainWalkable == nil || terrainWalkable(x, y)
			i := x + y*width
			f.terrain[i] = w
			f.walkable[i] = w
			if !w {
				f.repelFrom(x, y, 1)
			}
		}
	}

	// The map border repels like an unwalkable ring.
	for x := -1; x <= width; x++ {
		f.repelFrom(x, -1, 1)
		f.repelFrom(x, height, 1)
	}
	for y := 0; y < height; y++ {
		f.repelFrom(-1, y, 1)
		f.repelFrom(width, y, 1)
	}

	f.rebuildDistances()

	for _, r := range static {
		f.SetBlocked(r, true)
	}

	return f
}

// Size returns the map dimensions in tiles.
func (f *Field) Size() (width, height int) {
	return f.width, f.height
}

// InBounds reports whether (x, y) is on the map.
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && x < f.width && y >= 0 && y < f.height
}

// IsWalkable reports current ground walkability. Out-of-bounds tiles are unwalkable.
func (f *Field) IsWalkable(x, y int) bool {
	if !f.InBounds(x, y) {
		return false
	}
	return f.walkable[x+y*f.width]
}

// IsTerrainWalkable reports terrain walkability, ignoring buildings and
// static obstacles.
func (f *Field) IsTerrainWalkable(x, y int) bool {
	if !f.InBounds(x, y) {
		return false
	}
	return f.terrain[x+y*f.width]
}

// UnwalkableProximity returns the distance in tiles to the nearest obstacle
// along the eight compass rays, capped at MaxDistance. Zero for unwalkable tiles.
func (f *Field) UnwalkableProximity(x, y int) int {
	return int(f.prox[x+y*f.width])
}

// WalkableWidth returns the narrowest opposing-pair corridor width through the tile.
func (f *Field) WalkableWidth(x, y int) int {
	return int(f.wide[x+y*f.width])
}

// DirectionalDistance returns the run-length of walkable tiles from (x, y) towards d.
func (f *Field) DirectionalDistance(x, y int, d tile.Direction) int {
	return int(f.dist[(x+y*f.width)<<3+int(d)])
}

// CollisionVector returns the accumulated repulsion vector at (x, y).
func (f *Field) CollisionVector(x, y int) Vector {
	return f.repel[x+y*f.width]
}

// Version increments every time SetBlocked changes the bitmap.
func (f *Field) Version() uint64 {
	return f.version
}

// SetBlocked marks every tile of r unwalkable (blocked), or restores its
// terrain walkability. The rectangle is clipped to the map. It returns false
// when no tile changed state, in which case nothing is recomputed.
func (f *Field) SetBlocked(r tile.Rect, blocked bool) bool {
	r = r.Clip(f.width, f.height)
	if r.Empty() {
		return false
	}

	updated := false
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			i := x + y*f.width
			walkable := !blocked && f.terrain[i]
			if f.walkable[i] == walkable {
				continue
			}
			f.walkable[i] = walkable
			if walkable {
				f.repelFrom(x, y, -1)
			} else {
				f.repelFrom(x, y, 1)
			}
			updated = true
		}
	}
	if !updated {
		return false
	}

	f.version++
	f.nextStamp()
	for d := tile.Direction(0); d < tile.NumDirections; d++ {
		f.retrace(r, d)
	}
	for _, i := range f.changed {
		f.fold(i)
	}
	return true
}

// retrace recomputes direction d for every tile whose run-length may have
// changed: each line through r, walked against d from the tile whose
// successor leaves the rectangle. Outside r the walk stops at the first
// tile whose value did not change.
func (f *Field) retrace(r tile.Rect, d tile.Direction) {
	dx, dy := d.Delta()
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			if r.Contains(x+dx, y+dy) {
				continue
			}
			cx, cy := x, y
			for f.InBounds(cx, cy) {
				i := cx + cy*f.width
				v := f.runLength(cx, cy, d)
				old := f.dist[i<<3+int(d)]
				if v == old && !r.Contains(cx, cy) {
					break
				}
				if v != old {
					f.dist[i<<3+int(d)] = v
					f.markChanged(i)
				}
				cx -= dx
				cy -= dy
			}
		}
	}
}

// runLength computes D_d(x,y) from the already-correct successor value.
func (f *Field) runLength(x, y int, d tile.Direction) uint8 {
	i := x + y*f.width
	if !f.walkable[i] {
		return 0
	}
	dx, dy := d.Delta()
	nx, ny := x+dx, y+dy
	if !f.InBounds(nx, ny) {
		return 1
	}
	next := f.dist[(nx+ny*f.width)<<3+int(d)]
	if next >= MaxDistance {
		return MaxDistance
	}
	return next + 1
}

// rebuildDistances computes every run-length from scratch by sweeping each
// direction so that the successor is always processed first.
func (f *Field) rebuildDistances() {
	for d := tile.Direction(0); d < tile.NumDirections; d++ {
		dx, dy := d.Delta()
		// Walk rows and columns opposite to the direction vector.
		y0, y1, ys := 0, f.height, 1
		if dy > 0 {
			y0, y1, ys = f.height-1, -1, -1
		}
		x0, x1, xs := 0, f.width, 1
		if dx > 0 {
			x0, x1, xs = f.width-1, -1, -1
		}
		for y := y0; y != y1; y += ys {
			for x := x0; x != x1; x += xs {
				f.dist[(x+y*f.width)<<3+int(d)] = f.runLength(x, y, d)
			}
		}
	}
	for i := range f.prox {
		f.fold(i)
	}
}

// fold recomputes proximity and width for tile i from its run-lengths.
func (f *Field) fold(i int) {
	base := i << 3
	dist := f.dist[base : base+tile.NumDirections]

	p := uint8(MaxDistance)
	for _, v := range dist {
		p = min(p, v)
	}
	f.prox[i] = p

	w := dist[tile.N] + dist[tile.S]
	w = min(w, dist[tile.E]+dist[tile.W])
	w = min(w, dist[tile.NE]+dist[tile.SW])
	w = min(w, dist[tile.NW]+dist[tile.SE])
	f.wide[i] = w
}

// repelFrom adds (sign=1) or removes (sign=-1) the repulsion an obstacle at
// (x, y) applies to its eight neighbours. (x, y) may lie off the map.
func (f *Field) repelFrom(x, y, sign int) {
	for d := tile.Direction(0); d < tile.NumDirections; d++ {
		ox, oy := d.Delta()
		nx, ny := x+ox, y+oy
		if !f.InBounds(nx, ny) {
			continue
		}
		k := repelCardinal
		if d.Diagonal() {
			k = repelDiagonal
		}
		v := &f.repel[nx+ny*f.width]
		v.X += sign * ox * k
		v.Y += sign * oy * k
	}
}

func (f *Field) nextStamp() {
	f.curStamp++
	if f.curStamp == 0 {
		clear(f.stamp)
		f.curStamp = 1
	}
	f.changed = f.changed[:0]
}

func (f *Field) markChanged(i int) {
	if f.stamp[i] == f.curStamp {
		return
	}
	f.stamp[i] = f.curStamp
	f.changed = append(f.changed, i)
}
