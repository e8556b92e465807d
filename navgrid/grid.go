// Package navgrid maintains per-goal navigation grids: a full-map cost field
// with a next-step pointer per tile, forming a steepest-descent tree towards
// the goal. Grids are updated incrementally when blocking objects are added
// or removed, so the per-tick cost scales with the size of the change.
package navgrid

import (
	"log/slog"
	"math"
	"time"

	"github.com/pthm-cable/pathing/tile"
)

// Unreached is the cost of a node with no known path to the goal.
const Unreached = math.MaxUint32

// NoNode marks a missing next-step pointer.
const NoNode int32 = -1

// Terrain is the walkability data a grid reads. *walkability.Field implements it.
type Terrain interface {
	Size() (width, height int)
	IsWalkable(x, y int) bool
	UnwalkableProximity(x, y int) int
}

// Node is one tile of a grid.
type Node struct {
	Cost uint32 // accumulated cost from the goal, Unreached if none
	Next int32  // index of the next tile towards the goal, NoNode for goals and unreached tiles
	Prev uint8  // bit d set when the neighbour in direction d points here
}

// Reached reports whether the node has a finite cost.
func (n Node) Reached() bool {
	return n.Cost != Unreached
}

// Goal identifies what a grid leads to: a single tile, or the ring of
// tiles surrounding a W x H footprint with its top-left at Tile.
type Goal struct {
	Tile tile.Tile
	W, H int
}

// Footprint reports whether the goal is a building footprint rather than a tile.
func (g Goal) Footprint() bool {
	return g.W > 1 || g.H > 1
}

// key normalises a single tile goal so {W:0,H:0} and {W:1,H:1} compare equal.
func (g Goal) key() Goal {
	if !g.Footprint() {
		return Goal{Tile: g.Tile}
	}
	return g
}

// Rect returns the goal footprint.
func (g Goal) Rect() tile.Rect {
	if !g.Footprint() {
		return tile.RectAt(g.Tile, 1, 1)
	}
	return tile.RectAt(g.Tile, g.W, g.H)
}

// Options configures grid construction.
type Options struct {
	// ProximityPenalty adds max(0, ProximityPenalty-proximity) to the cost of
	// entering a tile, discouraging paths that hug obstacles. Zero disables it.
	ProximityPenalty int

	// AllowDiagonal, when set, may permit a diagonal step whose corner tiles
	// are blocked. Used by map overrides.
	AllowDiagonal func(from, to tile.Tile) bool

	Logger *slog.Logger
}

// DefaultOptions returns the standard grid options.
func DefaultOptions() Options {
	return Options{ProximityPenalty: 3}
}

// UpdateStats describes the last queue drain.
type UpdateStats struct {
	Popped   int
	Improved int
	Duration time.Duration
}

// Grid is a navigation grid towards one goal. It is not safe for concurrent use.
type Grid struct {
	terrain Terrain
	opts    Options
	logger  *slog.Logger

	goal          Goal
	width, height int
	nodes         []Node
	isGoal        []bool
	goals         []int32

	queue minHeap

	// scratch for invalidation
	stamp    []uint32
	curStamp uint32
	invalid  []int32

	improved int
	last     UpdateStats
}

// New builds a grid towards goal and drains it. A single-tile goal seeds that
// tile; a footprint goal seeds every tile of the ring around it.
func New(terrain Terrain, goal Goal, opts Options) *Grid {
	w, h := terrain.Size()
	g := &Grid{
		terrain: terrain,
		opts:    opts,
		logger:  opts.Logger,
		goal:    goal,
		width:   w,
		height:  h,
		nodes:   make([]Node, w*h),
		isGoal:  make([]bool, w*h),
		stamp:   make([]uint32, w*h),
		queue:   make(minHeap, 0, w*h/4),
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	for i := range g.nodes {
		g.nodes[i] = Node{Cost: Unreached, Next: NoNode}
	}

	seeds := []tile.Tile{goal.Tile}
	if goal.Footprint() {
		seeds = goal.Rect().Expand(1).Perimeter()
	}
	for _, t := range seeds {
		if !g.inBounds(t.X, t.Y) {
			continue
		}
		i := g.index(t.X, t.Y)
		g.nodes[i].Cost = 0
		g.isGoal[i] = true
		g.goals = append(g.goals, int32(i))
		g.pushBoth(int32(i))
	}

	g.Update()
	return g
}

// Goal returns the goal this grid leads to.
func (g *Grid) Goal() Goal {
	return g.goal
}

// Size returns the grid dimensions in tiles.
func (g *Grid) Size() (width, height int) {
	return g.width, g.height
}

// Pending returns the number of queued relaxations.
func (g *Grid) Pending() int {
	return len(g.queue)
}

// LastUpdate returns statistics about the most recent Update that did work.
func (g *Grid) LastUpdate() UpdateStats {
	return g.last
}

// Node returns the node at t. t must be on the map.
func (g *Grid) Node(t tile.Tile) Node {
	return g.nodes[g.index(t.X, t.Y)]
}

// Cost returns the cost at t, Unreached if none or off the map.
func (g *Grid) Cost(t tile.Tile) uint32 {
	if !g.inBounds(t.X, t.Y) {
		return Unreached
	}
	return g.nodes[g.index(t.X, t.Y)].Cost
}

// Next returns the next tile towards the goal from t.
func (g *Grid) Next(t tile.Tile) (tile.Tile, bool) {
	if !g.inBounds(t.X, t.Y) {
		return tile.Tile{}, false
	}
	n := g.nodes[g.index(t.X, t.Y)]
	if n.Next == NoNode {
		return tile.Tile{}, false
	}
	return g.tileAt(n.Next), true
}

// IsGoal reports whether t is one of the grid's goal tiles.
func (g *Grid) IsGoal(t tile.Tile) bool {
	return g.inBounds(t.X, t.Y) && g.isGoal[g.index(t.X, t.Y)]
}

// Waypoint follows up to hops next-step pointers from t and returns the tile
// reached. The second result is false if t has no path to the goal.
func (g *Grid) Waypoint(t tile.Tile, hops int) (tile.Tile, bool) {
	if !g.inBounds(t.X, t.Y) {
		return tile.Tile{}, false
	}
	i := int32(g.index(t.X, t.Y))
	if !g.nodes[i].Reached() {
		return tile.Tile{}, false
	}
	for ; hops > 0; hops-- {
		next := g.nodes[i].Next
		if next == NoNode {
			break
		}
		i = next
	}
	return g.tileAt(i), true
}

// Path returns the tiles from t to the goal following next-step pointers,
// excluding t. It returns nil if t is unreached.
func (g *Grid) Path(t tile.Tile) []tile.Tile {
	if g.Cost(t) == Unreached {
		return nil
	}
	var path []tile.Tile
	i := g.nodes[g.index(t.X, t.Y)].Next
	for i != NoNode && len(path) < len(g.nodes) {
		path = append(path, g.tileAt(i))
		i = g.nodes[i].Next
	}
	return path
}

// Update drains the relaxation queue. With nothing queued it returns immediately.
func (g *Grid) Update() {
	if len(g.queue) == 0 {
		return
	}

	start := time.Now()
	popped := 0
	g.improved = 0
	for len(g.queue) > 0 {
		e := g.queue.pop()
		n := &g.nodes[e.idx]
		if n.Cost == Unreached {
			continue
		}
		x, y := int(e.idx)%g.width, int(e.idx)/g.width
		if !g.terrain.IsWalkable(x, y) {
			continue
		}
		edge := uint32(tile.CostCardinal)
		if e.diagonal {
			edge = tile.CostDiagonal
		}
		if e.prio != n.Cost+edge {
			continue // superseded by a cheaper entry
		}
		popped++

		first := tile.N
		if e.diagonal {
			first = tile.NE
		}
		for d := first; d < tile.NumDirections; d += 2 {
			g.visit(e.idx, x, y, d)
		}
	}

	g.last = UpdateStats{Popped: popped, Improved: g.improved, Duration: time.Since(start)}
	g.logger.Debug("navgrid update",
		"goal_x", g.goal.Tile.X,
		"goal_y", g.goal.Tile.Y,
		"popped", popped,
		"improved", g.improved,
		"us", g.last.Duration.Microseconds(),
	)
}

// visit relaxes the edge from the node at cur=(x, y) to its neighbour in direction d.
func (g *Grid) visit(cur int32, x, y int, d tile.Direction) {
	dx, dy := d.Delta()
	nx, ny := x+dx, y+dy
	if !g.inBounds(nx, ny) {
		return
	}
	ni := int32(g.index(nx, ny))
	node := &g.nodes[ni]

	cost := g.nodes[cur].Cost + uint32(d.Cost()) + g.penalty(nx, ny)
	if node.Cost <= cost {
		return
	}
	if d.Diagonal() && !g.diagonalOpen(x, y, d) {
		return
	}

	if node.Next != NoNode {
		g.detach(ni)
	}
	node.Cost = cost
	node.Next = cur
	g.nodes[cur].Prev |= 1 << d
	g.improved++

	if g.terrain.IsWalkable(nx, ny) {
		g.pushBoth(ni)
	}
}

// penalty returns the extra cost of entering (x, y).
func (g *Grid) penalty(x, y int) uint32 {
	if g.opts.ProximityPenalty <= 0 {
		return 0
	}
	p := g.opts.ProximityPenalty - g.terrain.UnwalkableProximity(x, y)
	if p <= 0 {
		return 0
	}
	return uint32(p)
}

// diagonalOpen reports whether the diagonal step d from (x,y) may be taken:
// both corner tiles must be walkable unless an override allows it.
func (g *Grid) diagonalOpen(x, y int, d tile.Direction) bool {
	a, b := d.Corners()
	ax, ay := a.Delta()
	bx, by := b.Delta()
	if g.terrain.IsWalkable(x+ax, y+ay) && g.terrain.IsWalkable(x+bx, y+by) {
		return true
	}
	if g.opts.AllowDiagonal != nil {
		from := tile.Tile{X: x, Y: y}
		dx, dy := d.Delta()
		return g.opts.AllowDiagonal(from, from.Add(dx, dy))
	}
	return false
}

// detach clears the reverse bit the node's current parent holds for it.
func (g *Grid) detach(i int32) {
	p := g.nodes[i].Next
	if p == NoNode {
		return
	}
	d, ok := tile.DirectionTo(g.tileAt(p), g.tileAt(i))
	if ok {
		g.nodes[p].Prev &^= 1 << d
	}
}

func (g *Grid) pushBoth(i int32) {
	c := g.nodes[i].Cost
	g.queue.push(queueEntry{prio: c + tile.CostCardinal, idx: i})
	g.queue.push(queueEntry{prio: c + tile.CostDiagonal, idx: i, diagonal: true})
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *Grid) index(x, y int) int {
	return x + y*g.width
}

func (g *Grid) tileAt(i int32) tile.Tile {
	return tile.Tile{X: int(i) % g.width, Y: int(i) / g.width}
}
