// Package search provides a bounded best-first tile search for one-off
// queries that no persistent navigation grid covers, such as checking whether
// a building placement still leaves a path.
package search

import (
	"container/heap"
	"log/slog"
	"time"

	"github.com/pthm-cable/pathing/tile"
)

// Terrain is the walkability data the default validity check reads.
type Terrain interface {
	Size() (width, height int)
	IsWalkable(x, y int) bool
}

// Options configures a single search.
type Options struct {
	// Valid reports whether a tile may be entered. Defaults to terrain walkability.
	Valid func(t tile.Tile) bool

	// CloseEnough stops the search early at the first tile it accepts.
	CloseEnough func(t tile.Tile) bool

	// AllowDiagonal enables diagonal steps. Off by default: with diagonals the
	// 10/4 heuristic can overestimate, so returned paths are not always shortest.
	AllowDiagonal bool
}

// searchNode is an open-list entry.
type searchNode struct {
	t    tile.Tile
	dist int
	est  int // dist + heuristic
	id   int // push order
}

// nodeHeap implements heap.Interface for the open list. Among equal
// estimates the most recently pushed node pops first.
type nodeHeap []searchNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].est != h[j].est {
		return h[i].est < h[j].est
	}
	return h[i].id > h[j].id
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) {
	*h = append(*h, x.(searchNode))
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	*h = old[:n-1]
	return node
}

// parentNone and parentStart mark undiscovered tiles and the search origin.
const (
	parentNone  int32 = -1
	parentStart int32 = -2
)

// Searcher runs tile searches, reusing its parent array and open list
// between calls. It is not safe for concurrent use.
type Searcher struct {
	terrain Terrain
	logger  *slog.Logger

	width, height int
	parents       []int32
	open          nodeHeap
	nextID        int

	// Visited is the number of nodes popped by the most recent search.
	Visited int
}

// NewSearcher creates a searcher for a map read through terrain. A nil
// logger uses slog.Default.
func NewSearcher(terrain Terrain, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	w, h := terrain.Size()
	return &Searcher{
		terrain: terrain,
		logger:  logger,
		width:   w,
		height:  h,
		parents: make([]int32, w*h),
		open:    make(nodeHeap, 0, 256),
	}
}

// Search finds a path from start to end. The path excludes start and ends at
// end, or at the first tile accepted by opts.CloseEnough. The second result
// is false if no path exists.
//
// Parents are fixed when a tile is first discovered, so the result is the
// first path found rather than a guaranteed shortest one.
func (s *Searcher) Search(start, end tile.Tile, opts Options) ([]tile.Tile, bool) {
	began := time.Now()
	s.Visited = 0
	if !s.inBounds(start) {
		return nil, false
	}

	valid := opts.Valid
	if valid == nil {
		valid = func(t tile.Tile) bool { return s.terrain.IsWalkable(t.X, t.Y) }
	}
	h := func(t tile.Tile) int {
		dx, dy := abs(t.X-end.X), abs(t.Y-end.Y)
		if dx < dy {
			dx, dy = dy, dx
		}
		return 10*dx + 4*dy
	}

	for i := range s.parents {
		s.parents[i] = parentNone
	}
	s.open = s.open[:0]
	s.nextID = 0

	s.push(searchNode{t: start, est: h(start)})
	s.parents[s.index(start)] = parentStart

	for s.open.Len() > 0 {
		cur := heap.Pop(&s.open).(searchNode)
		s.Visited++

		if cur.t == end || (opts.CloseEnough != nil && opts.CloseEnough(cur.t)) {
			path := s.unwind(start, cur.t)
			s.logger.Debug("tile search",
				"from", start, "to", end,
				"visited", s.Visited,
				"length", len(path),
				"us", time.Since(began).Microseconds(),
			)
			return path, true
		}

		for d := tile.N; d < tile.NumDirections; d++ {
			if d.Diagonal() && !opts.AllowDiagonal {
				continue
			}
			dx, dy := d.Delta()
			next := cur.t.Add(dx, dy)
			if !s.inBounds(next) || s.parents[s.index(next)] != parentNone || !valid(next) {
				continue
			}
			if d.Diagonal() && !cornersOpen(cur.t, d, valid) {
				continue
			}
			dist := cur.dist + d.Cost()
			s.push(searchNode{t: next, dist: dist, est: dist + h(next)})
			s.parents[s.index(next)] = int32(s.index(cur.t))
		}
	}

	s.logger.Debug("tile search failed", "from", start, "to", end, "visited", s.Visited)
	return nil, false
}

// cornersOpen reports whether both tiles a diagonal step from t passes
// between are valid.
func cornersOpen(t tile.Tile, d tile.Direction, valid func(tile.Tile) bool) bool {
	a, b := d.Corners()
	ax, ay := a.Delta()
	bx, by := b.Delta()
	return valid(t.Add(ax, ay)) && valid(t.Add(bx, by))
}

func (s *Searcher) push(n searchNode) {
	n.id = s.nextID
	s.nextID++
	heap.Push(&s.open, n)
}

func (s *Searcher) unwind(start, last tile.Tile) []tile.Tile {
	var path []tile.Tile
	for t := last; t != start; {
		path = append(path, t)
		p := s.parents[s.index(t)]
		t = tile.Tile{X: int(p) % s.width, Y: int(p) / s.width}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (s *Searcher) inBounds(t tile.Tile) bool {
	return t.X >= 0 && t.Y >= 0 && t.X < s.width && t.Y < s.height
}

func (s *Searcher) index(t tile.Tile) int {
	return t.X + t.Y*s.width
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
