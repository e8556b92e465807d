package navgrid

import (
	"github.com/pthm-cable/pathing/tile"
)

// Registry owns the live navigation grids of a match, one per goal. A base
// footprint and a single tile goal anchored at the same tile are distinct.
// Blocking notifications fan out to every grid. Create it at match start and
// Clear it at match end.
type Registry struct {
	terrain Terrain
	opts    Options

	grids  []*Grid
	byGoal map[Goal]*Grid
}

// NewRegistry creates an empty registry whose grids read terrain.
func NewRegistry(terrain Terrain, opts Options) *Registry {
	return &Registry{
		terrain: terrain,
		opts:    opts,
		byGoal:  make(map[Goal]*Grid),
	}
}

// Add creates a grid towards goal, or returns the existing grid for it.
func (r *Registry) Add(goal Goal) *Grid {
	key := goal.key()
	if g, ok := r.byGoal[key]; ok {
		return g
	}
	g := New(r.terrain, goal, r.opts)
	r.grids = append(r.grids, g)
	r.byGoal[key] = g
	return g
}

// Lookup returns the drained grid towards exactly goal, or nil.
func (r *Registry) Lookup(goal Goal) *Grid {
	g, ok := r.byGoal[goal.key()]
	if !ok {
		return nil
	}
	g.Update()
	return g
}

// Get returns the drained grid whose goal is anchored at t, or nil. When
// several goals share the tile the earliest added wins.
func (r *Registry) Get(t tile.Tile) *Grid {
	for _, g := range r.grids {
		if g.goal.Tile == t {
			g.Update()
			return g
		}
	}
	return nil
}

// Nearest returns the grid whose goal centre is closest to p, if it lies
// within maxDist pixels. The grid is drained before it is returned.
func (r *Registry) Nearest(p tile.Position, maxDist int) *Grid {
	var best *Grid
	bestDist := maxDist + 1
	for _, g := range r.grids {
		d := tile.ApproxDistance(p, g.goal.Rect().Center())
		if d < bestDist {
			best, bestDist = g, d
		}
	}
	if best != nil {
		best.Update()
	}
	return best
}

// Remove drops the grid towards goal.
func (r *Registry) Remove(goal Goal) bool {
	key := goal.key()
	g, ok := r.byGoal[key]
	if !ok {
		return false
	}
	delete(r.byGoal, key)
	for i, other := range r.grids {
		if other == g {
			r.grids = append(r.grids[:i], r.grids[i+1:]...)
			break
		}
	}
	return true
}

// Clear drops every grid.
func (r *Registry) Clear() {
	r.grids = nil
	clear(r.byGoal)
}

// Len returns the number of live grids.
func (r *Registry) Len() int {
	return len(r.grids)
}

// Grids returns the live grids in creation order.
func (r *Registry) Grids() []*Grid {
	return r.grids
}

// AddBlockingObject forwards to every grid.
func (r *Registry) AddBlockingObject(rect tile.Rect) {
	for _, g := range r.grids {
		g.AddBlockingObject(rect)
	}
}

// RemoveBlockingObject forwards to every grid.
func (r *Registry) RemoveBlockingObject(rect tile.Rect) {
	for _, g := range r.grids {
		g.RemoveBlockingObject(rect)
	}
}

// AddBlockingTiles forwards to every grid.
func (r *Registry) AddBlockingTiles(tiles []tile.Tile) {
	for _, g := range r.grids {
		g.AddBlockingTiles(tiles)
	}
}

// RemoveBlockingTiles forwards to every grid.
func (r *Registry) RemoveBlockingTiles(tiles []tile.Tile) {
	for _, g := range r.grids {
		g.RemoveBlockingTiles(tiles)
	}
}

// Update drains every grid and returns the total number of nodes expanded.
func (r *Registry) Update() int {
	total := 0
	for _, g := range r.grids {
		if g.Pending() == 0 {
			continue
		}
		g.Update()
		total += g.last.Popped
	}
	return total
}

// Pending returns the number of queued relaxations across all grids.
func (r *Registry) Pending() int {
	total := 0
	for _, g := range r.grids {
		total += g.Pending()
	}
	return total
}
