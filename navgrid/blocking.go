package navgrid

import (
	"math"

	"github.com/pthm-cable/pathing/tile"
)

// AddBlockingObject invalidates every path affected by r becoming blocked and
// queues the surrounding nodes so the field heals on the next Update. The
// terrain must already reflect the change.
//
// Seeds are the tiles of r plus every nearby node whose stored cost no longer
// matches its parent edge: its penalty changed or its diagonal corner closed.
// The seeds and all of their descendants are reset.
func (g *Grid) AddBlockingObject(r tile.Rect) {
	g.addBlocking(func(visit func(x, y int)) {
		for y := r.Y; y < r.Y+r.H; y++ {
			for x := r.X; x < r.X+r.W; x++ {
				visit(x, y)
			}
		}
	}, r.Expand(g.margin()))
}

// AddBlockingTiles is AddBlockingObject for a scattered set of tiles, such as
// a mineral line.
func (g *Grid) AddBlockingTiles(tiles []tile.Tile) {
	if len(tiles) == 0 {
		return
	}
	g.addBlocking(func(visit func(x, y int)) {
		for _, t := range tiles {
			visit(t.X, t.Y)
		}
	}, boundingRect(tiles).Expand(g.margin()))
}

// RemoveBlockingObject resets the tiles of r and their descendants, then
// queues every reached node around r so the search can re-route into the
// newly opened space. The terrain must already reflect the change.
func (g *Grid) RemoveBlockingObject(r tile.Rect) {
	g.removeBlocking(func(visit func(x, y int)) {
		for y := r.Y; y < r.Y+r.H; y++ {
			for x := r.X; x < r.X+r.W; x++ {
				visit(x, y)
			}
		}
	}, r.Expand(g.margin()+1))
}

// RemoveBlockingTiles is RemoveBlockingObject for a scattered set of tiles.
func (g *Grid) RemoveBlockingTiles(tiles []tile.Tile) {
	if len(tiles) == 0 {
		return
	}
	g.removeBlocking(func(visit func(x, y int)) {
		for _, t := range tiles {
			visit(t.X, t.Y)
		}
	}, boundingRect(tiles).Expand(g.margin()+1))
}

// margin is how far from a changed tile a stored cost may become stale: the
// proximity penalty reaches ProximityPenalty-1 tiles, diagonal corners one.
func (g *Grid) margin() int {
	return max(1, g.opts.ProximityPenalty)
}

func (g *Grid) addBlocking(each func(func(x, y int)), around tile.Rect) {
	g.beginInvalidation()
	each(func(x, y int) {
		if g.inBounds(x, y) {
			g.invalidate(int32(g.index(x, y)))
		}
	})

	around = around.Clip(g.width, g.height)
	for y := around.Y; y < around.Y+around.H; y++ {
		for x := around.X; x < around.X+around.W; x++ {
			i := int32(g.index(x, y))
			if g.stamp[i] != g.curStamp && g.inconsistent(i) {
				g.invalidate(i)
			}
		}
	}

	g.propagateInvalidation()

	queued := g.curStamp + 1
	g.healFrom(queued)
	g.curStamp = queued
}

func (g *Grid) removeBlocking(each func(func(x, y int)), around tile.Rect) {
	g.beginInvalidation()
	each(func(x, y int) {
		if g.inBounds(x, y) {
			g.invalidate(int32(g.index(x, y)))
		}
	})
	g.propagateInvalidation()

	// Descendants of tiles that were already open may sit far from r.
	queued := g.curStamp + 1
	g.healFrom(queued)

	around = around.Clip(g.width, g.height)
	for y := around.Y; y < around.Y+around.H; y++ {
		for x := around.X; x < around.X+around.W; x++ {
			i := int32(g.index(x, y))
			if g.stamp[i] == g.curStamp || g.stamp[i] == queued {
				continue
			}
			if !g.nodes[i].Reached() || !g.terrain.IsWalkable(x, y) {
				continue
			}
			g.stamp[i] = queued
			g.pushBoth(i)
		}
	}
	g.curStamp = queued
}

// healFrom queues invalidated goals and every reached, walkable neighbour of
// the invalidated set, marking each queued node with stamp queued.
func (g *Grid) healFrom(queued uint32) {
	for _, i := range g.invalid {
		if g.isGoal[i] {
			g.pushBoth(i)
		}
		x, y := int(i)%g.width, int(i)/g.width
		for d := tile.Direction(0); d < tile.NumDirections; d++ {
			dx, dy := d.Delta()
			nx, ny := x+dx, y+dy
			if !g.inBounds(nx, ny) {
				continue
			}
			ni := int32(g.index(nx, ny))
			if g.stamp[ni] == g.curStamp || g.stamp[ni] == queued {
				continue
			}
			if !g.nodes[ni].Reached() || !g.terrain.IsWalkable(nx, ny) {
				continue
			}
			g.stamp[ni] = queued
			g.pushBoth(ni)
		}
	}
}

// inconsistent reports whether a reached, non-goal node's stored cost is no
// longer justified by the edge to its parent.
func (g *Grid) inconsistent(i int32) bool {
	n := g.nodes[i]
	if !n.Reached() || g.isGoal[i] {
		return false
	}
	if n.Next == NoNode {
		return true
	}
	p := g.nodes[n.Next]
	if !p.Reached() {
		return true
	}

	pt, nt := g.tileAt(n.Next), g.tileAt(i)
	if !g.isGoal[n.Next] && !g.terrain.IsWalkable(pt.X, pt.Y) {
		return true
	}
	d, ok := tile.DirectionTo(pt, nt)
	if !ok {
		return true
	}
	if d.Diagonal() && !g.diagonalOpen(pt.X, pt.Y, d) {
		return true
	}
	return n.Cost != p.Cost+uint32(d.Cost())+g.penalty(nt.X, nt.Y)
}

func (g *Grid) beginInvalidation() {
	// Each invalidation pass uses two stamp values: curStamp for
	// invalidated nodes and curStamp+1 for nodes queued to heal.
	if g.curStamp >= math.MaxUint32-2 {
		clear(g.stamp)
		g.curStamp = 0
	}
	g.curStamp += 2
	g.invalid = g.invalid[:0]
}

// invalidate resets node i and records it for propagation. Goal nodes keep
// their zero cost but lose their children.
func (g *Grid) invalidate(i int32) {
	if g.stamp[i] == g.curStamp {
		return
	}
	g.stamp[i] = g.curStamp
	g.invalid = append(g.invalid, i)

	if g.isGoal[i] {
		return
	}
	g.detach(i)
	g.nodes[i].Cost = Unreached
	g.nodes[i].Next = NoNode
}

// propagateInvalidation walks reverse bits breadth-first, resetting every
// node whose path passed through an invalidated node.
func (g *Grid) propagateInvalidation() {
	for k := 0; k < len(g.invalid); k++ {
		i := g.invalid[k]
		prev := g.nodes[i].Prev
		g.nodes[i].Prev = 0
		if prev == 0 {
			continue
		}
		x, y := int(i)%g.width, int(i)/g.width
		for d := tile.Direction(0); d < tile.NumDirections; d++ {
			if prev&(1<<d) == 0 {
				continue
			}
			dx, dy := d.Delta()
			child := int32(g.index(x+dx, y+dy))
			if g.nodes[child].Next != i {
				continue
			}
			g.invalidate(child)
		}
	}
}

func boundingRect(tiles []tile.Tile) tile.Rect {
	x0, y0 := tiles[0].X, tiles[0].Y
	x1, y1 := x0, y0
	for _, t := range tiles[1:] {
		x0, y0 = min(x0, t.X), min(y0, t.Y)
		x1, y1 = max(x1, t.X), max(y1, t.Y)
	}
	return tile.Rect{X: x0, Y: y0, W: x1 - x0 + 1, H: y1 - y0 + 1}
}
