package navgrid

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/pathing/tile"
)

// ErrInvariant is wrapped by every error returned from Verify.
var ErrInvariant = errors.New("navgrid invariant violated")

// Verify checks the structural invariants of a drained grid:
//   - goal tiles have cost 0 and no next step
//   - every other reached tile has a next step with a strictly lower cost
//   - following up to maxHops pointers never loops and never enters an unwalkable tile
//   - reverse bits match next-step pointers exactly
//   - no edge can still be relaxed, so costs are shortest-path costs
//
// It is intended for tests and diagnostics, and costs O(tiles * maxHops).
func (g *Grid) Verify(maxHops int) error {
	if len(g.queue) > 0 {
		return fmt.Errorf("%w: %d relaxations pending", ErrInvariant, len(g.queue))
	}

	for i := range g.nodes {
		n := g.nodes[i]
		t := g.tileAt(int32(i))

		if g.isGoal[i] {
			if n.Cost != 0 || n.Next != NoNode {
				return fmt.Errorf("%w: goal %v has cost %d next %d", ErrInvariant, t, n.Cost, n.Next)
			}
		} else if n.Reached() {
			if n.Cost == 0 {
				return fmt.Errorf("%w: non-goal %v has zero cost", ErrInvariant, t)
			}
			if n.Next == NoNode {
				return fmt.Errorf("%w: %v has cost %d but no next step", ErrInvariant, t, n.Cost)
			}
			if g.nodes[n.Next].Cost >= n.Cost {
				return fmt.Errorf("%w: %v cost %d does not decrease to %v cost %d",
					ErrInvariant, t, n.Cost, g.tileAt(n.Next), g.nodes[n.Next].Cost)
			}
			d, ok := tile.DirectionTo(g.tileAt(n.Next), t)
			if !ok {
				return fmt.Errorf("%w: %v next step %v is not adjacent", ErrInvariant, t, g.tileAt(n.Next))
			}
			if g.nodes[n.Next].Prev&(1<<d) == 0 {
				return fmt.Errorf("%w: %v missing reverse bit %v on parent", ErrInvariant, t, d)
			}
		} else if n.Next != NoNode {
			return fmt.Errorf("%w: unreached %v has a next step", ErrInvariant, t)
		}

		for d := tile.Direction(0); d < tile.NumDirections; d++ {
			if n.Prev&(1<<d) == 0 {
				continue
			}
			dx, dy := d.Delta()
			if !g.inBounds(t.X+dx, t.Y+dy) || g.nodes[g.index(t.X+dx, t.Y+dy)].Next != int32(i) {
				return fmt.Errorf("%w: %v has stale reverse bit %v", ErrInvariant, t, d)
			}
		}

		cur := n.Next
		for hop := 0; cur != NoNode && hop < maxHops; hop++ {
			if cur == int32(i) {
				return fmt.Errorf("%w: loop through %v", ErrInvariant, t)
			}
			ct := g.tileAt(cur)
			if !g.terrain.IsWalkable(ct.X, ct.Y) {
				return fmt.Errorf("%w: path from %v passes unwalkable %v", ErrInvariant, t, ct)
			}
			cur = g.nodes[cur].Next
		}

		if n.Reached() && g.terrain.IsWalkable(t.X, t.Y) {
			for d := tile.Direction(0); d < tile.NumDirections; d++ {
				dx, dy := d.Delta()
				nx, ny := t.X+dx, t.Y+dy
				if !g.inBounds(nx, ny) {
					continue
				}
				if d.Diagonal() && !g.diagonalOpen(t.X, t.Y, d) {
					continue
				}
				cand := n.Cost + uint32(d.Cost()) + g.penalty(nx, ny)
				if g.nodes[g.index(nx, ny)].Cost > cand {
					return fmt.Errorf("%w: edge %v->%v still relaxable (%d > %d)",
						ErrInvariant, t, tile.Tile{X: nx, Y: ny}, g.nodes[g.index(nx, ny)].Cost, cand)
				}
			}
		}
	}
	return nil
}
