package navgrid

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/pthm-cable/pathing/tile"
	"github.com/pthm-cable/pathing/walkability"
)

func noPenalty() Options {
	return Options{ProximityPenalty: 0}
}

// block applies a rectangle to the field and, when it changed, to the grid.
func block(f *walkability.Field, g *Grid, r tile.Rect) {
	if f.SetBlocked(r, true) {
		g.AddBlockingObject(r)
	}
}

func unblock(f *walkability.Field, g *Grid, r tile.Rect) {
	if f.SetBlocked(r, false) {
		g.RemoveBlockingObject(r)
	}
}

// assertMatchesRebuild compares every cost with a grid built from scratch.
func assertMatchesRebuild(t *testing.T, g *Grid, f *walkability.Field) {
	t.Helper()
	ref := New(f, g.Goal(), g.opts)
	w, h := f.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := tile.Tile{X: x, Y: y}
			if got, want := g.Cost(p), ref.Cost(p); got != want {
				t.Fatalf("cost at %v = %d, rebuild has %d", p, got, want)
			}
		}
	}
}

func mustVerify(t *testing.T, g *Grid) {
	t.Helper()
	if err := g.Verify(5); err != nil {
		t.Fatal(err)
	}
}

// TestScenarioEmptyFieldCosts checks that an empty field yields exact octile
// costs and that blocking a goal neighbour re-routes around it.
func TestScenarioEmptyFieldCosts(t *testing.T) {
	f := walkability.New(10, 10, nil, nil)
	goal := tile.Tile{X: 5, Y: 5}
	g := New(f, Goal{Tile: goal}, noPenalty())
	mustVerify(t, g)

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			p := tile.Tile{X: x, Y: y}
			if got, want := g.Cost(p), uint32(tile.Octile(p, goal)); got != want {
				t.Errorf("cost at %v = %d, want %d", p, got, want)
			}
		}
	}

	block(f, g, tile.Rect{X: 5, Y: 4, W: 1, H: 1})
	g.Update()
	mustVerify(t, g)
	assertMatchesRebuild(t, g, f)

	tests := []struct {
		at   tile.Tile
		want uint32
	}{
		{tile.Tile{X: 5, Y: 4}, 10}, // blocked tile keeps a cost but is never expanded
		{tile.Tile{X: 4, Y: 4}, 20}, // diagonal to goal loses its corner: 14 -> 10+10
		{tile.Tile{X: 6, Y: 4}, 20},
		{tile.Tile{X: 4, Y: 3}, 30},
		{tile.Tile{X: 5, Y: 3}, 40}, // re-routes via (4,3) or (6,3)
		{tile.Tile{X: 3, Y: 4}, 24}, // unaffected
		{tile.Tile{X: 5, Y: 6}, 10},
	}
	for _, tt := range tests {
		if got := g.Cost(tt.at); got != tt.want {
			t.Errorf("after block, cost at %v = %d, want %d", tt.at, got, tt.want)
		}
	}

	diff := g.Cost(tile.Tile{X: 4, Y: 4}) - uint32(tile.CostDiagonal)
	if diff != 2*tile.CostCardinal-tile.CostDiagonal {
		t.Errorf("diagonal neighbour differential = %d, want %d", diff, 2*tile.CostCardinal-tile.CostDiagonal)
	}
	next, _ := g.Next(tile.Tile{X: 5, Y: 3})
	if next == (tile.Tile{X: 5, Y: 4}) {
		t.Error("(5,3) still steps into the blocked tile")
	}

	unblock(f, g, tile.Rect{X: 5, Y: 4, W: 1, H: 1})
	g.Update()
	mustVerify(t, g)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			p := tile.Tile{X: x, Y: y}
			if got, want := g.Cost(p), uint32(tile.Octile(p, goal)); got != want {
				t.Errorf("after unblock, cost at %v = %d, want %d", p, got, want)
			}
		}
	}
}

// TestScenarioSeverAndRestore blocks the only gap in a wall and checks the far
// side becomes unreached, then reachable again once the gap reopens.
func TestScenarioSeverAndRestore(t *testing.T) {
	terrain := func(x, y int) bool { return x != 10 || y == 5 }
	f := walkability.New(20, 10, terrain, nil)
	g := New(f, Goal{Tile: tile.Tile{X: 2, Y: 5}}, DefaultOptions())
	mustVerify(t, g)

	far := tile.Tile{X: 17, Y: 5}
	if g.Cost(far) == Unreached {
		t.Fatal("far side should be reachable through the gap")
	}

	gap := tile.Rect{X: 10, Y: 5, W: 1, H: 1}
	block(f, g, gap)
	g.Update()
	mustVerify(t, g)
	if got := g.Cost(far); got != Unreached {
		t.Errorf("far side cost = %d after severing, want Unreached", got)
	}
	if _, ok := g.Next(far); ok {
		t.Error("severed tile should have no next step")
	}
	assertMatchesRebuild(t, g, f)

	unblock(f, g, gap)
	g.Update()
	mustVerify(t, g)
	if g.Cost(far) == Unreached {
		t.Error("far side should be reachable again after reopening the gap")
	}
	assertMatchesRebuild(t, g, f)
}

// TestFootprintGoalSeedsRing verifies a footprint goal seeds the surrounding ring.
func TestFootprintGoalSeedsRing(t *testing.T) {
	f := walkability.New(30, 30, nil, []tile.Rect{{X: 10, Y: 10, W: 4, H: 3}})
	goal := Goal{Tile: tile.Tile{X: 10, Y: 10}, W: 4, H: 3}
	g := New(f, goal, DefaultOptions())
	mustVerify(t, g)

	ring := goal.Rect().Expand(1).Perimeter()
	if len(ring) != 2*(6+5)-4 {
		t.Fatalf("ring has %d tiles", len(ring))
	}
	for _, p := range ring {
		if !g.IsGoal(p) || g.Cost(p) != 0 {
			t.Errorf("ring tile %v: goal=%v cost=%d", p, g.IsGoal(p), g.Cost(p))
		}
	}
	if g.IsGoal(tile.Tile{X: 11, Y: 11}) {
		t.Error("footprint interior should not be a goal")
	}
	// Footprint edge tiles are unwalkable leaves reached from the ring; the
	// interior is never expanded into.
	if g.Cost(tile.Tile{X: 10, Y: 10}) != tile.CostDiagonal {
		t.Errorf("footprint corner cost = %d, want %d", g.Cost(tile.Tile{X: 10, Y: 10}), tile.CostDiagonal)
	}
	if g.Cost(tile.Tile{X: 11, Y: 11}) != Unreached {
		t.Error("footprint interior should stay unreached")
	}
}

// TestProximityPenalty checks tiles next to obstacles cost more to enter.
func TestProximityPenalty(t *testing.T) {
	f := walkability.New(30, 30, nil, nil)
	goal := tile.Tile{X: 15, Y: 15}
	g := New(f, Goal{Tile: goal}, DefaultOptions())
	mustVerify(t, g)

	// (15,14) has proximity 15, no penalty.
	if got := g.Cost(tile.Tile{X: 15, Y: 14}); got != 10 {
		t.Errorf("open neighbour cost = %d, want 10", got)
	}
	// Edge tiles have proximity 1 and pay 2 extra to enter.
	edge := tile.Tile{X: 15, Y: 0}
	plain := uint32(tile.Octile(edge, goal))
	if got := g.Cost(edge); got <= plain {
		t.Errorf("edge tile cost = %d, want more than %d", got, plain)
	}
}

// TestIncrementalMatchesRebuild applies random churn and compares with a full rebuild.
func TestIncrementalMatchesRebuild(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		goal    Goal
		terrain func(x, y int) bool
	}{
		{
			name: "penalty, footprint goal",
			opts: DefaultOptions(),
			goal: Goal{Tile: tile.Tile{X: 6, Y: 6}, W: 4, H: 3},
			terrain: func(x, y int) bool {
				return !(x == 20 && y < 30) && !(y == 25 && x > 8 && x < 36)
			},
		},
		{
			name:    "no penalty, tile goal",
			opts:    noPenalty(),
			goal:    Goal{Tile: tile.Tile{X: 30, Y: 30}},
			terrain: func(x, y int) bool { return (x+y)%11 != 0 || x%5 == 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			f := walkability.New(40, 36, tt.terrain, nil)
			g := New(f, tt.goal, tt.opts)
			mustVerify(t, g)

			var placed []tile.Rect
			for step := 0; step < 150; step++ {
				if len(placed) > 0 && rng.Intn(3) == 0 {
					k := rng.Intn(len(placed))
					unblock(f, g, placed[k])
					placed = append(placed[:k], placed[k+1:]...)
				} else {
					r := tile.Rect{X: rng.Intn(40), Y: rng.Intn(36), W: 1 + rng.Intn(4), H: 1 + rng.Intn(3)}
					block(f, g, r)
					placed = append(placed, r)
				}
				if step%10 == 0 {
					g.Update()
					mustVerify(t, g)
					assertMatchesRebuild(t, g, f)
				}
			}
			g.Update()
			mustVerify(t, g)
			assertMatchesRebuild(t, g, f)
		})
	}
}

// TestBlockingTiles checks scattered tile updates behave like rectangles.
func TestBlockingTiles(t *testing.T) {
	f := walkability.New(24, 24, nil, nil)
	g := New(f, Goal{Tile: tile.Tile{X: 3, Y: 12}}, DefaultOptions())

	line := []tile.Tile{{X: 10, Y: 9}, {X: 11, Y: 10}, {X: 10, Y: 11}, {X: 11, Y: 12}, {X: 10, Y: 13}}
	for _, p := range line {
		f.SetBlocked(tile.RectAt(p, 1, 1), true)
	}
	g.AddBlockingTiles(line)
	g.Update()
	mustVerify(t, g)
	assertMatchesRebuild(t, g, f)

	for _, p := range line {
		f.SetBlocked(tile.RectAt(p, 1, 1), false)
	}
	g.RemoveBlockingTiles(line)
	g.Update()
	mustVerify(t, g)
	assertMatchesRebuild(t, g, f)
}

// TestLocalityOfIncrementalUpdate verifies that every tile whose cost changed
// either lies next to the edit or previously routed through it.
func TestLocalityOfIncrementalUpdate(t *testing.T) {
	f := walkability.New(48, 48, nil, nil)
	g := New(f, Goal{Tile: tile.Tile{X: 4, Y: 24}}, DefaultOptions())

	before := make([]Node, len(g.nodes))
	copy(before, g.nodes)

	r := tile.Rect{X: 20, Y: 22, W: 2, H: 4}
	block(f, g, r)
	g.Update()
	mustVerify(t, g)

	zone := r.Expand(g.margin())
	changed := 0
	for i := range g.nodes {
		if g.nodes[i].Cost == before[i].Cost {
			continue
		}
		changed++
		cur := int32(i)
		hit := false
		for hop := 0; hop < 200 && cur != NoNode; hop++ {
			p := g.tileAt(cur)
			if zone.ContainsTile(p) {
				hit = true
				break
			}
			cur = before[cur].Next
		}
		if !hit {
			t.Errorf("tile %v changed without routing through the edit", g.tileAt(int32(i)))
		}
	}
	if changed == 0 {
		t.Error("expected some costs to change")
	}
	if changed > len(g.nodes)/2 {
		t.Errorf("%d of %d tiles changed, expected a local update", changed, len(g.nodes))
	}
}

// TestUpdateIdle verifies Update is a no-op without pending work.
func TestUpdateIdle(t *testing.T) {
	f := walkability.New(16, 16, nil, nil)
	g := New(f, Goal{Tile: tile.Tile{X: 8, Y: 8}}, DefaultOptions())
	stats := g.LastUpdate()

	if g.Pending() != 0 {
		t.Fatalf("Pending() = %d after construction", g.Pending())
	}
	g.Update()
	if g.LastUpdate() != stats {
		t.Error("idle Update should not record a new drain")
	}
}

// TestWaypointAndPath follows next-step pointers.
func TestWaypointAndPath(t *testing.T) {
	f := walkability.New(20, 20, nil, nil)
	goal := tile.Tile{X: 10, Y: 10}
	g := New(f, Goal{Tile: goal}, noPenalty())

	start := tile.Tile{X: 10, Y: 2}
	wp, ok := g.Waypoint(start, 3)
	if !ok || wp != (tile.Tile{X: 10, Y: 5}) {
		t.Errorf("Waypoint(3) = %v,%v, want {10 5},true", wp, ok)
	}
	wp, _ = g.Waypoint(start, 100)
	if wp != goal {
		t.Errorf("Waypoint past goal = %v, want goal", wp)
	}

	path := g.Path(start)
	if len(path) != 8 || path[len(path)-1] != goal {
		t.Errorf("Path = %v, want 8 tiles ending at goal", path)
	}
}

// TestVerifyDetectsCorruption ensures Verify reports broken invariants.
func TestVerifyDetectsCorruption(t *testing.T) {
	f := walkability.New(10, 10, nil, nil)
	g := New(f, Goal{Tile: tile.Tile{X: 5, Y: 5}}, noPenalty())

	g.nodes[g.index(2, 2)].Next = NoNode
	err := g.Verify(5)
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("Verify() = %v, want ErrInvariant", err)
	}
}

// TestBatchedBlockThenUnblock removes a wall in the same batch that cut off
// a large subtree, then checks the whole subtree heals in one Update.
func TestBatchedBlockThenUnblock(t *testing.T) {
	f := walkability.New(30, 30, nil, nil)
	g := New(f, Goal{Tile: tile.Tile{X: 2, Y: 15}}, DefaultOptions())

	wall := tile.Rect{X: 6, Y: 0, W: 2, H: 30}
	block(f, g, wall)
	unblock(f, g, tile.Rect{X: 6, Y: 0, W: 2, H: 12})
	block(f, g, tile.Rect{X: 15, Y: 10, W: 3, H: 3})
	g.Update()
	mustVerify(t, g)
	assertMatchesRebuild(t, g, f)

	unblock(f, g, wall)
	unblock(f, g, tile.Rect{X: 15, Y: 10, W: 3, H: 3})
	g.Update()
	mustVerify(t, g)
	assertMatchesRebuild(t, g, f)
}

// TestRandomBatchedUpdates batches random rectangle and tile edits between
// updates, across many seeds, penalties and goal shapes.
func TestRandomBatchedUpdates(t *testing.T) {
	const w, h = 24, 20
	terrain := func(x, y int) bool { return !(x == 12 && y < 14) && !(y == 16 && x > 4 && x < 20) }

	for seed := int64(0); seed < 40; seed++ {
		rng := rand.New(rand.NewSource(seed))
		f := walkability.New(w, h, terrain, nil)
		opts := Options{ProximityPenalty: rng.Intn(4)}
		goal := Goal{Tile: tile.Tile{X: 1 + rng.Intn(9), Y: 1 + rng.Intn(12)}}
		if rng.Intn(2) == 0 {
			goal.W, goal.H = 3, 2
		}
		g := New(f, goal, opts)
		mustVerify(t, g)

		var placed []tile.Rect
		for step := 0; step < 60; step++ {
			switch op := rng.Intn(4); {
			case op == 0 && len(placed) > 0:
				k := rng.Intn(len(placed))
				unblock(f, g, placed[k])
				placed = append(placed[:k], placed[k+1:]...)
			case op == 1:
				var changed []tile.Tile
				for n := 1 + rng.Intn(5); n > 0; n-- {
					p := tile.Tile{X: rng.Intn(w), Y: rng.Intn(h)}
					if f.SetBlocked(tile.RectAt(p, 1, 1), rng.Intn(2) == 0) {
						changed = append(changed, p)
					}
				}
				// A tile may flip twice; each call only needs the tiles it touches.
				var closed, opened []tile.Tile
				for _, p := range changed {
					if f.IsWalkable(p.X, p.Y) {
						opened = append(opened, p)
					} else {
						closed = append(closed, p)
					}
				}
				if len(closed) > 0 {
					g.AddBlockingTiles(closed)
				}
				if len(opened) > 0 {
					g.RemoveBlockingTiles(opened)
				}
			default:
				// Rectangles may overlap each other and hang off the map edge.
				r := tile.Rect{X: rng.Intn(w+4) - 2, Y: rng.Intn(h+4) - 2, W: 1 + rng.Intn(5), H: 1 + rng.Intn(4)}
				block(f, g, r)
				placed = append(placed, r)
			}
			if rng.Intn(4) == 0 {
				g.Update()
				mustVerify(t, g)
				assertMatchesRebuild(t, g, f)
			}
		}
		g.Update()
		mustVerify(t, g)
		assertMatchesRebuild(t, g, f)
	}
}

// TestDiagonalNeedsBothCorners blocks each corner of each diagonal step into
// the goal in turn and checks the step is refused.
func TestDiagonalNeedsBothCorners(t *testing.T) {
	goal := tile.Tile{X: 3, Y: 3}
	for d := tile.Direction(0); d < tile.NumDirections; d++ {
		if !d.Diagonal() {
			continue
		}
		dx, dy := d.Delta()
		from := goal.Add(dx, dy)
		a, b := d.Opposite().Corners()
		for _, c := range []tile.Direction{a, b} {
			cx, cy := c.Delta()
			corner := from.Add(cx, cy)

			f := walkability.New(7, 7, nil, nil)
			g := New(f, Goal{Tile: goal}, noPenalty())
			if got := g.Cost(from); got != tile.CostDiagonal {
				t.Fatalf("%v: open diagonal cost = %d, want %d", d, got, tile.CostDiagonal)
			}
			block(f, g, tile.RectAt(corner, 1, 1))
			g.Update()
			mustVerify(t, g)
			if got := g.Cost(from); got != 2*tile.CostCardinal {
				t.Errorf("%v with corner %v blocked: cost = %d, want %d", d, corner, got, 2*tile.CostCardinal)
			}
		}
	}
}
