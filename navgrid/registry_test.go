package navgrid

import (
	"testing"

	"github.com/pthm-cable/pathing/tile"
	"github.com/pthm-cable/pathing/walkability"
)

func TestRegistryAddGetRemove(t *testing.T) {
	f := walkability.New(12, 12, nil, nil)
	r := NewRegistry(f, noPenalty())

	a := r.Add(Goal{Tile: tile.Tile{X: 2, Y: 2}})
	if again := r.Add(Goal{Tile: tile.Tile{X: 2, Y: 2}}); again != a {
		t.Error("Add with an existing goal created a second grid")
	}
	r.Add(Goal{Tile: tile.Tile{X: 9, Y: 9}})
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	if r.Get(tile.Tile{X: 2, Y: 2}) != a {
		t.Error("Get did not return the grid for its goal")
	}
	if r.Get(tile.Tile{X: 5, Y: 5}) != nil {
		t.Error("Get returned a grid for a tile with no goal")
	}

	if got := r.Nearest(tile.Tile{X: 3, Y: 3}.Center(), 100); got != a {
		t.Error("Nearest did not pick the closer goal")
	}
	if got := r.Nearest(tile.Tile{X: 6, Y: 6}.Center(), 10); got != nil {
		t.Error("Nearest returned a grid beyond maxDist")
	}

	if !r.Remove(Goal{Tile: tile.Tile{X: 2, Y: 2}, W: 1, H: 1}) {
		t.Fatal("Remove reported no grid")
	}
	if r.Remove(Goal{Tile: tile.Tile{X: 2, Y: 2}}) {
		t.Error("second Remove reported success")
	}
	if r.Len() != 1 || r.Get(tile.Tile{X: 2, Y: 2}) != nil {
		t.Error("removed grid still reachable")
	}

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len() after Clear = %d", r.Len())
	}
}

func TestRegistryFansOutBlocking(t *testing.T) {
	f := walkability.New(16, 16, nil, nil)
	r := NewRegistry(f, noPenalty())
	goals := []tile.Tile{{X: 1, Y: 1}, {X: 14, Y: 1}, {X: 8, Y: 14}}
	for _, g := range goals {
		r.Add(Goal{Tile: g})
	}

	wall := tile.Rect{X: 0, Y: 7, W: 15, H: 1}
	if !f.SetBlocked(wall, true) {
		t.Fatal("wall did not change the field")
	}
	r.AddBlockingObject(wall)
	if r.Pending() == 0 {
		t.Fatal("no grid queued work after a blocking object")
	}
	if popped := r.Update(); popped == 0 {
		t.Error("Update expanded no nodes")
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d after Update", r.Pending())
	}
	for _, g := range r.Grids() {
		mustVerify(t, g)
		assertMatchesRebuild(t, g, f)
	}

	tiles := []tile.Tile{{X: 15, Y: 7}}
	f.SetBlocked(tile.RectAt(tiles[0], 1, 1), true)
	r.AddBlockingTiles(tiles)
	r.Update()

	// The row is now fully closed, so the far side is unreachable from the top goals.
	if c := r.Get(goals[0]).Cost(tile.Tile{X: 8, Y: 12}); c != Unreached {
		t.Errorf("cost across a closed wall = %d, want Unreached", c)
	}

	f.SetBlocked(tile.RectAt(tiles[0], 1, 1), false)
	r.RemoveBlockingTiles(tiles)
	f.SetBlocked(wall, false)
	r.RemoveBlockingObject(wall)
	r.Update()
	for _, g := range r.Grids() {
		mustVerify(t, g)
		assertMatchesRebuild(t, g, f)
	}
}

// TestRegistryKeysWholeGoal checks a footprint and a single tile goal anchored
// at the same tile get separate grids.
func TestRegistryKeysWholeGoal(t *testing.T) {
	f := walkability.New(16, 16, nil, nil)
	r := NewRegistry(f, noPenalty())
	at := tile.Tile{X: 4, Y: 4}

	single := r.Add(Goal{Tile: at})
	base := r.Add(Goal{Tile: at, W: 3, H: 2})
	if single == base {
		t.Fatal("footprint goal reused the single tile grid")
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	if got := r.Lookup(Goal{Tile: at, W: 3, H: 2}); got != base {
		t.Error("Lookup did not return the footprint grid")
	}
	if got := r.Lookup(Goal{Tile: at, W: 1, H: 1}); got != single {
		t.Error("Lookup did not return the single tile grid")
	}
	if got := r.Get(at); got != single {
		t.Error("Get did not prefer the earliest goal at the tile")
	}
	ring := tile.Tile{X: 7, Y: 6}
	if !base.IsGoal(ring) || base.Cost(ring) != 0 {
		t.Errorf("footprint ring tile %v: goal=%v cost=%d", ring, base.IsGoal(ring), base.Cost(ring))
	}
	if single.IsGoal(ring) || single.Cost(ring) == 0 {
		t.Error("single tile grid treats the footprint ring as its goal")
	}

	if !r.Remove(Goal{Tile: at}) {
		t.Fatal("Remove reported no grid")
	}
	if got := r.Get(at); got != base {
		t.Error("footprint grid lost when the single tile goal was removed")
	}
}
