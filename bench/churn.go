package bench

import (
	"time"

	"github.com/pthm-cable/pathing/telemetry"
	"github.com/pthm-cable/pathing/tile"
)

// addBias is the chance a change adds an obstacle rather than removing one.
const addBias = 0.55

// placeAttempts bounds the search for a fully walkable footprint.
const placeAttempts = 8

// churn adds a random obstacle or removes a placed one and records its cost.
func (r *Runner) churn() {
	if len(r.placed) > 0 && r.rng.Float64() >= addBias {
		i := r.rng.Intn(len(r.placed))
		rect := r.placed[i]
		r.placed[i] = r.placed[len(r.placed)-1]
		r.placed = r.placed[:len(r.placed)-1]
		r.apply(telemetry.ChangeRemove, rect)
		return
	}

	rect, ok := r.footprint()
	if !ok {
		return
	}
	if r.apply(telemetry.ChangeAdd, rect) {
		r.placed = append(r.placed, rect)
	}
}

// footprint picks a random rectangle whose tiles are all currently walkable,
// so removing it later restores exactly what it blocked.
func (r *Runner) footprint() (tile.Rect, bool) {
	f := r.nav.Field()
	w, h := f.Size()
	maxSide := max(1, r.cfg.Bench.MaxObstacle)

next:
	for attempt := 0; attempt < placeAttempts; attempt++ {
		rect := tile.Rect{
			W: 1 + r.rng.Intn(maxSide),
			H: 1 + r.rng.Intn(maxSide),
		}
		rect.X = r.rng.Intn(max(1, w-rect.W+1))
		rect.Y = r.rng.Intn(max(1, h-rect.H+1))
		for y := rect.Y; y < rect.Y+rect.H; y++ {
			for x := rect.X; x < rect.X+rect.W; x++ {
				if !f.IsWalkable(x, y) {
					continue next
				}
			}
		}
		return rect, true
	}
	return tile.Rect{}, false
}

// apply performs one change and drains the grids so its cost can be
// attributed. Reports whether the field changed.
func (r *Runner) apply(kind string, rect tile.Rect) bool {
	start := time.Now()
	var changed bool
	if kind == telemetry.ChangeAdd {
		changed = r.nav.AddBlockingObject(rect)
	} else {
		changed = r.nav.RemoveBlockingObject(rect)
	}
	invalidated := time.Now()
	popped := 0
	if changed {
		popped = r.nav.Update()
	}

	rec := telemetry.ChangeRecord{
		Tick:         r.tick,
		Kind:         kind,
		X:            rect.X,
		Y:            rect.Y,
		W:            rect.W,
		H:            rect.H,
		Changed:      changed,
		Grids:        r.nav.Grids().Len(),
		Popped:       popped,
		InvalidateUS: invalidated.Sub(start).Microseconds(),
		UpdateUS:     time.Since(invalidated).Microseconds(),
	}
	r.pending = append(r.pending, rec)
	r.records = append(r.records, rec)
	return changed
}
