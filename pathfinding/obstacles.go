package pathfinding

import (
	"github.com/pthm-cable/pathing/telemetry"
	"github.com/pthm-cable/pathing/tile"
)

// ObstacleKind classifies the entities that change ground walkability.
type ObstacleKind uint8

const (
	ObstacleBuilding ObstacleKind = iota
	ObstacleRefinery              // built over a geyser that is already unwalkable
	ObstacleResource
	ObstacleNeutral
)

// Obstacle is an entity footprint reported by the game-state layer.
type Obstacle struct {
	Kind  ObstacleKind
	Tile  tile.Tile // top-left
	W, H  int
	Flyer bool
}

// Rect returns the obstacle footprint.
func (o Obstacle) Rect() tile.Rect {
	return tile.RectAt(o.Tile, o.W, o.H)
}

func (o Obstacle) ignored() bool {
	return o.Kind == ObstacleRefinery || o.Flyer
}

// AddBlockingObject marks r unwalkable. Grids are only touched when the
// field actually changed. Reports whether it did.
func (n *Navigator) AddBlockingObject(r tile.Rect) bool {
	n.phase(telemetry.PhaseWalkability)
	if !n.field.SetBlocked(r, true) {
		return false
	}
	n.phase(telemetry.PhaseGridInvalidate)
	n.grids.AddBlockingObject(r)
	n.logger.Debug("blocking object added", "rect", r)
	return true
}

// RemoveBlockingObject restores terrain walkability under r.
func (n *Navigator) RemoveBlockingObject(r tile.Rect) bool {
	n.phase(telemetry.PhaseWalkability)
	if !n.field.SetBlocked(r, false) {
		return false
	}
	n.phase(telemetry.PhaseGridInvalidate)
	n.grids.RemoveBlockingObject(r)
	n.logger.Debug("blocking object removed", "rect", r)
	return true
}

// AddBlockingTiles marks scattered tiles unwalkable, such as a mineral line.
// Returns the number of tiles that changed.
func (n *Navigator) AddBlockingTiles(tiles []tile.Tile) int {
	changed := n.setTiles(tiles, true)
	if len(changed) > 0 {
		n.phase(telemetry.PhaseGridInvalidate)
		n.grids.AddBlockingTiles(changed)
	}
	return len(changed)
}

// RemoveBlockingTiles restores scattered tiles.
func (n *Navigator) RemoveBlockingTiles(tiles []tile.Tile) int {
	changed := n.setTiles(tiles, false)
	if len(changed) > 0 {
		n.phase(telemetry.PhaseGridInvalidate)
		n.grids.RemoveBlockingTiles(changed)
	}
	return len(changed)
}

func (n *Navigator) setTiles(tiles []tile.Tile, blocked bool) []tile.Tile {
	n.phase(telemetry.PhaseWalkability)
	var changed []tile.Tile
	for _, t := range tiles {
		if n.field.SetBlocked(tile.RectAt(t, 1, 1), blocked) {
			changed = append(changed, t)
		}
	}
	return changed
}

// OnObstacleCreated applies a newly created or discovered obstacle.
func (n *Navigator) OnObstacleCreated(o Obstacle) {
	if o.ignored() {
		return
	}
	n.AddBlockingObject(o.Rect())
}

// OnObstacleDestroyed removes a destroyed obstacle or depleted resource.
func (n *Navigator) OnObstacleDestroyed(o Obstacle) {
	if o.ignored() {
		return
	}
	n.RemoveBlockingObject(o.Rect())
}

// OnBuildingLifted frees the footprint of a building that took off.
func (n *Navigator) OnBuildingLifted(o Obstacle) {
	if o.Kind == ObstacleRefinery {
		return
	}
	n.RemoveBlockingObject(o.Rect())
}

// OnBuildingLanded blocks the footprint of a building that landed.
func (n *Navigator) OnBuildingLanded(o Obstacle) {
	if o.Kind == ObstacleRefinery {
		return
	}
	n.AddBlockingObject(o.Rect())
}
