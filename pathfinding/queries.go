package pathfinding

import (
	"github.com/pthm-cable/pathing/config"
	"github.com/pthm-cable/pathing/navgrid"
	"github.com/pthm-cable/pathing/regions"
	"github.com/pthm-cable/pathing/search"
	"github.com/pthm-cable/pathing/telemetry"
	"github.com/pthm-cable/pathing/tile"
)

// Unit is the shape and movement ability a query is answered for.
type Unit struct {
	Width, Height    int     // pixels
	TopSpeed         float64 // pixels per frame
	Flyer            bool
	SpecialTraversal bool
}

// UnitFromConfig converts a unit catalog entry.
func UnitFromConfig(u config.UnitConfig) Unit {
	return Unit{
		Width:            u.Width,
		Height:           u.Height,
		TopSpeed:         u.TopSpeed,
		Flyer:            u.Flyer,
		SpecialTraversal: u.SpecialTraversal,
	}
}

// Options adjust how query endpoints outside any region are resolved.
type Options uint8

const (
	// UseNearestRegion resolves an endpoint to the nearest labelled tile.
	UseNearestRegion Options = 1 << iota

	// UseNeighbouringRegion moves an endpoint up to two tiles onto a region.
	UseNeighbouringRegion
)

// Has reports whether every flag in o2 is set.
func (o Options) Has(o2 Options) bool {
	return o&o2 == o2
}

// Arrival distance under which NextWaypoint skips to the following passage.
const passageArrival = 64

// adjust moves p onto a region according to opts.
func (n *Navigator) adjust(p tile.Position, opts Options) (tile.Position, bool) {
	if opts.Has(UseNearestRegion) {
		return p, true
	}
	if n.graph.RegionAtPosition(p) != regions.NoRegion {
		return p, true
	}
	if opts.Has(UseNeighbouringRegion) {
		return n.graph.NeighbouringRegion(p)
	}
	return p, false
}

func (n *Navigator) regionOf(p tile.Position, opts Options) regions.RegionID {
	r := n.graph.RegionAtPosition(p)
	if r == regions.NoRegion && opts.Has(UseNearestRegion) {
		r, _ = n.graph.NearestRegion(p.Tile())
	}
	return r
}

// GroundDistance returns the passage-routed ground distance in pixels between
// two points, or regions.NoPath if the unit cannot get there. When an
// endpoint lies in no region and cannot be adjusted onto one, the air
// distance is returned instead.
func (n *Navigator) GroundDistance(start, end tile.Position, unit Unit, opts Options) int {
	s, okS := n.adjust(start, opts)
	e, okE := n.adjust(end, opts)
	if !okS || !okE {
		n.logger.Debug("ground distance outside regions, using air distance", "start", start, "end", end)
		return tile.ApproxDistance(start, end)
	}
	return n.passagePath(s, e, unit, opts).Length
}

// PassagePath returns the passages a unit crosses between two points. An
// empty path with a non-negative Length means both points share a region.
// Endpoints outside any region yield Length regions.NoPath.
func (n *Navigator) PassagePath(start, end tile.Position, unit Unit, opts Options) regions.Path {
	s, okS := n.adjust(start, opts)
	e, okE := n.adjust(end, opts)
	if !okS || !okE {
		return regions.Path{Length: regions.NoPath}
	}
	return n.passagePath(s, e, unit, opts)
}

// passagePath tries the precomputed default path first and only runs the
// constrained search when the unit may not be able to use it.
func (n *Navigator) passagePath(start, end tile.Position, unit Unit, opts Options) regions.Path {
	n.phase(telemetry.PhasePassageSearch)
	sr, er := n.regionOf(start, opts), n.regionOf(end, opts)
	def := n.graph.DefaultPath(start, end, sr, er)

	usable := max(unit.Width, unit.Height) <= n.graph.MinPassageWidth() &&
		n.graph.Override().CanUseDefaultPath(unit.Width, unit.SpecialTraversal)
	if !usable && len(def.Passages) > 0 {
		usable = true
		for _, p := range def.Passages {
			if !n.graph.Usable(p, unit.Width, unit.SpecialTraversal) {
				usable = false
				break
			}
		}
	}
	if usable {
		return def
	}
	return n.graph.FindPassagePath(start, end, sr, er, unit.Width, unit.SpecialTraversal)
}

// SeparatingNarrowPassage returns the first narrow passage on the unit's path
// between two points.
func (n *Navigator) SeparatingNarrowPassage(start, end tile.Position, unit Unit, opts Options) (*regions.Passage, bool) {
	for _, p := range n.PassagePath(start, end, unit, opts).Passages {
		if p.Narrow {
			return p, true
		}
	}
	return nil, false
}

// ExpectedTravelTime estimates the frames a unit needs to move between two
// points. Ground distance is scaled by penaltyFactor to account for paths
// that are longer than the passage route. Immobile units get 0 and
// unreachable targets get defaultIfInaccessible.
func (n *Navigator) ExpectedTravelTime(start, end tile.Position, unit Unit, opts Options, penaltyFactor float64, defaultIfInaccessible int) int {
	if unit.TopSpeed < 0.0001 {
		return 0
	}
	if unit.Flyer {
		return int(float64(tile.ApproxDistance(start, end)) / unit.TopSpeed)
	}
	dist := n.GroundDistance(start, end, unit, opts)
	if dist == regions.NoPath {
		return defaultIfInaccessible
	}
	return int(float64(dist) * penaltyFactor / unit.TopSpeed)
}

// TravelTime is ExpectedTravelTime with the configured factor and fallback.
func (n *Navigator) TravelTime(start, end tile.Position, unit Unit, opts Options) int {
	return n.ExpectedTravelTime(start, end, unit, opts,
		n.cfg.Travel.PenaltyFactor, n.cfg.Travel.DefaultIfInaccessible)
}

// NextWaypoint returns a steering target hops grid pointers ahead of start.
// Without a grid, or when start has no path in it, the target is the next
// passage centre on the way to end. With verifyWalkability every tile walked
// over and the target itself must currently be walkable.
func (n *Navigator) NextWaypoint(start, end tile.Position, grid *navgrid.Grid, hops int, verifyWalkability bool) (tile.Position, bool) {
	if grid != nil {
		if pos, ok := n.gridWaypoint(start, end, grid, hops, verifyWalkability); ok {
			return pos, true
		}
	}

	path := n.PassagePath(start, end, Unit{}, 0)
	if !path.Found() {
		return tile.Position{}, false
	}
	target := end
	for _, p := range path.Passages {
		if tile.ApproxDistance(start, p.Center) > passageArrival {
			target = p.Center
			break
		}
	}
	if verifyWalkability && !n.field.IsWalkable(target.Tile().X, target.Tile().Y) {
		return tile.Position{}, false
	}
	return target, true
}

func (n *Navigator) gridWaypoint(start, end tile.Position, grid *navgrid.Grid, hops int, verify bool) (tile.Position, bool) {
	t := start.Tile()
	if grid.Cost(t) == navgrid.Unreached {
		return tile.Position{}, false
	}
	for ; hops > 0; hops-- {
		next, ok := grid.Next(t)
		if !ok {
			break
		}
		if verify && !n.field.IsWalkable(next.X, next.Y) {
			return tile.Position{}, false
		}
		t = next
	}
	if grid.IsGoal(t) && t == end.Tile() {
		return end, true
	}
	return t.Center(), true
}

// CheckGridPath walks the grid towards end from start and reports false as
// soon as pred rejects a node. Tiles within the configured close cost of the
// goal count as arrived. Without a grid for end it reports true; without a
// path from start it reports false.
func (n *Navigator) CheckGridPath(start, end tile.Tile, pred func(navgrid.Node) bool) bool {
	grid := n.grids.Get(end)
	if grid == nil {
		return true
	}
	if !n.field.InBounds(start.X, start.Y) {
		return false
	}
	t := start
	for i := 0; i < n.cfg.NavGrid.CheckHops; i++ {
		node := grid.Node(t)
		if node.Cost < n.cfg.NavGrid.CloseCost {
			return true
		}
		next, ok := grid.Next(t)
		if !ok {
			return false
		}
		if !pred(node) {
			return false
		}
		t = next
	}
	return true
}

// NearbyPathfindingTile returns a walkable tile within three steps of t,
// searching diamond rings of increasing radius.
func (n *Navigator) NearbyPathfindingTile(t tile.Tile) (tile.Tile, bool) {
	for radius := 0; radius < 4; radius++ {
		for x := -radius; x <= radius; x++ {
			for y := -radius; y <= radius; y++ {
				if abs(x+y) != radius {
					continue
				}
				c := t.Add(x, y)
				if n.field.IsWalkable(c.X, c.Y) {
					return c, true
				}
			}
		}
	}
	return tile.Tile{}, false
}

// Search runs a one-off tile search. Diagonals are enabled when either opts
// or the configuration asks for them.
func (n *Navigator) Search(start, end tile.Tile, opts search.Options) ([]tile.Tile, bool) {
	n.phase(telemetry.PhaseTileSearch)
	opts.AllowDiagonal = opts.AllowDiagonal || n.cfg.Search.AllowDiagonal
	return n.searcher.Search(start, end, opts)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
