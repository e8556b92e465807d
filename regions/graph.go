// Package regions models the map as open regions joined by passages
// (chokepoints) and answers passage-level path queries.
//
// Two tiers are provided. DefaultPath looks up a precomputed all-pairs table
// and ignores unit shape. FindPassagePath runs a constrained search that only
// crosses passages wide enough for the unit and whose traversal mode it may use.
package regions

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/pathing/tile"
)

// RegionID identifies a region. IDs are dense, starting at 0.
type RegionID int

// NoRegion labels a tile that belongs to no region.
const NoRegion RegionID = -1

// NoPath is the Path length reported when two points cannot be connected.
const NoPath = -1

// Region is a maximal connected walkable area.
type Region struct {
	ID        RegionID
	Elevation int
	Passages  []PassageID
	Tiles     int
}

// Topology is the one-time map analysis a Graph is built from.
type Topology struct {
	Width, Height int

	// Labels holds the region of every tile, row-major, NoRegion for none.
	Labels []RegionID

	// Elevations holds the ground height of each region, indexed by RegionID.
	Elevations []int

	Passages []PassageSpec
}

// Options configures graph construction.
type Options struct {
	NarrowWidthThreshold int // passages narrower than this get Narrow set
	WidthPadding         int // added to the end-to-end distance of a passage
	Logger               *slog.Logger
}

// DefaultOptions returns the standard graph options.
func DefaultOptions() Options {
	return Options{NarrowWidthThreshold: 128, WidthPadding: 15}
}

// Graph is the region/passage graph of one map. It is immutable after
// construction and safe to share.
type Graph struct {
	width, height int
	labels        []RegionID
	regions       []Region
	passages      []Passage
	isolated      []bool
	override      Override
	logger        *slog.Logger

	minWidth int
	table    *defaultTable
}

// NewGraph validates topo, derives passage geometry, applies the override and
// builds the default path table.
func NewGraph(topo Topology, override Override, opts Options) (*Graph, error) {
	if topo.Width <= 0 || topo.Height <= 0 {
		return nil, fmt.Errorf("regions: invalid map size %dx%d", topo.Width, topo.Height)
	}
	if len(topo.Labels) != topo.Width*topo.Height {
		return nil, fmt.Errorf("regions: %d labels for a %dx%d map", len(topo.Labels), topo.Width, topo.Height)
	}
	if override == nil {
		override = DefaultOverride{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := &Graph{
		width:    topo.Width,
		height:   topo.Height,
		labels:   topo.Labels,
		regions:  make([]Region, len(topo.Elevations)),
		isolated: make([]bool, len(topo.Elevations)),
		override: override,
		logger:   logger,
	}
	for i, e := range topo.Elevations {
		g.regions[i] = Region{ID: RegionID(i), Elevation: e}
	}
	for i, r := range topo.Labels {
		if r == NoRegion {
			continue
		}
		if !g.validRegion(r) {
			return nil, fmt.Errorf("regions: tile %d labelled with unknown region %d", i, r)
		}
		g.regions[r].Tiles++
	}

	g.passages = make([]Passage, len(topo.Passages))
	for i, spec := range topo.Passages {
		for _, r := range spec.Regions {
			if !g.validRegion(r) {
				return nil, fmt.Errorf("regions: passage %d joins unknown region %d", i, r)
			}
		}
		if spec.Regions[0] == spec.Regions[1] {
			return nil, fmt.Errorf("regions: passage %d joins region %d to itself", i, spec.Regions[0])
		}
		g.passages[i] = newPassage(PassageID(i), spec, opts.WidthPadding)
	}

	override.AdjustPassages(g.passages)
	for _, r := range override.IsolatedRegions() {
		if g.validRegion(r) {
			g.isolated[r] = true
		}
	}

	g.minWidth = 0
	for i := range g.passages {
		p := &g.passages[i]
		p.Narrow = p.Narrow || p.Width < opts.NarrowWidthThreshold
		p.Ramp = g.regions[p.Regions[0]].Elevation != g.regions[p.Regions[1]].Elevation
		if p.Narrow && p.Ramp {
			p.Crest, p.HasCrest = g.findCrest(p)
		}
		for _, r := range p.Regions {
			g.regions[r].Passages = append(g.regions[r].Passages, p.ID)
		}
		if i == 0 || p.Width < g.minWidth {
			g.minWidth = p.Width
		}
	}

	g.table = newDefaultTable(g)
	g.logger.Info("region graph built",
		"regions", len(g.regions),
		"passages", len(g.passages),
		"min_width", g.minWidth,
	)
	return g, nil
}

// Size returns the map dimensions in tiles.
func (g *Graph) Size() (width, height int) {
	return g.width, g.height
}

// Regions returns every region, indexed by ID.
func (g *Graph) Regions() []Region {
	return g.regions
}

// Region returns the region with the given ID.
func (g *Graph) Region(id RegionID) *Region {
	if !g.validRegion(id) {
		return nil
	}
	return &g.regions[id]
}

// Passages returns every passage, indexed by ID.
func (g *Graph) Passages() []Passage {
	return g.passages
}

// Passage returns the passage with the given ID.
func (g *Graph) Passage(id PassageID) *Passage {
	if id < 0 || int(id) >= len(g.passages) {
		return nil
	}
	return &g.passages[id]
}

// Override returns the map override the graph was built with.
func (g *Graph) Override() Override {
	return g.override
}

// MinPassageWidth returns the width of the narrowest passage, 0 if there are none.
func (g *Graph) MinPassageWidth() int {
	return g.minWidth
}

// Isolated reports whether the override cut r off from the passage graph.
func (g *Graph) Isolated(r RegionID) bool {
	return g.validRegion(r) && g.isolated[r]
}

// RegionAt returns the region containing t, NoRegion if none or off the map.
func (g *Graph) RegionAt(t tile.Tile) RegionID {
	if t.X < 0 || t.Y < 0 || t.X >= g.width || t.Y >= g.height {
		return NoRegion
	}
	return g.labels[t.X+t.Y*g.width]
}

// RegionAtPosition returns the region containing the pixel position p.
func (g *Graph) RegionAtPosition(p tile.Position) RegionID {
	return g.RegionAt(p.Tile())
}

// NearestRegion returns the region of the labelled tile closest to t by
// breadth-first search, along with that tile.
func (g *Graph) NearestRegion(t tile.Tile) (RegionID, tile.Tile) {
	if r := g.RegionAt(t); r != NoRegion {
		return r, t
	}
	if t.X < 0 || t.Y < 0 || t.X >= g.width || t.Y >= g.height {
		t.X = min(max(t.X, 0), g.width-1)
		t.Y = min(max(t.Y, 0), g.height-1)
	}

	seen := make([]bool, g.width*g.height)
	queue := []tile.Tile{t}
	seen[t.X+t.Y*g.width] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if r := g.labels[cur.X+cur.Y*g.width]; r != NoRegion {
			return r, cur
		}
		for d := tile.Direction(0); d < tile.NumDirections; d++ {
			dx, dy := d.Delta()
			nx, ny := cur.X+dx, cur.Y+dy
			if nx < 0 || ny < 0 || nx >= g.width || ny >= g.height || seen[nx+ny*g.width] {
				continue
			}
			seen[nx+ny*g.width] = true
			queue = append(queue, tile.Tile{X: nx, Y: ny})
		}
	}
	return NoRegion, t
}

// neighbourSpiral lists pixel offsets searched outwards by NeighbouringRegion.
var neighbourSpiral = [...]tile.Position{
	{X: -32, Y: 0}, {X: 0, Y: -32}, {X: 32, Y: 0}, {X: 0, Y: 32},
	{X: -32, Y: -32}, {X: 32, Y: -32}, {X: 32, Y: 32}, {X: -32, Y: 32},
	{X: -64, Y: 0}, {X: 0, Y: -64}, {X: 64, Y: 0}, {X: 0, Y: 64},
	{X: -64, Y: -32}, {X: -32, Y: -64}, {X: 32, Y: -64}, {X: 64, Y: -32},
	{X: 64, Y: 32}, {X: 32, Y: 64}, {X: -32, Y: 64}, {X: -64, Y: 32},
}

// NeighbouringRegion returns p if it lies in a region, otherwise the first
// position within two tiles of p that does.
func (g *Graph) NeighbouringRegion(p tile.Position) (tile.Position, bool) {
	if g.RegionAtPosition(p) != NoRegion {
		return p, true
	}
	for _, off := range neighbourSpiral {
		q := p.Add(off.X, off.Y)
		if g.RegionAtPosition(q) != NoRegion {
			return q, true
		}
	}
	return tile.Position{}, false
}

func (g *Graph) validRegion(r RegionID) bool {
	return r >= 0 && int(r) < len(g.regions)
}
