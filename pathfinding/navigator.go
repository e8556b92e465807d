// Package pathfinding is the query façade over the navigation layers. It
// owns the walkability field, the region graph and the live navigation grids
// of one match, applies obstacle notifications to them in order, and answers
// distance, path and waypoint queries for a given unit shape.
package pathfinding

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/pathing/config"
	"github.com/pthm-cable/pathing/mapdata"
	"github.com/pthm-cable/pathing/navgrid"
	"github.com/pthm-cable/pathing/regions"
	"github.com/pthm-cable/pathing/search"
	"github.com/pthm-cable/pathing/telemetry"
	"github.com/pthm-cable/pathing/tile"
	"github.com/pthm-cable/pathing/walkability"
)

// InitData is the one-time map data a Navigator is built from.
type InitData struct {
	Width, Height   int
	TerrainWalkable func(x, y int) bool
	Static          []tile.Rect
	Topology        regions.Topology
	Override        regions.Override

	// Bases are the top-left tiles of base footprints. Each gets a grid.
	Bases []tile.Tile
}

// Navigator answers navigation queries for one match. It is not safe for
// concurrent use: apply every obstacle change and call Update before
// querying within a tick.
type Navigator struct {
	cfg    *config.Config
	logger *slog.Logger

	field    *walkability.Field
	graph    *regions.Graph
	grids    *navgrid.Registry
	searcher *search.Searcher

	bases []tile.Tile
	perf  *telemetry.PerfCollector
}

// New builds the field, region graph and initial grids for a match.
func New(cfg *config.Config, data InitData, logger *slog.Logger) (*Navigator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if data.Topology.Width != data.Width || data.Topology.Height != data.Height {
		return nil, fmt.Errorf("pathfinding: topology is %dx%d, map is %dx%d",
			data.Topology.Width, data.Topology.Height, data.Width, data.Height)
	}
	terrain := data.TerrainWalkable
	if terrain == nil {
		terrain = func(x, y int) bool { return true }
	}

	field := walkability.New(data.Width, data.Height, terrain, data.Static)

	graph, err := regions.NewGraph(data.Topology, data.Override, regions.Options{
		NarrowWidthThreshold: cfg.Regions.NarrowWidthThreshold,
		WidthPadding:         cfg.Regions.WidthPadding,
		Logger:               logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building region graph: %w", err)
	}

	gridOpts := navgrid.Options{
		ProximityPenalty: cfg.NavGrid.ProximityPenalty,
		AllowDiagonal:    graph.Override().AllowsDiagonal,
		Logger:           logger,
	}

	n := &Navigator{
		cfg:      cfg,
		logger:   logger,
		field:    field,
		graph:    graph,
		grids:    navgrid.NewRegistry(field, gridOpts),
		searcher: search.NewSearcher(field, logger),
		bases:    data.Bases,
	}
	n.InitializeGrids()

	logger.Info("navigator ready",
		"width", data.Width,
		"height", data.Height,
		"regions", len(graph.Regions()),
		"passages", len(graph.Passages()),
		"grids", n.grids.Len(),
	)
	return n, nil
}

// FromMap builds a Navigator from a parsed map fixture.
func FromMap(cfg *config.Config, m *mapdata.Map, logger *slog.Logger) (*Navigator, error) {
	return New(cfg, InitData{
		Width:           m.Width,
		Height:          m.Height,
		TerrainWalkable: m.TerrainWalkable,
		Static:          m.Static,
		Topology:        m.Topology,
		Override:        m.Override,
		Bases:           m.Bases,
	}, logger)
}

// InitializeGrids drops every grid and creates one per base footprint and one
// per open narrow passage centre.
func (n *Navigator) InitializeGrids() {
	n.grids.Clear()
	for _, b := range n.bases {
		n.grids.Add(navgrid.Goal{Tile: b, W: n.cfg.NavGrid.BaseWidth, H: n.cfg.NavGrid.BaseHeight})
	}
	for _, p := range n.graph.Passages() {
		if !p.Narrow || p.Blocked {
			continue
		}
		n.grids.Add(navgrid.Goal{Tile: p.Center.Tile()})
	}
}

// SetPerfCollector attributes field and grid work to telemetry phases of the
// collector's current tick. Nil disables it.
func (n *Navigator) SetPerfCollector(pc *telemetry.PerfCollector) {
	n.perf = pc
}

func (n *Navigator) phase(name string) {
	if n.perf != nil {
		n.perf.StartPhase(name)
	}
}

// Field returns the walkability field. Callers must not mutate it directly.
func (n *Navigator) Field() *walkability.Field { return n.field }

// Graph returns the region graph.
func (n *Navigator) Graph() *regions.Graph { return n.graph }

// Grids returns the grid registry.
func (n *Navigator) Grids() *navgrid.Registry { return n.grids }

// Grid returns the drained grid whose goal is at t, or nil if none exists.
func (n *Navigator) Grid(t tile.Tile) *navgrid.Grid {
	return n.grids.Get(t)
}

// NearestGrid returns the drained grid whose goal is closest to p within the
// configured distance, or nil.
func (n *Navigator) NearestGrid(p tile.Position) *navgrid.Grid {
	return n.grids.Nearest(p, n.cfg.NavGrid.NearestGoalDistance)
}

// Update drains every live grid and returns the number of nodes expanded.
// Call once per tick after all obstacle notifications.
func (n *Navigator) Update() int {
	n.phase(telemetry.PhaseGridUpdate)
	return n.grids.Update()
}

// Verify checks the invariants of every live grid.
func (n *Navigator) Verify() error {
	n.phase(telemetry.PhaseVerify)
	for _, g := range n.grids.Grids() {
		if err := g.Verify(n.cfg.NavGrid.VerifyHops); err != nil {
			return fmt.Errorf("grid %v: %w", g.Goal().Tile, err)
		}
	}
	return nil
}

// Close drops every grid. The Navigator must not be used afterwards.
func (n *Navigator) Close() {
	n.grids.Clear()
	n.logger.Debug("navigator closed")
}
