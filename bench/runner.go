// Package bench drives a Navigator through a headless obstacle churn: each
// tick adds or removes random building-sized obstacles, drains the grids,
// and periodically issues queries and checks grid invariants. Timing and
// per-change costs are written through the telemetry package.
package bench

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/pathing/config"
	"github.com/pthm-cable/pathing/mapdata"
	"github.com/pthm-cable/pathing/pathfinding"
	"github.com/pthm-cable/pathing/regions"
	"github.com/pthm-cable/pathing/search"
	"github.com/pthm-cable/pathing/telemetry"
	"github.com/pthm-cable/pathing/tile"
)

// Options configures a run.
type Options struct {
	Seed      int64
	LogStats  bool   // log perf stats at every window flush
	OutputDir string // CSV output, empty disables
}

// Runner holds the state of one benchmark run.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	nav    *pathfinding.Navigator
	rng    *rand.Rand
	units  []pathfinding.Unit

	perf     *telemetry.PerfCollector
	output   *telemetry.OutputManager
	logStats bool

	tick     int
	placed   []tile.Rect
	pending  []telemetry.ChangeRecord // not yet written
	records  []telemetry.ChangeRecord // whole run, for the summary
	queries  int
	verifies int
}

// New builds a Navigator for m and prepares the output directory.
func New(cfg *config.Config, m *mapdata.Map, opts Options, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nav, err := pathfinding.FromMap(cfg, m, logger)
	if err != nil {
		return nil, fmt.Errorf("building navigator: %w", err)
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	r := &Runner{
		cfg:      cfg,
		logger:   logger,
		nav:      nav,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		output:   output,
		logStats: opts.LogStats,
	}
	for _, u := range cfg.Units {
		r.units = append(r.units, pathfinding.UnitFromConfig(u))
	}
	nav.SetPerfCollector(r.perf)
	return r, nil
}

// Navigator returns the navigator under test.
func (r *Runner) Navigator() *pathfinding.Navigator { return r.nav }

// Tick returns the number of completed ticks.
func (r *Runner) Tick() int { return r.tick }

// Records returns every change applied so far.
func (r *Runner) Records() []telemetry.ChangeRecord { return r.records }

// Step runs one tick. It returns an error if a grid invariant is violated.
func (r *Runner) Step() error {
	cfg := r.cfg.Bench
	r.perf.StartTick()

	for i := 0; i < cfg.ChurnPerTick; i++ {
		r.churn()
	}
	r.nav.Update()

	if cfg.QueryEvery > 0 && r.tick%cfg.QueryEvery == 0 {
		r.query()
	}

	var verifyErr error
	if cfg.VerifyEvery > 0 && r.tick%cfg.VerifyEvery == 0 {
		r.verifies++
		verifyErr = r.nav.Verify()
	}

	r.perf.EndTick()
	r.tick++
	r.flushTelemetry()

	if verifyErr != nil {
		return fmt.Errorf("tick %d: %w", r.tick, verifyErr)
	}
	return nil
}

// Run steps until ticks have completed or an invariant fails.
func (r *Runner) Run(ticks int) error {
	r.logger.Info("starting churn",
		"ticks", ticks,
		"churn_per_tick", r.cfg.Bench.ChurnPerTick,
		"grids", r.nav.Grids().Len(),
	)
	for r.tick < ticks {
		if err := r.Step(); err != nil {
			return err
		}
	}
	return nil
}

// query issues one ground travel estimate per catalog unit and one tile
// search between random walkable tiles.
func (r *Runner) query() {
	a, okA := r.randomRegionTile()
	b, okB := r.randomRegionTile()
	if !okA || !okB {
		return
	}
	for _, u := range r.units {
		r.nav.TravelTime(a.Center(), b.Center(), u, 0)
	}
	r.nav.Search(a, b, search.Options{})
	r.queries++
}

// randomRegionTile picks a walkable tile that belongs to a region.
func (r *Runner) randomRegionTile() (tile.Tile, bool) {
	f := r.nav.Field()
	w, h := f.Size()
	for attempt := 0; attempt < 64; attempt++ {
		t := tile.Tile{X: r.rng.Intn(w), Y: r.rng.Intn(h)}
		if f.IsWalkable(t.X, t.Y) && r.nav.Graph().RegionAt(t) != regions.NoRegion {
			return t, true
		}
	}
	return tile.Tile{}, false
}

// Close flushes outstanding records, writes the summary and tears down the
// navigator. It returns the run summary.
func (r *Runner) Close() (telemetry.Summary, error) {
	summary := telemetry.Summarize(r.records)
	r.logger.Info("churn finished",
		"ticks", r.tick,
		"queries", r.queries,
		"verifies", r.verifies,
		"summary", summary,
	)

	var firstErr error
	if err := r.output.WriteChanges(r.pending); err != nil {
		firstErr = err
	}
	r.pending = r.pending[:0]
	if err := r.output.WriteSummary(summary); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := r.output.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	r.nav.Close()
	return summary, firstErr
}
