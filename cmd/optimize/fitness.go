package main

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/pathing/config"
	"github.com/pthm-cable/pathing/mapdata"
	"github.com/pthm-cable/pathing/pathfinding"
	"github.com/pthm-cable/pathing/regions"
	"github.com/pthm-cable/pathing/search"
	"github.com/pthm-cable/pathing/tile"
)

// missPenalty is the squared error charged when the estimate and the tile
// search disagree on whether a target is reachable.
const missPenalty = 4.0

// FitnessEvaluator compares travel time estimates against tile search paths
// on a fixed set of maps.
type FitnessEvaluator struct {
	params     *ParamVector
	maps       []*mapdata.Map
	seeds      []int64
	pairs      int
	baseConfig *config.Config

	mu           sync.Mutex
	lastMisses   int
	lastSamples  int
	lastMeanBias float64 // mean log(estimate/actual) from the most recent evaluation
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maps []*mapdata.Map, pairs int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maps:       maps,
		seeds:      seeds,
		pairs:      pairs,
		baseConfig: baseCfg,
	}
}

// Last returns the sample count, reachability misses and mean bias of the
// most recent evaluation.
func (fe *FitnessEvaluator) Last() (samples, misses int, bias float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSamples, fe.lastMisses, fe.lastMeanBias
}

// runResult holds the errors from one map and seed.
type runResult struct {
	logRatios []float64
	misses    int
	err       error
}

// Evaluate computes fitness for a parameter vector (lower = better): the mean
// squared log ratio between estimated and searched travel time.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// One navigator per goroutine; a Navigator is not safe for concurrent use.
	results := make([]runResult, len(fe.maps)*len(fe.seeds))
	var wg sync.WaitGroup
	for mi, m := range fe.maps {
		for si, seed := range fe.seeds {
			wg.Add(1)
			go func(idx int, m *mapdata.Map, s int64) {
				defer wg.Done()
				results[idx] = fe.run(cfg, m, s)
			}(mi*len(fe.seeds)+si, m, seed)
		}
	}
	wg.Wait()

	var ratios []float64
	misses := 0
	for _, r := range results {
		if r.err != nil {
			slog.Error("evaluation failed", "error", r.err)
			return math.Inf(1)
		}
		ratios = append(ratios, r.logRatios...)
		misses += r.misses
	}
	samples := len(ratios) + misses
	if samples == 0 {
		return math.Inf(1)
	}

	var sq float64
	for _, v := range ratios {
		sq += v * v
	}
	fitness := (sq + missPenalty*float64(misses)) / float64(samples)

	fe.mu.Lock()
	fe.lastSamples = samples
	fe.lastMisses = misses
	if len(ratios) > 0 {
		fe.lastMeanBias = stat.Mean(ratios, nil)
	}
	fe.mu.Unlock()

	return fitness
}

// run samples random region pairs on one map and scores every mobile ground
// unit of the catalog against the tile search distance.
func (fe *FitnessEvaluator) run(cfg *config.Config, m *mapdata.Map, seed int64) runResult {
	nav, err := pathfinding.FromMap(cfg, m, slog.New(slog.DiscardHandler))
	if err != nil {
		return runResult{err: err}
	}
	defer nav.Close()

	rng := rand.New(rand.NewSource(seed))
	var res runResult
	for i := 0; i < fe.pairs; i++ {
		a, okA := randomRegionTile(nav, rng)
		b, okB := randomRegionTile(nav, rng)
		if !okA || !okB || a == b {
			continue
		}
		path, found := nav.Search(a, b, search.Options{AllowDiagonal: true})
		actual := pathLength(a, path)

		for _, uc := range cfg.Units {
			u := pathfinding.UnitFromConfig(uc)
			if u.Flyer || u.TopSpeed < 0.0001 {
				continue
			}
			est := nav.ExpectedTravelTime(a.Center(), b.Center(), u, 0, cfg.Travel.PenaltyFactor, -1)
			switch {
			case est < 0 && !found:
				// both agree it is unreachable
			case est < 0 || !found:
				res.misses++
			case actual > 0 && est > 0:
				want := float64(actual) / u.TopSpeed
				res.logRatios = append(res.logRatios, math.Log(float64(est)/want))
			}
		}
	}
	return res
}

func randomRegionTile(nav *pathfinding.Navigator, rng *rand.Rand) (tile.Tile, bool) {
	f := nav.Field()
	w, h := f.Size()
	for attempt := 0; attempt < 64; attempt++ {
		t := tile.Tile{X: rng.Intn(w), Y: rng.Intn(h)}
		if f.IsWalkable(t.X, t.Y) && nav.Graph().RegionAt(t) != regions.NoRegion {
			return t, true
		}
	}
	return tile.Tile{}, false
}

// pathLength returns the pixel length of a tile path walked from start.
func pathLength(start tile.Tile, path []tile.Tile) int {
	length := 0
	prev := start
	for _, t := range path {
		length += tile.ApproxDistance(prev.Center(), t.Center())
		prev = t
	}
	return length
}

// copyConfig creates a shallow copy of the base config with its own unit slice.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Units = append([]config.UnitConfig(nil), fe.baseConfig.Units...)
	return &cfg
}
