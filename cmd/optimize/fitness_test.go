package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/pathing/config"
	"github.com/pthm-cable/pathing/mapdata"
	"github.com/pthm-cable/pathing/tile"
)

func TestEvaluateDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	m, err := mapdata.Load("../../maps/arena.yaml")
	if err != nil {
		t.Fatal(err)
	}

	params := NewParamVector()
	fe := NewFitnessEvaluator(params, []*mapdata.Map{m}, 40, []int64{1, 2}, cfg)
	fitness := fe.Evaluate(params.ExtractFromConfig(cfg))
	if math.IsInf(fitness, 0) || math.IsNaN(fitness) || fitness < 0 {
		t.Fatalf("fitness = %v, want finite non-negative", fitness)
	}
	samples, misses, _ := fe.Last()
	if samples == 0 {
		t.Error("no samples scored")
	}
	if misses > samples {
		t.Errorf("misses %d exceed samples %d", misses, samples)
	}

	if cfg.Travel.PenaltyFactor != 1.4 {
		t.Errorf("base config mutated: penalty_factor = %v", cfg.Travel.PenaltyFactor)
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	params := NewParamVector()
	params.ApplyToConfig(cfg, []float64{9, -3})
	if cfg.Travel.PenaltyFactor != 2.5 {
		t.Errorf("penalty_factor = %v, want 2.5", cfg.Travel.PenaltyFactor)
	}
	if cfg.Regions.WidthPadding != 0 {
		t.Errorf("width_padding = %d, want 0", cfg.Regions.WidthPadding)
	}
}

func TestPathLength(t *testing.T) {
	start := tile.Tile{X: 0, Y: 0}
	path := []tile.Tile{{X: 1, Y: 0}, {X: 2, Y: 1}}
	want := tile.ApproxDistance(start.Center(), path[0].Center()) +
		tile.ApproxDistance(path[0].Center(), path[1].Center())
	if got := pathLength(start, path); got != want {
		t.Errorf("pathLength = %d, want %d", got, want)
	}
	if got := pathLength(start, nil); got != 0 {
		t.Errorf("empty path length = %d, want 0", got)
	}
}
