package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Change kinds.
const (
	ChangeAdd    = "add"
	ChangeRemove = "remove"
)

// ChangeRecord is the cost of applying one blocking object change.
type ChangeRecord struct {
	Tick         int    `csv:"tick"`
	Kind         string `csv:"kind"`
	X            int    `csv:"x"`
	Y            int    `csv:"y"`
	W            int    `csv:"w"`
	H            int    `csv:"h"`
	Changed      bool   `csv:"changed"` // the walkability field flipped at least one tile
	Grids        int    `csv:"grids"`
	Popped       int    `csv:"popped"` // nodes expanded while healing every grid
	InvalidateUS int64  `csv:"invalidate_us"`
	UpdateUS     int64  `csv:"update_us"`
}

// Summary aggregates the cost of every change that reached the grids.
type Summary struct {
	Changes     int     `csv:"changes"`
	Skipped     int     `csv:"skipped"` // changes the field reported as no-ops
	MeanPopped  float64 `csv:"mean_popped"`
	StdPopped   float64 `csv:"std_popped"`
	P95Popped   float64 `csv:"p95_popped"`
	MaxPopped   float64 `csv:"max_popped"`
	MeanUpdate  float64 `csv:"mean_update_us"`
	P95Update   float64 `csv:"p95_update_us"`
	MaxUpdate   float64 `csv:"max_update_us"`
	MeanInvalid float64 `csv:"mean_invalidate_us"`
}

// Summarize computes distribution statistics over records.
func Summarize(records []ChangeRecord) Summary {
	var popped, update, invalid []float64
	var s Summary
	for _, r := range records {
		if !r.Changed {
			s.Skipped++
			continue
		}
		popped = append(popped, float64(r.Popped))
		update = append(update, float64(r.UpdateUS))
		invalid = append(invalid, float64(r.InvalidateUS))
	}
	s.Changes = len(popped)
	if s.Changes == 0 {
		return s
	}

	s.MeanPopped, s.StdPopped = stat.MeanStdDev(popped, nil)
	if s.Changes == 1 {
		s.StdPopped = 0
	}
	s.MeanUpdate = stat.Mean(update, nil)
	s.MeanInvalid = stat.Mean(invalid, nil)

	sort.Float64s(popped)
	sort.Float64s(update)
	s.P95Popped = stat.Quantile(0.95, stat.Empirical, popped, nil)
	s.P95Update = stat.Quantile(0.95, stat.Empirical, update, nil)
	s.MaxPopped = floats.Max(popped)
	s.MaxUpdate = floats.Max(update)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("changes", s.Changes),
		slog.Int("skipped", s.Skipped),
		slog.Float64("mean_popped", s.MeanPopped),
		slog.Float64("std_popped", s.StdPopped),
		slog.Float64("p95_popped", s.P95Popped),
		slog.Float64("max_popped", s.MaxPopped),
		slog.Float64("mean_update_us", s.MeanUpdate),
		slog.Float64("p95_update_us", s.P95Update),
		slog.Float64("max_update_us", s.MaxUpdate),
	)
}
