package bench

// flushTelemetry writes perf stats and buffered change records once per
// perf window.
func (r *Runner) flushTelemetry() {
	window := r.cfg.Telemetry.PerfCollectorWindow
	if window <= 0 || r.tick%window != 0 {
		return
	}

	perfStats := r.perf.Stats()

	// Log stats if enabled (console output)
	if r.logStats {
		r.logger.Info("perf", "tick", r.tick, "stats", perfStats)
	}

	if err := r.output.WritePerf(perfStats, r.tick); err != nil {
		r.logger.Error("failed to write perf", "error", err)
	}
	if err := r.output.WriteChanges(r.pending); err != nil {
		r.logger.Error("failed to write changes", "error", err)
	}
	r.pending = r.pending[:0]
}
