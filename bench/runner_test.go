package bench

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/pathing/config"
	"github.com/pthm-cable/pathing/mapdata"
)

func setup(t *testing.T, outputDir string, seed int64) *Runner {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Bench.VerifyEvery = 1
	cfg.Bench.QueryEvery = 3
	cfg.Telemetry.PerfCollectorWindow = 10

	m, err := mapdata.Load("../maps/arena.yaml")
	if err != nil {
		t.Fatalf("loading arena: %v", err)
	}
	r, err := New(cfg, m, Options{Seed: seed, OutputDir: outputDir}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestChurnKeepsGridsConsistent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	r := setup(t, dir, 7)

	if err := r.Run(60); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Tick() != 60 {
		t.Errorf("Tick() = %d, want 60", r.Tick())
	}
	if len(r.Records()) == 0 {
		t.Fatal("no changes recorded")
	}

	summary, err := r.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if summary.Changes+summary.Skipped != len(r.Records()) {
		t.Errorf("summary covers %d changes, recorded %d",
			summary.Changes+summary.Skipped, len(r.Records()))
	}

	for _, name := range []string{"config.yaml", "perf.csv", "changes.csv", "summary.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestChurnRemovalRestoresField(t *testing.T) {
	r := setup(t, "", 3)
	defer r.Close()

	f := r.Navigator().Field()
	w, h := f.Size()
	before := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			before[y*w+x] = f.IsWalkable(x, y)
		}
	}

	if err := r.Run(40); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for len(r.placed) > 0 {
		rect := r.placed[len(r.placed)-1]
		r.placed = r.placed[:len(r.placed)-1]
		r.Navigator().RemoveBlockingObject(rect)
	}
	r.Navigator().Update()
	if err := r.Navigator().Verify(); err != nil {
		t.Fatalf("Verify after clearing: %v", err)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if got := f.IsWalkable(x, y); got != before[y*w+x] {
				t.Fatalf("tile (%d,%d) walkable = %v after clearing, want %v", x, y, got, before[y*w+x])
			}
		}
	}
}

func TestChurnDeterministic(t *testing.T) {
	a := setup(t, "", 11)
	defer a.Close()
	b := setup(t, "", 11)
	defer b.Close()

	if err := a.Run(25); err != nil {
		t.Fatalf("Run a: %v", err)
	}
	if err := b.Run(25); err != nil {
		t.Fatalf("Run b: %v", err)
	}

	ra, rb := a.Records(), b.Records()
	if len(ra) != len(rb) {
		t.Fatalf("record counts differ: %d vs %d", len(ra), len(rb))
	}
	for i := range ra {
		x, y := ra[i], rb[i]
		if x.Kind != y.Kind || x.X != y.X || x.Y != y.Y || x.W != y.W || x.H != y.H ||
			x.Changed != y.Changed || x.Popped != y.Popped {
			t.Fatalf("record %d differs: %+v vs %+v", i, x, y)
		}
	}
}
