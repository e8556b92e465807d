package mapdata

import (
	"errors"
	"testing"

	"github.com/pthm-cable/pathing/regions"
	"github.com/pthm-cable/pathing/tile"
)

// TestLoadCrossroads verifies the fixture parses into a consistent map.
func TestLoadCrossroads(t *testing.T) {
	m, err := Load("testdata/crossroads.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "crossroads" || m.Width != 32 || m.Height != 16 {
		t.Fatalf("map = %s %dx%d", m.Name, m.Width, m.Height)
	}

	tests := []struct {
		x, y     int
		walkable bool
		region   regions.RegionID
	}{
		{0, 0, true, 0},
		{20, 0, true, 1},
		{15, 0, false, regions.NoRegion},
		{15, 3, true, regions.NoRegion},
		{6, 7, true, regions.NoRegion},
		{6, 12, true, 2},
	}
	for _, tt := range tests {
		if got := m.TerrainWalkable(tt.x, tt.y); got != tt.walkable {
			t.Errorf("walkable(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.walkable)
		}
		if got := m.Topology.Labels[tt.x+tt.y*m.Width]; got != tt.region {
			t.Errorf("region(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.region)
		}
	}

	if len(m.Topology.Passages) != 3 || len(m.Topology.Elevations) != 3 {
		t.Fatalf("passages=%d elevations=%d", len(m.Topology.Passages), len(m.Topology.Elevations))
	}
	if m.Topology.Elevations[0] != 1 {
		t.Errorf("elevation A = %d, want 1", m.Topology.Elevations[0])
	}
	if p := m.Topology.Passages[2]; p.Regions != [2]regions.RegionID{1, 2} {
		t.Errorf("passage 2 regions = %v", p.Regions)
	}
	if len(m.Static) != 1 || m.Static[0] != (tile.Rect{X: 28, Y: 12, W: 2, H: 2}) {
		t.Errorf("static = %v", m.Static)
	}
	if len(m.Bases) != 2 || m.Bases[1] != (tile.Tile{X: 26, Y: 11}) {
		t.Errorf("bases = %v", m.Bases)
	}
	if _, ok := m.Override.(regions.DefaultOverride); !ok {
		t.Errorf("override = %T, want DefaultOverride", m.Override)
	}

	g, err := regions.NewGraph(m.Topology, m.Override, regions.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if p := g.Passage(0); !p.Narrow || !p.Ramp || !p.HasCrest || g.RegionAt(p.Crest) != 0 {
		t.Errorf("passage 0 = %+v, want a narrow ramp with a crest in A", p)
	}
	if g.Passage(1).Narrow {
		t.Error("passage 1 should be wide")
	}
}

// TestParseErrors checks malformed fixtures report the matching sentinel.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"no rows", "name: x\n", ErrBadRow},
		{"ragged", "rows: [\"AA\", \"A\"]\n", ErrBadRow},
		{"bad char", "rows: [\"A?\"]\n", ErrBadRow},
		{"unknown passage region", "rows: [\"AB\"]\npassages:\n  - regions: [A, C]\n", ErrUnknownRegion},
		{"unknown elevation region", "rows: [\"AB\"]\nelevations:\n  Z: 1\n", ErrUnknownRegion},
		{"unknown isolated region", "rows: [\"AB\"]\noverride:\n  kind: table\n  isolated: [Q]\n", ErrUnknownRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Parse([]byte("rows: [\"A\"]\noverride:\n  kind: bogus\n")); err == nil {
		t.Error("expected error for unknown override kind")
	}
	if _, err := Load("testdata/missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestParseOverrides checks each override kind is built from the fixture.
func TestParseOverrides(t *testing.T) {
	table := `rows: ["AB"]
override:
  kind: table
  isolated: [B]
  disable_default_path: true
  passages:
    - passage: 0
      width: 64
  diagonals:
    - from: {x: 0, y: 0}
      to: {x: 1, y: 1}
`
	m, err := Parse([]byte(table))
	if err != nil {
		t.Fatal(err)
	}
	o, ok := m.Override.(*regions.TableOverride)
	if !ok {
		t.Fatalf("override = %T", m.Override)
	}
	if len(o.Isolated) != 1 || o.Isolated[0] != 1 {
		t.Errorf("isolated = %v", o.Isolated)
	}
	if o.CanUseDefaultPath(0, false) {
		t.Error("default path should be disabled")
	}
	if len(o.Adjustments) != 1 || o.Adjustments[0].Width == nil || *o.Adjustments[0].Width != 64 {
		t.Errorf("adjustments = %+v", o.Adjustments)
	}
	if !o.AllowsDiagonal(tile.Tile{X: 1, Y: 1}, tile.Tile{X: 0, Y: 0}) {
		t.Error("diagonal exception missing")
	}

	m, err = Parse([]byte("rows: [\"AB\"]\noverride:\n  kind: special_traversal\n  special_passages: [0]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := m.Override.(*regions.SpecialTraversalOverride); !ok || len(s.Passages) != 1 {
		t.Errorf("override = %#v", m.Override)
	}
}
