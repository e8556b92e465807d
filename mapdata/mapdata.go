// Package mapdata loads map fixtures: terrain, region labels, passages,
// static obstacles, base locations and per-map overrides, described in YAML.
//
// Terrain rows use one character per tile:
//
//	#     unwalkable terrain
//	.     walkable, outside every region
//	A-Z   walkable, in the region named by the letter
package mapdata

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/pathing/regions"
	"github.com/pthm-cable/pathing/tile"
)

var (
	// ErrBadRow is returned for ragged rows or unknown terrain characters.
	ErrBadRow = errors.New("bad terrain row")

	// ErrUnknownRegion is returned when a region letter is used but never labelled.
	ErrUnknownRegion = errors.New("unknown region")
)

// Map is a parsed map fixture.
type Map struct {
	Name          string
	Width, Height int

	// Terrain holds static terrain walkability, row-major.
	Terrain []bool

	Topology regions.Topology
	Static   []tile.Rect
	Bases    []tile.Tile
	Override regions.Override
}

// TerrainWalkable reports whether terrain at (x, y) is walkable.
func (m *Map) TerrainWalkable(x, y int) bool {
	return m.Terrain[x+y*m.Width]
}

type file struct {
	Name       string         `yaml:"name"`
	Rows       []string       `yaml:"rows"`
	Elevations map[string]int `yaml:"elevations"`
	Passages   []passageEntry `yaml:"passages"`
	Static     []tile.Rect    `yaml:"static"`
	Bases      []tile.Tile    `yaml:"bases"`
	Override   overrideEntry  `yaml:"override"`
}

type passageEntry struct {
	Regions          [2]string     `yaml:"regions"`
	End1             tile.SubTile  `yaml:"end1"`
	End2             tile.SubTile  `yaml:"end2"`
	Center           tile.Position `yaml:"center"`
	Width            int           `yaml:"width"`
	Blocked          bool          `yaml:"blocked"`
	SpecialTraversal bool          `yaml:"special_traversal"`
}

type overrideEntry struct {
	Kind               string                      `yaml:"kind"` // default, table or special_traversal
	Passages           []regions.PassageAdjustment `yaml:"passages"`
	Isolated           []string                    `yaml:"isolated"`
	Diagonals          []regions.DiagonalException `yaml:"diagonals"`
	DisableDefaultPath bool                        `yaml:"disable_default_path"`
	SpecialPassages    []regions.PassageID         `yaml:"special_passages"`
}

// Load reads and parses a map fixture.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing map %s: %w", path, err)
	}
	return m, nil
}

// Parse parses a map fixture from YAML.
func Parse(data []byte) (*Map, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if len(f.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrBadRow)
	}

	m := &Map{
		Name:   f.Name,
		Width:  len(f.Rows[0]),
		Height: len(f.Rows),
		Static: f.Static,
		Bases:  f.Bases,
	}
	m.Terrain = make([]bool, m.Width*m.Height)
	labels := make([]regions.RegionID, m.Width*m.Height)
	numRegions := 0

	for y, row := range f.Rows {
		if len(row) != m.Width {
			return nil, fmt.Errorf("%w: row %d has %d tiles, want %d", ErrBadRow, y, len(row), m.Width)
		}
		for x := 0; x < len(row); x++ {
			i := x + y*m.Width
			c := row[x]
			switch {
			case c == '#':
				labels[i] = regions.NoRegion
			case c == '.':
				m.Terrain[i] = true
				labels[i] = regions.NoRegion
			case c >= 'A' && c <= 'Z':
				m.Terrain[i] = true
				labels[i] = regions.RegionID(c - 'A')
				numRegions = max(numRegions, int(c-'A')+1)
			default:
				return nil, fmt.Errorf("%w: row %d column %d: unexpected %q", ErrBadRow, y, x, c)
			}
		}
	}

	used := make([]bool, numRegions)
	for _, r := range labels {
		if r != regions.NoRegion {
			used[r] = true
		}
	}
	region := func(name string) (regions.RegionID, error) {
		if len(name) != 1 || name[0] < 'A' || name[0] > 'Z' || int(name[0]-'A') >= numRegions || !used[name[0]-'A'] {
			return regions.NoRegion, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
		}
		return regions.RegionID(name[0] - 'A'), nil
	}

	elevations := make([]int, numRegions)
	for name, e := range f.Elevations {
		r, err := region(name)
		if err != nil {
			return nil, fmt.Errorf("elevations: %w", err)
		}
		elevations[r] = e
	}

	passages := make([]regions.PassageSpec, len(f.Passages))
	for i, p := range f.Passages {
		spec := regions.PassageSpec{
			End1:             p.End1,
			End2:             p.End2,
			Center:           p.Center,
			Width:            p.Width,
			Blocked:          p.Blocked,
			SpecialTraversal: p.SpecialTraversal,
		}
		for j, name := range p.Regions {
			r, err := region(name)
			if err != nil {
				return nil, fmt.Errorf("passage %d: %w", i, err)
			}
			spec.Regions[j] = r
		}
		passages[i] = spec
	}

	m.Topology = regions.Topology{
		Width:      m.Width,
		Height:     m.Height,
		Labels:     labels,
		Elevations: elevations,
		Passages:   passages,
	}

	override, err := buildOverride(f.Override, region)
	if err != nil {
		return nil, err
	}
	m.Override = override
	return m, nil
}

func buildOverride(o overrideEntry, region func(string) (regions.RegionID, error)) (regions.Override, error) {
	switch o.Kind {
	case "", "default":
		return regions.DefaultOverride{}, nil
	case "special_traversal":
		return &regions.SpecialTraversalOverride{Passages: o.SpecialPassages}, nil
	case "table":
		table := &regions.TableOverride{
			Adjustments:        o.Passages,
			Diagonals:          o.Diagonals,
			DisableDefaultPath: o.DisableDefaultPath,
		}
		for _, name := range o.Isolated {
			r, err := region(name)
			if err != nil {
				return nil, fmt.Errorf("override isolated: %w", err)
			}
			table.Isolated = append(table.Isolated, r)
		}
		return table, nil
	default:
		return nil, fmt.Errorf("unknown override kind %q", o.Kind)
	}
}
