package regions

import (
	"github.com/pthm-cable/pathing/tile"
)

// PassageID identifies a passage. IDs are dense, starting at 0.
type PassageID int

// PassageSpec is the map analysis input for one passage.
type PassageSpec struct {
	Regions    [2]RegionID
	End1, End2 tile.SubTile

	// Center defaults to the midpoint of the ends when zero.
	Center tile.Position

	// Width overrides the width derived from the ends when positive.
	Width int

	Blocked          bool
	SpecialTraversal bool
}

// Passage is a chokepoint joining exactly two regions.
type Passage struct {
	ID         PassageID
	Regions    [2]RegionID
	End1, End2 tile.SubTile
	Center     tile.Position
	Width      int // pixels

	Blocked          bool // permanently blocked by terrain
	SpecialTraversal bool // ground units need a special traversal mode to cross
	Narrow           bool
	Ramp             bool // the two regions differ in elevation

	// Crest is the high-ground tile nearest the centre of a narrow ramp.
	Crest    tile.Tile
	HasCrest bool
}

func newPassage(id PassageID, spec PassageSpec, padding int) Passage {
	p := Passage{
		ID:               id,
		Regions:          spec.Regions,
		End1:             spec.End1,
		End2:             spec.End2,
		Center:           spec.Center,
		Width:            spec.Width,
		Blocked:          spec.Blocked,
		SpecialTraversal: spec.SpecialTraversal,
	}
	if p.Width <= 0 {
		// Ends are walkable themselves, so pad the distance between them.
		p.Width = tile.ApproxDistance(spec.End1.Position(), spec.End2.Position()) + padding
	}
	if p.Center == (tile.Position{}) {
		a, b := spec.End1.Center(), spec.End2.Center()
		p.Center = tile.Position{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	}
	return p
}

// Other returns the region on the far side of p from r.
func (p *Passage) Other(r RegionID) RegionID {
	if p.Regions[0] == r {
		return p.Regions[1]
	}
	return p.Regions[0]
}

// Joins reports whether p is incident to r.
func (p *Passage) Joins(r RegionID) bool {
	return p.Regions[0] == r || p.Regions[1] == r
}

const crestSearchRadius = 8

// findCrest returns the tile of the higher region closest to the passage
// centre: where high ground begins on a narrow ramp.
func (g *Graph) findCrest(p *Passage) (tile.Tile, bool) {
	high := p.Regions[0]
	if g.regions[p.Regions[1]].Elevation > g.regions[high].Elevation {
		high = p.Regions[1]
	}

	center := p.Center.Tile()
	var best tile.Tile
	bestDist := -1
	for y := center.Y - crestSearchRadius; y <= center.Y+crestSearchRadius; y++ {
		for x := center.X - crestSearchRadius; x <= center.X+crestSearchRadius; x++ {
			t := tile.Tile{X: x, Y: y}
			if g.RegionAt(t) != high {
				continue
			}
			d := tile.ApproxDistance(t.Center(), p.Center)
			if bestDist < 0 || d < bestDist {
				best, bestDist = t, d
			}
		}
	}
	return best, bestDist >= 0
}
