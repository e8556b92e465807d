package regions

import (
	"github.com/pthm-cable/pathing/tile"
)

// Override captures per-map exceptions to the default walkability, width and
// diagonal rules. It is injected when the graph is built.
type Override interface {
	// AdjustPassages may rewrite derived passage data before it is used.
	AdjustPassages(passages []Passage)

	// IsolatedRegions lists regions whose passages are unusable.
	IsolatedRegions() []RegionID

	// AllowsDiagonal reports whether a diagonal step between two tiles is
	// permitted even though a corner tile is blocked.
	AllowsDiagonal(from, to tile.Tile) bool

	// CanUseDefaultPath reports whether the unconstrained default path may be
	// trusted for a unit of the given width and traversal ability.
	CanUseDefaultPath(width int, allowSpecial bool) bool
}

// DefaultOverride applies no exceptions.
type DefaultOverride struct{}

func (DefaultOverride) AdjustPassages([]Passage) {}
func (DefaultOverride) IsolatedRegions() []RegionID { return nil }
func (DefaultOverride) AllowsDiagonal(_, _ tile.Tile) bool { return false }
func (DefaultOverride) CanUseDefaultPath(_ int, _ bool) bool { return true }

// PassageAdjustment rewrites fields of one passage. Nil fields are left alone.
type PassageAdjustment struct {
	Passage          PassageID `yaml:"passage"`
	Width            *int      `yaml:"width,omitempty"`
	Blocked          *bool     `yaml:"blocked,omitempty"`
	SpecialTraversal *bool     `yaml:"special_traversal,omitempty"`
	Narrow           *bool     `yaml:"narrow,omitempty"`
}

// DiagonalException permits the diagonal step between From and To in either
// direction.
type DiagonalException struct {
	From tile.Tile `yaml:"from"`
	To   tile.Tile `yaml:"to"`
}

// TableOverride is a data-driven override loaded from a map file.
type TableOverride struct {
	Adjustments        []PassageAdjustment
	Isolated           []RegionID
	Diagonals          []DiagonalException
	DisableDefaultPath bool
}

func (o *TableOverride) AdjustPassages(passages []Passage) {
	for _, a := range o.Adjustments {
		if a.Passage < 0 || int(a.Passage) >= len(passages) {
			continue
		}
		p := &passages[a.Passage]
		if a.Width != nil {
			p.Width = *a.Width
		}
		if a.Blocked != nil {
			p.Blocked = *a.Blocked
		}
		if a.SpecialTraversal != nil {
			p.SpecialTraversal = *a.SpecialTraversal
		}
		if a.Narrow != nil {
			p.Narrow = *a.Narrow
		}
	}
}

func (o *TableOverride) IsolatedRegions() []RegionID {
	return o.Isolated
}

func (o *TableOverride) AllowsDiagonal(from, to tile.Tile) bool {
	for _, d := range o.Diagonals {
		if (d.From == from && d.To == to) || (d.From == to && d.To == from) {
			return true
		}
	}
	return false
}

func (o *TableOverride) CanUseDefaultPath(int, bool) bool {
	return !o.DisableDefaultPath
}

// SpecialTraversalOverride marks passages that ground units can only cross
// with a special traversal mode, for maps whose terrain analysis leaves them
// open. The default path would route through them, so it is never trusted
// without validation.
type SpecialTraversalOverride struct {
	Passages []PassageID
}

func (o *SpecialTraversalOverride) AdjustPassages(passages []Passage) {
	for _, id := range o.Passages {
		if id < 0 || int(id) >= len(passages) {
			continue
		}
		passages[id].SpecialTraversal = true
		passages[id].Blocked = false
	}
}

func (o *SpecialTraversalOverride) IsolatedRegions() []RegionID { return nil }
func (o *SpecialTraversalOverride) AllowsDiagonal(_, _ tile.Tile) bool { return false }
func (o *SpecialTraversalOverride) CanUseDefaultPath(int, bool) bool { return false }
