package regions

import (
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/pthm-cable/pathing/tile"
)

// Path is an ordered passage sequence between two points.
type Path struct {
	Passages []*Passage
	Length   int // pixels, NoPath if unreachable
}

// Found reports whether the path connects its endpoints.
func (p Path) Found() bool {
	return p.Length != NoPath
}

// defaultTable holds all-pairs shortest distances between passage centres.
// Passages are nodes; two passages are adjacent when they share a region.
// It ignores unit shape and traversal modes.
type defaultTable struct {
	paths path.AllShortest
}

func newDefaultTable(g *Graph) *defaultTable {
	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range g.passages {
		if g.defaultUsable(&g.passages[i]) {
			wg.AddNode(simple.Node(i))
		}
	}
	for _, r := range g.regions {
		if g.isolated[r.ID] {
			continue
		}
		for i, a := range r.Passages {
			pa := &g.passages[a]
			if !g.defaultUsable(pa) {
				continue
			}
			for _, b := range r.Passages[i+1:] {
				pb := &g.passages[b]
				if !g.defaultUsable(pb) {
					continue
				}
				w := float64(tile.ApproxDistance(pa.Center, pb.Center))
				if e := wg.WeightedEdge(int64(a), int64(b)); e != nil && e.Weight() <= w {
					continue
				}
				wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(a), simple.Node(b), w))
			}
		}
	}
	return &defaultTable{paths: path.DijkstraAllPaths(wg)}
}

func (g *Graph) defaultUsable(p *Passage) bool {
	return !p.Blocked && !g.isolated[p.Regions[0]] && !g.isolated[p.Regions[1]]
}

// DefaultPath returns the shortest passage path between two points in the
// given regions, ignoring unit width and traversal mode. Points in the same
// region are joined by an empty path of straight-line length.
func (g *Graph) DefaultPath(start, end tile.Position, startRegion, goalRegion RegionID) Path {
	if !g.validRegion(startRegion) || !g.validRegion(goalRegion) {
		return Path{Length: NoPath}
	}
	if startRegion == goalRegion {
		return Path{Length: tile.ApproxDistance(start, end)}
	}

	bestLen := math.Inf(1)
	var bestA, bestB PassageID
	for _, a := range g.regions[startRegion].Passages {
		pa := &g.passages[a]
		if !g.defaultUsable(pa) {
			continue
		}
		for _, b := range g.regions[goalRegion].Passages {
			pb := &g.passages[b]
			if !g.defaultUsable(pb) {
				continue
			}
			between := g.table.paths.Weight(int64(a), int64(b))
			if math.IsInf(between, 1) {
				continue
			}
			total := float64(tile.ApproxDistance(start, pa.Center)) + between + float64(tile.ApproxDistance(pb.Center, end))
			if total < bestLen {
				bestLen, bestA, bestB = total, a, b
			}
		}
	}
	if math.IsInf(bestLen, 1) {
		return Path{Length: NoPath}
	}

	nodes, _, _ := g.table.paths.Between(int64(bestA), int64(bestB))
	out := Path{Length: int(bestLen), Passages: make([]*Passage, 0, len(nodes))}
	for _, n := range nodes {
		out.Passages = append(out.Passages, &g.passages[n.ID()])
	}
	return out
}
