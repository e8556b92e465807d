package regions

import (
	"container/heap"

	"github.com/pthm-cable/pathing/tile"
)

// passageNode is a frontier entry of the constrained search: reaching
// passage with accumulated distance dist, heading into region toward.
type passageNode struct {
	passage PassageID
	dist    int
	toward  RegionID
	parent  PassageID
	seq     int
}

// passageHeap implements heap.Interface ordered by distance, then insertion order.
type passageHeap []passageNode

func (h passageHeap) Len() int { return len(h) }
func (h passageHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].seq < h[j].seq
}
func (h passageHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *passageHeap) Push(x any) {
	*h = append(*h, x.(passageNode))
}

func (h *passageHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	*h = old[:n-1]
	return node
}

// Usable reports whether a unit of the given width and traversal ability may
// cross p.
func (g *Graph) Usable(p *Passage, width int, allowSpecial bool) bool {
	if g.isolated[p.Regions[0]] || g.isolated[p.Regions[1]] {
		return false
	}
	if p.Width < width {
		return false
	}
	if allowSpecial && p.SpecialTraversal {
		return true
	}
	return !p.Blocked && !p.SpecialTraversal
}

// FindPassagePath searches for the shortest passage sequence from start in
// startRegion to end in goalRegion that a unit of the given width can use.
// Distances are approximate pixel distances between consecutive passage
// centres. Points in the same region get an empty path of straight-line
// length; unreachable goals get Length NoPath.
func (g *Graph) FindPassagePath(start, end tile.Position, startRegion, goalRegion RegionID, width int, allowSpecial bool) Path {
	if !g.validRegion(startRegion) || !g.validRegion(goalRegion) {
		return Path{Length: NoPath}
	}
	if startRegion == goalRegion {
		return Path{Length: tile.ApproxDistance(start, end)}
	}

	const noParent PassageID = -1
	parents := make(map[PassageID]PassageID, len(g.passages))
	open := &passageHeap{}
	seq := 0
	push := func(n passageNode) {
		n.seq = seq
		seq++
		heap.Push(open, n)
	}

	for _, id := range g.regions[startRegion].Passages {
		p := &g.passages[id]
		if !g.Usable(p, width, allowSpecial) {
			continue
		}
		push(passageNode{
			passage: id,
			dist:    tile.ApproxDistance(start, p.Center),
			toward:  p.Other(startRegion),
			parent:  noParent,
		})
	}

	for open.Len() > 0 {
		cur := heap.Pop(open).(passageNode)
		if _, done := parents[cur.passage]; done {
			continue
		}
		parents[cur.passage] = cur.parent

		here := &g.passages[cur.passage]
		if cur.toward == goalRegion {
			return Path{
				Passages: g.unwind(cur.passage, parents, noParent),
				Length:   cur.dist + tile.ApproxDistance(here.Center, end),
			}
		}

		for _, id := range g.regions[cur.toward].Passages {
			if _, done := parents[id]; done {
				continue
			}
			p := &g.passages[id]
			if !g.Usable(p, width, allowSpecial) {
				continue
			}
			push(passageNode{
				passage: id,
				dist:    cur.dist + tile.ApproxDistance(here.Center, p.Center),
				toward:  p.Other(cur.toward),
				parent:  cur.passage,
			})
		}
	}

	g.logger.Debug("no passage path",
		"from_region", startRegion,
		"to_region", goalRegion,
		"width", width,
	)
	return Path{Length: NoPath}
}

func (g *Graph) unwind(last PassageID, parents map[PassageID]PassageID, root PassageID) []*Passage {
	var out []*Passage
	for id := last; id != root; id = parents[id] {
		out = append(out, &g.passages[id])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
