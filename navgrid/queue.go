package navgrid

// queueEntry is a pending relaxation of a node's cardinal or diagonal edges.
type queueEntry struct {
	prio     uint32
	idx      int32
	diagonal bool
}

// minHeap is a binary heap of queueEntry ordered by prio.
type minHeap []queueEntry

func (h *minHeap) push(e queueEntry) {
	*h = append(*h, e)
	i := len(*h) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if (*h)[parent].prio <= (*h)[i].prio {
			break
		}
		(*h)[parent], (*h)[i] = (*h)[i], (*h)[parent]
		i = parent
	}
}

func (h *minHeap) pop() queueEntry {
	old := *h
	n := len(old)
	e := old[0]
	old[0] = old[n-1]
	*h = old[:n-1]

	i := 0
	for {
		left := 2*i + 1
		if left >= len(*h) {
			break
		}
		smallest := left
		if right := left + 1; right < len(*h) && (*h)[right].prio < (*h)[left].prio {
			smallest = right
		}
		if (*h)[i].prio <= (*h)[smallest].prio {
			break
		}
		(*h)[i], (*h)[smallest] = (*h)[smallest], (*h)[i]
		i = smallest
	}
	return e
}
