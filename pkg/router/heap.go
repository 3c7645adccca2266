package router

// openItem is one entry of the A* open set: a route-node awaiting
// expansion, ordered by (overall, nodeID) so ties break deterministically
// on node id rather than insertion order (spec §4.8 "Ordering guarantees").
type openItem struct {
	nodeID  uint64
	current float64 // cost from start to this node
	overall float64 // current + heuristic estimate to target
	prev    uint64
	prevObj uint64 // object offset of the path used to enter this node
	hasPrev bool
	restricted bool
}

// openHeap is a concrete-typed binary min-heap keyed by (overall, nodeID),
// paired with an index map for in-place decrease-key: a Dijkstra MinHeap
// generalized from a bare uint32 distance key to the (overall_cost,
// nodeOffset) total order the A* router needs, and from "push-only" to
// "decrease-key via index map" since A* revisits nodes whose cost
// improves.
type openHeap struct {
	items []openItem
	index map[uint64]int // nodeID -> position in items
}

func newOpenHeap() *openHeap {
	return &openHeap{index: make(map[uint64]int)}
}

func (h *openHeap) Len() int { return len(h.items) }

func less(a, b openItem) bool {
	if a.overall != b.overall {
		return a.overall < b.overall
	}
	return a.nodeID < b.nodeID
}

func (h *openHeap) Push(it openItem) {
	h.items = append(h.items, it)
	i := len(h.items) - 1
	h.index[it.nodeID] = i
	h.siftUp(i)
}

// Upsert inserts it, or if nodeID is already present with a worse overall
// cost, decreases its key in place; returns true if it changed the heap.
func (h *openHeap) Upsert(it openItem) bool {
	if i, ok := h.index[it.nodeID]; ok {
		if !less(it, h.items[i]) {
			return false
		}
		h.items[i] = it
		h.siftUp(i)
		return true
	}
	h.Push(it)
	return true
}

func (h *openHeap) Contains(nodeID uint64) bool {
	_, ok := h.index[nodeID]
	return ok
}

func (h *openHeap) PeekOverall() (float64, bool) {
	if len(h.items) == 0 {
		return 0, false
	}
	return h.items[0].overall, true
}

func (h *openHeap) Pop() openItem {
	n := len(h.items)
	top := h.items[0]
	delete(h.index, top.nodeID)
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.index[h.items[0].nodeID] = 0
		h.siftDown(0)
	}
	return top
}

func (h *openHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !less(h.items[i], h.items[parent]) {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *openHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && less(h.items[left], h.items[smallest]) {
			smallest = left
		}
		if right < n && less(h.items[right], h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.swap(i, smallest)
		i = smallest
	}
}

func (h *openHeap) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.index[h.items[i].nodeID] = i
	h.index[h.items[j].nodeID] = j
}
