package atlas

// freeNode is one free rectangle in the guillotine free list. Nodes are
// held in an arena (nodeArena.nodes) and referenced by index rather than by
// pointer, per the "cyclic weak links" design note: sibling/alt references
// are just indices, stable across slice growth.
type freeNode struct {
	x, y, w, h int

	// sibling is the complementary split produced at the same division
	// step (-1 if none, or once gone). The A-right/A-down pair are each
	// other's sibling, as are B-right/B-down.
	sibling int

	// alt holds up to two indices into the *other* split variant, so that
	// when one variant's node is consumed the other variant's nodes can be
	// dropped from the free list. (-1 for unused slots.)
	alt [2]int

	// hasOthers is true while alt still refers to a live alternate variant.
	// Consuming a node clears its sibling's hasOthers (and alt), since the
	// cross-linked alternative no longer has a counterpart to race against.
	hasOthers bool

	alive bool
}

// nodeArena is an index-addressed pool of freeNode plus the subset of
// indices currently live in the free list.
type nodeArena struct {
	nodes []freeNode
	free  []int // indices into nodes, currently in the free list
}

func newNodeArena() *nodeArena {
	return &nodeArena{}
}

func (a *nodeArena) reset() {
	a.nodes = a.nodes[:0]
	a.free = a.free[:0]
}

// push creates a new free node and enqueues it in the free list, returning
// its index. w<=0 or h<=0 rectangles are degenerate and are not enqueued
// (index -1 is returned in that case, matching a "no such node" sentinel).
func (a *nodeArena) push(x, y, w, h int) int {
	if w <= 0 || h <= 0 {
		return -1
	}
	idx := len(a.nodes)
	a.nodes = append(a.nodes, freeNode{x: x, y: y, w: w, h: h, sibling: -1, alt: [2]int{-1, -1}, alive: true})
	a.free = append(a.free, idx)
	return idx
}

// removeFromFreeList drops idx from the free list (but the node struct
// itself, including its cross-links, is left intact for other live nodes
// still pointing at it by index; only the alive flag changes).
func (a *nodeArena) removeFromFreeList(idx int) {
	if idx < 0 || !a.nodes[idx].alive {
		return
	}
	a.nodes[idx].alive = false
	for i, f := range a.free {
		if f == idx {
			a.free = append(a.free[:i], a.free[i+1:]...)
			return
		}
	}
}

// rotateToTail moves idx to the back of the free list, used when a probe
// against idx fails to fit so future probes amortize past it quickly.
func (a *nodeArena) rotateToTail(pos int) {
	if pos < 0 || pos >= len(a.free) {
		return
	}
	idx := a.free[pos]
	a.free = append(a.free[:pos], a.free[pos+1:]...)
	a.free = append(a.free, idx)
}

// consume removes idx and, if it still has a live alternate variant,
// removes that variant's nodes too and clears the sibling's cross-link.
func (a *nodeArena) consume(idx int) {
	if idx < 0 {
		return
	}
	n := a.nodes[idx]
	a.removeFromFreeList(idx)

	if n.hasOthers {
		for _, alt := range n.alt {
			if alt >= 0 && a.nodes[alt].alive {
				a.removeFromFreeList(alt)
			}
		}
	}
	if n.sibling >= 0 && a.nodes[n.sibling].alive {
		sib := a.nodes[n.sibling]
		sib.hasOthers = false
		sib.alt = [2]int{-1, -1}
		a.nodes[n.sibling] = sib
	}
}
