// Package segtree implements a capacity-tracking segment tree used by the
// edge-block packer: "first leaf whose value is >= v" in O(log L).
//
// The tree is a 1-indexed complete binary tree over 4*L nodes, mirroring the
// original C++ SegmentTree: leaves hold remaining block capacity, internal
// nodes hold the max of their subtree, and query_first_larger descends
// preferring the left child whenever its subtree max already satisfies the
// query.
//
// Tree is not safe for concurrent use; the parsing phase that owns it is
// single-threaded (see pkg/graph).
package segtree

// None is returned by QueryFirstGE when no leaf satisfies the query.
const None = -1

// node mirrors the original's SegTreeNode: a primary value (used for the max
// aggregate) and an optional secondary value stashed by UpdateNode for the
// caller's convenience (the packer uses it to remember a block's id).
type node struct {
	val    int
	maxVal int
	val2   int
}

// Tree is a segment tree over a dense index space of length L.
type Tree struct {
	length int
	nodes  []node
}

// New allocates a tree of length L with every leaf initialised to v.
func New(length, v int) *Tree {
	t := &Tree{
		length: length,
		nodes:  make([]node, length<<2),
	}
	for i := range t.nodes {
		t.nodes[i].val = v
		t.nodes[i].maxVal = v
		t.nodes[i].val2 = -1
	}
	return t
}

// Read returns the value stored at node index idx, or -1 if idx is out of
// range (matches the original's bounds-checked get_val).
func (t *Tree) Read(idx int) int {
	if idx < 0 || idx >= len(t.nodes) {
		return -1
	}
	return t.nodes[idx].val
}

// ReadSecondary returns the secondary value stashed at node idx.
func (t *Tree) ReadSecondary(idx int) int {
	if idx < 0 || idx >= len(t.nodes) {
		return -1
	}
	return t.nodes[idx].val2
}

// Update sets the leaf at position pos to value and re-aggregates the max
// along the path to the root.
func (t *Tree) Update(pos, value int) {
	t.update(1, 0, t.length, pos, value)
}

func (t *Tree) update(id, l, r, pos, value int) {
	if r-l == 1 {
		t.nodes[id].val = value
		t.nodes[id].maxVal = value
		return
	}
	mid := (l + r) >> 1
	if pos < mid {
		t.update(id<<1, l, mid, pos, value)
	} else {
		t.update((id<<1)+1, mid, r, pos, value)
	}
	t.maintain(id)
}

// UpdateNode sets an internal node directly by its node index (as returned
// by a prior QueryFirstGE), then re-aggregates ancestors. Used by the packer
// once it already knows which leaf a query landed on.
func (t *Tree) UpdateNode(idx, value, secondary int) {
	if idx < 0 || idx >= len(t.nodes) {
		return
	}
	t.nodes[idx].val = value
	t.nodes[idx].maxVal = value
	t.nodes[idx].val2 = secondary

	idx >>= 1
	for idx > 0 {
		t.maintain(idx)
		idx >>= 1
	}
}

func (t *Tree) maintain(id int) {
	left := id << 1
	if left >= len(t.nodes) {
		return
	}
	right := left + 1
	lm, rm := t.nodes[left].maxVal, 0
	if right < len(t.nodes) {
		rm = t.nodes[right].maxVal
	}
	if lm > rm {
		t.nodes[id].maxVal = lm
	} else {
		t.nodes[id].maxVal = rm
	}
}

// QueryFirstGE returns the node index of the leftmost leaf whose value is
// >= v, descending from the root and always preferring the left child when
// its subtree max already satisfies the query. Returns None if the root's
// max is below v.
func (t *Tree) QueryFirstGE(v int) int {
	if t.nodes[1].maxVal < v {
		return None
	}

	id := 1
	l, r := 0, t.length
	for r-l > 1 {
		mid := (l + r) >> 1
		if t.nodes[id<<1].maxVal >= v {
			r = mid
			id <<= 1
		} else {
			l = mid
			id = (id << 1) + 1
		}
	}
	return id
}

// Len returns the number of leaves the tree was constructed with.
func (t *Tree) Len() int { return t.length }

// LeafPos translates a node index (as returned by QueryFirstGE) back into
// its leaf position in [0, Len()). Used by the edge-block packer, which
// needs the block's array index, not its node handle.
func (t *Tree) LeafPos(node int) int {
	var path []int
	for n := node; n > 1; n >>= 1 {
		path = append(path, n&1)
	}
	l, r := 0, t.length
	for i := len(path) - 1; i >= 0; i-- {
		mid := (l + r) >> 1
		if path[i] == 0 {
			r = mid
		} else {
			l = mid
		}
	}
	return l
}
