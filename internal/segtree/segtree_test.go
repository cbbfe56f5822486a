package segtree

import "testing"

func TestQueryFirstGE_LeftmostPreferred(t *testing.T) {
	tr := New(8, 10)
	tr.Update(3, 2)

	idx := tr.QueryFirstGE(9)
	want := tr.leafIndex(0)
	if idx != want {
		t.Fatalf("QueryFirstGE(9) = %d, want leaf(0) = %d", idx, want)
	}
}

func TestQueryFirstGE_NoneWhenAllBelow(t *testing.T) {
	tr := New(4, 1)
	if got := tr.QueryFirstGE(2); got != None {
		t.Fatalf("expected None, got %d", got)
	}
}

func TestQueryFirstGE_PicksFirstSatisfying(t *testing.T) {
	tr := New(4, 0)
	tr.Update(0, 1)
	tr.Update(1, 5)
	tr.Update(2, 5)
	tr.Update(3, 0)

	idx := tr.QueryFirstGE(5)
	want := tr.leafIndex(1)
	if idx != want {
		t.Fatalf("QueryFirstGE(5) = %d, want leaf(1) = %d", idx, want)
	}
}

func TestUpdateNode_ReaggregatesAncestors(t *testing.T) {
	tr := New(4, 10)
	leaf := tr.QueryFirstGE(10)
	tr.UpdateNode(leaf, 3, 42)

	if got := tr.Read(leaf); got != 3 {
		t.Fatalf("Read(leaf) = %d, want 3", got)
	}
	if got := tr.ReadSecondary(leaf); got != 42 {
		t.Fatalf("ReadSecondary(leaf) = %d, want 42", got)
	}
	// Root max should still be 10 (other leaves untouched).
	if tr.nodes[1].maxVal != 10 {
		t.Fatalf("root max = %d, want 10", tr.nodes[1].maxVal)
	}
}

// FirstFitPacking exercises a representative bin-packing scenario: degrees
// {7, 5, 3, 9} packed in order into blocks of capacity 10 via first-fit
// (leftmost block with enough remaining capacity) assigns block 0, then 1
// (block 0 only has 3 left), then back to block 0 (3 left fits degree 3
// exactly), then a fresh block 2 (neither 0 nor 1 has 9 left).
func TestFirstFitPacking(t *testing.T) {
	const capacity = 10
	const numBlocks = 3
	tr := New(numBlocks, capacity)

	degrees := []int{7, 5, 3, 9}
	wantBlock := []int{0, 1, 0, 2}

	remaining := make([]int, numBlocks)
	for i := range remaining {
		remaining[i] = capacity
	}

	for i, deg := range degrees {
		node := tr.QueryFirstGE(deg)
		if node == None {
			t.Fatalf("degree %d: no block with capacity", deg)
		}
		block := tr.LeafPos(node)
		if block != wantBlock[i] {
			t.Fatalf("degree %d assigned block %d, want %d", deg, block, wantBlock[i])
		}
		remaining[block] -= deg
		tr.UpdateNode(node, remaining[block], 0)
	}
}

// leafIndex returns the node index of the pos-th leaf, used only by tests to
// translate a leaf position into the node index QueryFirstGE would return.
func (t *Tree) leafIndex(pos int) int {
	id, l, r := 1, 0, t.length
	for r-l > 1 {
		mid := (l + r) >> 1
		if pos < mid {
			r = mid
			id <<= 1
		} else {
			l = mid
			id = (id << 1) + 1
		}
	}
	return id
}
