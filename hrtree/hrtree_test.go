package hrtree

import (
	"math/rand"
	"testing"
)

func b2(x0, y0, x1, y1 int64) ([]int64, []int64) {
	return []int64{x0, y0}, []int64{x1, y1}
}

// checkInvariants walks every node reachable from the root and verifies
// fill counts respect [m, M] (except at the root), that every node's
// cached rect/key in its parent matches a freshly computed bound/lhv, that
// every leaf is reached at the same depth, and that the sibling-chain
// invariants hold (delegated to the package's own CheckInvariants).
func checkInvariants(t *testing.T, tr *Tree) {
	t.Helper()
	if tr.root == -1 {
		return
	}
	if err := tr.CheckInvariants(); err != nil {
		t.Fatalf("chain invariant: %v", err)
	}

	leafDepth := -1
	var walk func(idx, depth int, isRoot bool)
	walk = func(idx, depth int, isRoot bool) {
		nd := &tr.nodes[idx]
		if !isRoot {
			if len(nd.entries) < tr.m {
				t.Errorf("node %d underflowed: %d entries, m=%d", idx, len(nd.entries), tr.m)
			}
		}
		if len(nd.entries) > tr.M {
			t.Errorf("node %d overflowed: %d entries, M=%d", idx, len(nd.entries), tr.M)
		}
		wantLHV := tr.recomputeLHVPreview(idx)
		if wantLHV != nd.lhv {
			t.Errorf("node %d lhv = %d, want %d", idx, nd.lhv, wantLHV)
		}
		if nd.isLeaf {
			if leafDepth == -1 {
				leafDepth = depth
			} else if leafDepth != depth {
				t.Errorf("leaf at depth %d, want %d", depth, leafDepth)
			}
			return
		}
		for _, e := range nd.entries {
			if tr.nodes[e.child].parent != idx {
				t.Errorf("child %d has parent %d, want %d", e.child, tr.nodes[e.child].parent, idx)
			}
			wantBound := tr.calculateBound(e.child)
			if !equalsBox(e.rect, wantBound) {
				t.Errorf("entry for child %d has stale rect %+v, want %+v", e.child, e.rect, wantBound)
			}
			if e.key != tr.nodes[e.child].lhv {
				t.Errorf("entry for child %d has stale key %d, want %d", e.child, e.key, tr.nodes[e.child].lhv)
			}
			walk(e.child, depth+1, false)
		}
	}
	walk(tr.root, 0, true)
}

// recomputeLHVPreview returns what recomputeLHV would set without mutating
// the node, for invariant checking.
func (t *Tree) recomputeLHVPreview(idx int) int64 {
	entries := t.nodes[idx].entries
	if len(entries) == 0 {
		return 0
	}
	lhv := entries[0].key
	for _, e := range entries[1:] {
		if e.key > lhv {
			lhv = e.key
		}
	}
	return lhv
}

func allPayloads(t *testing.T, tr *Tree) map[interface{}]bool {
	t.Helper()
	seen := map[interface{}]bool{}
	if tr.root == -1 {
		return seen
	}
	var walk func(int)
	walk = func(idx int) {
		nd := &tr.nodes[idx]
		if nd.isLeaf {
			for _, e := range nd.entries {
				if seen[e.payload] {
					t.Errorf("payload %v reached twice", e.payload)
				}
				seen[e.payload] = true
			}
			return
		}
		for _, e := range nd.entries {
			walk(e.child)
		}
	}
	walk(tr.root)
	return seen
}

func TestNewRejectsBadFill(t *testing.T) {
	if _, err := New(5, 4, 2, 10); err == nil {
		t.Fatal("expected InvalidParameter for m > M/2")
	}
}

func TestNewRejectsBadDim(t *testing.T) {
	if _, err := New(1, 4, 0, 10); err == nil {
		t.Fatal("expected InvalidParameter for dim < 1")
	}
}

func TestInsertSingle(t *testing.T) {
	tr, err := New(2, 4, 2, 16)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := b2(0, 0, 100, 100)
	if err := tr.Insert(lo, hi, "a"); err != nil {
		t.Fatal(err)
	}
	plo, phi := b2(50, 50, 50, 50)
	got := tr.Search(plo, phi)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("Search = %v, want [a]", got)
	}
	checkInvariants(t, tr)
}

// S2: overlap in center.
func TestSearchOverlapCenter(t *testing.T) {
	tr, err := New(2, 4, 2, 16)
	if err != nil {
		t.Fatal(err)
	}
	type rec struct {
		lo, hi []int64
		p      string
	}
	recs := []rec{
		{[]int64{0, 0}, []int64{500, 500}, "A"},
		{[]int64{300, 300}, []int64{800, 800}, "B"},
		{[]int64{400, 400}, []int64{600, 600}, "C"},
	}
	for _, r := range recs {
		if err := tr.Insert(r.lo, r.hi, r.p); err != nil {
			t.Fatal(err)
		}
	}
	qlo, qhi := b2(400, 400, 500, 500)
	got := tr.Search(qlo, qhi)
	if len(got) != 3 {
		t.Fatalf("Search = %v, want 3 results", got)
	}
	checkInvariants(t, tr)
}

// S3: split then all-found.
func TestInsertTriggersOverflowRedistribution(t *testing.T) {
	tr, err := New(2, 4, 2, 16)
	if err != nil {
		t.Fatal(err)
	}
	for i := int64(0); i < 30; i++ {
		lo, hi := b2(i*10, i*10, i*10+50, i*10+50)
		if err := tr.Insert(lo, hi, i); err != nil {
			t.Fatal(err)
		}
		checkInvariants(t, tr)
	}
	if tr.Len() != 30 {
		t.Fatalf("Len() = %d, want 30", tr.Len())
	}
	qlo, qhi := b2(-1000, -1000, 10000, 10000)
	got := tr.Search(qlo, qhi)
	if len(got) != 30 {
		t.Fatalf("Search = %d results, want 30", len(got))
	}
	seen := allPayloads(t, tr)
	if len(seen) != 30 {
		t.Fatalf("reached %d distinct payloads, want 30", len(seen))
	}
}

// S4: remove middle.
func TestRemoveMiddle(t *testing.T) {
	tr, err := New(2, 4, 2, 16)
	if err != nil {
		t.Fatal(err)
	}
	var rects [][2][]int64
	for i := int64(0); i < 5; i++ {
		lo, hi := b2(i*100, i*100, i*100+100, i*100+100)
		rects = append(rects, [2][]int64{lo, hi})
		if err := tr.Insert(lo, hi, int(i)); err != nil {
			t.Fatal(err)
		}
	}
	removed := rects[2]
	tr.Remove(removed[0], removed[1])
	checkInvariants(t, tr)

	qlo, qhi := b2(0, 0, 1000, 1000)
	got := tr.Search(qlo, qhi)
	if len(got) != 4 {
		t.Fatalf("Search after remove = %d results, want 4", len(got))
	}
	for _, p := range got {
		if p == 2 {
			t.Fatalf("removed payload still found: %v", got)
		}
	}
	if tr.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", tr.Len())
	}
}

func TestRemoveNoMatchIsNoop(t *testing.T) {
	tr, err := New(2, 4, 2, 16)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := b2(0, 0, 10, 10)
	if err := tr.Insert(lo, hi, "a"); err != nil {
		t.Fatal(err)
	}
	mlo, mhi := b2(500, 500, 510, 510)
	tr.Remove(mlo, mhi)
	if tr.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tr.Len())
	}
}

func TestRemoveAllClearsTree(t *testing.T) {
	tr, err := New(2, 4, 2, 16)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := b2(0, 0, 10, 10)
	if err := tr.Insert(lo, hi, "only"); err != nil {
		t.Fatal(err)
	}
	tr.Remove(lo, hi)
	if tr.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tr.Len())
	}
	if tr.root != -1 {
		t.Fatalf("root = %d, want -1 (empty tree)", tr.root)
	}
	qlo, qhi := b2(0, 0, 10, 10)
	if got := tr.Search(qlo, qhi); len(got) != 0 {
		t.Fatalf("Search after full removal = %v, want empty", got)
	}
}

func TestDimensionMismatch(t *testing.T) {
	tr, err := New(2, 4, 2, 16)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := b2(0, 0, 10, 10)
	if err := tr.Insert(lo, hi, "2d"); err != nil {
		t.Fatal(err)
	}
	err = tr.Insert([]int64{0, 0, 0}, []int64{1, 1, 1}, "3d")
	if err == nil {
		t.Fatal("expected DimensionMismatch error")
	}
	if kind := err.(*Error).Kind; kind != DimensionMismatch {
		t.Fatalf("Kind = %v, want DimensionMismatch", kind)
	}
}

func TestOutOfRange(t *testing.T) {
	tr, err := New(2, 4, 2, 2) // bits=2 => max ordinate 3
	if err != nil {
		t.Fatal(err)
	}
	err = tr.Insert([]int64{0, 0}, []int64{100, 100}, "oops")
	if err == nil {
		t.Fatal("expected OutOfRange error")
	}
	if kind := err.(*Error).Kind; kind != OutOfRange {
		t.Fatalf("Kind = %v, want OutOfRange", kind)
	}
}

func TestInsertRemoveRandomStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}
	tr, err := New(2, 4, 2, 20)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	maxOrd := tr.curve.MaxOrdinate()

	type placed struct{ lo, hi []int64 }
	var live []placed

	const cycles = 10
	const perCycle = 800

	for c := 0; c < cycles; c++ {
		for i := 0; i < perCycle; i++ {
			x := rng.Int63n(maxOrd - 10)
			y := rng.Int63n(maxOrd - 10)
			lo, hi := []int64{x, y}, []int64{x + 1, y + 1}
			if err := tr.Insert(lo, hi, len(live)); err != nil {
				t.Fatal(err)
			}
			live = append(live, placed{lo, hi})
		}
		checkInvariants(t, tr)

		rng.Shuffle(len(live), func(i, j int) { live[i], live[j] = live[j], live[i] })
		half := len(live) / 2
		for _, p := range live[:half] {
			tr.Remove(p.lo, p.hi)
		}
		live = live[half:]
		checkInvariants(t, tr)

		if tr.Len() != len(live) {
			t.Fatalf("cycle %d: Len() = %d, want %d", c, tr.Len(), len(live))
		}
	}
}
