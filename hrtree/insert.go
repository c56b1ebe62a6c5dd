package hrtree

import "sort"

// Insert adds a new (rectangle, payload) entry to the tree. The rectangle's
// key is the Hilbert index of its centroid; the tree's dimensionality is
// fixed at construction (hrtree.New's dim parameter), unlike the Guttman
// variant which latches it from the first insert. Insert fails with
// DimensionMismatch if lo/hi disagree with dim, or OutOfRange if the
// centroid falls outside the configured curve's ordinate range.
//
// Any InvariantViolation raised by the sibling-chain assertions during
// rebalancing is recovered here and returned as an error rather than
// propagated as a panic, per this package's error-handling contract.
func (t *Tree) Insert(lo, hi []int64, payload interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*Error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	b, err := t.checkBox(lo, hi)
	if err != nil {
		return err
	}
	key, err := t.keyOf(b)
	if err != nil {
		return err
	}

	if t.root == -1 {
		t.root = t.newNode(true)
	}

	leaf := t.chooseLeaf(key)
	t.insertSorted(leaf, entry{rect: b, key: key, child: -1, payload: payload})
	t.recomputeLHV(leaf)

	if len(t.nodes[leaf].entries) > t.M {
		t.handleOverflow(leaf)
	} else {
		t.propagateUp(leaf)
	}
	return nil
}

// newNode allocates a fresh, detached node in the arena. Its prev/next are
// explicitly -1 (not the zero value) since 0 is itself a valid arena index.
func (t *Tree) newNode(isLeaf bool) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{isLeaf: isLeaf, parent: -1, prev: -1, next: -1})
	return idx
}

// chooseLeaf descends from the root by LHV: at each internal node it picks
// the first child (in ascending-key order, which is chain order) whose lhv
// is at least key, falling back to the last child when none qualifies.
func (t *Tree) chooseLeaf(key int64) int {
	idx := t.root
	for !t.nodes[idx].isLeaf {
		nd := &t.nodes[idx]
		next := nd.entries[len(nd.entries)-1].child
		for _, e := range nd.entries {
			if e.key >= key {
				next = e.child
				break
			}
		}
		idx = next
	}
	return idx
}

// insertSorted inserts e into node idx's entries at the position that keeps
// the entries ascending by key.
func (t *Tree) insertSorted(idx int, e entry) {
	entries := t.nodes[idx].entries
	pos := sort.Search(len(entries), func(i int) bool { return entries[i].key >= e.key })
	entries = append(entries, entry{})
	copy(entries[pos+1:], entries[pos:])
	entries[pos] = e
	t.nodes[idx].entries = entries
}

// handleOverflow implements the cooperating-siblings deferred split: n has
// just grown past M entries. It pools n with up to one chain neighbor and
// redistributes evenly across them if either has spare room; otherwise it
// allocates a new sibling and redistributes across all three, recursing
// into the parent if that insertion itself overflows it.
func (t *Tree) handleOverflow(n int) {
	parent := t.nodes[n].parent
	if parent == -1 {
		t.splitRoot(n)
		return
	}

	group := t.siblingGroup(n, 2)
	pooled := t.poolEntries(group)

	if len(pooled) <= len(group)*t.M {
		t.redistributeEntries(pooled, group)
		for _, idx := range group {
			t.updateChildEntry(parent, idx)
		}
		t.sortEntriesByKey(parent)
		t.rebuildSiblingChain(parent)
		t.recomputeLHV(parent)
		t.propagateUp(parent)
		return
	}

	newSibling := t.newNode(t.nodes[n].isLeaf)
	group = append(group, newSibling)
	t.redistributeEntries(pooled, group)
	t.attachChildEntry(parent, newSibling)
	for _, idx := range group[:len(group)-1] {
		t.updateChildEntry(parent, idx)
	}
	t.sortEntriesByKey(parent)
	t.rebuildSiblingChain(parent)
	t.recomputeLHV(parent)

	if len(t.nodes[parent].entries) > t.M {
		t.handleOverflow(parent)
	} else {
		t.propagateUp(parent)
	}
}

// splitRoot handles overflow at the root, which has no siblings to defer
// into: it always allocates one new sibling and creates a new root over
// both, growing the tree by one level.
func (t *Tree) splitRoot(n int) {
	pooled := append([]entry(nil), t.nodes[n].entries...)
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].key < pooled[j].key })

	sibling := t.newNode(t.nodes[n].isLeaf)
	t.redistributeEntries(pooled, []int{n, sibling})

	newRoot := t.newNode(false)
	t.attachChildEntry(newRoot, n)
	t.attachChildEntry(newRoot, sibling)
	t.sortEntriesByKey(newRoot)
	t.rebuildSiblingChain(newRoot)
	t.recomputeLHV(newRoot)
	t.root = newRoot
}

// propagateUp walks from n up to the root, refreshing each ancestor's
// cached rect/key in its own parent's entry list, stopping as soon as an
// ancestor's cached values already match (nothing above it can be stale).
func (t *Tree) propagateUp(n int) {
	for n != t.root {
		parent := t.nodes[n].parent
		changed := t.updateChildEntry(parent, n)
		if !changed {
			return
		}
		t.recomputeLHV(parent)
		n = parent
	}
}
