package rtree

import "github.com/lilhast1/rtree/geom"

// Remove deletes the entry whose rectangle equals r (tolerant equality for
// floating coordinates) from the tree. It is a silent no-op if no such
// entry exists.
func (t *Tree) Remove(r geom.Rect) {
	if t.root == -1 {
		return
	}
	leaf, entryIdx, found := t.findExact(t.root, r)
	if !found {
		return
	}
	nd := &t.nodes[leaf]
	nd.entries = append(nd.entries[:entryIdx], nd.entries[entryIdx+1:]...)
	t.condenseTree(leaf)
}

// findExact performs an exact-match descent for r: it only recurses into
// subtrees whose MBR overlaps r (a necessary condition for containing an
// entry equal to r, per invariant 3) and compares candidate leaf entries
// with tolerant equality.
func (t *Tree) findExact(idx int, r geom.Rect) (leaf, entryIdx int, found bool) {
	nd := &t.nodes[idx]
	for i, e := range nd.entries {
		if !geom.Overlaps(e.rect, r) {
			continue
		}
		if nd.isLeaf {
			if geom.Equals(e.rect, r) {
				return idx, i, true
			}
			continue
		}
		if l, ei, ok := t.findExact(e.child, r); ok {
			return l, ei, true
		}
	}
	return 0, 0, false
}

// subtreeOrphan is a child subtree of an internal node evicted during
// condense-tree, tagged with its height (distance to its leaves) so it can
// be re-grafted at the matching level rather than dissolved into leaves.
type subtreeOrphan struct {
	idx    int
	height int
}

// condenseTree walks from leaf up to the root. Any node whose fill falls
// below m along the way is evicted from its parent: a leaf eviction
// contributes its entries to leafOrphans (reinserted individually through
// the normal Insert path once the walk reaches the root), an internal
// eviction contributes each of its child subtrees to subtreeOrphans
// (re-grafted at the level matching their height, preserving the
// equal-leaf-depth invariant that naive leaf-only reinsertion would
// violate); the underfull evicted node itself is dropped. Root shortening happens
// last, after every orphan has found a new home.
func (t *Tree) condenseTree(leaf int) {
	var leafOrphans []entry
	var subtreeOrphans []subtreeOrphan

	current := leaf
	level := 0
	for current != t.root {
		parent := t.nodes[current].parent

		if len(t.nodes[current].entries) < t.m {
			t.removeChildEntry(parent, current)
			if t.nodes[current].isLeaf {
				leafOrphans = append(leafOrphans, t.nodes[current].entries...)
			} else {
				for _, e := range t.nodes[current].entries {
					subtreeOrphans = append(subtreeOrphans, subtreeOrphan{idx: e.child, height: level - 1})
				}
			}
		} else {
			t.setChildRect(parent, current, t.calculateBound(current))
		}

		current = parent
		level++
	}

	for _, e := range leafOrphans {
		t.Insert(e.rect, e.payload)
	}
	for _, o := range subtreeOrphans {
		t.regraft(o.idx, o.height)
	}

	for !t.nodes[t.root].isLeaf && len(t.nodes[t.root].entries) == 1 {
		child := t.nodes[t.root].entries[0].child
		t.nodes[child].parent = -1
		t.root = child
	}
	if t.nodes[t.root].isLeaf && len(t.nodes[t.root].entries) == 0 {
		t.root = -1
	}
}

func (t *Tree) removeChildEntry(parent, child int) {
	entries := t.nodes[parent].entries
	for i, e := range entries {
		if e.child == child {
			t.nodes[parent].entries = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

func (t *Tree) setChildRect(parent, child int, rect geom.Rect) {
	entries := t.nodes[parent].entries
	for i := range entries {
		if entries[i].child == child {
			entries[i].rect = rect
			return
		}
	}
}

// height returns the number of edges from idx down to its leaves: 0 for a
// leaf itself, 1 for a node whose children are leaves, and so on.
func (t *Tree) height(idx int) int {
	h := 0
	for !t.nodes[idx].isLeaf {
		idx = t.nodes[idx].entries[0].child
		h++
	}
	return h
}

// regraft reattaches an orphaned subtree (of the given height) at the
// ancestor level whose children live at that height, growing the tree with
// new roots first if it isn't currently tall enough, then running the same
// overflow handling as a normal insert if the attachment overflows its new
// parent.
func (t *Tree) regraft(orphan, height int) {
	bound := t.calculateBound(orphan)

	for t.height(t.root) < height+1 {
		newRoot := len(t.nodes)
		t.nodes = append(t.nodes, node{
			isLeaf:  false,
			entries: []entry{{rect: t.calculateBound(t.root), child: t.root}},
			parent:  -1,
		})
		t.nodes[t.root].parent = newRoot
		t.root = newRoot
	}

	attach := t.chooseSubtreeAtLevel(height+1, bound)
	t.nodes[attach].entries = append(t.nodes[attach].entries, entry{rect: bound, child: orphan})
	t.nodes[orphan].parent = attach

	var split *int
	if len(t.nodes[attach].entries) > t.M {
		nn := t.quadraticSplit(attach)
		split = &nn
	}
	t.adjustTree(attach, split)
}

// chooseSubtreeAtLevel is choose-leaf restricted to stop at a node whose
// height equals target, rather than always descending to height 0.
func (t *Tree) chooseSubtreeAtLevel(target int, bound geom.Rect) int {
	idx := t.root
	for t.height(idx) != target {
		nd := &t.nodes[idx]
		best := 0
		bestEnl := geom.Enlargement(nd.entries[0].rect, bound)
		bestArea := geom.Area(nd.entries[0].rect)
		for i := 1; i < len(nd.entries); i++ {
			enl := geom.Enlargement(nd.entries[i].rect, bound)
			area := geom.Area(nd.entries[i].rect)
			if enl < bestEnl || (enl == bestEnl && area < bestArea) {
				best, bestEnl, bestArea = i, enl, area
			}
		}
		idx = nd.entries[best].child
	}
	return idx
}
