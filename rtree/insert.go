package rtree

import (
	"math"

	"github.com/lilhast1/rtree/geom"
)

// Insert adds a new (rectangle, payload) entry to the tree. The tree's
// dimensionality is latched from the first successful Insert; every
// subsequent Insert must agree with it or DimensionMismatch is returned.
func (t *Tree) Insert(r geom.Rect, payload interface{}) error {
	if err := t.checkDim(r); err != nil {
		return err
	}

	if t.root == -1 {
		t.nodes = append(t.nodes, node{isLeaf: true, parent: -1})
		t.root = 0
	}

	leaf := t.chooseLeaf(r)
	t.nodes[leaf].entries = append(t.nodes[leaf].entries, entry{rect: r, payload: payload})

	var split *int
	if len(t.nodes[leaf].entries) > t.M {
		nn := t.quadraticSplit(leaf)
		split = &nn
	}
	t.adjustTree(leaf, split)
	return nil
}

// chooseLeaf descends from the root to a leaf, at each internal node
// picking the child that needs the least enlargement to accommodate r,
// breaking ties in favor of the child with the smaller current area.
func (t *Tree) chooseLeaf(r geom.Rect) int {
	idx := t.root
	for {
		nd := &t.nodes[idx]
		if nd.isLeaf {
			return idx
		}
		best := 0
		bestEnl := geom.Enlargement(nd.entries[0].rect, r)
		bestArea := geom.Area(nd.entries[0].rect)
		for i := 1; i < len(nd.entries); i++ {
			enl := geom.Enlargement(nd.entries[i].rect, r)
			area := geom.Area(nd.entries[i].rect)
			if enl < bestEnl || (enl == bestEnl && area < bestArea) {
				best, bestEnl, bestArea = i, enl, area
			}
		}
		idx = nd.entries[best].child
	}
}

// adjustTree walks from n up to the root, recomputing each ancestor's
// bounding rectangle (held in its parent's entry) and, if nn is non-nil,
// inserting it as a new sibling of n at each level — splitting the parent
// in turn if that overflows it. When the root itself needs to absorb a
// split, a new root is created and the tree grows one level taller.
func (t *Tree) adjustTree(n int, nn *int) {
	for {
		if n == t.root {
			if nn != nil {
				newRoot := len(t.nodes)
				t.nodes = append(t.nodes, node{
					isLeaf: false,
					entries: []entry{
						{rect: t.calculateBound(n), child: n},
						{rect: t.calculateBound(*nn), child: *nn},
					},
					parent: -1,
				})
				t.nodes[n].parent = newRoot
				t.nodes[*nn].parent = newRoot
				t.root = newRoot
			}
			return
		}

		parent := t.nodes[n].parent
		for i := range t.nodes[parent].entries {
			if t.nodes[parent].entries[i].child == n {
				t.nodes[parent].entries[i].rect = t.calculateBound(n)
				break
			}
		}

		var pp *int
		if nn != nil {
			t.nodes[parent].entries = append(t.nodes[parent].entries, entry{
				rect:  t.calculateBound(*nn),
				child: *nn,
			})
			t.nodes[*nn].parent = parent
			if len(t.nodes[parent].entries) > t.M {
				idx := t.quadraticSplit(parent)
				pp = &idx
			}
		}

		n, nn = parent, pp
	}
}

// quadraticSplit implements Guttman's quadratic-cost split algorithm: pick
// the pair of entries that would waste the most area if kept together as
// seeds, then repeatedly assign the remaining entry with the strongest
// preference for one group over the other, forcing all remaining entries
// into whichever group would otherwise fall below the minimum fill. The
// node at idx keeps one resulting group; the other is placed in a newly
// allocated node whose index is returned.
func (t *Tree) quadraticSplit(idx int) int {
	entries := t.nodes[idx].entries
	isLeaf := t.nodes[idx].isLeaf

	seedA, seedB := pickSeeds(entries)

	groupA := []entry{entries[seedA]}
	groupB := []entry{entries[seedB]}
	boundA := entries[seedA].rect
	boundB := entries[seedB].rect

	remaining := make([]int, 0, len(entries)-2)
	for i := range entries {
		if i != seedA && i != seedB {
			remaining = append(remaining, i)
		}
	}

	for len(remaining) > 0 {
		if len(groupA)+len(remaining) <= t.m {
			for _, i := range remaining {
				groupA = append(groupA, entries[i])
				boundA = geom.Union(boundA, entries[i].rect)
			}
			remaining = nil
			break
		}
		if len(groupB)+len(remaining) <= t.m {
			for _, i := range remaining {
				groupB = append(groupB, entries[i])
				boundB = geom.Union(boundB, entries[i].rect)
			}
			remaining = nil
			break
		}

		pickPos, pickI := 0, remaining[0]
		bestDiff := math.Inf(-1)
		var enlA, enlB float64
		for pos, i := range remaining {
			a := geom.Enlargement(boundA, entries[i].rect)
			b := geom.Enlargement(boundB, entries[i].rect)
			diff := a - b
			if diff < 0 {
				diff = -diff
			}
			if diff > bestDiff {
				bestDiff, pickPos, pickI, enlA, enlB = diff, pos, i, a, b
			}
		}
		remaining = append(remaining[:pickPos], remaining[pickPos+1:]...)

		areaA := geom.Area(geom.Union(boundA, entries[pickI].rect))
		areaB := geom.Area(geom.Union(boundB, entries[pickI].rect))

		var assignToA bool
		switch {
		case enlA < enlB:
			assignToA = true
		case enlB < enlA:
			assignToA = false
		case areaA < areaB:
			assignToA = true
		case areaB < areaA:
			assignToA = false
		default:
			assignToA = len(groupA) <= len(groupB)
		}

		if assignToA {
			groupA = append(groupA, entries[pickI])
			boundA = geom.Union(boundA, entries[pickI].rect)
		} else {
			groupB = append(groupB, entries[pickI])
			boundB = geom.Union(boundB, entries[pickI].rect)
		}
	}

	// Post-condition guard: the loop above should already satisfy the
	// minimum fill on both sides, but shuffle entries across if the forcing
	// step ever left one group short.
	for len(groupA) < t.m && len(groupB) > t.m {
		last := len(groupB) - 1
		groupA = append(groupA, groupB[last])
		groupB = groupB[:last]
	}
	for len(groupB) < t.m && len(groupA) > t.m {
		last := len(groupA) - 1
		groupB = append(groupB, groupA[last])
		groupA = groupA[:last]
	}

	t.nodes[idx].entries = groupA

	newIdx := len(t.nodes)
	t.nodes = append(t.nodes, node{isLeaf: isLeaf, entries: groupB, parent: t.nodes[idx].parent})
	if !isLeaf {
		for _, e := range groupB {
			t.nodes[e.child].parent = newIdx
		}
	}
	return newIdx
}

// pickSeeds returns the pair of entry indices that would waste the most
// area if placed together in one node, per Guttman's quadratic PickSeeds.
func pickSeeds(entries []entry) (int, int) {
	best := math.Inf(-1)
	bi, bj := 0, 1
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			combined := geom.Area(geom.Union(entries[i].rect, entries[j].rect))
			waste := combined - geom.Area(entries[i].rect) - geom.Area(entries[j].rect)
			if waste > best {
				best, bi, bj = waste, i, j
			}
		}
	}
	return bi, bj
}
