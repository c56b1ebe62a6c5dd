// Package rtree implements the classical Guttman R-tree: quadratic-cost
// node splitting on insert, condense-tree with subtree re-grafting on
// delete. It is grounded on peterstace/rtree's arena-of-nodes design
// (nodes addressed by stable slice index, parent links stored as indices)
// generalized from a hardcoded 2-D float BBox to an arbitrary, per-tree
// fixed dimension, and extended with the delete side the teacher never
// implemented.
package rtree

import "github.com/lilhast1/rtree/geom"

// entry is a child slot under a node. Exactly one of (child, payload) is
// meaningful, distinguished by the owning node's isLeaf flag: leaf nodes
// hold payload entries, internal nodes hold child-node entries. rect is the
// entry's bounding rectangle either way (a data rectangle for leaves, the
// child's MBR for internal nodes).
type entry struct {
	rect    geom.Rect
	child   int // index into Tree.nodes, meaningful iff owning node is internal
	payload interface{}
}

// node is a slot in the tree's node arena. The zero value is not a valid
// node; nodes are only ever produced by Tree methods.
type node struct {
	isLeaf  bool
	entries []entry
	parent  int // index into Tree.nodes, -1 for the root
}

// Tree is an in-memory Guttman R-tree. Its zero value is not directly
// usable; construct one with New.
type Tree struct {
	nodes []node
	root  int // index into nodes, -1 when the tree is empty

	m, M int

	dim    int
	dimSet bool
}

// New creates an empty Tree with the given minimum and maximum fill per
// node. It fails with InvalidParameter if m > M/2.
func New(m, M int) (*Tree, error) {
	if m > M/2 {
		return nil, &Error{Kind: InvalidParameter, Msg: "rtree: m must be <= M/2"}
	}
	return &Tree{root: -1, m: m, M: M}, nil
}

// Len returns the number of entries (rectangle/payload pairs) in the tree.
func (t *Tree) Len() int {
	if t.root == -1 {
		return 0
	}
	n := 0
	var walk func(int)
	walk = func(idx int) {
		nd := &t.nodes[idx]
		if nd.isLeaf {
			n += len(nd.entries)
			return
		}
		for _, e := range nd.entries {
			walk(e.child)
		}
	}
	walk(t.root)
	return n
}

func (t *Tree) checkDim(r geom.Rect) error {
	if !t.dimSet {
		t.dim = r.Dim()
		t.dimSet = true
		return nil
	}
	if r.Dim() != t.dim {
		return &Error{Kind: DimensionMismatch, Msg: "rtree: rectangle dimension disagrees with tree dimension"}
	}
	return nil
}

// calculateBound returns the smallest rectangle covering all of a node's
// entries.
func (t *Tree) calculateBound(idx int) geom.Rect {
	entries := t.nodes[idx].entries
	bound := entries[0].rect
	for _, e := range entries[1:] {
		bound = geom.Union(bound, e.rect)
	}
	return bound
}

// Search returns the payloads of every entry whose rectangle overlaps r.
// The traversal is an iterative DFS with an explicit stack, pruning any
// subtree whose MBR does not overlap r.
func (t *Tree) Search(r geom.Rect) []interface{} {
	if t.root == -1 {
		return nil
	}
	var results []interface{}
	stack := []int{t.root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := &t.nodes[idx]
		for _, e := range nd.entries {
			if !geom.Overlaps(e.rect, r) {
				continue
			}
			if nd.isLeaf {
				results = append(results, e.payload)
			} else {
				stack = append(stack, e.child)
			}
		}
	}
	return results
}
