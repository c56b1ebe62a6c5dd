// Package hrtree implements the Hilbert-curve-ordered R-tree: entries at
// every level are kept in a total order by Hilbert key, overflow is
// deferred across cooperating chain siblings before a new node is
// allocated, and underflow is handled symmetrically by redistributing or
// merging across the same chain neighborhood. It shares rtree's
// arena-of-indices node storage (grounded on peterstace/rtree) but the
// balancing algorithm itself — choose-leaf-by-LHV, cooperating siblings,
// condense-tree with merge/borrow — is grounded on the Hilbert R-tree in
// this repository's C++ reference material, adapted from imperative
// pointer-patched sibling links to a chain rebuilt from the parent's
// entry order on every mutation (never patched in place), per this
// package's explicit design mandate.
package hrtree

import "github.com/lilhast1/rtree/hilbert"

// entry is a child slot under a node. For leaf nodes, child is -1 and
// payload is meaningful; key is the Hilbert index of the entry's own
// rectangle centroid. For internal nodes, child indexes into Tree.nodes
// and key is that child's lhv. Entries within a node are always kept
// sorted ascending by key.
type entry struct {
	rect    box
	key     int64
	child   int
	payload interface{}
}

// node is a slot in the tree's node arena. prev/next are sibling links at
// this node's level, always rebuilt from the parent's entry order rather
// than patched — see rebuildSiblingChain.
type node struct {
	isLeaf     bool
	entries    []entry
	parent     int
	lhv        int64
	prev, next int
}

// Tree is an in-memory Hilbert R-tree. Its zero value is not directly
// usable; construct one with New.
type Tree struct {
	nodes []node
	root  int

	m, M int
	dim  int

	curve *hilbert.Curve
}

// New creates an empty Tree with the given minimum/maximum fill, fixed
// dimensionality, and Hilbert curve bit depth.
func New(m, M, dim, bits int) (*Tree, error) {
	if m > M/2 {
		return nil, &Error{Kind: InvalidParameter, Msg: "hrtree: m must be <= M/2"}
	}
	if dim < 1 {
		return nil, &Error{Kind: InvalidParameter, Msg: "hrtree: dim must be >= 1"}
	}
	curve, err := hilbert.New(bits, dim)
	if err != nil {
		return nil, &Error{Kind: InvalidParameter, Msg: err.Error()}
	}
	return &Tree{root: -1, m: m, M: M, dim: dim, curve: curve}, nil
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

func (t *Tree) checkBox(lo, hi []int64) (box, error) {
	if len(lo) != t.dim || len(hi) != t.dim {
		return box{}, &Error{Kind: DimensionMismatch, Msg: "hrtree: coordinate slice length disagrees with tree dimension"}
	}
	return newBox(lo, hi), nil
}

func (t *Tree) keyOf(b box) (int64, error) {
	idx, err := t.curve.Index(centroidOf(b))
	if err != nil {
		return 0, &Error{Kind: OutOfRange, Msg: err.Error()}
	}
	return idx, nil
}

// calculateBound returns the smallest box covering all of a node's
// entries.
func (t *Tree) calculateBound(idx int) box {
	entries := t.nodes[idx].entries
	bound := entries[0].rect
	for _, e := range entries[1:] {
		bound = unionBox(bound, e.rect)
	}
	return bound
}

func (t *Tree) recomputeLHV(idx int) int64 {
	entries := t.nodes[idx].entries
	if len(entries) == 0 {
		t.nodes[idx].lhv = 0
		return 0
	}
	lhv := entries[0].key
	for _, e := range entries[1:] {
		if e.key > lhv {
			lhv = e.key
		}
	}
	t.nodes[idx].lhv = lhv
	return lhv
}

// Search returns the payloads of every entry whose rectangle overlaps the
// box described by lo/hi.
func (t *Tree) Search(lo, hi []int64) []interface{} {
	if t.root == -1 || len(lo) != t.dim || len(hi) != t.dim {
		return nil
	}
	r := newBox(lo, hi)
	var results []interface{}
	stack := []int{t.root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := &t.nodes[idx]
		for _, e := range nd.entries {
			if !overlapsBox(e.rect, r) {
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
