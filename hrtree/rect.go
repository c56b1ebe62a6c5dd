package hrtree

// box is the Hilbert variant's rectangle type: integer coordinates, exact
// equality, since the Hilbert curve is only defined over an integer
// lattice (spec.md §9: "Guttman variant uses floating-point coordinates;
// Hilbert variant uses integer coordinates").
type box struct {
	lo, hi []int64
}

func newBox(lo, hi []int64) box {
	l := append([]int64(nil), lo...)
	h := append([]int64(nil), hi...)
	return box{lo: l, hi: h}
}

func unionBox(a, b box) box {
	lo := make([]int64, len(a.lo))
	hi := make([]int64, len(a.hi))
	for i := range lo {
		lo[i] = a.lo[i]
		if b.lo[i] < lo[i] {
			lo[i] = b.lo[i]
		}
		hi[i] = a.hi[i]
		if b.hi[i] > hi[i] {
			hi[i] = b.hi[i]
		}
	}
	return box{lo: lo, hi: hi}
}

func overlapsBox(a, b box) bool {
	for i := range a.lo {
		if a.hi[i] < b.lo[i] || a.lo[i] > b.hi[i] {
			return false
		}
	}
	return true
}

func equalsBox(a, b box) bool {
	for i := range a.lo {
		if a.lo[i] != b.lo[i] || a.hi[i] != b.hi[i] {
			return false
		}
	}
	return true
}

// containsBox reports whether b lies entirely within a, inclusive of a's
// boundary. Used for exact-match descent: an internal entry's rect is
// always the MBR of its subtree, so any rectangle stored beneath it must
// be contained by it, which prunes more aggressively than overlap alone.
func containsBox(a, b box) bool {
	for i := range a.lo {
		if a.lo[i] > b.lo[i] || b.hi[i] > a.hi[i] {
			return false
		}
	}
	return true
}

func centroidOf(b box) []int64 {
	c := make([]int64, len(b.lo))
	for i := range c {
		c[i] = (b.lo[i] + b.hi[i]) / 2
	}
	return c
}
