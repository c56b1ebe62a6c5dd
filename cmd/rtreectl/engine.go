package main

import (
	"fmt"

	"github.com/lilhast1/rtree/geom"
	"github.com/lilhast1/rtree/hrtree"
	"github.com/lilhast1/rtree/rtree"
)

// engine is the thin seam rtreectl uses to drive either balancer variant
// through the same REPL loop: the two core packages have different Insert
// signatures (float geom.Rect vs. integer lo/hi slices) because their
// coordinate domains differ, so the CLI normalizes both to lat/lon pairs
// here rather than leaking that difference into the command dispatch.
type engine interface {
	insert(id string, lat, lon float64) error
	remove(lat, lon float64)
	search(lat1, lon1, lat2, lon2 float64) []interface{}
}

// guttmanEngine drives an rtree.Tree directly in lat/lon float space.
type guttmanEngine struct {
	tree *rtree.Tree
}

func newGuttmanEngine(m, M int) (*guttmanEngine, error) {
	t, err := rtree.New(m, M)
	if err != nil {
		return nil, err
	}
	return &guttmanEngine{tree: t}, nil
}

func (e *guttmanEngine) insert(id string, lat, lon float64) error {
	r := geom.NewRect([]float64{lat, lon}, []float64{lat, lon})
	return e.tree.Insert(r, id)
}

func (e *guttmanEngine) remove(lat, lon float64) {
	r := geom.NewRect([]float64{lat, lon}, []float64{lat, lon})
	e.tree.Remove(r)
}

func (e *guttmanEngine) search(lat1, lon1, lat2, lon2 float64) []interface{} {
	r := geom.NewRect([]float64{lat1, lon1}, []float64{lat2, lon2})
	return e.tree.Search(r)
}

// hilbertEngine drives an hrtree.Tree, scaling lat/lon degrees to
// non-negative integers by the x100 factor spec.md §6 describes ("scales
// them to integers by x100 when feeding the Hilbert variant"). coordShift
// shifts longitude/latitude into the curve's non-negative ordinate range
// (spec.md §6: "coordinates must be non-negative").
type hilbertEngine struct {
	tree       *hrtree.Tree
	scale      float64
	coordShift int64
}

func newHilbertEngine(m, M, dim, bits int) (*hilbertEngine, error) {
	t, err := hrtree.New(m, M, dim, bits)
	if err != nil {
		return nil, err
	}
	return &hilbertEngine{tree: t, scale: 100, coordShift: 18000}, nil
}

func (e *hilbertEngine) scaleCoord(v float64) int64 {
	return int64(v*e.scale) + e.coordShift
}

func (e *hilbertEngine) insert(id string, lat, lon float64) error {
	lo := []int64{e.scaleCoord(lat), e.scaleCoord(lon)}
	return e.tree.Insert(lo, lo, id)
}

func (e *hilbertEngine) remove(lat, lon float64) {
	lo := []int64{e.scaleCoord(lat), e.scaleCoord(lon)}
	e.tree.Remove(lo, lo)
}

func (e *hilbertEngine) search(lat1, lon1, lat2, lon2 float64) []interface{} {
	lo := []int64{e.scaleCoord(lat1), e.scaleCoord(lon1)}
	hi := []int64{e.scaleCoord(lat2), e.scaleCoord(lon2)}
	if lo[0] > hi[0] {
		lo[0], hi[0] = hi[0], lo[0]
	}
	if lo[1] > hi[1] {
		lo[1], hi[1] = hi[1], lo[1]
	}
	return e.tree.Search(lo, hi)
}

func formatResults(results []interface{}) string {
	if len(results) == 0 {
		return "(no matches)"
	}
	s := fmt.Sprintf("%d match(es):", len(results))
	for _, r := range results {
		s += fmt.Sprintf(" %v", r)
	}
	return s
}
