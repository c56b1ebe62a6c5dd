package hrtree

import "testing"

// TestCondenseClustersHalfRemoved is the S5 condense scenario: insert many
// tightly-packed clusters of rectangles, delete every
// rectangle in half of the clusters, and confirm a full-universe search
// returns exactly the surviving count with invariants intact. Coordinates
// are scaled by 100, as spec.md's harness convention requires for the
// integer-only Hilbert variant.
func TestCondenseClustersHalfRemoved(t *testing.T) {
	tr, err := New(4, 8, 2, 20)
	if err != nil {
		t.Fatal(err)
	}

	const clusters = 100
	const perCluster = 20
	type rectRef struct {
		lo, hi  []int64
		cluster int
	}
	var all []rectRef

	for c := 0; c < clusters; c++ {
		cx := int64(c%10) * 10000
		cy := int64(c/10) * 10000
		for i := 0; i < perCluster; i++ {
			x := cx + int64(i)*100
			y := cy + int64(i)*100
			lo := []int64{x, y}
			hi := []int64{x + 50, y + 50}
			if err := tr.Insert(lo, hi, c*perCluster+i); err != nil {
				t.Fatal(err)
			}
			all = append(all, rectRef{lo, hi, c})
		}
	}
	if tr.Len() != clusters*perCluster {
		t.Fatalf("Len() = %d, want %d", tr.Len(), clusters*perCluster)
	}

	// Remove every rectangle belonging to the first half of the clusters.
	removedClusters := clusters / 2
	for _, r := range all {
		if r.cluster < removedClusters {
			tr.Remove(r.lo, r.hi)
		}
	}

	if err := tr.CheckInvariants(); err != nil {
		t.Fatalf("invariants after condense: %v", err)
	}

	want := (clusters - removedClusters) * perCluster
	if tr.Len() != want {
		t.Fatalf("Len() after condense = %d, want %d", tr.Len(), want)
	}

	qlo, qhi := []int64{0, 0}, []int64{1000000, 1000000}
	got := tr.Search(qlo, qhi)
	if len(got) != want {
		t.Fatalf("Search over full universe = %d results, want %d", len(got), want)
	}

	seen := allPayloads(t, tr)
	if len(seen) != want {
		t.Fatalf("reached %d distinct payloads, want %d", len(seen), want)
	}
}
