package dataset

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sliceSource serves an in-memory node and edge stream.
type sliceSource struct {
	nodes []int64
	edges []Edge
}

func (s *sliceSource) ScanNodes(fn NodeFunc) error {
	for _, id := range s.nodes {
		if err := fn(id, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *sliceSource) ScanEdges(fn EdgeFunc) error {
	for _, e := range s.edges {
		if err := fn(e.Src, e.Dst, nil); err != nil {
			return err
		}
	}
	return nil
}

func TestScanKeepsEverythingUnderSampleSize(t *testing.T) {
	src := &sliceSource{
		nodes: []int64{1, 2, 3, 4, 5},
		edges: []Edge{{1, 2}, {2, 3}, {3, 4}},
	}

	snap, err := NewScanner(100, 42, testLogger()).Scan(src)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(snap.Nodes) != 5 {
		t.Errorf("got %d sampled nodes, want 5", len(snap.Nodes))
	}
	if len(snap.Edges) != 3 {
		t.Errorf("got %d sampled edges, want 3", len(snap.Edges))
	}
	if snap.MaxID != 5 {
		t.Errorf("got max id %d, want 5", snap.MaxID)
	}
}

func TestScanReservoirIsBounded(t *testing.T) {
	src := &sliceSource{}
	for i := int64(0); i < 5000; i++ {
		src.nodes = append(src.nodes, i)
		src.edges = append(src.edges, Edge{Src: i, Dst: i + 1})
	}

	snap, err := NewScanner(100, 1, testLogger()).Scan(src)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(snap.Nodes) != 100 {
		t.Errorf("got %d sampled nodes, want 100", len(snap.Nodes))
	}
	if len(snap.Edges) != 100 {
		t.Errorf("got %d sampled edges, want 100", len(snap.Edges))
	}
	if snap.MaxID != 5000 {
		t.Errorf("got max id %d, want 5000", snap.MaxID)
	}
}

// Every item should land in the reservoir with probability k/n regardless of
// stream position. Count inclusion of the first and last item across many
// seeds and check both stay near the expected rate.
func TestScanReservoirUniformInclusion(t *testing.T) {
	const (
		n      = 1000
		k      = 100
		trials = 300
	)

	src := &sliceSource{}
	for i := int64(0); i < n; i++ {
		src.nodes = append(src.nodes, i)
	}
	src.edges = []Edge{{0, 1}}

	firstHits, lastHits := 0, 0
	for seed := int64(0); seed < trials; seed++ {
		snap, err := NewScanner(k, seed, testLogger()).Scan(src)
		if err != nil {
			t.Fatalf("Scan(seed=%d): %v", seed, err)
		}
		for _, id := range snap.Nodes {
			if id == 0 {
				firstHits++
			}
			if id == n-1 {
				lastHits++
			}
		}
	}

	// Expected trials*k/n = 30 hits each; allow a generous band.
	for name, hits := range map[string]int{"first": firstHits, "last": lastHits} {
		if hits < 10 || hits > 60 {
			t.Errorf("%s item included %d/%d times, want roughly 30", name, hits, trials)
		}
	}
}

func TestScanMaxIDTrackedBeyondSample(t *testing.T) {
	src := &sliceSource{
		nodes: []int64{1, 2, 3},
		edges: []Edge{{1, 999999}},
	}

	snap, err := NewScanner(2, 7, testLogger()).Scan(src)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if snap.MaxID != 999999 {
		t.Errorf("got max id %d, want 999999", snap.MaxID)
	}
}

func TestScanSameSeedSameSample(t *testing.T) {
	src := &sliceSource{}
	for i := int64(0); i < 2000; i++ {
		src.nodes = append(src.nodes, i)
		src.edges = append(src.edges, Edge{Src: i, Dst: i + 1})
	}

	a, err := NewScanner(50, 99, testLogger()).Scan(src)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	b, err := NewScanner(50, 99, testLogger()).Scan(src)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(a.Nodes) != len(b.Nodes) {
		t.Fatalf("sample sizes differ: %d vs %d", len(a.Nodes), len(b.Nodes))
	}
	for i := range a.Nodes {
		if a.Nodes[i] != b.Nodes[i] {
			t.Fatalf("node sample diverges at %d: %d vs %d", i, a.Nodes[i], b.Nodes[i])
		}
	}
}
