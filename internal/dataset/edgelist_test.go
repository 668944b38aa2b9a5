package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func collectEdges(t *testing.T, src Source) []Edge {
	t.Helper()
	var edges []Edge
	err := src.ScanEdges(func(s, d int64, _ map[string]string) error {
		edges = append(edges, Edge{Src: s, Dst: d})
		return nil
	})
	if err != nil {
		t.Fatalf("ScanEdges: %v", err)
	}
	return edges
}

func TestEdgeListSkipsCommentsAndJunk(t *testing.T) {
	path := writeFile(t, "graph.txt", `% comment
# another comment

1 2
not numbers
3
3 4 extra tokens ignored
5 6
`)

	edges := collectEdges(t, &EdgeListSource{Path: path})

	want := []Edge{{1, 2}, {3, 4}, {5, 6}}
	if len(edges) != len(want) {
		t.Fatalf("got %d edges %v, want %d", len(edges), edges, len(want))
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("edge %d: got %v, want %v", i, edges[i], want[i])
		}
	}
}

func TestEdgeListSkipsMatrixMarketHeader(t *testing.T) {
	path := writeFile(t, "graph.mtx", `%%MatrixMarket matrix coordinate pattern general
4 4 3
1 2
2 3
3 4
`)

	edges := collectEdges(t, &EdgeListSource{Path: path})

	if len(edges) != 3 {
		t.Fatalf("got %d edges, want 3 (size header must be skipped)", len(edges))
	}
	if edges[0] != (Edge{1, 2}) {
		t.Errorf("first edge: got %v, want {1 2}", edges[0])
	}
}

func TestEdgeListNodesAreEndpoints(t *testing.T) {
	path := writeFile(t, "graph.txt", "10 20\n30 40\n")

	var ids []int64
	src := &EdgeListSource{Path: path}
	err := src.ScanNodes(func(id int64, _ map[string]string) error {
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		t.Fatalf("ScanNodes: %v", err)
	}

	want := []int64{10, 20, 30, 40}
	if len(ids) != len(want) {
		t.Fatalf("got node stream %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("node %d: got %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestEdgeListNoRecordsIsDataError(t *testing.T) {
	path := writeFile(t, "empty.txt", "% nothing here\n\n# still nothing\n")

	src := &EdgeListSource{Path: path}
	err := src.ScanEdges(func(int64, int64, map[string]string) error { return nil })

	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("got %v, want DataError", err)
	}
}

func TestEdgeListMissingFileIsDataError(t *testing.T) {
	src := &EdgeListSource{Path: filepath.Join(t.TempDir(), "missing.txt")}
	err := src.ScanEdges(func(int64, int64, map[string]string) error { return nil })

	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("got %v, want DataError", err)
	}
}
