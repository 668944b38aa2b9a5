package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCSVPair(t *testing.T, nodes, edges string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "nodes.csv"), []byte(nodes), 0o644); err != nil {
		t.Fatalf("write nodes.csv: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "edges.csv"), []byte(edges), 0o644); err != nil {
		t.Fatalf("write edges.csv: %v", err)
	}
	return dir
}

func TestCSVPairNodeProperties(t *testing.T) {
	dir := writeCSVPair(t,
		"id,name,age\n1,alice,30\n2,bob,\n3,carol,25\n",
		"src,dst,weight\n1,2,0.5\n2,3,0.7\n")

	src := &CSVPairSource{Dir: dir}
	props := make(map[int64]map[string]string)
	err := src.ScanNodes(func(id int64, p map[string]string) error {
		props[id] = p
		return nil
	})
	if err != nil {
		t.Fatalf("ScanNodes: %v", err)
	}

	if len(props) != 3 {
		t.Fatalf("got %d nodes, want 3", len(props))
	}
	if got := props[1]["name"]; got != "alice" {
		t.Errorf("node 1 name: got %q, want alice", got)
	}
	if _, ok := props[2]["age"]; ok {
		t.Errorf("node 2 has empty age cell, should be omitted")
	}
	if got := props[3]["age"]; got != "25" {
		t.Errorf("node 3 age: got %q, want 25", got)
	}
}

func TestCSVPairEdgeProperties(t *testing.T) {
	dir := writeCSVPair(t,
		"id\n1\n2\n",
		"src,dst,weight,since\n1,2,0.5,2019\n2,1,,2020\n")

	src := &CSVPairSource{Dir: dir}
	type rec struct {
		e Edge
		p map[string]string
	}
	var recs []rec
	err := src.ScanEdges(func(s, d int64, p map[string]string) error {
		recs = append(recs, rec{Edge{s, d}, p})
		return nil
	})
	if err != nil {
		t.Fatalf("ScanEdges: %v", err)
	}

	if len(recs) != 2 {
		t.Fatalf("got %d edges, want 2", len(recs))
	}
	if got := recs[0].p["weight"]; got != "0.5" {
		t.Errorf("edge 0 weight: got %q, want 0.5", got)
	}
	if _, ok := recs[1].p["weight"]; ok {
		t.Errorf("edge 1 has empty weight cell, should be omitted")
	}
	if got := recs[1].p["since"]; got != "2020" {
		t.Errorf("edge 1 since: got %q, want 2020", got)
	}
}

func TestCSVPairSkipsMalformedRows(t *testing.T) {
	dir := writeCSVPair(t,
		"id,name\nnot-a-number,oops\n7,ok\n",
		"src,dst\n1,bad\n1,2\n")

	src := &CSVPairSource{Dir: dir}
	var ids []int64
	err := src.ScanNodes(func(id int64, _ map[string]string) error {
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		t.Fatalf("ScanNodes: %v", err)
	}
	if len(ids) != 1 || ids[0] != 7 {
		t.Errorf("got node ids %v, want [7]", ids)
	}

	var edges []Edge
	err = src.ScanEdges(func(s, d int64, _ map[string]string) error {
		edges = append(edges, Edge{s, d})
		return nil
	})
	if err != nil {
		t.Fatalf("ScanEdges: %v", err)
	}
	if len(edges) != 1 || edges[0] != (Edge{1, 2}) {
		t.Errorf("got edges %v, want [{1 2}]", edges)
	}
}

func TestCSVPairAllMalformedIsDataError(t *testing.T) {
	dir := writeCSVPair(t,
		"id\nx\ny\n",
		"src,dst\n1,2\n")

	src := &CSVPairSource{Dir: dir}
	err := src.ScanNodes(func(int64, map[string]string) error { return nil })

	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("got %v, want DataError", err)
	}
}

func TestCSVPairMissingFileIsDataError(t *testing.T) {
	src := &CSVPairSource{Dir: t.TempDir()}
	err := src.ScanNodes(func(int64, map[string]string) error { return nil })

	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("got %v, want DataError", err)
	}
}
