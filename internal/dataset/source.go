package dataset

import "fmt"

// NodeFunc receives one node record. Props is nil for sources without
// property columns. Returning an error stops the scan.
type NodeFunc func(id int64, props map[string]string) error

// EdgeFunc receives one edge record. Props is nil for sources without
// property columns.
type EdgeFunc func(src, dst int64, props map[string]string) error

// Source is a format-agnostic view of a graph dataset: an id stream, an
// edge stream, and optional properties attached to either. Implementations
// skip malformed records and return a *DataError only when no structurally
// valid record exists at all.
type Source interface {
	// ScanNodes streams every node record once, in file order.
	ScanNodes(fn NodeFunc) error

	// ScanEdges streams every edge record once, in file order.
	ScanEdges(fn EdgeFunc) error
}

// DataError indicates a dataset that cannot be scanned: missing files or
// streams in which the required structural fields are entirely absent.
type DataError struct {
	Path   string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("dataset %s: %s", e.Path, e.Reason)
}
