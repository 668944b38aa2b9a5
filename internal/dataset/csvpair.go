package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// CSVPairSource reads the paired tabular format: nodes.csv (node_id plus
// property columns) and edges.csv (src, dst plus property columns) in one
// directory. Property maps are keyed by header name; empty cells are
// omitted. Rows whose id columns fail to parse are skipped.
type CSVPairSource struct {
	Dir string
}

// ScanNodes streams every row of nodes.csv.
func (s *CSVPairSource) ScanNodes(fn NodeFunc) error {
	path := filepath.Join(s.Dir, "nodes.csv")
	return scanCSV(path, 1, func(ids []int64, props map[string]string) error {
		return fn(ids[0], props)
	})
}

// ScanEdges streams every row of edges.csv.
func (s *CSVPairSource) ScanEdges(fn EdgeFunc) error {
	path := filepath.Join(s.Dir, "edges.csv")
	return scanCSV(path, 2, func(ids []int64, props map[string]string) error {
		return fn(ids[0], ids[1], props)
	})
}

// scanCSV reads a CSV file whose first idCols columns are integer ids and
// whose remaining columns are properties named by the header row.
func scanCSV(path string, idCols int, fn func(ids []int64, props map[string]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return &DataError{Path: path, Reason: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return &DataError{Path: path, Reason: "missing header row"}
	}
	if len(header) < idCols {
		return &DataError{Path: path, Reason: fmt.Sprintf("header has %d columns, need at least %d id columns", len(header), idCols)}
	}

	valid := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Malformed row: skip, not fatal.
			continue
		}
		if len(row) < idCols {
			continue
		}

		ids := make([]int64, idCols)
		ok := true
		for i := 0; i < idCols; i++ {
			ids[i], err = strconv.ParseInt(row[i], 10, 64)
			if err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		var props map[string]string
		for i := idCols; i < len(row) && i < len(header); i++ {
			if row[i] == "" {
				continue
			}
			if props == nil {
				props = make(map[string]string)
			}
			props[header[i]] = row[i]
		}

		valid++
		if err := fn(ids, props); err != nil {
			return err
		}
	}
	if valid == 0 {
		return &DataError{Path: path, Reason: "no parsable records"}
	}
	return nil
}
