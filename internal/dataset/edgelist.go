package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EdgeListSource reads a single whitespace-separated edge-list file, the
// format used by MatrixMarket exports and plain "src dst" dumps. Lines
// starting with '%' or '#' are comments. A first non-comment line with
// three fields is treated as the MatrixMarket size header and skipped.
//
// The node stream is derived from edge endpoints, so node ids may repeat;
// consumers that need uniqueness deduplicate themselves.
type EdgeListSource struct {
	Path string
}

// ScanNodes streams both endpoints of every edge as node records.
func (s *EdgeListSource) ScanNodes(fn NodeFunc) error {
	return s.scan(func(src, dst int64) error {
		if err := fn(src, nil); err != nil {
			return err
		}
		return fn(dst, nil)
	})
}

// ScanEdges streams every edge record.
func (s *EdgeListSource) ScanEdges(fn EdgeFunc) error {
	return s.scan(func(src, dst int64) error {
		return fn(src, dst, nil)
	})
}

func (s *EdgeListSource) scan(fn func(src, dst int64) error) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return &DataError{Path: s.Path, Reason: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	valid := 0
	sawHeader := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		// MatrixMarket dimension line: "rows cols nnz" before any edge.
		if !sawHeader && valid == 0 && len(fields) == 3 {
			sawHeader = true
			continue
		}
		if len(fields) < 2 {
			continue
		}
		src, err1 := strconv.ParseInt(fields[0], 10, 64)
		dst, err2 := strconv.ParseInt(fields[1], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		valid++
		if err := fn(src, dst); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return &DataError{Path: s.Path, Reason: fmt.Sprintf("read: %v", err)}
	}
	if valid == 0 {
		return &DataError{Path: s.Path, Reason: "no parsable edge records"}
	}
	return nil
}
