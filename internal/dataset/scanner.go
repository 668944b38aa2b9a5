package dataset

import (
	"log/slog"
	"math/rand"
)

// DefaultSampleSize bounds each reservoir when no explicit size is given.
const DefaultSampleSize = 100000

// Edge is a directed edge between two node identifiers.
type Edge struct {
	Src int64 `json:"src"`
	Dst int64 `json:"dst"`
}

// Snapshot is the immutable result of one dataset scan: the upper bound of
// the observed identifier space plus bounded uniform samples of nodes and
// edges. Property maps are populated only when the source carried property
// columns, and only for sampled entities. A Snapshot is scoped to one
// compile invocation and must not be mutated after the scan.
type Snapshot struct {
	MaxID     int64
	Nodes     []int64
	Edges     []Edge
	NodeProps map[int64]map[string]string
	EdgeProps map[Edge]map[string]string
}

type sampledNode struct {
	id    int64
	props map[string]string
}

type sampledEdge struct {
	edge  Edge
	props map[string]string
}

// Scanner streams a dataset source once and builds a Snapshot. Sampling
// uses the classic reservoir algorithm: the first k items fill the
// reservoir, after which item i replaces a uniformly chosen slot with
// probability k/(i+1), so every item seen so far has equal inclusion
// probability k/n at any point in the stream.
type Scanner struct {
	sampleSize int
	rng        *rand.Rand
	logger     *slog.Logger
}

// NewScanner creates a scanner with the given reservoir size and seed.
// A sampleSize <= 0 falls back to DefaultSampleSize.
func NewScanner(sampleSize int, seed int64, logger *slog.Logger) *Scanner {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Scanner{
		sampleSize: sampleSize,
		rng:        rand.New(rand.NewSource(seed)),
		logger:     logger,
	}
}

// Scan streams src once and returns the snapshot. The maximum identifier is
// tracked independently of sampling so downstream fresh-id allocation never
// collides with an unsampled id.
func (s *Scanner) Scan(src Source) (*Snapshot, error) {
	var (
		nodes     []sampledNode
		edges     []sampledEdge
		maxID     int64
		nodeSeen  int
		edgeSeen  int
		nodeProps bool
		edgeProps bool
	)

	err := src.ScanNodes(func(id int64, props map[string]string) error {
		if id > maxID {
			maxID = id
		}
		if props != nil {
			nodeProps = true
		}
		item := sampledNode{id: id, props: props}
		if nodeSeen < s.sampleSize {
			nodes = append(nodes, item)
		} else if r := s.rng.Intn(nodeSeen + 1); r < s.sampleSize {
			nodes[r] = item
		}
		nodeSeen++
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = src.ScanEdges(func(srcID, dstID int64, props map[string]string) error {
		if srcID > maxID {
			maxID = srcID
		}
		if dstID > maxID {
			maxID = dstID
		}
		if props != nil {
			edgeProps = true
		}
		item := sampledEdge{edge: Edge{Src: srcID, Dst: dstID}, props: props}
		if edgeSeen < s.sampleSize {
			edges = append(edges, item)
		} else if r := s.rng.Intn(edgeSeen + 1); r < s.sampleSize {
			edges[r] = item
		}
		edgeSeen++
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		MaxID: maxID,
		Nodes: make([]int64, len(nodes)),
		Edges: make([]Edge, len(edges)),
	}
	if nodeProps {
		snap.NodeProps = make(map[int64]map[string]string)
	}
	if edgeProps {
		snap.EdgeProps = make(map[Edge]map[string]string)
	}
	for i, n := range nodes {
		snap.Nodes[i] = n.id
		if n.props != nil {
			snap.NodeProps[n.id] = n.props
		}
	}
	for i, e := range edges {
		snap.Edges[i] = e.edge
		if e.props != nil {
			snap.EdgeProps[e.edge] = e.props
		}
	}

	s.logger.Info("dataset scanned",
		"nodes_seen", nodeSeen,
		"edges_seen", edgeSeen,
		"nodes_sampled", len(snap.Nodes),
		"edges_sampled", len(snap.Edges),
		"max_id", maxID,
	)

	return snap, nil
}
