// Package compiler turns abstract task specifications plus a sampled
// dataset snapshot into fully-materialized, deterministic operation
// artifacts for the external runner. All randomness is resolved at compile
// time from a caller-supplied seed; compiling the same spec against the
// same snapshot with the same seed is byte-identical.
package compiler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/rdelaney/graphmark/internal/dataset"
)

// TaskSpec is one abstract task in a workload configuration.
type TaskSpec struct {
	Name       string             `json:"name"`
	Ops        int                `json:"ops"`
	BatchSizes []int              `json:"batch_sizes,omitempty"`
	Direction  string             `json:"direction,omitempty"`
	Ratios     map[string]float64 `json:"ratios,omitempty"`
}

// WorkloadSpec is an ordered list of tasks plus the mode that constrains
// which task names are valid.
type WorkloadSpec struct {
	Name  string     `json:"name"`
	Mode  string     `json:"mode"`
	Tasks []TaskSpec `json:"tasks"`
}

// modeTasks enumerates the task names each mode accepts.
var modeTasks = map[string]map[string]bool{
	"structural": {
		"load_graph":     true,
		"add_vertex":     true,
		"add_edge":       true,
		"remove_vertex":  true,
		"remove_edge":    true,
		"get_nbrs":       true,
		"mixed_workload": true,
	},
	"property": {
		"load_graph":             true,
		"update_vertex_property": true,
		"update_edge_property":   true,
		"get_vertex_by_property": true,
		"get_edge_by_property":   true,
	},
}

// propertyKeys are the synthetic property names used when the dataset
// carried no real property columns. Order matters for determinism.
var propertyKeys = []string{"weight", "age", "flag"}

// taskSeedStride separates per-task RNG streams so that tasks are
// independent given the snapshot: inserting or reordering ops inside one
// task never shifts another task's sampling choices.
const taskSeedStride = 0x9E3779B9

// Compiler materializes workload specs into task artifacts.
type Compiler struct {
	logger *slog.Logger
}

// New creates a compiler. A single compiler instance supports one
// Compile call at a time.
func New(logger *slog.Logger) *Compiler {
	return &Compiler{logger: logger}
}

// Compile validates the spec against its mode, materializes every task,
// and writes one artifact per task into outDir, named to preserve task
// order. On any error the output directory is removed so no partial
// artifacts survive. Returns the artifact file names in task order.
func (c *Compiler) Compile(spec WorkloadSpec, snap *dataset.Snapshot, seed int64, outDir string) ([]string, error) {
	allowed, ok := modeTasks[spec.Mode]
	if !ok {
		return nil, configErrorf("unknown mode %q", spec.Mode)
	}
	for _, task := range spec.Tasks {
		if !allowed[task.Name] {
			return nil, configErrorf("task %q is not valid in mode %q", task.Name, spec.Mode)
		}
	}

	if err := os.RemoveAll(outDir); err != nil {
		return nil, fmt.Errorf("clean output dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	names := make([]string, 0, len(spec.Tasks))
	for idx, task := range spec.Tasks {
		rng := rand.New(rand.NewSource(seed + int64(idx)*taskSeedStride))

		desc, err := c.compileTask(task, snap, rng)
		if err != nil {
			os.RemoveAll(outDir)
			return nil, err
		}
		desc.BatchSizes = task.BatchSizes

		name := fmt.Sprintf("%02d_%s.json", idx, task.Name)
		if err := writeArtifact(filepath.Join(outDir, name), desc); err != nil {
			os.RemoveAll(outDir)
			return nil, err
		}
		names = append(names, name)
	}

	c.logger.Info("workload compiled",
		"workload", spec.Name,
		"mode", spec.Mode,
		"tasks", len(names),
		"dir", outDir,
	)
	return names, nil
}

func (c *Compiler) compileTask(task TaskSpec, snap *dataset.Snapshot, rng *rand.Rand) (*TaskDescriptor, error) {
	switch task.Name {
	case "load_graph":
		return &TaskDescriptor{TaskType: TypeLoadGraph, OpsCount: 0, Parameters: struct{}{}}, nil
	case "add_vertex":
		return c.compileAddVertex(task), nil
	case "add_edge":
		return c.compileAddEdge(task, snap, rng)
	case "remove_vertex":
		return c.compileRemoveVertex(task, snap, rng), nil
	case "remove_edge":
		return c.compileRemoveEdge(task, snap, rng), nil
	case "get_nbrs":
		return c.compileGetNbrs(task, snap, rng)
	case "update_vertex_property":
		return c.compileUpdateVertexProperty(task, snap, rng)
	case "update_edge_property":
		return c.compileUpdateEdgeProperty(task, snap, rng)
	case "get_vertex_by_property":
		return c.compileGetVertexByProperty(task, snap, rng)
	case "get_edge_by_property":
		return c.compileGetEdgeByProperty(task, snap, rng)
	case "mixed_workload":
		return c.compileMixedWorkload(task, snap, rng)
	default:
		// Unreachable: names are validated against the mode before dispatch.
		return nil, configErrorf("unknown task %q", task.Name)
	}
}

func (c *Compiler) compileAddVertex(task TaskSpec) *TaskDescriptor {
	return &TaskDescriptor{
		TaskType:   TypeAddVertex,
		OpsCount:   task.Ops,
		Parameters: AddVertexParams{Count: task.Ops},
	}
}

func (c *Compiler) compileAddEdge(task TaskSpec, snap *dataset.Snapshot, rng *rand.Rand) (*TaskDescriptor, error) {
	if len(snap.Nodes) == 0 {
		return nil, &dataset.DataError{Path: "snapshot", Reason: "no sampled nodes to draw edge endpoints from"}
	}
	pairs := make([]EdgePair, task.Ops)
	for i := range pairs {
		// Both endpoints with replacement: self-loops and duplicates allowed.
		pairs[i] = EdgePair{
			Src: snap.Nodes[rng.Intn(len(snap.Nodes))],
			Dst: snap.Nodes[rng.Intn(len(snap.Nodes))],
		}
	}
	return &TaskDescriptor{
		TaskType:   TypeAddEdge,
		OpsCount:   len(pairs),
		Parameters: AddEdgeParams{Label: defaultEdgeLabel, Pairs: pairs},
	}, nil
}

func (c *Compiler) compileRemoveVertex(task TaskSpec, snap *dataset.Snapshot, rng *rand.Rand) *TaskDescriptor {
	pool := uniqueNodes(snap)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	n := task.Ops
	if n > len(pool) {
		c.logger.Warn("sampling shortfall: clamping ops to unique sampled nodes",
			"task", task.Name, "requested", task.Ops, "available", len(pool))
		n = len(pool)
	}
	return &TaskDescriptor{
		TaskType:   TypeRemoveVertex,
		OpsCount:   n,
		Parameters: RemoveVertexParams{IDs: pool[:n]},
	}
}

func (c *Compiler) compileRemoveEdge(task TaskSpec, snap *dataset.Snapshot, rng *rand.Rand) *TaskDescriptor {
	pool := uniqueEdges(snap)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	n := task.Ops
	if n > len(pool) {
		c.logger.Warn("sampling shortfall: clamping ops to unique sampled edges",
			"task", task.Name, "requested", task.Ops, "available", len(pool))
		n = len(pool)
	}
	pairs := make([]EdgePair, n)
	for i := 0; i < n; i++ {
		pairs[i] = EdgePair{Src: pool[i].Src, Dst: pool[i].Dst}
	}
	return &TaskDescriptor{
		TaskType:   TypeRemoveEdge,
		OpsCount:   n,
		Parameters: RemoveEdgeParams{Label: defaultEdgeLabel, Pairs: pairs},
	}
}

func (c *Compiler) compileGetNbrs(task TaskSpec, snap *dataset.Snapshot, rng *rand.Rand) (*TaskDescriptor, error) {
	if len(snap.Nodes) == 0 {
		return nil, &dataset.DataError{Path: "snapshot", Reason: "no sampled nodes for neighbor reads"}
	}
	dir := task.Direction
	if dir == "" {
		dir = "out"
	}
	ids := make([]int64, task.Ops)
	for i := range ids {
		ids[i] = snap.Nodes[rng.Intn(len(snap.Nodes))]
	}
	return &TaskDescriptor{
		TaskType:   TypeGetNbrs,
		OpsCount:   len(ids),
		Parameters: GetNbrsParams{Direction: dir, IDs: ids},
	}, nil
}

func (c *Compiler) compileUpdateVertexProperty(task TaskSpec, snap *dataset.Snapshot, rng *rand.Rand) (*TaskDescriptor, error) {
	if len(snap.Nodes) == 0 {
		return nil, &dataset.DataError{Path: "snapshot", Reason: "no sampled nodes for property updates"}
	}
	updates := make([]VertexUpdate, task.Ops)
	for i := range updates {
		id := snap.Nodes[rng.Intn(len(snap.Nodes))]
		key, val := vertexProperty(snap, id, rng)
		updates[i] = VertexUpdate{
			VertexID:   id,
			Properties: map[string]any{key: val},
		}
	}
	return &TaskDescriptor{
		TaskType:   TypeUpdateVertexProperty,
		OpsCount:   len(updates),
		Parameters: UpdateVertexPropertyParams{Updates: updates},
	}, nil
}

func (c *Compiler) compileUpdateEdgeProperty(task TaskSpec, snap *dataset.Snapshot, rng *rand.Rand) (*TaskDescriptor, error) {
	if len(snap.Edges) == 0 {
		return nil, &dataset.DataError{Path: "snapshot", Reason: "no sampled edges for property updates"}
	}
	updates := make([]EdgeUpdate, task.Ops)
	for i := range updates {
		e := snap.Edges[rng.Intn(len(snap.Edges))]
		key, val := edgeProperty(snap, e, rng)
		updates[i] = EdgeUpdate{
			Src:        e.Src,
			Dst:        e.Dst,
			Label:      defaultEdgeLabel,
			Properties: map[string]any{key: val},
		}
	}
	return &TaskDescriptor{
		TaskType:   TypeUpdateEdgeProperty,
		OpsCount:   len(updates),
		Parameters: UpdateEdgePropertyParams{Updates: updates},
	}, nil
}

func (c *Compiler) compileGetVertexByProperty(task TaskSpec, snap *dataset.Snapshot, rng *rand.Rand) (*TaskDescriptor, error) {
	if len(snap.Nodes) == 0 {
		return nil, &dataset.DataError{Path: "snapshot", Reason: "no sampled nodes for property queries"}
	}
	queries := make([]PropertyQuery, task.Ops)
	for i := range queries {
		id := snap.Nodes[rng.Intn(len(snap.Nodes))]
		key, val := vertexProperty(snap, id, rng)
		queries[i] = PropertyQuery{PropertyName: key, PropertyValue: val}
	}
	return &TaskDescriptor{
		TaskType:   TypeGetVertexByProperty,
		OpsCount:   len(queries),
		Parameters: GetByPropertyParams{Queries: queries},
	}, nil
}

func (c *Compiler) compileGetEdgeByProperty(task TaskSpec, snap *dataset.Snapshot, rng *rand.Rand) (*TaskDescriptor, error) {
	if len(snap.Edges) == 0 {
		return nil, &dataset.DataError{Path: "snapshot", Reason: "no sampled edges for property queries"}
	}
	queries := make([]PropertyQuery, task.Ops)
	for i := range queries {
		e := snap.Edges[rng.Intn(len(snap.Edges))]
		key, val := edgeProperty(snap, e, rng)
		queries[i] = PropertyQuery{PropertyName: key, PropertyValue: val}
	}
	return &TaskDescriptor{
		TaskType:   TypeGetEdgeByProperty,
		OpsCount:   len(queries),
		Parameters: GetByPropertyParams{Queries: queries},
	}, nil
}

func (c *Compiler) compileMixedWorkload(task TaskSpec, snap *dataset.Snapshot, rng *rand.Rand) (*TaskDescriptor, error) {
	if len(task.Ratios) == 0 {
		return nil, configErrorf("mixed_workload requires non-empty ratios")
	}
	sum := 0.0
	for key, ratio := range task.Ratios {
		switch key {
		case "add_vertex", "add_edge", "remove_vertex", "remove_edge", "get_nbrs":
		default:
			return nil, configErrorf("unknown ratio key %q", key)
		}
		sum += ratio
	}
	if sum < 0.99 || sum > 1.01 {
		return nil, configErrorf("ratios must sum to 1.0, got %.4f", sum)
	}
	if len(snap.Nodes) == 0 {
		return nil, &dataset.DataError{Path: "snapshot", Reason: "no sampled nodes for mixed workload"}
	}

	// Build the op-kind sequence from ratio shares, iterating keys in
	// sorted order so the mix is stable across runs. Flooring each share
	// loses up to len(ratios)-1 ops, so the remainder is handed out by
	// largest fractional part (ties broken by key order) and the sequence
	// carries exactly task.Ops operations.
	keys := make([]string, 0, len(task.Ratios))
	for key := range task.Ratios {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	type share struct {
		key   string
		count int
		frac  float64
	}
	shares := make([]share, 0, len(keys))
	total := 0
	for _, key := range keys {
		exact := float64(task.Ops) * task.Ratios[key]
		count := int(exact)
		shares = append(shares, share{key: key, count: count, frac: exact - float64(count)})
		total += count
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].frac > shares[j].frac })
	for i := 0; i < task.Ops-total && i < len(shares); i++ {
		shares[i].count++
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].key < shares[j].key })

	var kinds []string
	for _, sh := range shares {
		for i := 0; i < sh.count; i++ {
			kinds = append(kinds, sh.key)
		}
	}
	rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })

	// Removal targets draw without replacement from shuffled unique pools.
	nodePool := uniqueNodes(snap)
	rng.Shuffle(len(nodePool), func(i, j int) { nodePool[i], nodePool[j] = nodePool[j], nodePool[i] })
	edgePool := uniqueEdges(snap)
	rng.Shuffle(len(edgePool), func(i, j int) { edgePool[i], edgePool[j] = edgePool[j], edgePool[i] })

	ops := make([]MixedOp, 0, len(kinds))
	for _, kind := range kinds {
		switch kind {
		case "add_vertex":
			ops = append(ops, MixedOp{OpType: TypeAddVertex})
		case "add_edge":
			src := snap.Nodes[rng.Intn(len(snap.Nodes))]
			dst := snap.Nodes[rng.Intn(len(snap.Nodes))]
			ops = append(ops, MixedOp{OpType: TypeAddEdge, Src: &src, Dst: &dst})
		case "remove_vertex":
			if len(nodePool) == 0 {
				c.logger.Warn("sampling shortfall: mixed workload exhausted unique nodes", "task", task.Name)
				continue
			}
			id := nodePool[0]
			nodePool = nodePool[1:]
			ops = append(ops, MixedOp{OpType: TypeRemoveVertex, ID: &id})
		case "remove_edge":
			if len(edgePool) == 0 {
				c.logger.Warn("sampling shortfall: mixed workload exhausted unique edges", "task", task.Name)
				continue
			}
			e := edgePool[0]
			edgePool = edgePool[1:]
			ops = append(ops, MixedOp{OpType: TypeRemoveEdge, Src: &e.Src, Dst: &e.Dst})
		case "get_nbrs":
			id := snap.Nodes[rng.Intn(len(snap.Nodes))]
			ops = append(ops, MixedOp{OpType: TypeGetNbrs, ID: &id})
		}
	}

	return &TaskDescriptor{
		TaskType:   TypeMixedWorkload,
		OpsCount:   len(ops),
		Parameters: MixedWorkloadParams{Operations: ops},
	}, nil
}

// vertexProperty returns the property key/value to use for a vertex: an
// actually-sampled pair when the scan captured one, otherwise a value that
// is a deterministic function of the id, so separately compiled read and
// write tasks agree on content.
func vertexProperty(snap *dataset.Snapshot, id int64, rng *rand.Rand) (string, any) {
	if props, ok := snap.NodeProps[id]; ok && len(props) > 0 {
		keys := sortedKeys(props)
		key := keys[rng.Intn(len(keys))]
		return key, props[key]
	}
	key := propertyKeys[rng.Intn(len(propertyKeys))]
	return key, syntheticValue(id, key)
}

// edgeProperty is vertexProperty for an edge, identified by its canonical
// scalar so update and get tasks referencing the same pair agree.
func edgeProperty(snap *dataset.Snapshot, e dataset.Edge, rng *rand.Rand) (string, any) {
	if props, ok := snap.EdgeProps[e]; ok && len(props) > 0 {
		keys := sortedKeys(props)
		key := keys[rng.Intn(len(keys))]
		return key, props[key]
	}
	key := propertyKeys[rng.Intn(len(propertyKeys))]
	return key, syntheticValue(edgeScalar(e), key)
}

// syntheticValue maps an identifier to the canonical deterministic value
// for the given property key.
func syntheticValue(e int64, key string) any {
	switch key {
	case "weight":
		return float64(e%100) / 100
	case "age":
		return e%90 + 10
	case "flag":
		return e%2 == 0
	default:
		return nil
	}
}

// edgeScalar folds an edge pair into a single identifier for the synthetic
// property mapping.
func edgeScalar(e dataset.Edge) int64 {
	return e.Src*1000003 + e.Dst
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// uniqueNodes returns the snapshot's sampled node ids deduplicated and
// sorted, ready for deterministic shuffling.
func uniqueNodes(snap *dataset.Snapshot) []int64 {
	seen := make(map[int64]bool, len(snap.Nodes))
	out := make([]int64, 0, len(snap.Nodes))
	for _, id := range snap.Nodes {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// uniqueEdges returns the snapshot's sampled edges deduplicated and sorted.
func uniqueEdges(snap *dataset.Snapshot) []dataset.Edge {
	seen := make(map[dataset.Edge]bool, len(snap.Edges))
	out := make([]dataset.Edge, 0, len(snap.Edges))
	for _, e := range snap.Edges {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		return out[i].Dst < out[j].Dst
	})
	return out
}

// writeArtifact marshals the descriptor with stable formatting so repeated
// compiles are byte-identical.
func writeArtifact(path string, desc *TaskDescriptor) error {
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
