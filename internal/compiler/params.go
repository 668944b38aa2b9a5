package compiler

// Artifact task types, matching what the in-container dispatcher parses.
const (
	TypeLoadGraph            = "LOAD_GRAPH"
	TypeAddVertex            = "ADD_VERTEX"
	TypeAddEdge              = "ADD_EDGE"
	TypeRemoveVertex         = "REMOVE_VERTEX"
	TypeRemoveEdge           = "REMOVE_EDGE"
	TypeGetNbrs              = "GET_NBRS"
	TypeUpdateVertexProperty = "UPDATE_VERTEX_PROPERTY"
	TypeUpdateEdgeProperty   = "UPDATE_EDGE_PROPERTY"
	TypeGetVertexByProperty  = "GET_VERTEX_BY_PROPERTY"
	TypeGetEdgeByProperty    = "GET_EDGE_BY_PROPERTY"
	TypeMixedWorkload        = "MIXED_WORKLOAD"
)

// defaultEdgeLabel is the label applied to all compiled edge operations.
const defaultEdgeLabel = "edge"

// TaskDescriptor is one self-contained compiled task, written as a JSON
// artifact for the external runner. Immutable once produced.
type TaskDescriptor struct {
	TaskType   string `json:"task_type"`
	OpsCount   int    `json:"ops_count"`
	Parameters any    `json:"parameters"`
	BatchSizes []int  `json:"batch_sizes,omitempty"`
}

// EdgePair is a (src, dst) endpoint pair in artifact parameters.
type EdgePair struct {
	Src int64 `json:"src"`
	Dst int64 `json:"dst"`
}

// AddVertexParams carries only a count: the runner assigns identity, and
// the dataset is reset to baseline between subtasks, so identical counts
// replay safely.
type AddVertexParams struct {
	Count int `json:"count"`
}

// AddEdgeParams lists endpoint pairs drawn with replacement.
type AddEdgeParams struct {
	Label string     `json:"label"`
	Pairs []EdgePair `json:"pairs"`
}

// RemoveVertexParams lists target ids drawn without replacement.
type RemoveVertexParams struct {
	IDs []int64 `json:"ids"`
}

// RemoveEdgeParams lists target pairs drawn without replacement.
type RemoveEdgeParams struct {
	Label string     `json:"label"`
	Pairs []EdgePair `json:"pairs"`
}

// GetNbrsParams lists source ids (with replacement) and a traversal direction.
type GetNbrsParams struct {
	Direction string  `json:"direction"`
	IDs       []int64 `json:"ids"`
}

// VertexUpdate assigns property values to one vertex.
type VertexUpdate struct {
	VertexID   int64          `json:"vertex_id"`
	Properties map[string]any `json:"properties"`
}

// UpdateVertexPropertyParams lists per-vertex property updates.
type UpdateVertexPropertyParams struct {
	Updates []VertexUpdate `json:"updates"`
}

// EdgeUpdate assigns property values to one edge.
type EdgeUpdate struct {
	Src        int64          `json:"src"`
	Dst        int64          `json:"dst"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// UpdateEdgePropertyParams lists per-edge property updates.
type UpdateEdgePropertyParams struct {
	Updates []EdgeUpdate `json:"updates"`
}

// PropertyQuery looks up entities by one property name/value pair.
type PropertyQuery struct {
	PropertyName  string `json:"property_name"`
	PropertyValue any    `json:"property_value"`
}

// GetByPropertyParams lists property lookups for vertex or edge queries.
type GetByPropertyParams struct {
	Queries []PropertyQuery `json:"queries"`
}

// MixedOp is one operation inside a compiled mixed workload.
type MixedOp struct {
	OpType string `json:"op_type"`
	ID     *int64 `json:"id,omitempty"`
	Src    *int64 `json:"src,omitempty"`
	Dst    *int64 `json:"dst,omitempty"`
}

// MixedWorkloadParams is the shuffled operation mix for a mixed task.
type MixedWorkloadParams struct {
	Operations []MixedOp `json:"operations"`
}
