package domain

import "time"

// StopReason explains why the engine left its expansion loop.
// None of the reasons is an error: every run yields a usable (possibly partial) graph.
type StopReason string

const (
	StopExhausted StopReason = "exhausted"  // frontier queue drained
	StopTimeBound StopReason = "time_bound" // wall-clock ceiling reached
	StopSizeBound StopReason = "size_bound" // node ceiling reached
	StopCanceled  StopReason = "canceled"   // parent context canceled
)

// Stats counts the work done by one exploration run.
type Stats struct {
	Expanded        int           `json:"expanded"`
	Transformations int           `json:"transformations"`
	Probes          int           `json:"probes"`
	CachedProbes    int           `json:"cached_probes"`
	Failures        int           `json:"failures"`
	Nodes           int           `json:"nodes"`
	Edges           int           `json:"edges"`
	Elapsed         time.Duration `json:"elapsed"`
}

// RunNode is a node of a persisted run, addressed by its canonical label.
type RunNode struct {
	Label          string         `json:"label"`
	Representation Representation `json:"representation"`
}

// RunEdge is a directed edge of a persisted run.
type RunEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Labels []string `json:"labels"`
}

// RunRecord is the serializable result of one exploration.
type RunRecord struct {
	ID         string     `json:"id"`
	Root       string     `json:"root"`
	Catalogue  []string   `json:"catalogue"`
	StopReason StopReason `json:"stop_reason"`
	Stats      Stats      `json:"stats"`
	Nodes      []RunNode  `json:"nodes"`
	Edges      []RunEdge  `json:"edges"`
	Strong     [][]string `json:"strongly_connected"`
	Weak       [][]string `json:"weakly_connected"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsEmpty reports whether the run admitted no node at all.
func (r *RunRecord) IsEmpty() bool {
	return len(r.Nodes) == 0
}
