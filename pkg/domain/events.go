package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeAdmitted        EventType = "node_admitted"
	EventEdgeMerged          EventType = "edge_merged"
	EventExpand              EventType = "expand"
	EventCollaboratorFailure EventType = "collaborator_failure"
	EventProbe               EventType = "probe"
	EventStop                EventType = "stop"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Root      string    `json:"root"`
}

// NodeEvent is emitted when a new state is admitted to the graph.
type NodeEvent struct {
	EventBase
	NodeID         int            `json:"node_id"`
	Parent         int            `json:"parent"` // -1 for the root
	Label          string         `json:"label,omitempty"`
	Representation Representation `json:"representation"`
}

// EdgeEvent is emitted when a transition lands on an already known state.
type EdgeEvent struct {
	EventBase
	Source int    `json:"source"`
	Target int    `json:"target"`
	Label  string `json:"label"`
}

// ExpandEvent is emitted when a node is popped from the frontier.
type ExpandEvent struct {
	EventBase
	NodeID   int `json:"node_id"`
	Frontier int `json:"frontier"`
}

// ProbeEvent is emitted after each equivalence probe.
type ProbeEvent struct {
	EventBase
	NodeID     int           `json:"node_id"`
	Equivalent bool          `json:"equivalent"`
	Cached     bool          `json:"cached,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// FailureEvent is emitted when a collaborator did not return usable output.
type FailureEvent struct {
	EventBase
	Kind   CollaboratorKind `json:"kind"`
	Name   string           `json:"name,omitempty"`
	NodeID int              `json:"node_id"`
	Err    error            `json:"-"`
}

// StopEvent is emitted once per run when the engine leaves its expansion loop.
type StopEvent struct {
	EventBase
	Reason StopReason `json:"reason"`
	Stats  Stats      `json:"stats"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks must not block. OnProbe and equivalence failures may fire concurrently when
// probes run in parallel.
type LifecycleHooks struct {
	OnNodeAdmitted        func(context.Context, *NodeEvent)
	OnEdgeMerged          func(context.Context, *EdgeEvent)
	OnExpand              func(context.Context, *ExpandEvent)
	OnProbe               func(context.Context, *ProbeEvent)
	OnCollaboratorFailure func(context.Context, *FailureEvent)
	OnStop                func(context.Context, *StopEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeAdmitted:        chain(h.OnNodeAdmitted, other.OnNodeAdmitted),
		OnEdgeMerged:          chain(h.OnEdgeMerged, other.OnEdgeMerged),
		OnExpand:              chain(h.OnExpand, other.OnExpand),
		OnProbe:               chain(h.OnProbe, other.OnProbe),
		OnCollaboratorFailure: chain(h.OnCollaboratorFailure, other.OnCollaboratorFailure),
		OnStop:                chain(h.OnStop, other.OnStop),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
