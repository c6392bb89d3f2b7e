// Package observability turns engine lifecycle events into Prometheus metrics and
// structured log lines.
package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/passgraph/pkg/domain"
)

// Metrics holds the exploration collectors.
type Metrics struct {
	NodesAdmitted prometheus.Counter
	EdgesMerged   prometheus.Counter
	Expansions    prometheus.Counter
	Failures      *prometheus.CounterVec
	Probes        *prometheus.CounterVec
	ProbeDuration prometheus.Histogram
	Runs          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		NodesAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "passgraph_nodes_admitted_total",
			Help: "Total number of states admitted as new graph nodes",
		}),
		EdgesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "passgraph_edges_merged_total",
			Help: "Total number of transformations folded into an existing node",
		}),
		Expansions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "passgraph_expansions_total",
			Help: "Total number of nodes popped from the frontier and expanded",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "passgraph_collaborator_failures_total",
			Help: "Collaborator calls that produced no usable output",
		}, []string{"kind"}),
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "passgraph_probes_total",
			Help: "Equivalence probes by outcome",
		}, []string{"equivalent", "cached"}),
		ProbeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "passgraph_probe_duration_seconds",
			Help:    "Duration of equivalence probes",
			Buckets: prometheus.DefBuckets,
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "passgraph_runs_total",
			Help: "Finished explorations by stop reason",
		}, []string{"stop_reason"}),
	}

	for _, c := range []prometheus.Collector{m.NodesAdmitted, m.EdgesMerged, m.Expansions, m.Failures, m.Probes, m.ProbeDuration, m.Runs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeAdmitted: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodesAdmitted.Inc()
		},
		OnEdgeMerged: func(ctx context.Context, e *domain.EdgeEvent) {
			m.EdgesMerged.Inc()
		},
		OnExpand: func(ctx context.Context, e *domain.ExpandEvent) {
			m.Expansions.Inc()
		},
		OnProbe: func(ctx context.Context, e *domain.ProbeEvent) {
			m.Probes.WithLabelValues(boolLabel(e.Equivalent), boolLabel(e.Cached)).Inc()
			if !e.Cached {
				m.ProbeDuration.Observe(e.Duration.Seconds())
			}
		},
		OnCollaboratorFailure: func(ctx context.Context, e *domain.FailureEvent) {
			m.Failures.WithLabelValues(string(e.Kind)).Inc()
		},
		OnStop: func(ctx context.Context, e *domain.StopEvent) {
			m.Runs.WithLabelValues(string(e.Reason)).Inc()
		},
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// LoggingHooks logs every lifecycle event at Debug, and the end of each run at Info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnExpand: func(ctx context.Context, e *domain.ExpandEvent) {
			logger.Debug("expand", "root", e.Root, "node", e.NodeID, "frontier", e.Frontier)
		},
		OnProbe: func(ctx context.Context, e *domain.ProbeEvent) {
			logger.Debug("probe", "root", e.Root, "node", e.NodeID, "equivalent", e.Equivalent, "cached", e.Cached, "duration", e.Duration)
		},
		OnStop: func(ctx context.Context, e *domain.StopEvent) {
			logger.Info("run stopped", "root", e.Root, "reason", e.Reason, "nodes", e.Stats.Nodes, "edges", e.Stats.Edges)
		},
	}
}
