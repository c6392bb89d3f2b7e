// Package export turns a finished exploration into presentation artifacts.
//
// Nodes are relabeled P0, P1, ... in creation order. Relabeling is isomorphic: it never
// changes topology. Every writer is read-only with respect to the graph and no-ops on an
// empty record.
package export

import (
	"fmt"
	"time"

	"github.com/aretw0/passgraph/pkg/connectivity"
	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/graph"
)

// Source is the read-only graph view the exporters need.
type Source interface {
	Nodes() []graph.Node
	Edges() []graph.Edge
}

// CanonicalID returns the presentation label of a node.
func CanonicalID(id graph.NodeID) string {
	return fmt.Sprintf("P%d", id)
}

// Relabel maps every node to its canonical label, in creation order.
func Relabel(g Source) map[graph.NodeID]string {
	nodes := g.Nodes()
	labels := make(map[graph.NodeID]string, len(nodes))
	for _, n := range nodes {
		labels[n.ID] = CanonicalID(n.ID)
	}
	return labels
}

// Meta carries the run-level fields of a record.
type Meta struct {
	ID         string
	Root       string
	Catalogue  []string
	StopReason domain.StopReason
	Stats      domain.Stats
	CreatedAt  time.Time
}

// BuildRecord snapshots a graph and its component report under canonical labels.
func BuildRecord(meta Meta, g Source, report connectivity.Report) *domain.RunRecord {
	labels := Relabel(g)

	rec := &domain.RunRecord{
		ID:         meta.ID,
		Root:       meta.Root,
		Catalogue:  append([]string(nil), meta.Catalogue...),
		StopReason: meta.StopReason,
		Stats:      meta.Stats,
		Nodes:      []domain.RunNode{},
		Edges:      []domain.RunEdge{},
		Strong:     relabelGroups(labels, report.Strong),
		Weak:       relabelGroups(labels, report.Weak),
		CreatedAt:  meta.CreatedAt,
	}
	for _, n := range g.Nodes() {
		rec.Nodes = append(rec.Nodes, domain.RunNode{Label: labels[n.ID], Representation: n.Representation})
	}
	for _, e := range g.Edges() {
		rec.Edges = append(rec.Edges, domain.RunEdge{
			Source: labels[e.Source],
			Target: labels[e.Target],
			Labels: append([]string(nil), e.Labels...),
		})
	}
	return rec
}

func relabelGroups(labels map[graph.NodeID]string, components []connectivity.Component) [][]string {
	out := make([][]string, 0, len(components))
	for _, c := range components {
		group := make([]string, len(c))
		for i, id := range c {
			group[i] = labels[id]
		}
		out = append(out, group)
	}
	return out
}
