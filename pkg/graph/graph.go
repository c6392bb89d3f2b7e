package graph

import (
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/passgraph/pkg/domain"
)

// NodeID identifies a node by its creation index. The root is always 0.
type NodeID int

// NoParent marks a node inserted without an incoming edge.
const NoParent NodeID = -1

// Node is an admitted representation. It is immutable once created.
type Node struct {
	ID             NodeID
	Representation domain.Representation
}

// Edge is a directed transition carrying the names of every transformation that
// independently produces Target from Source, in order of first appearance.
type Edge struct {
	Source NodeID
	Target NodeID
	Labels []string
}

// Label joins the transformation names the way the GML export expects them.
func (e Edge) Label() string {
	return strings.Join(e.Labels, ",")
}

// IsSelfLoop reports whether the edge starts and ends at the same node.
func (e Edge) IsSelfLoop() bool {
	return e.Source == e.Target
}

type edgeKey struct {
	src, dst NodeID
}

// Graph owns the node and edge sets of one exploration run.
// All mutations are serialized under a single lock.
type Graph struct {
	mu     sync.RWMutex
	nodes  []Node
	edges  []Edge
	index  map[edgeKey]int
	out    map[NodeID][]int
	frozen bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[edgeKey]int),
		out:   make(map[NodeID][]int),
	}
}

// AddNode inserts a new node for rep. When parent is not NoParent, the
// (parent, new) edge is created or extended with label.
func (g *Graph) AddNode(rep domain.Representation, parent NodeID, label string) (NodeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen {
		return NoParent, domain.ErrGraphFrozen
	}
	if parent != NoParent {
		if !g.has(parent) {
			return NoParent, &domain.InvalidParentError{ID: int(parent)}
		}
		if label == "" {
			return NoParent, domain.ErrEmptyLabel
		}
	}

	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Representation: rep})

	if parent != NoParent {
		g.mergeEdge(parent, id, label)
	}
	return id, nil
}

// AddOrMergeEdge appends label to the (src, dst) edge, creating it if needed.
// A label already present on the edge is not added twice.
func (g *Graph) AddOrMergeEdge(src, dst NodeID, label string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen {
		return domain.ErrGraphFrozen
	}
	if !g.has(src) {
		return &domain.UnknownNodeError{ID: int(src)}
	}
	if !g.has(dst) {
		return &domain.UnknownNodeError{ID: int(dst)}
	}
	if label == "" {
		return domain.ErrEmptyLabel
	}

	g.mergeEdge(src, dst, label)
	return nil
}

// mergeEdge requires g.mu to be held.
func (g *Graph) mergeEdge(src, dst NodeID, label string) {
	key := edgeKey{src, dst}
	if i, ok := g.index[key]; ok {
		if !slices.Contains(g.edges[i].Labels, label) {
			g.edges[i].Labels = append(g.edges[i].Labels, label)
		}
		return
	}
	g.index[key] = len(g.edges)
	g.out[src] = append(g.out[src], len(g.edges))
	g.edges = append(g.edges, Edge{Source: src, Target: dst, Labels: []string{label}})
}

func (g *Graph) has(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.has(id)
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.has(id) {
		return Node{}, false
	}
	return g.nodes[id], true
}

// Edge returns a copy of the (src, dst) edge.
func (g *Graph) Edge(src, dst NodeID) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i, ok := g.index[edgeKey{src, dst}]
	if !ok {
		return Edge{}, false
	}
	return copyEdge(g.edges[i]), true
}

// Nodes returns the nodes in creation order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.nodes)
}

// Edges returns the edges in creation order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		out[i] = copyEdge(e)
	}
	return out
}

// Successors returns the targets of the edges leaving id, in edge creation order.
func (g *Graph) Successors(id NodeID) []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx := g.out[id]
	out := make([]NodeID, len(idx))
	for i, e := range idx {
		out[i] = g.edges[e].Target
	}
	return out
}

// NodeCount returns the number of admitted nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of distinct (source, target) edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// IsEmpty reports whether no node was ever admitted.
func (g *Graph) IsEmpty() bool {
	return g.NodeCount() == 0
}

// Freeze makes the graph read-only. It is idempotent.
func (g *Graph) Freeze() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frozen = true
}

// Frozen reports whether Freeze was called.
func (g *Graph) Frozen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen
}

func copyEdge(e Edge) Edge {
	e.Labels = slices.Clone(e.Labels)
	return e
}
