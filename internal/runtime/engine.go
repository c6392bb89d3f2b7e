package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/graph"
	"github.com/aretw0/passgraph/pkg/ports"
)

// Engine drives the breadth-first exploration of the states reachable from a root.
// An Engine holds configuration only; every call to Explore owns its own graph,
// frontier and counters, so runs over different roots share no state.
type Engine struct {
	transformer ports.Transformer
	oracle      ports.EquivalenceOracle
	catalogue   []string
	bounds      Bounds
	timeouts    Timeouts
	parallelism int
	cache       ports.VerdictCache
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	now         func() time.Time
}

// Result is the outcome of one exploration run.
type Result struct {
	Root       domain.Representation
	Graph      *graph.Graph
	StopReason domain.StopReason
	Stats      domain.Stats
}

// NewEngine creates a new engine with dependencies.
// The catalogue is copied; its order is the order in which transformations are tried.
func NewEngine(transformer ports.Transformer, oracle ports.EquivalenceOracle, catalogue []string, opts ...EngineOption) *Engine {
	e := &Engine{
		transformer: transformer,
		oracle:      oracle,
		catalogue:   append([]string(nil), catalogue...),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalogue returns a copy of the configured transformation names.
func (e *Engine) Catalogue() []string {
	return append([]string(nil), e.catalogue...)
}

// run holds the mutable state of a single exploration.
type run struct {
	ctx      context.Context // parent; cancellation means the caller gave up
	boundCtx context.Context // parent plus the time ceiling; passed to collaborators
	start    time.Time
	graph    *graph.Graph
	frontier []graph.NodeID
	coord    *Coordinator
	stats    domain.Stats
	logger   *slog.Logger
	root     string
}

// Explore admits root, then expands the frontier until it is empty or a bound trips.
// The returned graph is frozen. Partial graphs are valid results: the only errors are
// graph contract violations, which indicate a bookkeeping bug.
func (e *Engine) Explore(ctx context.Context, root domain.Representation) (*Result, error) {
	r := &run{
		ctx:    ctx,
		start:  e.now(),
		graph:  graph.New(),
		logger: e.logger.With("root", root.Name()),
		root:   root.Name(),
	}

	boundCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.bounds.MaxDuration > 0 {
		boundCtx, cancel = context.WithTimeout(ctx, e.bounds.MaxDuration)
	}
	defer cancel()
	r.boundCtx = boundCtx
	r.coord = newCoordinator(e.oracle, e.cache, e.timeouts.Equivalence, e.parallelism, e.hooks, r.logger, r.root)

	rootID, err := r.graph.AddNode(root, graph.NoParent, "")
	if err != nil {
		return nil, fmt.Errorf("failed to admit root: %w", err)
	}
	e.emitNodeAdmitted(r, rootID, graph.NoParent, "", root)
	r.frontier = append(r.frontier, rootID)

	reason, err := e.expand(r)
	if err != nil {
		r.graph.Freeze()
		return nil, err
	}

	r.graph.Freeze()
	probes, cached, failures := r.coord.Counts()
	r.stats.Probes = probes
	r.stats.CachedProbes = cached
	r.stats.Failures += failures
	r.stats.Nodes = r.graph.NodeCount()
	r.stats.Edges = r.graph.EdgeCount()
	r.stats.Elapsed = e.now().Sub(r.start)

	r.logger.Info("exploration finished",
		"reason", reason,
		"nodes", r.stats.Nodes,
		"edges", r.stats.Edges,
		"expanded", r.stats.Expanded,
		"elapsed", r.stats.Elapsed,
	)
	e.emitStop(r, reason)

	return &Result{
		Root:       root,
		Graph:      r.graph,
		StopReason: reason,
		Stats:      r.stats,
	}, nil
}

// expand is the EXPANDING state. It returns the reason it stopped.
func (e *Engine) expand(r *run) (domain.StopReason, error) {
	for len(r.frontier) > 0 {
		if reason, stop := e.checkBounds(r); stop {
			return reason, nil
		}

		p := r.frontier[0]
		r.frontier = r.frontier[1:]
		parent, ok := r.graph.Node(p)
		if !ok {
			return "", &domain.UnknownNodeError{ID: int(p)}
		}

		r.stats.Expanded++
		e.emitExpand(r, p)

		// A popped node tries its whole catalogue; only time and cancellation cut it short.
		for _, name := range e.catalogue {
			if reason, stop := e.checkDeadline(r); stop {
				return reason, nil
			}
			if err := e.step(r, parent, name); err != nil {
				return "", err
			}
		}
	}
	// A bound that interrupted the last call may have discarded the candidates that
	// would have refilled the frontier.
	if r.boundCtx.Err() != nil {
		if reason, stop := e.checkBounds(r); stop {
			return reason, nil
		}
	}
	return domain.StopExhausted, nil
}

// step applies one transformation to parent and commits the outcome to the graph.
func (e *Engine) step(r *run, parent graph.Node, name string) error {
	r.stats.Transformations++
	candidate, err := e.transform(r, parent.Representation, name)
	if err != nil {
		if r.boundCtx.Err() != nil {
			// Interrupted by a bound or cancellation: not a collaborator fault.
			return nil
		}
		r.stats.Failures++
		r.logger.Warn("transformation failed, skipping candidate",
			"transformation", name,
			"node", parent.ID,
			"err", err,
		)
		e.emitFailure(r, domain.KindTransformation, name, parent.ID, err)
		return nil
	}

	match, found := r.coord.FindEquivalent(r.boundCtx, candidate, r.graph.Nodes())
	if r.boundCtx.Err() != nil {
		// The verdict may be incomplete; never commit a candidate on partial evidence.
		return nil
	}

	if found {
		if err := r.graph.AddOrMergeEdge(parent.ID, match, name); err != nil {
			return fmt.Errorf("failed to merge edge %d->%d: %w", parent.ID, match, err)
		}
		r.logger.Debug("edge merged", "source", parent.ID, "target", match, "transformation", name)
		e.emitEdgeMerged(r, parent.ID, match, name)
		return nil
	}

	id, err := r.graph.AddNode(candidate, parent.ID, name)
	if err != nil {
		return fmt.Errorf("failed to admit candidate from %d: %w", parent.ID, err)
	}
	r.frontier = append(r.frontier, id)
	r.logger.Debug("node admitted", "node", id, "parent", parent.ID, "transformation", name)
	e.emitNodeAdmitted(r, id, parent.ID, name, candidate)
	return nil
}

func (e *Engine) transform(r *run, rep domain.Representation, name string) (domain.Representation, error) {
	ctx := r.boundCtx
	if e.timeouts.Transform > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeouts.Transform)
		defer cancel()
	}
	candidate, err := e.transformer.Transform(ctx, rep, name)
	if err != nil {
		return domain.Representation{}, &domain.CollaboratorError{Kind: domain.KindTransformation, Name: name, Err: err}
	}
	return candidate, nil
}

// checkBounds reports whether the run must stop before popping another node.
// The size bound trips once the node count has reached MaxNodes; the last expanded node
// may still push the count past it.
func (e *Engine) checkBounds(r *run) (domain.StopReason, bool) {
	if reason, stop := e.checkDeadline(r); stop {
		return reason, true
	}
	if e.bounds.MaxNodes > 0 && r.graph.NodeCount() >= e.bounds.MaxNodes {
		return domain.StopSizeBound, true
	}
	return "", false
}

// checkDeadline reports cancellation and the time bound, which may interrupt an expansion.
func (e *Engine) checkDeadline(r *run) (domain.StopReason, bool) {
	if r.ctx.Err() != nil {
		return domain.StopCanceled, true
	}
	if e.bounds.MaxDuration > 0 {
		if r.boundCtx.Err() != nil || e.now().Sub(r.start) > e.bounds.MaxDuration {
			return domain.StopTimeBound, true
		}
	}
	return "", false
}

func (e *Engine) base(r *run, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Root: r.root}
}

func (e *Engine) emitNodeAdmitted(r *run, id, parent graph.NodeID, label string, rep domain.Representation) {
	if e.hooks.OnNodeAdmitted == nil {
		return
	}
	e.hooks.OnNodeAdmitted(r.ctx, &domain.NodeEvent{
		EventBase:      e.base(r, domain.EventNodeAdmitted),
		NodeID:         int(id),
		Parent:         int(parent),
		Label:          label,
		Representation: rep,
	})
}

func (e *Engine) emitEdgeMerged(r *run, src, dst graph.NodeID, label string) {
	if e.hooks.OnEdgeMerged == nil {
		return
	}
	e.hooks.OnEdgeMerged(r.ctx, &domain.EdgeEvent{
		EventBase: e.base(r, domain.EventEdgeMerged),
		Source:    int(src),
		Target:    int(dst),
		Label:     label,
	})
}

func (e *Engine) emitExpand(r *run, id graph.NodeID) {
	if e.hooks.OnExpand == nil {
		return
	}
	e.hooks.OnExpand(r.ctx, &domain.ExpandEvent{
		EventBase: e.base(r, domain.EventExpand),
		NodeID:    int(id),
		Frontier:  len(r.frontier),
	})
}

func (e *Engine) emitFailure(r *run, kind domain.CollaboratorKind, name string, id graph.NodeID, err error) {
	if e.hooks.OnCollaboratorFailure == nil {
		return
	}
	e.hooks.OnCollaboratorFailure(r.ctx, &domain.FailureEvent{
		EventBase: e.base(r, domain.EventCollaboratorFailure),
		Kind:      kind,
		Name:      name,
		NodeID:    int(id),
		Err:       err,
	})
}

func (e *Engine) emitStop(r *run, reason domain.StopReason) {
	if e.hooks.OnStop == nil {
		return
	}
	e.hooks.OnStop(r.ctx, &domain.StopEvent{
		EventBase: e.base(r, domain.EventStop),
		Reason:    reason,
		Stats:     r.stats,
	})
}
