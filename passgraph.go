package passgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/passgraph/internal/presentation/export"
	"github.com/aretw0/passgraph/internal/runtime"
	"github.com/aretw0/passgraph/pkg/connectivity"
	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/graph"
	"github.com/aretw0/passgraph/pkg/ports"
)

// Explorer is the high-level entry point for the passgraph library.
// It wraps the internal runtime and attaches connectivity analysis to every run.
type Explorer struct {
	runtime     *runtime.Engine
	runtimeOpts []runtime.EngineOption
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	newID       func() string
	now         func() time.Time
}

// Option defines a functional option for configuring the Explorer.
type Option func(*Explorer)

// WithLifecycleHooks registers observability hooks. Calling it more than once chains the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(x *Explorer) {
		x.hooks = x.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the explorer.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Explorer) {
		x.logger = logger
	}
}

// WithBounds sets the node ceiling and the wall-clock ceiling of each run. Zero disables a bound.
func WithBounds(maxNodes int, maxDuration time.Duration) Option {
	return func(x *Explorer) {
		x.runtimeOpts = append(x.runtimeOpts, runtime.WithBounds(runtime.Bounds{MaxNodes: maxNodes, MaxDuration: maxDuration}))
	}
}

// WithTimeouts sets per-call ceilings for transformations and equivalence probes.
func WithTimeouts(transform, equivalence time.Duration) Option {
	return func(x *Explorer) {
		x.runtimeOpts = append(x.runtimeOpts, runtime.WithTimeouts(runtime.Timeouts{Transform: transform, Equivalence: equivalence}))
	}
}

// WithParallelism lets up to n equivalence probes of one candidate run concurrently.
// Results are identical to the sequential search.
func WithParallelism(n int) Option {
	return func(x *Explorer) {
		x.runtimeOpts = append(x.runtimeOpts, runtime.WithParallelism(n))
	}
}

// WithVerdictCache memoizes oracle verdicts across runs.
func WithVerdictCache(cache ports.VerdictCache) Option {
	return func(x *Explorer) {
		x.runtimeOpts = append(x.runtimeOpts, runtime.WithVerdictCache(cache))
	}
}

// WithIDGenerator overrides how run ids are produced (default: random UUIDs).
func WithIDGenerator(next func() string) Option {
	return func(x *Explorer) {
		x.newID = next
	}
}

// New initializes an Explorer over the given collaborators and ordered catalogue.
func New(transformer ports.Transformer, oracle ports.EquivalenceOracle, catalogue []string, opts ...Option) (*Explorer, error) {
	if transformer == nil {
		return nil, errors.New("transformer is required")
	}
	if oracle == nil {
		return nil, errors.New("equivalence oracle is required")
	}
	for i, name := range catalogue {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("catalogue entry %d: %w", i, domain.ErrEmptyLabel)
		}
	}

	x := &Explorer{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.logger == nil {
		x.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	engineOpts := append([]runtime.EngineOption{
		runtime.WithLogger(x.logger),
		runtime.WithLifecycleHooks(x.hooks),
	}, x.runtimeOpts...)
	x.runtime = runtime.NewEngine(transformer, oracle, catalogue, engineOpts...)
	return x, nil
}

// Catalogue returns the transformation names in the order they are tried.
func (x *Explorer) Catalogue() []string {
	return x.runtime.Catalogue()
}

// Run is one finished exploration.
type Run struct {
	ID         string
	Root       domain.Representation
	Graph      *graph.Graph
	StopReason domain.StopReason
	Stats      domain.Stats
	Components connectivity.Report
	Catalogue  []string
	CreatedAt  time.Time
}

// Explore builds the state graph reachable from root and analyzes its connectivity.
// A bound or a canceled context ends the run early; the partial graph is still returned.
func (x *Explorer) Explore(ctx context.Context, root domain.Representation) (*Run, error) {
	result, err := x.runtime.Explore(ctx, root)
	if err != nil {
		return nil, err
	}
	return &Run{
		ID:         x.newID(),
		Root:       result.Root,
		Graph:      result.Graph,
		StopReason: result.StopReason,
		Stats:      result.Stats,
		Components: connectivity.Analyze(result.Graph),
		Catalogue:  x.runtime.Catalogue(),
		CreatedAt:  x.now().UTC(),
	}, nil
}

// IsEmpty reports whether the run holds no node.
func (r *Run) IsEmpty() bool {
	return r.Graph == nil || r.Graph.IsEmpty()
}

// Record snapshots the run with canonical P0, P1, ... labels.
func (r *Run) Record() *domain.RunRecord {
	g := r.Graph
	if g == nil {
		g = graph.New()
	}
	return export.BuildRecord(export.Meta{
		ID:         r.ID,
		Root:       r.Root.Name(),
		Catalogue:  r.Catalogue,
		StopReason: r.StopReason,
		Stats:      r.Stats,
		CreatedAt:  r.CreatedAt,
	}, g, r.Components)
}
