package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/passgraph/internal/runtime"
	"github.com/aretw0/passgraph/pkg/adapters/memory"
	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func root(path string) domain.Representation {
	return domain.Representation{Path: path}
}

func paths(g *graph.Graph) []string {
	var out []string
	for _, n := range g.Nodes() {
		out = append(out, n.Representation.Path)
	}
	return out
}

// modularSystem scripts a state space of n classes where transformation name maps
// class k to class next(k, name). Every produced file has a distinct path; files of the
// same class are declared equivalent.
func modularSystem(n int, names []string, next func(k int, name string) int) (*memory.ScriptedTransformer, *memory.ScriptedOracle) {
	tr := memory.NewScriptedTransformer()
	oracle := memory.NewScriptedOracle()

	variant := func(target, src int, name string) string {
		return fmt.Sprintf("s%d/from%d/%s", target, src, name)
	}
	members := make([][]string, n)
	for k := 0; k < n; k++ {
		members[k] = append(members[k], fmt.Sprintf("s%d", k))
	}
	for src := 0; src < n; src++ {
		for _, name := range names {
			target := next(src, name)
			members[target] = append(members[target], variant(target, src, name))
		}
	}
	for k := 0; k < n; k++ {
		for _, from := range members[k] {
			for _, name := range names {
				tr.On(from, name, variant(next(k, name), k, name))
			}
		}
		oracle.Equate(members[k]...)
	}
	return tr, oracle
}

func TestEngine_EndToEndScenario(t *testing.T) {
	// t1(R0) is novel, t2(R0) is equivalent to t1(R0).
	tr := memory.NewScriptedTransformer().
		On("R0", "t1", "N1").
		On("R0", "t2", "N1b")
	oracle := memory.NewScriptedOracle().Equate("N1", "N1b")

	engine := runtime.NewEngine(tr, oracle, []string{"t1", "t2"})
	res, err := engine.Explore(context.Background(), root("R0"))
	require.NoError(t, err)

	g := res.Graph
	assert.True(t, g.Frozen())
	assert.Equal(t, []string{"R0", "N1"}, paths(g))
	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, graph.NodeID(0), edges[0].Source)
	assert.Equal(t, graph.NodeID(1), edges[0].Target)
	assert.Equal(t, "t1,t2", edges[0].Label())

	assert.Equal(t, domain.StopExhausted, res.StopReason)
	assert.Equal(t, 2, res.Stats.Expanded)
	// N1 has no rules: both of its transformations fail and are skipped.
	assert.Equal(t, 2, res.Stats.Failures)
	assert.Equal(t, 2, res.Stats.Nodes)
	assert.Equal(t, 1, res.Stats.Edges)
}

func TestEngine_DedupInvariant(t *testing.T) {
	// R0 -t1-> A, R0 -t2-> B, A -t1-> B' (B' ≡ B), B -t1-> A' (A' ≡ A)
	tr := memory.NewScriptedTransformer().
		On("R0", "t1", "A").
		On("R0", "t2", "B").
		On("A", "t1", "B'").
		On("B", "t1", "A'").
		On("A", "t2", "R0'").
		On("B", "t2", "B''")
	oracle := memory.NewScriptedOracle().
		Equate("B", "B'", "B''").
		Equate("A", "A'").
		Equate("R0", "R0'")

	res, err := runtime.NewEngine(tr, oracle, []string{"t1", "t2"}).Explore(context.Background(), root("R0"))
	require.NoError(t, err)

	nodes := res.Graph.Nodes()
	for i := range nodes {
		for j := range nodes {
			if i == j {
				continue
			}
			report, err := oracle.Compare(context.Background(), nodes[i].Representation, nodes[j].Representation)
			require.NoError(t, err)
			assert.False(t, report.Equivalent(), "nodes %d and %d are equivalent", i, j)
		}
	}
	assert.Equal(t, []string{"R0", "A", "B"}, paths(res.Graph))

	back, ok := res.Graph.Edge(1, 0)
	require.True(t, ok, "A -t2-> R0 closes a cycle")
	assert.Equal(t, []string{"t2"}, back.Labels)

	loop, ok := res.Graph.Edge(2, 2)
	require.True(t, ok)
	assert.Equal(t, []string{"t2"}, loop.Labels)
}

func TestEngine_EdgeMergeInvariant(t *testing.T) {
	tr := memory.NewScriptedTransformer().
		On("R0", "a", "X1").
		On("R0", "b", "X2").
		On("R0", "c", "X3")
	oracle := memory.NewScriptedOracle().Equate("X1", "X2", "X3")

	res, err := runtime.NewEngine(tr, oracle, []string{"a", "b", "c"}).Explore(context.Background(), root("R0"))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Graph.EdgeCount(), "no parallel edges")
	e, ok := res.Graph.Edge(0, 1)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, e.Labels)
}

func TestEngine_SelfLoop(t *testing.T) {
	tr := memory.NewScriptedTransformer().On("R0", "verify", "R0-verified")
	oracle := memory.NewScriptedOracle().Equate("R0", "R0-verified")

	res, err := runtime.NewEngine(tr, oracle, []string{"verify"}).Explore(context.Background(), root("R0"))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Graph.NodeCount())
	e, ok := res.Graph.Edge(0, 0)
	require.True(t, ok)
	assert.True(t, e.IsSelfLoop())
	assert.Equal(t, []string{"verify"}, e.Labels)
}

func TestEngine_SizeBound(t *testing.T) {
	tr, oracle := modularSystem(10, []string{"inc"}, func(k int, _ string) int { return (k + 1) % 10 })

	t.Run("Ceiling of one keeps only the root", func(t *testing.T) {
		engine := runtime.NewEngine(tr, oracle, []string{"inc"}, runtime.WithBounds(runtime.Bounds{MaxNodes: 1}))
		res, err := engine.Explore(context.Background(), root("s0"))
		require.NoError(t, err)

		assert.Equal(t, 1, res.Graph.NodeCount())
		assert.Equal(t, 0, res.Graph.EdgeCount())
		assert.Equal(t, domain.StopSizeBound, res.StopReason)
		assert.Equal(t, 0, res.Stats.Expanded)
	})

	t.Run("Ring stops at the ceiling", func(t *testing.T) {
		engine := runtime.NewEngine(tr, oracle, []string{"inc"}, runtime.WithBounds(runtime.Bounds{MaxNodes: 4}))
		res, err := engine.Explore(context.Background(), root("s0"))
		require.NoError(t, err)

		assert.Equal(t, 4, res.Graph.NodeCount())
		assert.Equal(t, domain.StopSizeBound, res.StopReason)
	})

	t.Run("Expanded node finishes its catalogue", func(t *testing.T) {
		tr := memory.NewScriptedTransformer().
			On("R0", "t1", "N1").
			On("R0", "t2", "R0-t2").
			On("R0", "t3", "N3")
		oracle := memory.NewScriptedOracle().Equate("R0", "R0-t2")

		engine := runtime.NewEngine(tr, oracle, []string{"t1", "t2", "t3"}, runtime.WithBounds(runtime.Bounds{MaxNodes: 2}))
		res, err := engine.Explore(context.Background(), root("R0"))
		require.NoError(t, err)

		assert.Equal(t, domain.StopSizeBound, res.StopReason)
		assert.Equal(t, 1, res.Stats.Expanded)
		assert.Equal(t, []string{"R0", "N1", "N3"}, paths(res.Graph))

		edge, ok := res.Graph.Edge(0, 1)
		require.True(t, ok)
		assert.Equal(t, []string{"t1"}, edge.Labels)
		loop, ok := res.Graph.Edge(0, 0)
		require.True(t, ok, "self-loop of the expanded root is kept")
		assert.Equal(t, []string{"t2"}, loop.Labels)
		_, ok = res.Graph.Edge(0, 2)
		assert.True(t, ok)
	})

	t.Run("Unbounded run closes the ring", func(t *testing.T) {
		res, err := runtime.NewEngine(tr, oracle, []string{"inc"}).Explore(context.Background(), root("s0"))
		require.NoError(t, err)
		assert.Equal(t, 10, res.Graph.NodeCount())
		assert.Equal(t, 10, res.Graph.EdgeCount())
		assert.Equal(t, domain.StopExhausted, res.StopReason)
	})
}

func TestEngine_TimeBound(t *testing.T) {
	tr, oracle := modularSystem(50, []string{"inc"}, func(k int, _ string) int { return (k + 1) % 50 })

	// Each clock reading advances one second.
	var mu sync.Mutex
	now := time.Unix(0, 0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}

	engine := runtime.NewEngine(tr, oracle, []string{"inc"},
		runtime.WithBounds(runtime.Bounds{MaxDuration: 10 * time.Second}),
		runtime.WithClock(clock),
	)
	res, err := engine.Explore(context.Background(), root("s0"))
	require.NoError(t, err)

	assert.Equal(t, domain.StopTimeBound, res.StopReason)
	assert.Less(t, res.Graph.NodeCount(), 50)
	assert.Greater(t, res.Graph.NodeCount(), 1, "partial results are kept")
	assert.True(t, res.Graph.Frozen())
}

func TestEngine_TimeBoundInterruptsInFlightCall(t *testing.T) {
	tr := memory.NewScriptedTransformer().On("R0", "t1", "A").On("A", "t1", "B")
	oracle := memory.NewScriptedOracle().WithDelay(time.Hour)

	engine := runtime.NewEngine(tr, oracle, []string{"t1"},
		runtime.WithBounds(runtime.Bounds{MaxDuration: 50 * time.Millisecond}),
	)

	started := time.Now()
	res, err := engine.Explore(context.Background(), root("R0"))
	require.NoError(t, err)

	assert.Less(t, time.Since(started), 5*time.Second)
	assert.Equal(t, domain.StopTimeBound, res.StopReason)
	// The candidate whose probe was cut short is discarded, not admitted on partial evidence.
	assert.Equal(t, 1, res.Graph.NodeCount())
	assert.Equal(t, 0, res.Stats.Failures)
}

func TestEngine_Monotonicity(t *testing.T) {
	names := []string{"inc", "dbl"}
	next := func(k int, name string) int {
		if name == "inc" {
			return (k + 1) % 16
		}
		return (2 * k) % 16
	}
	tr, oracle := modularSystem(16, names, next)

	var mu sync.Mutex
	var counts []int
	hooks := domain.LifecycleHooks{
		OnNodeAdmitted: func(ctx context.Context, e *domain.NodeEvent) {
			mu.Lock()
			defer mu.Unlock()
			counts = append(counts, e.NodeID+1)
		},
	}

	full, err := runtime.NewEngine(tr, oracle, names, runtime.WithLifecycleHooks(hooks)).Explore(context.Background(), root("s0"))
	require.NoError(t, err)
	for i := 1; i < len(counts); i++ {
		assert.Greater(t, counts[i], counts[i-1])
	}

	partial, err := runtime.NewEngine(tr, oracle, names, runtime.WithBounds(runtime.Bounds{MaxNodes: 5})).Explore(context.Background(), root("s0"))
	require.NoError(t, err)

	fullPaths := paths(full.Graph)
	partialPaths := paths(partial.Graph)
	require.LessOrEqual(t, len(partialPaths), len(fullPaths))
	assert.Equal(t, fullPaths[:len(partialPaths)], partialPaths, "bounded run admits a prefix of the full run")

	for _, e := range partial.Graph.Edges() {
		fe, ok := full.Graph.Edge(e.Source, e.Target)
		require.True(t, ok, "edge %d->%d missing from full run", e.Source, e.Target)
		assert.Subset(t, fe.Labels, e.Labels)
	}
}

func TestEngine_Reproducibility(t *testing.T) {
	names := []string{"inc", "dbl", "neg"}
	next := func(k int, name string) int {
		switch name {
		case "inc":
			return (k + 1) % 12
		case "dbl":
			return (2 * k) % 12
		}
		return (12 - k) % 12
	}
	tr, oracle := modularSystem(12, names, next)

	a, err := runtime.NewEngine(tr, oracle, names).Explore(context.Background(), root("s0"))
	require.NoError(t, err)
	b, err := runtime.NewEngine(tr, oracle, names).Explore(context.Background(), root("s0"))
	require.NoError(t, err)

	assert.Equal(t, paths(a.Graph), paths(b.Graph))
	assert.Equal(t, a.Graph.Edges(), b.Graph.Edges())
	assert.Equal(t, 12, a.Graph.NodeCount())
}

func TestEngine_ParallelProbesMatchSequential(t *testing.T) {
	names := []string{"inc", "dbl", "sq"}
	next := func(k int, name string) int {
		switch name {
		case "inc":
			return (k + 3) % 20
		case "dbl":
			return (2 * k) % 20
		}
		return (k * k) % 20
	}
	tr, oracle := modularSystem(20, names, next)

	seq, err := runtime.NewEngine(tr, oracle, names).Explore(context.Background(), root("s0"))
	require.NoError(t, err)

	for _, p := range []int{2, 3, 8, 64} {
		t.Run(fmt.Sprintf("parallelism=%d", p), func(t *testing.T) {
			par, err := runtime.NewEngine(tr, oracle, names, runtime.WithParallelism(p)).Explore(context.Background(), root("s0"))
			require.NoError(t, err)
			assert.Equal(t, paths(seq.Graph), paths(par.Graph))
			assert.Equal(t, seq.Graph.Edges(), par.Graph.Edges())
		})
	}
}

func TestEngine_CollaboratorFailures(t *testing.T) {
	t.Run("Oracle failure fails open toward a new node", func(t *testing.T) {
		tr := memory.NewScriptedTransformer().On("R0", "t1", "A")
		oracle := memory.NewScriptedOracle().
			Equate("R0", "A").
			Fail("A", "R0", errors.New("llvm-diff crashed"))

		var failures []*domain.FailureEvent
		hooks := domain.LifecycleHooks{
			OnCollaboratorFailure: func(ctx context.Context, e *domain.FailureEvent) {
				failures = append(failures, e)
			},
		}

		res, err := runtime.NewEngine(tr, oracle, []string{"t1"}, runtime.WithLifecycleHooks(hooks)).Explore(context.Background(), root("R0"))
		require.NoError(t, err)

		assert.Equal(t, 2, res.Graph.NodeCount(), "unverified pair must not be merged")
		require.NotEmpty(t, failures)
		assert.Equal(t, domain.KindEquivalence, failures[0].Kind)
	})

	t.Run("Transformation failure skips the pair", func(t *testing.T) {
		tr := memory.NewScriptedTransformer().
			Fail("R0", "t1", errors.New("opt: unknown pass")).
			On("R0", "t2", "B")
		oracle := memory.NewScriptedOracle()

		res, err := runtime.NewEngine(tr, oracle, []string{"t1", "t2"}).Explore(context.Background(), root("R0"))
		require.NoError(t, err)

		assert.Equal(t, []string{"R0", "B"}, paths(res.Graph))
		e, ok := res.Graph.Edge(0, 1)
		require.True(t, ok)
		assert.Equal(t, []string{"t2"}, e.Labels)
		assert.Equal(t, domain.StopExhausted, res.StopReason)
	})

	t.Run("Per-call timeout is a collaborator failure", func(t *testing.T) {
		tr := memory.NewScriptedTransformer().On("R0", "slow", "A").WithDelay(time.Hour)
		oracle := memory.NewScriptedOracle()

		engine := runtime.NewEngine(tr, oracle, []string{"slow"},
			runtime.WithTimeouts(runtime.Timeouts{Transform: 20 * time.Millisecond}),
		)
		res, err := engine.Explore(context.Background(), root("R0"))
		require.NoError(t, err)

		assert.Equal(t, 1, res.Graph.NodeCount())
		assert.Equal(t, 1, res.Stats.Failures)
		assert.Equal(t, domain.StopExhausted, res.StopReason)
	})
}

func TestEngine_Cancellation(t *testing.T) {
	tr, oracle := modularSystem(30, []string{"inc"}, func(k int, _ string) int { return (k + 1) % 30 })

	ctx, cancel := context.WithCancel(context.Background())
	hooks := domain.LifecycleHooks{
		OnNodeAdmitted: func(_ context.Context, e *domain.NodeEvent) {
			if e.NodeID == 3 {
				cancel()
			}
		},
	}

	res, err := runtime.NewEngine(tr, oracle, []string{"inc"}, runtime.WithLifecycleHooks(hooks)).Explore(ctx, root("s0"))
	require.NoError(t, err)

	assert.Equal(t, domain.StopCanceled, res.StopReason)
	assert.Equal(t, 4, res.Graph.NodeCount(), "work committed before cancellation is kept")
}

func TestEngine_EmptyCatalogue(t *testing.T) {
	res, err := runtime.NewEngine(memory.NewScriptedTransformer(), memory.NewScriptedOracle(), nil).Explore(context.Background(), root("R0"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Graph.NodeCount())
	assert.Equal(t, domain.StopExhausted, res.StopReason)
}

func TestEngine_VerdictCache(t *testing.T) {
	tr, oracle := modularSystem(8, []string{"inc"}, func(k int, _ string) int { return (k + 1) % 8 })
	cache := memory.NewVerdictCache()
	rootRep := domain.Representation{Path: "s0", Digest: "s0"}

	first, err := runtime.NewEngine(tr, oracle, []string{"inc"}, runtime.WithVerdictCache(cache)).Explore(context.Background(), rootRep)
	require.NoError(t, err)
	callsAfterFirst := oracle.Calls()
	assert.Greater(t, cache.Len(), 0)
	assert.Equal(t, 0, first.Stats.CachedProbes)

	second, err := runtime.NewEngine(tr, oracle, []string{"inc"}, runtime.WithVerdictCache(cache)).Explore(context.Background(), rootRep)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, oracle.Calls(), "every verdict of the second run comes from the cache")
	assert.Equal(t, first.Stats.Probes, second.Stats.CachedProbes)
	assert.Equal(t, paths(first.Graph), paths(second.Graph))
	assert.Equal(t, first.Graph.Edges(), second.Graph.Edges())
}

func TestEngine_LifecycleHooks(t *testing.T) {
	tr := memory.NewScriptedTransformer().
		On("R0", "t1", "N1").
		On("R0", "t2", "N1b").
		On("N1", "t1", "R0'").
		On("N1", "t2", "N1c")
	oracle := memory.NewScriptedOracle().Equate("N1", "N1b", "N1c").Equate("R0", "R0'")

	var admitted, merged, expanded []int
	var stop *domain.StopEvent
	hooks := domain.LifecycleHooks{
		OnNodeAdmitted: func(_ context.Context, e *domain.NodeEvent) { admitted = append(admitted, e.NodeID) },
		OnEdgeMerged:   func(_ context.Context, e *domain.EdgeEvent) { merged = append(merged, e.Target) },
		OnExpand:       func(_ context.Context, e *domain.ExpandEvent) { expanded = append(expanded, e.NodeID) },
		OnStop:         func(_ context.Context, e *domain.StopEvent) { stop = e },
	}

	_, err := runtime.NewEngine(tr, oracle, []string{"t1", "t2"}, runtime.WithLifecycleHooks(hooks)).Explore(context.Background(), root("R0"))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, admitted)
	assert.Equal(t, []int{1, 0, 1}, merged)
	assert.Equal(t, []int{0, 1}, expanded)
	require.NotNil(t, stop)
	assert.Equal(t, domain.StopExhausted, stop.Reason)
	assert.Equal(t, "R0", stop.Root)
}
