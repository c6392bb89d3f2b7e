package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/aretw0/passgraph/pkg/adapters/memory"
	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/graph"
	"github.com/aretw0/passgraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCoordinator(oracle ports.EquivalenceOracle, cache ports.VerdictCache, parallelism int) *Coordinator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newCoordinator(oracle, cache, 0, parallelism, domain.LifecycleHooks{}, logger, "test")
}

func TestCoordinator_IsEquivalent(t *testing.T) {
	ctx := context.Background()
	node := graph.Node{ID: 3, Representation: domain.Representation{Path: "existing"}}
	candidate := domain.Representation{Path: "candidate"}

	tests := []struct {
		name   string
		report domain.DifferenceReport
		err    error
		want   bool
	}{
		{name: "No differences", report: domain.DifferenceReport{}, want: true},
		{name: "Modifications are advisory", report: domain.DifferenceReport{Modifications: 4}, want: true},
		{name: "Any addition", report: domain.DifferenceReport{Additions: 1}, want: false},
		{name: "Any deletion", report: domain.DifferenceReport{Deletions: 1}, want: false},
		{name: "Oracle failure", err: errors.New("no output"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := ports.OracleFunc(func(ctx context.Context, a, b domain.Representation) (domain.DifferenceReport, error) {
				assert.Equal(t, "candidate", a.Path, "candidate is always the first argument")
				assert.Equal(t, "existing", b.Path)
				return tt.report, tt.err
			})
			c := testCoordinator(oracle, nil, 1)

			got, _ := c.IsEquivalent(ctx, candidate, node)
			assert.Equal(t, tt.want, got)

			_, _, failures := c.Counts()
			if tt.err != nil {
				assert.Equal(t, 1, failures)
			} else {
				assert.Equal(t, 0, failures)
			}
		})
	}
}

func TestCoordinator_FailuresAreNotCached(t *testing.T) {
	var calls atomic.Int32
	oracle := ports.OracleFunc(func(ctx context.Context, a, b domain.Representation) (domain.DifferenceReport, error) {
		if calls.Add(1) == 1 {
			return domain.DifferenceReport{}, errors.New("timeout")
		}
		return domain.DifferenceReport{}, nil
	})
	cache := memory.NewVerdictCache()
	c := testCoordinator(oracle, cache, 1)

	candidate := domain.Representation{Path: "a", Digest: "da"}
	node := graph.Node{ID: 0, Representation: domain.Representation{Path: "b", Digest: "db"}}

	eq, _ := c.IsEquivalent(context.Background(), candidate, node)
	assert.False(t, eq)
	assert.Equal(t, 0, cache.Len())

	eq, _ = c.IsEquivalent(context.Background(), candidate, node)
	assert.True(t, eq)
	assert.Equal(t, 1, cache.Len())

	eq, _ = c.IsEquivalent(context.Background(), candidate, node)
	assert.True(t, eq)
	assert.Equal(t, int32(2), calls.Load())

	probes, cached, failures := c.Counts()
	assert.Equal(t, 2, probes)
	assert.Equal(t, 1, cached)
	assert.Equal(t, 1, failures)
}

func TestCoordinator_FindEquivalentPicksFirstInCreationOrder(t *testing.T) {
	oracle := memory.NewScriptedOracle().Equate("cand", "n2", "n5", "n7")
	nodes := make([]graph.Node, 9)
	for i := range nodes {
		nodes[i] = graph.Node{ID: graph.NodeID(i), Representation: domain.Representation{Path: "n" + string(rune('0'+i))}}
	}

	for _, p := range []int{1, 2, 3, 4, 16} {
		c := testCoordinator(oracle, nil, p)
		id, ok := c.FindEquivalent(context.Background(), domain.Representation{Path: "cand"}, nodes)
		require.True(t, ok)
		assert.Equal(t, graph.NodeID(2), id, "parallelism %d", p)
	}

	c := testCoordinator(oracle, nil, 1)
	_, ok := c.FindEquivalent(context.Background(), domain.Representation{Path: "other"}, nodes)
	assert.False(t, ok)
}

func TestCoordinator_SequentialStopsAtFirstMatch(t *testing.T) {
	oracle := memory.NewScriptedOracle().Equate("cand", "n1")
	nodes := []graph.Node{
		{ID: 0, Representation: domain.Representation{Path: "n0"}},
		{ID: 1, Representation: domain.Representation{Path: "n1"}},
		{ID: 2, Representation: domain.Representation{Path: "n2"}},
	}
	c := testCoordinator(oracle, nil, 1)

	id, ok := c.FindEquivalent(context.Background(), domain.Representation{Path: "cand"}, nodes)
	require.True(t, ok)
	assert.Equal(t, graph.NodeID(1), id)
	assert.Equal(t, 2, oracle.Calls())
}
