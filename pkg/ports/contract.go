package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	record := func(id string) *domain.RunRecord {
		return &domain.RunRecord{
			ID:         id,
			Root:       "root.ll",
			Catalogue:  []string{"t1", "t2"},
			StopReason: domain.StopExhausted,
			Stats:      domain.Stats{Nodes: 2, Edges: 1, Expanded: 2},
			Nodes: []domain.RunNode{
				{Label: "P0", Representation: domain.Representation{Path: "root.ll"}},
				{Label: "P1", Representation: domain.Representation{Path: "root_t1.ll", Digest: "abc"}},
			},
			Edges:     []domain.RunEdge{{Source: "P0", Target: "P1", Labels: []string{"t1", "t2"}}},
			Strong:    [][]string{},
			Weak:      [][]string{{"P0", "P1"}},
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		want := record(runID)
		require.NoError(t, store.Save(ctx, want), "Save should not return error")

		got, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, want.Root, got.Root)
		assert.Equal(t, want.Catalogue, got.Catalogue)
		assert.Equal(t, want.StopReason, got.StopReason)
		assert.Equal(t, want.Nodes, got.Nodes)
		assert.Equal(t, want.Edges, got.Edges)
		assert.Equal(t, want.Weak, got.Weak)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("Load does not alias", func(t *testing.T) {
		got, err := store.Load(ctx, runID)
		require.NoError(t, err)
		got.Nodes[0].Label = "mutated"

		again, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, "P0", again.Nodes[0].Label)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := runID+"-1", runID+"-2"
		require.NoError(t, store.Save(ctx, record(id1)))
		require.NoError(t, store.Save(ctx, record(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, runID), "Delete should not return error")
		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})
}

// RunVerdictCacheContract verifies that a VerdictCache implementation adheres to the contract.
func RunVerdictCacheContract(t *testing.T, cache VerdictCache) {
	ctx := context.Background()

	t.Run("Miss", func(t *testing.T) {
		_, err := cache.Get(ctx, "left", "unknown")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Put and Get", func(t *testing.T) {
		report := domain.DifferenceReport{Additions: 2, Deletions: 1}
		require.NoError(t, cache.Put(ctx, "aa", "bb", report))

		got, err := cache.Get(ctx, "aa", "bb")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Additions)
		assert.Equal(t, 1, got.Deletions)
		assert.False(t, got.Equivalent())
	})

	t.Run("Pair is ordered", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, "x", "y", domain.DifferenceReport{}))
		_, err := cache.Get(ctx, "y", "x")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, "aa", "bb", domain.DifferenceReport{}))
		got, err := cache.Get(ctx, "aa", "bb")
		require.NoError(t, err)
		assert.True(t, got.Equivalent())
	})
}
