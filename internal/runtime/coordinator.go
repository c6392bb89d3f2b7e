package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/graph"
	"github.com/aretw0/passgraph/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Coordinator answers "is this candidate equivalent to an existing node?" on top of an
// external oracle. Probes are read-only and may run concurrently; the coordinator never
// touches the graph.
type Coordinator struct {
	oracle      ports.EquivalenceOracle
	cache       ports.VerdictCache
	timeout     time.Duration
	parallelism int
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	root        string

	probes   atomic.Int64
	cached   atomic.Int64
	failures atomic.Int64
}

func newCoordinator(oracle ports.EquivalenceOracle, cache ports.VerdictCache, timeout time.Duration, parallelism int, hooks domain.LifecycleHooks, logger *slog.Logger, root string) *Coordinator {
	return &Coordinator{
		oracle:      oracle,
		cache:       cache,
		timeout:     timeout,
		parallelism: parallelism,
		hooks:       hooks,
		logger:      logger,
		root:        root,
	}
}

// Counts returns the number of oracle probes, cache hits and oracle failures so far.
func (c *Coordinator) Counts() (probes, cached, failures int) {
	return int(c.probes.Load()), int(c.cached.Load()), int(c.failures.Load())
}

// IsEquivalent reports whether candidate and node are equivalent: the oracle must report
// zero additions and zero deletions. An oracle failure counts as "not equivalent".
func (c *Coordinator) IsEquivalent(ctx context.Context, candidate domain.Representation, node graph.Node) (bool, domain.DifferenceReport) {
	existing := node.Representation
	useCache := c.cache != nil && candidate.Digest != "" && existing.Digest != ""

	if useCache {
		report, err := c.cache.Get(ctx, candidate.Digest, existing.Digest)
		switch {
		case err == nil:
			c.cached.Add(1)
			c.emitProbe(ctx, node.ID, report.Equivalent(), true, 0)
			return report.Equivalent(), report
		case !errors.Is(err, domain.ErrCacheMiss):
			c.logger.Debug("verdict cache lookup failed", "node", node.ID, "err", err)
		}
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	report, err := c.oracle.Compare(callCtx, candidate, existing)
	elapsed := time.Since(started)
	c.probes.Add(1)

	if err != nil {
		if ctx.Err() == nil {
			c.failures.Add(1)
			c.logger.Warn("equivalence probe failed, treating pair as distinct",
				"candidate", candidate.Name(),
				"node", node.ID,
				"err", err,
			)
			c.emitFailure(ctx, node.ID, err)
		}
		return false, domain.DifferenceReport{}
	}

	if useCache {
		if err := c.cache.Put(ctx, candidate.Digest, existing.Digest, report); err != nil {
			c.logger.Debug("verdict cache store failed", "node", node.ID, "err", err)
		}
	}

	c.emitProbe(ctx, node.ID, report.Equivalent(), false, elapsed)
	return report.Equivalent(), report
}

// FindEquivalent returns the first node, in creation order, equivalent to candidate.
// With parallelism above 1 the nodes are probed in concurrent windows; the lowest
// matching index of the first window with a match wins, which is the same node the
// sequential scan would pick.
func (c *Coordinator) FindEquivalent(ctx context.Context, candidate domain.Representation, nodes []graph.Node) (graph.NodeID, bool) {
	if c.parallelism < 2 {
		for _, n := range nodes {
			if ctx.Err() != nil {
				return graph.NoParent, false
			}
			if eq, _ := c.IsEquivalent(ctx, candidate, n); eq {
				return n.ID, true
			}
		}
		return graph.NoParent, false
	}

	for lo := 0; lo < len(nodes); lo += c.parallelism {
		if ctx.Err() != nil {
			return graph.NoParent, false
		}
		window := nodes[lo:min(lo+c.parallelism, len(nodes))]
		verdicts := make([]bool, len(window))

		var g errgroup.Group
		for i, n := range window {
			i, n := i, n
			g.Go(func() error {
				verdicts[i], _ = c.IsEquivalent(ctx, candidate, n)
				return nil
			})
		}
		_ = g.Wait()

		for i, eq := range verdicts {
			if eq {
				return window[i].ID, true
			}
		}
	}
	return graph.NoParent, false
}

func (c *Coordinator) emitProbe(ctx context.Context, id graph.NodeID, equivalent, cached bool, d time.Duration) {
	if c.hooks.OnProbe == nil {
		return
	}
	c.hooks.OnProbe(ctx, &domain.ProbeEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventProbe, Root: c.root},
		NodeID:     int(id),
		Equivalent: equivalent,
		Cached:     cached,
		Duration:   d,
	})
}

func (c *Coordinator) emitFailure(ctx context.Context, id graph.NodeID, err error) {
	if c.hooks.OnCollaboratorFailure == nil {
		return
	}
	c.hooks.OnCollaboratorFailure(ctx, &domain.FailureEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCollaboratorFailure, Root: c.root},
		Kind:      domain.KindEquivalence,
		NodeID:    int(id),
		Err:       &domain.CollaboratorError{Kind: domain.KindEquivalence, Err: err},
	})
}
