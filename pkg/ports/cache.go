package ports

import (
	"context"

	"github.com/aretw0/passgraph/pkg/domain"
)

// VerdictCache memoizes equivalence verdicts keyed by the ordered pair of content digests.
type VerdictCache interface {
	// Get returns domain.ErrCacheMiss when no verdict is stored for the pair.
	Get(ctx context.Context, left, right string) (domain.DifferenceReport, error)
	Put(ctx context.Context, left, right string, report domain.DifferenceReport) error
}
