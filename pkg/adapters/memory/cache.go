package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/passgraph/pkg/domain"
)

// VerdictCache implements ports.VerdictCache in memory.
type VerdictCache struct {
	mu   sync.RWMutex
	data map[[2]string]domain.DifferenceReport
}

// NewVerdictCache creates an empty cache.
func NewVerdictCache() *VerdictCache {
	return &VerdictCache{data: make(map[[2]string]domain.DifferenceReport)}
}

func (c *VerdictCache) Get(ctx context.Context, left, right string) (domain.DifferenceReport, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	report, ok := c.data[[2]string{left, right}]
	if !ok {
		return domain.DifferenceReport{}, domain.ErrCacheMiss
	}
	report.Lines = slices.Clone(report.Lines)
	return report, nil
}

func (c *VerdictCache) Put(ctx context.Context, left, right string, report domain.DifferenceReport) error {
	report.Lines = slices.Clone(report.Lines)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[[2]string{left, right}] = report
	return nil
}

// Len returns the number of cached verdicts.
func (c *VerdictCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
