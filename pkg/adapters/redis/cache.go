package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/passgraph/pkg/domain"
)

// VerdictCache implements ports.VerdictCache using Redis, so verdicts survive across
// runs and processes.
type VerdictCache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewVerdictCache creates a verdict cache from an existing client.
func NewVerdictCache(client *backend.Client, opts ...Option) *VerdictCache {
	s := apply(opts)
	return &VerdictCache{client: client, prefix: s.prefix + "verdict:", ttl: s.ttl}
}

func (c *VerdictCache) key(left, right string) string {
	return c.prefix + left + ":" + right
}

func (c *VerdictCache) Get(ctx context.Context, left, right string) (domain.DifferenceReport, error) {
	val, err := c.client.Get(ctx, c.key(left, right)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.DifferenceReport{}, domain.ErrCacheMiss
		}
		return domain.DifferenceReport{}, fmt.Errorf("failed to get verdict: %w", err)
	}

	var report domain.DifferenceReport
	if err := json.Unmarshal(val, &report); err != nil {
		return domain.DifferenceReport{}, fmt.Errorf("failed to unmarshal verdict: %w", err)
	}
	return report, nil
}

func (c *VerdictCache) Put(ctx context.Context, left, right string, report domain.DifferenceReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}
	if err := c.client.Set(ctx, c.key(left, right), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save verdict: %w", err)
	}
	return nil
}
