package ports

import (
	"context"

	"github.com/aretw0/passgraph/pkg/domain"
)

// RunStore persists finished exploration runs.
type RunStore interface {
	// Save persists the record under record.ID, replacing any previous value.
	Save(ctx context.Context, record *domain.RunRecord) error

	// Load retrieves a run. Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, id string) (*domain.RunRecord, error)

	// List returns the ids of the stored runs.
	List(ctx context.Context) ([]string, error)

	// Delete removes a run.
	Delete(ctx context.Context, id string) error
}
