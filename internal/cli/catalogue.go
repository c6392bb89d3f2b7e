package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/passgraph/pkg/adapters/process"
	"github.com/aretw0/passgraph/pkg/domain"
)

// CatalogueCheck splits a catalogue by whether each transformation runs on a sample.
type CatalogueCheck struct {
	Valid   []string
	Invalid map[string]error
}

// CheckCatalogue applies every catalogue entry once to sample. Entries the transformation
// tool rejects are reported in Invalid; the catalogue order is kept in Valid.
func CheckCatalogue(ctx context.Context, stack *Stack, sample, workDir string) (*CatalogueCheck, error) {
	digest, err := process.Digest(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample: %w", err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, err
	}

	root := domain.Representation{Path: sample, Digest: digest}
	transformer := process.NewTransformer(stack.Runner, workDir)
	check := &CatalogueCheck{Invalid: make(map[string]error)}

	for _, name := range stack.Catalogue {
		if err := ctx.Err(); err != nil {
			return check, err
		}
		callCtx := ctx
		var cancel context.CancelFunc = func() {}
		if t := stack.Config.Timeouts.Transform; t > 0 {
			callCtx, cancel = context.WithTimeout(ctx, t)
		}
		out, err := transformer.Transform(callCtx, root, name)
		cancel()
		if err != nil {
			stack.Logger.Debug("transformation rejected", "transformation", name, "err", err)
			check.Invalid[name] = err
			continue
		}
		_ = os.Remove(out.Path)
		check.Valid = append(check.Valid, name)
	}
	return check, nil
}
