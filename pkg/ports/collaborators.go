package ports

import (
	"context"

	"github.com/aretw0/passgraph/pkg/domain"
)

// Transformer applies a named transformation to a representation.
// Implementations must be deterministic for the same inputs. A returned error means
// no candidate exists for this (representation, name) pair.
type Transformer interface {
	Transform(ctx context.Context, rep domain.Representation, name string) (domain.Representation, error)
}

// EquivalenceOracle compares two representations.
// A returned error means the oracle produced no usable output.
type EquivalenceOracle interface {
	Compare(ctx context.Context, a, b domain.Representation) (domain.DifferenceReport, error)
}

// Frontend lowers a source file into a root representation.
type Frontend interface {
	Lower(ctx context.Context, sourcePath string) (domain.Representation, error)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(ctx context.Context, rep domain.Representation, name string) (domain.Representation, error)

func (f TransformerFunc) Transform(ctx context.Context, rep domain.Representation, name string) (domain.Representation, error) {
	return f(ctx, rep, name)
}

// OracleFunc adapts a function to EquivalenceOracle.
type OracleFunc func(ctx context.Context, a, b domain.Representation) (domain.DifferenceReport, error)

func (f OracleFunc) Compare(ctx context.Context, a, b domain.Representation) (domain.DifferenceReport, error) {
	return f(ctx, a, b)
}
