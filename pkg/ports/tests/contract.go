package tests

import (
	"context"
	"testing"

	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/ports"
)

// TransformerContractTest is a reusable test suite that verifies if an adapter complies with ports.Transformer.
// name must be a transformation the adapter can apply to root.
func TransformerContractTest(t *testing.T, tr ports.Transformer, root domain.Representation, name string) {
	t.Helper()

	t.Run("Transform_Success", func(t *testing.T) {
		got, err := tr.Transform(context.Background(), root, name)
		if err != nil {
			t.Fatalf("unexpected error applying %s: %v", name, err)
		}
		if got.IsZero() {
			t.Error("expected a non-empty candidate representation")
		}
	})

	t.Run("Transform_Deterministic", func(t *testing.T) {
		first, err := tr.Transform(context.Background(), root, name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := tr.Transform(context.Background(), root, name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.Digest != "" && first.Digest != second.Digest {
			t.Errorf("digest changed between identical calls: %s vs %s", first.Digest, second.Digest)
		}
	})

	t.Run("Transform_CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := tr.Transform(ctx, root, name); err == nil {
			t.Error("expected error for canceled context, got nil")
		}
	})
}

// OracleContractTest is a reusable test suite that verifies if an adapter complies with ports.EquivalenceOracle.
// a and b must be representations the oracle considers different.
func OracleContractTest(t *testing.T, oracle ports.EquivalenceOracle, a, b domain.Representation) {
	t.Helper()

	t.Run("Compare_Reflexive", func(t *testing.T) {
		report, err := oracle.Compare(context.Background(), a, a)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.Equivalent() {
			t.Errorf("expected %s to be equivalent to itself, got %+v", a.Name(), report)
		}
	})

	t.Run("Compare_Differs", func(t *testing.T) {
		report, err := oracle.Compare(context.Background(), a, b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Equivalent() {
			t.Errorf("expected %s and %s to differ", a.Name(), b.Name())
		}
	})

	t.Run("Compare_CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := oracle.Compare(ctx, a, b); err == nil {
			t.Error("expected error for canceled context, got nil")
		}
	})
}
