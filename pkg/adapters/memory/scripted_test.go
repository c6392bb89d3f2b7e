package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/passgraph/pkg/adapters/memory"
	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedTransformer(t *testing.T) {
	ctx := context.Background()
	tr := memory.NewScriptedTransformer().
		On("r0", "t1", "r1").
		Fail("r0", "t2", errors.New("crash"))

	got, err := tr.Transform(ctx, domain.Representation{Path: "r0"}, "t1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.Path)

	_, err = tr.Transform(ctx, domain.Representation{Path: "r0"}, "t2")
	assert.EqualError(t, err, "crash")

	_, err = tr.Transform(ctx, domain.Representation{Path: "r0"}, "t3")
	assert.Error(t, err)
	assert.Equal(t, 3, tr.Calls())
}

func TestScriptedOracle(t *testing.T) {
	ctx := context.Background()
	o := memory.NewScriptedOracle().Equate("a", "b").Equate("c", "d").Equate("b", "c")

	r := func(p string) domain.Representation { return domain.Representation{Path: p} }

	for _, pair := range [][2]string{{"a", "b"}, {"a", "d"}, {"d", "b"}, {"x", "x"}} {
		report, err := o.Compare(ctx, r(pair[0]), r(pair[1]))
		require.NoError(t, err)
		assert.True(t, report.Equivalent(), "%v should be equivalent", pair)
	}

	report, err := o.Compare(ctx, r("a"), r("x"))
	require.NoError(t, err)
	assert.False(t, report.Equivalent())
}

func TestScriptedOracle_DelayHonorsContext(t *testing.T) {
	o := memory.NewScriptedOracle().WithDelay(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := o.Compare(ctx, domain.Representation{Path: "a"}, domain.Representation{Path: "a"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScriptedCollaborators_Contract(t *testing.T) {
	tr := memory.NewScriptedTransformer().On("r0", "t1", "r1")
	tests.TransformerContractTest(t, tr, domain.Representation{Path: "r0"}, "t1")

	oracle := memory.NewScriptedOracle()
	tests.OracleContractTest(t, oracle, domain.Representation{Path: "r0"}, domain.Representation{Path: "r1"})
}
