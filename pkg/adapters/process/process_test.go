package process_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/passgraph/pkg/adapters/process"
	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/ports/tests"
)

func requireTools(t *testing.T, names ...string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process tests rely on a POSIX shell")
	}
	for _, n := range names {
		if _, err := exec.LookPath(n); err != nil {
			t.Skipf("%s not available: %v", n, err)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) domain.Representation {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return domain.Representation{Path: path}
}

// appendTool copies its input and appends the transformation name.
func appendTool() process.ProcessConfig {
	return process.ProcessConfig{
		Command: "sh",
		Args:    []string{"-c", `cat "$PASSGRAPH_INPUT" > "$PASSGRAPH_OUTPUT" && echo "$PASSGRAPH_NAME" >> "$PASSGRAPH_OUTPUT"`},
	}
}

func diffTool() process.ProcessConfig {
	return process.ProcessConfig{Command: "diff", Args: []string{"{{left}}", "{{right}}"}}
}

func TestRunner_Run(t *testing.T) {
	requireTools(t, "sh")
	runner := process.NewRunner()
	runner.Register("echo", "sh", "-c", "echo {{greeting}}; echo oops >&2; exit 3")

	t.Run("Expands Placeholders And Captures Output", func(t *testing.T) {
		inv, err := runner.Run(context.Background(), "echo", map[string]string{"greeting": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello\n", inv.Stdout)
		assert.Equal(t, "oops\n", inv.Stderr)
		assert.Equal(t, 3, inv.ExitCode)
		assert.Equal(t, "oops\n\nhello\n", inv.Output())
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		_, err := runner.Run(context.Background(), "hacker_script", nil)
		assert.ErrorIs(t, err, process.ErrNotRegistered)
		assert.False(t, runner.Has("hacker_script"))
	})

	t.Run("Passes Vars via Env", func(t *testing.T) {
		runner.Register("echo_env", "sh", "-c", "echo $PASSGRAPH_MSG")
		inv, err := runner.Run(context.Background(), "echo_env", map[string]string{"msg": "SecretMessage"})
		require.NoError(t, err)
		assert.Contains(t, inv.Stdout, "SecretMessage")
	})

	t.Run("Configured Env Is Expanded", func(t *testing.T) {
		r := process.NewRunner(process.WithRegistry(map[string]process.ProcessConfig{
			"env": {Command: "sh", Args: []string{"-c", "echo $TARGET"}, Environment: map[string]string{"TARGET": "{{name}}-x"}},
		}))
		inv, err := r.Run(context.Background(), "env", map[string]string{"name": "gvn"})
		require.NoError(t, err)
		assert.Equal(t, "gvn-x\n", inv.Stdout)
	})
}

func TestRunner_Timeout(t *testing.T) {
	requireTools(t, "sh", "sleep")
	runner := process.NewRunner(process.WithTimeout(100 * time.Millisecond))
	runner.Register("slow", "sleep", "5")

	start := time.Now()
	_, err := runner.Run(context.Background(), "slow", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestTransformer(t *testing.T) {
	requireTools(t, "sh", "cat")
	dir := t.TempDir()
	root := writeFile(t, dir, "prog.ll", "define i32 @main()\n")
	runner := process.NewRunner(process.WithRegistry(map[string]process.ProcessConfig{
		process.ToolTransform: appendTool(),
	}))
	tr := process.NewTransformer(runner, dir)

	t.Run("Writes Unique Outputs", func(t *testing.T) {
		first, err := tr.Transform(context.Background(), root, "loop-unroll<full>")
		require.NoError(t, err)
		second, err := tr.Transform(context.Background(), first, "gvn")
		require.NoError(t, err)

		assert.NotEqual(t, first.Path, second.Path)
		assert.Equal(t, "prog", process.Stem(second.Path))
		assert.True(t, strings.HasPrefix(filepath.Base(first.Path), "prog@loop-unroll_full_"))
		assert.Len(t, first.Digest, 64)

		data, err := os.ReadFile(second.Path)
		require.NoError(t, err)
		assert.Equal(t, "define i32 @main()\nloop-unroll<full>\ngvn\n", string(data))
	})

	t.Run("Non Zero Exit Is An Error", func(t *testing.T) {
		runner.Register(process.ToolTransform, "sh", "-c", "echo bad pass >&2; exit 1")
		_, err := tr.Transform(context.Background(), root, "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad pass")
	})
}

func TestTransformer_Contract(t *testing.T) {
	requireTools(t, "sh", "cat")
	dir := t.TempDir()
	runner := process.NewRunner(process.WithRegistry(map[string]process.ProcessConfig{
		process.ToolTransform: appendTool(),
	}))
	tests.TransformerContractTest(t, process.NewTransformer(runner, dir), writeFile(t, dir, "c.ll", "x\n"), "dce")
}

func TestOracle(t *testing.T) {
	requireTools(t, "diff")
	dir := t.TempDir()
	a := writeFile(t, dir, "a.ll", "one\ntwo\n")
	b := writeFile(t, dir, "b.ll", "one\nthree\n")
	runner := process.NewRunner(process.WithRegistry(map[string]process.ProcessConfig{
		process.ToolEquivalence: diffTool(),
	}))
	oracle := process.NewOracle(runner)

	report, err := oracle.Compare(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Additions)
	assert.Equal(t, 1, report.Deletions)
	assert.False(t, report.Equivalent())

	t.Run("Missing File Is A Failure", func(t *testing.T) {
		_, err := oracle.Compare(context.Background(), a, domain.Representation{Path: filepath.Join(dir, "missing.ll")})
		assert.Error(t, err)
	})

	t.Run("Unclassifiable Difference Is A Failure", func(t *testing.T) {
		r := process.NewRunner()
		r.Register(process.ToolEquivalence, "sh", "-c", "echo something changed; exit 1")
		_, err := process.NewOracle(r).Compare(context.Background(), a, b)
		assert.Error(t, err)
	})
}

func TestOracle_Contract(t *testing.T) {
	requireTools(t, "diff")
	dir := t.TempDir()
	runner := process.NewRunner(process.WithRegistry(map[string]process.ProcessConfig{
		process.ToolEquivalence: diffTool(),
	}))
	tests.OracleContractTest(t, process.NewOracle(runner),
		writeFile(t, dir, "a.ll", "one\n"),
		writeFile(t, dir, "b.ll", "two\n"),
	)
}

func TestFrontend(t *testing.T) {
	requireTools(t, "sh", "cat")
	dir := t.TempDir()
	src := writeFile(t, dir, "main.c", "int main(void) { return 0; }\n")
	runner := process.NewRunner()
	runner.Register(process.ToolFrontend, "sh", "-c", `cat "$PASSGRAPH_INPUT" > "$PASSGRAPH_OUTPUT"`)

	got, err := process.NewFrontend(runner, dir).Lower(context.Background(), src.Path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "main.ll"), got.Path)
	assert.NotEmpty(t, got.Digest)

	runner.Register(process.ToolFrontend, "sh", "-c", "echo syntax error >&2; exit 1")
	_, err = process.NewFrontend(runner, dir).Lower(context.Background(), src.Path)
	var collab *domain.CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.Equal(t, domain.KindFrontend, collab.Kind)
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: transform
    command: opt
    args: ["-S", "-passes={{name}}", "{{input}}", "-o", "{{output}}"]
  - command: ignored
`), 0o644))

	tools, err := process.LoadTools(path)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "opt", tools[process.ToolTransform].Command)

	missing, err := process.LoadTools(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)

	defaults := process.DefaultTools()
	assert.Equal(t, "llvm-diff", defaults[process.ToolEquivalence].Command)
}
