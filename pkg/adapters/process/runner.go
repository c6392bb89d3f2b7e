package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// Runner executes registered local processes.
// It follows a Strict Registry pattern (Allow-Listing): only configured tools run.
type Runner struct {
	registry map[string]ProcessConfig
	baseDir  string
	timeout  time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			tool.Name = name
			r.registry[name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout bounds every invocation. Zero means no per-call limit.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ProcessConfig),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = ProcessConfig{
		Name:    name,
		Command: command,
		Args:    args,
	}
}

// Has reports whether name is registered.
func (r *Runner) Has(name string) bool {
	_, ok := r.registry[name]
	return ok
}

// Invocation is the captured outcome of a process that ran to completion.
type Invocation struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns stderr followed by stdout.
func (i Invocation) Output() string {
	if i.Stdout == "" {
		return i.Stderr
	}
	if i.Stderr == "" {
		return i.Stdout
	}
	return i.Stderr + "\n" + i.Stdout
}

// ErrNotRegistered is returned when a tool is missing from the allow-list.
var ErrNotRegistered = errors.New("process tool not registered")

// Run executes the named tool with its placeholders bound to vars.
// A non-zero exit status is reported in the Invocation, not as an error: errors mean
// the process could not start, was killed by the context, or is not registered.
// Every var is also exported as PASSGRAPH_<KEY>.
func (r *Runner) Run(ctx context.Context, tool string, vars map[string]string) (Invocation, error) {
	proc, ok := r.registry[tool]
	if !ok {
		return Invocation{}, fmt.Errorf("%w: %s", ErrNotRegistered, tool)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return Invocation{}, err
	}

	expand := placeholders(vars)
	args := make([]string, len(proc.Args))
	for i, a := range proc.Args {
		args[i] = expand.Replace(a)
	}

	cmd := exec.CommandContext(ctx, proc.Command, args...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = time.Second

	env := cmd.Environ()
	for k, v := range proc.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, expand.Replace(v)))
	}
	for _, k := range sortedKeys(vars) {
		env = append(env, fmt.Sprintf("PASSGRAPH_%s=%s", strings.ToUpper(k), vars[k]))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	inv := Invocation{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return inv, fmt.Errorf("%s interrupted: %w", tool, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			inv.ExitCode = exitErr.ExitCode()
			return inv, nil
		}
		return inv, fmt.Errorf("failed to run %s: %w", tool, err)
	}
	return inv, nil
}

func placeholders(vars map[string]string) *strings.Replacer {
	pairs := make([]string, 0, len(vars)*2)
	for _, k := range sortedKeys(vars) {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
