package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/ports"
)

// Bounds are the stopping ceilings of a run. Zero values mean unbounded.
type Bounds struct {
	MaxNodes    int
	MaxDuration time.Duration
}

// Timeouts are the per-call ceilings for collaborator invocations. Zero means no timeout.
type Timeouts struct {
	Transform   time.Duration
	Equivalence time.Duration
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithBounds sets the time and size ceilings.
func WithBounds(b Bounds) EngineOption {
	return func(e *Engine) {
		e.bounds = b
	}
}

// WithTimeouts sets the per-call collaborator timeouts.
func WithTimeouts(t Timeouts) EngineOption {
	return func(e *Engine) {
		e.timeouts = t
	}
}

// WithParallelism sets how many equivalence probes may run concurrently.
// Values below 2 select the sequential reference behavior.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// WithVerdictCache memoizes oracle verdicts for representations carrying a digest.
func WithVerdictCache(cache ports.VerdictCache) EngineOption {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithClock overrides the wall clock used by the time bound.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}
