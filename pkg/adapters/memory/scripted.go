package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/passgraph/pkg/domain"
)

// ScriptedTransformer implements ports.Transformer from a table of rules.
// It is meant for tests and examples: a (from, name) pair without a rule fails.
type ScriptedTransformer struct {
	mu    sync.Mutex
	rules map[[2]string]string
	fails map[[2]string]error
	delay time.Duration
	calls int
}

// NewScriptedTransformer creates a transformer with no rules.
func NewScriptedTransformer() *ScriptedTransformer {
	return &ScriptedTransformer{
		rules: make(map[[2]string]string),
		fails: make(map[[2]string]error),
	}
}

// On declares that applying name to from produces to.
func (s *ScriptedTransformer) On(from, name, to string) *ScriptedTransformer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[[2]string{from, name}] = to
	return s
}

// Fail declares that applying name to from fails with err.
func (s *ScriptedTransformer) Fail(from, name string, err error) *ScriptedTransformer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[[2]string{from, name}] = err
	return s
}

// WithDelay makes every call block for d (or until the context is done).
func (s *ScriptedTransformer) WithDelay(d time.Duration) *ScriptedTransformer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	return s
}

// Calls returns how many times Transform was invoked.
func (s *ScriptedTransformer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *ScriptedTransformer) Transform(ctx context.Context, rep domain.Representation, name string) (domain.Representation, error) {
	s.mu.Lock()
	s.calls++
	key := [2]string{rep.Path, name}
	to, ok := s.rules[key]
	failErr := s.fails[key]
	delay := s.delay
	s.mu.Unlock()

	if err := wait(ctx, delay); err != nil {
		return domain.Representation{}, err
	}
	if failErr != nil {
		return domain.Representation{}, failErr
	}
	if !ok {
		return domain.Representation{}, fmt.Errorf("no rule for %s on %s", name, rep.Path)
	}
	return domain.Representation{Path: to, Digest: to}, nil
}

// ScriptedOracle implements ports.EquivalenceOracle over declared equivalence classes.
// Representations are equivalent when their paths are equal or were equated.
type ScriptedOracle struct {
	mu      sync.Mutex
	classOf map[string]int
	next    int
	fails   map[[2]string]error
	delay   time.Duration
	calls   int
}

// NewScriptedOracle creates an oracle where every distinct path differs.
func NewScriptedOracle() *ScriptedOracle {
	return &ScriptedOracle{
		classOf: make(map[string]int),
		fails:   make(map[[2]string]error),
	}
}

// Equate declares all given paths mutually equivalent.
func (o *ScriptedOracle) Equate(paths ...string) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()

	target := o.next
	o.next++
	for _, p := range paths {
		if old, ok := o.classOf[p]; ok {
			for q, c := range o.classOf {
				if c == old {
					o.classOf[q] = target
				}
			}
		}
		o.classOf[p] = target
	}
	return o
}

// Fail makes comparing a against b (in that argument order) fail with err.
func (o *ScriptedOracle) Fail(a, b string, err error) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fails[[2]string{a, b}] = err
	return o
}

// WithDelay makes every comparison block for d (or until the context is done).
func (o *ScriptedOracle) WithDelay(d time.Duration) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.delay = d
	return o
}

// Calls returns how many comparisons were requested.
func (o *ScriptedOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func (o *ScriptedOracle) Compare(ctx context.Context, a, b domain.Representation) (domain.DifferenceReport, error) {
	o.mu.Lock()
	o.calls++
	failErr := o.fails[[2]string{a.Path, b.Path}]
	ca, okA := o.classOf[a.Path]
	cb, okB := o.classOf[b.Path]
	delay := o.delay
	o.mu.Unlock()

	if err := wait(ctx, delay); err != nil {
		return domain.DifferenceReport{}, err
	}
	if failErr != nil {
		return domain.DifferenceReport{}, failErr
	}
	if a.Path == b.Path || (okA && okB && ca == cb) {
		return domain.DifferenceReport{}, nil
	}
	return domain.DifferenceReport{
		Additions: 1,
		Deletions: 1,
		Lines:     []string{"> " + a.Path, "< " + b.Path},
	}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
