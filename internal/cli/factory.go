// Package cli implements the passgraph commands on top of the library.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/passgraph"
	"github.com/aretw0/passgraph/internal/config"
	"github.com/aretw0/passgraph/internal/logging"
	"github.com/aretw0/passgraph/internal/observability"
	"github.com/aretw0/passgraph/pkg/adapters/file"
	"github.com/aretw0/passgraph/pkg/adapters/memory"
	"github.com/aretw0/passgraph/pkg/adapters/process"
	"github.com/aretw0/passgraph/pkg/adapters/redis"
	"github.com/aretw0/passgraph/pkg/domain"
	"github.com/aretw0/passgraph/pkg/ports"
)

// CreateLogger configures the application logger from the config.
// Debug forces the debug level.
func CreateLogger(cfg *config.Config, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithWriter(os.Stderr, level, cfg.Log.Format), nil
}

// Stack holds the collaborators shared by every root of a batch.
type Stack struct {
	Config    *config.Config
	Catalogue []string
	Runner    *process.Runner
	Cache     ports.VerdictCache
	Store     ports.RunStore
	Metrics   *observability.Metrics
	Logger    *slog.Logger
	closers   []func() error
}

// NewStack resolves the catalogue, tools, cache and store described by cfg.
// reg may be nil, in which case no metrics are collected.
func NewStack(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	catalogue, err := cfg.ResolveCatalogue()
	if err != nil {
		return nil, err
	}
	tools, err := cfg.ResolveTools()
	if err != nil {
		return nil, err
	}

	s := &Stack{
		Config:    cfg,
		Catalogue: catalogue,
		Runner:    process.NewRunner(process.WithRegistry(tools)),
		Logger:    logger,
	}
	if reg != nil {
		if s.Metrics, err = observability.NewMetrics(reg); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	if s.Cache, err = s.openCache(); err != nil {
		s.Close()
		return nil, err
	}
	if s.Store, err = s.openStore(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// OpenStore builds only the run store, for commands that never explore.
func OpenStore(cfg *config.Config) (ports.RunStore, func() error, error) {
	s := &Stack{Config: cfg}
	store, err := s.openStore()
	if err != nil {
		return nil, nil, err
	}
	return store, s.Close, nil
}

func (s *Stack) openCache() (ports.VerdictCache, error) {
	c := s.Config.Cache
	switch c.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendMemory:
		return memory.NewVerdictCache(), nil
	case config.BackendRedis:
		client := redis.NewClient(c.Redis.Addr, c.Redis.Password, c.Redis.DB)
		s.closers = append(s.closers, client.Close)
		return redis.NewVerdictCache(client, redisOptions(c.Redis)...), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
}

func (s *Stack) openStore() (ports.RunStore, error) {
	c := s.Config.Store
	switch c.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendFile, "":
		return file.New(c.Dir), nil
	case config.BackendRedis:
		client := redis.NewClient(c.Redis.Addr, c.Redis.Password, c.Redis.DB)
		s.closers = append(s.closers, client.Close)
		return redis.NewStore(client, redisOptions(c.Redis)...), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", c.Backend)
}

func redisOptions(r config.Redis) []redis.Option {
	opts := []redis.Option{redis.WithTTL(r.TTL)}
	if r.Prefix != "" {
		opts = append(opts, redis.WithPrefix(r.Prefix))
	}
	return opts
}

// Close releases backend connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Hooks returns the lifecycle hooks every explorer of this stack carries.
func (s *Stack) Hooks() domain.LifecycleHooks {
	hooks := observability.LoggingHooks(s.Logger)
	if s.Metrics != nil {
		hooks = hooks.Merge(s.Metrics.Hooks())
	}
	return hooks
}

// NewExplorer builds an explorer whose transformer writes candidates into workDir.
func (s *Stack) NewExplorer(workDir string, extra domain.LifecycleHooks) (*passgraph.Explorer, error) {
	cfg := s.Config
	opts := []passgraph.Option{
		passgraph.WithLogger(s.Logger),
		passgraph.WithLifecycleHooks(s.Hooks().Merge(extra)),
		passgraph.WithBounds(cfg.Bounds.MaxNodes, cfg.Bounds.MaxDuration),
		passgraph.WithTimeouts(cfg.Timeouts.Transform, cfg.Timeouts.Equivalence),
		passgraph.WithParallelism(cfg.Parallelism),
	}
	if s.Cache != nil {
		opts = append(opts, passgraph.WithVerdictCache(s.Cache))
	}
	return passgraph.New(
		process.NewTransformer(s.Runner, workDir),
		process.NewOracle(s.Runner),
		s.Catalogue,
		opts...,
	)
}
