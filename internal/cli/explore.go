package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/passgraph/internal/config"
	"github.com/aretw0/passgraph/internal/presentation/export"
	"github.com/aretw0/passgraph/internal/presentation/graph"
	"github.com/aretw0/passgraph/internal/presentation/tui"
	"github.com/aretw0/passgraph/pkg/adapters/process"
	"github.com/aretw0/passgraph/pkg/domain"
)

// ExploreOptions configures a batch.
type ExploreOptions struct {
	Paths []string
	// Frontend lowers source files with the frontend tool before exploring them.
	Frontend bool
	// Jobs is how many roots are explored concurrently.
	Jobs  int
	Quiet bool
	// Out receives the per-root summaries.
	Out io.Writer
	// Render formats markdown summaries; nil prints them raw.
	Render func(string) (string, error)
	Hooks  domain.LifecycleHooks
}

// RootResult is the outcome for one discovered root.
type RootResult struct {
	Index  int
	Source string
	Record *domain.RunRecord
	Files  []string
	Err    error
}

// BatchResult collects the outcome of every root, in discovery order.
type BatchResult struct {
	Roots []RootResult
}

// Explored counts the roots that produced a run.
func (b *BatchResult) Explored() int {
	n := 0
	for _, r := range b.Roots {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Explore runs one independent exploration per discovered root. Roots that cannot be
// instantiated are logged and skipped; an empty input set is not an error.
func Explore(ctx context.Context, stack *Stack, opts ExploreOptions) (*BatchResult, error) {
	cfg := stack.Config
	logger := stack.Logger

	pattern := cfg.Discovery.Pattern
	if opts.Frontend {
		pattern = cfg.Discovery.SourcePattern
	}
	workRoot := cfg.Output.WorkDir
	if workRoot == "" {
		workRoot = filepath.Join(cfg.Output.Dir, "work")
	}

	sources, problems := Discover(opts.Paths, pattern, cfg.Output.Dir, workRoot)
	for _, p := range problems {
		logger.Warn("skipping input", "err", p)
	}
	if len(sources) == 0 {
		logger.Info("no roots found", "pattern", pattern)
		return &BatchResult{}, nil
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]RootResult, len(sources))
	var g errgroup.Group
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = exploreOne(ctx, stack, opts, i+1, src, workRoot)
			return nil
		})
	}
	_ = g.Wait()

	if !opts.Quiet && opts.Out != nil {
		for _, r := range results {
			if r.Record == nil {
				continue
			}
			printSummary(opts, r.Record)
		}
	}
	return &BatchResult{Roots: results}, nil
}

func exploreOne(ctx context.Context, stack *Stack, opts ExploreOptions, index int, src, workRoot string) RootResult {
	result := RootResult{Index: index, Source: src}
	logger := stack.Logger.With("root", src)

	workDir := filepath.Join(workRoot, fmt.Sprintf("graph%d", index))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		result.Err = err
		logger.Warn("skipping root", "err", err)
		return result
	}

	root, err := instantiate(ctx, stack, opts, src, workDir)
	if err != nil {
		result.Err = err
		logger.Warn("skipping root", "err", err)
		return result
	}

	explorer, err := stack.NewExplorer(workDir, opts.Hooks)
	if err != nil {
		result.Err = err
		return result
	}
	run, err := explorer.Explore(ctx, root)
	if err != nil {
		result.Err = err
		logger.Error("exploration failed", "err", err)
		return result
	}

	rec := run.Record()
	result.Record = rec
	if rec.IsEmpty() {
		logger.Info("graph is empty, nothing to export")
	} else {
		files, err := WriteOutputs(stack.Config.Output, index, rec)
		result.Files = files
		if err != nil {
			logger.Error("failed to write outputs", "err", err)
		}
	}

	// Partial runs are still worth keeping after a cancellation.
	if err := stack.Store.Save(context.WithoutCancel(ctx), rec); err != nil {
		logger.Error("failed to save run", "run", rec.ID, "err", err)
	}
	return result
}

func instantiate(ctx context.Context, stack *Stack, opts ExploreOptions, src, workDir string) (domain.Representation, error) {
	if opts.Frontend {
		if stack.Config.Timeouts.Frontend > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, stack.Config.Timeouts.Frontend)
			defer cancel()
		}
		return process.NewFrontend(stack.Runner, workDir).Lower(ctx, src)
	}
	digest, err := process.Digest(src)
	if err != nil {
		return domain.Representation{}, err
	}
	return domain.Representation{Path: src, Digest: digest}, nil
}

// WriteOutputs writes the configured artifacts of run number index into out.Dir.
func WriteOutputs(out config.Output, index int, rec *domain.RunRecord) ([]string, error) {
	type artifact struct {
		format string
		ext    string
		write  func(io.Writer) error
	}
	artifacts := []artifact{
		{config.FormatGML, "gml", func(w io.Writer) error { return export.WriteGML(w, rec) }},
		{config.FormatJSON, "json", func(w io.Writer) error { return export.WriteComponents(w, rec) }},
		{config.FormatHTML, "html", func(w io.Writer) error { return export.WriteHTML(w, rec, export.HTMLOptions{}) }},
		{config.FormatMermaid, "mmd", func(w io.Writer) error {
			_, err := io.WriteString(w, graph.GenerateMermaid(rec, graph.OverlayFromRecord(rec)))
			return err
		}},
	}

	var files []string
	for _, a := range artifacts {
		if !out.Wants(a.format) {
			continue
		}
		path := filepath.Join(out.Dir, fmt.Sprintf("graph%d.%s", index, a.ext))
		if err := writeFile(path, a.write); err != nil {
			return files, fmt.Errorf("failed to write %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(opts ExploreOptions, rec *domain.RunRecord) {
	md := tui.Summary(rec)
	if opts.Render != nil {
		if rendered, err := opts.Render(md); err == nil {
			md = rendered
		}
	}
	fmt.Fprintln(opts.Out, md)
}
