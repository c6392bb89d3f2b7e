package process

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"lukechampine.com/blake3"

	"github.com/aretw0/passgraph/pkg/domain"
)

// stemSep separates the root's stem from the derivation suffix in generated file names.
const stemSep = "@"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Digest returns the hex BLAKE3 digest of a file's contents.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := blake3.New(32, nil)
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Stem returns the root file stem a generated path derives from.
func Stem(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.Index(base, stemSep); i >= 0 {
		return base[:i]
	}
	return base
}

// Transformer applies transformations by running the "transform" tool.
// Every invocation writes a fresh file, so no representation is ever overwritten.
type Transformer struct {
	runner  *Runner
	workDir string
	seq     atomic.Int64
}

// NewTransformer creates a transformer writing candidates into workDir.
func NewTransformer(runner *Runner, workDir string) *Transformer {
	return &Transformer{runner: runner, workDir: workDir}
}

func (t *Transformer) Transform(ctx context.Context, rep domain.Representation, name string) (domain.Representation, error) {
	n := t.seq.Add(1)
	out := filepath.Join(t.workDir, fmt.Sprintf("%s%s%s_%d.ll", Stem(rep.Path), stemSep, unsafeName.ReplaceAllString(name, "_"), n))

	inv, err := t.runner.Run(ctx, ToolTransform, map[string]string{
		"input":  rep.Path,
		"output": out,
		"name":   name,
	})
	if err != nil {
		return domain.Representation{}, err
	}
	if inv.ExitCode != 0 {
		return domain.Representation{}, fmt.Errorf("exit status %d: %s", inv.ExitCode, strings.TrimSpace(inv.Stderr))
	}

	digest, err := Digest(out)
	if err != nil {
		return domain.Representation{}, fmt.Errorf("no output produced: %w", err)
	}
	return domain.Representation{Path: out, Digest: digest}, nil
}

// Oracle compares representations by running the "equivalence" tool and parsing its
// line-oriented difference output (stderr then stdout).
type Oracle struct {
	runner *Runner
}

// NewOracle creates an oracle backed by runner.
func NewOracle(runner *Runner) *Oracle {
	return &Oracle{runner: runner}
}

// Compare follows the diff exit convention: 0 equal, 1 different, anything else is trouble.
func (o *Oracle) Compare(ctx context.Context, a, b domain.Representation) (domain.DifferenceReport, error) {
	inv, err := o.runner.Run(ctx, ToolEquivalence, map[string]string{
		"left":  a.Path,
		"right": b.Path,
	})
	if err != nil {
		return domain.DifferenceReport{}, err
	}
	if inv.ExitCode >= 2 || inv.ExitCode < 0 {
		return domain.DifferenceReport{}, fmt.Errorf("exit status %d: %s", inv.ExitCode, strings.TrimSpace(inv.Stderr))
	}

	report := domain.ParseDifferences(inv.Output())
	if inv.ExitCode == 1 && report.Equivalent() {
		return domain.DifferenceReport{}, fmt.Errorf("tool reported a difference without classifiable lines: %s", strings.TrimSpace(inv.Output()))
	}
	return report, nil
}

// Frontend lowers source files by running the "frontend" tool.
type Frontend struct {
	runner  *Runner
	workDir string
}

// NewFrontend creates a frontend writing roots into workDir.
func NewFrontend(runner *Runner, workDir string) *Frontend {
	return &Frontend{runner: runner, workDir: workDir}
}

func (f *Frontend) Lower(ctx context.Context, sourcePath string) (domain.Representation, error) {
	out := filepath.Join(f.workDir, Stem(sourcePath)+".ll")
	inv, err := f.runner.Run(ctx, ToolFrontend, map[string]string{
		"input":  sourcePath,
		"output": out,
	})
	if err != nil {
		return domain.Representation{}, &domain.CollaboratorError{Kind: domain.KindFrontend, Name: sourcePath, Err: err}
	}
	if inv.ExitCode != 0 {
		return domain.Representation{}, &domain.CollaboratorError{
			Kind: domain.KindFrontend,
			Name: sourcePath,
			Err:  fmt.Errorf("exit status %d: %s", inv.ExitCode, strings.TrimSpace(inv.Stderr)),
		}
	}

	digest, err := Digest(out)
	if err != nil {
		return domain.Representation{}, &domain.CollaboratorError{Kind: domain.KindFrontend, Name: sourcePath, Err: err}
	}
	return domain.Representation{Path: out, Digest: digest}, nil
}
