package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover expands paths into root files. Files are taken as given; directories are
// searched with the doublestar pattern. Anything under an excluded directory is skipped,
// which keeps generated artifacts out of later batches. Paths that cannot be read are
// reported in problems and skipped.
func Discover(paths []string, pattern string, exclude ...string) (roots []string, problems []error) {
	var excluded []string
	for _, e := range exclude {
		if abs, err := filepath.Abs(e); err == nil {
			excluded = append(excluded, abs)
		}
	}

	seen := make(map[string]bool)
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", path, err))
			return
		}
		for _, e := range excluded {
			if abs == e || strings.HasPrefix(abs, e+string(filepath.Separator)) {
				return
			}
		}
		if !seen[abs] {
			seen[abs] = true
			roots = append(roots, path)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(p), pattern, doublestar.WithFilesOnly())
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", p, err))
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(filepath.Join(p, filepath.FromSlash(m)))
		}
	}
	return roots, problems
}
