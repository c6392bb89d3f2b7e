package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/passgraph/pkg/domain"
)

// Summary renders a run as a markdown report.
func Summary(rec *domain.RunRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", rec.Root)
	if rec.ID != "" {
		fmt.Fprintf(&sb, "Run `%s` stopped: **%s**\n\n", rec.ID, rec.StopReason)
	} else {
		fmt.Fprintf(&sb, "Stopped: **%s**\n\n", rec.StopReason)
	}

	s := rec.Stats
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Nodes | %d |\n", s.Nodes)
	fmt.Fprintf(&sb, "| Edges | %d |\n", s.Edges)
	fmt.Fprintf(&sb, "| Expanded | %d |\n", s.Expanded)
	fmt.Fprintf(&sb, "| Transformations | %d |\n", s.Transformations)
	fmt.Fprintf(&sb, "| Probes | %d (%d cached) |\n", s.Probes, s.CachedProbes)
	fmt.Fprintf(&sb, "| Failures | %d |\n", s.Failures)
	fmt.Fprintf(&sb, "| Elapsed | %s |\n\n", s.Elapsed)

	if rec.IsEmpty() {
		sb.WriteString("_The graph is empty._\n")
		return sb.String()
	}

	writeGroups(&sb, "Strongly connected components", rec.Strong)
	writeGroups(&sb, "Weakly connected components", rec.Weak)
	return sb.String()
}

func writeGroups(sb *strings.Builder, title string, groups [][]string) {
	fmt.Fprintf(sb, "## %s (%d)\n\n", title, len(groups))
	if len(groups) == 0 {
		sb.WriteString("_none_\n\n")
		return
	}
	for _, g := range groups {
		fmt.Fprintf(sb, "- %s\n", strings.Join(g, ", "))
	}
	sb.WriteString("\n")
}
