package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/passgraph/pkg/domain"
)

// GraphOverlay contains component data to highlight on the graph.
type GraphOverlay struct {
	Strong [][]string
	Root   string
}

// OverlayFromRecord highlights the record's root and its strongly connected components.
func OverlayFromRecord(rec *domain.RunRecord) *GraphOverlay {
	if rec == nil || rec.IsEmpty() {
		return nil
	}
	return &GraphOverlay{Strong: rec.Strong, Root: rec.Nodes[0].Label}
}

// GenerateMermaid produces a Mermaid flowchart for a run.
// It applies semantic styling:
// - Root: ((Circle))
// - Self-loop target: [[Subroutine]]
// - Default: [Rectangle]
// Edges carry their merged transformation labels.
// It also applies overlay styles (root / cycle members) if provided.
func GenerateMermaid(rec *domain.RunRecord, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if rec == nil || rec.IsEmpty() {
		return sb.String()
	}

	selfLoops := make(map[string]bool)
	for _, e := range rec.Edges {
		if e.Source == e.Target {
			selfLoops[e.Source] = true
		}
	}

	for i, n := range rec.Nodes {
		safeID := sanitizeMermaidID(n.Label)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case selfLoops[n.Label]:
			opener, closer = "[[", "]]"
		}

		label := n.Label
		if n.Representation.Path != "" {
			label = fmt.Sprintf("%s <br/> %s", n.Label, strings.ReplaceAll(n.Representation.Name(), "\"", "'"))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, e := range rec.Edges {
		// Escape double quotes in labels for Mermaid
		relationship := strings.ReplaceAll(strings.Join(e.Labels, ","), "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n",
			sanitizeMermaidID(e.Source), relationship, sanitizeMermaidID(e.Target)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef root fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef cycle fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")

		seen := make(map[string]bool)
		for _, group := range overlay.Strong {
			for _, id := range group {
				safeID := sanitizeMermaidID(id)
				if !seen[safeID] && safeID != "" {
					seen[safeID] = true
					sb.WriteString(fmt.Sprintf("    class %s cycle;\n", safeID))
				}
			}
		}
		if overlay.Root != "" {
			sb.WriteString(fmt.Sprintf("    class %s root;\n", sanitizeMermaidID(overlay.Root)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
