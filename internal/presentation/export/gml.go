package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/passgraph/pkg/domain"
)

var gmlEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;")

// WriteGML writes the record as a directed GML graph. Node ids are positional, node
// labels are the canonical labels and every edge carries its merged labels in a
// "relationship" attribute.
func WriteGML(w io.Writer, rec *domain.RunRecord) error {
	if rec == nil || rec.IsEmpty() {
		return nil
	}

	index := make(map[string]int, len(rec.Nodes))
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "graph [")
	fmt.Fprintln(bw, "  directed 1")
	for i, n := range rec.Nodes {
		index[n.Label] = i
		fmt.Fprintln(bw, "  node [")
		fmt.Fprintf(bw, "    id %d\n", i)
		fmt.Fprintf(bw, "    label \"%s\"\n", gmlEscaper.Replace(n.Label))
		if n.Representation.Path != "" {
			fmt.Fprintf(bw, "    path \"%s\"\n", gmlEscaper.Replace(n.Representation.Path))
		}
		fmt.Fprintln(bw, "  ]")
	}
	for _, e := range rec.Edges {
		src, ok := index[e.Source]
		if !ok {
			return fmt.Errorf("edge source %q: %w", e.Source, domain.ErrUnknownNode)
		}
		dst, ok := index[e.Target]
		if !ok {
			return fmt.Errorf("edge target %q: %w", e.Target, domain.ErrUnknownNode)
		}
		fmt.Fprintln(bw, "  edge [")
		fmt.Fprintf(bw, "    source %d\n", src)
		fmt.Fprintf(bw, "    target %d\n", dst)
		fmt.Fprintf(bw, "    relationship \"%s\"\n", gmlEscaper.Replace(strings.Join(e.Labels, ",")))
		fmt.Fprintln(bw, "  ]")
	}
	fmt.Fprintln(bw, "]")
	return bw.Flush()
}
