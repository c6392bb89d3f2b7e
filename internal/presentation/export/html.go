package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/aretw0/passgraph/pkg/domain"
)

// DefaultNodeColor is used for nodes outside every strongly connected component.
const DefaultNodeColor = "#808080"

// HTMLOptions tunes the interactive view.
type HTMLOptions struct {
	Title  string
	Height string
	Width  string
}

func (o HTMLOptions) withDefaults(rec *domain.RunRecord) HTMLOptions {
	if o.Title == "" {
		o.Title = fmt.Sprintf("Pass graph of %s", rec.Root)
	}
	if o.Height == "" {
		o.Height = "750px"
	}
	if o.Width == "" {
		o.Width = "100%"
	}
	return o
}

// ComponentColors assigns each strongly connected component an evenly spaced hue.
// Nodes absent from the result get DefaultNodeColor.
func ComponentColors(strong [][]string) map[string]string {
	colors := make(map[string]string)
	n := len(strong)
	for i, group := range strong {
		hex := colorful.Hsv(360*float64(i)/float64(n), 1, 1).Hex()
		for _, label := range group {
			colors[label] = hex
		}
	}
	return colors
}

type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title,omitempty"`
	Color string `json:"color"`
}

type visEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Title  string `json:"title"`
	Arrows string `json:"arrows"`
}

type htmlData struct {
	Options HTMLOptions
	Nodes   template.JS
	Edges   template.JS
	Strong  int
	Weak    int
}

// WriteHTML writes a self-contained vis-network page. Strongly connected components are
// colored, everything else is gray, and a legend explains the encoding.
func WriteHTML(w io.Writer, rec *domain.RunRecord, opts HTMLOptions) error {
	if rec == nil || rec.IsEmpty() {
		return nil
	}
	opts = opts.withDefaults(rec)
	colors := ComponentColors(rec.Strong)

	nodes := make([]visNode, 0, len(rec.Nodes))
	for _, n := range rec.Nodes {
		color, ok := colors[n.Label]
		if !ok {
			color = DefaultNodeColor
		}
		nodes = append(nodes, visNode{ID: n.Label, Label: n.Label, Title: n.Representation.Path, Color: color})
	}
	edges := make([]visEdge, 0, len(rec.Edges))
	for _, e := range rec.Edges {
		edges = append(edges, visEdge{From: e.Source, To: e.Target, Title: strings.Join(e.Labels, ","), Arrows: "to"})
	}

	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("failed to encode nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return fmt.Errorf("failed to encode edges: %w", err)
	}

	bw := bufio.NewWriter(w)
	if err := pageTemplate.Execute(bw, htmlData{
		Options: opts,
		Nodes:   template.JS(nodesJSON),
		Edges:   template.JS(edgesJSON),
		Strong:  len(rec.Strong),
		Weak:    len(rec.Weak),
	}); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return bw.Flush()
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Options.Title}}</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
  body { font-family: sans-serif; margin: 0; }
  #graph { width: {{.Options.Width}}; height: {{.Options.Height}}; border: 1px solid lightgray; }
  #legend { padding: 8px 12px; }
  .swatch { display: inline-block; width: 12px; height: 12px; margin-right: 6px; vertical-align: middle; }
</style>
</head>
<body>
<div id="legend">
  <h3>{{.Options.Title}}</h3>
  <ul>
    <li><span class="swatch" style="background: gray; border-radius: 50%"></span>Node (Program State)</li>
    <li>&#x2192; Transformation Applied</li>
    <li><span class="swatch" style="background: gray"></span>Gray Nodes: Weakly Connected Components ({{.Weak}})</li>
    <li><span class="swatch" style="background: linear-gradient(90deg, red, yellow, lime, cyan, blue, magenta)"></span>Coloured Nodes: Strongly Connected Components ({{.Strong}})</li>
  </ul>
</div>
<div id="graph"></div>
<script>
  var nodes = new vis.DataSet({{.Nodes}});
  var edges = new vis.DataSet({{.Edges}});
  var container = document.getElementById("graph");
  new vis.Network(container, { nodes: nodes, edges: edges }, { physics: { stabilization: true } });
</script>
</body>
</html>
`))
