package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/fedgraph/fedgraph/pkg/dag"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes node types and metadata in labels and puts the
	// relationship type on each edge. When false, only node names are shown.
	Detailed bool

	// Direction sets the graphviz rank direction: "TB" (default) or "LR".
	Direction string
}

type nodeStyle struct {
	shape string
	fill  string
}

// One style per node type. Unknown types fall back to the Component style.
var nodeStyles = map[dag.NodeType]nodeStyle{
	dag.NodeTypeService:   {shape: "box", fill: "#dbeafe"},
	dag.NodeTypeLibrary:   {shape: "box", fill: "#dcfce7"},
	dag.NodeTypeSchema:    {shape: "note", fill: "#fef9c3"},
	dag.NodeTypeEndpoint:  {shape: "cds", fill: "#fae8ff"},
	dag.NodeTypeComponent: {shape: "box", fill: "white"},
}

// ToDOT converts a graph to Graphviz DOT format. Nodes and edges are
// emitted in sorted order, so the same graph always produces the same DOT
// string. The result can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(g *dag.DAG, opts Options) string {
	dir := opts.Direction
	if dir == "" {
		dir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph fedgraph {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=\"rounded,filled\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := fmtLabel(*n, opts.Detailed)
		attrs := fmtNodeAttrs(*n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := fmtEdgeAttrs(e, opts.Detailed)
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n dag.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}

	parts := []string{string(n.Type)}
	for _, k := range slices.Sorted(maps.Keys(n.Metadata)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Metadata[k]))
	}

	return n.Name + "\n" + strings.Join(parts, "\n")
}

func fmtNodeAttrs(n dag.Node, label string) []string {
	style, ok := nodeStyles[n.Type]
	if !ok {
		style = nodeStyles[dag.NodeTypeComponent]
	}
	return []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("shape=%s", style.shape),
		fmt.Sprintf("fillcolor=%q", style.fill),
	}
}

func fmtEdgeAttrs(e dag.Edge, detailed bool) []string {
	var attrs []string
	switch e.Type {
	case dag.EdgeTypeConsumes:
		attrs = append(attrs, "style=dashed")
	case dag.EdgeTypeOwns:
		attrs = append(attrs, "style=bold", "arrowhead=diamond")
	case dag.EdgeTypeImplements:
		attrs = append(attrs, "style=dotted", "arrowhead=empty")
	}
	if detailed {
		attrs = append(attrs, fmt.Sprintf("label=%q", string(e.Type)))
	}
	if e.Contract != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", e.Contract))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// The SVG viewBox is normalized to start at the origin so the result embeds
// cleanly in HTML.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderFormat(ctx, dot, graphviz.SVG, &buf); err != nil {
		return nil, err
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderFormat(ctx, dot, graphviz.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format, buf *bytes.Buffer) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if err := gv.Render(ctx, g, format, buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
