// Package render turns dependency graphs into visual outputs.
//
// # Overview
//
// Rendering is a two-step pipeline: [ToDOT] converts a graph into Graphviz
// DOT text, and [RenderSVG] or [RenderPNG] feed that text through Graphviz.
// The DOT step is deterministic (nodes and edges emit in sorted order), so
// rendered artifacts can be cached by graph fingerprint.
//
//	dot := render.ToDOT(g, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Styling
//
// Node shapes and fill colors encode the component type: services, libraries,
// schemas, endpoints, and generic components each get their own look. Edge
// line styles encode the relationship: consumption is dashed, ownership bold
// with a diamond head, interface implementation dotted with an empty head.
// Edges carrying a contract reference expose it as a tooltip in SVG output.
package render
