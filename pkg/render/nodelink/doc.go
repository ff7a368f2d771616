// Package nodelink renders fragmentation trees as node-link diagrams.
//
// # Usage
//
// Convert a tree to DOT, then render to SVG:
//
//	dot := nodelink.TreeDOT(t, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// [GraphDOT] draws the whole candidate graph instead and highlights the
// selected tree, which helps when comparing strategies.
//
// # Styling
//
// The diagram runs top to bottom from the precursor. Edges are labeled with
// loss weights. Vertices added by remaining-color attachment are drawn with
// dashed outlines; in GraphDOT, unselected candidates are grey.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
