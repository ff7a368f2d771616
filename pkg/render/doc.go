// Package render draws fragmentation trees.
//
// The [nodelink] subpackage produces Graphviz diagrams of trees, optionally
// overlaid on the full candidate graph. This package converts the resulting
// SVG to other formats with the external rsvg-convert tool (from librsvg):
//
//	dot := nodelink.TreeDOT(t, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)
//
// [nodelink]: github.com/matzehuels/fragtree/pkg/render/nodelink
package render
