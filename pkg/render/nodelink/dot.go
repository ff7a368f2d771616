package nodelink

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

	"github.com/matzehuels/fragtree/pkg/dag"
	"github.com/matzehuels/fragtree/pkg/render"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the peak color and vertex metadata to node labels.
	Detailed bool
}

const header = `  rankdir=TB;
  bgcolor="transparent";
  node [shape=box, style="rounded,filled", fillcolor=white, fontsize=20, margin="0.2,0.1"];
  edge [fontsize=14];
  ranksep=0.5;
  nodesep=0.3;
`

// TreeDOT converts a tree to Graphviz DOT.
func TreeDOT(t *tree.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Tree {\n")
	buf.WriteString(header)
	fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n\n", fmt.Sprintf("%s: %s", t.Strategy, fmtScore(t.Score)))

	ids := make(map[int]string, t.Len())
	for _, n := range t.Nodes {
		ids[n.Vertex] = n.ID
		label := n.Label
		if opts.Detailed {
			label = fmt.Sprintf("%s\ncolor: %d", label, n.Color)
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if n.Attached {
			attrs = append(attrs, `style="rounded,filled,dashed"`)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range t.Nodes {
		if n.Parent < 0 {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", ids[n.Parent], n.ID, fmtScore(n.Weight))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// GraphDOT converts the candidate graph to DOT with t highlighted. t may be
// nil to draw the plain graph.
func GraphDOT(g *dag.Graph, t *tree.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Candidates {\n")
	buf.WriteString(header)
	buf.WriteString("\n")

	selected := func(v int) bool { return t != nil && t.Contains(v) }
	for _, v := range g.TopologicalOrder() {
		vx := g.Vertex(v)
		attrs := []string{fmt.Sprintf("label=%q", fmtVertexLabel(vx, opts.Detailed))}
		if !selected(v) {
			attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=grey40", "color=grey60")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", vx.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, a := range g.Arcs() {
		attrs := []string{fmt.Sprintf("label=%q", fmtScore(a.Weight))}
		if p, ok := parentOf(t, a.Target); ok && p == a.Source {
			attrs = append(attrs, "penwidth=3")
		} else {
			attrs = append(attrs, "color=grey60", "fontcolor=grey40", "style=dashed")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", g.Vertex(a.Source).ID, g.Vertex(a.Target).ID, strings.Join(attrs, ", "))
	}
	buf.WriteString("}\n")
	return buf.String()
}

func parentOf(t *tree.Tree, v int) (int, bool) {
	if t == nil {
		return -1, false
	}
	return t.Parent(v)
}

func fmtVertexLabel(v *dag.Vertex, detailed bool) string {
	if !detailed {
		return v.DisplayLabel()
	}
	parts := []string{fmt.Sprintf("color: %d", v.Color), fmt.Sprintf("rank: %d", v.Rank)}
	for _, k := range slices.Sorted(maps.Keys(v.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, v.Meta[k]))
	}
	return v.DisplayLabel() + "\n" + strings.Join(parts, "\n")
}

func fmtScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz svg tag with one that scales.
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
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
