package pipeline

import (
	"bytes"

	"github.com/matzehuels/fragtree/pkg/dag"
	fragio "github.com/matzehuels/fragtree/pkg/io"
	"github.com/matzehuels/fragtree/pkg/render/nodelink"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// Render produces t in the given format. With overlay set, diagrams show
// the whole candidate graph with t highlighted.
func Render(g *dag.Graph, t *tree.Tree, format string, overlay bool) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	if format == FormatJSON {
		var buf bytes.Buffer
		if err := fragio.WriteTree(t, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	opts := nodelink.Options{Detailed: true}
	dot := nodelink.TreeDOT(t, opts)
	if overlay {
		dot = nodelink.GraphDOT(g, t, opts)
	}
	switch format {
	case FormatSVG:
		return nodelink.RenderSVG(dot)
	case FormatPNG:
		return nodelink.RenderPNG(dot, 2.0)
	case FormatPDF:
		return nodelink.RenderPDF(dot)
	}
	return []byte(dot), nil
}
