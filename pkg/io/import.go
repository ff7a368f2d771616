package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/fragtree/pkg/dag"
	fterrors "github.com/matzehuels/fragtree/pkg/errors"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// ReadGraph decodes a JSON candidate graph from r.
//
// ReadGraph returns an error if the JSON is malformed, a vertex ID is empty,
// duplicated or contains control characters, a color lies outside
// [0, colors), a loss references an unknown vertex, a weight is not finite,
// or the root is unknown. ReadGraph does not close r.
func ReadGraph(r io.Reader) (*dag.Graph, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fterrors.Wrap(fterrors.ErrCodeInvalidFormat, err, "decode graph")
	}

	colors := data.Colors
	if colors == 0 {
		for _, v := range data.Vertices {
			colors = max(colors, v.Color+1)
		}
	}

	g := dag.New(colors, data.Meta)
	for _, v := range data.Vertices {
		if err := fterrors.ValidateVertexID(v.ID); err != nil {
			return nil, err
		}
		if err := fterrors.ValidateColor(v.Color, colors); err != nil {
			return nil, fmt.Errorf("vertex %s: %w", v.ID, err)
		}
		_, err := g.AddVertex(dag.Vertex{ID: v.ID, Color: v.Color, Label: v.Label, Rank: v.Rank, Meta: v.Meta})
		if err != nil {
			return nil, fterrors.Wrap(fterrors.ErrCodeInvalidInput, err, "vertex %s", v.ID)
		}
	}
	for _, l := range data.Losses {
		if err := g.AddLoss(dag.Loss{From: l.From, To: l.To, Weight: l.Weight, Meta: l.Meta}); err != nil {
			return nil, fterrors.Wrap(fterrors.ErrCodeInvalidInput, err, "loss %s->%s", l.From, l.To)
		}
	}
	if data.Root != "" {
		if err := g.SetRoot(data.Root); err != nil {
			return nil, fterrors.Wrap(fterrors.ErrCodeMissingRoot, err, "root %s", data.Root)
		}
	}
	return g, nil
}

// ImportGraph reads a JSON candidate graph from the file at path.
func ImportGraph(path string) (*dag.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fterrors.Wrap(fterrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

// ReadTree decodes a JSON tree from r and resolves its node IDs in g.
// The result is not validated; call Tree.Validate for that.
func ReadTree(r io.Reader, g *dag.Graph) (*tree.Tree, error) {
	var data treeDoc
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fterrors.Wrap(fterrors.ErrCodeInvalidFormat, err, "decode tree")
	}
	return data.resolve(g)
}

func (d treeDoc) resolve(g *dag.Graph) (*tree.Tree, error) {
	t := &tree.Tree{
		Strategy:      d.Strategy,
		Score:         d.Score,
		AttachedScore: d.AttachedScore,
		Duration:      time.Duration(d.DurationMS * float64(time.Millisecond)),
		Meta:          d.Meta,
		Nodes:         make([]tree.Node, 0, len(d.Nodes)),
	}
	if t.Meta == nil {
		t.Meta = dag.Metadata{}
	}
	for _, n := range d.Nodes {
		v, ok := g.Index(n.ID)
		if !ok {
			return nil, fterrors.New(fterrors.ErrCodeNotFound, "tree node %s not in graph", n.ID)
		}
		parent := -1
		if n.Parent != "" {
			p, ok := g.Index(n.Parent)
			if !ok {
				return nil, fterrors.New(fterrors.ErrCodeNotFound, "parent %s of %s not in graph", n.Parent, n.ID)
			}
			parent = p
		}
		t.Nodes = append(t.Nodes, tree.Node{
			Vertex:   v,
			ID:       n.ID,
			Label:    n.Label,
			Color:    n.Color,
			Parent:   parent,
			Weight:   n.Weight,
			Attached: n.Attached,
		})
	}
	return t, nil
}

// ReadTrees decodes a JSON array of trees from r.
func ReadTrees(r io.Reader, g *dag.Graph) ([]*tree.Tree, error) {
	var docs []treeDoc
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fterrors.Wrap(fterrors.ErrCodeInvalidFormat, err, "decode trees")
	}
	out := make([]*tree.Tree, 0, len(docs))
	for _, d := range docs {
		t, err := d.resolve(g)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
