package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/fragtree/pkg/dag"
	"github.com/matzehuels/fragtree/pkg/tree"
)

type graph struct {
	Colors   int          `json:"colors"`
	Root     string       `json:"root,omitempty"`
	Vertices []vertex     `json:"vertices"`
	Losses   []loss       `json:"losses"`
	Meta     dag.Metadata `json:"meta,omitempty"`
}

type vertex struct {
	ID    string       `json:"id"`
	Color int          `json:"color"`
	Label string       `json:"label,omitempty"`
	Rank  int          `json:"rank"`
	Meta  dag.Metadata `json:"meta,omitempty"`
}

type loss struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Weight float64      `json:"weight"`
	Meta   dag.Metadata `json:"meta,omitempty"`
}

type treeDoc struct {
	Strategy      string       `json:"strategy"`
	Score         float64      `json:"score"`
	AttachedScore float64      `json:"attached_score"`
	DurationMS    float64      `json:"duration_ms"`
	Nodes         []treeNode   `json:"nodes"`
	Meta          dag.Metadata `json:"meta,omitempty"`
}

type treeNode struct {
	ID       string  `json:"id"`
	Label    string  `json:"label,omitempty"`
	Color    int     `json:"color"`
	Parent   string  `json:"parent"`
	Weight   float64 `json:"weight,omitempty"`
	Attached bool    `json:"attached,omitempty"`
}

// WriteGraph encodes g as JSON and writes it to w. The output can be read
// back with [ReadGraph].
func WriteGraph(g *dag.Graph, w io.Writer) error {
	out := graph{
		Colors:   g.ColorCount(),
		Vertices: make([]vertex, g.VertexCount()),
		Losses:   make([]loss, 0, g.ArcCount()),
	}
	if len(g.Meta()) > 0 {
		out.Meta = g.Meta()
	}
	if root, err := g.Root(); err == nil {
		out.Root = g.Vertex(root).ID
	}
	for i := range out.Vertices {
		v := g.Vertex(i)
		out.Vertices[i] = vertex{ID: v.ID, Color: v.Color, Label: v.Label, Rank: v.Rank}
		if len(v.Meta) > 0 {
			out.Vertices[i].Meta = v.Meta
		}
	}
	for _, l := range g.Losses() {
		lo := loss{From: l.From, To: l.To, Weight: l.Weight}
		if len(l.Meta) > 0 {
			lo.Meta = l.Meta
		}
		out.Losses = append(out.Losses, lo)
	}
	return encode(w, out)
}

// ExportGraph writes g to a JSON file at path.
func ExportGraph(g *dag.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

func toDoc(t *tree.Tree) treeDoc {
	ids := make(map[int]string, t.Len())
	for _, n := range t.Nodes {
		ids[n.Vertex] = n.ID
	}
	doc := treeDoc{
		Strategy:      t.Strategy,
		Score:         t.Score,
		AttachedScore: t.AttachedScore,
		DurationMS:    float64(t.Duration) / float64(time.Millisecond),
		Nodes:         make([]treeNode, len(t.Nodes)),
	}
	if len(t.Meta) > 0 {
		doc.Meta = t.Meta
	}
	for i, n := range t.Nodes {
		doc.Nodes[i] = treeNode{
			ID:       n.ID,
			Label:    n.Label,
			Color:    n.Color,
			Parent:   ids[n.Parent],
			Weight:   n.Weight,
			Attached: n.Attached,
		}
	}
	return doc
}

// WriteTree encodes t as JSON and writes it to w.
func WriteTree(t *tree.Tree, w io.Writer) error {
	return encode(w, toDoc(t))
}

// WriteTrees encodes a ranked list of trees as a JSON array.
func WriteTrees(trees []*tree.Tree, w io.Writer) error {
	docs := make([]treeDoc, len(trees))
	for i, t := range trees {
		docs[i] = toDoc(t)
	}
	return encode(w, docs)
}

// ExportTree writes t to a JSON file at path.
func ExportTree(t *tree.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteTree(t, f)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
