package tree

import (
	"errors"
	"fmt"
	"math"

	"github.com/matzehuels/fragtree/pkg/dag"
	fterrors "github.com/matzehuels/fragtree/pkg/errors"
)

var (
	// ErrNotColorful is returned when two selected vertices share a color.
	ErrNotColorful = errors.New("tree is not colorful")

	// ErrNotTree is returned when a selected arc does not extend the tree:
	// its source is not yet selected or its target already is.
	ErrNotTree = errors.New("selection is not a rooted tree")

	// ErrUnknownArc is returned for arc indices outside the graph.
	ErrUnknownArc = errors.New("unknown arc")

	// ErrScoreMismatch is returned by Validate when the recorded score does
	// not equal the sum of the selected arc weights.
	ErrScoreMismatch = errors.New("score does not match selected losses")
)

// scoreEpsilon absorbs floating point drift when comparing sums computed in
// a different order.
const scoreEpsilon = 1e-9

// Trace is the raw output of a solver: a root and the selected arcs, listed
// so that every arc's source is the root or the target of an earlier arc.
type Trace struct {
	Root int
	Arcs []int
}

// Extractor turns traces into trees.
type Extractor struct {
	// AttachRemaining runs AttachRemainingColors on every extracted tree.
	AttachRemaining bool
}

// Extract builds a tree from tr. Colorfulness and treeness violations are
// reported as internal errors.
func (e Extractor) Extract(g *dag.Graph, tr Trace, strategy string) (*Tree, error) {
	t, err := build(g, tr, strategy)
	if err != nil {
		return nil, fterrors.Wrap(fterrors.ErrCodeInternal, err, "extract %s tree", strategy)
	}
	if e.AttachRemaining {
		AttachRemainingColors(g, t)
	}
	return t, nil
}

func build(g *dag.Graph, tr Trace, strategy string) (*Tree, error) {
	if tr.Root < 0 || tr.Root >= g.VertexCount() {
		return nil, fmt.Errorf("root %d: %w", tr.Root, ErrNotTree)
	}
	t := newTree(strategy, len(tr.Arcs)+1)
	used := make(map[int]bool, len(tr.Arcs)+1)

	root := g.Vertex(tr.Root)
	t.add(Node{Vertex: tr.Root, ID: root.ID, Label: root.DisplayLabel(), Color: root.Color, Parent: -1})
	used[root.Color] = true

	for _, a := range tr.Arcs {
		if a < 0 || a >= g.ArcCount() {
			return nil, fmt.Errorf("arc %d: %w", a, ErrUnknownArc)
		}
		arc := g.Arc(a)
		if !t.Contains(arc.Source) || t.Contains(arc.Target) {
			return nil, fmt.Errorf("arc %d (%d->%d): %w", a, arc.Source, arc.Target, ErrNotTree)
		}
		v := g.Vertex(arc.Target)
		if used[v.Color] {
			return nil, fmt.Errorf("color %d at %s: %w", v.Color, v.ID, ErrNotColorful)
		}
		used[v.Color] = true
		t.add(Node{Vertex: arc.Target, ID: v.ID, Label: v.DisplayLabel(), Color: v.Color, Parent: arc.Source, Weight: arc.Weight})
		t.Score += arc.Weight
	}
	return t, nil
}

// Validate checks t against g: every node exists with the recorded color,
// colors are unique, every parent precedes its child and is connected by a
// loss of the recorded weight, and Score is the sum of node weights.
func (t *Tree) Validate(g *dag.Graph) error {
	if len(t.Nodes) == 0 {
		return nil
	}
	used := make(map[int]bool, len(t.Nodes))
	seen := make(map[int]bool, len(t.Nodes))
	var sum float64
	for i, n := range t.Nodes {
		if n.Vertex < 0 || n.Vertex >= g.VertexCount() {
			return fmt.Errorf("vertex %d: %w", n.Vertex, ErrNotTree)
		}
		if g.Color(n.Vertex) != n.Color || used[n.Color] {
			return fmt.Errorf("color %d at %s: %w", n.Color, n.ID, ErrNotColorful)
		}
		used[n.Color] = true
		if i == 0 {
			if n.Parent != -1 {
				return fmt.Errorf("root %s has a parent: %w", n.ID, ErrNotTree)
			}
			seen[n.Vertex] = true
			continue
		}
		if !seen[n.Parent] || seen[n.Vertex] {
			return fmt.Errorf("node %s: %w", n.ID, ErrNotTree)
		}
		if !hasArc(g, n.Parent, n.Vertex, n.Weight) {
			return fmt.Errorf("loss %d->%d: %w", n.Parent, n.Vertex, ErrUnknownArc)
		}
		seen[n.Vertex] = true
		sum += n.Weight
	}
	if math.Abs(sum-t.Score) > scoreEpsilon*math.Max(1, math.Abs(sum)) {
		return fmt.Errorf("got %g, want %g: %w", t.Score, sum, ErrScoreMismatch)
	}
	return nil
}

func hasArc(g *dag.Graph, from, to int, w float64) bool {
	for _, a := range g.OutArcs(from) {
		if a.Target == to && a.Weight == w {
			return true
		}
	}
	return false
}
