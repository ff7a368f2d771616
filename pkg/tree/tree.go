package tree

import (
	"slices"
	"time"

	"github.com/matzehuels/fragtree/pkg/dag"
)

// Node is one selected vertex of a fragmentation tree.
type Node struct {
	Vertex   int     // Dense index in the candidate graph
	ID       string  // Vertex ID
	Label    string  // Display label (formula)
	Color    int     // Peak color
	Parent   int     // Parent vertex index, -1 for the root
	Weight   float64 // Weight of the incoming loss, 0 for the root
	Attached bool    // Added by remaining-color attachment
}

// Tree is a colorful subtree of a candidate graph.
type Tree struct {
	Nodes         []Node
	Score         float64       // Total score including attached colors
	AttachedScore float64       // Contribution of remaining-color attachment
	Strategy      string        // Name of the builder that produced the tree
	Duration      time.Duration // Wall-clock solve time
	Meta          dag.Metadata  // Host annotations such as batch job IDs

	pos map[int]int // vertex -> node position
}

func newTree(strategy string, capacity int) *Tree {
	return &Tree{
		Nodes:    make([]Node, 0, capacity),
		Strategy: strategy,
		Meta:     dag.Metadata{},
		pos:      make(map[int]int, capacity),
	}
}

func (t *Tree) add(n Node) {
	t.pos[n.Vertex] = len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
}

// index rebuilds the position map for trees decoded from storage.
func (t *Tree) index() map[int]int {
	if t.pos == nil || len(t.pos) != len(t.Nodes) {
		t.pos = make(map[int]int, len(t.Nodes))
		for i, n := range t.Nodes {
			t.pos[n.Vertex] = i
		}
	}
	return t.pos
}

// Root returns the root vertex index, or -1 for an empty tree.
func (t *Tree) Root() int {
	if len(t.Nodes) == 0 {
		return -1
	}
	return t.Nodes[0].Vertex
}

// Len returns the number of vertices in the tree.
func (t *Tree) Len() int { return len(t.Nodes) }

// Contains reports whether vertex v is part of the tree.
func (t *Tree) Contains(v int) bool {
	_, ok := t.index()[v]
	return ok
}

// Node returns the node of vertex v.
func (t *Tree) Node(v int) (Node, bool) {
	i, ok := t.index()[v]
	if !ok {
		return Node{}, false
	}
	return t.Nodes[i], true
}

// Parent returns the parent of vertex v. The root and vertices outside the
// tree report false.
func (t *Tree) Parent(v int) (int, bool) {
	n, ok := t.Node(v)
	if !ok || n.Parent < 0 {
		return -1, false
	}
	return n.Parent, true
}

// ParentMap maps every non-root vertex ID to its parent's ID.
func (t *Tree) ParentMap() map[string]string {
	ids := make(map[int]string, len(t.Nodes))
	for _, n := range t.Nodes {
		ids[n.Vertex] = n.ID
	}
	out := make(map[string]string, len(t.Nodes))
	for _, n := range t.Nodes {
		if n.Parent >= 0 {
			out[n.ID] = ids[n.Parent]
		}
	}
	return out
}

// VertexSet returns the selected vertex indices in ascending order.
func (t *Tree) VertexSet() []int {
	out := make([]int, len(t.Nodes))
	for i, n := range t.Nodes {
		out[i] = n.Vertex
	}
	slices.Sort(out)
	return out
}

// Colors returns the colors used by the tree in ascending order.
func (t *Tree) Colors() []int {
	out := make([]int, len(t.Nodes))
	for i, n := range t.Nodes {
		out[i] = n.Color
	}
	slices.Sort(out)
	return out
}

// Children returns the children of vertex v in attachment order.
func (t *Tree) Children(v int) []int {
	var out []int
	for _, n := range t.Nodes {
		if n.Parent == v {
			out = append(out, n.Vertex)
		}
	}
	return out
}

// Edges returns the selected losses as (parent, child) vertex pairs in
// attachment order.
func (t *Tree) Edges() [][2]int {
	out := make([][2]int, 0, len(t.Nodes))
	for _, n := range t.Nodes[min(1, len(t.Nodes)):] {
		out = append(out, [2]int{n.Parent, n.Vertex})
	}
	return out
}
