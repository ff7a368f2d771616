package tree

import (
	"container/heap"

	"github.com/matzehuels/fragtree/pkg/dag"
)

// AttachRemainingColors greedily extends t with vertices of colors the tree
// does not use yet. At each step the heaviest non-negative arc from a tree
// vertex to an unused color is taken (ties by arc index), until no such arc
// remains. The added weight is recorded in AttachedScore and included in
// Score; attached nodes are flagged.
func AttachRemainingColors(g *dag.Graph, t *Tree) {
	if len(t.Nodes) == 0 {
		return
	}
	used := make(map[int]bool, len(t.Nodes))
	for _, n := range t.Nodes {
		used[n.Color] = true
	}

	h := &arcHeap{}
	push := func(v int) {
		for _, a := range g.OutArcs(v) {
			if a.Weight >= 0 && !used[g.Color(a.Target)] {
				heap.Push(h, a)
			}
		}
	}
	for _, n := range t.Nodes {
		push(n.Vertex)
	}

	for h.Len() > 0 {
		a := heap.Pop(h).(dag.Arc)
		v := g.Vertex(a.Target)
		if used[v.Color] || t.Contains(a.Target) {
			continue
		}
		used[v.Color] = true
		t.add(Node{Vertex: a.Target, ID: v.ID, Label: v.DisplayLabel(), Color: v.Color, Parent: a.Source, Weight: a.Weight, Attached: true})
		t.AttachedScore += a.Weight
		t.Score += a.Weight
		push(a.Target)
	}
}

// arcHeap is a max-heap of arcs by weight, ties broken by lower arc index.
type arcHeap []dag.Arc

func (h arcHeap) Len() int { return len(h) }
func (h arcHeap) Less(i, j int) bool {
	if h[i].Weight != h[j].Weight {
		return h[i].Weight > h[j].Weight
	}
	return h[i].Index < h[j].Index
}
func (h arcHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *arcHeap) Push(x any)   { *h = append(*h, x.(dag.Arc)) }
func (h *arcHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
