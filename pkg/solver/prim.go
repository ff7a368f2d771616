package solver

import (
	"container/heap"
	"context"

	"github.com/matzehuels/fragtree/pkg/dag"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// Prim grows the tree from the root like Prim's algorithm for maximum
// spanning trees: the heaviest positive frontier arc to a free color is
// attached next.
//
// With Star set, every newly attached vertex v may also adopt tree vertices:
// a vertex x with an arc v->x heavier than its current parent arc is re-hung
// under v. The candidate graph is acyclic, so x is never an ancestor of v.
type Prim struct {
	Star bool
}

// Name implements Builder.
func (p Prim) Name() string {
	if p.Star {
		return string(StrategyPrimStar)
	}
	return string(StrategyPrim)
}

// BuildTree implements Builder.
func (p Prim) BuildTree(ctx context.Context, g *dag.Graph, lowerbound float64) (*tree.Tree, error) {
	return first(p.BuildMultipleTrees(ctx, g, lowerbound))
}

// BuildMultipleTrees implements Builder.
func (p Prim) BuildMultipleTrees(ctx context.Context, g *dag.Graph, lowerbound float64) ([]*tree.Tree, error) {
	return heuristic{name: p.Name(), build: p.build}.trees(ctx, g, lowerbound)
}

func (p Prim) build(s *scaffold) {
	h := &maxArcHeap{}
	push := func(v int) {
		for _, a := range s.g.OutArcs(v) {
			if a.Weight > 0 {
				heap.Push(h, a)
			}
		}
	}
	push(s.root)

	for h.Len() > 0 {
		a := heap.Pop(h).(dag.Arc)
		if !s.canAttach(a) {
			continue
		}
		s.attach(a)
		if p.Star {
			p.adopt(s, a.Target)
		}
		push(a.Target)
	}
}

func (Prim) adopt(s *scaffold, v int) {
	for _, a := range s.g.OutArcs(v) {
		x := a.Target
		if !s.in[x] || x == s.root {
			continue
		}
		if a.Weight > s.parentWeight(x) {
			s.reparent(a)
		}
	}
}

// maxArcHeap pops the heaviest arc first, ties by lower arc index.
type maxArcHeap []dag.Arc

func (h maxArcHeap) Len() int           { return len(h) }
func (h maxArcHeap) Less(i, j int) bool { return byWeight(h[i], h[j]) < 0 }
func (h maxArcHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxArcHeap) Push(x any)        { *h = append(*h, x.(dag.Arc)) }
func (h *maxArcHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
