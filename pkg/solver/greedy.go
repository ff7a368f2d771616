package solver

import (
	"context"
	"slices"

	"github.com/matzehuels/fragtree/pkg/dag"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// Greedy picks the heaviest legal arcs first. It grows a colorful forest of
// positive arcs, keeps the component hanging from the root and then extends
// it with the best positive arc to a free color until none is left.
type Greedy struct{}

// Name implements Builder.
func (Greedy) Name() string { return string(StrategyGreedy) }

// BuildTree implements Builder.
func (b Greedy) BuildTree(ctx context.Context, g *dag.Graph, lowerbound float64) (*tree.Tree, error) {
	return first(b.BuildMultipleTrees(ctx, g, lowerbound))
}

// BuildMultipleTrees implements Builder.
func (b Greedy) BuildMultipleTrees(ctx context.Context, g *dag.Graph, lowerbound float64) ([]*tree.Tree, error) {
	return heuristic{name: b.Name(), build: buildGreedy}.trees(ctx, g, lowerbound)
}

func buildGreedy(s *scaffold) {
	arcs := s.g.Arcs()
	slices.SortFunc(arcs, byWeight)

	// Forest: every vertex gets at most one parent, a color is held by at
	// most one vertex.
	for _, a := range arcs {
		if a.Weight <= 0 {
			break
		}
		if a.Target == s.root || s.parent[a.Target] >= 0 {
			continue
		}
		cs, ct := s.g.Color(a.Source), s.g.Color(a.Target)
		if cs == ct {
			continue
		}
		if o := s.owner[cs]; o >= 0 && o != a.Source {
			continue
		}
		if o := s.owner[ct]; o >= 0 && o != a.Target {
			continue
		}
		s.owner[cs] = a.Source
		s.owner[ct] = a.Target
		s.parent[a.Target] = a.Index
	}

	// Keep the root component.
	for _, v := range s.g.TopologicalOrder() {
		if v == s.root {
			continue
		}
		if a := s.parent[v]; a >= 0 && s.in[s.g.Arc(a).Source] {
			s.in[v] = true
		}
	}
	for v := range s.in {
		if !s.in[v] {
			s.parent[v] = -1
			if s.owner[s.g.Color(v)] == v {
				s.owner[s.g.Color(v)] = -1
			}
		}
	}

	// Extend from the tree.
	for {
		best, found := dag.Arc{}, false
		for _, a := range arcs {
			if a.Weight <= 0 {
				break
			}
			if s.canAttach(a) {
				best, found = a, true
				break
			}
		}
		if !found {
			return
		}
		s.attach(best)
	}
}
