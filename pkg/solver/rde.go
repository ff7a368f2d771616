package solver

import (
	"context"

	"github.com/matzehuels/fragtree/pkg/dag"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// GreedyRDE is a greedy frontier search guided by a remaining-degree
// estimate. An arc u->x is ranked by its weight plus Factor times the
// potential of x: the sum over free colors of the heaviest positive arc from
// x into that color. Vertices that open up many good losses are preferred.
type GreedyRDE struct {
	Factor float64
}

// Name implements Builder.
func (GreedyRDE) Name() string { return string(StrategyGreedyRDE) }

// BuildTree implements Builder.
func (b GreedyRDE) BuildTree(ctx context.Context, g *dag.Graph, lowerbound float64) (*tree.Tree, error) {
	return first(b.BuildMultipleTrees(ctx, g, lowerbound))
}

// BuildMultipleTrees implements Builder.
func (b GreedyRDE) BuildMultipleTrees(ctx context.Context, g *dag.Graph, lowerbound float64) ([]*tree.Tree, error) {
	return heuristic{name: b.Name(), build: b.build}.trees(ctx, g, lowerbound)
}

func (b GreedyRDE) build(s *scaffold) {
	arcs := s.g.Arcs()
	for {
		best, bestPriority := -1, 0.0
		for _, a := range arcs {
			if !s.canAttach(a) {
				continue
			}
			if p := a.Weight + b.Factor*potential(s, a.Target); p > bestPriority {
				best, bestPriority = a.Index, p
			}
		}
		if best < 0 {
			return
		}
		s.attach(s.g.Arc(best))
	}
}

func potential(s *scaffold, x int) float64 {
	own := s.g.Color(x)
	best := make([]float64, s.g.ColorCount())
	for _, a := range s.g.OutArcs(x) {
		c := s.g.Color(a.Target)
		if c != own && s.free(a.Target) && a.Weight > best[c] {
			best[c] = a.Weight
		}
	}
	var sum float64
	for _, w := range best {
		sum += w
	}
	return sum
}
