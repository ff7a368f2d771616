package solver

import (
	"context"

	"github.com/matzehuels/fragtree/pkg/dag"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// CriticalPath commits the heaviest path leaving the tree first, then
// repeats on what is left. Paths run through vertices of free colors only.
type CriticalPath struct{}

// Name implements Builder.
func (CriticalPath) Name() string { return string(StrategyCriticalPath) }

// BuildTree implements Builder.
func (b CriticalPath) BuildTree(ctx context.Context, g *dag.Graph, lowerbound float64) (*tree.Tree, error) {
	return first(b.BuildMultipleTrees(ctx, g, lowerbound))
}

// BuildMultipleTrees implements Builder.
func (b CriticalPath) BuildMultipleTrees(ctx context.Context, g *dag.Graph, lowerbound float64) ([]*tree.Tree, error) {
	return heuristic{name: b.Name(), build: buildCriticalPath}.trees(ctx, g, lowerbound)
}

func buildCriticalPath(s *scaffold) {
	order := s.g.TopologicalOrder()
	n := s.g.VertexCount()
	down := make([]float64, n)
	next := make([]int, n) // arc continuing the best path, -1 to stop

	for {
		// Longest non-negative path hanging below each free vertex.
		for i := len(order) - 1; i >= 0; i-- {
			v := order[i]
			down[v], next[v] = 0, -1
			if s.in[v] || !s.free(v) {
				continue
			}
			for _, a := range s.g.OutArcs(v) {
				u := a.Target
				if s.in[u] || !s.free(u) || s.g.Color(u) == s.g.Color(v) {
					continue
				}
				if gain := a.Weight + down[u]; gain > down[v] {
					down[v], next[v] = gain, a.Index
				}
			}
		}

		best, bestGain := -1, 0.0
		for _, a := range s.g.Arcs() {
			if !s.canAttach(a) {
				continue
			}
			if gain := a.Weight + down[a.Target]; gain > bestGain {
				best, bestGain = a.Index, gain
			}
		}
		if best < 0 {
			return
		}

		// Commit the path, stopping at the first color already taken.
		for a := best; a >= 0; {
			arc := s.g.Arc(a)
			if !s.canAttach(arc) {
				break
			}
			s.attach(arc)
			a = next[arc.Target]
		}
	}
}
