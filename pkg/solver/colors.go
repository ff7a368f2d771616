package solver

import (
	"math"
	"slices"

	"github.com/matzehuels/fragtree/pkg/dag"
	"github.com/matzehuels/fragtree/pkg/subset"
)

// palette maps graph colors to DP bit positions.
type palette struct {
	slot      []int // color -> bit position, -1 when excluded
	rootColor int
	size      int // number of DP bits
	dropped   int // reachable non-root colors left out of the DP
}

// bit returns the key bit of vertex color c, or 0 for the root color and
// excluded colors.
func (p palette) bit(c int) subset.Key {
	if s := p.slot[c]; s >= 0 {
		return subset.Bit(s)
	}
	return 0
}

func (p palette) included(c int) bool { return c == p.rootColor || p.slot[c] >= 0 }

// selectColors picks the DP palette. When every non-root color reachable from
// the root fits into maxColors-1 bits, all of them are used. Otherwise colors
// are added one at a time, each round taking the color on the heaviest
// root-to-leaf path whose prefix runs only through colors picked so far
// (ties by lower color). Every picked color is therefore reachable inside
// the palette. Chosen colors get bit positions in ascending color order.
func selectColors(g *dag.Graph, root int, reach []bool, maxColors int) palette {
	p := palette{slot: make([]int, g.ColorCount()), rootColor: g.Color(root)}
	for c := range p.slot {
		p.slot[c] = -1
	}

	pending := make([]bool, g.ColorCount())
	candidates := 0
	for v, ok := range reach {
		if c := g.Color(v); ok && c != p.rootColor && !pending[c] {
			pending[c] = true
			candidates++
		}
	}

	picked := make([]bool, g.ColorCount())
	budget := maxColors - 1
	if candidates <= budget {
		copy(picked, pending)
	} else {
		pickReachable(g, root, reach, p.rootColor, pending, picked, budget)
	}

	var colors []int
	for c, ok := range picked {
		if ok {
			colors = append(colors, c)
		}
	}
	slices.Sort(colors)
	for i, c := range colors {
		p.slot[c] = i
	}
	p.size = len(colors)
	p.dropped = candidates - p.size
	return p
}

// pickReachable marks up to budget colors in picked, moving them out of
// pending.
func pickReachable(g *dag.Graph, root int, reach []bool, rootColor int, pending, picked []bool, budget int) {
	order := g.TopologicalOrder()
	negInf := math.Inf(-1)

	// down[v] is the heaviest path leaving v, or 0 when stopping pays more.
	down := make([]float64, g.VertexCount())
	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		if !reach[v] {
			continue
		}
		for _, a := range g.OutArcs(v) {
			if w := a.Weight + down[a.Target]; w > down[v] {
				down[v] = w
			}
		}
	}

	dist := make([]float64, g.VertexCount())
	gain := make([]float64, g.ColorCount())
	for n := 0; n < budget; n++ {
		for i := range dist {
			dist[i] = negInf
		}
		for i := range gain {
			gain[i] = negInf
		}
		dist[root] = 0
		for _, v := range order {
			if !reach[v] || v == root {
				continue
			}
			c := g.Color(v)
			if c == rootColor {
				continue
			}
			for _, a := range g.InArcs(v) {
				d := dist[a.Source]
				if math.IsInf(d, -1) {
					continue
				}
				if picked[c] {
					dist[v] = max(dist[v], d+a.Weight)
				} else if pending[c] {
					gain[c] = max(gain[c], d+a.Weight+down[v])
				}
			}
		}

		best := -1
		for c, ok := range pending {
			if ok && !math.IsInf(gain[c], -1) && (best < 0 || gain[c] > gain[best]) {
				best = c
			}
		}
		if best < 0 {
			return
		}
		pending[best] = false
		picked[best] = true
	}
}
