package solver

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/matzehuels/fragtree/pkg/dag"
)

type vspec struct {
	id    string
	color int
}

type lspec struct {
	from, to string
	w        float64
}

// build creates a graph whose ranks follow the vertex order.
func build(t testing.TB, colors int, vs []vspec, ls []lspec) *dag.Graph {
	t.Helper()
	g := dag.New(colors, nil)
	for i, v := range vs {
		if _, err := g.AddVertex(dag.Vertex{ID: v.id, Color: v.color, Rank: i}); err != nil {
			t.Fatalf("AddVertex(%s): %v", v.id, err)
		}
	}
	for _, l := range ls {
		if err := g.AddLoss(dag.Loss{From: l.from, To: l.to, Weight: l.w}); err != nil {
			t.Fatalf("AddLoss(%s->%s): %v", l.from, l.to, err)
		}
	}
	return g
}

// starGraph is the four-color example: the color-2 loss is negative.
func starGraph(t testing.TB) *dag.Graph {
	return build(t, 4,
		[]vspec{{"r", 0}, {"a", 1}, {"b", 2}, {"c", 3}},
		[]lspec{{"r", "a", 5}, {"r", "b", -2}, {"r", "c", 3}},
	)
}

// randomGraph draws a candidate graph with one root and n-1 further
// vertices over the given number of colors.
func randomGraph(t testing.TB, seed uint64, n, colors int, density float64) *dag.Graph {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	g := dag.New(colors, nil)
	if _, err := g.AddVertex(dag.Vertex{ID: "v0", Color: 0, Rank: 0}); err != nil {
		t.Fatalf("AddVertex(v0): %v", err)
	}
	for i := 1; i < n; i++ {
		if _, err := g.AddVertex(dag.Vertex{ID: "v" + strconv.Itoa(i), Color: 1 + rng.IntN(colors-1), Rank: i}); err != nil {
			t.Fatalf("AddVertex(v%d): %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() >= density {
				continue
			}
			w := float64(rng.IntN(17)-6) / 2
			if err := g.AddLoss(dag.Loss{From: "v" + strconv.Itoa(i), To: "v" + strconv.Itoa(j), Weight: w}); err != nil {
				t.Fatalf("AddLoss(v%d->v%d): %v", i, j, err)
			}
		}
	}
	return g
}

// bruteForce returns the best colorful subtree score by trying every arc
// subset. Only usable for graphs with few arcs.
func bruteForce(g *dag.Graph) float64 {
	root, _ := g.Root()
	arcs := g.Arcs()
	best := 0.0
	for mask := 1; mask < 1<<len(arcs); mask++ {
		in := map[int]bool{root: true}
		colors := map[int]bool{g.Color(root): true}
		score, ok := 0.0, true
		// Arcs are added in topological order of their targets, so a
		// connected selection always has its source in place.
		for _, v := range g.TopologicalOrder() {
			for _, a := range arcs {
				if mask&(1<<a.Index) == 0 || a.Target != v {
					continue
				}
				if in[v] || colors[g.Color(v)] || !in[a.Source] {
					ok = false
					break
				}
				in[v] = true
				colors[g.Color(v)] = true
				score += a.Weight
			}
			if !ok {
				break
			}
		}
		if ok && score > best {
			best = score
		}
	}
	return best
}
