package solver

import (
	"context"
	"slices"

	"github.com/matzehuels/fragtree/pkg/dag"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// scaffold is the shared state of the heuristic builders: tree membership,
// color ownership and parent arcs. It never holds two vertices of one color.
type scaffold struct {
	g      *dag.Graph
	root   int
	in     []bool
	parent []int // vertex -> arc index, -1 when unset
	owner  []int // color -> vertex, -1 when free
}

func newScaffold(g *dag.Graph, root int) *scaffold {
	s := &scaffold{
		g:      g,
		root:   root,
		in:     make([]bool, g.VertexCount()),
		parent: make([]int, g.VertexCount()),
		owner:  make([]int, g.ColorCount()),
	}
	for i := range s.parent {
		s.parent[i] = -1
	}
	for i := range s.owner {
		s.owner[i] = -1
	}
	s.in[root] = true
	s.owner[g.Color(root)] = root
	return s
}

// free reports whether v could join: its color is unowned.
func (s *scaffold) free(v int) bool { return s.owner[s.g.Color(v)] < 0 }

// canAttach reports whether arc a extends the tree by a new colorful vertex.
func (s *scaffold) canAttach(a dag.Arc) bool {
	return s.in[a.Source] && !s.in[a.Target] && s.free(a.Target)
}

func (s *scaffold) attach(a dag.Arc) {
	s.in[a.Target] = true
	s.parent[a.Target] = a.Index
	s.owner[s.g.Color(a.Target)] = a.Target
}

// reparent moves tree vertex x under the arc a, which must end in x.
func (s *scaffold) reparent(a dag.Arc) {
	s.parent[a.Target] = a.Index
}

func (s *scaffold) parentWeight(v int) float64 {
	return s.g.Arc(s.parent[v]).Weight
}

// children groups tree vertices by parent, ordered by arc index.
func (s *scaffold) children() [][]int {
	kids := make([][]int, s.g.VertexCount())
	for v, a := range s.parent {
		if a >= 0 && s.in[v] {
			p := s.g.Arc(a).Source
			kids[p] = append(kids[p], v)
		}
	}
	for _, k := range kids {
		slices.SortFunc(k, func(x, y int) int { return s.parent[x] - s.parent[y] })
	}
	return kids
}

// prune drops every subtree whose incoming arc plus subtree gain is
// negative, bottom-up, and releases the dropped colors.
func (s *scaffold) prune() {
	kids := s.children()
	gain := make([]float64, s.g.VertexCount())
	order := s.g.TopologicalOrder()
	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		if !s.in[v] {
			continue
		}
		for _, c := range kids[v] {
			if s.in[c] {
				gain[v] += s.parentWeight(c) + gain[c]
			}
		}
		if v != s.root && s.parentWeight(v)+gain[v] < 0 {
			s.drop(v, kids)
		}
	}
}

func (s *scaffold) drop(v int, kids [][]int) {
	stack := []int{v}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !s.in[x] {
			continue
		}
		s.in[x] = false
		s.parent[x] = -1
		s.owner[s.g.Color(x)] = -1
		stack = append(stack, kids[x]...)
	}
}

// trace lists the tree arcs breadth-first from the root.
func (s *scaffold) trace() tree.Trace {
	kids := s.children()
	tr := tree.Trace{Root: s.root}
	queue := []int{s.root}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, c := range kids[v] {
			tr.Arcs = append(tr.Arcs, s.parent[c])
			queue = append(queue, c)
		}
	}
	return tr
}

// heuristic adapts a construction function to the Builder contract.
type heuristic struct {
	name  string
	build func(s *scaffold)
}

func (h heuristic) trees(ctx context.Context, g *dag.Graph, lowerbound float64) ([]*tree.Tree, error) {
	return run(ctx, h.name, g, lowerbound, func(_ context.Context, g *dag.Graph, root int) ([]*tree.Tree, error) {
		t, err := h.construct(g, root)
		if err != nil {
			return nil, err
		}
		return []*tree.Tree{t}, nil
	})
}

func (h heuristic) construct(g *dag.Graph, root int) (*tree.Tree, error) {
	s := newScaffold(g, root)
	h.build(s)
	s.prune()
	return tree.Extractor{}.Extract(g, s.trace(), h.name)
}

// heuristics lists every heuristic construction, in Strategies order.
func heuristics(rdeFactor float64) []heuristic {
	return []heuristic{
		{name: string(StrategyGreedy), build: buildGreedy},
		{name: string(StrategyPrim), build: Prim{}.build},
		{name: string(StrategyPrimStar), build: Prim{Star: true}.build},
		{name: string(StrategyCriticalPath), build: buildCriticalPath},
		{name: string(StrategyGreedyRDE), build: GreedyRDE{Factor: rdeFactor}.build},
	}
}

// bestHeuristic returns the highest scoring heuristic tree. Ties keep the
// earlier heuristic.
func bestHeuristic(ctx context.Context, g *dag.Graph, root int, rdeFactor float64) (*tree.Tree, error) {
	var best *tree.Tree
	for _, h := range heuristics(rdeFactor) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := h.construct(g, root)
		if err != nil {
			return nil, err
		}
		if best == nil || t.Score > best.Score {
			best = t
		}
	}
	return best, nil
}

// byWeight orders arcs by weight descending, then by index.
func byWeight(a, b dag.Arc) int {
	switch {
	case a.Weight > b.Weight:
		return -1
	case a.Weight < b.Weight:
		return 1
	}
	return a.Index - b.Index
}
