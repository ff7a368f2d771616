package dag

import (
	"cmp"
	"errors"
	"slices"

	fterrors "github.com/matzehuels/fragtree/pkg/errors"
)

var (
	// ErrInvalidVertexID is returned by [Graph.AddVertex] when the vertex ID
	// is empty. All vertices must have non-empty identifiers.
	ErrInvalidVertexID = errors.New("vertex ID must not be empty")

	// ErrDuplicateVertexID is returned by [Graph.AddVertex] when a vertex with
	// the same ID already exists in the graph.
	ErrDuplicateVertexID = errors.New("duplicate vertex ID")

	// ErrColorOutOfRange is returned by [Graph.AddVertex] when the vertex
	// color is not in [0, ColorCount()).
	ErrColorOutOfRange = errors.New("vertex color out of range")

	// ErrUnknownSourceVertex is returned by [Graph.AddLoss] when the From
	// vertex does not exist, or by [Graph.SetRoot] for an unknown root.
	ErrUnknownSourceVertex = errors.New("unknown source vertex")

	// ErrUnknownTargetVertex is returned by [Graph.AddLoss] when the To
	// vertex does not exist in the graph.
	ErrUnknownTargetVertex = errors.New("unknown target vertex")

	// ErrInvalidWeight is returned by [Graph.AddLoss] for NaN or infinite
	// weights.
	ErrInvalidWeight = errors.New("loss weight must be finite")

	// ErrMissingRoot is returned by [Graph.Root] and [Graph.Validate] when no
	// root was set and no unique lowest-rank source exists, or when the root
	// has incoming losses.
	ErrMissingRoot = errors.New("graph has no usable root")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is detected.
	// Cycles are detected using depth-first search with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrNotTopological is returned by [Graph.Validate] when a loss does not
	// run from a lower rank (higher mass) to a higher rank (lower mass).
	ErrNotTopological = errors.New("loss contradicts topological rank")
)

// Metadata stores arbitrary key-value pairs attached to vertices, losses or
// the graph. It is commonly used to carry annotation scores or formula
// details that the solvers ignore. Metadata maps are never nil - they are
// automatically initialized to empty maps when needed.
type Metadata map[string]any

// Vertex is a fragment candidate: one explanation (molecular formula) of one
// peak. The peak is identified by Color; at most one vertex per color can be
// part of a fragmentation tree.
//
// The zero value is not usable - ID must be set before adding to a Graph.
type Vertex struct {
	ID    string   // Unique identifier
	Color int      // Peak index in [0, ColorCount())
	Label string   // Formula or display label (defaults to ID)
	Rank  int      // Topological position, 0 = precursor (highest mass)
	Meta  Metadata // Arbitrary key-value metadata (never nil after AddVertex)
}

// DisplayLabel returns the label if set, otherwise the ID.
func (v Vertex) DisplayLabel() string {
	if v.Label != "" {
		return v.Label
	}
	return v.ID
}

// Loss is a scored directed edge between two fragment candidates as supplied
// by the graph builder. The source has the higher mass.
type Loss struct {
	From   string   // Source vertex ID
	To     string   // Target vertex ID
	Weight float64  // Precomputed score, may be negative
	Meta   Metadata // Arbitrary key-value metadata (never nil after AddLoss)
}

// Arc is the index-based form of a Loss used by the solvers.
// Index is the insertion position of the loss and serves as a stable
// tie-breaker.
type Arc struct {
	Source int
	Target int
	Weight float64
	Index  int
}

// Graph is the fragmentation candidate graph: a DAG of colored vertices
// connected by scored losses. Vertices are addressed by ID at the API
// boundary and by dense index (insertion order) inside the solvers.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent mutation; once built it may be read by any
// number of solvers concurrently.
type Graph struct {
	colors   int
	vertices []*Vertex
	index    map[string]int
	losses   []Loss
	arcs     []Arc
	outgoing [][]int // vertex -> arc indices
	incoming [][]int // vertex -> arc indices
	root     int     // -1 when unset
	meta     Metadata
}

// New creates an empty graph whose vertices use colors in [0, colors).
// The metadata parameter can be nil, in which case an empty map is created.
func New(colors int, meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		colors: colors,
		index:  make(map[string]int),
		root:   -1,
		meta:   meta,
	}
}

// Meta returns the graph-level metadata map.
// The returned map is never nil and can be safely modified.
func (g *Graph) Meta() Metadata { return g.meta }

// ColorCount returns the number of colors C declared at construction.
func (g *Graph) ColorCount() int { return g.colors }

// AddVertex adds a vertex and returns its dense index.
// Returns ErrInvalidVertexID if the ID is empty, ErrDuplicateVertexID if the
// ID is taken, or ErrColorOutOfRange if the color is outside [0, ColorCount()).
func (g *Graph) AddVertex(v Vertex) (int, error) {
	if v.ID == "" {
		return -1, ErrInvalidVertexID
	}
	if _, exists := g.index[v.ID]; exists {
		return -1, ErrDuplicateVertexID
	}
	if v.Color < 0 || v.Color >= g.colors {
		return -1, ErrColorOutOfRange
	}
	if v.Meta == nil {
		v.Meta = Metadata{}
	}
	i := len(g.vertices)
	vertex := v
	g.vertices = append(g.vertices, &vertex)
	g.index[v.ID] = i
	g.outgoing = append(g.outgoing, nil)
	g.incoming = append(g.incoming, nil)
	return i, nil
}

// AddLoss adds a directed, scored loss between two existing vertices.
// Returns ErrUnknownSourceVertex or ErrUnknownTargetVertex for missing
// endpoints and ErrInvalidWeight for non-finite weights.
//
// AddLoss does not check ranks or cycles - use Validate after building.
func (g *Graph) AddLoss(l Loss) error {
	src, ok := g.index[l.From]
	if !ok {
		return ErrUnknownSourceVertex
	}
	dst, ok := g.index[l.To]
	if !ok {
		return ErrUnknownTargetVertex
	}
	if err := fterrors.ValidateWeight(l.Weight); err != nil {
		return ErrInvalidWeight
	}
	if l.Meta == nil {
		l.Meta = Metadata{}
	}
	a := len(g.arcs)
	g.losses = append(g.losses, l)
	g.arcs = append(g.arcs, Arc{Source: src, Target: dst, Weight: l.Weight, Index: a})
	g.outgoing[src] = append(g.outgoing[src], a)
	g.incoming[dst] = append(g.incoming[dst], a)
	return nil
}

// SetRoot designates the tree root. Returns ErrUnknownSourceVertex if the
// ID is not in the graph.
func (g *Graph) SetRoot(id string) error {
	i, ok := g.index[id]
	if !ok {
		return ErrUnknownSourceVertex
	}
	g.root = i
	return nil
}

// Root returns the index of the root vertex. If no root was set, the unique
// source vertex with the lowest rank is used. Returns ErrMissingRoot if the
// graph is empty or the choice is ambiguous.
func (g *Graph) Root() (int, error) {
	if g.root >= 0 {
		return g.root, nil
	}
	best, ambiguous := -1, false
	for i, v := range g.vertices {
		if len(g.incoming[i]) > 0 {
			continue
		}
		switch {
		case best < 0 || v.Rank < g.vertices[best].Rank:
			best, ambiguous = i, false
		case v.Rank == g.vertices[best].Rank:
			ambiguous = true
		}
	}
	if best < 0 || ambiguous {
		return -1, ErrMissingRoot
	}
	return best, nil
}

// VertexCount returns the number of vertices in the graph.
func (g *Graph) VertexCount() int { return len(g.vertices) }

// ArcCount returns the number of losses in the graph.
func (g *Graph) ArcCount() int { return len(g.arcs) }

// Vertex returns the vertex at index i. The returned pointer refers to the
// graph's own vertex; callers must not change ID or Color.
func (g *Graph) Vertex(i int) *Vertex { return g.vertices[i] }

// Index returns the dense index of the vertex with the given ID.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Color returns the color of vertex i.
func (g *Graph) Color(i int) int { return g.vertices[i].Color }

// Arc returns the arc with the given insertion index.
func (g *Graph) Arc(a int) Arc { return g.arcs[a] }

// Arcs returns a copy of all arcs in insertion order.
func (g *Graph) Arcs() []Arc { return slices.Clone(g.arcs) }

// Losses returns a copy of all losses in insertion order.
func (g *Graph) Losses() []Loss { return slices.Clone(g.losses) }

// OutArcs returns the arcs leaving vertex i in insertion order.
func (g *Graph) OutArcs(i int) []Arc {
	out := make([]Arc, len(g.outgoing[i]))
	for k, a := range g.outgoing[i] {
		out[k] = g.arcs[a]
	}
	return out
}

// InArcs returns the arcs entering vertex i in insertion order.
func (g *Graph) InArcs(i int) []Arc {
	in := make([]Arc, len(g.incoming[i]))
	for k, a := range g.incoming[i] {
		in[k] = g.arcs[a]
	}
	return in
}

// OutDegree returns the number of losses leaving vertex i.
func (g *Graph) OutDegree(i int) int { return len(g.outgoing[i]) }

// InDegree returns the number of losses entering vertex i.
func (g *Graph) InDegree(i int) int { return len(g.incoming[i]) }

// VerticesOfColor returns the indices of all vertices with color c.
func (g *Graph) VerticesOfColor(c int) []int {
	var out []int
	for i, v := range g.vertices {
		if v.Color == c {
			out = append(out, i)
		}
	}
	return out
}

// TopologicalOrder returns all vertex indices sorted by ascending rank,
// ties broken by index. For a valid graph every loss points forward in this
// order.
func (g *Graph) TopologicalOrder() []int {
	order := make([]int, len(g.vertices))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(g.vertices[a].Rank, g.vertices[b].Rank)
	})
	return order
}

// Reachable returns a mask of the vertices reachable from vertex from,
// including from itself.
func (g *Graph) Reachable(from int) []bool {
	seen := make([]bool, len(g.vertices))
	seen[from] = true
	queue := []int{from}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, a := range g.outgoing[v] {
			if t := g.arcs[a].Target; !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}
	return seen
}

// Validate checks graph integrity and returns nil if valid.
// It verifies three constraints:
//
//  1. A root exists and has no incoming losses
//  2. The graph is acyclic (no directed cycles exist)
//  3. Every loss runs from a lower to a higher rank
//
// Returns ErrMissingRoot, ErrGraphHasCycle or ErrNotTopological. An empty
// graph is valid. Cycle detection runs in O(V+E) time using an iterative
// depth-first search.
func (g *Graph) Validate() error {
	if len(g.vertices) == 0 {
		return nil
	}
	root, err := g.Root()
	if err != nil {
		return err
	}
	if len(g.incoming[root]) > 0 {
		return ErrMissingRoot
	}
	if err := g.detectCycles(); err != nil {
		return err
	}
	return g.validateRanks()
}

func (g *Graph) validateRanks() error {
	for _, a := range g.arcs {
		if g.vertices[a.Source].Rank >= g.vertices[a.Target].Rank {
			return ErrNotTopological
		}
	}
	return nil
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	type frame struct {
		v    int
		next int // position in outgoing[v]
	}

	color := make([]int, len(g.vertices))
	for start := range g.vertices {
		if color[start] != white {
			continue
		}
		stack := []frame{{v: start}}
		color[start] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(g.outgoing[top.v]) {
				color[top.v] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := g.arcs[g.outgoing[top.v][top.next]].Target
			top.next++
			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frame{v: child})
			case gray:
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// IDs extracts the vertex IDs for a list of indices.
func (g *Graph) IDs(indices []int) []string {
	ids := make([]string, len(indices))
	for k, i := range indices {
		ids[k] = g.vertices[i].ID
	}
	return ids
}
