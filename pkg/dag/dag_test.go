package dag

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"testing"
)

func buildGraph(t *testing.T, colors int, vertices []Vertex, losses []Loss) *Graph {
	t.Helper()
	g := New(colors, nil)
	for _, v := range vertices {
		if _, err := g.AddVertex(v); err != nil {
			t.Fatalf("AddVertex(%s): %v", v.ID, err)
		}
	}
	for _, l := range losses {
		if err := g.AddLoss(l); err != nil {
			t.Fatalf("AddLoss(%s->%s): %v", l.From, l.To, err)
		}
	}
	return g
}

func TestAddVertexErrors(t *testing.T) {
	g := New(2, nil)
	if _, err := g.AddVertex(Vertex{ID: "a", Color: 0}); err != nil {
		t.Fatalf("AddVertex: %v", err)
	}

	tests := []struct {
		name string
		v    Vertex
		want error
	}{
		{"empty id", Vertex{ID: "", Color: 0}, ErrInvalidVertexID},
		{"duplicate", Vertex{ID: "a", Color: 1}, ErrDuplicateVertexID},
		{"negative color", Vertex{ID: "b", Color: -1}, ErrColorOutOfRange},
		{"color too large", Vertex{ID: "b", Color: 2}, ErrColorOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.AddVertex(tt.v); !errors.Is(err, tt.want) {
				t.Errorf("AddVertex() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddVertexAssignsDenseIndices(t *testing.T) {
	g := New(3, nil)
	for i, id := range []string{"x", "y", "z"} {
		got, err := g.AddVertex(Vertex{ID: id, Color: i})
		if err != nil {
			t.Fatalf("AddVertex: %v", err)
		}
		if got != i {
			t.Errorf("index of %s = %d, want %d", id, got, i)
		}
	}
	if i, ok := g.Index("y"); !ok || i != 1 {
		t.Errorf("Index(y) = %d, %v", i, ok)
	}
	if g.Vertex(2).Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddLossErrors(t *testing.T) {
	g := buildGraph(t, 2, []Vertex{{ID: "a", Color: 0}, {ID: "b", Color: 1, Rank: 1}}, nil)

	tests := []struct {
		name string
		l    Loss
		want error
	}{
		{"unknown source", Loss{From: "x", To: "b"}, ErrUnknownSourceVertex},
		{"unknown target", Loss{From: "a", To: "x"}, ErrUnknownTargetVertex},
		{"nan weight", Loss{From: "a", To: "b", Weight: math.NaN()}, ErrInvalidWeight},
		{"inf weight", Loss{From: "a", To: "b", Weight: math.Inf(-1)}, ErrInvalidWeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddLoss(tt.l); !errors.Is(err, tt.want) {
				t.Errorf("AddLoss() error = %v, want %v", err, tt.want)
			}
		})
	}
	if g.ArcCount() != 0 {
		t.Errorf("ArcCount() = %d, want 0 after failed adds", g.ArcCount())
	}
}

func TestArcsAndAdjacency(t *testing.T) {
	g := buildGraph(t, 3,
		[]Vertex{{ID: "r", Color: 0}, {ID: "a", Color: 1, Rank: 1}, {ID: "b", Color: 2, Rank: 2}},
		[]Loss{
			{From: "r", To: "a", Weight: 1.5},
			{From: "r", To: "b", Weight: -2},
			{From: "a", To: "b", Weight: 0.5},
		})

	out := g.OutArcs(0)
	if len(out) != 2 || out[0].Target != 1 || out[1].Target != 2 {
		t.Fatalf("OutArcs(r) = %+v", out)
	}
	if out[1].Weight != -2 || out[1].Index != 1 {
		t.Errorf("second arc = %+v", out[1])
	}
	in := g.InArcs(2)
	if len(in) != 2 || in[0].Source != 0 || in[1].Source != 1 {
		t.Errorf("InArcs(b) = %+v", in)
	}
	if g.OutDegree(1) != 1 || g.InDegree(0) != 0 {
		t.Errorf("degrees: out(a)=%d in(r)=%d", g.OutDegree(1), g.InDegree(0))
	}
}

func TestRoot(t *testing.T) {
	t.Run("unique lowest-rank source", func(t *testing.T) {
		g := buildGraph(t, 3,
			[]Vertex{{ID: "b", Color: 1, Rank: 1}, {ID: "r", Color: 0}, {ID: "c", Color: 2, Rank: 2}},
			[]Loss{{From: "r", To: "b", Weight: 1}})
		root, err := g.Root()
		if err != nil || root != 1 {
			t.Errorf("Root() = %d, %v; want 1", root, err)
		}
	})

	t.Run("ambiguous", func(t *testing.T) {
		g := buildGraph(t, 2, []Vertex{{ID: "a", Color: 0}, {ID: "b", Color: 1}}, nil)
		if _, err := g.Root(); !errors.Is(err, ErrMissingRoot) {
			t.Errorf("Root() error = %v, want ErrMissingRoot", err)
		}
	})

	t.Run("explicit", func(t *testing.T) {
		g := buildGraph(t, 2, []Vertex{{ID: "a", Color: 0}, {ID: "b", Color: 1}}, nil)
		if err := g.SetRoot("b"); err != nil {
			t.Fatal(err)
		}
		if root, _ := g.Root(); root != 1 {
			t.Errorf("Root() = %d, want 1", root)
		}
		if err := g.SetRoot("zz"); !errors.Is(err, ErrUnknownSourceVertex) {
			t.Errorf("SetRoot(zz) error = %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := New(1, nil).Root(); !errors.Is(err, ErrMissingRoot) {
			t.Errorf("Root() error = %v, want ErrMissingRoot", err)
		}
	})
}

func TestValidate(t *testing.T) {
	vertices := []Vertex{
		{ID: "r", Color: 0, Rank: 0},
		{ID: "a", Color: 1, Rank: 1},
		{ID: "b", Color: 2, Rank: 2},
	}

	tests := []struct {
		name   string
		losses []Loss
		root   string
		want   error
	}{
		{"valid", []Loss{{From: "r", To: "a"}, {From: "a", To: "b"}}, "", nil},
		{"cycle", []Loss{{From: "r", To: "a"}, {From: "a", To: "b"}, {From: "b", To: "a"}}, "", ErrGraphHasCycle},
		{"rank violation", []Loss{{From: "r", To: "b"}, {From: "b", To: "a"}}, "", ErrNotTopological},
		{"root with parent", []Loss{{From: "r", To: "a"}}, "a", ErrMissingRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, 3, vertices, tt.losses)
			if tt.root != "" {
				_ = g.SetRoot(tt.root)
			}
			if err := g.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	if err := New(3, nil).Validate(); err != nil {
		t.Errorf("empty graph Validate() = %v, want nil", err)
	}
}

func TestValidateDeepChainDoesNotRecurse(t *testing.T) {
	const n = 20000
	g := New(n, nil)
	prev := ""
	for i := 0; i < n; i++ {
		id := "v" + strconv.Itoa(i)
		if _, err := g.AddVertex(Vertex{ID: id, Color: i, Rank: i}); err != nil {
			t.Fatal(err)
		}
		if prev != "" {
			if err := g.AddLoss(Loss{From: prev, To: id, Weight: 1}); err != nil {
				t.Fatal(err)
			}
		}
		prev = id
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestTopologicalOrderAndReachable(t *testing.T) {
	g := buildGraph(t, 4,
		[]Vertex{
			{ID: "c", Color: 2, Rank: 2},
			{ID: "r", Color: 0, Rank: 0},
			{ID: "a", Color: 1, Rank: 1},
			{ID: "island", Color: 3, Rank: 1},
		},
		[]Loss{{From: "r", To: "a"}, {From: "a", To: "c"}})

	order := g.IDs(g.TopologicalOrder())
	want := []string{"r", "a", "island", "c"}
	if !slices.Equal(order, want) {
		t.Errorf("TopologicalOrder() = %v, want %v", order, want)
	}

	r, _ := g.Index("r")
	reach := g.Reachable(r)
	island, _ := g.Index("island")
	if reach[island] {
		t.Error("island should not be reachable")
	}
	c, _ := g.Index("c")
	if !reach[c] || !reach[r] {
		t.Error("chain vertices should be reachable")
	}
}

func TestVerticesOfColor(t *testing.T) {
	g := buildGraph(t, 2,
		[]Vertex{{ID: "r", Color: 0}, {ID: "x1", Color: 1, Rank: 1}, {ID: "x2", Color: 1, Rank: 1}}, nil)
	if got := g.VerticesOfColor(1); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("VerticesOfColor(1) = %v", got)
	}
	if got := g.VerticesOfColor(0); !slices.Equal(got, []int{0}) {
		t.Errorf("VerticesOfColor(0) = %v", got)
	}
}
