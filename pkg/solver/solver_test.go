package solver

import (
	"context"
	"errors"
	"math"
	"slices"
	"strconv"
	"testing"

	"github.com/matzehuels/fragtree/pkg/dag"
	fterrors "github.com/matzehuels/fragtree/pkg/errors"
	"github.com/matzehuels/fragtree/pkg/subset"
	"github.com/matzehuels/fragtree/pkg/tree"
)

const eps = 1e-9

func allBuilders(t *testing.T, opts Options) []Builder {
	t.Helper()
	var out []Builder
	for _, s := range Strategies() {
		b, err := New(s, opts)
		if err != nil {
			t.Fatalf("New(%s): %v", s, err)
		}
		if b.Name() != string(s) {
			t.Fatalf("New(%s).Name() = %q", s, b.Name())
		}
		out = append(out, b)
	}
	return out
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Exact.Pool = subset.NewPool(0)
	return opts
}

func newExact(t *testing.T, opts ExactOptions) *Exact {
	t.Helper()
	if opts.Pool == nil {
		opts.Pool = subset.NewPool(0)
	}
	e, err := NewExact(opts)
	if err != nil {
		t.Fatalf("NewExact: %v", err)
	}
	return e
}

func mustBuild(t *testing.T, b Builder, g *dag.Graph) *tree.Tree {
	t.Helper()
	tr, err := b.BuildTree(context.Background(), g, math.Inf(-1))
	if err != nil {
		t.Fatalf("%s.BuildTree: %v", b.Name(), err)
	}
	if tr == nil {
		t.Fatalf("%s.BuildTree returned no tree", b.Name())
	}
	return tr
}

func checkColorfulTree(t *testing.T, g *dag.Graph, tr *tree.Tree) {
	t.Helper()
	if err := tr.Validate(g); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	root, err := g.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if tr.Root() != root {
		t.Errorf("tree root = %d, want %d", tr.Root(), root)
	}
	colors := map[int]bool{}
	for _, n := range tr.Nodes {
		if colors[n.Color] {
			t.Errorf("color %d used twice", n.Color)
		}
		colors[n.Color] = true
	}
}

// checkDominance fails when a heuristic outscores the exact solver on g.
func checkDominance(t *testing.T, g *dag.Graph, builders []Builder, label string) {
	t.Helper()
	exact := mustBuild(t, builders[0], g)
	checkColorfulTree(t, g, exact)
	for _, b := range builders[1:] {
		tr := mustBuild(t, b, g)
		checkColorfulTree(t, g, tr)
		if tr.Score > exact.Score+eps {
			t.Errorf("%s: %s=%g beats exact=%g", label, b.Name(), tr.Score, exact.Score)
		}
	}
}

func TestStarExample(t *testing.T) {
	g := starGraph(t)
	for _, b := range allBuilders(t, testOptions()) {
		t.Run(b.Name(), func(t *testing.T) {
			tr := mustBuild(t, b, g)
			checkColorfulTree(t, g, tr)
			if tr.Score != 8 {
				t.Errorf("score = %g, want 8", tr.Score)
			}
			if got := tr.VertexSet(); !slices.Equal(got, []int{0, 1, 3}) {
				t.Errorf("vertices = %v, want [0 1 3]", got)
			}
			if tr.Strategy != b.Name() {
				t.Errorf("strategy = %q, want %q", tr.Strategy, b.Name())
			}
		})
	}
}

func TestExactMatchesBruteForce(t *testing.T) {
	b := newExact(t, ExactOptions{})
	for seed := uint64(1); seed <= 40; seed++ {
		g := randomGraph(t, seed, 6, 5, 0.6)
		if g.ArcCount() > 15 {
			continue
		}
		tr := mustBuild(t, b, g)
		checkColorfulTree(t, g, tr)
		if want := bruteForce(g); math.Abs(tr.Score-want) > eps {
			t.Errorf("seed %d: score = %g, want %g", seed, tr.Score, want)
		}
	}
}

func TestPropertiesOnRandomGraphs(t *testing.T) {
	builders := allBuilders(t, testOptions())
	for seed := uint64(100); seed < 130; seed++ {
		g := randomGraph(t, seed, 14, 9, 0.35)
		for _, b := range builders {
			tr := mustBuild(t, b, g)
			again := mustBuild(t, b, g)
			if tr.Score != again.Score {
				t.Errorf("%s not deterministic on seed %d: %g then %g", b.Name(), seed, tr.Score, again.Score)
			}
		}
		checkDominance(t, g, builders, "seed "+strconv.FormatUint(seed, 10))
	}
}

// bridgeGraph has fifteen direct losses worth 10 and one branch whose
// negative first loss leads to a loss worth 100. It uses 18 colors.
func bridgeGraph(t *testing.T) *dag.Graph {
	vs := []vspec{{"r", 0}}
	var ls []lspec
	for c := 1; c <= 15; c++ {
		id := "f" + strconv.Itoa(c)
		vs = append(vs, vspec{id, c})
		ls = append(ls, lspec{"r", id, 10})
	}
	vs = append(vs, vspec{"y", 16}, vspec{"z", 17})
	ls = append(ls, lspec{"r", "y", -1}, lspec{"y", "z", 100})
	return build(t, 18, vs, ls)
}

func TestColorSelectionFollowsPaths(t *testing.T) {
	g := bridgeGraph(t)
	p := selectColors(g, 0, g.Reachable(0), DefaultMaxColors)
	if p.size != DefaultMaxColors-1 || p.dropped != 2 {
		t.Fatalf("size, dropped = %d, %d, want %d, 2", p.size, p.dropped, DefaultMaxColors-1)
	}
	for _, c := range []int{16, 17} {
		if !p.included(c) {
			t.Errorf("color %d not in palette", c)
		}
	}

	builders := allBuilders(t, testOptions())
	exact := mustBuild(t, builders[0], g)
	if exact.Score != 249 {
		t.Errorf("exact score = %g, want 249", exact.Score)
	}
	if exact.AttachedScore != 20 {
		t.Errorf("attached score = %g, want 20", exact.AttachedScore)
	}
	if _, ok := exact.Meta["heuristic"]; ok {
		t.Errorf("DP tree replaced by heuristic %v", exact.Meta["heuristic"])
	}
	checkDominance(t, g, builders, "bridge")
}

func TestExactFallsBackToHeuristic(t *testing.T) {
	// With a single DP color, y is picked but scores only through z.
	g := build(t, 4,
		[]vspec{{"r", 0}, {"y", 1}, {"z", 2}, {"a", 3}},
		[]lspec{{"r", "y", -1}, {"y", "z", 100}, {"r", "a", 10}},
	)
	e := newExact(t, ExactOptions{MaxColors: 2})
	tr := mustBuild(t, e, g)
	checkColorfulTree(t, g, tr)
	if tr.Score != 109 {
		t.Errorf("score = %g, want 109", tr.Score)
	}
	if tr.Strategy != string(StrategyExact) {
		t.Errorf("strategy = %q, want exact", tr.Strategy)
	}
	if tr.Meta["heuristic"] != string(StrategyCriticalPath) {
		t.Errorf("heuristic = %v, want critical-path", tr.Meta["heuristic"])
	}

	trees, err := e.BuildMultipleTrees(context.Background(), g, math.Inf(-1))
	if err != nil {
		t.Fatalf("BuildMultipleTrees: %v", err)
	}
	if len(trees) == 0 || trees[0].Score != 109 {
		t.Fatalf("best of multiple = %v, want score 109", trees)
	}
	for i := 1; i < len(trees); i++ {
		if trees[i].Score > trees[i-1].Score {
			t.Errorf("trees not ranked at %d", i)
		}
	}
}

func TestDominanceBeyondMaxColors(t *testing.T) {
	opts := testOptions()
	opts.Exact.MaxColors = 6
	builders := allBuilders(t, opts)
	for seed := uint64(200); seed < 230; seed++ {
		g := randomGraph(t, seed, 24, 20, 0.25)
		checkDominance(t, g, builders, "seed "+strconv.FormatUint(seed, 10))
	}
}

func TestEvictionSafety(t *testing.T) {
	g := randomGraph(t, 7, 16, 10, 0.4)
	want := mustBuild(t, newExact(t, ExactOptions{}), g)

	tiny := subset.NewPool(64)
	cramped := newExact(t, ExactOptions{Pool: tiny})
	if got := mustBuild(t, cramped, g); got.Score != want.Score {
		t.Errorf("score under eviction = %g, want %g", got.Score, want.Score)
	}

	cramped.Cleanup()
	if n := tiny.Stats().Entries; n != 0 {
		t.Errorf("entries after Cleanup = %d, want 0", n)
	}
	if got := mustBuild(t, cramped, g); got.Score != want.Score {
		t.Errorf("score after Cleanup = %g, want %g", got.Score, want.Score)
	}
}

func TestEmptyGraph(t *testing.T) {
	for _, b := range allBuilders(t, testOptions()) {
		tr, err := b.BuildTree(context.Background(), dag.New(3, nil), 0)
		if err != nil || tr != nil {
			t.Errorf("%s.BuildTree = %v, %v, want nil, nil", b.Name(), tr, err)
		}
		trees, err := b.BuildMultipleTrees(context.Background(), dag.New(3, nil), 0)
		if err != nil || len(trees) != 0 {
			t.Errorf("%s.BuildMultipleTrees = %v, %v, want empty", b.Name(), trees, err)
		}
	}
}

func TestRootOnly(t *testing.T) {
	g := build(t, 3, []vspec{{"r", 0}, {"a", 1}}, []lspec{{"r", "a", -4}})
	for _, b := range allBuilders(t, testOptions()) {
		tr := mustBuild(t, b, g)
		if tr.Len() != 1 || tr.Score != 0 {
			t.Errorf("%s: len, score = %d, %g, want 1, 0", b.Name(), tr.Len(), tr.Score)
		}
	}
}

func TestLowerbound(t *testing.T) {
	g := starGraph(t)
	for _, b := range allBuilders(t, testOptions()) {
		tr, err := b.BuildTree(context.Background(), g, 8.5)
		if err != nil || tr != nil {
			t.Errorf("%s above optimum: %v, %v, want nil, nil", b.Name(), tr, err)
		}
		tr, err = b.BuildTree(context.Background(), g, 8)
		if err != nil || tr == nil {
			t.Errorf("%s at optimum: %v, %v, want a tree", b.Name(), tr, err)
		}
	}
}

func TestPreconditionErrors(t *testing.T) {
	cyclic := dag.New(3, nil)
	for _, id := range []string{"r", "a", "b"} {
		if _, err := cyclic.AddVertex(dag.Vertex{ID: id, Color: len(id) % 3}); err != nil {
			t.Fatal(err)
		}
	}
	for _, err := range []error{
		cyclic.SetRoot("r"),
		cyclic.AddLoss(dag.Loss{From: "r", To: "a", Weight: 1}),
		cyclic.AddLoss(dag.Loss{From: "a", To: "b", Weight: 1}),
		cyclic.AddLoss(dag.Loss{From: "b", To: "a", Weight: 1}),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}

	backwards := build(t, 2, []vspec{{"r", 0}, {"a", 1}}, nil)
	backwards.Vertex(1).Rank = 0
	if err := backwards.SetRoot("r"); err != nil {
		t.Fatal(err)
	}
	if err := backwards.AddLoss(dag.Loss{From: "r", To: "a", Weight: 1}); err != nil {
		t.Fatal(err)
	}

	twoRoots := build(t, 2, []vspec{{"r", 0}, {"s", 1}}, nil)
	twoRoots.Vertex(1).Rank = 0

	tests := []struct {
		name string
		g    *dag.Graph
		code fterrors.Code
	}{
		{"cycle", cyclic, fterrors.ErrCodeGraphHasCycle},
		{"rank", backwards, fterrors.ErrCodeNotTopological},
		{"root", twoRoots, fterrors.ErrCodeMissingRoot},
	}
	for _, tt := range tests {
		for _, b := range allBuilders(t, testOptions()) {
			_, err := b.BuildTree(context.Background(), tt.g, 0)
			if err == nil {
				t.Errorf("%s/%s: expected error", tt.name, b.Name())
				continue
			}
			if got := fterrors.GetCode(err); got != tt.code {
				t.Errorf("%s/%s: code = %s, want %s", tt.name, b.Name(), got, tt.code)
			}
			if !fterrors.IsPrecondition(err) {
				t.Errorf("%s/%s: IsPrecondition = false", tt.name, b.Name())
			}
		}
	}
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := randomGraph(t, 3, 10, 6, 0.4)
	for _, b := range allBuilders(t, testOptions()) {
		if _, err := b.BuildTree(ctx, g, 0); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: error = %v, want context.Canceled", b.Name(), err)
		}
	}
}

func TestExactOptionsValidation(t *testing.T) {
	for _, opts := range []ExactOptions{
		{MaxColors: MaxColorLimit + 1},
		{MaxColors: -1},
		{Delta: -1},
	} {
		if _, err := NewExact(opts); !fterrors.Is(err, fterrors.ErrCodeInvalidConfig) {
			t.Errorf("NewExact(%+v) error = %v, want INVALID_CONFIG", opts, err)
		}
	}

	e, err := NewExact(ExactOptions{})
	if err != nil {
		t.Fatal(err)
	}
	opts := e.Options()
	if opts.MaxColors != DefaultMaxColors || opts.Trees != DefaultTrees {
		t.Errorf("defaults = %d colors, %d trees", opts.MaxColors, opts.Trees)
	}
	if !math.IsInf(opts.Delta, 1) {
		t.Errorf("default delta = %g, want +Inf", opts.Delta)
	}
	if opts.Pool != subset.Default() {
		t.Error("default pool is not subset.Default()")
	}
}

func TestColorSelection(t *testing.T) {
	// Colors 1..5 with descending best incoming weight 5,4,3,2,1.
	g := build(t, 6,
		[]vspec{{"r", 0}, {"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}, {"e", 5}},
		[]lspec{{"r", "a", 5}, {"r", "b", 4}, {"r", "c", 3}, {"r", "d", 2}, {"r", "e", 1}},
	)
	p := selectColors(g, 0, g.Reachable(0), 3)
	if p.size != 2 || p.dropped != 3 {
		t.Errorf("size, dropped = %d, %d, want 2, 3", p.size, p.dropped)
	}
	if want := []int{-1, 0, 1, -1, -1, -1}; !slices.Equal(p.slot, want) {
		t.Errorf("slots = %v, want %v", p.slot, want)
	}

	tr := mustBuild(t, newExact(t, ExactOptions{MaxColors: 3}), g)
	if tr.Score != 15 || tr.AttachedScore != 6 || tr.Len() != 6 {
		t.Errorf("score, attached, len = %g, %g, %d, want 15, 6, 6", tr.Score, tr.AttachedScore, tr.Len())
	}
}

func multiGraph(t *testing.T) *dag.Graph {
	return build(t, 4,
		[]vspec{{"r", 0}, {"a", 1}, {"a2", 1}, {"b", 2}, {"c", 3}},
		[]lspec{
			{"r", "a", 4}, {"r", "a2", 3}, {"r", "b", 2},
			{"a", "c", 1}, {"a2", "c", 2}, {"b", "c", 1},
		},
	)
}

func TestBuildMultipleTrees(t *testing.T) {
	g := multiGraph(t)
	e := newExact(t, ExactOptions{Trees: 4})

	single := mustBuild(t, e, g)
	trees, err := e.BuildMultipleTrees(context.Background(), g, math.Inf(-1))
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) < 3 || len(trees) > 4 {
		t.Fatalf("got %d trees, want 3 or 4", len(trees))
	}
	if trees[0].Score != single.Score {
		t.Errorf("best = %g, single = %g", trees[0].Score, single.Score)
	}

	seen := map[string]bool{}
	for i, tr := range trees {
		checkColorfulTree(t, g, tr)
		if i > 0 && tr.Score > trees[i-1].Score {
			t.Errorf("trees not ranked at %d", i)
		}
		sig := edgeSignature(tr)
		if seen[sig] {
			t.Errorf("duplicate tree %s", sig)
		}
		seen[sig] = true
	}
	// Three different trees reach 7.
	for i := 0; i < 3; i++ {
		if trees[i].Score != 7 {
			t.Errorf("trees[%d].Score = %g, want 7", i, trees[i].Score)
		}
	}
}

func TestBuildMultipleTreesBounds(t *testing.T) {
	g := multiGraph(t)

	narrow := newExact(t, ExactOptions{Trees: 10, Delta: 1e-9})
	trees, err := narrow.BuildMultipleTrees(context.Background(), g, math.Inf(-1))
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 3 {
		t.Fatalf("delta-bounded: got %d trees, want 3", len(trees))
	}
	for _, tr := range trees {
		if tr.Score != 7 {
			t.Errorf("delta-bounded score = %g, want 7", tr.Score)
		}
	}

	// Without a delta only Trees bounds the result.
	capped := newExact(t, ExactOptions{Trees: 2})
	trees, err = capped.BuildMultipleTrees(context.Background(), g, math.Inf(-1))
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 2 {
		t.Errorf("count-bounded: got %d trees, want 2", len(trees))
	}
}

func TestHeuristicsReturnOneTree(t *testing.T) {
	g := starGraph(t)
	for _, b := range allBuilders(t, testOptions())[1:] {
		trees, err := b.BuildMultipleTrees(context.Background(), g, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(trees) != 1 {
			t.Errorf("%s returned %d trees", b.Name(), len(trees))
		}
	}
}

func TestPrimStarAdopts(t *testing.T) {
	// Prim attaches x under r (2) before v (3) exists; v->x (4) is heavier.
	g := build(t, 3,
		[]vspec{{"r", 0}, {"v", 1}, {"x", 2}},
		[]lspec{{"r", "x", 2}, {"r", "v", 1}, {"v", "x", 4}},
	)
	plain := mustBuild(t, Prim{}, g)
	star := mustBuild(t, Prim{Star: true}, g)
	if plain.Score != 3 || star.Score != 5 {
		t.Errorf("scores = %g (prim), %g (prim-star), want 3, 5", plain.Score, star.Score)
	}
	if p, _ := star.Parent(2); p != 1 {
		t.Errorf("parent of x = %d, want 1", p)
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies() {
		if got, err := ParseStrategy(string(s)); err != nil || got != s {
			t.Errorf("ParseStrategy(%q) = %q, %v", s, got, err)
		}
	}
	if got, err := ParseStrategy(" Prim_Star "); err != nil || got != StrategyPrimStar {
		t.Errorf("ParseStrategy(Prim_Star) = %q, %v", got, err)
	}

	if _, err := ParseStrategy("simulated-annealing"); !fterrors.Is(err, fterrors.ErrCodeInvalidStrategy) {
		t.Errorf("unknown strategy error = %v", err)
	}
	if _, err := New("nope", DefaultOptions()); !fterrors.Is(err, fterrors.ErrCodeInvalidStrategy) {
		t.Errorf("New(nope) error = %v", err)
	}
	for _, s := range []Strategy{StrategyGreedyRDE, StrategyExact} {
		if _, err := New(s, Options{RDEFactor: -1}); !fterrors.Is(err, fterrors.ErrCodeInvalidConfig) {
			t.Errorf("New(%s, negative factor) error = %v", s, err)
		}
	}
}
