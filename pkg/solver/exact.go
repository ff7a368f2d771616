package solver

import (
	"cmp"
	"container/heap"
	"context"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/fragtree/pkg/dag"
	fterrors "github.com/matzehuels/fragtree/pkg/errors"
	"github.com/matzehuels/fragtree/pkg/subset"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// Exact solver defaults.
const (
	DefaultMaxColors     = 16
	DefaultTrees         = 5
	DefaultMaxExpansions = 10000

	// MaxColorLimit is the largest supported MaxColors. The root color
	// needs no bit, so at most 30 bits of a subset.Key are in use.
	MaxColorLimit = 31
)

// ExactOptions configures the exact solver.
type ExactOptions struct {
	// MaxColors is K, the number of colors (root color included) the DP
	// optimizes over. Remaining colors are attached greedily afterwards.
	MaxColors int

	// Trees is the number of trees BuildMultipleTrees returns at most.
	Trees int

	// Delta drops k-best derivations scoring more than Delta below the
	// optimum. The default +Inf keeps every derivation, so Trees alone
	// bounds the result; set a finite Delta to keep only near-optimal
	// sibling combinations.
	Delta float64

	// MaxExpansions caps the k-best search.
	MaxExpansions int

	// Pool caches subset enumerations. Nil selects subset.Default().
	Pool *subset.Pool
}

// DefaultExactOptions returns the exact solver defaults.
func DefaultExactOptions() ExactOptions {
	return ExactOptions{
		MaxColors:     DefaultMaxColors,
		Trees:         DefaultTrees,
		Delta:         math.Inf(1),
		MaxExpansions: DefaultMaxExpansions,
	}
}

// Exact computes maximum colorful subtrees with a dynamic program over color
// subsets. It is safe for concurrent use; solves share only the subset pool.
//
// When a graph has more reachable colors than MaxColors allows, the DP runs
// on a reduced palette and the heuristics run as well; the best tree found by
// either is returned.
type Exact struct {
	opts      ExactOptions
	rdeFactor float64
}

// NewExact validates opts and creates an exact solver. Zero values select
// defaults; MaxColors outside [1, MaxColorLimit] is a configuration error.
func NewExact(opts ExactOptions) (*Exact, error) {
	def := DefaultExactOptions()
	if opts.MaxColors == 0 {
		opts.MaxColors = def.MaxColors
	}
	if opts.MaxColors < 1 || opts.MaxColors > MaxColorLimit {
		return nil, fterrors.New(fterrors.ErrCodeInvalidConfig,
			"max colors must be between 1 and %d, got %d", MaxColorLimit, opts.MaxColors)
	}
	if opts.Trees <= 0 {
		opts.Trees = def.Trees
	}
	if opts.Delta == 0 || math.IsNaN(opts.Delta) {
		opts.Delta = def.Delta
	}
	if opts.Delta < 0 {
		return nil, fterrors.New(fterrors.ErrCodeInvalidConfig, "delta must not be negative, got %g", opts.Delta)
	}
	if opts.MaxExpansions <= 0 {
		opts.MaxExpansions = def.MaxExpansions
	}
	if opts.Pool == nil {
		opts.Pool = subset.Default()
	}
	return &Exact{opts: opts, rdeFactor: DefaultRDEFactor}, nil
}

// Name implements Builder.
func (e *Exact) Name() string { return string(StrategyExact) }

// Options returns the effective options.
func (e *Exact) Options() ExactOptions { return e.opts }

// Cleanup clears the subset pool. Hosts call it after a batch of solves.
func (e *Exact) Cleanup() { e.opts.Pool.Clear() }

// BuildTree implements Builder.
func (e *Exact) BuildTree(ctx context.Context, g *dag.Graph, lowerbound float64) (*tree.Tree, error) {
	return first(run(ctx, e.Name(), g, lowerbound, func(ctx context.Context, g *dag.Graph, root int) ([]*tree.Tree, error) {
		st, err := e.solve(ctx, g, root)
		if err != nil {
			return nil, err
		}
		t, err := st.extract(st.backtrack(st.rootKey))
		if err != nil {
			return nil, err
		}
		return e.withFallback(ctx, st, []*tree.Tree{t}, 1)
	}))
}

// BuildMultipleTrees implements Builder. Trees come from a k-best search over
// the solved tables and are ranked by final score.
func (e *Exact) BuildMultipleTrees(ctx context.Context, g *dag.Graph, lowerbound float64) ([]*tree.Tree, error) {
	return run(ctx, e.Name(), g, lowerbound, func(ctx context.Context, g *dag.Graph, root int) ([]*tree.Tree, error) {
		st, err := e.solve(ctx, g, root)
		if err != nil {
			return nil, err
		}
		var trees []*tree.Tree
		seen := make(map[string]bool)
		err = st.kBest(e.opts.Trees, e.opts.Delta, e.opts.MaxExpansions, func(tr tree.Trace) (bool, error) {
			t, err := st.extract(tr)
			if err != nil {
				return false, err
			}
			// Attachment can turn different traces into the same tree.
			sig := edgeSignature(t)
			if seen[sig] {
				return false, nil
			}
			seen[sig] = true
			trees = append(trees, t)
			return true, nil
		})
		if err != nil {
			return nil, err
		}
		slices.SortStableFunc(trees, func(a, b *tree.Tree) int { return cmp.Compare(b.Score, a.Score) })
		return e.withFallback(ctx, st, trees, e.opts.Trees)
	})
}

// withFallback puts the best heuristic tree in front of trees when colors
// were left out of the DP and the heuristic scores higher. The result holds
// at most limit trees.
func (e *Exact) withFallback(ctx context.Context, st *dpState, trees []*tree.Tree, limit int) ([]*tree.Tree, error) {
	if st.colors.dropped == 0 {
		return trees, nil
	}
	h, err := bestHeuristic(ctx, st.g, st.root, e.rdeFactor)
	if err != nil {
		return nil, err
	}
	if len(trees) > 0 && h.Score <= trees[0].Score {
		return trees, nil
	}
	h.Meta["heuristic"] = h.Strategy
	sig := edgeSignature(h)
	out := []*tree.Tree{h}
	for _, t := range trees {
		if len(out) == limit {
			break
		}
		if edgeSignature(t) != sig {
			out = append(out, t)
		}
	}
	return out, nil
}

// dpState is the solved DP of one graph.
type dpState struct {
	g      *dag.Graph
	pool   *subset.Pool
	root   int
	colors palette
	active []bool
	tables []*table

	rootKey   subset.Key
	rootScore float64
}

func (e *Exact) solve(ctx context.Context, g *dag.Graph, root int) (*dpState, error) {
	reach := g.Reachable(root)
	st := &dpState{
		g:      g,
		pool:   e.opts.Pool,
		root:   root,
		colors: selectColors(g, root, reach, e.opts.MaxColors),
		active: make([]bool, g.VertexCount()),
		tables: make([]*table, g.VertexCount()),
	}
	for v := range st.active {
		c := g.Color(v)
		st.active[v] = reach[v] && st.colors.included(c) && (v == root || c != st.colors.rootColor)
	}

	order := g.TopologicalOrder()
	for i := len(order) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if v := order[i]; st.active[v] {
			st.tables[v] = st.solveVertex(v)
		}
	}
	st.rootKey, st.rootScore = st.tables[root].best()
	return st, nil
}

// solveVertex fills the table of v from the tables of its children.
func (st *dpState) solveVertex(v int) *table {
	t := newTable()
	own := st.colors.bit(st.g.Color(v))

	var atoms []subset.Key
	for _, a := range st.g.OutArcs(v) {
		u := a.Target
		if !st.active[u] || st.tables[u] == nil {
			continue
		}
		ub := st.colors.bit(st.g.Color(u))
		if ub&own != 0 {
			continue
		}
		child := st.tables[u]
		for i, sub := range child.keys {
			if sub&own != 0 {
				continue
			}
			k := sub | ub
			score := child.scores[i] + a.Weight
			if score < 0 {
				continue
			}
			if _, seen := t.index[k]; !seen {
				atoms = append(atoms, k)
			}
			t.offer(k, score, choice{kind: choiceChild, arc: a.Index, key: sub})
		}
	}
	if len(atoms) < 2 {
		return t
	}
	st.merge(t, atoms)
	return t
}

// merge combines disjoint entries of t. Keys are processed in ascending
// order, which finalizes every proper subset before its superset. The set of
// processed keys is the disjoint-union closure of the atoms.
func (st *dpState) merge(t *table, atoms []subset.Key) {
	slices.Sort(atoms)
	known := make(map[subset.Key]bool, len(atoms))
	h := &keyHeap{}
	for _, k := range atoms {
		known[k] = true
		heap.Push(h, k)
	}

	for h.Len() > 0 {
		s := heap.Pop(h).(subset.Key)
		if s.Len() >= 2 {
			low := s.Lowest()
			for _, left := range st.pool.Subsets(s) {
				if left == 0 || left == s || left&low == 0 {
					continue
				}
				ls, ok := t.get(left)
				if !ok {
					continue
				}
				rs, ok := t.get(s &^ left)
				if !ok {
					continue
				}
				if score := ls + rs; score >= 0 {
					t.offer(s, score, choice{kind: choiceMerge, key: left})
				}
			}
		}
		for _, a := range atoms {
			if a&s != 0 {
				continue
			}
			if n := s | a; !known[n] {
				known[n] = true
				heap.Push(h, n)
			}
		}
	}
}

// edgeSignature identifies a tree by its vertices and their parents.
func edgeSignature(t *tree.Tree) string {
	var b strings.Builder
	for _, v := range t.VertexSet() {
		p, _ := t.Parent(v)
		b.WriteString(strconv.Itoa(v))
		b.WriteByte('<')
		b.WriteString(strconv.Itoa(p))
		b.WriteByte(' ')
	}
	return b.String()
}

func (st *dpState) extract(tr tree.Trace) (*tree.Tree, error) {
	return tree.Extractor{AttachRemaining: true}.Extract(st.g, tr, string(StrategyExact))
}

// keyHeap is a min-heap of subset keys.
type keyHeap []subset.Key

func (h keyHeap) Len() int           { return len(h) }
func (h keyHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h keyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *keyHeap) Push(x any)        { *h = append(*h, x.(subset.Key)) }
func (h *keyHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
