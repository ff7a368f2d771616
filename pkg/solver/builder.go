package solver

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/fragtree/pkg/dag"
	fterrors "github.com/matzehuels/fragtree/pkg/errors"
	"github.com/matzehuels/fragtree/pkg/observability"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// Builder computes fragmentation trees from a candidate graph.
//
// Trees scoring below lowerbound are discarded: BuildTree then returns a nil
// tree and BuildMultipleTrees an empty slice, both without error. An empty
// graph yields nil, nil. Malformed graphs are reported as precondition
// errors (see errors.IsPrecondition).
type Builder interface {
	// Name returns the strategy name recorded on produced trees.
	Name() string

	// BuildTree returns the best tree the strategy finds.
	BuildTree(ctx context.Context, g *dag.Graph, lowerbound float64) (*tree.Tree, error)

	// BuildMultipleTrees returns trees ranked best first. Heuristics return
	// at most one tree.
	BuildMultipleTrees(ctx context.Context, g *dag.Graph, lowerbound float64) ([]*tree.Tree, error)
}

// Cleaner is implemented by builders that hold caches across solves. Hosts
// call Cleanup after a batch.
type Cleaner interface {
	Cleanup()
}

// Strategy names a tree-building algorithm.
type Strategy string

// Available strategies.
const (
	StrategyExact        Strategy = "exact"
	StrategyGreedy       Strategy = "greedy"
	StrategyPrim         Strategy = "prim"
	StrategyPrimStar     Strategy = "prim-star"
	StrategyCriticalPath Strategy = "critical-path"
	StrategyGreedyRDE    Strategy = "greedy-rde"
)

var strategies = []Strategy{
	StrategyExact,
	StrategyGreedy,
	StrategyPrim,
	StrategyPrimStar,
	StrategyCriticalPath,
	StrategyGreedyRDE,
}

// Strategies returns all strategies, exact first.
func Strategies() []Strategy { return slices.Clone(strategies) }

// ParseStrategy converts a name to a Strategy. Matching is case-insensitive
// and accepts underscores in place of dashes.
func ParseStrategy(s string) (Strategy, error) {
	name := Strategy(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if slices.Contains(strategies, name) {
		return name, nil
	}
	return "", fterrors.New(fterrors.ErrCodeInvalidStrategy, "unknown strategy %q", s)
}

// Options configures builders created by New.
type Options struct {
	Exact ExactOptions

	// RDEFactor weighs the remaining-degree estimate of greedy-rde.
	RDEFactor float64
}

// DefaultRDEFactor is the default greedy-rde potential weight.
const DefaultRDEFactor = 0.5

// DefaultOptions returns options with every default applied.
func DefaultOptions() Options {
	return Options{Exact: DefaultExactOptions(), RDEFactor: DefaultRDEFactor}
}

// New creates the builder for strategy s.
func New(s Strategy, opts Options) (Builder, error) {
	switch s {
	case StrategyExact:
		f, err := rdeFactor(opts.RDEFactor)
		if err != nil {
			return nil, err
		}
		e, err := NewExact(opts.Exact)
		if err != nil {
			return nil, err
		}
		e.rdeFactor = f
		return e, nil
	case StrategyGreedy:
		return Greedy{}, nil
	case StrategyPrim:
		return Prim{}, nil
	case StrategyPrimStar:
		return Prim{Star: true}, nil
	case StrategyCriticalPath:
		return CriticalPath{}, nil
	case StrategyGreedyRDE:
		f, err := rdeFactor(opts.RDEFactor)
		if err != nil {
			return nil, err
		}
		return GreedyRDE{Factor: f}, nil
	}
	return nil, fterrors.New(fterrors.ErrCodeInvalidStrategy, "unknown strategy %q", s)
}

func rdeFactor(f float64) (float64, error) {
	if f == 0 {
		f = DefaultRDEFactor
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fterrors.New(fterrors.ErrCodeInvalidConfig, "rde factor must be a non-negative number, got %g", f)
	}
	return f, nil
}

// solveFunc produces candidate trees for a validated, non-empty graph.
type solveFunc func(ctx context.Context, g *dag.Graph, root int) ([]*tree.Tree, error)

// run wraps a solve with validation, timing, lowerbound filtering and hooks.
func run(ctx context.Context, name string, g *dag.Graph, lowerbound float64, solve solveFunc) ([]*tree.Tree, error) {
	if g == nil || g.VertexCount() == 0 {
		return nil, nil
	}
	start := time.Now()
	hooks := observability.Solver()
	hooks.OnSolveStart(ctx, name, g.VertexCount(), g.ColorCount())

	trees, err := prepareAndSolve(ctx, g, solve)
	elapsed := time.Since(start)

	kept := trees[:0]
	for _, t := range trees {
		if t.Score < lowerbound {
			continue
		}
		t.Strategy = name
		t.Duration = elapsed
		kept = append(kept, t)
	}
	if err != nil {
		kept = nil
	}

	score := math.NaN()
	if len(kept) > 0 {
		score = kept[0].Score
	}
	hooks.OnSolveComplete(ctx, name, score, elapsed, err)
	return kept, err
}

func prepareAndSolve(ctx context.Context, g *dag.Graph, solve solveFunc) ([]*tree.Tree, error) {
	if err := g.Validate(); err != nil {
		return nil, preconditionError(err)
	}
	root, err := g.Root()
	if err != nil {
		return nil, preconditionError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return solve(ctx, g, root)
}

func preconditionError(err error) error {
	code := fterrors.ErrCodeInvalidGraph
	switch {
	case errors.Is(err, dag.ErrGraphHasCycle):
		code = fterrors.ErrCodeGraphHasCycle
	case errors.Is(err, dag.ErrNotTopological):
		code = fterrors.ErrCodeNotTopological
	case errors.Is(err, dag.ErrMissingRoot):
		code = fterrors.ErrCodeMissingRoot
	}
	return fterrors.Wrap(code, err, "invalid candidate graph")
}

// first returns the leading tree or nil.
func first(trees []*tree.Tree, err error) (*tree.Tree, error) {
	if err != nil || len(trees) == 0 {
		return nil, err
	}
	return trees[0], nil
}
