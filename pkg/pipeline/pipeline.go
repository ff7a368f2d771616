// Package pipeline runs fragmentation tree solves for the CLI and batch jobs.
//
// It wraps the solver with result caching, parallel batch execution and
// output rendering so that every entry point behaves the same way.
//
// # Usage
//
// Create a Runner and solve a graph:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Solve(ctx, g, pipeline.Options{
//	    Strategy: solver.StrategyExact,
//	    Solver:   solver.DefaultOptions(),
//	    Multiple: true,
//	})
//
// Solve many graphs concurrently:
//
//	results, err := runner.SolveBatch(ctx, jobs, opts, pipeline.BatchOptions{Workers: 8, Cleanup: true})
//
// Render a result:
//
//	svg, err := pipeline.Render(g, res.Trees[0], pipeline.FormatSVG, false)
package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/fragtree/pkg/cache"
	fterrors "github.com/matzehuels/fragtree/pkg/errors"
	"github.com/matzehuels/fragtree/pkg/solver"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// DefaultTTL is how long solved trees stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// Format constants for rendered output.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidateFormat checks a single output format.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fterrors.New(fterrors.ErrCodeInvalidFormat, "invalid format %q: must be json, dot, svg, png, or pdf", format)
	}
	return nil
}

// ValidateFormats checks every format in the list.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configures a solve.
type Options struct {
	Strategy   solver.Strategy
	Solver     solver.Options
	Lowerbound float64

	// Multiple requests the k-best trees instead of the single best.
	Multiple bool

	// Refresh bypasses cached results (the new result is still stored).
	Refresh bool

	// TTL for cached results. Zero selects DefaultTTL.
	TTL time.Duration
}

// ValidateAndSetDefaults fills in defaults and validates the options.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Strategy == "" {
		o.Strategy = solver.StrategyExact
	}
	if _, err := solver.ParseStrategy(string(o.Strategy)); err != nil {
		return err
	}
	if math.IsNaN(o.Lowerbound) {
		return fterrors.New(fterrors.ErrCodeInvalidConfig, "lowerbound must not be NaN")
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	return nil
}

// TreeKeyOpts returns the cache key options for o. Infinite bounds are
// clamped so the key stays encodable.
func (o *Options) TreeKeyOpts() cache.TreeKeyOpts {
	k := cache.TreeKeyOpts{
		Strategy:   string(o.Strategy),
		Lowerbound: finite(o.Lowerbound),
		Multiple:   o.Multiple,
	}
	switch o.Strategy {
	case solver.StrategyExact:
		k.MaxColors = o.Solver.Exact.MaxColors
		if o.Multiple {
			k.Trees = o.Solver.Exact.Trees
			k.Delta = finite(o.Solver.Exact.Delta)
		}
	case solver.StrategyGreedyRDE:
		k.RDEFactor = o.Solver.RDEFactor
	}
	return k
}

func finite(f float64) float64 {
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}

// Result is the outcome of one solve.
type Result struct {
	// Trees holds the solved trees, best first. Empty when no tree reaches
	// the lowerbound.
	Trees []*tree.Tree

	// GraphHash identifies the input graph content.
	GraphHash string

	// JobID is set for batch solves.
	JobID string

	CacheHit bool
	Duration time.Duration
}

// Best returns the highest scoring tree or nil.
func (r *Result) Best() *tree.Tree {
	if r == nil || len(r.Trees) == 0 {
		return nil
	}
	return r.Trees[0]
}

func (r *Result) String() string {
	if best := r.Best(); best != nil {
		return fmt.Sprintf("%d trees, best %s %.4f", len(r.Trees), best.Strategy, best.Score)
	}
	return "no tree"
}
