package cli

import (
	"math"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fragtree/pkg/config"
	"github.com/matzehuels/fragtree/pkg/pipeline"
	"github.com/matzehuels/fragtree/pkg/solver"
)

// solverFlags holds the solver flags shared by solve, batch, compare and
// pool. Flags override the config file only when set explicitly.
type solverFlags struct {
	strategy   string
	maxColors  int
	trees      int
	delta      float64
	lowerbound float64
	rdeFactor  float64
	multiple   bool
	noCache    bool
	refresh    bool
}

func (f *solverFlags) register(cmd *cobra.Command, withStrategy bool) {
	d := config.Default().Solver
	if withStrategy {
		cmd.Flags().StringVarP(&f.strategy, "strategy", "s", d.Strategy, "tree builder: exact, greedy, prim, prim-star, critical-path, greedy-rde")
		_ = cmd.RegisterFlagCompletionFunc("strategy", completeStrategies)
	}
	cmd.Flags().IntVarP(&f.maxColors, "max-colors", "k", d.MaxColors, "colors considered by the exact solver (root included)")
	cmd.Flags().IntVar(&f.trees, "trees", d.Trees, "number of trees for --multiple")
	cmd.Flags().Float64Var(&f.delta, "delta", d.Delta, "keep only trees within delta of the optimum (--multiple)")
	cmd.Flags().Float64Var(&f.lowerbound, "lowerbound", d.Lowerbound, "drop trees scoring below this value")
	cmd.Flags().Float64Var(&f.rdeFactor, "rde-factor", d.RDEFactor, "potential weight for greedy-rde")
	cmd.Flags().BoolVarP(&f.multiple, "multiple", "m", false, "compute the k best trees (exact) instead of one")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when a cached result exists")
}

// options merges explicitly set flags into the loaded config and converts
// the result to pipeline options.
func (c *CLI) options(cmd *cobra.Command, f *solverFlags) (pipeline.Options, error) {
	cfg := c.cfg
	changed := cmd.Flags().Changed
	if changed("strategy") {
		cfg.Solver.Strategy = f.strategy
	}
	if changed("max-colors") {
		cfg.Solver.MaxColors = f.maxColors
	}
	if changed("trees") {
		cfg.Solver.Trees = f.trees
	}
	if changed("delta") {
		cfg.Solver.Delta = f.delta
	}
	if changed("lowerbound") {
		cfg.Solver.Lowerbound = f.lowerbound
	}
	if changed("rde-factor") {
		cfg.Solver.RDEFactor = f.rdeFactor
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Options{}, err
	}

	strategy, err := solver.ParseStrategy(cfg.Solver.Strategy)
	if err != nil {
		return pipeline.Options{}, err
	}
	ttl := cfg.Cache.TTL.Duration
	if ttl <= 0 {
		ttl = pipeline.DefaultTTL
	}
	lowerbound := cfg.Solver.Lowerbound
	if math.IsNaN(lowerbound) {
		lowerbound = math.Inf(-1)
	}
	return pipeline.Options{
		Strategy:   strategy,
		Solver:     cfg.SolverOptions(c.pool),
		Lowerbound: lowerbound,
		Multiple:   f.multiple,
		Refresh:    f.refresh,
		TTL:        ttl,
	}, nil
}
