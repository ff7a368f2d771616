package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	fragio "github.com/matzehuels/fragtree/pkg/io"
	"github.com/matzehuels/fragtree/pkg/solver"
	"github.com/matzehuels/fragtree/pkg/subset"
)

// poolCommand creates the pool command.
func (c *CLI) poolCommand() *cobra.Command {
	var flags solverFlags

	cmd := &cobra.Command{
		Use:   "pool [graph.json...]",
		Short: "Report subset pool usage for a workload",
		Long: `Solve the given graphs exactly, without the result cache, and report how
the shared subset pool behaved: entries, memory, hit rate and evictions.
Use it to size pool.budget_bytes for batch runs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.options(cmd, &flags)
			if err != nil {
				return err
			}
			b, err := solver.New(solver.StrategyExact, popts.Solver)
			if err != nil {
				return err
			}
			for _, path := range args {
				g, err := fragio.ImportGraph(path)
				if err != nil {
					return err
				}
				if _, err := newLoggingBuilder(cmd.Context(), b).BuildTree(cmd.Context(), g, popts.Lowerbound); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			printPoolStats(popts.Solver.Exact.Pool.Stats())
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func printPoolStats(st subset.Stats) {
	lookups := st.Hits + st.Misses
	rate := 0.0
	if lookups > 0 {
		rate = float64(st.Hits) / float64(lookups) * 100
	}
	printKeyValue("Entries", fmt.Sprintf("%d", st.Entries))
	printKeyValue("Memory", fmt.Sprintf("%s / %s", formatBytes(st.Bytes), formatBytes(st.Budget)))
	printKeyValue("Hit rate", fmt.Sprintf("%.1f%% (%d/%d)", rate, st.Hits, lookups))
	printKeyValue("Evictions", fmt.Sprintf("%d", st.Evictions))
	if st.Evictions > 0 {
		printWarning("The pool was evicted; raise pool.budget_bytes to keep enumerations across solves")
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
