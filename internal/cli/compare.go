package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fragtree/pkg/dag"
	fragio "github.com/matzehuels/fragtree/pkg/io"
	"github.com/matzehuels/fragtree/pkg/pipeline"
	"github.com/matzehuels/fragtree/pkg/solver"
)

// comparison is one row of the strategy comparison.
type comparison struct {
	strategy solver.Strategy
	score    float64
	vertices int
	found    bool
	err      error
	elapsed  string
}

// compareCommand creates the compare command.
func (c *CLI) compareCommand() *cobra.Command {
	var flags solverFlags

	cmd := &cobra.Command{
		Use:   "compare [graph.json]",
		Short: "Run every strategy on a graph and compare scores",
		Long: `Run the exact solver and every heuristic on one graph and print a table
of scores, tree sizes and run times. The gap column is relative to the
exact optimum.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.options(cmd, &flags)
			if err != nil {
				return err
			}
			g, err := fragio.ImportGraph(args[0])
			if err != nil {
				return err
			}
			rows := compareStrategies(cmd.Context(), g, popts)
			printStats(g.VertexCount(), g.ArcCount(), g.ColorCount(), false)
			fmt.Println(comparisonTable(rows))
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

// compareStrategies builds one tree per strategy. Failures are recorded per
// row so one failing heuristic does not hide the others.
func compareStrategies(ctx context.Context, g *dag.Graph, popts pipeline.Options) []comparison {
	rows := make([]comparison, 0, len(solver.Strategies()))
	for _, s := range solver.Strategies() {
		row := comparison{strategy: s}
		b, err := solver.New(s, popts.Solver)
		if err != nil {
			row.err = err
			rows = append(rows, row)
			continue
		}
		t, err := newLoggingBuilder(ctx, b).BuildTree(ctx, g, popts.Lowerbound)
		switch {
		case err != nil:
			row.err = err
		case t != nil:
			row.found = true
			row.score = t.Score
			row.vertices = t.Len()
			row.elapsed = t.Duration.String()
		}
		rows = append(rows, row)
	}
	return rows
}

func comparisonTable(rows []comparison) string {
	var optimum float64
	haveOptimum := false
	for _, r := range rows {
		if r.strategy == solver.StrategyExact && r.found {
			optimum, haveOptimum = r.score, true
		}
	}

	data := make([][]string, len(rows))
	for i, r := range rows {
		switch {
		case r.err != nil:
			data[i] = []string{string(r.strategy), "error", "", "", r.err.Error()}
		case !r.found:
			data[i] = []string{string(r.strategy), "-", "", "", "below lowerbound"}
		default:
			gap := ""
			if haveOptimum {
				gap = fmt.Sprintf("%.4f", r.score-optimum)
			}
			data[i] = []string{string(r.strategy), fmt.Sprintf("%.4f", r.score), gap, fmt.Sprintf("%d", r.vertices), r.elapsed}
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Strategy", "Score", "Gap", "Vertices", "Time").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if rows[row].err != nil {
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
