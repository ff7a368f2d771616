package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fragtree/pkg/dag"
	fragio "github.com/matzehuels/fragtree/pkg/io"
	"github.com/matzehuels/fragtree/pkg/pipeline"
)

type solveOpts struct {
	solverFlags
	output  string
	format  string
	overlay bool
	pick    bool
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve [graph.json]",
		Short: "Compute the best fragmentation tree for a candidate graph",
		Long: `Compute a maximum-weight colorful subtree of a candidate graph.

The exact strategy solves the colorful subtree problem by dynamic
programming over color subsets; heuristics trade optimality for speed.
With --multiple the k best trees are computed, and --pick lets you choose
one of them interactively.`,
		Example: `  fragtree solve graph.json
  fragtree solve graph.json -s greedy-rde --rde-factor 0.3
  fragtree solve graph.json -m --trees 10 --pick -o tree.svg`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.pick {
				opts.multiple = true
			}
			popts, err := c.options(cmd, &opts.solverFlags)
			if err != nil {
				return err
			}
			return c.runSolve(cmd, args[0], popts, &opts)
		},
	}

	opts.register(cmd, true)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (format from extension unless --format is set)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: json, dot, svg, png, pdf")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	cmd.Flags().BoolVar(&opts.overlay, "overlay", false, "draw the whole candidate graph with the tree highlighted")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose among the k best trees interactively (implies --multiple)")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, path string, popts pipeline.Options, opts *solveOpts) error {
	ctx := cmd.Context()
	g, err := fragio.ImportGraph(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(cmd, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := solveWithSpinner(ctx, runner, g, popts, "Solving "+filepath.Base(path))
	if err != nil {
		return err
	}

	printSuccess("Solved %s", path)
	printStats(g.VertexCount(), g.ArcCount(), g.ColorCount(), res.CacheHit)
	if res.Best() == nil {
		printWarning("No tree reaches the lowerbound %g", popts.Lowerbound)
		return nil
	}

	chosen := res.Best()
	if opts.pick && len(res.Trees) > 1 {
		if chosen, err = pickTree(res.Trees); err != nil {
			return err
		}
		if chosen == nil {
			printInfo("No tree selected")
			return nil
		}
	}

	printNewline()
	printTreeSummary(chosen)
	if popts.Multiple && !opts.pick {
		printKeyValue("Trees", fmt.Sprintf("%d", len(res.Trees)))
	}

	if opts.output == "" {
		printNewline()
		fmt.Print(renderTree(chosen))
		return nil
	}

	format := opts.format
	if format == "" {
		format = formatFromPath(opts.output)
	}
	var data []byte
	if format == pipeline.FormatJSON && popts.Multiple && !opts.pick {
		var buf bytes.Buffer
		if err := fragio.WriteTrees(res.Trees, &buf); err != nil {
			return err
		}
		data = buf.Bytes()
	} else if data, err = pipeline.Render(g, chosen, format, opts.overlay); err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printFile(opts.output)
	if format == pipeline.FormatJSON {
		printNextStep("Render it", fmt.Sprintf("fragtree render %s --graph %s -o tree.svg", opts.output, path))
	}
	return nil
}

// solveWithSpinner runs a solve behind a progress spinner.
func solveWithSpinner(ctx context.Context, runner *pipeline.Runner, g *dag.Graph, popts pipeline.Options, msg string) (*pipeline.Result, error) {
	spin := newSpinnerWithContext(ctx, msg)
	spin.Start()
	res, err := runner.Solve(ctx, g, popts)
	spin.Stop()
	return res, err
}

// formatFromPath derives the output format from a file extension and falls
// back to JSON.
func formatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if pipeline.ValidFormats[ext] {
		return ext
	}
	return pipeline.FormatJSON
}
