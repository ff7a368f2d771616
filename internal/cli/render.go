package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fragtree/pkg/dag"
	fragio "github.com/matzehuels/fragtree/pkg/io"
	"github.com/matzehuels/fragtree/pkg/pipeline"
	"github.com/matzehuels/fragtree/pkg/tree"
)

type renderOpts struct {
	graph   string
	output  string
	format  string
	index   int
	overlay bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [tree.json]",
		Short: "Draw a solved tree as DOT, SVG, PNG or PDF",
		Long: `Render a tree written by "fragtree solve -o tree.json". The candidate
graph is required to resolve vertices. Files holding several trees (from
--multiple) select one with --index.`,
		Example: `  fragtree render tree.json --graph graph.json -o tree.svg
  fragtree render trees.json --graph graph.json --index 2 --overlay -o t3.pdf`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.graph, "graph", "g", "", "candidate graph the tree was solved from (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot, svg, png, pdf, json (default from extension, else dot)")
	cmd.Flags().IntVar(&opts.index, "index", 0, "tree to render from a multi-tree file (0 = best)")
	cmd.Flags().BoolVar(&opts.overlay, "overlay", false, "draw the whole candidate graph with the tree highlighted")
	_ = cmd.MarkFlagRequired("graph")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = cmd.RegisterFlagCompletionFunc("graph", completeGraphFiles)

	return cmd
}

func runRender(path string, opts *renderOpts) error {
	g, err := fragio.ImportGraph(opts.graph)
	if err != nil {
		return err
	}
	t, err := loadTree(path, g, opts.index)
	if err != nil {
		return err
	}

	format := opts.format
	if format == "" {
		format = pipeline.FormatDOT
		if opts.output != "" {
			format = formatFromPath(opts.output)
		}
	}
	data, err := pipeline.Render(g, t, format, opts.overlay)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Rendered %s", path)
	printFile(opts.output)
	return nil
}

// loadTree reads a single tree or one tree of a ranked list.
func loadTree(path string, g *dag.Graph, index int) (*tree.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		if index != 0 {
			return nil, fmt.Errorf("%s holds a single tree", path)
		}
		return fragio.ReadTree(bytes.NewReader(data), g)
	}
	trees, err := fragio.ReadTrees(bytes.NewReader(data), g)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(trees) {
		return nil, fmt.Errorf("index %d out of range: %s holds %d trees", index, path, len(trees))
	}
	return trees[index], nil
}
