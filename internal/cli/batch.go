package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	fragio "github.com/matzehuels/fragtree/pkg/io"
	"github.com/matzehuels/fragtree/pkg/pipeline"
)

// batchCommand creates the batch command.
func (c *CLI) batchCommand() *cobra.Command {
	var (
		flags   solverFlags
		workers int
		outDir  string
		cleanup bool
	)

	cmd := &cobra.Command{
		Use:   "batch [graph.json...]",
		Short: "Solve many candidate graphs concurrently",
		Long: `Solve every given graph with a bounded worker pool. All solves share
one subset pool, which is cleared at the end unless --cleanup=false.
Results are written as <name>.tree.json into --out-dir.`,
		Example:           `  fragtree batch spectra/*.json --out-dir trees --workers 8`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeGraphFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.options(cmd, &flags)
			if err != nil {
				return err
			}
			bopts := pipeline.BatchOptions{Workers: c.cfg.Batch.Workers, Cleanup: c.cfg.Batch.Cleanup}
			if cmd.Flags().Changed("workers") {
				bopts.Workers = workers
			}
			if cmd.Flags().Changed("cleanup") {
				bopts.Cleanup = cleanup
			}

			jobs := make([]pipeline.Job, len(args))
			for i, path := range args {
				g, err := fragio.ImportGraph(path)
				if err != nil {
					return err
				}
				jobs[i] = pipeline.Job{Name: jobName(path), Graph: g}
			}

			runner, err := c.newRunner(cmd, flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			spin := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Solving 0/%d graphs", len(jobs)))
			bopts.Progress = func(done, total int) {
				spin.Update(fmt.Sprintf("Solving %d/%d graphs", done, total))
			}
			spin.Start()
			results, err := runner.SolveBatch(cmd.Context(), jobs, popts, bopts)
			spin.Stop()
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Solved %d graphs", len(results)))

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", outDir, err)
				}
			}
			for i, res := range results {
				if best := res.Best(); best != nil {
					printSuccess("%s  %s", jobs[i].Name, StyleNumber.Render(fmt.Sprintf("%.4f", best.Score)))
				} else {
					printWarning("%s  no tree", jobs[i].Name)
				}
				if outDir == "" {
					continue
				}
				var buf bytes.Buffer
				if err := fragio.WriteTrees(res.Trees, &buf); err != nil {
					return err
				}
				out := filepath.Join(outDir, jobs[i].Name+".tree.json")
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				printFile(out)
			}
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent solves (default from config, NumCPU)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for <name>.tree.json results")
	cmd.Flags().BoolVar(&cleanup, "cleanup", true, "clear the subset pool after the batch")

	return cmd
}

// jobName derives a job name from a graph path: "data/x.graph.json" -> "x".
func jobName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".json", ".graph"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
