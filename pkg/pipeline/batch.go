package pipeline

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/fragtree/pkg/dag"
	"github.com/matzehuels/fragtree/pkg/solver"
)

// Job is one graph of a batch.
type Job struct {
	Name  string
	Graph *dag.Graph
}

// BatchOptions configures SolveBatch.
type BatchOptions struct {
	// Workers bounds concurrent solves. Zero selects runtime.NumCPU().
	Workers int

	// Cleanup clears the exact solver's subset pool after the batch.
	Cleanup bool

	// Progress, if set, is called after each successful solve with the
	// number of finished jobs. Calls may come from several goroutines.
	Progress func(done, total int)
}

// SolveBatch solves all jobs concurrently. Results are returned in job
// order. Each result gets a fresh job ID, which is also recorded in the
// trees' metadata under "job_id". The first failing job cancels the rest.
func (r *Runner) SolveBatch(ctx context.Context, jobs []Job, opts Options, bopts BatchOptions) ([]*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	workers := bopts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	start := time.Now()

	results := make([]*Result, len(jobs))
	var finished atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			id := uuid.NewString()
			r.Logger.Debug("solving", "job", job.Name, "job_id", id)
			res, err := r.Solve(gctx, job.Graph, opts)
			if err != nil {
				r.Logger.Error("solve failed", "job", job.Name, "job_id", id, "error", err)
				return err
			}
			res.JobID = id
			for _, t := range res.Trees {
				if t.Meta == nil {
					t.Meta = dag.Metadata{}
				}
				t.Meta["job_id"] = id
				t.Meta["job"] = job.Name
			}
			results[i] = res
			if bopts.Progress != nil {
				bopts.Progress(int(finished.Add(1)), len(jobs))
			}
			return nil
		})
	}
	err := g.Wait()

	if bopts.Cleanup {
		r.cleanup(opts)
	}
	if err != nil {
		return nil, err
	}
	r.Logger.Info("batch complete", "jobs", len(jobs), "workers", workers, "duration", time.Since(start))
	return results, nil
}

func (r *Runner) cleanup(opts Options) {
	b, err := solver.New(solver.StrategyExact, opts.Solver)
	if err != nil {
		return
	}
	if c, ok := b.(solver.Cleaner); ok {
		c.Cleanup()
		r.Logger.Debug("cleared subset pool")
	}
}
