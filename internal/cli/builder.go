package cli

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fragtree/pkg/dag"
	"github.com/matzehuels/fragtree/pkg/solver"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// loggingBuilder wraps a solver.Builder with progress logging. It reports
// the elapsed time of each build and warns when no tree reaches the
// lowerbound.
type loggingBuilder struct {
	solver.Builder
	logger *log.Logger
}

func newLoggingBuilder(ctx context.Context, b solver.Builder) solver.Builder {
	return &loggingBuilder{Builder: b, logger: loggerFromContext(ctx)}
}

func (b *loggingBuilder) BuildTree(ctx context.Context, g *dag.Graph, lowerbound float64) (*tree.Tree, error) {
	prog := newProgress(b.logger)
	t, err := b.Builder.BuildTree(ctx, g, lowerbound)
	if err != nil {
		return nil, err
	}
	if t == nil {
		b.logger.Warn("no tree reaches the lowerbound", "strategy", b.Name(), "lowerbound", lowerbound)
		return nil, nil
	}
	prog.solved(b.Name(), t)
	return t, nil
}

func (b *loggingBuilder) BuildMultipleTrees(ctx context.Context, g *dag.Graph, lowerbound float64) ([]*tree.Tree, error) {
	prog := newProgress(b.logger)
	trees, err := b.Builder.BuildMultipleTrees(ctx, g, lowerbound)
	if err != nil {
		return nil, err
	}
	prog.solvedMany(b.Name(), trees)
	return trees, nil
}
