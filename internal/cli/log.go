package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fragtree/pkg/tree"
)

// newLogger creates the CLI logger. Timestamps carry centiseconds so the
// phases of a short solve stay distinguishable.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one solve or batch. Not for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}

// done logs msg with the elapsed time, e.g. "Solved 12 graphs (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, p.elapsed())
}

// solved logs the outcome of a single-tree build.
func (p *progress) solved(strategy string, t *tree.Tree) {
	msg := fmt.Sprintf("%s: score %.4f, %d vertices", strategy, t.Score, t.Len())
	if t.AttachedScore != 0 {
		msg += fmt.Sprintf(", %+.4f attached", t.AttachedScore)
	}
	if h, ok := t.Meta["heuristic"]; ok {
		msg += fmt.Sprintf(", via %v", h)
	}
	p.done(msg)
}

// solvedMany logs the outcome of a k-best build.
func (p *progress) solvedMany(strategy string, trees []*tree.Tree) {
	if len(trees) == 0 {
		p.done(strategy + ": no trees")
		return
	}
	p.done(fmt.Sprintf("%s: %d trees, scores %.4f to %.4f", strategy, len(trees), trees[0].Score, trees[len(trees)-1].Score))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by setup, or log.Default()
// for commands run outside the root command (tests, embedding).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
