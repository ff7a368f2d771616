package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fragtree/pkg/cache"
	"github.com/matzehuels/fragtree/pkg/dag"
	fragio "github.com/matzehuels/fragtree/pkg/io"
	"github.com/matzehuels/fragtree/pkg/observability"
	"github.com/matzehuels/fragtree/pkg/solver"
	"github.com/matzehuels/fragtree/pkg/tree"
)

const keyTypeTree = "tree"

// Runner executes solves with caching.
//
// The Runner holds no per-solve state, so multiple goroutines can use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// GraphHash returns the content hash of g's JSON document.
func GraphHash(g *dag.Graph) (string, error) {
	var buf bytes.Buffer
	if err := fragio.WriteGraph(g, &buf); err != nil {
		return "", fmt.Errorf("serialize graph: %w", err)
	}
	return cache.Hash(buf.Bytes()), nil
}

// Solve computes trees for g, serving repeated requests from the cache.
// Cache failures are logged and never fail the solve.
func (r *Runner) Solve(ctx context.Context, g *dag.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()

	hash, err := GraphHash(g)
	if err != nil {
		return nil, err
	}
	res := &Result{GraphHash: hash}
	key := r.Keyer.TreeKey(hash, opts.TreeKeyOpts())

	if !opts.Refresh {
		if trees, ok := r.lookup(ctx, key, g); ok {
			res.Trees = trees
			res.CacheHit = true
			res.Duration = time.Since(start)
			r.Logger.Debug("cache hit", "strategy", opts.Strategy, "key", key)
			return res, nil
		}
	}

	b, err := solver.New(opts.Strategy, opts.Solver)
	if err != nil {
		return nil, err
	}
	res.Trees, err = build(ctx, b, g, opts)
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	r.store(ctx, key, res.Trees, opts.TTL)

	fields := []any{"strategy", opts.Strategy, "vertices", g.VertexCount(), "trees", len(res.Trees), "duration", res.Duration}
	if best := res.Best(); best != nil {
		fields = append(fields, "score", best.Score)
	}
	r.Logger.Info("solved", fields...)
	return res, nil
}

func build(ctx context.Context, b solver.Builder, g *dag.Graph, opts Options) ([]*tree.Tree, error) {
	if opts.Multiple {
		return b.BuildMultipleTrees(ctx, g, opts.Lowerbound)
	}
	t, err := b.BuildTree(ctx, g, opts.Lowerbound)
	if err != nil || t == nil {
		return nil, err
	}
	return []*tree.Tree{t}, nil
}

func (r *Runner) lookup(ctx context.Context, key string, g *dag.Graph) ([]*tree.Tree, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, keyTypeTree)
		return nil, false
	}
	trees, err := fragio.ReadTrees(bytes.NewReader(data), g)
	if err == nil {
		err = validateTrees(g, trees)
	}
	if err != nil {
		r.Logger.Warn("discarding invalid cache entry", "key", key, "error", err)
		hooks.OnCacheMiss(ctx, keyTypeTree)
		return nil, false
	}
	hooks.OnCacheHit(ctx, keyTypeTree)
	return trees, true
}

// validateTrees rejects cached trees that do not fit g.
func validateTrees(g *dag.Graph, trees []*tree.Tree) error {
	for i, t := range trees {
		if t.Len() == 0 {
			return fmt.Errorf("tree %d is empty", i)
		}
		if err := t.Validate(g); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (r *Runner) store(ctx context.Context, key string, trees []*tree.Tree, ttl time.Duration) {
	if _, off := cache.Off(r.Cache); off {
		return
	}
	var buf bytes.Buffer
	if err := fragio.WriteTrees(trees, &buf); err != nil {
		r.Logger.Warn("serialize trees for cache", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, buf.Bytes(), ttl); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyTypeTree, buf.Len())
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
