// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about solver runs, subset pool evictions and result cache
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the solver packages free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSolverHooks(&mySolverHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Solver().OnSolveStart(ctx, "exact", vertices, colors)
//	// ... solve ...
//	observability.Solver().OnSolveComplete(ctx, "exact", score, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Solver Hooks
// =============================================================================

// SolverHooks receives events from tree builders.
type SolverHooks interface {
	// OnSolveStart is called before a builder touches the graph.
	OnSolveStart(ctx context.Context, strategy string, vertices, colors int)

	// OnSolveComplete is called once per solve. score is NaN when no tree
	// was produced.
	OnSolveComplete(ctx context.Context, strategy string, score float64, duration time.Duration, err error)
}

// =============================================================================
// Subset Pool Hooks
// =============================================================================

// SubsetPoolHooks receives events from the shared subset key pool.
// The pool has no context of its own, so these hooks take none.
type SubsetPoolHooks interface {
	// OnEvict records a wholesale eviction of entries totalling bytes.
	OnEvict(entries int, bytes int64)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSolverHooks is a no-op implementation of SolverHooks.
type NoopSolverHooks struct{}

func (NoopSolverHooks) OnSolveStart(context.Context, string, int, int) {}
func (NoopSolverHooks) OnSolveComplete(context.Context, string, float64, time.Duration, error) {
}

// NoopSubsetPoolHooks is a no-op implementation of SubsetPoolHooks.
type NoopSubsetPoolHooks struct{}

func (NoopSubsetPoolHooks) OnEvict(int, int64) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	solverHooks SolverHooks     = NoopSolverHooks{}
	poolHooks   SubsetPoolHooks = NoopSubsetPoolHooks{}
	cacheHooks  CacheHooks      = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetSolverHooks registers custom solver hooks.
// This should be called once at application startup before any solves.
func SetSolverHooks(h SolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		solverHooks = h
	}
}

// SetSubsetPoolHooks registers custom subset pool hooks.
func SetSubsetPoolHooks(h SubsetPoolHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		poolHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Solver returns the registered solver hooks.
func Solver() SolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return solverHooks
}

// SubsetPool returns the registered subset pool hooks.
func SubsetPool() SubsetPoolHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return poolHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	solverHooks = NoopSolverHooks{}
	poolHooks = NoopSubsetPoolHooks{}
	cacheHooks = NoopCacheHooks{}
}
