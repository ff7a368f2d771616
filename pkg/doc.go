// Package pkg provides the libraries behind fragtree, a solver for
// fragmentation trees of tandem mass spectra.
//
// # Overview
//
// A candidate graph holds one vertex per explanation of a peak (its color)
// and one weighted arc per plausible neutral loss. A fragmentation tree is
// the maximum-weight colorful subtree: rooted at the precursor and using
// each color at most once. The pkg directory is organized into:
//
//  1. Domain: [dag], [subset], [solver], [tree]
//  2. Formats: [io], [render]
//  3. Orchestration: [pipeline], [cache], [config]
//  4. Support: [errors], [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	candidate graph JSON
//	         ↓
//	    [io] package (decode + validate)
//	         ↓
//	    [solver] package (exact DP over color subsets, or a heuristic)
//	         ↓
//	    [tree] package (extraction, remaining-color attachment)
//	         ↓
//	    JSON / DOT / SVG / PDF / PNG output
//
// # Quick Start
//
//	g, _ := io.ImportGraph("graph.json")
//	b, _ := solver.New(solver.StrategyExact, solver.DefaultOptions())
//	t, _ := b.BuildTree(ctx, g, math.Inf(-1))
//	fmt.Println(t.Score)
//
// # Main Packages
//
// [dag] - Colored candidate graphs with rank-ordered vertices and weighted
// losses, including validation of the solver preconditions.
//
// [subset] - The shared, budgeted pool of color-subset enumerations used by
// the exact solver.
//
// [solver] - Tree builders: the exact colorful subtree DP with k-best
// backtracking, and the greedy, prim, prim-star, critical-path and
// greedy-rde heuristics.
//
// [tree] - Result trees, extraction from solver traces and greedy
// attachment of unused colors.
//
// [io] - JSON formats for candidate graphs and trees.
//
// [render] - Node-link diagrams via Graphviz and SVG conversion.
//
// [pipeline] - Cached solving, parallel batches and output rendering.
//
// [cache] - Result caches (file, redis, null) and key derivation.
//
// [config] - TOML configuration.
package pkg
