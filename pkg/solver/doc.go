// Package solver computes fragmentation trees: maximum-weight colorful
// subtrees of a candidate graph.
//
// # Strategies
//
// Every algorithm implements [Builder]. The set of strategies is closed and
// selected by name through [New]:
//
//   - exact: dynamic program over color subsets ([Exact])
//   - greedy: heaviest legal arcs first ([Greedy])
//   - prim, prim-star: frontier growth from the root ([Prim])
//   - critical-path: heaviest paths first ([CriticalPath])
//   - greedy-rde: greedy with a remaining-degree estimate ([GreedyRDE])
//
// # Exact solver
//
// The exact solver binds up to MaxColors-1 non-root colors to the bits of a
// [subset.Key] and fills one sparse table per vertex, children before
// parents. T[v][S] is the best score of a subtree rooted at v whose other
// vertices use exactly the colors in S. Entries come from two steps:
//
//  1. Child step: an arc v->u extends every entry S' of u to S' plus u's
//     color.
//  2. Merge step: two disjoint entries of v combine into their union.
//     Splits are enumerated with the shared subset pool and only splits
//     whose left part holds the lowest bit are tried.
//
// Only entries scoring at least zero are stored, and equal scores replace
// earlier ones. The best root entry is backtracked with an explicit stack.
// BuildMultipleTrees instead runs a best-first k-best search over the
// tables. Colors left out of the DP are attached greedily afterwards
// (see tree.AttachRemainingColors).
//
// # Heuristics
//
// The heuristics share a scaffold that keeps the selection colorful, prunes
// subtrees with negative total gain and emits a trace. Ties are broken by
// arc index, so every heuristic is deterministic.
//
// # Errors
//
// Malformed graphs fail with a precondition code from pkg/errors. A tree
// below the lowerbound is not an error: it is simply not returned.
package solver
