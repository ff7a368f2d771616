// Package tree defines fragmentation trees and the solver-agnostic extractor
// that builds them.
//
// # Traces
//
// Solvers never construct a [Tree] directly. They emit a [Trace]: the root
// vertex plus the selected arcs, each arc listed after the arc that brought
// its source into the tree. Both the exact DP backtracker and the heuristic
// scaffold produce traces, so one [Extractor] normalizes every strategy's
// output.
//
// # Extraction
//
// [Extractor.Extract] resolves arcs against the candidate graph, checks that
// the selection is colorful (one vertex per color) and forms a tree rooted at
// the trace root, and sums the arc weights into the score. A violation is an
// internal error: solvers must never hand out partial or corrupted trees.
//
// With AttachRemaining set, the extractor then runs [AttachRemainingColors],
// which greedily hangs vertices of still-unused colors onto the tree wherever
// an arc with non-negative weight allows it. The exact solver optimizes over
// a capped color palette and relies on this pass to account for the rest.
//
// # Trees
//
// A [Tree] is immutable once returned. Nodes are stored root first, then in
// attachment order, so a parent always precedes its children.
package tree
