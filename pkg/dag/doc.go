// Package dag provides the fragmentation candidate graph consumed by the tree
// solvers.
//
// # Overview
//
// A candidate graph is built once per spectrum by an upstream graph builder.
// Every vertex is one explanation (molecular formula) of one peak; the peak is
// the vertex's color. Losses connect a higher-mass fragment to a lower-mass
// fragment and carry a precomputed score that may be negative. Because losses
// always decrease mass, the graph is a DAG, and each vertex carries its
// position in that mass ordering as Rank (0 = precursor).
//
// # Basic Usage
//
// Create a new graph with [New], add vertices with [Graph.AddVertex], and
// losses with [Graph.AddLoss]:
//
//	g := dag.New(4, nil)
//	g.AddVertex(dag.Vertex{ID: "C10H12N2O", Color: 0, Rank: 0})
//	g.AddVertex(dag.Vertex{ID: "C9H9N2", Color: 1, Rank: 1})
//	g.AddLoss(dag.Loss{From: "C10H12N2O", To: "C9H9N2", Weight: 2.4})
//
// Use [Graph.Validate] before solving. It checks that a root exists, that the
// graph is acyclic and that every loss respects the rank order. Solvers treat
// a failed validation as a fatal precondition violation.
//
// # Indices
//
// Vertices are identified by string IDs at the API boundary. Internally each
// vertex has a dense index (insertion order) and each loss an [Arc] with
// integer endpoints; the solvers work on indices only.
//
// # Metadata
//
// Vertices, losses and the graph itself support arbitrary metadata via
// [Metadata] maps. Solvers ignore metadata; it flows through to exported
// trees unchanged.
//
// # Concurrency
//
// Graph instances are not safe for concurrent mutation. A fully built graph
// is never modified by the solvers, so any number of solves may read the same
// graph in parallel.
package dag
