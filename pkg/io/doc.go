// Package io provides JSON import and export for candidate graphs and
// fragmentation trees.
//
// # Graph Format
//
//	{
//	  "colors": 4,
//	  "root": "C7H6O2",
//	  "vertices": [
//	    {"id": "C7H6O2", "color": 0, "rank": 0},
//	    {"id": "C7H5O", "color": 1, "rank": 1, "label": "C7H5O+"},
//	    {"id": "C6H5", "color": 3, "rank": 3}
//	  ],
//	  "losses": [
//	    {"from": "C7H6O2", "to": "C7H5O", "weight": 5.0},
//	    {"from": "C7H6O2", "to": "C6H5", "weight": 3.0}
//	  ]
//	}
//
// "colors" may be omitted, in which case the largest vertex color plus one is
// used. "root" may be omitted when a unique lowest-rank source exists.
// Vertex "meta" objects and loss "meta" objects are carried through
// untouched; the solvers ignore them.
//
// [ReadGraph] validates identifiers, colors and weights while decoding and
// wraps failures in structured errors (INVALID_INPUT, INVALID_COLOR). It does
// not check acyclicity; that is left to dag.Graph.Validate, which every
// solver calls.
//
// # Tree Format
//
//	{
//	  "strategy": "exact",
//	  "score": 8,
//	  "attached_score": 0,
//	  "duration_ms": 0.42,
//	  "nodes": [
//	    {"id": "C7H6O2", "color": 0, "parent": ""},
//	    {"id": "C7H5O", "color": 1, "parent": "C7H6O2", "weight": 5}
//	  ]
//	}
//
// Trees are written root first. [ReadTree] resolves node IDs against a graph
// so the decoded tree can be validated and rendered.
package io
