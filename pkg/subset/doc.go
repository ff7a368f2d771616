// Package subset provides color bitsets and a shared cache of their sub-bitset
// enumerations.
//
// # Keys
//
// A [Key] is a uint32 bitset over at most 32 colors. The exact solver binds
// its DP colors to bit positions and uses keys to index per-vertex tables.
//
// # Enumeration
//
// [Enumerate] lists every sub-bitset of a set in ascending numeric order
// using the classic (sub - set) & set step:
//
//	subset.Enumerate(0b101) // [0b000 0b001 0b100 0b101]
//
// # Pool
//
// Enumerating the same sets over and over for every vertex of every graph is
// wasteful, so a [Pool] caches enumerations grouped by size class (the
// popcount of the set). Lookups share a read lock; misses compute the list
// without holding any lock and then insert it under the write lock.
//
// The pool tracks a running memory estimate of 4 bytes per cached key. When
// an insert pushes the estimate past the byte budget, the entire pool is
// cleared and the estimate reset. There is no partial eviction. Slices handed
// out before an eviction stay valid because cached slices are never mutated.
//
// [Default] returns the process-wide pool shared by all exact solvers.
package subset
