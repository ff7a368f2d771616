package solver

import (
	"container/heap"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/fragtree/pkg/subset"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// open is an unresolved part of a derivation. Atom items must be realized
// by a single child arc; plain items may also split.
type open struct {
	item
	atom bool
}

// openList and arcList are persistent linked lists so derivations can share
// their prefixes.
type openList struct {
	head open
	next *openList
}

type arcList struct {
	arc  int
	next *arcList
}

// derivation is a partial tree: fixed arcs plus open items. Its bound is the
// exact score of its best completion.
type derivation struct {
	bound float64
	arcs  *arcList
	todo  *openList
	seq   int
}

// kBest enumerates traces in order of DP score and hands each distinct one to
// accept until n were accepted. Every tree
// has a unique decomposition: at each (vertex, key) either one child covers
// the key, or the child holding the lowest bit of the key is split off as an
// atom and the rest stays open.
func (st *dpState) kBest(n int, delta float64, maxExpansions int, accept func(tree.Trace) (bool, error)) error {
	root := st.tables[st.root]
	h := &derivationHeap{}
	seq := 0
	floor := st.rootScore - delta
	for i, k := range root.keys {
		if root.scores[i] < floor {
			continue
		}
		heap.Push(h, &derivation{
			bound: root.scores[i],
			todo:  &openList{head: open{item: item{v: st.root, k: k}}},
			seq:   seq,
		})
		seq++
	}

	accepted := 0
	seen := make(map[string]bool)
	for pops := 0; h.Len() > 0 && accepted < n && pops < maxExpansions; pops++ {
		d := heap.Pop(h).(*derivation)
		if d.todo == nil {
			tr := d.trace(st.root)
			sig := signature(tr.Arcs)
			if seen[sig] {
				continue
			}
			seen[sig] = true
			ok, err := accept(tr)
			if err != nil {
				return err
			}
			if ok {
				accepted++
			}
			continue
		}

		cur, rest := d.todo.head, d.todo.next
		base := d.bound - st.value(cur)
		for _, alt := range st.alternatives(cur) {
			next := &derivation{
				bound: base + alt.score,
				arcs:  d.arcs,
				todo:  rest,
				seq:   seq,
			}
			seq++
			if next.bound < floor {
				continue
			}
			if alt.arc >= 0 {
				next.arcs = &arcList{arc: alt.arc, next: d.arcs}
			}
			for _, o := range alt.push {
				next.todo = &openList{head: o, next: next.todo}
			}
			heap.Push(h, next)
		}
	}
	return nil
}

// alternative is one way to realize an open item.
type alternative struct {
	score float64
	arc   int // -1 for splits
	push  []open
}

func (st *dpState) alternatives(o open) []alternative {
	if o.k == 0 {
		return []alternative{{arc: -1}}
	}
	alts := st.childOptions(o.v, o.k)
	if o.atom {
		return alts
	}
	t := st.tables[o.v]
	low := o.k.Lowest()
	for _, left := range st.pool.Subsets(o.k) {
		if left == 0 || left == o.k || left&low == 0 {
			continue
		}
		ls, ok := st.bestChild(o.v, left)
		if !ok {
			continue
		}
		rs, ok := t.get(o.k &^ left)
		if !ok || ls+rs < 0 {
			continue
		}
		alts = append(alts, alternative{
			score: ls + rs,
			arc:   -1,
			push: []open{
				{item: item{v: o.v, k: o.k &^ left}},
				{item: item{v: o.v, k: left}, atom: true},
			},
		})
	}
	return alts
}

// childOptions lists the arcs from v whose child subtree covers exactly k.
func (st *dpState) childOptions(v int, k subset.Key) []alternative {
	var alts []alternative
	own := st.colors.bit(st.g.Color(v))
	for _, a := range st.g.OutArcs(v) {
		u := a.Target
		if !st.active[u] || st.tables[u] == nil {
			continue
		}
		ub := st.colors.bit(st.g.Color(u))
		if ub&k == 0 || ub&own != 0 {
			continue
		}
		x, ok := st.tables[u].get(k &^ ub)
		if !ok || x+a.Weight < 0 {
			continue
		}
		alts = append(alts, alternative{
			score: x + a.Weight,
			arc:   a.Index,
			push:  []open{{item: item{v: u, k: k &^ ub}}},
		})
	}
	return alts
}

func (st *dpState) bestChild(v int, k subset.Key) (float64, bool) {
	best, found := 0.0, false
	for _, alt := range st.childOptions(v, k) {
		if !found || alt.score > best {
			best, found = alt.score, true
		}
	}
	return best, found
}

// value is the exact best score of an open item.
func (st *dpState) value(o open) float64 {
	if o.atom {
		s, _ := st.bestChild(o.v, o.k)
		return s
	}
	s, _ := st.tables[o.v].get(o.k)
	return s
}

// trace converts the fixed arcs into a trace. Arcs are prepended while
// expanding, so reversing restores an order where parents come first.
func (d *derivation) trace(root int) tree.Trace {
	var arcs []int
	for a := d.arcs; a != nil; a = a.next {
		arcs = append(arcs, a.arc)
	}
	slices.Reverse(arcs)
	return tree.Trace{Root: root, Arcs: arcs}
}

func signature(arcs []int) string {
	sorted := slices.Clone(arcs)
	slices.Sort(sorted)
	var b strings.Builder
	for i, a := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(a))
	}
	return b.String()
}

// derivationHeap pops the highest bound first, ties in creation order.
type derivationHeap []*derivation

func (h derivationHeap) Len() int { return len(h) }
func (h derivationHeap) Less(i, j int) bool {
	if h[i].bound != h[j].bound {
		return h[i].bound > h[j].bound
	}
	return h[i].seq < h[j].seq
}
func (h derivationHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *derivationHeap) Push(x any)   { *h = append(*h, x.(*derivation)) }
func (h *derivationHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}
