package solver

import (
	"github.com/matzehuels/fragtree/pkg/subset"
	"github.com/matzehuels/fragtree/pkg/tree"
)

// item is an open (vertex, key) pair during backtracking.
type item struct {
	v int
	k subset.Key
}

// backtrack follows the winning choices from the root entry with key k.
// An explicit stack replaces recursion; arcs are emitted after their source
// vertex is part of the tree.
func (st *dpState) backtrack(k subset.Key) tree.Trace {
	tr := tree.Trace{Root: st.root}
	stack := []item{{v: st.root, k: k}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := st.tables[it.v].choice(it.k)
		switch c.kind {
		case choiceChild:
			tr.Arcs = append(tr.Arcs, c.arc)
			stack = append(stack, item{v: st.g.Arc(c.arc).Target, k: c.key})
		case choiceMerge:
			stack = append(stack, item{v: it.v, k: it.k &^ c.key}, item{v: it.v, k: c.key})
		}
	}
	return tr
}
