package solver

import (
	"slices"

	"github.com/matzehuels/fragtree/pkg/subset"
)

type choiceKind uint8

const (
	choiceNone  choiceKind = iota // the empty subset: v alone
	choiceChild                   // a single child subtree via one arc
	choiceMerge                   // the union of two disjoint entries of the same table
)

// choice records how an entry was obtained. For choiceChild, arc and key
// name the child arc and the child's entry; for choiceMerge, key is the left
// part of the split.
type choice struct {
	kind choiceKind
	arc  int
	key  subset.Key
}

// table is the sparse DP table of one vertex: an arena of keys, scores and
// choices indexed by key. Entry 0 is always the empty set with score 0.
type table struct {
	keys    []subset.Key
	scores  []float64
	choices []choice
	index   map[subset.Key]int
}

func newTable() *table {
	return &table{
		keys:    []subset.Key{0},
		scores:  []float64{0},
		choices: []choice{{kind: choiceNone}},
		index:   map[subset.Key]int{0: 0},
	}
}

func (t *table) get(k subset.Key) (float64, bool) {
	i, ok := t.index[k]
	if !ok {
		return 0, false
	}
	return t.scores[i], true
}

func (t *table) choice(k subset.Key) choice {
	return t.choices[t.index[k]]
}

// offer stores score for k when it is at least the current value. Equal
// scores replace the stored entry, so the later candidate wins.
func (t *table) offer(k subset.Key, score float64, c choice) bool {
	if i, ok := t.index[k]; ok {
		if score < t.scores[i] {
			return false
		}
		t.scores[i] = score
		t.choices[i] = c
		return true
	}
	t.index[k] = len(t.keys)
	t.keys = append(t.keys, k)
	t.scores = append(t.scores, score)
	t.choices = append(t.choices, c)
	return true
}

func (t *table) len() int { return len(t.keys) }

// best returns the key with the highest score. Keys are compared in
// ascending order with >=, so among equal scores the largest key wins.
func (t *table) best() (subset.Key, float64) {
	keys := slices.Clone(t.keys)
	slices.Sort(keys)
	bestKey, bestScore := subset.Key(0), 0.0
	for _, k := range keys {
		if s, _ := t.get(k); s >= bestScore {
			bestKey, bestScore = k, s
		}
	}
	return bestKey, bestScore
}
