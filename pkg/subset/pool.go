package subset

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/fragtree/pkg/observability"
)

// Key is a color bitset. Bit i set means color slot i is used.
type Key uint32

// MaxBits is the number of colors a Key can address.
const MaxBits = 32

// DefaultBudget is the byte ceiling of the shared pool (1 GiB).
const DefaultBudget int64 = 1 << 30

// bytesPerKey is the memory estimate charged per cached key.
const bytesPerKey = 4

// Len returns the number of colors in k.
func (k Key) Len() int { return bits.OnesCount32(uint32(k)) }

// Has reports whether bit i is set.
func (k Key) Has(i int) bool { return k&(1<<uint(i)) != 0 }

// Lowest returns the lowest set bit of k as a Key, or 0 for the empty set.
func (k Key) Lowest() Key { return k & -k }

// Bit returns the single-bit key for slot i.
func Bit(i int) Key { return 1 << uint(i) }

// Enumerate returns every sub-bitset of set in ascending order, starting with
// 0 and ending with set itself. The result has 2^popcount(set) entries.
func Enumerate(set Key) []Key {
	out := make([]Key, 0, 1<<uint(set.Len()))
	sub := Key(0)
	for {
		out = append(out, sub)
		if sub == set {
			return out
		}
		sub = (sub - set) & set
	}
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Entries   int   // Cached enumerations
	Bytes     int64 // Current memory estimate
	Budget    int64 // Configured ceiling
	Hits      int64
	Misses    int64
	Evictions int64
}

// Pool caches sub-bitset enumerations by size class. It is safe for
// concurrent use; the zero value is not usable, call NewPool.
type Pool struct {
	mu      sync.RWMutex
	classes [MaxBits + 1]map[Key][]Key
	entries int
	bytes   int64
	budget  int64

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewPool creates a pool that clears itself once its memory estimate exceeds
// budgetBytes. A non-positive budget selects DefaultBudget.
func NewPool(budgetBytes int64) *Pool {
	if budgetBytes <= 0 {
		budgetBytes = DefaultBudget
	}
	p := &Pool{budget: budgetBytes}
	p.reset()
	return p
}

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the process-wide pool with DefaultBudget.
func Default() *Pool {
	defaultOnce.Do(func() { defaultPool = NewPool(DefaultBudget) })
	return defaultPool
}

// Subsets returns the ascending enumeration of all sub-bitsets of set.
// The returned slice is shared and must not be modified.
func (p *Pool) Subsets(set Key) []Key {
	class := set.Len()

	p.mu.RLock()
	subs, ok := p.classes[class][set]
	p.mu.RUnlock()
	if ok {
		p.hits.Add(1)
		return subs
	}

	p.misses.Add(1)
	subs = Enumerate(set)

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.classes[class][set]; ok {
		return existing
	}
	p.classes[class][set] = subs
	p.entries++
	p.bytes += int64(len(subs)) * bytesPerKey
	if p.bytes > p.budget {
		p.evictLocked()
	}
	return subs
}

// Clear drops every cached enumeration and resets the memory estimate.
// Counters other than Entries and Bytes are kept.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	entries, bytes := p.entries, p.bytes
	p.mu.RUnlock()
	return Stats{
		Entries:   entries,
		Bytes:     bytes,
		Budget:    p.budget,
		Hits:      p.hits.Load(),
		Misses:    p.misses.Load(),
		Evictions: p.evictions.Load(),
	}
}

func (p *Pool) evictLocked() {
	entries, bytes := p.entries, p.bytes
	p.reset()
	p.evictions.Add(1)
	observability.SubsetPool().OnEvict(entries, bytes)
}

func (p *Pool) reset() {
	for i := range p.classes {
		p.classes[i] = make(map[Key][]Key)
	}
	p.entries = 0
	p.bytes = 0
}
