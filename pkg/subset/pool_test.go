package subset

import (
	"slices"
	"sync"
	"testing"

	"github.com/matzehuels/fragtree/pkg/observability"
)

func bruteForce(set Key) []Key {
	var out []Key
	for k := Key(0); k <= set; k++ {
		if k&^set == 0 {
			out = append(out, k)
		}
		if k == set {
			break
		}
	}
	return out
}

func TestEnumerate(t *testing.T) {
	tests := []struct {
		name string
		set  Key
		want []Key
	}{
		{"empty", 0, []Key{0}},
		{"single", 0b100, []Key{0, 0b100}},
		{"two bits", 0b101, []Key{0, 0b001, 0b100, 0b101}},
		{"contiguous", 0b111, []Key{0, 1, 2, 3, 4, 5, 6, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Enumerate(tt.set); !slices.Equal(got, tt.want) {
				t.Errorf("Enumerate(%b) = %v, want %v", tt.set, got, tt.want)
			}
		})
	}
}

func TestEnumerateMatchesBruteForce(t *testing.T) {
	for _, set := range []Key{0b1, 0b1010, 0b110011, 0b1011_0110, 0b1111_0000_1010} {
		got := Enumerate(set)
		want := bruteForce(set)
		if !slices.Equal(got, want) {
			t.Errorf("Enumerate(%b) mismatch: got %d keys, want %d", set, len(got), len(want))
		}
		if len(got) != 1<<set.Len() {
			t.Errorf("Enumerate(%b) has %d entries, want %d", set, len(got), 1<<set.Len())
		}
	}
}

func TestKeyHelpers(t *testing.T) {
	k := Bit(1) | Bit(4)
	if k.Len() != 2 {
		t.Errorf("Len() = %d, want 2", k.Len())
	}
	if !k.Has(4) || k.Has(2) {
		t.Error("Has() wrong")
	}
	if k.Lowest() != Bit(1) {
		t.Errorf("Lowest() = %b", k.Lowest())
	}
	if Key(0).Lowest() != 0 {
		t.Error("Lowest() of empty set should be 0")
	}
}

func TestPoolWarmAndCold(t *testing.T) {
	p := NewPool(0)
	set := Key(0b1101)

	cold := p.Subsets(set)
	warm := p.Subsets(set)
	if !slices.Equal(cold, warm) || !slices.Equal(cold, Enumerate(set)) {
		t.Fatal("warm and cold enumerations differ")
	}

	s := p.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Entries != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, 1 entry", s)
	}
	if s.Bytes != int64(len(cold))*bytesPerKey {
		t.Errorf("Bytes = %d", s.Bytes)
	}
	if s.Budget != DefaultBudget {
		t.Errorf("Budget = %d, want default", s.Budget)
	}
}

type evictRecorder struct {
	mu     sync.Mutex
	events int
}

func (r *evictRecorder) OnEvict(int, int64) {
	r.mu.Lock()
	r.events++
	r.mu.Unlock()
}

func TestPoolEviction(t *testing.T) {
	rec := &evictRecorder{}
	observability.SetSubsetPoolHooks(rec)
	defer observability.Reset()

	// 16 keys * 4 bytes = 64 bytes per 4-bit set.
	p := NewPool(100)
	first := p.Subsets(0b1111)
	p.Subsets(0b11110) // exceeds 100 bytes -> evict

	s := p.Stats()
	if s.Evictions != 1 {
		t.Fatalf("Evictions = %d, want 1", s.Evictions)
	}
	if s.Entries != 0 || s.Bytes != 0 {
		t.Errorf("pool not cleared: %+v", s)
	}
	if rec.events != 1 {
		t.Errorf("OnEvict called %d times, want 1", rec.events)
	}
	if !slices.Equal(first, Enumerate(0b1111)) {
		t.Error("slice handed out before eviction was modified")
	}
	if !slices.Equal(p.Subsets(0b1111), first) {
		t.Error("enumeration after eviction differs")
	}
}

func TestPoolClear(t *testing.T) {
	p := NewPool(0)
	p.Subsets(0b11)
	p.Subsets(0b111)
	p.Clear()
	if s := p.Stats(); s.Entries != 0 || s.Bytes != 0 || s.Misses != 2 {
		t.Errorf("after Clear() Stats() = %+v", s)
	}
}

func TestPoolConcurrent(t *testing.T) {
	p := NewPool(512)
	var wg sync.WaitGroup
	errs := make(chan Key, 64)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				set := Key((i*7 + w) % 256)
				if !slices.Equal(p.Subsets(set), Enumerate(set)) {
					errs <- set
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for set := range errs {
		t.Errorf("concurrent Subsets(%b) returned wrong enumeration", set)
	}
}

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() should return the same pool")
	}
}
