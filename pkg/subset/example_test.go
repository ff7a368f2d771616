package subset_test

import (
	"fmt"

	"github.com/matzehuels/fragtree/pkg/subset"
)

func ExampleEnumerate() {
	for _, k := range subset.Enumerate(0b1010) {
		fmt.Printf("%04b\n", k)
	}
	// Output:
	// 0000
	// 0010
	// 1000
	// 1010
}

func ExamplePool() {
	pool := subset.NewPool(1 << 20)
	pool.Subsets(0b111)
	pool.Subsets(0b111)
	s := pool.Stats()
	fmt.Println("entries:", s.Entries, "hits:", s.Hits, "misses:", s.Misses)
	// Output:
	// entries: 1 hits: 1 misses: 1
}
