// Package cache stores solved fragmentation trees between runs.
//
// A [Cache] is a byte store with expiry. Three backends exist:
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for workers solving the same
//     graphs on several machines
//   - [NullCache]: stores nothing, for --no-cache runs and tests
//
// Keys are built by a [Keyer] from the hash of the graph document and every
// solver setting that influences the result, so changing a setting never
// returns a stale tree.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store with optional expiry.
type Cache interface {
	// Get returns the stored data and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TreeKeyOpts lists the solver settings a cached result depends on.
type TreeKeyOpts struct {
	Strategy   string  `json:"strategy"`
	MaxColors  int     `json:"max_colors,omitempty"`
	Trees      int     `json:"trees,omitempty"`
	Delta      float64 `json:"delta,omitempty"`
	Lowerbound float64 `json:"lowerbound,omitempty"`
	RDEFactor  float64 `json:"rde_factor,omitempty"`
	Multiple   bool    `json:"multiple,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// TreeKey identifies the trees solved from the graph with the given
	// content hash under opts.
	TreeKey(graphHash string, opts TreeKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TreeKey implements Keyer.
func (DefaultKeyer) TreeKey(graphHash string, opts TreeKeyOpts) string {
	return hashKey("tree", graphHash, opts)
}
