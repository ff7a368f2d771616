package cache

import (
	"context"
	"time"
)

// ReasonDisabled is the Reason of caches made by NewNullCache.
const ReasonDisabled = "disabled"

// NullCache stands in when solved trees are not kept: --no-cache runs, the
// "none" backend, or a Redis server that could not be reached. Every lookup
// misses, so each solve runs its builder.
type NullCache struct {
	// Reason says why caching is off. It shows up in debug logs.
	Reason string
}

// NewNullCache returns a NullCache with ReasonDisabled.
func NewNullCache() Cache {
	return Disabled(ReasonDisabled)
}

// Disabled returns a NullCache recording why trees are not cached.
func Disabled(reason string) *NullCache {
	return &NullCache{Reason: reason}
}

// Off reports whether c drops everything it is given, and why.
func Off(c Cache) (string, bool) {
	if n, ok := c.(*NullCache); ok {
		return n.Reason, true
	}
	return "", false
}

// The Cache methods discard writes and miss on every read.

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

var _ Cache = (*NullCache)(nil)
