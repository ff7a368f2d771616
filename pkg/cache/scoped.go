package cache

// ScopedKeyer wraps a Keyer with a prefix. Workers sharing one Redis
// instance use it to keep separate namespaces, for example per project:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "project:lipids:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TreeKey generates a prefixed key for tree caching.
func (k *ScopedKeyer) TreeKey(graphHash string, opts TreeKeyOpts) string {
	return k.prefix + k.inner.TreeKey(graphHash, opts)
}
