package cache

// ScopedKeyer wraps a Keyer with a prefix so several canvases or tenants
// can share one backend without colliding.
//
// Example usage:
//
//	// One namespace per served canvas
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "canvas:"+eng.ID()+":")
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

// RenderKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(graphHash, opts)
}
