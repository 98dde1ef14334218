package cache

// ScopedKeyer prefixes every key of an inner Keyer. The HTTP server uses it
// so its entries never collide with those written by the CLI when both share
// a cache directory.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey implements Keyer.
func (k *ScopedKeyer) LayoutKey(inputHash string) string {
	return k.prefix + k.inner.LayoutKey(inputHash)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(layoutKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutKey, opts)
}
