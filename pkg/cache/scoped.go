package cache

// ScopedKeyer wraps a Keyer with a prefix so that several databases or
// users can share one cache backend without colliding.
//
// Example usage:
//
//	// Keys for the staging database
//	stagingKeyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// GraphKey generates a prefixed key for loaded graphs.
func (k *ScopedKeyer) GraphKey(source string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(source, opts)
}

// ResultKey generates a prefixed key for analysis results.
func (k *ScopedKeyer) ResultKey(graphHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(graphHash, opts)
}

// ArtifactKey generates a prefixed key for rendered artifacts.
func (k *ScopedKeyer) ArtifactKey(resultHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(resultHash, format)
}

// RunKey generates a prefixed key for API run artifacts.
func (k *ScopedKeyer) RunKey(runID, format string) string {
	return k.prefix + k.inner.RunKey(runID, format)
}
