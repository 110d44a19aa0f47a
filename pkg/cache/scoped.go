package cache

// ScopedKeyer wraps a Keyer with a prefix, so that several tenants or
// datasets can share one backend without collisions.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "dataset:coco:")
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

// ReplayKey generates a prefixed replay key.
func (k *ScopedKeyer) ReplayKey(sampleHash, pipelineHash string, seed uint64) string {
	return k.prefix + k.inner.ReplayKey(sampleHash, pipelineHash, seed)
}

// PipelineKey generates a prefixed pipeline key.
func (k *ScopedKeyer) PipelineKey(pipelineHash string) string {
	return k.prefix + k.inner.PipelineKey(pipelineHash)
}
