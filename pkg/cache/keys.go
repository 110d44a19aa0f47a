package cache

import "strings"

// Key prefixes. They double as key types in cache hooks.
const (
	PrefixReplay   = "replay"
	PrefixPipeline = "pipeline"
)

// Keyer builds cache keys.
type Keyer interface {
	// ReplayKey identifies the replay record of one sample run through one
	// pipeline with one seed.
	ReplayKey(sampleHash, pipelineHash string, seed uint64) string

	// PipelineKey identifies a serialized pipeline.
	PipelineKey(pipelineHash string) string
}

// DefaultKeyer hashes every component into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ReplayKey implements Keyer.
func (DefaultKeyer) ReplayKey(sampleHash, pipelineHash string, seed uint64) string {
	return hashKey(PrefixReplay, sampleHash, pipelineHash, seed)
}

// PipelineKey implements Keyer.
func (DefaultKeyer) PipelineKey(pipelineHash string) string {
	return PrefixPipeline + ":" + pipelineHash
}

// KeyType returns the prefix of key, for metrics labels.
func KeyType(key string) string {
	for {
		i := strings.IndexByte(key, ':')
		if i < 0 {
			return key
		}
		switch p := key[:i]; p {
		case PrefixReplay, PrefixPipeline:
			return p
		}
		key = key[i+1:]
	}
}
