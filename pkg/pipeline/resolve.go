package pipeline

import (
	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/target"
)

// Resolver types the canonical keys plus the aliases the pipeline declares.
func (s *Spec) Resolver() target.Resolver {
	aliases := map[string]target.Kind{}
	for _, ts := range s.Transforms {
		for k, v := range ts.Targets {
			aliases[k] = target.Kind(v)
		}
	}
	return aliasResolver(aliases)
}

// Resolver types the canonical keys plus the aliases recorded in the
// serialized transforms.
func (s *Saved) Resolver() target.Resolver {
	aliases := map[string]target.Kind{}
	for _, st := range s.Transforms {
		switch at := st.Transform[registry.KeyAdditionalTargets].(type) {
		case map[string]any:
			for k, v := range at {
				if name, ok := v.(string); ok {
					aliases[k] = target.Kind(name)
				}
			}
		case map[string]string:
			for k, v := range at {
				aliases[k] = target.Kind(v)
			}
		}
	}
	return aliasResolver(aliases)
}

func aliasResolver(aliases map[string]target.Kind) target.Resolver {
	return func(key string) (target.Kind, bool) {
		if k, ok := target.ParseKind(key); ok {
			return k, true
		}
		k, ok := aliases[key]
		return k, ok && k.Valid()
	}
}
