// Package pipeline composes transforms into runnable pipelines and records
// their runs so that they can be replayed or undone.
//
// # Composition
//
// [Compose] runs its transforms in order behind one pipeline-level gate.
// [ReplayCompose] additionally records every child's parameters and returns
// them as a [Saved] run:
//
//	rc, _ := pipeline.NewReplayCompose([]transform.Transform{flip, rot}, 1, "")
//	out, saved, err := rc.Apply(data, transform.WithRand(r))
//
// A Saved run is plain JSON. It rebuilds its transforms through the registry,
// so it can be stored and replayed elsewhere:
//
//	again, err := pipeline.Replay(saved, other)
//	orig, err := pipeline.Reverse(saved, out)
//
// # Spec files
//
// Pipelines are declared in TOML, YAML or JSON and loaded with [LoadSpec].
//
// # Batch runs
//
// [Runner] applies a spec to many samples, caching each sample's Saved run
// so that a second run with the same seed replays instead of resampling.
package pipeline

import (
	"fmt"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
	"github.com/matzehuels/augment/pkg/errors"
)

// Compose applies transforms in order. P gates the whole pipeline.
type Compose struct {
	Transforms []transform.Transform
	P          float64
}

// NewCompose validates p and returns a pipeline.
func NewCompose(transforms []transform.Transform, p float64) (*Compose, error) {
	if err := errors.ValidateProbability(p); err != nil {
		return nil, err
	}
	return &Compose{Transforms: transforms, P: p}, nil
}

// Apply runs the pipeline once. The pipeline gate draws only when not
// forced; force is passed on to every child.
func (c *Compose) Apply(data target.Bundle, opts ...transform.Option) (target.Bundle, error) {
	o := transform.ResolveOptions(opts...)
	if !(o.Force || o.Rand.Float64() < c.P) {
		return data.Clone(), nil
	}
	return c.run(data, o)
}

func (c *Compose) run(data target.Bundle, o transform.CallOptions) (target.Bundle, error) {
	out := data
	for i, t := range c.Transforms {
		next, err := transform.Apply(t, out, o.Options()...)
		if err != nil {
			return nil, fmt.Errorf("transform %d (%s): %w", i, t.Name(), err)
		}
		out = next
	}
	if len(c.Transforms) == 0 {
		return data.Clone(), nil
	}
	return out, nil
}
