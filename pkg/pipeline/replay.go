package pipeline

import (
	"fmt"
	"slices"

	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
	"github.com/matzehuels/augment/pkg/errors"
)

// SchemaVersion is the version of serialized runs and spec files.
const SchemaVersion = "v1"

// Saved is a recorded pipeline run.
type Saved struct {
	SchemaVersion string           `json:"schema_version"`
	P             float64          `json:"p"`
	SaveKey       string           `json:"save_key"`
	Transforms    []SavedTransform `json:"transforms"`
}

// SavedTransform is one stage of a recorded run. Params is nil when the
// stage did not fire.
type SavedTransform struct {
	Transform map[string]any   `json:"transform"`
	Applied   bool             `json:"applied"`
	Params    transform.Params `json:"params"`
}

// Name returns the registered name of the stage.
func (s SavedTransform) Name() string {
	name, _ := s.Transform[registry.KeyClass].(string)
	return name
}

// Applied counts the stages that fired.
func (s *Saved) Applied() int {
	n := 0
	for _, st := range s.Transforms {
		if st.Applied {
			n++
		}
	}
	return n
}

// Build rebuilds the transforms of s with their recorded IDs.
func (s *Saved) Build() ([]transform.Transform, error) {
	if s.SchemaVersion != SchemaVersion {
		return nil, errors.New(errors.ErrCodeInvalidInput, "saved run has schema %q, want %q", s.SchemaVersion, SchemaVersion)
	}
	ts := make([]transform.Transform, len(s.Transforms))
	for i, st := range s.Transforms {
		t, err := registry.FromDict(st.Transform)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		if err := t.Config().SetDeterministic(true, s.saveKey()); err != nil {
			return nil, err
		}
		ts[i] = t
	}
	return ts, nil
}

// Container returns the replay container holding the params of every stage
// that fired.
func (s *Saved) Container() transform.Replay {
	c := transform.NewReplay()
	for _, st := range s.Transforms {
		if !st.Applied || st.Params == nil {
			continue
		}
		if id, ok := st.Transform[registry.KeyID].(string); ok {
			c[id] = st.Params
		}
	}
	return c
}

func (s *Saved) saveKey() string {
	if s.SaveKey == "" {
		return transform.DefaultSaveKey
	}
	return s.SaveKey
}

// ReplayCompose is a Compose that records its run.
type ReplayCompose struct {
	Compose
	SaveKey string
}

// NewReplayCompose marks every transform deterministic under saveKey. An
// empty saveKey selects transform.DefaultSaveKey.
func NewReplayCompose(transforms []transform.Transform, p float64, saveKey string) (*ReplayCompose, error) {
	if saveKey == "" {
		saveKey = transform.DefaultSaveKey
	}
	c, err := NewCompose(transforms, p)
	if err != nil {
		return nil, err
	}
	for _, t := range transforms {
		if err := t.Config().SetDeterministic(true, saveKey); err != nil {
			return nil, err
		}
	}
	return &ReplayCompose{Compose: *c, SaveKey: saveKey}, nil
}

// Apply runs the pipeline and returns its output with the recorded run.
// The output never carries the replay container.
func (rc *ReplayCompose) Apply(data target.Bundle, opts ...transform.Option) (target.Bundle, *Saved, error) {
	if _, taken := data[rc.SaveKey]; taken {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "data already has a %q key", rc.SaveKey)
	}
	in := data.Clone()
	c := transform.NewReplay()
	in[rc.SaveKey] = c

	out, err := rc.Compose.Apply(in, opts...)
	if err != nil {
		return nil, nil, err
	}
	delete(out, rc.SaveKey)
	return out, rc.saved(c), nil
}

func (rc *ReplayCompose) saved(c transform.Replay) *Saved {
	s := &Saved{
		SchemaVersion: SchemaVersion,
		P:             rc.P,
		SaveKey:       rc.SaveKey,
		Transforms:    make([]SavedTransform, len(rc.Transforms)),
	}
	for i, t := range rc.Transforms {
		rec, ok := c.Lookup(t.Config().ID())
		s.Transforms[i] = SavedTransform{
			Transform: registry.ToDict(t),
			Applied:   ok,
			Params:    rec,
		}
	}
	return s
}

// Replay reruns the recorded run on data with this pipeline's own
// transforms. Their replay mode is restored afterwards.
func (rc *ReplayCompose) Replay(saved *Saved, data target.Bundle) (target.Bundle, error) {
	return replayWith(rc.Transforms, saved, data)
}

// Replay rebuilds the transforms of saved and applies its recorded params to
// data. Sampling is skipped entirely: stages that did not fire pass data
// through, so the output is identical to the recorded run given the same
// input.
func Replay(saved *Saved, data target.Bundle) (target.Bundle, error) {
	ts, err := saved.Build()
	if err != nil {
		return nil, err
	}
	return replayWith(ts, saved, data)
}

func replayWith(ts []transform.Transform, saved *Saved, data target.Bundle) (target.Bundle, error) {
	key := saved.saveKey()
	if _, taken := data[key]; taken {
		return nil, errors.New(errors.ErrCodeInvalidInput, "data already has a %q key", key)
	}
	for _, t := range ts {
		b := t.Config()
		prev := b.ReplayMode()
		b.SetReplayMode(true)
		defer b.SetReplayMode(prev)
	}

	in := data.Clone()
	in[key] = saved.Container()
	out, err := (&Compose{Transforms: ts, P: 1}).run(in, transform.ResolveOptions(transform.WithForce(true)))
	if err != nil {
		return nil, err
	}
	delete(out, key)
	return out, nil
}

// Reverse undoes a recorded run on its output. Stages are undone last to
// first; stages that did not fire are skipped. A stage without an inverse
// fails the whole call with NOT_IMPLEMENTED.
func Reverse(saved *Saved, data target.Bundle) (target.Bundle, error) {
	ts, err := saved.Build()
	if err != nil {
		return nil, err
	}
	out := data.Clone()
	for i, t := range slices.Backward(ts) {
		st := saved.Transforms[i]
		if !st.Applied {
			continue
		}
		if out, err = transform.Reverse(t, out, st.Params); err != nil {
			return nil, fmt.Errorf("reverse stage %d (%s): %w", i, t.Name(), err)
		}
	}
	return out, nil
}
