package transform

import (
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/observability"
)

// Apply runs one call of t on data.
//
// In the normal state the gate decides whether t fires; if it does, params
// are generated and dispatched. In the deterministic state the params are
// also recorded into the Replay container found under the save key. In the
// replaying state the gate and the sampling are skipped: the recorded params
// are dispatched, or data passes through if t has no record.
func Apply(t Transform, data target.Bundle, opts ...Option) (target.Bundle, error) {
	b := t.Config()
	if b.ReplayMode() {
		return replay(t, data)
	}

	o := ResolveOptions(opts...)
	if !ShouldApply(o.Rand, b.AlwaysApply, o.Force, b.P) {
		observability.Transforms().OnApply(t.Name(), b.ID(), false)
		return data.Clone(), nil
	}

	params, err := GenerateParams(t, data, o.Rand)
	if err != nil {
		return nil, err
	}
	if b.Deterministic() {
		if tp, ok := t.(TargetParamer); ok && len(tp.TargetsAsParams()) > 0 {
			msg := t.Name() + " could work incorrectly in replay mode for other input data because its params depend on targets"
			o.Logger.Warn(msg, "transform", t.Name(), "id", b.ID())
			observability.Transforms().OnAdvisory(t.Name(), msg)
		}
		if err := record(t, data, params); err != nil {
			return nil, err
		}
	}

	out, err := ApplyWithParams(t, params, data)
	if err != nil {
		return nil, err
	}
	observability.Transforms().OnApply(t.Name(), b.ID(), true)
	return out, nil
}

func replay(t Transform, data target.Bundle) (target.Bundle, error) {
	b := t.Config()
	c, err := ReplayFrom(data, b.SaveKey())
	if err != nil {
		return nil, err
	}
	rec, ok := c.Lookup(b.ID())
	if !ok {
		observability.Transforms().OnReplay(t.Name(), b.ID(), false)
		return data.Clone(), nil
	}
	out, err := ApplyWithParams(t, forwardParams(rec, b.SaveKey()), data)
	if err != nil {
		return nil, err
	}
	observability.Transforms().OnReplay(t.Name(), b.ID(), true)
	return out, nil
}
