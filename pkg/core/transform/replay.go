package transform

import (
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/errors"
)

// Replay holds the records of one pipeline run, keyed by transform ID. Each
// record is the parameters of one application plus, under the transform's
// save key, the arguments its inverse needs.
//
// A Replay is owned by the caller and must not be shared between concurrent
// runs.
type Replay map[string]Params

// NewReplay returns an empty container.
func NewReplay() Replay { return Replay{} }

// Lookup returns the record of the transform with the given ID.
func (r Replay) Lookup(id string) (Params, bool) {
	rec, ok := r[id]
	return rec, ok
}

// ReplayFrom returns the container stored in data under key. Containers that
// went through a JSON round trip arrive as map[string]any and are converted.
func ReplayFrom(data target.Bundle, key string) (Replay, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return nil, errors.New(errors.ErrCodeMissingTarget, "no replay container under %q", key)
	}
	switch c := v.(type) {
	case Replay:
		return c, nil
	case map[string]Params:
		return Replay(c), nil
	case map[string]any:
		out := make(Replay, len(c))
		for id, raw := range c {
			switch rec := raw.(type) {
			case Params:
				out[id] = rec
			case map[string]any:
				out[id] = Params(rec)
			default:
				return nil, errors.New(errors.ErrCodeInvalidInput, "replay record %s: want object, got %T", id, raw)
			}
		}
		return out, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "replay container %q: unexpected %T", key, v)
}

// record snapshots params into the container of data. The snapshot is a deep
// copy, so later changes to params never reach the record.
func record(t Transform, data target.Bundle, params Params) error {
	b := t.Config()
	rec, err := params.DeepCopy()
	if err != nil {
		return err
	}
	reverse := Params{}
	if ra, ok := t.(ReverseArger); ok {
		if reverse, err = ra.ReverseArgs(data); err != nil {
			return err
		}
		if reverse == nil {
			reverse = Params{}
		}
	}
	rec[b.SaveKey()] = reverse

	switch c := data[b.SaveKey()].(type) {
	case Replay:
		c[b.ID()] = rec
	case map[string]Params:
		c[b.ID()] = rec
	case map[string]any:
		c[b.ID()] = rec
	case nil:
		return errors.New(errors.ErrCodeMissingTarget, "%s records under %q but the call carries no container", t.Name(), b.SaveKey())
	default:
		return errors.New(errors.ErrCodeInvalidInput, "replay container %q: unexpected %T", b.SaveKey(), c)
	}
	return nil
}

// forwardParams strips the reverse arguments from a record.
func forwardParams(rec Params, saveKey string) Params {
	p := rec.Clone()
	delete(p, saveKey)
	return p
}
