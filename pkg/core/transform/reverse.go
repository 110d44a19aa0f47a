package transform

import (
	"maps"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/observability"
)

// Reverse undoes a forward application of t given its record, as stored in
// a [Replay] container. A nil record means t did not fire, and data is
// returned unchanged.
//
// The inverse handlers receive the recorded params, overlaid with the
// recorded reverse arguments, the frame geometry of data when it carries an
// image, and any dependency values taken from data.
func Reverse(t Transform, data target.Bundle, rec Params) (target.Bundle, error) {
	if rec == nil {
		return data.Clone(), nil
	}
	b := t.Config()

	p := forwardParams(rec, b.SaveKey())
	if args, ok := rec.Sub(b.SaveKey()); ok {
		maps.Copy(p, args)
	}
	if f, ok := t.(FixedParamer); ok {
		for k, v := range f.FixedParams() {
			if !p.Has(k) {
				p[k] = v
			}
		}
	}
	if rows, cols, err := frame(data); err == nil {
		p[ParamRows] = rows
		p[ParamCols] = cols
	}

	out, err := dispatch(t, ReverseTable(t), p, data)
	observability.Transforms().OnReverse(t.Name(), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}
