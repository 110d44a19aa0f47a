package transform

import (
	"image"
	"maps"
	"math/rand/v2"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/errors"
)

// GenerateParams samples the parameters for one application of t.
//
// Configuration-only parameters come from t.Params. If t is a
// [TargetParamer], the values of its declared keys are extracted from data
// and the parameters computed from them are merged on top. A declared key
// missing from data fails with errors.ErrCodeMissingTarget naming every
// missing key.
func GenerateParams(t Transform, data target.Bundle, r *rand.Rand) (Params, error) {
	params, err := t.Params(r)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = Params{}
	}

	tp, ok := t.(TargetParamer)
	if !ok || len(tp.TargetsAsParams()) == 0 {
		return params, nil
	}

	keys := tp.TargetsAsParams()
	var missing []string
	for _, k := range keys {
		if _, ok := data[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrCodeMissingTarget, "%s requires %v, missing %v", t.Name(), keys, missing)
	}

	values := make(map[string]any, len(keys))
	for _, k := range keys {
		values[k] = data[k]
	}
	dependent, err := tp.ParamsDependentOnTargets(r, values)
	if err != nil {
		return nil, err
	}
	maps.Copy(params, dependent)
	return params, nil
}

// UpdateParams returns a copy of params with the fixed settings of t and the
// frame geometry of data["image"]. It runs on every application, recorded or
// replayed, since geometry belongs to the call.
func UpdateParams(t Transform, params Params, data target.Bundle) (Params, error) {
	out := params.Clone()
	if f, ok := t.(FixedParamer); ok {
		maps.Copy(out, f.FixedParams())
	}
	rows, cols, err := frame(data)
	if err != nil {
		return nil, err
	}
	out[ParamRows] = rows
	out[ParamCols] = cols
	return out, nil
}

func frame(data target.Bundle) (rows, cols int, err error) {
	v, ok := data[string(target.KindImage)]
	if !ok || v == nil {
		return 0, 0, errors.New(errors.ErrCodeMissingTarget, "frame geometry requires an %q item", target.KindImage)
	}
	img, ok := v.(image.Image)
	if !ok {
		return 0, 0, wrongType("image.Image", v)
	}
	rows, cols = target.Frame(img)
	return rows, cols, nil
}
