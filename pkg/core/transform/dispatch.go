package transform

import (
	"fmt"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/errors"
)

// ApplyWithParams dispatches every item of data through the forward table of
// t with params. Nil params mean the transform did not fire: data is returned
// unchanged.
func ApplyWithParams(t Transform, params Params, data target.Bundle) (target.Bundle, error) {
	if params == nil {
		return data.Clone(), nil
	}
	p, err := UpdateParams(t, params, data)
	if err != nil {
		return nil, err
	}
	return dispatch(t, t.Targets(), p, data)
}

// dispatch runs one pass over data. Nil values stay nil. Keys that resolve to
// no declared kind pass through. Dependency values are read from data, never
// from outputs of the same pass.
func dispatch(t Transform, table Targets, params Params, data target.Bundle) (target.Bundle, error) {
	b := t.Config()
	var deps map[target.Kind][]string
	if d, ok := t.(Dependent); ok {
		deps = d.TargetDependence()
	}

	out := make(target.Bundle, len(data))
	for _, key := range data.Keys() {
		value := data[key]
		if value == nil {
			out[key] = nil
			continue
		}
		kind := b.Resolve(key)
		handler, ok := table[kind]
		if !ok {
			out[key] = value
			continue
		}

		p := params
		if names := deps[kind]; len(names) > 0 {
			p = params.Clone()
			for _, name := range names {
				dv, ok := data[name]
				if !ok {
					return nil, errors.New(errors.ErrCodeMissingTarget, "%s: %s depends on missing item %q", t.Name(), kind, name)
				}
				p[name] = dv
			}
		}

		res, err := handler(value, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", t.Name(), key, err)
		}
		out[key] = res
	}
	return out, nil
}
