package transform

import (
	"encoding/json"
	"maps"
	"math"

	"github.com/mitchellh/copystructure"

	"github.com/matzehuels/augment/pkg/errors"
)

// Well-known parameter names injected by [UpdateParams].
const (
	ParamRows          = "rows"
	ParamCols          = "cols"
	ParamInterpolation = "interpolation"
	ParamFillValue     = "fill_value"
	ParamMaskFillValue = "mask_fill_value"
)

// Interpolation names understood by the spatial transforms.
const (
	InterpolationNearest = "nearest"
	InterpolationLinear  = "linear"
	InterpolationCubic   = "cubic"
	InterpolationLanczos = "lanczos"
)

// Params maps parameter names to values for one application.
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// DeepCopy returns a copy of p that shares no mutable state with it.
func (p Params) DeepCopy() (Params, error) {
	if p == nil {
		return Params{}, nil
	}
	v, err := copystructure.Copy(p)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "copy params")
	}
	switch c := v.(type) {
	case Params:
		return c, nil
	case map[string]any:
		return Params(c), nil
	}
	return nil, errors.New(errors.ErrCodeInternal, "copy params: unexpected %T", v)
}

// Has reports whether key is set.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Int returns key as an int. Integral floats and json.Number are accepted so
// that records survive a JSON round trip.
func (p Params) Int(key string) (int, error) {
	v, ok := p[key]
	if !ok {
		return 0, missingParam(key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, errors.New(errors.ErrCodeInvalidInput, "param %s: %v is not an integer", key, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "param %s", key)
		}
		return int(i), nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "param %s: want integer, got %T", key, v)
}

// Float returns key as a float64.
func (p Params) Float(key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, missingParam(key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "param %s", key)
		}
		return f, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "param %s: want number, got %T", key, v)
}

// String returns key as a string.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", missingParam(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidInput, "param %s: want string, got %T", key, v)
	}
	return s, nil
}

// Sub returns key as a nested parameter map.
func (p Params) Sub(key string) (Params, bool) {
	switch v := p[key].(type) {
	case Params:
		return v, true
	case map[string]any:
		return Params(v), true
	}
	return nil, false
}

func missingParam(key string) error {
	return errors.New(errors.ErrCodeInvalidInput, "missing param %q", key)
}
