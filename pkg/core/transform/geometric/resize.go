package geometric

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
	"github.com/matzehuels/augment/pkg/errors"
)

// Reverse arguments recorded by transforms that change the frame size.
const (
	ParamOrigRows = "orig_rows"
	ParamOrigCols = "orig_cols"
)

// Resize scales every target to a fixed frame. Its inverse scales back to
// the frame recorded at application time.
type Resize struct {
	transform.Base
	Height        int
	Width         int
	Interpolation string
}

// NewResize returns a resize to height x width pixels.
func NewResize(height, width int, interpolation string, alwaysApply bool, p float64) (*Resize, error) {
	if height <= 0 || width <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "resize to %dx%d: sizes must be positive", height, width)
	}
	if interpolation == "" {
		interpolation = transform.InterpolationLinear
	}
	if _, err := filter(interpolation); err != nil {
		return nil, err
	}
	b, err := transform.NewBase(alwaysApply, p)
	if err != nil {
		return nil, err
	}
	return &Resize{Base: b, Height: height, Width: width, Interpolation: interpolation}, nil
}

type resizeArgs struct {
	Height        int    `mapstructure:"height"`
	Width         int    `mapstructure:"width"`
	Interpolation string `mapstructure:"interpolation"`
}

func newResizeFromSpec(s registry.Spec) (transform.Transform, error) {
	var a resizeArgs
	if err := s.Decode(&a); err != nil {
		return nil, err
	}
	return NewResize(a.Height, a.Width, a.Interpolation, s.AlwaysApply, s.P)
}

func (*Resize) Name() string { return ResizeName }

func (*Resize) Params(*rand.Rand) (transform.Params, error) {
	return transform.Params{}, nil
}

func (r *Resize) FixedParams() transform.Params {
	return transform.Params{transform.ParamInterpolation: r.Interpolation}
}

func (r *Resize) InitArgs() map[string]any {
	return map[string]any{"height": r.Height, "width": r.Width, "interpolation": r.Interpolation}
}

// ReverseArgs records the frame before resizing.
func (*Resize) ReverseArgs(data target.Bundle) (transform.Params, error) {
	img, ok := data[string(target.KindImage)].(image.Image)
	if !ok {
		return nil, errors.New(errors.ErrCodeMissingTarget, "%s needs the image to record its inverse", ResizeName)
	}
	rows, cols := target.Frame(img)
	return transform.Params{ParamOrigRows: rows, ParamOrigCols: cols}, nil
}

func (r *Resize) Targets() transform.Targets {
	size := func(transform.Params) (int, int, error) { return r.Height, r.Width, nil }
	return scaleTable(size, math.Max)
}

func (*Resize) ReverseTargets() transform.Targets {
	size := func(p transform.Params) (int, int, error) {
		h, err := p.Int(ParamOrigRows)
		if err != nil {
			return 0, 0, err
		}
		w, err := p.Int(ParamOrigCols)
		return h, w, err
	}
	return scaleTable(size, math.Min)
}

// scaleTable scales from the frame in params to the one size returns.
// Keypoint scales are multiplied by pick(sx, sy).
func scaleTable(size func(transform.Params) (h, w int, err error), pick func(sx, sy float64) float64) transform.Targets {
	factors := func(p transform.Params) (sx, sy float64, err error) {
		h, w, err := size(p)
		if err != nil {
			return 0, 0, err
		}
		rows, err := p.Int(transform.ParamRows)
		if err != nil {
			return 0, 0, err
		}
		cols, err := p.Int(transform.ParamCols)
		if err != nil {
			return 0, 0, err
		}
		return float64(w) / float64(cols), float64(h) / float64(rows), nil
	}
	return transform.Dual{
		Name: ResizeName,
		Image: func(img image.Image, p transform.Params) (image.Image, error) {
			h, w, err := size(p)
			if err != nil {
				return nil, err
			}
			name, err := p.String(transform.ParamInterpolation)
			if err != nil {
				name = transform.InterpolationLinear
			}
			f, err := filter(name)
			if err != nil {
				return nil, err
			}
			return imaging.Resize(img, w, h, f), nil
		},
		BBox: func(c target.Coords, p transform.Params) (target.Coords, error) {
			sx, sy, err := factors(p)
			if err != nil {
				return c, err
			}
			return target.Coords{c[0] * sx, c[1] * sy, c[2] * sx, c[3] * sy}, nil
		},
		Keypoint: func(c target.Coords, p transform.Params) (target.Coords, error) {
			sx, sy, err := factors(p)
			if err != nil {
				return c, err
			}
			return target.Coords{c[0] * sx, c[1] * sy, c[2], c[3] * pick(sx, sy)}, nil
		},
	}.Targets()
}

func filter(name string) (imaging.ResampleFilter, error) {
	switch name {
	case transform.InterpolationNearest:
		return imaging.NearestNeighbor, nil
	case transform.InterpolationLinear:
		return imaging.Linear, nil
	case transform.InterpolationCubic:
		return imaging.CatmullRom, nil
	case transform.InterpolationLanczos:
		return imaging.Lanczos, nil
	}
	return imaging.ResampleFilter{}, errors.New(errors.ErrCodeInvalidConfig, "unknown interpolation %q", name)
}
