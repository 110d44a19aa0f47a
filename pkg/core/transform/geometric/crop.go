package geometric

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
	"github.com/matzehuels/augment/pkg/errors"
)

// Crop window params.
const (
	ParamXMin = "x_min"
	ParamYMin = "y_min"
	ParamXMax = "x_max"
	ParamYMax = "y_max"
)

// DefaultCroppingKey is the data key holding the box to crop near.
const DefaultCroppingKey = "cropping_bbox"

// RandomCropNearBBox crops around the box passed under CroppingKey, with
// each side jittered by up to MaxPartShift of the box size. Its params
// depend on that box, not only on configuration.
//
// The inverse pads the crop back into the recorded frame with zeros.
type RandomCropNearBBox struct {
	transform.Base
	// MaxPartShift is the largest shift as a fraction of box height and width.
	MaxPartShift [2]float64
	CroppingKey  string
}

// NewRandomCropNearBBox returns a crop that fires with probability p.
func NewRandomCropNearBBox(maxPartShift [2]float64, croppingKey string, alwaysApply bool, p float64) (*RandomCropNearBBox, error) {
	for _, s := range maxPartShift {
		if s < 0 || s > 1 || math.IsNaN(s) {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "max_part_shift %v must be in [0, 1]", maxPartShift)
		}
	}
	if croppingKey == "" {
		croppingKey = DefaultCroppingKey
	}
	if err := errors.ValidateDataKey(croppingKey); err != nil {
		return nil, err
	}
	b, err := transform.NewBase(alwaysApply, p)
	if err != nil {
		return nil, err
	}
	return &RandomCropNearBBox{Base: b, MaxPartShift: maxPartShift, CroppingKey: croppingKey}, nil
}

type cropArgs struct {
	MaxPartShift []float64 `mapstructure:"max_part_shift"`
	CroppingKey  string    `mapstructure:"cropping_box_key"`
}

func newRandomCropNearBBoxFromSpec(s registry.Spec) (transform.Transform, error) {
	var a cropArgs
	if err := s.Decode(&a); err != nil {
		return nil, err
	}
	if a.MaxPartShift == nil {
		a.MaxPartShift = []float64{0.3}
	}
	var shift [2]float64
	switch len(a.MaxPartShift) {
	case 1:
		shift = [2]float64{a.MaxPartShift[0], a.MaxPartShift[0]}
	case 2:
		shift = [2]float64{a.MaxPartShift[0], a.MaxPartShift[1]}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "max_part_shift needs one or two values, got %d", len(a.MaxPartShift))
	}
	return NewRandomCropNearBBox(shift, a.CroppingKey, s.AlwaysApply, s.P)
}

func (*RandomCropNearBBox) Name() string { return RandomCropNearBBoxName }

func (*RandomCropNearBBox) Params(*rand.Rand) (transform.Params, error) {
	return transform.Params{}, nil
}

func (c *RandomCropNearBBox) InitArgs() map[string]any {
	return map[string]any{
		"max_part_shift":   []float64{c.MaxPartShift[0], c.MaxPartShift[1]},
		"cropping_box_key": c.CroppingKey,
	}
}

func (c *RandomCropNearBBox) TargetsAsParams() []string { return []string{c.CroppingKey} }

func (c *RandomCropNearBBox) ParamsDependentOnTargets(r *rand.Rand, values map[string]any) (transform.Params, error) {
	box, err := coords(values[c.CroppingKey])
	if err != nil {
		return nil, err
	}
	hShift := int(math.Round((box[3] - box[1]) * c.MaxPartShift[0]))
	wShift := int(math.Round((box[2] - box[0]) * c.MaxPartShift[1]))
	jitter := func(n int) int { return r.IntN(2*n+1) - n }

	xMin := int(box[0]) - jitter(wShift)
	xMax := int(box[2]) + jitter(wShift)
	yMin := int(box[1]) - jitter(hShift)
	yMax := int(box[3]) + jitter(hShift)
	return transform.Params{
		ParamXMin: max(0, xMin),
		ParamYMin: max(0, yMin),
		ParamXMax: xMax,
		ParamYMax: yMax,
	}, nil
}

// ReverseArgs records the frame before cropping.
func (*RandomCropNearBBox) ReverseArgs(data target.Bundle) (transform.Params, error) {
	img, ok := data[string(target.KindImage)].(image.Image)
	if !ok {
		return nil, errors.New(errors.ErrCodeMissingTarget, "%s needs the image to record its inverse", RandomCropNearBBoxName)
	}
	rows, cols := target.Frame(img)
	return transform.Params{ParamOrigRows: rows, ParamOrigCols: cols}, nil
}

func (*RandomCropNearBBox) Targets() transform.Targets {
	return transform.Dual{
		Name: RandomCropNearBBoxName,
		Image: func(img image.Image, p transform.Params) (image.Image, error) {
			w, err := window(p)
			if err != nil {
				return nil, err
			}
			return imaging.Crop(img, w), nil
		},
		BBox:     offset(-1, true),
		Keypoint: offset(-1, false),
	}.Targets()
}

func (*RandomCropNearBBox) ReverseTargets() transform.Targets {
	return transform.Dual{
		Name: RandomCropNearBBoxName,
		Image: func(img image.Image, p transform.Params) (image.Image, error) {
			w, err := window(p)
			if err != nil {
				return nil, err
			}
			rows, err := p.Int(ParamOrigRows)
			if err != nil {
				return nil, err
			}
			cols, err := p.Int(ParamOrigCols)
			if err != nil {
				return nil, err
			}
			canvas := imaging.New(cols, rows, color.Black)
			return imaging.Paste(canvas, img, w.Min), nil
		},
		BBox:     offset(1, true),
		Keypoint: offset(1, false),
	}.Targets()
}

func window(p transform.Params) (image.Rectangle, error) {
	var v [4]int
	for i, k := range []string{ParamXMin, ParamYMin, ParamXMax, ParamYMax} {
		n, err := p.Int(k)
		if err != nil {
			return image.Rectangle{}, err
		}
		v[i] = n
	}
	return image.Rect(v[0], v[1], v[2], v[3]), nil
}

// offset moves coordinates by sign times the window origin. Boxes move both
// corners; keypoints move only their position.
func offset(sign float64, box bool) transform.CoordFn {
	return func(c target.Coords, p transform.Params) (target.Coords, error) {
		w, err := window(p)
		if err != nil {
			return c, err
		}
		dx, dy := sign*float64(w.Min.X), sign*float64(w.Min.Y)
		c[0] += dx
		c[1] += dy
		if box {
			c[2] += dx
			c[3] += dy
		}
		return c, nil
	}
}

// coords reads the four leading numbers of a cropping box given as a BBox,
// a []float64 or a decoded JSON array.
func coords(v any) (target.Coords, error) {
	switch b := v.(type) {
	case target.BBox:
		return b.Coords(), nil
	case []float64:
		if len(b) >= 4 {
			return target.Coords{b[0], b[1], b[2], b[3]}, nil
		}
	case []any:
		if len(b) >= 4 {
			var c target.Coords
			for i := range c {
				f, ok := b[i].(float64)
				if !ok {
					return c, errors.New(errors.ErrCodeInvalidTarget, "cropping box field %d is %T", i, b[i])
				}
				c[i] = f
			}
			return c, nil
		}
	}
	return target.Coords{}, errors.New(errors.ErrCodeInvalidTarget, "cropping box must hold four numbers, got %v", v)
}
