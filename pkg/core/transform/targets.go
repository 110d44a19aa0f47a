package transform

import (
	"fmt"
	"image"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/errors"
)

// Handler applies a transform, or its inverse, to one target value.
type Handler func(value any, p Params) (any, error)

// Targets is a capability table: the kinds a transform acts on and how.
type Targets map[target.Kind]Handler

// Supports reports whether kind is declared in the table.
func (t Targets) Supports(kind target.Kind) bool {
	_, ok := t[kind]
	return ok
}

// Kinds returns the declared kinds in canonical order.
func (t Targets) Kinds() []target.Kind {
	var out []target.Kind
	for _, k := range target.Kinds {
		if t.Supports(k) {
			out = append(out, k)
		}
	}
	return out
}

// ImageFn transforms a single image or mask.
type ImageFn func(img image.Image, p Params) (image.Image, error)

// CoordFn transforms the four positional fields of a box or keypoint.
type CoordFn func(c target.Coords, p Params) (target.Coords, error)

// Identity returns value unchanged.
func Identity(value any, _ Params) (any, error) { return value, nil }

// Unimplemented returns a handler for a kind that name declares but does not
// implement.
func Unimplemented(name string, kind target.Kind) Handler {
	return func(any, Params) (any, error) {
		return nil, errors.New(errors.ErrCodeNotImplemented, "%s is not implemented for %s", kind, name)
	}
}

// ImageFunc adapts fn to a Handler for image and mask values.
func ImageFunc(fn ImageFn) Handler {
	return func(value any, p Params) (any, error) {
		img, ok := value.(image.Image)
		if !ok {
			return nil, wrongType("image.Image", value)
		}
		return fn(img, p)
	}
}

// MasksFunc adapts fn to a Handler applied to every mask of a []image.Image.
func MasksFunc(fn ImageFn) Handler {
	return func(value any, p Params) (any, error) {
		masks, ok := value.([]image.Image)
		if !ok {
			return nil, wrongType("[]image.Image", value)
		}
		out := make([]image.Image, len(masks))
		for i, m := range masks {
			r, err := fn(m, p)
			if err != nil {
				return nil, fmt.Errorf("mask %d: %w", i, err)
			}
			out[i] = r
		}
		return out, nil
	}
}

// BBoxFunc fans fn out over a []target.BBox. Only the coordinates reach fn;
// payloads are reattached unchanged.
func BBoxFunc(fn CoordFn) Handler {
	return func(value any, p Params) (any, error) {
		boxes, ok := value.([]target.BBox)
		if !ok {
			return nil, wrongType("[]target.BBox", value)
		}
		return target.MapBBoxes(boxes, func(c target.Coords) (target.Coords, error) { return fn(c, p) })
	}
}

// KeypointFunc fans fn out over a []target.Keypoint. Only the coordinates
// reach fn; payloads are reattached unchanged.
func KeypointFunc(fn CoordFn) Handler {
	return func(value any, p Params) (any, error) {
		points, ok := value.([]target.Keypoint)
		if !ok {
			return nil, wrongType("[]target.Keypoint", value)
		}
		return target.MapKeypoints(points, func(c target.Coords) (target.Coords, error) { return fn(c, p) })
	}
}

func wrongType(want string, got any) error {
	return errors.New(errors.ErrCodeInvalidTarget, "want %s, got %T", want, got)
}

// Dual describes a spatial transform that acts on all five kinds. Unset
// functions are declared but unimplemented, except Mask, which defaults to
// Image with nearest-neighbour interpolation.
type Dual struct {
	Name     string
	Image    ImageFn
	Mask     ImageFn
	BBox     CoordFn
	Keypoint CoordFn
}

// Targets builds the capability table.
func (d Dual) Targets() Targets {
	t := Targets{}
	if d.Image != nil {
		t[target.KindImage] = ImageFunc(d.Image)
	} else {
		t[target.KindImage] = Unimplemented(d.Name, target.KindImage)
	}

	mask := d.Mask
	if mask == nil && d.Image != nil {
		mask = nearest(d.Image)
	}
	if mask != nil {
		t[target.KindMask] = ImageFunc(mask)
		t[target.KindMasks] = MasksFunc(mask)
	} else {
		t[target.KindMask] = Unimplemented(d.Name, target.KindMask)
		t[target.KindMasks] = Unimplemented(d.Name, target.KindMasks)
	}

	if d.BBox != nil {
		t[target.KindBBoxes] = BBoxFunc(d.BBox)
	} else {
		t[target.KindBBoxes] = Unimplemented(d.Name, target.KindBBoxes)
	}
	if d.Keypoint != nil {
		t[target.KindKeypoints] = KeypointFunc(d.Keypoint)
	} else {
		t[target.KindKeypoints] = Unimplemented(d.Name, target.KindKeypoints)
	}
	return t
}

// nearest runs fn with the interpolation forced to nearest neighbour, so
// label values in masks are never blended.
func nearest(fn ImageFn) ImageFn {
	return func(img image.Image, p Params) (image.Image, error) {
		if p.Has(ParamInterpolation) {
			p = p.Clone()
			p[ParamInterpolation] = InterpolationNearest
		}
		return fn(img, p)
	}
}

// ImageOnly builds the table of a transform that acts on images alone. Masks,
// boxes and keypoints are not declared and pass through untouched.
func ImageOnly(name string, fn ImageFn) Targets {
	if fn == nil {
		return Targets{target.KindImage: Unimplemented(name, target.KindImage)}
	}
	return Targets{target.KindImage: ImageFunc(fn)}
}
