package transform

import (
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/matzehuels/augment/pkg/core/target"
)

// countingSource counts how many values the gate and samplers draw.
type countingSource struct {
	src rand.Source
	n   int
}

func newCountingSource(seed uint64) *countingSource {
	return &countingSource{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

func (c *countingSource) Uint64() uint64 {
	c.n++
	return c.src.Uint64()
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 1))
}

func testImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(10*y + x)})
		}
	}
	return img
}

// shift moves boxes and keypoints right by a sampled dx and tags images by
// wrapping them in a shiftedImage.
type shift struct {
	Base
}

func newShift(p float64) *shift {
	b, err := NewBase(false, p)
	if err != nil {
		panic(err)
	}
	return &shift{Base: b}
}

type shiftedImage struct {
	image.Image
	dx float64
}

func (*shift) Name() string { return "test.Shift" }

func (*shift) Params(r *rand.Rand) (Params, error) {
	return Params{"dx": float64(1 + r.IntN(50))}, nil
}

func (*shift) Targets() Targets {
	return Dual{
		Name: "test.Shift",
		Image: func(img image.Image, p Params) (image.Image, error) {
			dx, err := p.Float("dx")
			if err != nil {
				return nil, err
			}
			return shiftedImage{Image: img, dx: dx}, nil
		},
		BBox:     shiftCoords(1),
		Keypoint: shiftKeypoint(1),
	}.Targets()
}

func (*shift) ReverseTargets() Targets {
	return Dual{
		Name: "test.Shift",
		Image: func(img image.Image, _ Params) (image.Image, error) {
			if s, ok := img.(shiftedImage); ok {
				return s.Image, nil
			}
			return img, nil
		},
		BBox:     shiftCoords(-1),
		Keypoint: shiftKeypoint(-1),
	}.Targets()
}

func shiftCoords(sign float64) CoordFn {
	return func(c target.Coords, p Params) (target.Coords, error) {
		dx, err := p.Float("dx")
		if err != nil {
			return c, err
		}
		c[0] += sign * dx
		c[2] += sign * dx
		return c, nil
	}
}

func shiftKeypoint(sign float64) CoordFn {
	return func(c target.Coords, p Params) (target.Coords, error) {
		dx, err := p.Float("dx")
		if err != nil {
			return c, err
		}
		c[0] += sign * dx
		return c, nil
	}
}

// imageOnlyDual declares all five kinds but implements only images.
type imageOnlyDual struct {
	Base
}

func (*imageOnlyDual) Name() string { return "test.ImageOnlyDual" }
func (*imageOnlyDual) Params(*rand.Rand) (Params, error) { return Params{}, nil }
func (*imageOnlyDual) Targets() Targets {
	return Dual{
		Name:  "test.ImageOnlyDual",
		Image: func(img image.Image, _ Params) (image.Image, error) { return img, nil },
	}.Targets()
}

// cropNear reads the cropping_bbox item to compute its params.
type cropNear struct {
	Base
	seen map[string]any
}

func (*cropNear) Name() string { return "test.CropNear" }

func (*cropNear) Params(*rand.Rand) (Params, error) {
	return Params{"x_min": -1.0, "fixed": "base"}, nil
}

func (*cropNear) Targets() Targets {
	return ImageOnly("test.CropNear", func(img image.Image, _ Params) (image.Image, error) { return img, nil })
}

func (*cropNear) TargetsAsParams() []string { return []string{"cropping_bbox"} }

func (c *cropNear) ParamsDependentOnTargets(_ *rand.Rand, values map[string]any) (Params, error) {
	c.seen = values
	box := values["cropping_bbox"].([]float64)
	return Params{"x_min": box[0]}, nil
}

// boxesNeedImage declares that its box handler reads the image item.
type boxesNeedImage struct {
	Base
	got any
}

func (*boxesNeedImage) Name() string { return "test.BoxesNeedImage" }
func (*boxesNeedImage) Params(*rand.Rand) (Params, error) { return Params{}, nil }

func (b *boxesNeedImage) Targets() Targets {
	return Targets{
		target.KindImage: ImageFunc(func(image.Image, Params) (image.Image, error) {
			return testImage(1, 1), nil
		}),
		target.KindBBoxes: func(v any, p Params) (any, error) {
			b.got = p["image"]
			return v, nil
		},
	}
}

func (*boxesNeedImage) TargetDependence() map[target.Kind][]string {
	return map[target.Kind][]string{target.KindBBoxes: {"image"}}
}
