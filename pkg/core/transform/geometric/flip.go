// Package geometric provides spatial transforms. Each acts on images, masks,
// boxes and keypoints with one set of params, so all targets stay aligned.
//
// Boxes and keypoints are in pixel coordinates of the image they belong to.
package geometric

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
)

// Registry names.
const (
	HorizontalFlipName     = "geometric.HorizontalFlip"
	VerticalFlipName       = "geometric.VerticalFlip"
	RandomRotate90Name     = "geometric.RandomRotate90"
	ResizeName             = "geometric.Resize"
	RandomCropNearBBoxName = "geometric.RandomCropNearBBox"
)

func init() {
	registry.Register(HorizontalFlipName, func(s registry.Spec) (transform.Transform, error) {
		return NewHorizontalFlip(s.AlwaysApply, s.P)
	})
	registry.Register(VerticalFlipName, func(s registry.Spec) (transform.Transform, error) {
		return NewVerticalFlip(s.AlwaysApply, s.P)
	})
	registry.Register(RandomRotate90Name, func(s registry.Spec) (transform.Transform, error) {
		return NewRandomRotate90(s.AlwaysApply, s.P)
	})
	registry.Register(ResizeName, newResizeFromSpec)
	registry.Register(RandomCropNearBBoxName, newRandomCropNearBBoxFromSpec)
}

// HorizontalFlip mirrors around the vertical axis. It is its own inverse.
type HorizontalFlip struct {
	transform.Base
}

// NewHorizontalFlip returns a flip that fires with probability p.
func NewHorizontalFlip(alwaysApply bool, p float64) (*HorizontalFlip, error) {
	b, err := transform.NewBase(alwaysApply, p)
	if err != nil {
		return nil, err
	}
	return &HorizontalFlip{Base: b}, nil
}

func (*HorizontalFlip) Name() string { return HorizontalFlipName }

func (*HorizontalFlip) Params(*rand.Rand) (transform.Params, error) {
	return transform.Params{}, nil
}

func (*HorizontalFlip) Targets() transform.Targets {
	return transform.Dual{
		Name:     HorizontalFlipName,
		Image:    func(img image.Image, _ transform.Params) (image.Image, error) { return imaging.FlipH(img), nil },
		BBox:     hflipBBox,
		Keypoint: hflipKeypoint,
	}.Targets()
}

func (f *HorizontalFlip) ReverseTargets() transform.Targets { return f.Targets() }

func (*HorizontalFlip) InitArgs() map[string]any { return map[string]any{} }

func hflipBBox(c target.Coords, p transform.Params) (target.Coords, error) {
	cols, err := p.Int(transform.ParamCols)
	if err != nil {
		return c, err
	}
	w := float64(cols)
	return target.Coords{w - c[2], c[1], w - c[0], c[3]}, nil
}

func hflipKeypoint(c target.Coords, p transform.Params) (target.Coords, error) {
	cols, err := p.Int(transform.ParamCols)
	if err != nil {
		return c, err
	}
	return target.Coords{float64(cols-1) - c[0], c[1], math.Pi - c[2], c[3]}, nil
}

// VerticalFlip mirrors around the horizontal axis. It is its own inverse.
type VerticalFlip struct {
	transform.Base
}

// NewVerticalFlip returns a flip that fires with probability p.
func NewVerticalFlip(alwaysApply bool, p float64) (*VerticalFlip, error) {
	b, err := transform.NewBase(alwaysApply, p)
	if err != nil {
		return nil, err
	}
	return &VerticalFlip{Base: b}, nil
}

func (*VerticalFlip) Name() string { return VerticalFlipName }

func (*VerticalFlip) Params(*rand.Rand) (transform.Params, error) {
	return transform.Params{}, nil
}

func (*VerticalFlip) Targets() transform.Targets {
	return transform.Dual{
		Name:     VerticalFlipName,
		Image:    func(img image.Image, _ transform.Params) (image.Image, error) { return imaging.FlipV(img), nil },
		BBox:     vflipBBox,
		Keypoint: vflipKeypoint,
	}.Targets()
}

func (f *VerticalFlip) ReverseTargets() transform.Targets { return f.Targets() }

func (*VerticalFlip) InitArgs() map[string]any { return map[string]any{} }

func vflipBBox(c target.Coords, p transform.Params) (target.Coords, error) {
	rows, err := p.Int(transform.ParamRows)
	if err != nil {
		return c, err
	}
	h := float64(rows)
	return target.Coords{c[0], h - c[3], c[2], h - c[1]}, nil
}

func vflipKeypoint(c target.Coords, p transform.Params) (target.Coords, error) {
	rows, err := p.Int(transform.ParamRows)
	if err != nil {
		return c, err
	}
	return target.Coords{c[0], float64(rows-1) - c[1], -c[2], c[3]}, nil
}
