// Package color provides pixel-level transforms. They act on images only;
// masks, boxes and keypoints pass through untouched.
package color

import (
	"image"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/transform"
	"github.com/matzehuels/augment/pkg/errors"
)

// Registry names.
const (
	InvertImgName        = "color.InvertImg"
	RandomBrightnessName = "color.RandomBrightness"
)

// ParamBeta is the sampled brightness shift, as a fraction in [-limit, limit].
const ParamBeta = "beta"

func init() {
	registry.Register(InvertImgName, func(s registry.Spec) (transform.Transform, error) {
		return NewInvertImg(s.AlwaysApply, s.P)
	})
	registry.Register(RandomBrightnessName, func(s registry.Spec) (transform.Transform, error) {
		a := struct {
			Limit float64 `mapstructure:"limit"`
		}{Limit: 0.2}
		if err := s.Decode(&a); err != nil {
			return nil, err
		}
		return NewRandomBrightness(a.Limit, s.AlwaysApply, s.P)
	})
}

// InvertImg inverts every channel. It is its own inverse.
type InvertImg struct {
	transform.Base
}

func NewInvertImg(alwaysApply bool, p float64) (*InvertImg, error) {
	b, err := transform.NewBase(alwaysApply, p)
	if err != nil {
		return nil, err
	}
	return &InvertImg{Base: b}, nil
}

func (*InvertImg) Name() string { return InvertImgName }

func (*InvertImg) Params(*rand.Rand) (transform.Params, error) { return transform.Params{}, nil }

func (*InvertImg) Targets() transform.Targets {
	return transform.ImageOnly(InvertImgName, invert)
}

func (*InvertImg) ReverseTargets() transform.Targets {
	return transform.ImageOnly(InvertImgName, invert)
}

func (*InvertImg) InitArgs() map[string]any { return map[string]any{} }

func invert(img image.Image, _ transform.Params) (image.Image, error) {
	return imaging.Invert(img), nil
}

// RandomBrightness shifts brightness by a random fraction in [-Limit, Limit].
// Clipping loses information, so it has no inverse.
type RandomBrightness struct {
	transform.Base
	Limit float64
}

func NewRandomBrightness(limit float64, alwaysApply bool, p float64) (*RandomBrightness, error) {
	if limit < 0 || limit > 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "brightness limit %v must be in [0, 1]", limit)
	}
	b, err := transform.NewBase(alwaysApply, p)
	if err != nil {
		return nil, err
	}
	return &RandomBrightness{Base: b, Limit: limit}, nil
}

func (*RandomBrightness) Name() string { return RandomBrightnessName }

func (b *RandomBrightness) Params(r *rand.Rand) (transform.Params, error) {
	return transform.Params{ParamBeta: (2*r.Float64() - 1) * b.Limit}, nil
}

func (*RandomBrightness) Targets() transform.Targets {
	return transform.ImageOnly(RandomBrightnessName, func(img image.Image, p transform.Params) (image.Image, error) {
		beta, err := p.Float(ParamBeta)
		if err != nil {
			return nil, err
		}
		return imaging.AdjustBrightness(img, beta*100), nil
	})
}

func (b *RandomBrightness) InitArgs() map[string]any {
	return map[string]any{"limit": b.Limit}
}
