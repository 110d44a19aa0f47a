package color

import (
	"image"
	stdcolor "image/color"
	"math/rand/v2"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
	"github.com/matzehuels/augment/pkg/errors"
)

func solid(v uint8) *image.NRGBA {
	return imaging.New(3, 2, stdcolor.NRGBA{R: v, G: v, B: v, A: 255})
}

func TestInvertImgRoundTrip(t *testing.T) {
	tr, err := NewInvertImg(true, 1)
	if err != nil {
		t.Fatal(err)
	}
	mask := solid(7)
	data := target.Bundle{"image": solid(10), "mask": mask}

	out, err := transform.Apply(tr, data)
	if err != nil {
		t.Fatal(err)
	}
	if got := imaging.Clone(out["image"].(image.Image)).Pix[0]; got != 245 {
		t.Errorf("inverted red = %d, want 245", got)
	}
	if out["mask"] != mask {
		t.Error("mask should pass through an image-only transform")
	}

	back, err := transform.Reverse(tr, out, transform.Params{})
	if err != nil {
		t.Fatal(err)
	}
	if got := imaging.Clone(back["image"].(image.Image)).Pix[0]; got != 10 {
		t.Errorf("restored red = %d, want 10", got)
	}
}

func TestRandomBrightnessHasNoInverse(t *testing.T) {
	tr, err := NewRandomBrightness(0.5, true, 1)
	if err != nil {
		t.Fatal(err)
	}
	_, err = transform.Reverse(tr, target.Bundle{"image": solid(100)}, transform.Params{ParamBeta: 0.1})
	if !errors.Is(err, errors.ErrCodeNotImplemented) {
		t.Errorf("err = %v, want NOT_IMPLEMENTED", err)
	}
}

func TestRandomBrightnessBeta(t *testing.T) {
	tr, _ := NewRandomBrightness(0.25, false, 1)
	r := rand.New(rand.NewPCG(1, 1))
	for i := 0; i < 200; i++ {
		p, err := tr.Params(r)
		if err != nil {
			t.Fatal(err)
		}
		beta, _ := p.Float(ParamBeta)
		if beta < -0.25 || beta > 0.25 {
			t.Fatalf("beta = %v outside the limit", beta)
		}
	}

	out, err := transform.ApplyWithParams(tr, transform.Params{ParamBeta: 0.0}, target.Bundle{"image": solid(100)})
	if err != nil {
		t.Fatal(err)
	}
	if got := imaging.Clone(out["image"].(image.Image)).Pix[0]; got != 100 {
		t.Errorf("beta 0 changed brightness: %d", got)
	}
}

func TestRegistered(t *testing.T) {
	tr, err := registry.FromDict(map[string]any{registry.KeyClass: RandomBrightnessName, "limit": 0.1, "p": 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if tr.(*RandomBrightness).Limit != 0.1 {
		t.Errorf("limit = %v", tr.(*RandomBrightness).Limit)
	}
	if _, err := NewRandomBrightness(2, false, 1); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v", err)
	}
}
