package geometric

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
)

// ParamFactor is the number of counter-clockwise quarter turns.
const ParamFactor = "factor"

// RandomRotate90 rotates by a random multiple of 90 degrees.
type RandomRotate90 struct {
	transform.Base
}

// NewRandomRotate90 returns a rotation that fires with probability p.
func NewRandomRotate90(alwaysApply bool, p float64) (*RandomRotate90, error) {
	b, err := transform.NewBase(alwaysApply, p)
	if err != nil {
		return nil, err
	}
	return &RandomRotate90{Base: b}, nil
}

func (*RandomRotate90) Name() string { return RandomRotate90Name }

func (*RandomRotate90) Params(r *rand.Rand) (transform.Params, error) {
	return transform.Params{ParamFactor: r.IntN(4)}, nil
}

func (*RandomRotate90) Targets() transform.Targets { return rot90Table(1) }

// ReverseTargets turns back by the recorded factor, starting from the
// rotated frame.
func (*RandomRotate90) ReverseTargets() transform.Targets { return rot90Table(-1) }

func (*RandomRotate90) InitArgs() map[string]any { return map[string]any{} }

func rot90Table(dir int) transform.Targets {
	turns := func(p transform.Params) (int, error) {
		k, err := p.Int(ParamFactor)
		if err != nil {
			return 0, err
		}
		return ((k*dir)%4 + 4) % 4, nil
	}
	return transform.Dual{
		Name: RandomRotate90Name,
		Image: func(img image.Image, p transform.Params) (image.Image, error) {
			k, err := turns(p)
			if err != nil {
				return nil, err
			}
			switch k {
			case 1:
				return imaging.Rotate90(img), nil
			case 2:
				return imaging.Rotate180(img), nil
			case 3:
				return imaging.Rotate270(img), nil
			}
			return img, nil
		},
		BBox: func(c target.Coords, p transform.Params) (target.Coords, error) {
			k, rows, cols, err := rotParams(p, turns)
			if err != nil {
				return c, err
			}
			for range k {
				// (x, y) -> (y, cols - x) on a rows x cols frame.
				c = target.Coords{c[1], float64(cols) - c[2], c[3], float64(cols) - c[0]}
				rows, cols = cols, rows
			}
			return c, nil
		},
		Keypoint: func(c target.Coords, p transform.Params) (target.Coords, error) {
			k, rows, cols, err := rotParams(p, turns)
			if err != nil {
				return c, err
			}
			for range k {
				c = target.Coords{c[1], float64(cols-1) - c[0], normAngle(c[2] - math.Pi/2), c[3]}
				rows, cols = cols, rows
			}
			return c, nil
		},
	}.Targets()
}

func rotParams(p transform.Params, turns func(transform.Params) (int, error)) (k, rows, cols int, err error) {
	if k, err = turns(p); err != nil {
		return
	}
	if rows, err = p.Int(transform.ParamRows); err != nil {
		return
	}
	cols, err = p.Int(transform.ParamCols)
	return
}

func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
