package target

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/matzehuels/augment/pkg/errors"
)

// Coords holds the four positional fields of a box or keypoint.
type Coords [4]float64

// BBox is a bounding box in pixel coordinates with an opaque payload.
type BBox struct {
	X1, Y1, X2, Y2 float64
	Payload        []any
}

// NewBBox builds a box from its coordinates and trailing fields.
func NewBBox(x1, y1, x2, y2 float64, payload ...any) BBox {
	return BBox{X1: x1, Y1: y1, X2: x2, Y2: y2, Payload: payload}
}

// Coords returns the positional fields.
func (b BBox) Coords() Coords { return Coords{b.X1, b.Y1, b.X2, b.Y2} }

// WithCoords returns a box with c as coordinates and the same payload.
func (b BBox) WithCoords(c Coords) BBox {
	return BBox{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3], Payload: b.Payload}
}

// MarshalJSON encodes the box as a flat array.
func (b BBox) MarshalJSON() ([]byte, error) {
	return marshalFlat(b.Coords(), b.Payload)
}

// UnmarshalJSON decodes a flat array of at least four numbers.
func (b *BBox) UnmarshalJSON(data []byte) error {
	c, payload, err := unmarshalFlat(data, "bbox")
	if err != nil {
		return err
	}
	*b = BBox{Payload: payload}.WithCoords(c)
	return nil
}

// Keypoint is a point with orientation and scale, plus an opaque payload.
// Angle is in radians.
type Keypoint struct {
	X, Y, Angle, Scale float64
	Payload            []any
}

// NewKeypoint builds a keypoint from its coordinates and trailing fields.
func NewKeypoint(x, y, angle, scale float64, payload ...any) Keypoint {
	return Keypoint{X: x, Y: y, Angle: angle, Scale: scale, Payload: payload}
}

// Coords returns the positional fields.
func (k Keypoint) Coords() Coords { return Coords{k.X, k.Y, k.Angle, k.Scale} }

// WithCoords returns a keypoint with c as coordinates and the same payload.
func (k Keypoint) WithCoords(c Coords) Keypoint {
	return Keypoint{X: c[0], Y: c[1], Angle: c[2], Scale: c[3], Payload: k.Payload}
}

// MarshalJSON encodes the keypoint as a flat array.
func (k Keypoint) MarshalJSON() ([]byte, error) {
	return marshalFlat(k.Coords(), k.Payload)
}

// UnmarshalJSON decodes a flat array of at least four numbers.
func (k *Keypoint) UnmarshalJSON(data []byte) error {
	c, payload, err := unmarshalFlat(data, "keypoint")
	if err != nil {
		return err
	}
	*k = Keypoint{Payload: payload}.WithCoords(c)
	return nil
}

func marshalFlat(c Coords, payload []any) ([]byte, error) {
	flat := make([]any, 0, 4+len(payload))
	for _, v := range c {
		flat = append(flat, v)
	}
	flat = append(flat, payload...)
	return json.Marshal(flat)
}

func unmarshalFlat(data []byte, what string) (Coords, []any, error) {
	var c Coords
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return c, nil, errors.Wrap(errors.ErrCodeInvalidTarget, err, "%s must be an array", what)
	}
	if len(raw) < 4 {
		return c, nil, errors.New(errors.ErrCodeInvalidTarget, "%s needs 4 coordinates, got %d fields", what, len(raw))
	}
	for i := range 4 {
		if err := json.Unmarshal(raw[i], &c[i]); err != nil {
			return c, nil, errors.Wrap(errors.ErrCodeInvalidTarget, err, "%s field %d is not a number", what, i)
		}
	}
	var payload []any
	for i, r := range raw[4:] {
		var v any
		if err := json.Unmarshal(r, &v); err != nil {
			return c, nil, fmt.Errorf("%s payload %d: %w", what, i, err)
		}
		payload = append(payload, v)
	}
	return c, payload, nil
}

// MapBBoxes applies fn to the coordinates of every box, keeping order,
// length and payloads.
func MapBBoxes(boxes []BBox, fn func(Coords) (Coords, error)) ([]BBox, error) {
	out := make([]BBox, len(boxes))
	for i, b := range boxes {
		c, err := fn(b.Coords())
		if err != nil {
			return nil, fmt.Errorf("bbox %d: %w", i, err)
		}
		out[i] = b.WithCoords(c)
		out[i].Payload = slices.Clip(b.Payload)
	}
	return out, nil
}

// MapKeypoints applies fn to the coordinates of every keypoint, keeping
// order, length and payloads.
func MapKeypoints(points []Keypoint, fn func(Coords) (Coords, error)) ([]Keypoint, error) {
	out := make([]Keypoint, len(points))
	for i, k := range points {
		c, err := fn(k.Coords())
		if err != nil {
			return nil, fmt.Errorf("keypoint %d: %w", i, err)
		}
		out[i] = k.WithCoords(c)
		out[i].Payload = slices.Clip(k.Payload)
	}
	return out, nil
}
