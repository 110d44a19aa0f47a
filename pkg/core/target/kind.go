package target

import (
	"image"
	"slices"
)

// Kind is a canonical target kind.
type Kind string

// Target kinds.
const (
	KindImage     Kind = "image"
	KindMask      Kind = "mask"
	KindMasks     Kind = "masks"
	KindBBoxes    Kind = "bboxes"
	KindKeypoints Kind = "keypoints"
)

// Kinds lists every target kind in canonical order.
var Kinds = []Kind{KindImage, KindMask, KindMasks, KindBBoxes, KindKeypoints}

// Valid reports whether k is one of the five target kinds.
func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// ParseKind converts a string to a Kind. The second result is false when s
// names no target kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, k.Valid()
}

// Bundle maps data keys to target values for one call.
type Bundle map[string]any

// Clone returns a shallow copy of b. Values are shared.
func (b Bundle) Clone() Bundle {
	out := make(Bundle, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Keys returns the bundle keys in sorted order.
func (b Bundle) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Frame returns the row and column count of img.
func Frame(img image.Image) (rows, cols int) {
	r := img.Bounds()
	return r.Dy(), r.Dx()
}
