package target

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/augment/pkg/errors"
)

// Resolver maps a data key to its target kind. The second result is false
// for keys that carry no kind and decode as plain JSON.
type Resolver func(key string) (Kind, bool)

// CanonicalResolver resolves only the five canonical keys.
func CanonicalResolver(key string) (Kind, bool) {
	return ParseKind(key)
}

// ParseBundle decodes a JSON object into a Bundle, typing each value by the
// kind resolve assigns to its key. A nil resolve uses [CanonicalResolver].
//
// The top level must be an object. Data passed positionally (a JSON array)
// is a contract violation and nothing is decoded.
func ParseBundle(raw []byte, resolve Resolver) (Bundle, error) {
	if resolve == nil {
		resolve = CanonicalResolver
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return nil, errors.New(errors.ErrCodeContractViolation,
			"data must be passed as named targets, for example {\"image\": ...}")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode bundle")
	}

	b := make(Bundle, len(fields))
	for key, msg := range fields {
		if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			b[key] = nil
			continue
		}
		kind, ok := resolve(key)
		if !ok {
			var v any
			if err := json.Unmarshal(msg, &v); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", key)
			}
			b[key] = v
			continue
		}
		v, err := decodeValue(kind, msg)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		b[key] = v
	}
	return b, nil
}

func decodeValue(kind Kind, msg json.RawMessage) (any, error) {
	switch kind {
	case KindImage, KindMask:
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTarget, err, "%s must be a base64 string", kind)
		}
		return DecodeImage(s)
	case KindMasks:
		var ss []string
		if err := json.Unmarshal(msg, &ss); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTarget, err, "masks must be an array of base64 strings")
		}
		masks := make([]image.Image, len(ss))
		for i, s := range ss {
			m, err := DecodeImage(s)
			if err != nil {
				return nil, fmt.Errorf("mask %d: %w", i, err)
			}
			masks[i] = m
		}
		return masks, nil
	case KindBBoxes:
		var boxes []BBox
		if err := json.Unmarshal(msg, &boxes); err != nil {
			return nil, err
		}
		return boxes, nil
	case KindKeypoints:
		var points []Keypoint
		if err := json.Unmarshal(msg, &points); err != nil {
			return nil, err
		}
		return points, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidTarget, "unknown kind %q", kind)
}

// MarshalBundle encodes b as a JSON object. Images become base64 PNG strings;
// every other value is encoded as-is.
func MarshalBundle(b Bundle) ([]byte, error) {
	out := make(map[string]any, len(b))
	for key, v := range b {
		switch val := v.(type) {
		case image.Image:
			s, err := EncodeImage(val)
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", key, err)
			}
			out[key] = s
		case []image.Image:
			ss := make([]string, len(val))
			for i, m := range val {
				s, err := EncodeImage(m)
				if err != nil {
					return nil, fmt.Errorf("key %s[%d]: %w", key, i, err)
				}
				ss[i] = s
			}
			out[key] = ss
		default:
			out[key] = v
		}
	}
	return json.Marshal(out)
}

// DecodeImage decodes a base64 string holding a PNG or JPEG.
func DecodeImage(s string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTarget, err, "image is not valid base64")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTarget, err, "decode image")
	}
	return img, nil
}

// EncodeImage encodes img as a base64 PNG string.
func EncodeImage(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
