// Package target defines the data a transform acts on.
//
// # Overview
//
// A call to a transform carries a [Bundle]: a mapping from data key to value.
// Five keys have a canonical meaning, the target kinds:
//
//   - image: an [image.Image]
//   - mask: an [image.Image] holding per-pixel labels
//   - masks: a []image.Image
//   - bboxes: a [][BBox], pixel coordinates (x1, y1, x2, y2)
//   - keypoints: a [][Keypoint] (x, y, angle, scale)
//
// Any other key is allowed. Transforms route extra keys to a kind through an
// alias table ("image2" → image), and pass unknown keys through untouched.
// A nil value is an absent target and is never handed to a handler.
//
// # Payload
//
// Boxes and keypoints carry trailing fields beyond their four coordinates
// (class labels, track ids, scores). Those fields live in Payload and are
// opaque: transforms only ever see and return the coordinates, and the
// payload is reattached unchanged.
//
// # JSON
//
// [ParseBundle] decodes a JSON object into a Bundle. Boxes and keypoints are
// flat arrays ([10, 20, 30, 40, "cat", 7]); images are base64-encoded PNG
// strings. A top-level JSON array is rejected: data must be named.
package target
