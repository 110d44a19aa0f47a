// Package io reads and writes samples and recorded runs on disk.
//
// # Sample layout
//
// A sample named "cat" in a directory is a set of sibling files:
//
//	cat.png            the "image" target
//	cat.mask.png       any other image-valued key, one file per key
//	cat.masks.0.png    list-valued image keys, one file per element
//	cat.json           the sidecar: every non-image key as a JSON object
//
// The sidecar is decoded with [target.ParseBundle], so boxes and keypoints
// keep their payload columns:
//
//	{
//	  "bboxes": [[10, 20, 50, 80, "cat"]],
//	  "keypoints": [[30, 40, 0, 1]]
//	}
//
// # Import
//
// [ImportSample] loads the image at a path plus whatever siblings exist:
//
//	data, err := io.ImportSample("data/cat.jpg", nil)
//
// # Export
//
// [ExportSample] writes a bundle back in the same layout, always as PNG so
// that masks are stored losslessly:
//
//	err := io.ExportSample(out, "augmented", "cat")
//
// # Recorded runs
//
// [ImportSaved] and [ExportSaved] read and write a [pipeline.Saved] as
// indented JSON, the input of "augment replay" and "augment reverse".
package io
