package io

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/errors"
	"github.com/matzehuels/augment/pkg/pipeline"
)

func solid(w, h int, v uint8) *image.NRGBA {
	return imaging.New(w, h, color.NRGBA{R: v, G: v, B: v, A: 255})
}

func TestExportImportSample(t *testing.T) {
	dir := t.TempDir()
	b := target.Bundle{
		"image":     solid(4, 3, 200),
		"mask":      solid(4, 3, 1),
		"masks":     []image.Image{solid(4, 3, 2), solid(4, 3, 3)},
		"bboxes":    []target.BBox{target.NewBBox(0, 0, 2, 2, "dog")},
		"keypoints": []target.Keypoint{target.NewKeypoint(1, 1, 0, 1)},
	}
	if err := ExportSample(b, dir, "s1"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"s1.png", "s1.mask.png", "s1.masks.0.png", "s1.masks.1.png", "s1.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s", name)
		}
	}

	got, err := ImportSample(filepath.Join(dir, "s1.png"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if rows, cols := target.Frame(got["image"].(image.Image)); rows != 3 || cols != 4 {
		t.Errorf("frame = %dx%d", rows, cols)
	}
	masks, ok := got["masks"].([]image.Image)
	if !ok || len(masks) != 2 {
		t.Fatalf("masks = %T %v", got["masks"], got["masks"])
	}
	if imaging.Clone(masks[1]).Pix[0] != 3 {
		t.Error("masks out of order")
	}
	boxes := got["bboxes"].([]target.BBox)
	if len(boxes) != 1 || boxes[0].Payload[0] != "dog" {
		t.Errorf("bboxes = %v", boxes)
	}
	if _, ok := got["keypoints"].([]target.Keypoint); !ok {
		t.Errorf("keypoints = %T", got["keypoints"])
	}
}

func TestImportSampleWithoutSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.png")
	if err := SaveImage(solid(2, 2, 9), path); err != nil {
		t.Fatal(err)
	}
	got, err := ImportSample(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("keys = %v", got.Keys())
	}

	if _, err := ImportSample(filepath.Join(dir, "none.png"), nil); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestReadAnnotationsRejectsPositional(t *testing.T) {
	_, err := ReadAnnotations(bytes.NewReader([]byte(`[[1,2,3,4]]`)), nil)
	if !errors.Is(err, errors.ErrCodeContractViolation) {
		t.Errorf("err = %v, want CONTRACT_VIOLATION", err)
	}
}

func TestListSamples(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "a.mask.png", "a.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := ListSamples(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.png")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ListSamples = %v, want %v", got, want)
	}
}

func TestSavedRoundTrip(t *testing.T) {
	s := &pipeline.Saved{
		SchemaVersion: pipeline.SchemaVersion,
		P:             1,
		SaveKey:       "replay",
		Transforms: []pipeline.SavedTransform{
			{Transform: map[string]any{"__class_fullname__": "transform.NoOp"}, Applied: true, Params: map[string]any{"replay": map[string]any{}}},
		},
	}
	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportSaved(s, path); err != nil {
		t.Fatal(err)
	}
	got, err := ImportSaved(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Applied() != 1 || got.Transforms[0].Name() != "transform.NoOp" {
		t.Errorf("got %+v", got)
	}

	if _, err := ReadSaved(bytes.NewReader([]byte(`{"schema_version":"v9"}`))); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}
