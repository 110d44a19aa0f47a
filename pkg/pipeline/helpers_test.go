package pipeline

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
	_ "github.com/matzehuels/augment/pkg/core/transform/color"
	"github.com/matzehuels/augment/pkg/core/transform/geometric"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 7))
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 9), G: uint8(y * 9), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func sample() target.Bundle {
	return target.Bundle{
		"image":  gradient(8, 6),
		"bboxes": []target.BBox{target.NewBBox(1, 1, 4, 3, "cat")},
	}
}

func samePixels(t *testing.T, got, want any) {
	t.Helper()
	g, w := imaging.Clone(got.(image.Image)), imaging.Clone(want.(image.Image))
	if g.Bounds().Size() != w.Bounds().Size() {
		t.Fatalf("size = %v, want %v", g.Bounds().Size(), w.Bounds().Size())
	}
	for i := range w.Pix {
		if g.Pix[i] != w.Pix[i] {
			t.Fatalf("pixel byte %d = %d, want %d", i, g.Pix[i], w.Pix[i])
		}
	}
}

func sameBoxes(t *testing.T, got, want any) {
	t.Helper()
	g, w := got.([]target.BBox), want.([]target.BBox)
	if len(g) != len(w) {
		t.Fatalf("%d boxes, want %d", len(g), len(w))
	}
	for i := range w {
		gc, wc := g[i].Coords(), w[i].Coords()
		for j := range wc {
			if math.Abs(gc[j]-wc[j]) > 1e-9 {
				t.Fatalf("box %d = %v, want %v", i, gc, wc)
			}
		}
	}
}

// geometry builds flip, rotate and resize, all firing.
func geometry(t *testing.T) []transform.Transform {
	t.Helper()
	flip, err := geometric.NewHorizontalFlip(false, 1)
	if err != nil {
		t.Fatal(err)
	}
	rot, err := geometric.NewRandomRotate90(false, 1)
	if err != nil {
		t.Fatal(err)
	}
	resize, err := geometric.NewResize(12, 16, "nearest", false, 1)
	if err != nil {
		t.Fatal(err)
	}
	return []transform.Transform{flip, rot, resize}
}

func p(v float64) *float64 { return &v }
