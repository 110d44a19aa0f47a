package pipeline

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
	"github.com/matzehuels/augment/pkg/core/transform/color"
	"github.com/matzehuels/augment/pkg/core/transform/geometric"
	"github.com/matzehuels/augment/pkg/errors"
)

func TestComposeGate(t *testing.T) {
	// InvertImg has p=0, so it fires only when force reaches it.
	tests := []struct {
		name    string
		p       float64
		force   bool
		changed bool
	}{
		{"closed gate", 0, false, false},
		{"closed gate forced", 0, true, true},
		{"open gate not forced", 1, false, false},
		{"open gate forced", 1, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, _ := color.NewInvertImg(false, 0)
			c, err := NewCompose([]transform.Transform{inv}, tt.p)
			if err != nil {
				t.Fatal(err)
			}
			in := sample()
			out, err := c.Apply(in, transform.WithRand(seeded(1)), transform.WithForce(tt.force))
			if err != nil {
				t.Fatal(err)
			}
			if changed := out["image"] != in["image"]; changed != tt.changed {
				t.Errorf("image changed = %v, want %v", changed, tt.changed)
			}
		})
	}

	if _, err := NewCompose(nil, 1.5); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestComposeEmpty(t *testing.T) {
	c, _ := NewCompose(nil, 1)
	in := sample()
	out, err := c.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) || out["image"] != in["image"] {
		t.Error("empty pipeline should return a copy of its input")
	}
}

func TestReplayComposeReplaysAndReverses(t *testing.T) {
	rc, err := NewReplayCompose(geometry(t), 1, "")
	if err != nil {
		t.Fatal(err)
	}
	in := sample()
	out, saved, err := rc.Apply(in, transform.WithRand(seeded(3)))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out[transform.DefaultSaveKey]; ok {
		t.Error("output carries the replay container")
	}
	if saved.Applied() != 3 {
		t.Fatalf("applied = %d, want 3", saved.Applied())
	}

	raw, err := json.Marshal(saved)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Saved
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	t.Run("replay rebuilt", func(t *testing.T) {
		again, err := Replay(&decoded, in)
		if err != nil {
			t.Fatal(err)
		}
		samePixels(t, again["image"], out["image"])
		sameBoxes(t, again["bboxes"], out["bboxes"])
	})

	t.Run("replay own instances", func(t *testing.T) {
		again, err := rc.Replay(saved, in)
		if err != nil {
			t.Fatal(err)
		}
		samePixels(t, again["image"], out["image"])
		for _, tr := range rc.Transforms {
			if tr.Config().ReplayMode() {
				t.Error("replay mode left on")
			}
		}
	})

	t.Run("reverse", func(t *testing.T) {
		back, err := Reverse(&decoded, out)
		if err != nil {
			t.Fatal(err)
		}
		rows, cols := target.Frame(back["image"].(image.Image))
		if rows != 6 || cols != 8 {
			t.Errorf("frame = %dx%d, want 6x8", rows, cols)
		}
		sameBoxes(t, back["bboxes"], in["bboxes"])
		if back["bboxes"].([]target.BBox)[0].Payload[0] != "cat" {
			t.Error("payload lost")
		}
	})
}

func TestReplayComposeRecordsSkippedStages(t *testing.T) {
	flip, _ := geometric.NewHorizontalFlip(false, 0)
	inv, _ := color.NewInvertImg(false, 1)
	rc, err := NewReplayCompose([]transform.Transform{flip, inv}, 1, "rec")
	if err != nil {
		t.Fatal(err)
	}
	_, saved, err := rc.Apply(sample(), transform.WithRand(seeded(9)))
	if err != nil {
		t.Fatal(err)
	}
	if saved.SaveKey != "rec" || saved.SchemaVersion != SchemaVersion {
		t.Errorf("header = %q %q", saved.SaveKey, saved.SchemaVersion)
	}
	first, second := saved.Transforms[0], saved.Transforms[1]
	if first.Applied || first.Params != nil {
		t.Errorf("skipped stage recorded: %+v", first)
	}
	if !second.Applied || second.Name() != color.InvertImgName {
		t.Errorf("second stage = %+v", second)
	}
	if _, ok := second.Params["rec"]; !ok {
		t.Error("record lacks its reverse-args entry")
	}
	if second.Transform[registry.KeyID] != inv.ID() {
		t.Error("record not keyed by instance id")
	}
	if got := len(saved.Container()); got != 1 {
		t.Errorf("container has %d records, want 1", got)
	}
}

func TestReplayComposeRejects(t *testing.T) {
	flip, _ := geometric.NewHorizontalFlip(false, 1)
	if _, err := NewReplayCompose([]transform.Transform{flip}, 1, "params"); !errors.Is(err, errors.ErrCodeReservedName) {
		t.Errorf("err = %v, want RESERVED_NAME", err)
	}

	rc, _ := NewReplayCompose([]transform.Transform{flip}, 1, "")
	data := sample()
	data[transform.DefaultSaveKey] = "occupied"
	if _, _, err := rc.Apply(data); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestReverseStopsAtMissingInverse(t *testing.T) {
	b, _ := color.NewRandomBrightness(0.2, false, 1)
	rc, _ := NewReplayCompose([]transform.Transform{b}, 1, "")
	out, saved, err := rc.Apply(sample(), transform.WithRand(seeded(2)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Reverse(saved, out); !errors.Is(err, errors.ErrCodeNotImplemented) {
		t.Errorf("err = %v, want NOT_IMPLEMENTED", err)
	}
}

func TestSavedBuildChecksSchema(t *testing.T) {
	s := &Saved{SchemaVersion: "v0"}
	if _, err := s.Build(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
	s = &Saved{SchemaVersion: SchemaVersion, Transforms: []SavedTransform{{Transform: map[string]any{registry.KeyClass: "nope.Nope"}}}}
	if _, err := s.Build(); !errors.Is(err, errors.ErrCodeTransformNotFound) {
		t.Errorf("err = %v, want TRANSFORM_NOT_FOUND", err)
	}
}
