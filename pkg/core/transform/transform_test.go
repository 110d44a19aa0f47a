package transform

import (
	"bytes"
	"image"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/errors"
	"github.com/matzehuels/augment/pkg/observability"
)

func TestShouldApplyDrawCount(t *testing.T) {
	tests := []struct {
		name        string
		p           float64
		alwaysApply bool
		force       bool
		want        bool
	}{
		{"p one", 1, false, false, true},
		{"p zero", 0, false, false, false},
		{"always apply", 0, true, false, true},
		{"force", 0, false, true, true},
		{"both overrides", 0, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newCountingSource(7)
			r := rand.New(src)
			for i := 0; i < 5; i++ {
				if got := ShouldApply(r, tt.alwaysApply, tt.force, tt.p); got != tt.want {
					t.Fatalf("call %d: ShouldApply = %v, want %v", i, got, tt.want)
				}
			}
			if src.n != 5 {
				t.Errorf("draws = %d, want one per call (5)", src.n)
			}
		})
	}
}

func TestGateDrawDoesNotShiftLaterSampling(t *testing.T) {
	// The params sampled after the gate must not depend on the overrides.
	run := func(force bool) Params {
		tr := newShift(1)
		r := seeded(3)
		ShouldApply(r, false, force, tr.P)
		p, err := GenerateParams(tr, target.Bundle{}, r)
		if err != nil {
			t.Fatal(err)
		}
		return p
	}
	if a, b := run(false), run(true); !reflect.DeepEqual(a, b) {
		t.Errorf("params differ with force: %v vs %v", a, b)
	}
}

func TestApplyProbabilityExtremes(t *testing.T) {
	data := target.Bundle{
		"image":  testImage(4, 3),
		"bboxes": []target.BBox{target.NewBBox(1, 1, 2, 2)},
	}

	always := newShift(1)
	never := newShift(0)
	r := seeded(11)
	for i := 0; i < 50; i++ {
		out, err := Apply(always, data, WithRand(r))
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := out["image"].(shiftedImage); !ok {
			t.Fatalf("p=1 did not fire on call %d", i)
		}

		out, err = Apply(never, data, WithRand(r))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(out, data) {
			t.Fatalf("p=0 changed data on call %d", i)
		}
	}
}

func TestApplyForce(t *testing.T) {
	tr := newShift(0)
	out, err := Apply(tr, target.Bundle{"image": testImage(2, 2)}, WithForce(true), WithRand(seeded(1)))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out["image"].(shiftedImage); !ok {
		t.Error("forced transform did not fire")
	}
}

func TestNoOpIsIdentity(t *testing.T) {
	img := testImage(5, 4)
	tests := []struct {
		key   string
		value any
	}{
		{"mask", testImage(5, 4)},
		{"masks", []image.Image{testImage(5, 4), testImage(5, 4)}},
		{"bboxes", []target.BBox{target.NewBBox(1, 2, 3, 4, "cat", 7)}},
		{"keypoints", []target.Keypoint{target.NewKeypoint(1, 2, 0.5, 1, "eye")}},
	}

	noop, err := NewNoOp(true, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			data := target.Bundle{"image": img, tt.key: tt.value}
			out, err := Apply(noop, data, WithRand(seeded(1)))
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(out, data) {
				t.Errorf("Apply changed %s", tt.key)
			}
			back, err := Reverse(noop, out, Params{})
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(back, data) {
				t.Errorf("Reverse changed %s", tt.key)
			}
		})
	}
}

func TestNilValuesStayNil(t *testing.T) {
	tr := newShift(1)
	out, err := Apply(tr, target.Bundle{"image": testImage(2, 2), "mask": nil}, WithRand(seeded(1)))
	if err != nil {
		t.Fatal(err)
	}
	v, ok := out["mask"]
	if !ok || v != nil {
		t.Errorf("mask = %v (present %v), want nil", v, ok)
	}
}

func TestAliasReceivesSameParams(t *testing.T) {
	tr := newShift(1)
	if err := tr.AddTargets(map[string]target.Kind{"bboxes2": target.KindBBoxes, "image2": target.KindImage}); err != nil {
		t.Fatal(err)
	}
	boxes := []target.BBox{target.NewBBox(0, 0, 10, 10)}
	data := target.Bundle{
		"image":   testImage(4, 4),
		"image2":  testImage(4, 4),
		"bboxes":  boxes,
		"bboxes2": boxes,
	}

	out, err := Apply(tr, data, WithRand(seeded(5)))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out["bboxes"], out["bboxes2"]) {
		t.Errorf("alias got %v, canonical got %v", out["bboxes2"], out["bboxes"])
	}
	a, ok1 := out["image"].(shiftedImage)
	b, ok2 := out["image2"].(shiftedImage)
	if !ok1 || !ok2 || a.dx != b.dx {
		t.Errorf("images not shifted alike: %v %v", out["image"], out["image2"])
	}
}

func TestAddTargetsValidates(t *testing.T) {
	tr := newShift(1)
	if err := tr.AddTargets(map[string]target.Kind{"x": "heatmap"}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("unknown kind: err = %v", err)
	}
	if err := tr.AddTargets(map[string]target.Kind{"": target.KindImage}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty key: err = %v", err)
	}
}

func TestBBoxPayloadPreserved(t *testing.T) {
	tr := newShift(1)
	in := []target.BBox{target.NewBBox(10, 20, 30, 40, "label", 7)}
	out, err := Apply(tr, target.Bundle{"image": testImage(2, 2), "bboxes": in}, WithRand(seeded(2)))
	if err != nil {
		t.Fatal(err)
	}
	got := out["bboxes"].([]target.BBox)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].X1 == 10 {
		t.Error("coordinates were not transformed")
	}
	if !reflect.DeepEqual(got[0].Payload, []any{"label", 7}) {
		t.Errorf("payload = %v, want [label 7]", got[0].Payload)
	}
}

func TestUnknownKeyVersusUnimplementedKind(t *testing.T) {
	tr := &imageOnlyDual{Base: mustBase(t, true, 1)}
	data := target.Bundle{"image": testImage(2, 2), "depth": []int{1, 2, 3}}

	out, err := Apply(tr, data, WithRand(seeded(1)))
	if err != nil {
		t.Fatalf("unknown key should pass through, got %v", err)
	}
	if !reflect.DeepEqual(out["depth"], []int{1, 2, 3}) {
		t.Errorf("depth = %v", out["depth"])
	}

	data["bboxes"] = []target.BBox{target.NewBBox(0, 0, 1, 1)}
	_, err = Apply(tr, data, WithRand(seeded(1)))
	if !errors.Is(err, errors.ErrCodeNotImplemented) {
		t.Fatalf("declared kind: err = %v, want NOT_IMPLEMENTED", err)
	}
	if !errors.IsCapability(err) || errors.IsPrecondition(err) {
		t.Error("unimplemented kind should be a capability error")
	}
}

func TestWrongValueTypeIsInvalidTarget(t *testing.T) {
	tr := newShift(1)
	_, err := Apply(tr, target.Bundle{"image": testImage(2, 2), "bboxes": "nope"}, WithRand(seeded(1)))
	if !errors.Is(err, errors.ErrCodeInvalidTarget) {
		t.Errorf("err = %v, want INVALID_TARGET", err)
	}
}

func TestFrameGeometryRequiresImage(t *testing.T) {
	tr := newShift(1)
	_, err := Apply(tr, target.Bundle{"bboxes": []target.BBox{}}, WithRand(seeded(1)))
	if !errors.Is(err, errors.ErrCodeMissingTarget) {
		t.Errorf("err = %v, want MISSING_TARGET", err)
	}
}

func TestUpdateParamsInjectsGeometry(t *testing.T) {
	p, err := UpdateParams(newShift(1), Params{"dx": 1.0}, target.Bundle{"image": testImage(7, 3)})
	if err != nil {
		t.Fatal(err)
	}
	if p[ParamRows] != 3 || p[ParamCols] != 7 {
		t.Errorf("rows=%v cols=%v, want 3/7", p[ParamRows], p[ParamCols])
	}
}

func TestDependencyReadsOriginalValue(t *testing.T) {
	tr := &boxesNeedImage{Base: mustBase(t, true, 1)}
	img := testImage(4, 4)
	data := target.Bundle{"image": img, "bboxes": []target.BBox{target.NewBBox(0, 0, 1, 1)}}

	out, err := Apply(tr, data, WithRand(seeded(1)))
	if err != nil {
		t.Fatal(err)
	}
	if tr.got != img {
		t.Errorf("box handler saw %T, want the original image", tr.got)
	}
	if out["image"] == img {
		t.Error("image handler did not run")
	}
}

func TestTargetDependentParams(t *testing.T) {
	tr := &cropNear{Base: mustBase(t, true, 1)}

	_, err := GenerateParams(tr, target.Bundle{"image": testImage(2, 2)}, seeded(1))
	if !errors.Is(err, errors.ErrCodeMissingTarget) || !strings.Contains(err.Error(), "cropping_bbox") {
		t.Fatalf("err = %v, want MISSING_TARGET naming cropping_bbox", err)
	}

	p, err := GenerateParams(tr, target.Bundle{"image": testImage(2, 2), "cropping_bbox": []float64{3, 4, 5, 6}}, seeded(1))
	if err != nil {
		t.Fatal(err)
	}
	if p["x_min"] != 3.0 {
		t.Errorf("x_min = %v, target-dependent value should win", p["x_min"])
	}
	if p["fixed"] != "base" {
		t.Errorf("fixed = %v, base params lost", p["fixed"])
	}
	if len(tr.seen) != 1 {
		t.Errorf("values passed = %v, want only cropping_bbox", tr.seen)
	}
}

func TestSetDeterministicRejectsReservedKey(t *testing.T) {
	tr := newShift(1)
	err := tr.SetDeterministic(true, "params")
	if !errors.Is(err, errors.ErrCodeReservedName) {
		t.Fatalf("err = %v, want RESERVED_NAME", err)
	}
	if tr.Deterministic() {
		t.Error("rejected call must not change state")
	}
}

func TestStateTransitions(t *testing.T) {
	tr := newShift(1)
	if tr.State() != StateNormal {
		t.Errorf("initial state = %v", tr.State())
	}
	if err := tr.SetDeterministic(true, "replay"); err != nil {
		t.Fatal(err)
	}
	if tr.State() != StateDeterministic {
		t.Errorf("state = %v, want deterministic", tr.State())
	}
	tr.SetReplayMode(true)
	if tr.State() != StateReplaying {
		t.Errorf("state = %v, replay should win", tr.State())
	}
}

func TestReplayFidelity(t *testing.T) {
	tr := newShift(0.5)
	if err := tr.SetDeterministic(true, "replay"); err != nil {
		t.Fatal(err)
	}
	img := testImage(6, 4)
	boxes := []target.BBox{target.NewBBox(1, 1, 3, 3, "a")}
	points := []target.Keypoint{target.NewKeypoint(2, 2, 0, 1)}

	rec := NewReplay()
	data := target.Bundle{"image": img, "bboxes": boxes, "keypoints": points, "replay": rec}
	first, err := Apply(tr, data, WithForce(true), WithRand(seeded(9)))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.Lookup(tr.ID()); !ok {
		t.Fatal("no record written")
	}

	tr.SetReplayMode(true)
	again, err := Apply(tr, target.Bundle{"image": img, "bboxes": boxes, "keypoints": points, "replay": rec}, WithRand(seeded(1234)))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, again) {
		t.Errorf("replay differs:\n first %v\n again %v", first, again)
	}
}

func TestRecordShape(t *testing.T) {
	tr := newShift(1)
	if err := tr.SetDeterministic(true, "saved"); err != nil {
		t.Fatal(err)
	}
	rec := NewReplay()
	if _, err := Apply(tr, target.Bundle{"image": testImage(2, 2), "saved": rec}, WithRand(seeded(1))); err != nil {
		t.Fatal(err)
	}
	got, ok := rec.Lookup(tr.ID())
	if !ok {
		t.Fatal("no record")
	}
	if !got.Has("dx") {
		t.Errorf("record %v lacks dx", got)
	}
	if _, ok := got.Sub("saved"); !ok {
		t.Errorf("record %v lacks reverse args under save key", got)
	}
	if got.Has(ParamRows) {
		t.Errorf("record %v holds call geometry", got)
	}
}

func TestRecordingRequiresContainer(t *testing.T) {
	tr := newShift(1)
	if err := tr.SetDeterministic(true, "replay"); err != nil {
		t.Fatal(err)
	}
	_, err := Apply(tr, target.Bundle{"image": testImage(2, 2)}, WithRand(seeded(1)))
	if !errors.Is(err, errors.ErrCodeMissingTarget) {
		t.Errorf("err = %v, want MISSING_TARGET", err)
	}
}

func TestReplayWithoutRecordPassesThrough(t *testing.T) {
	tr := newShift(1)
	tr.SetReplayMode(true)
	data := target.Bundle{"image": testImage(2, 2), "replay": NewReplay()}
	out, err := Apply(tr, data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out, data) {
		t.Error("unrecorded transform changed data in replay mode")
	}
}

func TestReplayAcceptsDecodedContainer(t *testing.T) {
	tr := newShift(1)
	tr.SetReplayMode(true)
	decoded := map[string]any{
		tr.ID(): map[string]any{"dx": 4.0, "replay": map[string]any{}},
	}
	out, err := Apply(tr, target.Bundle{"image": testImage(2, 2), "bboxes": []target.BBox{target.NewBBox(0, 0, 1, 1)}, "replay": decoded})
	if err != nil {
		t.Fatal(err)
	}
	if got := out["bboxes"].([]target.BBox)[0].X1; got != 4 {
		t.Errorf("x1 = %v, want 4", got)
	}
}

func TestTwoInstancesKeepSeparateRecords(t *testing.T) {
	a, b := newShift(1), newShift(1)
	for _, tr := range []*shift{a, b} {
		if err := tr.SetDeterministic(true, "replay"); err != nil {
			t.Fatal(err)
		}
	}
	rec := NewReplay()
	data := target.Bundle{"image": testImage(2, 2), "replay": rec}
	r := seeded(42)
	if _, err := Apply(a, data, WithRand(r)); err != nil {
		t.Fatal(err)
	}
	if _, err := Apply(b, data, WithRand(r)); err != nil {
		t.Fatal(err)
	}
	if len(rec) != 2 {
		t.Errorf("records = %d, want 2", len(rec))
	}
}

func TestAdvisoryOnRecordingTargetDependentParams(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	hooks := &advisoryHooks{}
	observability.SetTransformHooks(hooks)

	var buf bytes.Buffer
	logger := log.New(&buf)

	tr := &cropNear{Base: mustBase(t, true, 1)}
	if err := tr.SetDeterministic(true, "replay"); err != nil {
		t.Fatal(err)
	}
	data := target.Bundle{"image": testImage(2, 2), "cropping_bbox": []float64{0, 0, 1, 1}, "replay": NewReplay()}
	if _, err := Apply(tr, data, WithRand(seeded(1)), WithLogger(logger)); err != nil {
		t.Fatalf("advisory must not fail the call: %v", err)
	}
	if len(hooks.messages) != 1 {
		t.Errorf("advisories = %v, want 1", hooks.messages)
	}
	if !strings.Contains(buf.String(), "replay mode") {
		t.Errorf("log = %q", buf.String())
	}
}

type advisoryHooks struct {
	observability.NoopTransformHooks
	messages []string
}

func (h *advisoryHooks) OnAdvisory(_, message string) {
	h.messages = append(h.messages, message)
}

func TestReverseRoundTrip(t *testing.T) {
	tr := newShift(1)
	if err := tr.SetDeterministic(true, "replay"); err != nil {
		t.Fatal(err)
	}
	img := testImage(5, 5)
	boxes := []target.BBox{target.NewBBox(1, 2, 3, 4, "x")}
	points := []target.Keypoint{target.NewKeypoint(1, 1, 0.25, 2)}
	rec := NewReplay()

	fwd, err := Apply(tr, target.Bundle{"image": img, "bboxes": boxes, "keypoints": points, "replay": rec}, WithRand(seeded(8)))
	if err != nil {
		t.Fatal(err)
	}
	record, _ := rec.Lookup(tr.ID())
	delete(fwd, "replay")

	back, err := Reverse(tr, fwd, record)
	if err != nil {
		t.Fatal(err)
	}
	want := target.Bundle{"image": img, "bboxes": boxes, "keypoints": points}
	if !reflect.DeepEqual(back, want) {
		t.Errorf("round trip:\n got %v\nwant %v", back, want)
	}
}

func TestReverseNilRecordIsIdentity(t *testing.T) {
	data := target.Bundle{"bboxes": []target.BBox{target.NewBBox(1, 1, 2, 2)}}
	out, err := Reverse(newShift(1), data, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out, data) {
		t.Error("nil record changed data")
	}
}

func TestReverseWithoutInverse(t *testing.T) {
	tr := &imageOnlyDual{Base: mustBase(t, true, 1)}
	_, err := Reverse(tr, target.Bundle{"image": testImage(2, 2)}, Params{})
	if !errors.Is(err, errors.ErrCodeNotImplemented) {
		t.Errorf("err = %v, want NOT_IMPLEMENTED", err)
	}
}

func TestNewBaseValidatesProbability(t *testing.T) {
	for _, p := range []float64{-0.1, 1.5} {
		if _, err := NewBase(false, p); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("p=%v: err = %v, want INVALID_CONFIG", p, err)
		}
	}
}

func TestRestoreID(t *testing.T) {
	a, b := newShift(1), newShift(1)
	if a.ID() == b.ID() {
		t.Fatal("instances share an ID")
	}
	if err := b.RestoreID(a.ID()); err != nil {
		t.Fatal(err)
	}
	if a.ID() != b.ID() {
		t.Error("RestoreID did not take")
	}
	if err := b.RestoreID("not-a-uuid"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v", err)
	}
}

func mustBase(t *testing.T, alwaysApply bool, p float64) Base {
	t.Helper()
	b, err := NewBase(alwaysApply, p)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
