package transform_test

import (
	"fmt"
	"image"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
)

func ExampleApply() {
	noop, _ := transform.NewNoOp(false, 1)

	data := target.Bundle{
		"image":  image.NewGray(image.Rect(0, 0, 4, 3)),
		"bboxes": []target.BBox{target.NewBBox(0, 0, 2, 2, "cat")},
		"mask":   nil,
	}
	out, err := transform.Apply(noop, data)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(out["bboxes"].([]target.BBox)[0].Payload)
	fmt.Println(out["mask"] == nil)
	// Output:
	// [cat]
	// true
}

func ExampleReplay() {
	noop, _ := transform.NewNoOp(true, 1)
	_ = noop.SetDeterministic(true, "replay")

	rec := transform.NewReplay()
	data := target.Bundle{"image": image.NewGray(image.Rect(0, 0, 2, 2)), "replay": rec}
	_, _ = transform.Apply(noop, data)

	_, recorded := rec.Lookup(noop.ID())
	fmt.Println("recorded:", recorded)

	noop.SetReplayMode(true)
	fmt.Println("state:", noop.State())
	// Output:
	// recorded: true
	// state: replaying
}
