package pipeline_test

import (
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
	_ "github.com/matzehuels/augment/pkg/core/transform/geometric"
	"github.com/matzehuels/augment/pkg/pipeline"
)

func ExampleReplayCompose() {
	spec, err := pipeline.ParseSpec([]byte(`
schema_version = "v1"

[[transforms]]
name = "geometric.HorizontalFlip"
always_apply = true
`), pipeline.FormatTOML)
	if err != nil {
		panic(err)
	}
	rc, err := spec.Compose()
	if err != nil {
		panic(err)
	}

	data := target.Bundle{
		"image":  image.NewGray(image.Rect(0, 0, 10, 4)),
		"bboxes": []target.BBox{target.NewBBox(1, 0, 3, 2)},
	}
	out, saved, err := rc.Apply(data, transform.WithRand(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		panic(err)
	}
	fmt.Println(out["bboxes"].([]target.BBox)[0].Coords())

	back, err := pipeline.Reverse(saved, out)
	if err != nil {
		panic(err)
	}
	fmt.Println(back["bboxes"].([]target.BBox)[0].Coords())
	// Output:
	// [7 0 9 2]
	// [1 0 3 2]
}
