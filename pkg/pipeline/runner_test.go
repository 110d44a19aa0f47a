package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/augment/pkg/cache"
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/errors"
	"github.com/matzehuels/augment/pkg/observability"
)

const runnerSpec = `{
  "schema_version": "v1",
  "transforms": [
    {"name": "geometric.HorizontalFlip", "p": 0.5},
    {"name": "geometric.RandomRotate90", "p": 0.5},
    {"name": "color.InvertImg", "p": 0.5}
  ]
}`

func batch(n int) []Sample {
	out := make([]Sample, n)
	for i := range out {
		out[i] = Sample{
			Name: fmt.Sprintf("s%d", i),
			Data: target.Bundle{
				"image":  gradient(4+i, 5),
				"bboxes": []target.BBox{target.NewBBox(0, 0, 2, 2)},
			},
		}
	}
	return out
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

type cacheCounter struct {
	observability.NoopCacheHooks
	mu               sync.Mutex
	hits, miss, sets int
}

func (c *cacheCounter) OnCacheHit(context.Context, string) {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *cacheCounter) OnCacheMiss(context.Context, string) {
	c.mu.Lock()
	c.miss++
	c.mu.Unlock()
}

func (c *cacheCounter) OnCacheSet(context.Context, string, int) {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
}

func TestRunnerReplaysCachedRuns(t *testing.T) {
	ctx := context.Background()
	spec, err := ParseSpec([]byte(runnerSpec), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	counter := &cacheCounter{}
	observability.SetCacheHooks(counter)
	defer observability.Reset()

	r := quietRunner(fc)
	samples := batch(5)

	first, err := r.Run(ctx, spec, samples, 11)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.CacheHits != 0 || counter.miss != 5 || counter.sets != 5 {
		t.Fatalf("first run: hits=%d miss=%d sets=%d", first.Stats.CacheHits, counter.miss, counter.sets)
	}

	second, err := r.Run(ctx, spec, samples, 11)
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.CacheHits != 5 || counter.hits != 5 {
		t.Fatalf("second run: hits=%d", second.Stats.CacheHits)
	}
	if first.Stats.Applied != second.Stats.Applied {
		t.Errorf("applied %d then %d", first.Stats.Applied, second.Stats.Applied)
	}
	for i := range samples {
		samePixels(t, second.Samples[i].Output["image"], first.Samples[i].Output["image"])
		sameBoxes(t, second.Samples[i].Output["bboxes"], first.Samples[i].Output["bboxes"])
	}

	r.Refresh = true
	third, err := r.Run(ctx, spec, samples, 11)
	if err != nil {
		t.Fatal(err)
	}
	if third.Stats.CacheHits != 0 {
		t.Errorf("refresh run had %d hits", third.Stats.CacheHits)
	}

	stored, err := r.Pipeline(ctx, first.PipelineHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Transforms) != 3 {
		t.Errorf("stored spec = %+v", stored)
	}
}

func TestRunnerWorkersDoNotChangeResults(t *testing.T) {
	ctx := context.Background()
	spec, _ := ParseSpec([]byte(runnerSpec), FormatJSON)
	samples := batch(8)

	seq := quietRunner(nil)
	want, err := seq.Run(ctx, spec, samples, 5)
	if err != nil {
		t.Fatal(err)
	}

	par := quietRunner(nil)
	par.Workers = 4
	got, err := par.Run(ctx, spec, samples, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := range samples {
		if got.Samples[i].Name != samples[i].Name {
			t.Fatalf("result %d is %s", i, got.Samples[i].Name)
		}
		samePixels(t, got.Samples[i].Output["image"], want.Samples[i].Output["image"])
	}
}

func TestRunnerPipelineMiss(t *testing.T) {
	r := quietRunner(nil)
	if _, err := r.Pipeline(context.Background(), "deadbeef"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestRunnerFailsOnBadSample(t *testing.T) {
	spec, _ := ParseSpec([]byte(`{"schema_version":"v1","transforms":[{"name":"geometric.HorizontalFlip","always_apply":true}]}`), FormatJSON)
	samples := []Sample{{Name: "no-image", Data: target.Bundle{"bboxes": []target.BBox{target.NewBBox(0, 0, 1, 1)}}}}
	_, err := quietRunner(nil).Run(context.Background(), spec, samples, 1)
	if !errors.Is(err, errors.ErrCodeMissingTarget) {
		t.Errorf("err = %v, want MISSING_TARGET", err)
	}
}
