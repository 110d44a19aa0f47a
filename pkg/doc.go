// Package pkg provides the core libraries for augment, a reproducible image
// augmentation engine.
//
// # Overview
//
// A pipeline applies randomized transforms to an image together with its
// masks, bounding boxes and keypoints. Every random decision can be recorded,
// replayed on other samples, and undone. The pkg directory is organized into
// these areas:
//
//  1. [core] - Domain logic (targets, transforms, the transform registry)
//  2. [pipeline] - Composition, recording, replay, reverse and batch runs
//  3. [cache] - Record storage backends (file, Redis, MongoDB)
//  4. [io] - Samples and recorded runs on disk
//  5. [render] - Diagrams of pipelines and recorded runs
//
// # Architecture
//
// The typical data flow through augment:
//
//	Pipeline file (TOML/YAML/JSON)
//	         ↓
//	    [pipeline] Spec (validate + build via [core/registry])
//	         ↓
//	    [pipeline] ReplayCompose (gate, sample, record)
//	         ↓
//	    augmented sample + Saved record
//	         ↓
//	    [pipeline] Replay / Reverse on other samples
//
// # Quick Start
//
// Apply a pipeline and undo it:
//
//	import (
//	    "github.com/matzehuels/augment/pkg/core/transform/geometric"
//	    "github.com/matzehuels/augment/pkg/pipeline"
//	)
//
//	flip, _ := geometric.NewHorizontalFlip(false, 0.5)
//	rc, _ := pipeline.NewReplayCompose([]transform.Transform{flip}, 1, "")
//
//	out, saved, _ := rc.Apply(target.Bundle{"image": img, "bboxes": boxes})
//	again, _ := pipeline.Replay(saved, otherSample)
//	back, _ := pipeline.Reverse(saved, out)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [core/target] - Target kinds (image, mask, masks, bboxes, keypoints), the
// data bundle and its JSON codec.
//
// [core/transform] - The transform contract: probability gate, parameter
// sampling, per-target dispatch, recording, replay and reverse. Subpackages
// hold the concrete transforms:
//
//   - [core/transform/geometric]: flips, rot90, resize, crop near a box
//   - [core/transform/color]: inversion, brightness
//
// [core/registry] - Name to factory mapping used to build transforms from
// pipeline files and recorded descriptions.
//
// ## Orchestration
//
// [pipeline] - Compose and ReplayCompose, the Saved record format, pipeline
// specs, and a Runner that applies a spec to batches with a record cache.
// The CLI and the HTTP API both go through the Runner.
//
// ## Infrastructure
//
// [cache] - Byte cache with TTLs. FileCache for the CLI, RedisCache and
// MongoCache for shared deployments, NullCache to disable caching.
//
// [observability] - Hook interfaces for transforms, pipelines, cache and HTTP
// events; [observability/prom] exports them as Prometheus metrics.
//
// [errors] - Coded errors shared by every package.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test -run Example ./... # Examples only
//
// [core]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/core
// [core/target]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/core/target
// [core/transform]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/core/transform
// [core/transform/geometric]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/core/transform/geometric
// [core/transform/color]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/core/transform/color
// [core/registry]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/core/registry
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/cache
// [io]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/render
// [observability]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/observability
// [observability/prom]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/observability/prom
// [errors]: https://pkg.go.dev/github.com/matzehuels/augment/pkg/errors
package pkg
