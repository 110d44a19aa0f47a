// Package transform is the application and replay engine for augmentations.
//
// # Overview
//
// A [Transform] is configured once and called many times. Each call takes a
// [target.Bundle] of named data items and goes through the same steps:
//
//  1. Gate: [ShouldApply] decides whether the transform fires this call.
//  2. Generate: [GenerateParams] samples one coherent set of [Params].
//  3. Dispatch: [ApplyWithParams] hands every non-nil item to the handler
//     registered for its kind, all with the same parameters.
//
// The same parameters reach the image, its masks, boxes and keypoints, so an
// image and its mask stay aligned after a flip.
//
// # Capability Tables
//
// A transform declares what it can act on through [Targets], a table from
// [target.Kind] to [Handler]. [Dual] builds the full five-kind table for
// spatial transforms, [ImageOnly] builds an image-only table. Keys that do not
// resolve to a declared kind pass through unchanged; a declared kind whose
// handler is missing fails with errors.ErrCodeNotImplemented.
//
// Extra inputs are routed with aliases:
//
//	flip.AddTargets(map[string]target.Kind{"image2": target.KindImage})
//
// # Replay
//
// Every transform is in one of three states, switched by the composition
// layer through [Base.SetDeterministic] and [Base.SetReplayMode]:
//
//	Normal         gate → generate → dispatch
//	Deterministic  as Normal, plus a snapshot into the Replay container
//	Replaying      no gate, no sampling: dispatch the recorded params, or
//	               pass the data through if nothing was recorded
//
// The [Replay] container is owned by the caller and travels inside the bundle
// under the transform's save key. Records are keyed by a per-instance token,
// so two instances of the same transform keep separate records.
//
// # Reverse
//
// [Reverse] undoes a forward application given its record, using the
// transform's reverse table. Kinds without an inverse fail with
// errors.ErrCodeNotImplemented.
//
// # Concurrency
//
// Calls are synchronous and keep no per-call state on the instance. The mode
// flags are not synchronized: set them before sharing an instance, and give
// every concurrent run its own Replay container.
package transform
