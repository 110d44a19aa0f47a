package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/augment/pkg/cache"
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
	"github.com/matzehuels/augment/pkg/errors"
	"github.com/matzehuels/augment/pkg/observability"
)

// DefaultSeed seeds runs that do not choose one.
const DefaultSeed uint64 = 42

// Sample is one input of a batch run.
type Sample struct {
	Name string
	Data target.Bundle
}

// SampleResult is the outcome of one sample.
type SampleResult struct {
	Name     string
	Output   target.Bundle
	Saved    *Saved
	CacheHit bool
	Duration time.Duration
}

// Stats summarizes a run.
type Stats struct {
	Samples   int
	CacheHits int
	Applied   int // stages fired, summed over samples
	Duration  time.Duration
}

// Result is the outcome of [Runner.Run].
type Result struct {
	PipelineHash string
	Samples      []SampleResult
	Stats        Stats
}

// Runner applies a pipeline to batches of samples and caches each sample's
// recorded run. A later run over the same sample, pipeline and seed replays
// the cached record instead of sampling again.
//
// A Runner holds no per-run state; one Runner may serve concurrent calls.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Workers bounds concurrent samples. Values below 2 run sequentially.
	Workers int

	// Refresh ignores cached records and overwrites them.
	Refresh bool
}

// NewRunner fills nil arguments with NullCache, DefaultKeyer and
// log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Run applies spec to every sample. Sample i draws from a PCG stream seeded
// with (seed, i), so results do not depend on Workers.
func (r *Runner) Run(ctx context.Context, spec *Spec, samples []Sample, seed uint64) (*Result, error) {
	start := time.Now()
	hash, err := spec.Hash()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash pipeline")
	}
	observability.Pipeline().OnRunStart(ctx, hash, len(samples))
	r.storePipeline(ctx, spec, hash)

	res := &Result{PipelineHash: hash, Samples: make([]SampleResult, len(samples))}
	g, gctx := errgroup.WithContext(ctx)
	if r.Workers > 1 {
		g.SetLimit(r.Workers)
	} else {
		g.SetLimit(1)
	}
	for i, s := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sr, err := r.runSample(gctx, spec, hash, s, seed, uint64(i))
			if err != nil {
				return fmt.Errorf("sample %s: %w", s.Name, err)
			}
			res.Samples[i] = sr
			return nil
		})
	}
	err = g.Wait()

	res.Stats.Duration = time.Since(start)
	res.Stats.Samples = len(samples)
	for _, sr := range res.Samples {
		if sr.CacheHit {
			res.Stats.CacheHits++
		}
		if sr.Saved != nil {
			res.Stats.Applied += sr.Saved.Applied()
		}
	}
	observability.Pipeline().OnRunComplete(ctx, hash, len(samples), res.Stats.Duration, err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("pipeline run complete",
		"pipeline", hash[:12],
		"samples", res.Stats.Samples,
		"cache_hits", res.Stats.CacheHits,
		"duration", res.Stats.Duration)
	return res, nil
}

func (r *Runner) runSample(ctx context.Context, spec *Spec, hash string, s Sample, seed, stream uint64) (SampleResult, error) {
	start := time.Now()
	sr, err := r.applySample(ctx, spec, hash, s, seed, stream)
	sr.Name = s.Name
	sr.Duration = time.Since(start)
	observability.Pipeline().OnSampleComplete(ctx, s.Name, sr.Duration, err)
	return sr, err
}

func (r *Runner) applySample(ctx context.Context, spec *Spec, hash string, s Sample, seed, stream uint64) (SampleResult, error) {
	raw, err := target.MarshalBundle(s.Data)
	if err != nil {
		return SampleResult{}, err
	}
	key := r.Keyer.ReplayKey(cache.Hash(raw), hash, seed)

	if !r.Refresh {
		if saved, ok := r.cached(ctx, key); ok {
			out, err := Replay(saved, s.Data)
			if err != nil {
				return SampleResult{}, err
			}
			r.Logger.Debug("replayed cached run", "sample", s.Name, "applied", saved.Applied())
			return SampleResult{Output: out, Saved: saved, CacheHit: true}, nil
		}
	}

	rc, err := spec.Compose()
	if err != nil {
		return SampleResult{}, err
	}
	rng := rand.New(rand.NewPCG(seed, stream))
	out, saved, err := rc.Apply(s.Data, transform.WithRand(rng), transform.WithLogger(r.Logger))
	if err != nil {
		return SampleResult{}, err
	}

	if data, err := json.Marshal(saved); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLReplay); err != nil {
			r.Logger.Warn("cache write failed", "sample", s.Name, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cache.KeyType(key), len(data))
		}
	}
	r.Logger.Debug("applied pipeline", "sample", s.Name, "applied", saved.Applied())
	return SampleResult{Output: out, Saved: saved}, nil
}

// cached returns the record under key. Backend errors and corrupt records
// count as misses.
func (r *Runner) cached(ctx context.Context, key string) (*Saved, bool) {
	kt := cache.KeyType(key)
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, kt)
		return nil, false
	}
	var saved Saved
	if err := json.Unmarshal(data, &saved); err != nil {
		r.Logger.Warn("discarding corrupt cached run", "error", err)
		_ = r.Cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, kt)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, kt)
	return &saved, true
}

func (r *Runner) storePipeline(ctx context.Context, spec *Spec, hash string) {
	data, err := json.Marshal(spec)
	if err != nil {
		return
	}
	key := r.Keyer.PipelineKey(hash)
	if err := r.Cache.Set(ctx, key, data, cache.TTLPipeline); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Pipeline returns a spec stored by an earlier run, by hash.
func (r *Runner) Pipeline(ctx context.Context, hash string) (*Spec, error) {
	data, hit, err := r.Cache.Get(ctx, r.Keyer.PipelineKey(hash))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read pipeline %s", hash)
	}
	if !hit {
		return nil, errors.New(errors.ErrCodeNotFound, "pipeline %s not cached", hash)
	}
	return ParseSpec(data, FormatJSON)
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
