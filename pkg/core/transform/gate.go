package transform

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"
)

// ShouldApply decides whether a transform fires.
//
// One uniform draw is taken from r on every call, before the overrides are
// consulted, so the random stream seen by later transforms is the same
// whether or not alwaysApply or force is set.
func ShouldApply(r *rand.Rand, alwaysApply, force bool, p float64) bool {
	draw := r.Float64() < p
	return draw || alwaysApply || force
}

// globalSource reads from the top-level math/rand/v2 generator.
type globalSource struct{}

func (globalSource) Uint64() uint64 { return rand.Uint64() }

// DefaultRand returns a generator backed by the process-wide source.
func DefaultRand() *rand.Rand {
	return rand.New(globalSource{})
}

// Option configures a single call.
type Option func(*CallOptions)

// CallOptions is the resolved form of a list of options. Composition layers
// read it to share the random source and logger with their children.
type CallOptions struct {
	Rand   *rand.Rand
	Force  bool
	Logger *log.Logger
}

// ResolveOptions applies opts over the defaults: the process-wide source
// and log.Default().
func ResolveOptions(opts ...Option) CallOptions {
	o := CallOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Rand == nil {
		o.Rand = DefaultRand()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Options returns o as a list that reproduces it.
func (o CallOptions) Options() []Option {
	return []Option{WithRand(o.Rand), WithForce(o.Force), WithLogger(o.Logger)}
}

// WithRand sets the random source for the gate and parameter sampling.
func WithRand(r *rand.Rand) Option {
	return func(o *CallOptions) { o.Rand = r }
}

// WithForce makes the transform fire regardless of p. The gate draw is still
// taken.
func WithForce(force bool) Option {
	return func(o *CallOptions) { o.Force = force }
}

// WithLogger sets the logger that receives advisories.
func WithLogger(l *log.Logger) Option {
	return func(o *CallOptions) { o.Logger = l }
}
