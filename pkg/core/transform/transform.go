package transform

import (
	"math/rand/v2"

	"github.com/matzehuels/augment/pkg/core/target"
)

// Transform is one configured augmentation. Implementations embed [Base] and
// provide the capability table and the configuration-only parameters.
type Transform interface {
	// Config returns the embedded base configuration.
	Config() *Base

	// Name returns the fully qualified type name, for example
	// "geometric.HorizontalFlip". It is the registry key.
	Name() string

	// Targets returns the forward capability table.
	Targets() Targets

	// Params samples the parameters that depend on configuration alone.
	Params(r *rand.Rand) (Params, error)
}

// Reversible is implemented by transforms with an inverse.
type Reversible interface {
	ReverseTargets() Targets
}

// TargetParamer is implemented by transforms whose parameters depend on the
// values of some targets, not only their frame geometry.
type TargetParamer interface {
	// TargetsAsParams lists the data keys whose values must be inspected.
	TargetsAsParams() []string

	// ParamsDependentOnTargets computes parameters from those values. The
	// result wins over Params on key collision.
	ParamsDependentOnTargets(r *rand.Rand, values map[string]any) (Params, error)
}

// Dependent is implemented by transforms whose handlers for some kinds need
// other values of the same call, for example the image when moving boxes.
type Dependent interface {
	// TargetDependence maps a kind to the data keys merged into its params.
	TargetDependence() map[target.Kind][]string
}

// ReverseArger is implemented by transforms that need context captured at
// record time to invert, such as the frame size before a resize.
type ReverseArger interface {
	ReverseArgs(data target.Bundle) (Params, error)
}

// FixedParamer is implemented by transforms with non-stochastic settings the
// handlers need, such as the interpolation mode or a fill value.
type FixedParamer interface {
	FixedParams() Params
}

// Describer is implemented by transforms that can be rebuilt from a
// description. InitArgs returns the transform-specific constructor arguments.
type Describer interface {
	InitArgs() map[string]any
}

// ReverseTable returns the reverse capability table of t. A transform without
// an inverse gets a table in which every forward kind is unimplemented.
func ReverseTable(t Transform) Targets {
	if r, ok := t.(Reversible); ok {
		return r.ReverseTargets()
	}
	table := Targets{}
	for kind := range t.Targets() {
		table[kind] = Unimplemented(t.Name()+" reverse", kind)
	}
	return table
}
