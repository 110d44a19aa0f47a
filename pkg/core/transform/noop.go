package transform

import (
	"math/rand/v2"

	"github.com/matzehuels/augment/pkg/core/target"
)

// NoOpName is the registry name of [NoOp].
const NoOpName = "transform.NoOp"

// NoOp leaves every target unchanged, forward and reverse.
type NoOp struct {
	Base
}

// NewNoOp returns a NoOp that fires with probability p.
func NewNoOp(alwaysApply bool, p float64) (*NoOp, error) {
	b, err := NewBase(alwaysApply, p)
	if err != nil {
		return nil, err
	}
	return &NoOp{Base: b}, nil
}

func (*NoOp) Name() string { return NoOpName }

func (*NoOp) Params(*rand.Rand) (Params, error) { return Params{}, nil }

func (*NoOp) Targets() Targets { return identityTable() }

func (*NoOp) ReverseTargets() Targets { return identityTable() }

func (*NoOp) InitArgs() map[string]any { return map[string]any{} }

func identityTable() Targets {
	t := make(Targets, len(target.Kinds))
	for _, k := range target.Kinds {
		t[k] = Identity
	}
	return t
}
