// Package registry maps stable transform names to constructors, so that a
// transform can be described as a plain map and rebuilt from it.
//
// Transform packages register themselves from init:
//
//	func init() { registry.Register(HorizontalFlipName, newHorizontalFlip) }
//
// Importing a transform package for its side effect is enough to make its
// transforms available to [FromDict]:
//
//	import _ "github.com/matzehuels/augment/pkg/core/transform/geometric"
package registry

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/core/transform"
	"github.com/matzehuels/augment/pkg/errors"
)

// Keys of a transform description.
const (
	KeyClass             = "__class_fullname__"
	KeyAlwaysApply       = "always_apply"
	KeyP                 = "p"
	KeyID                = "id"
	KeyAdditionalTargets = "additional_targets"
)

// DefaultP is the fire probability of a description that omits "p".
const DefaultP = 0.5

// Spec is the input to a [Factory].
type Spec struct {
	AlwaysApply bool
	P           float64
	Args        map[string]any
}

// Decode decodes the transform-specific arguments into out, which must be a
// pointer to a struct with mapstructure tags. Unknown arguments are an error.
func (s Spec) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build decoder")
	}
	if err := dec.Decode(s.Args); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode arguments")
	}
	return nil
}

// Factory builds a transform from a spec.
type Factory func(Spec) (transform.Transform, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

func init() {
	Register(transform.NoOpName, func(s Spec) (transform.Transform, error) {
		return transform.NewNoOp(s.AlwaysApply, s.P)
	})
}

// Register installs a factory under name. It panics on an empty name, a nil
// factory or a duplicate registration.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		panic("registry: empty transform name")
	}
	if f == nil {
		panic(fmt.Sprintf("registry: nil factory for %q", name))
	}
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("registry: duplicate registration for %q", name))
	}
	factories[name] = f
}

// Names returns the registered names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Sorted(maps.Keys(factories))
}

// Lookup reports whether name is registered.
func Lookup(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[name]
	return ok
}

// New builds the transform registered under name.
func New(name string, s Spec) (transform.Transform, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeTransformNotFound, "unknown transform %q", name)
	}
	if s.Args == nil {
		s.Args = map[string]any{}
	}
	t, err := f(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// ToDict describes t as a plain map: its name, base configuration, ID,
// aliases and constructor arguments.
func ToDict(t transform.Transform) map[string]any {
	b := t.Config()
	d := b.BaseArgs()
	if desc, ok := t.(transform.Describer); ok {
		maps.Copy(d, desc.InitArgs())
	}
	if aliases := b.Aliases(); len(aliases) > 0 {
		at := make(map[string]string, len(aliases))
		for k, v := range aliases {
			at[k] = string(v)
		}
		d[KeyAdditionalTargets] = at
	}
	d[KeyClass] = t.Name()
	d[KeyID] = b.ID()
	return d
}

type header struct {
	Class             string            `mapstructure:"__class_fullname__"`
	AlwaysApply       bool              `mapstructure:"always_apply"`
	P                 *float64          `mapstructure:"p"`
	ID                string            `mapstructure:"id"`
	AdditionalTargets map[string]string `mapstructure:"additional_targets"`
	Args              map[string]any    `mapstructure:",remain"`
}

// FromDict rebuilds a transform from a description produced by [ToDict] or
// written by hand. A present "id" is restored so that replay records made by
// the described instance apply to the rebuilt one.
func FromDict(d map[string]any) (transform.Transform, error) {
	var h header
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &h,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build decoder")
	}
	if err := dec.Decode(d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode transform description")
	}
	if h.Class == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "transform description has no %s", KeyClass)
	}

	p := DefaultP
	if h.P != nil {
		p = *h.P
	}
	t, err := New(h.Class, Spec{AlwaysApply: h.AlwaysApply, P: p, Args: h.Args})
	if err != nil {
		return nil, err
	}

	b := t.Config()
	if h.ID != "" {
		if err := b.RestoreID(h.ID); err != nil {
			return nil, err
		}
	}
	if len(h.AdditionalTargets) > 0 {
		aliases := make(map[string]target.Kind, len(h.AdditionalTargets))
		for k, v := range h.AdditionalTargets {
			aliases[k] = target.Kind(v)
		}
		if err := b.AddTargets(aliases); err != nil {
			return nil, err
		}
	}
	return t, nil
}
