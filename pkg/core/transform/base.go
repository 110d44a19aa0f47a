package transform

import (
	"maps"

	"github.com/google/uuid"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/errors"
)

// DefaultSaveKey is the bundle key of the replay container.
const DefaultSaveKey = "replay"

// State is the replay state of a transform.
type State int

const (
	StateNormal State = iota
	StateDeterministic
	StateReplaying
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDeterministic:
		return "deterministic"
	case StateReplaying:
		return "replaying"
	}
	return "normal"
}

// Base carries the configuration every transform shares. Concrete transforms
// embed it and construct it with [NewBase].
//
// P and AlwaysApply are fixed after construction. The mode flags are switched
// by the composition layer and are not synchronized.
type Base struct {
	P           float64
	AlwaysApply bool

	id            uuid.UUID
	aliases       map[string]target.Kind
	deterministic bool
	saveKey       string
	replayMode    bool
}

// NewBase validates p and assigns a fresh instance token.
func NewBase(alwaysApply bool, p float64) (Base, error) {
	if err := errors.ValidateProbability(p); err != nil {
		return Base{}, err
	}
	return Base{
		P:           p,
		AlwaysApply: alwaysApply,
		id:          uuid.New(),
		saveKey:     DefaultSaveKey,
	}, nil
}

// Config returns b. Embedding Base gives a transform this method.
func (b *Base) Config() *Base { return b }

// ID returns the instance token that keys replay records.
func (b *Base) ID() string {
	return b.id.String()
}

// RestoreID sets the instance token, so a transform rebuilt from a saved
// description finds the records of the original.
func (b *Base) RestoreID(id string) error {
	u, err := uuid.Parse(id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid transform id %q", id)
	}
	b.id = u
	return nil
}

// AddTargets replaces the alias table. Each key is routed to the handler of
// its kind, for example {"image2": image, "obj_mask": mask}.
func (b *Base) AddTargets(aliases map[string]target.Kind) error {
	for key, kind := range aliases {
		if err := errors.ValidateDataKey(key); err != nil {
			return err
		}
		if !kind.Valid() {
			return errors.New(errors.ErrCodeInvalidConfig, "alias %s: unknown target kind %q", key, kind)
		}
	}
	b.aliases = maps.Clone(aliases)
	return nil
}

// Aliases returns a copy of the alias table.
func (b *Base) Aliases() map[string]target.Kind {
	return maps.Clone(b.aliases)
}

// Resolve returns the kind key is routed to: its alias if one is registered,
// the key itself otherwise.
func (b *Base) Resolve(key string) target.Kind {
	if kind, ok := b.aliases[key]; ok {
		return kind
	}
	return target.Kind(key)
}

// SetDeterministic switches recording on or off and sets the bundle key
// of the replay container. The reserved key "params" is rejected.
func (b *Base) SetDeterministic(flag bool, saveKey string) error {
	if err := errors.ValidateSaveKey(saveKey); err != nil {
		return err
	}
	b.deterministic = flag
	b.saveKey = saveKey
	return nil
}

// Deterministic reports whether applications are recorded.
func (b *Base) Deterministic() bool { return b.deterministic }

// SaveKey returns the bundle key of the replay container.
func (b *Base) SaveKey() string {
	if b.saveKey == "" {
		return DefaultSaveKey
	}
	return b.saveKey
}

// SetReplayMode switches replay on or off.
func (b *Base) SetReplayMode(flag bool) { b.replayMode = flag }

// ReplayMode reports whether calls replay recorded params.
func (b *Base) ReplayMode() bool { return b.replayMode }

// State returns the current replay state. Replay wins over recording.
func (b *Base) State() State {
	switch {
	case b.replayMode:
		return StateReplaying
	case b.deterministic:
		return StateDeterministic
	}
	return StateNormal
}

// BaseArgs returns the constructor arguments every transform shares.
func (b *Base) BaseArgs() map[string]any {
	return map[string]any{"always_apply": b.AlwaysApply, "p": b.P}
}
