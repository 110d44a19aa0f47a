package pipeline

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/augment/pkg/cache"
	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/transform"
	"github.com/matzehuels/augment/pkg/errors"
)

// Spec is a declarative pipeline.
//
//	schema_version = "v1"
//	p = 1.0
//
//	[[transforms]]
//	name = "geometric.HorizontalFlip"
//	p = 0.5
//
//	[[transforms]]
//	name = "geometric.Resize"
//	always_apply = true
//	args = { height = 256, width = 256 }
type Spec struct {
	SchemaVersion string          `json:"schema_version" toml:"schema_version" yaml:"schema_version" validate:"required,eq=v1"`
	Name          string          `json:"name,omitempty" toml:"name" yaml:"name"`
	P             *float64        `json:"p,omitempty" toml:"p" yaml:"p" validate:"omitempty,gte=0,lte=1"`
	SaveKey       string          `json:"save_key,omitempty" toml:"save_key" yaml:"save_key" validate:"omitempty,ne=params"`
	Transforms    []TransformSpec `json:"transforms" toml:"transforms" yaml:"transforms" validate:"required,min=1,dive"`
}

// TransformSpec declares one stage.
type TransformSpec struct {
	Name        string            `json:"name" toml:"name" yaml:"name" validate:"required"`
	P           *float64          `json:"p,omitempty" toml:"p" yaml:"p" validate:"omitempty,gte=0,lte=1"`
	AlwaysApply bool              `json:"always_apply,omitempty" toml:"always_apply" yaml:"always_apply"`
	Args        map[string]any    `json:"args,omitempty" toml:"args" yaml:"args"`
	Targets     map[string]string `json:"targets,omitempty" toml:"targets" yaml:"targets" validate:"omitempty,dive,keys,required,endkeys,oneof=image mask masks bboxes keypoints"`
}

// Format is a spec file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported spec file %q: use .toml, .yaml or .json", path)
}

// LoadSpec reads and validates a spec file.
func LoadSpec(path string) (*Spec, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "spec file %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSpec, err, "read %s", path)
	}
	return ParseSpec(raw, f)
}

// ParseSpec decodes and validates a spec.
func ParseSpec(raw []byte, f Format) (*Spec, error) {
	var s Spec
	var err error
	switch f {
	case FormatTOML:
		_, err = toml.Decode(string(raw), &s)
	case FormatYAML:
		err = yaml.Unmarshal(raw, &s)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(&s)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported spec format %q", f)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSpec, err, "decode %s spec", f)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that every named transform is
// registered.
func (s *Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if stderrors.As(err, &ve) {
			msgs := make([]string, len(ve))
			for i, fe := range ve {
				msgs[i] = fe.Namespace() + " fails " + fe.Tag()
				if fe.Param() != "" {
					msgs[i] += "=" + fe.Param()
				}
			}
			return errors.New(errors.ErrCodeInvalidSpec, "%s", strings.Join(msgs, "; "))
		}
		return errors.Wrap(errors.ErrCodeInvalidSpec, err, "validate spec")
	}
	for i, ts := range s.Transforms {
		if !registry.Lookup(ts.Name) {
			return errors.New(errors.ErrCodeTransformNotFound, "transforms[%d]: unknown transform %q", i, ts.Name)
		}
		for k := range ts.Args {
			switch k {
			case registry.KeyClass, registry.KeyAlwaysApply, registry.KeyP, registry.KeyID, registry.KeyAdditionalTargets:
				return errors.New(errors.ErrCodeInvalidSpec, "transforms[%d]: %q is not an argument", i, k)
			}
		}
	}
	return nil
}

// Probability returns P or 1 when unset.
func (s *Spec) Probability() float64 {
	if s.P == nil {
		return 1
	}
	return *s.P
}

// Dict returns the registry description of ts.
func (ts TransformSpec) Dict() map[string]any {
	d := make(map[string]any, len(ts.Args)+4)
	maps.Copy(d, ts.Args)
	d[registry.KeyClass] = ts.Name
	d[registry.KeyAlwaysApply] = ts.AlwaysApply
	if ts.P != nil {
		d[registry.KeyP] = *ts.P
	}
	if len(ts.Targets) > 0 {
		d[registry.KeyAdditionalTargets] = ts.Targets
	}
	return d
}

// Build constructs fresh transform instances. Every call yields new IDs.
func (s *Spec) Build() ([]transform.Transform, error) {
	ts := make([]transform.Transform, len(s.Transforms))
	for i, st := range s.Transforms {
		t, err := registry.FromDict(st.Dict())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSpec, err, "transforms[%d] (%s)", i, st.Name)
		}
		ts[i] = t
	}
	return ts, nil
}

// Compose builds a recording pipeline from s.
func (s *Spec) Compose() (*ReplayCompose, error) {
	ts, err := s.Build()
	if err != nil {
		return nil, err
	}
	return NewReplayCompose(ts, s.Probability(), s.SaveKey)
}

// Hash identifies the pipeline s describes. The pipeline name does not take
// part, so renaming a pipeline keeps its cached runs.
func (s *Spec) Hash() (string, error) {
	c := *s
	c.Name = ""
	return cache.HashJSON(c)
}
