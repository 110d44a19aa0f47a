package io

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/matzehuels/augment/pkg/errors"
	"github.com/matzehuels/augment/pkg/pipeline"
)

// ReadSaved decodes a recorded run from r.
func ReadSaved(r io.Reader) (*pipeline.Saved, error) {
	var s pipeline.Saved
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode saved run")
	}
	if s.SchemaVersion != pipeline.SchemaVersion {
		return nil, errors.New(errors.ErrCodeInvalidInput, "saved run has schema %q, want %q", s.SchemaVersion, pipeline.SchemaVersion)
	}
	return &s, nil
}

// ImportSaved reads a recorded run from path.
func ImportSaved(path string) (*pipeline.Saved, error) {
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "saved run %s not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSaved(f)
}

// WriteSaved encodes s to w as indented JSON.
func WriteSaved(s *pipeline.Saved, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// ExportSaved writes s to path.
func ExportSaved(s *pipeline.Saved, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSaved(s, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
