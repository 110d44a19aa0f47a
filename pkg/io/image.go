package io

import (
	stderrors "errors"
	"image"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/augment/pkg/errors"
)

// LoadImage decodes the image at path, applying its EXIF orientation.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "image %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", path)
	}
	return img, nil
}

// SaveImage encodes img by the extension of path, creating parent
// directories.
func SaveImage(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "encode %s", path)
	}
	return nil
}
