package io

import (
	stderrors "errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/errors"
)

// ImageExtensions are the extensions [ListSamples] picks up.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff"}

// Stem returns path without its extension.
func Stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// SidecarPath returns the annotation file that belongs to imagePath.
func SidecarPath(imagePath string) string {
	return Stem(imagePath) + ".json"
}

// ReadAnnotations decodes a sidecar from r. A nil resolve types only the
// canonical keys.
func ReadAnnotations(r io.Reader, resolve target.Resolver) (target.Bundle, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return target.ParseBundle(raw, resolve)
}

// WriteAnnotations writes every non-image value of b to w as JSON.
func WriteAnnotations(b target.Bundle, w io.Writer) error {
	rest := make(target.Bundle, len(b))
	for k, v := range b {
		if !isImageValue(v) {
			rest[k] = v
		}
	}
	raw, err := target.MarshalBundle(rest)
	if err != nil {
		return err
	}
	_, err = w.Write(append(raw, '\n'))
	return err
}

// ImportSample loads the image at imagePath as "image", its sidecar when
// present, and sibling image files named "<stem>.<key>.png".
func ImportSample(imagePath string, resolve target.Resolver) (target.Bundle, error) {
	img, err := LoadImage(imagePath)
	if err != nil {
		return nil, err
	}

	b := target.Bundle{}
	f, err := os.Open(SidecarPath(imagePath))
	switch {
	case err == nil:
		ann, rerr := ReadAnnotations(f, resolve)
		f.Close()
		if rerr != nil {
			return nil, fmt.Errorf("sidecar of %s: %w", imagePath, rerr)
		}
		b = ann
	case !stderrors.Is(err, fs.ErrNotExist):
		return nil, err
	}
	b[string(target.KindImage)] = img

	if err := importSiblings(Stem(imagePath), b); err != nil {
		return nil, err
	}
	return b, nil
}

func importSiblings(stem string, b target.Bundle) error {
	matches, err := filepath.Glob(globEscape(stem) + ".*.png")
	if err != nil {
		return err
	}
	lists := map[string]map[int]image.Image{}
	for _, m := range matches {
		key := strings.TrimSuffix(strings.TrimPrefix(m, stem+"."), ".png")
		img, err := LoadImage(m)
		if err != nil {
			return err
		}
		if base, idx, ok := listElement(key); ok {
			if lists[base] == nil {
				lists[base] = map[int]image.Image{}
			}
			lists[base][idx] = img
			continue
		}
		b[key] = img
	}
	for key, elems := range lists {
		idx := make([]int, 0, len(elems))
		for i := range elems {
			idx = append(idx, i)
		}
		slices.Sort(idx)
		list := make([]image.Image, len(idx))
		for j, i := range idx {
			list[j] = elems[i]
		}
		b[key] = list
	}
	return nil
}

// ExportSample writes b under dir as name.png plus siblings and a sidecar.
// The sidecar is skipped when b holds only images.
func ExportSample(b target.Bundle, dir, name string) error {
	base := filepath.Join(dir, name)
	for _, key := range b.Keys() {
		switch v := b[key].(type) {
		case image.Image:
			path := base + ".png"
			if key != string(target.KindImage) {
				path = base + "." + key + ".png"
			}
			if err := SaveImage(v, path); err != nil {
				return err
			}
		case []image.Image:
			for i, img := range v {
				if err := SaveImage(img, fmt.Sprintf("%s.%s.%d.png", base, key, i)); err != nil {
					return err
				}
			}
		}
	}

	hasRest := slices.ContainsFunc(b.Keys(), func(k string) bool { return !isImageValue(b[k]) })
	if !hasRest {
		return nil
	}
	f, err := os.Create(base + ".json")
	if err != nil {
		return err
	}
	if err := WriteAnnotations(b, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ListSamples returns the primary images in dir, sorted. Sibling files of
// the form "<stem>.<key>.png" are not samples of their own.
func ListSamples(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "directory %s not found", dir)
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !slices.Contains(ImageExtensions, ext) || strings.Contains(Stem(name), ".") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	slices.Sort(out)
	return out, nil
}

func isImageValue(v any) bool {
	switch v.(type) {
	case image.Image, []image.Image:
		return true
	}
	return false
}

// listElement splits "masks.3" into ("masks", 3).
func listElement(key string) (string, int, bool) {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(key[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return key[:i], n, true
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
