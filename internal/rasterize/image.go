package rasterize

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
)

// supportedExtensions lists the image formats accepted as page scans.
var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// IsSupportedImage reports whether the path has a supported image
// extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range supportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ImageSource treats a list of image files as document pages, one file
// per page in argument order. Files are decoded lazily on first access
// and cached.
type ImageSource struct {
	paths  []string
	loaded []image.Image
}

// NewImageSource builds a page source over image files. Every path must
// have a supported extension; decoding is deferred until Page.
func NewImageSource(paths ...string) (*ImageSource, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no page images given")
	}
	for _, p := range paths {
		if !IsSupportedImage(p) {
			return nil, fmt.Errorf("unsupported page image format: %s", filepath.Ext(p))
		}
	}
	return &ImageSource{paths: paths, loaded: make([]image.Image, len(paths))}, nil
}

// PageCount returns the number of page files.
func (s *ImageSource) PageCount() int { return len(s.paths) }

// Page decodes and returns page n.
func (s *ImageSource) Page(n int) (image.Image, error) {
	if n < 1 || n > len(s.paths) {
		return nil, &PageError{Page: n, Err: fmt.Errorf("out of range 1..%d", len(s.paths))}
	}
	if img := s.loaded[n-1]; img != nil {
		return img, nil
	}
	img, err := decodeImageFile(s.paths[n-1])
	if err != nil {
		return nil, &PageError{Page: n, Err: err}
	}
	s.loaded[n-1] = img
	return img, nil
}
