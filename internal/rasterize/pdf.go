package rasterize

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFSource reads page images embedded in a scanned PDF. Scanner
// output stores each page as one full-page raster; when a page carries
// several images, the largest one is taken as the page scan.
type PDFSource struct {
	pages map[int]image.Image
	count int
}

// OpenPDF extracts the page images of a PDF into memory.
func OpenPDF(path string) (*PDFSource, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", path, err)
	}

	tempDir, err := os.MkdirTemp("", "ferroscan-extract-*")
	if err != nil {
		return nil, fmt.Errorf("create extract dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(path, tempDir, nil, nil); err != nil {
		return nil, fmt.Errorf("extract images from %s: %w", path, err)
	}

	pages, err := collectPageImages(tempDir)
	if err != nil {
		return nil, fmt.Errorf("collect extracted images: %w", err)
	}
	return &PDFSource{pages: pages, count: count}, nil
}

// PageCount returns the number of pages in the document, including
// pages with no extractable scan image.
func (s *PDFSource) PageCount() int { return s.count }

// Page returns the scan image of page n.
func (s *PDFSource) Page(n int) (image.Image, error) {
	if n < 1 || n > s.count {
		return nil, &PageError{Page: n, Err: fmt.Errorf("out of range 1..%d", s.count)}
	}
	img, ok := s.pages[n]
	if !ok {
		return nil, &PageError{Page: n, Err: errors.New("no scan image embedded")}
	}
	return img, nil
}

// collectPageImages walks an extraction directory and keeps the largest
// image per page. Filenames follow the extractor convention
// page_<num>_image_<idx>.<ext>.
func collectPageImages(dir string) (map[int]image.Image, error) {
	pages := make(map[int]image.Image)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		pageNum, err := parsePageFromFilename(info.Name())
		if err != nil {
			return nil
		}
		img, err := decodeImageFile(path)
		if err != nil {
			return nil
		}
		if prev, ok := pages[pageNum]; !ok || area(img) > area(prev) {
			pages[pageNum] = img
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	return img, err
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

// parsePageFromFilename reads the page number out of an extracted image
// filename like page_3_image_1.png.
func parsePageFromFilename(filename string) (int, error) {
	if !strings.HasPrefix(filename, "page_") {
		return 0, errors.New("not a page file")
	}
	parts := strings.Split(filename, "_")
	if len(parts) < 2 {
		return 0, errors.New("invalid filename format")
	}
	pageNum, err := strconv.Atoi(parts[1])
	if err != nil || pageNum < 1 {
		return 0, errors.New("invalid page number")
	}
	return pageNum, nil
}
