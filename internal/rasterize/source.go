// Package rasterize turns scanned order documents into page images for
// the decomposition pipeline. Two sources are supported: PDFs whose
// pages carry embedded scan images, and loose image files where each
// file is one page.
package rasterize

import (
	"fmt"
	"image"
)

// PageSource yields the page images of one scanned document. Pages are
// numbered from 1.
type PageSource interface {
	PageCount() int
	Page(n int) (image.Image, error)
}

// PageError reports a page that could not be produced.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }
