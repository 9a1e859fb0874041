// Package boundary locates the outer rectangle of an order table within
// a page image. A marker-color pass detects the red outline used by
// convention in this document family; absent a marker, morphological
// line detection infers the largest region bordered by long horizontal
// and vertical strokes. Absence of a table is a normal outcome reported
// through Result.Found, not an error.
package boundary

import (
	"errors"
	"image"

	"github.com/ferroscan/ferroscan/internal/geometry"
)

// Result is the outcome of a boundary detection pass.
type Result struct {
	Box    geometry.BoundingBox
	Found  bool
	Method string // "marker" or "morphology", empty when not found
}

// Detector finds the order table boundary in page images.
type Detector struct {
	cfg Config
}

// NewDetector creates a boundary detector with the given configuration.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect locates the table boundary in the page image. When no
// candidate region covers at least the configured fraction of the page
// area, it returns Found=false; the caller decides whether to fall back
// to manually supplied regions.
func (d *Detector) Detect(img image.Image) (Result, error) {
	if img == nil {
		return Result{}, errors.New("boundary: input image is nil")
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return Result{}, errors.New("boundary: empty image")
	}
	pageArea := w * h

	if d.cfg.MarkerEnabled {
		if box, ok := d.detectMarker(img, pageArea); ok {
			return Result{Box: box, Found: true, Method: "marker"}, nil
		}
	}
	if box, ok := d.detectMorphological(img, pageArea); ok {
		return Result{Box: box, Found: true, Method: "morphology"}, nil
	}
	return Result{}, nil
}

// detectMarker looks for the largest red-outlined region.
func (d *Detector) detectMarker(img image.Image, pageArea int) (geometry.BoundingBox, bool) {
	mask, w, h := markerMask(img, d.cfg.MarkerMinRed, d.cfg.MarkerDominance)
	return d.largestRegion(mask, w, h, pageArea)
}

// detectMorphological isolates long horizontal and vertical strokes and
// takes the axis-aligned bounding rectangle of the largest structure
// they form. Working with bounding rectangles rather than exact
// contours tolerates scans rotated within a small angle.
func (d *Detector) detectMorphological(img image.Image, pageArea int) (geometry.BoundingBox, bool) {
	mask, w, h := inkMask(img, d.cfg.InkThreshold)

	hk := int(d.cfg.StrokeFraction * float64(w))
	if hk < d.cfg.MinStrokeLen {
		hk = d.cfg.MinStrokeLen
	}
	vk := int(d.cfg.StrokeFraction * float64(h))
	if vk < d.cfg.MinStrokeLen {
		vk = d.cfg.MinStrokeLen
	}

	strokes := unionMask(openHorizontal(mask, w, h, hk), openVertical(mask, w, h, vk))
	return d.largestRegion(strokes, w, h, pageArea)
}

// largestRegion reduces a mask to the largest connected component and
// applies the minimum page-area-fraction gate.
func (d *Detector) largestRegion(mask []bool, w, h, pageArea int) (geometry.BoundingBox, bool) {
	comps := connectedComponents(mask, w, h)
	best, ok := largestComponent(comps)
	if !ok {
		return geometry.BoundingBox{}, false
	}
	box := geometry.NewBoundingBox(best.minX, best.minY,
		best.maxX-best.minX+1, best.maxY-best.minY+1, w, h)
	if float64(box.Area()) < d.cfg.MinAreaFraction*float64(pageArea) {
		return geometry.BoundingBox{}, false
	}
	return box, true
}
