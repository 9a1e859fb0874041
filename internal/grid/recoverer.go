// Package grid recovers the internal horizontal and vertical structure
// lines of a table from a page image region. Detected segments are
// merged into logical lines, filtered by span coverage, and deduped;
// coordinates are relative to the region of interest.
package grid

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ferroscan/ferroscan/internal/geometry"
)

// GridLines holds the recovered structural lines of a table, relative
// to the ROI the recovery ran on. Horizontal lines are sorted ascending
// by y, vertical lines ascending by x. Either sequence may be empty
// when no structure is recoverable; downstream stages skip rather than
// fail in that case.
type GridLines struct {
	Horizontal []geometry.Line `json:"horizontal"`
	Vertical   []geometry.Line `json:"vertical"`
}

// Empty reports whether no lines were recovered in either direction.
func (g GridLines) Empty() bool {
	return len(g.Horizontal) == 0 && len(g.Vertical) == 0
}

// Ys returns the y-coordinates of the horizontal lines.
func (g GridLines) Ys() []int { return geometry.Positions(g.Horizontal) }

// Xs returns the x-coordinates of the vertical lines.
func (g GridLines) Xs() []int { return geometry.Positions(g.Vertical) }

// Recoverer recovers grid lines inside a detected table boundary.
type Recoverer struct {
	cfg Config
}

// NewRecoverer creates a grid recoverer with the given configuration.
func NewRecoverer(cfg Config) *Recoverer {
	return &Recoverer{cfg: cfg}
}

// Recover crops the ROI from the page image and recovers its grid
// lines. Recovery is a pure function of the input pixels: the same
// image and ROI always yield identical lines in identical order.
func (r *Recoverer) Recover(img image.Image, roi geometry.BoundingBox) (GridLines, error) {
	if img == nil {
		return GridLines{}, errors.New("grid: input image is nil")
	}
	if err := roi.Validate(); err != nil {
		return GridLines{}, fmt.Errorf("grid: invalid roi: %w", err)
	}

	crop := imaging.Crop(img, roi.ToRect())
	mask, w, h := binarize(crop, r.cfg.InkThreshold)

	hSegs := r.scanRuns(mask, w, h, geometry.Horizontal)
	vSegs := r.scanRuns(mask, w, h, geometry.Vertical)

	horiz := geometry.DedupeLines(
		geometry.FilterBySpan(
			geometry.MergeCollinear(hSegs, geometry.Horizontal, r.cfg.MergeTolerance),
			w, r.cfg.SpanRatio),
		r.cfg.DedupeTolerance)
	vert := geometry.DedupeLines(
		geometry.FilterBySpan(
			geometry.MergeCollinear(vSegs, geometry.Vertical, r.cfg.MergeTolerance),
			h, r.cfg.SpanRatio),
		r.cfg.DedupeTolerance)

	return GridLines{Horizontal: horiz, Vertical: vert}, nil
}

// binarize converts the crop to grayscale and thresholds it into an ink mask.
func binarize(img image.Image, threshold uint8) ([]bool, int, int) {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	mask := make([]bool, w*h)
	for y := range h {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := range w {
			if row[x*4] < threshold {
				mask[y*w+x] = true
			}
		}
	}
	return mask, w, h
}

// scanRuns extracts straight ink runs along one axis, bridging gaps up
// to the configured tolerance. Each qualifying run becomes one raw
// segment for the merge stage.
func (r *Recoverer) scanRuns(mask []bool, w, h int, orient geometry.Orientation) []geometry.Segment {
	var segs []geometry.Segment
	outer, inner := h, w
	if orient == geometry.Vertical {
		outer, inner = w, h
	}
	at := func(o, i int) bool {
		if orient == geometry.Horizontal {
			return mask[o*w+i]
		}
		return mask[i*w+o]
	}
	emit := func(o, start, end int) {
		if end-start < r.cfg.MinSegmentLen {
			return
		}
		if orient == geometry.Horizontal {
			segs = append(segs, geometry.Segment{X1: start, Y1: o, X2: end, Y2: o})
		} else {
			segs = append(segs, geometry.Segment{X1: o, Y1: start, X2: o, Y2: end})
		}
	}

	for o := range outer {
		runStart := -1
		gap := 0
		lastInk := -1
		for i := range inner {
			if at(o, i) {
				if runStart < 0 {
					runStart = i
				}
				lastInk = i
				gap = 0
				continue
			}
			if runStart < 0 {
				continue
			}
			gap++
			if gap > r.cfg.GapTolerance {
				emit(o, runStart, lastInk+1)
				runStart = -1
				gap = 0
			}
		}
		if runStart >= 0 {
			emit(o, runStart, lastInk+1)
		}
	}
	return segs
}
