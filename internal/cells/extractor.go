// Package cells crops per-row shape drawings out of a table's shape
// column. Rows without drawn content are detected via a blankness score
// and skipped without consuming a row number, so the geometric row
// numbering stays aligned with the rows that actually carry a shape.
package cells

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ferroscan/ferroscan/internal/geometry"
	"github.com/ferroscan/ferroscan/internal/segment"
)

// ShapeCell is one cropped shape drawing. RowNumber is 1-based and
// sequential among non-empty cells only; it is a pure function of the
// page pixels, column, and ordered row bands, so reprocessing the same
// page reproduces identical numbering. FileRef is assigned when the
// crop is persisted.
type ShapeCell struct {
	RowNumber  int                  `json:"row_number"`
	PageNumber int                  `json:"page_number"`
	Box        geometry.BoundingBox `json:"bounding_box"`
	FileRef    string               `json:"file_reference,omitempty"`
	Image      image.Image          `json:"-"`
}

// Extractor walks the shape column and crops one image per table row.
type Extractor struct {
	cfg Config
}

// NewExtractor creates a cell extractor with the given configuration.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract crops each row band of the shape column, scores it for
// blankness, and returns the non-blank cells numbered in row order.
// The first and last bands, bounded by the boundary edges rather than
// two internal lines, are included under the same test.
//
// Blankness is judged on a core region inset further than the saved
// crop: on a scan rotated within MaxSkewDegrees the grid strokes drift
// a few pixels into the band, and counting that drift as ink would make
// blank rows consume row numbers. Bands too thin to hold a core region
// are all drift and are skipped.
func (e *Extractor) Extract(img image.Image, table segment.TableRegion, col segment.ColumnRegion, pageNumber int) ([]ShapeCell, error) {
	if img == nil {
		return nil, errors.New("cells: input image is nil")
	}
	if col.Width() <= 0 {
		return nil, fmt.Errorf("cells: empty column [%d,%d]", col.XStart, col.XEnd)
	}

	bandYs := table.RowBandYs()
	srcW := table.Boundary.SourceWidth
	srcH := table.Boundary.SourceHeight

	// A near-horizontal stroke spans at most the boundary width and
	// deviates from its recovered mean by tan(skew) times half that
	// span; likewise vertically.
	tanSkew := math.Tan(e.cfg.MaxSkewDegrees * math.Pi / 180)
	driftY := int(math.Ceil(tanSkew * float64(table.Boundary.Width) / 2))
	driftX := int(math.Ceil(tanSkew * float64(table.Boundary.Height) / 2))

	var out []ShapeCell
	next := 1
	for i := 1; i < len(bandYs); i++ {
		y0, y1 := bandYs[i-1], bandYs[i]
		if y1-y0 < e.cfg.MinRowHeight {
			continue
		}
		box := geometry.NewBoundingBox(
			col.XStart+e.cfg.BandInset,
			y0+e.cfg.BandInset,
			col.Width()-2*e.cfg.BandInset,
			y1-y0-2*e.cfg.BandInset,
			srcW, srcH)
		if box.Width <= 0 || box.Height <= 0 {
			continue
		}
		core := geometry.NewBoundingBox(
			box.X+driftX, box.Y+driftY,
			box.Width-2*driftX, box.Height-2*driftY,
			srcW, srcH)
		if core.Width <= 0 || core.Height <= 0 {
			continue
		}
		if e.Blank(imaging.Crop(img, core.ToRect())) {
			continue
		}
		crop := imaging.Crop(img, box.ToRect())
		out = append(out, ShapeCell{
			RowNumber:  next,
			PageNumber: pageNumber,
			Box:        box,
			Image:      crop,
		})
		next++
	}
	return out, nil
}

// Blank reports whether a crop carries no meaningful content: both its
// intensity variance and its non-background pixel ratio fall below
// their thresholds.
func (e *Extractor) Blank(img image.Image) bool {
	variance, inkRatio := Score(img, e.cfg.InkThreshold)
	return variance < e.cfg.VarianceThreshold && inkRatio < e.cfg.InkRatioThreshold
}

// Score computes the blankness measures of a crop: pixel intensity
// variance on a 0-1 scale and the ratio of pixels darker than the ink
// threshold.
func Score(img image.Image, inkThreshold uint8) (variance, inkRatio float64) {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	n := w * h
	if n == 0 {
		return 0, 0
	}

	var sum, sumSq float64
	ink := 0
	for y := range h {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := range w {
			p := row[x*4]
			v := float64(p) / 255.0
			sum += v
			sumSq += v * v
			if p < inkThreshold {
				ink++
			}
		}
	}
	mean := sum / float64(n)
	variance = sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return variance, float64(ink) / float64(n)
}
