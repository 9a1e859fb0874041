// Package segment splits a detected table into header, body, and column
// regions using the recovered grid lines. Missing structure degrades to
// partial results: whatever could be derived stays usable and the rest
// is reported absent.
package segment

import (
	"fmt"

	"github.com/ferroscan/ferroscan/internal/geometry"
	"github.com/ferroscan/ferroscan/internal/grid"
)

// TableRegion describes the segmented table: its outer boundary, the
// recovered grid, and the header/body split. HeaderSplitY is the
// absolute page y-coordinate of the boundary between the in-table
// header row and the body, defined as the second horizontal grid line
// from the top. When fewer than two horizontal lines exist the split is
// absent and the body defaults to everything below the first line, or
// the full boundary if there are no lines at all.
type TableRegion struct {
	Boundary       geometry.BoundingBox `json:"boundary"`
	Grid           grid.GridLines       `json:"grid"`
	HeaderSplitY   int                  `json:"header_row_y"`
	HasHeaderSplit bool                 `json:"has_header_split"`
}

// HeaderRegion returns the in-table header band, ok=false when the
// split is absent.
func (t TableRegion) HeaderRegion() (geometry.BoundingBox, bool) {
	if !t.HasHeaderSplit {
		return geometry.BoundingBox{}, false
	}
	b := t.Boundary
	return geometry.NewBoundingBox(b.X, b.Y, b.Width, t.HeaderSplitY-b.Y, b.SourceWidth, b.SourceHeight), true
}

// BodyRegion returns the table body band below the header split.
func (t TableRegion) BodyRegion() geometry.BoundingBox {
	b := t.Boundary
	top := b.Y
	if t.HasHeaderSplit {
		top = t.HeaderSplitY
	} else if len(t.Grid.Horizontal) > 0 {
		top = b.Y + t.Grid.Horizontal[0].Pos
	}
	return geometry.NewBoundingBox(b.X, top, b.Width, b.Bottom()-top, b.SourceWidth, b.SourceHeight)
}

// RowBandYs returns the absolute y-coordinates delimiting the body row
// bands: the horizontal grid lines framed by the boundary edges.
func (t TableRegion) RowBandYs() []int {
	b := t.Boundary
	ys := make([]int, 0, len(t.Grid.Horizontal)+2)
	ys = append(ys, b.Y)
	for _, l := range t.Grid.Horizontal {
		y := b.Y + l.Pos
		if y-ys[len(ys)-1] > edgeTol && y < b.Bottom()-edgeTol {
			ys = append(ys, y)
		}
	}
	if b.Bottom()-ys[len(ys)-1] > edgeTol {
		ys = append(ys, b.Bottom())
	}
	return ys
}

// ColumnRegion is one table column delimited by two adjacent vertical
// grid lines, in absolute page x-coordinates.
type ColumnRegion struct {
	Index       int    `json:"index"`
	XStart      int    `json:"x_start"`
	XEnd        int    `json:"x_end"`
	Description string `json:"description"`
}

// Width returns the column width in pixels.
func (c ColumnRegion) Width() int { return c.XEnd - c.XStart }

// Result is the segmentation output. Columns may be empty and the
// header split absent; both are partial results, not failures.
type Result struct {
	Table   TableRegion
	Columns []ColumnRegion
}

// Segmenter derives table regions from a boundary and its grid lines.
type Segmenter struct{}

// NewSegmenter creates a region segmenter.
func NewSegmenter() *Segmenter { return &Segmenter{} }

// Segment combines the boundary and grid lines into a TableRegion and
// its column regions. Grid line coordinates are ROI-relative; all
// output coordinates are absolute page pixels.
func (s *Segmenter) Segment(boundary geometry.BoundingBox, lines grid.GridLines) (Result, error) {
	if err := boundary.Validate(); err != nil {
		return Result{}, fmt.Errorf("segment: invalid boundary: %w", err)
	}

	table := TableRegion{Boundary: boundary, Grid: lines}
	if y, ok := headerSplit(boundary, lines); ok {
		table.HeaderSplitY = y
		table.HasHeaderSplit = true
	}

	cols := make([]ColumnRegion, 0)
	xs := lines.Xs()
	for i := 1; i < len(xs); i++ {
		cols = append(cols, ColumnRegion{
			Index:  i - 1,
			XStart: boundary.X + xs[i-1],
			XEnd:   boundary.X + xs[i],
		})
	}
	return Result{Table: table, Columns: cols}, nil
}

// edgeTol absorbs stroke thickness when comparing recovered line
// positions against the boundary edges.
const edgeTol = 4

// headerSplit finds the header/body boundary: the second horizontal
// line counted from the top of the table, where the boundary's top edge
// is the first line whether or not the recoverer reported it as one.
func headerSplit(boundary geometry.BoundingBox, lines grid.GridLines) (int, bool) {
	for _, l := range lines.Horizontal {
		y := boundary.Y + l.Pos
		if y-boundary.Y <= edgeTol {
			continue // the top edge itself
		}
		if y >= boundary.Bottom()-edgeTol {
			break // the bottom edge cannot split header from body
		}
		return y, true
	}
	return 0, false
}

// ShapeColumn identifies the shape-drawing column: the column with the
// widest gap between adjacent vertical grid lines, ties broken by the
// leftmost column. ok=false when there are no columns.
func ShapeColumn(cols []ColumnRegion) (ColumnRegion, bool) {
	if len(cols) == 0 {
		return ColumnRegion{}, false
	}
	best := cols[0]
	for _, c := range cols[1:] {
		if c.Width() > best.Width() {
			best = c
		}
	}
	best.Description = "shape"
	return best, true
}

// OrderTitleRegion returns the area above the table boundary up to the
// top of the page, used for customer and order metadata. This is
// distinct from the in-table header row. ok=false when the boundary
// touches the page top.
func OrderTitleRegion(boundary geometry.BoundingBox) (geometry.BoundingBox, bool) {
	if boundary.Y <= 0 {
		return geometry.BoundingBox{}, false
	}
	return geometry.NewBoundingBox(0, 0, boundary.SourceWidth, boundary.Y,
		boundary.SourceWidth, boundary.SourceHeight), true
}
