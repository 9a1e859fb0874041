package geometry

import (
	"fmt"
	"image"
	"math"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// BoundingBox is an axis-aligned rectangle in pixel coordinates of a
// specific source image. SourceWidth/SourceHeight record the dimensions
// of the image the box was computed against, so the box can later be
// rescaled onto an image of a different resolution without guessing.
type BoundingBox struct {
	X            int `json:"x"`
	Y            int `json:"y"`
	Width        int `json:"width"`
	Height       int `json:"height"`
	SourceWidth  int `json:"source_image_width"`
	SourceHeight int `json:"source_image_height"`
}

// NewBoundingBox constructs a box clamped to the given source dimensions.
func NewBoundingBox(x, y, w, h, srcW, srcH int) BoundingBox {
	b := BoundingBox{X: x, Y: y, Width: w, Height: h, SourceWidth: srcW, SourceHeight: srcH}
	return b.Clamp()
}

// Clamp returns a copy of the box confined to its source image bounds.
func (b BoundingBox) Clamp() BoundingBox {
	if b.X < 0 {
		b.Width += b.X
		b.X = 0
	}
	if b.Y < 0 {
		b.Height += b.Y
		b.Y = 0
	}
	if b.SourceWidth > 0 && b.X+b.Width > b.SourceWidth {
		b.Width = b.SourceWidth - b.X
	}
	if b.SourceHeight > 0 && b.Y+b.Height > b.SourceHeight {
		b.Height = b.SourceHeight - b.Y
	}
	if b.Width < 0 {
		b.Width = 0
	}
	if b.Height < 0 {
		b.Height = 0
	}
	return b
}

// Validate reports whether the box satisfies the basic invariants:
// positive dimensions, non-negative origin, and containment within the
// source image.
func (b BoundingBox) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("non-positive dimensions %dx%d", b.Width, b.Height)
	}
	if b.X < 0 || b.Y < 0 {
		return fmt.Errorf("negative origin (%d,%d)", b.X, b.Y)
	}
	if b.SourceWidth <= 0 || b.SourceHeight <= 0 {
		return fmt.Errorf("missing source dimensions %dx%d", b.SourceWidth, b.SourceHeight)
	}
	if b.X+b.Width > b.SourceWidth || b.Y+b.Height > b.SourceHeight {
		return fmt.Errorf("box (%d,%d,%d,%d) exceeds source %dx%d",
			b.X, b.Y, b.Width, b.Height, b.SourceWidth, b.SourceHeight)
	}
	return nil
}

// Area returns the box area in pixels.
func (b BoundingBox) Area() int { return b.Width * b.Height }

// Right returns the exclusive right edge x-coordinate.
func (b BoundingBox) Right() int { return b.X + b.Width }

// Bottom returns the exclusive bottom edge y-coordinate.
func (b BoundingBox) Bottom() int { return b.Y + b.Height }

// ToRect converts the box to an image.Rectangle.
func (b BoundingBox) ToRect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// RescaleTo converts the box into the pixel space of an image with the
// given dimensions. Conversion is done via the ratio of the stored
// source dimensions to the target dimensions; the two spaces are never
// assumed equal. The result is tagged with the target dimensions.
func (b BoundingBox) RescaleTo(targetW, targetH int) (BoundingBox, error) {
	if b.SourceWidth <= 0 || b.SourceHeight <= 0 {
		return BoundingBox{}, fmt.Errorf("cannot rescale box without source dimensions")
	}
	if targetW <= 0 || targetH <= 0 {
		return BoundingBox{}, fmt.Errorf("invalid target dimensions %dx%d", targetW, targetH)
	}
	sx := float64(targetW) / float64(b.SourceWidth)
	sy := float64(targetH) / float64(b.SourceHeight)
	out := BoundingBox{
		X:            int(math.Round(float64(b.X) * sx)),
		Y:            int(math.Round(float64(b.Y) * sy)),
		Width:        int(math.Round(float64(b.Width) * sx)),
		Height:       int(math.Round(float64(b.Height) * sy)),
		SourceWidth:  targetW,
		SourceHeight: targetH,
	}
	return out.Clamp(), nil
}

// FromRect builds a BoundingBox from an image.Rectangle within a source image.
func FromRect(r image.Rectangle, srcW, srcH int) BoundingBox {
	return NewBoundingBox(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), srcW, srcH)
}
