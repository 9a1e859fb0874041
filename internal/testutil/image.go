// Package testutil provides synthetic image fixtures for pipeline
// tests: blank pages, ruled tables, cell content, and noise.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"math/rand"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	// Ink is the stroke color used for synthetic table lines.
	Ink = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	// Marker is the red outline color used by the order document family.
	Marker = color.RGBA{R: 220, G: 30, B: 30, A: 255}
)

// NewPage creates a white page image of the given dimensions.
func NewPage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	return img
}

// TableSpec describes a synthetic ruled table to draw onto a page.
type TableSpec struct {
	Rect            image.Rectangle
	HorizontalLines []int // absolute y-coordinates of internal lines
	VerticalLines   []int // absolute x-coordinates of internal lines
	Thickness       int
	BorderColor     color.Color // defaults to Ink
}

// DrawTable draws the table border and its internal grid lines. All
// internal lines span the full table extent, matching the structural
// lines the grid recoverer is expected to keep.
func DrawTable(img *image.RGBA, spec TableSpec) {
	if spec.Thickness < 1 {
		spec.Thickness = 2
	}
	border := spec.BorderColor
	if border == nil {
		border = Ink
	}
	drawRectOutline(img, spec.Rect, border, spec.Thickness)
	for _, y := range spec.HorizontalLines {
		fillRect(img, image.Rect(spec.Rect.Min.X, y, spec.Rect.Max.X, y+spec.Thickness), Ink)
	}
	for _, x := range spec.VerticalLines {
		fillRect(img, image.Rect(x, spec.Rect.Min.Y, x+spec.Thickness, spec.Rect.Max.Y), Ink)
	}
}

// DrawZigzag fills a cell rectangle with a bent-bar style polyline so
// the cell scores as non-blank.
func DrawZigzag(img *image.RGBA, rect image.Rectangle) {
	rect = rect.Inset(rect.Dy() / 5)
	if rect.Empty() {
		return
	}
	segments := 4
	stepX := rect.Dx() / segments
	if stepX < 1 {
		stepX = 1
	}
	x, y := rect.Min.X, rect.Min.Y
	for i := range segments {
		ny := rect.Max.Y
		if i%2 == 1 {
			ny = rect.Min.Y
		}
		drawSegment(img, x, y, x+stepX, ny, Ink, 2)
		x += stepX
		y = ny
	}
}

// DrawShortStrokes scatters short horizontal strokes (text-like noise)
// inside a rectangle. Their span stays below the structural threshold,
// so the grid recoverer must never keep them. Deterministic for a seed.
func DrawShortStrokes(img *image.RGBA, rect image.Rectangle, count, maxLen int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for range count {
		x := rect.Min.X + rng.Intn(max(rect.Dx()-maxLen, 1))
		y := rect.Min.Y + rng.Intn(max(rect.Dy(), 1))
		l := 5 + rng.Intn(maxLen-4)
		fillRect(img, image.Rect(x, y, x+l, y+2), Ink)
	}
}

// DrawLabel renders a single text label at the given baseline position.
func DrawLabel(img *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{Ink},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func drawRectOutline(img *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	fillRect(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thickness), col)
	fillRect(img, image.Rect(rect.Min.X, rect.Max.Y-thickness, rect.Max.X, rect.Max.Y), col)
	fillRect(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thickness, rect.Max.Y), col)
	fillRect(img, image.Rect(rect.Max.X-thickness, rect.Min.Y, rect.Max.X, rect.Max.Y), col)
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.Color) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(img, rect, &image.Uniform{col}, image.Point{}, draw.Src)
}

// drawSegment draws a straight line using a simple Bresenham variant.
func drawSegment(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thickness int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		drawThickPoint(img, x0, y0, col, thickness)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawThickPoint(img *image.RGBA, x, y int, col color.Color, thickness int) {
	r := (thickness - 1) / 2
	for yy := y - r; yy <= y+r; yy++ {
		for xx := x - r; xx <= x+r; xx++ {
			if image.Pt(xx, yy).In(img.Bounds()) {
				img.Set(xx, yy, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
