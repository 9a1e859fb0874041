// Package manual accepts user-drawn rectangles from the review UI as
// an alternative or override input to the automatic boundary and
// segmentation stages. Rectangles arrive in the coordinate space of
// whatever canvas the UI rendered, tagged with that canvas's pixel
// dimensions; conversion to the native page space always goes through
// the stored dimension ratio.
package manual

import (
	"math"

	"github.com/ferroscan/ferroscan/internal/geometry"
	"github.com/ferroscan/ferroscan/internal/record"
)

// Rectangle is a user-drawn region in UI canvas coordinates.
type Rectangle struct {
	X            float64
	Y            float64
	Width        float64
	Height       float64
	CanvasWidth  int
	CanvasHeight int
	Page         int
}

// Validate checks the rectangle for non-positive dimensions and missing
// canvas information.
func (r Rectangle) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return &record.ValidationError{Field: "rectangle", Reason: "non-positive dimensions"}
	}
	if r.CanvasWidth <= 0 || r.CanvasHeight <= 0 {
		return &record.ValidationError{Field: "rectangle", Reason: "missing canvas dimensions"}
	}
	if r.Page <= 0 {
		return &record.ValidationError{Field: "page", Reason: "page number must be positive"}
	}
	return nil
}

// Adapter writes user sections into the record store and resolves
// overrides for the pipeline.
type Adapter struct {
	store *record.Store
}

// NewAdapter creates a manual region adapter backed by the given store.
func NewAdapter(store *record.Store) *Adapter {
	return &Adapter{store: store}
}

// SaveSection stores the rectangle for (order, section), replacing any
// prior value for that pair.
func (a *Adapter) SaveSection(orderID string, section record.SectionType, rect Rectangle) error {
	if err := rect.Validate(); err != nil {
		return err
	}
	return a.store.SaveUserSection(orderID, section, record.UserSection{
		X:            rect.X,
		Y:            rect.Y,
		Width:        rect.Width,
		Height:       rect.Height,
		CanvasWidth:  rect.CanvasWidth,
		CanvasHeight: rect.CanvasHeight,
		Page:         rect.Page,
	})
}

// Override returns the user-drawn region for (order, section, page)
// rescaled into the native pixel space of a page image with the given
// dimensions. ok=false when no override exists for that combination.
// When an override exists it takes priority over whatever the detector
// computed for the same section.
func (a *Adapter) Override(orderID string, section record.SectionType, page, nativeW, nativeH int) (geometry.BoundingBox, bool) {
	sec, ok := a.store.UserSection(orderID, section)
	if !ok || sec.Page != page {
		return geometry.BoundingBox{}, false
	}
	return ToNative(sec, nativeW, nativeH), true
}

// ToNative converts a stored user section from its canvas space to the
// native pixel space of a page image via the dimension ratio. The
// canvas coordinates stay in float space until the final rounding so
// repeated UI rescales do not accumulate truncation error.
func ToNative(sec record.UserSection, nativeW, nativeH int) geometry.BoundingBox {
	sx := float64(nativeW) / float64(sec.CanvasWidth)
	sy := float64(nativeH) / float64(sec.CanvasHeight)
	return geometry.NewBoundingBox(
		int(math.Round(sec.X*sx)),
		int(math.Round(sec.Y*sy)),
		int(math.Round(sec.Width*sx)),
		int(math.Round(sec.Height*sy)),
		nativeW, nativeH)
}
