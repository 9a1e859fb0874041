package record

import (
	"time"
)

// SectionType identifies a user-drawn override region.
type SectionType string

const (
	SectionOrderHeader SectionType = "order_header"
	SectionTableHeader SectionType = "table_header"
	SectionTableArea   SectionType = "table_area"
	SectionShapeColumn SectionType = "shape_column"
)

// ValidSectionType reports whether s names a known section.
func ValidSectionType(s SectionType) bool {
	switch s {
	case SectionOrderHeader, SectionTableHeader, SectionTableArea, SectionShapeColumn:
		return true
	default:
		return false
	}
}

// UserSection is a user-drawn rectangle in the coordinate space of
// whatever canvas the review UI rendered. The canvas dimensions are
// stored alongside so the rectangle can be rescaled onto the native
// page image; the two spaces are never assumed equal. A section is
// atomic: saving replaces the whole rectangle, sub-fields never merge.
type UserSection struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	CanvasWidth  int     `json:"canvas_width"`
	CanvasHeight int     `json:"canvas_height"`
	Page         int     `json:"page"`
}

// LineItem is one order line. A line whose Checked flag is set is
// locked: writes touching any other field are rejected until it is
// explicitly unchecked.
type LineItem struct {
	CatalogNumber  string            `json:"catalog_number,omitempty"`
	Diameter       float64           `json:"diameter,omitempty"`
	UnitCount      int               `json:"unit_count,omitempty"`
	Length         float64           `json:"length,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	ShapeImage     string            `json:"shape_image,omitempty"`
	ShapeRibValues map[string]string `json:"shape_rib_values,omitempty"`
	Checked        bool              `json:"checked"`
}

// Clone returns a deep copy of the line item.
func (l *LineItem) Clone() *LineItem {
	out := *l
	if l.ShapeRibValues != nil {
		out.ShapeRibValues = make(map[string]string, len(l.ShapeRibValues))
		for k, v := range l.ShapeRibValues {
			out.ShapeRibValues[k] = v
		}
	}
	return &out
}

// PageLines holds the line items of one page, keyed by line number.
type PageLines struct {
	Lines map[int]*LineItem `json:"lines"`
}

// OrderRecord is the consolidated, authoritative per-order document.
// The order ID is immutable after creation; everything else is mutated
// incrementally by pipeline runs, manual-region saves, OCR passes, and
// user edits. The JSON shape (header fields, page to line to item
// mapping, user sections) is depended upon by external consumers.
type OrderRecord struct {
	OrderID      string                      `json:"order_id"`
	HeaderFields map[string]string           `json:"header_fields"`
	Pages        map[int]*PageLines          `json:"pages"`
	UserSections map[SectionType]UserSection `json:"user_sections,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// NewOrderRecord creates an empty record for the given order.
func NewOrderRecord(orderID string) *OrderRecord {
	now := time.Now().UTC()
	return &OrderRecord{
		OrderID:      orderID,
		HeaderFields: make(map[string]string),
		Pages:        make(map[int]*PageLines),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy of the record. Readers receive clones so a
// snapshot can never observe or cause a half-merged state.
func (r *OrderRecord) Clone() *OrderRecord {
	out := *r
	out.HeaderFields = make(map[string]string, len(r.HeaderFields))
	for k, v := range r.HeaderFields {
		out.HeaderFields[k] = v
	}
	out.Pages = make(map[int]*PageLines, len(r.Pages))
	for p, pl := range r.Pages {
		lines := make(map[int]*LineItem, len(pl.Lines))
		for n, item := range pl.Lines {
			lines[n] = item.Clone()
		}
		out.Pages[p] = &PageLines{Lines: lines}
	}
	if r.UserSections != nil {
		out.UserSections = make(map[SectionType]UserSection, len(r.UserSections))
		for k, v := range r.UserSections {
			out.UserSections[k] = v
		}
	}
	return &out
}

// Line returns the line item at (page, line), ok=false when absent.
func (r *OrderRecord) Line(page, line int) (*LineItem, bool) {
	pl, ok := r.Pages[page]
	if !ok {
		return nil, false
	}
	item, ok := pl.Lines[line]
	return item, ok
}
