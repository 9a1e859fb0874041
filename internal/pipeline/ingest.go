package pipeline

import (
	"github.com/ferroscan/ferroscan/internal/cells"
	"github.com/ferroscan/ferroscan/internal/record"
)

// RowLineMap maps geometric row numbers (position of a non-blank cell
// within a page, counted top to bottom) to record line numbers (the
// hand-written line index on the form). The two usually coincide, but a
// crossed-out row or a line numbered out of order breaks the identity;
// recognized line-number text can bind rows explicitly. Unbound rows
// map to themselves.
type RowLineMap map[int]int

// Line returns the record line number for a geometric row.
func (m RowLineMap) Line(row int) int {
	if line, ok := m[row]; ok {
		return line
	}
	return row
}

// Identity reports whether the map changes nothing, meaning every bound
// row maps to itself.
func (m RowLineMap) Identity() bool {
	for row, line := range m {
		if row != line {
			return false
		}
	}
	return true
}

// ingestCells writes the extracted shape cells of one page into the
// order record, binding each cell's artifact reference to its line.
// Upserts are field-level merges, so re-running a page over unchanged
// input leaves the record untouched.
func (r *Runner) ingestCells(orderID string, page int, cellList []cells.ShapeCell, rowLine RowLineMap) error {
	for _, c := range cellList {
		fields := map[string]any{}
		if c.FileRef != "" {
			fields[record.FieldShapeImage] = c.FileRef
		}
		if len(fields) == 0 {
			continue
		}
		line := rowLine.Line(c.RowNumber)
		if err := r.store.UpsertLineItem(orderID, page, line, fields); err != nil {
			return err
		}
	}
	return nil
}

// IngestHeader resolves raw header labels through the alias table and
// merges the resulting fields into the order record, creating the order
// when missing.
func (r *Runner) IngestHeader(orderID string, rawFields map[string]string) error {
	fields := rawFields
	if r.aliases != nil {
		fields = r.aliases.ResolveFields(rawFields)
	}
	return r.store.UpsertHeaderFields(orderID, fields, true)
}
