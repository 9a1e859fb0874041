package cells

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// SaveCells persists cell crops as PNG files under dir and fills in
// each cell's FileRef. File names are a deterministic function of page
// and row number, so re-running a pipeline overwrites the previous
// artifacts with byte-identical content instead of accumulating
// duplicates.
func SaveCells(dir string, cellList []ShapeCell) error {
	if len(cellList) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("cells: create artifact dir: %w", err)
	}
	for i := range cellList {
		c := &cellList[i]
		name := fmt.Sprintf("page_%03d_row_%02d.png", c.PageNumber, c.RowNumber)
		if err := imaging.Save(c.Image, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("cells: save %s: %w", name, err)
		}
		c.FileRef = name
	}
	return nil
}
