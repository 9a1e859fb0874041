package cells

import (
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferroscan/ferroscan/internal/geometry"
	"github.com/ferroscan/ferroscan/internal/grid"
	"github.com/ferroscan/ferroscan/internal/segment"
	"github.com/ferroscan/ferroscan/internal/testutil"
)

// fixturePage draws a table with five body row bands in the shape
// column and zigzag content in the given band indices (0-based).
func fixturePage(t *testing.T, filled map[int]bool) (*image.RGBA, segment.TableRegion, segment.ColumnRegion) {
	t.Helper()
	page := testutil.NewPage(1000, 800)
	rect := image.Rect(100, 100, 900, 700)
	rowYs := []int{200, 300, 400, 500, 600}
	testutil.DrawTable(page, testutil.TableSpec{
		Rect:            rect,
		HorizontalLines: rowYs,
		VerticalLines:   []int{300},
	})

	bands := append([]int{100}, rowYs...)
	bands = append(bands, 700)
	for i := 0; i+1 < len(bands); i++ {
		if filled[i] {
			testutil.DrawZigzag(page, image.Rect(110, bands[i]+10, 290, bands[i+1]-10))
		}
	}

	boundary := geometry.NewBoundingBox(100, 100, 800, 600, 1000, 800)
	lines := grid.GridLines{}
	for _, y := range rowYs {
		lines.Horizontal = append(lines.Horizontal, geometry.Line{Pos: y - 100, Start: 0, End: 800})
	}
	table := segment.TableRegion{Boundary: boundary, Grid: lines}
	col := segment.ColumnRegion{Index: 0, XStart: 100, XEnd: 300, Description: "shape"}
	return page, table, col
}

func TestExtractSkipsBlankRows(t *testing.T) {
	// Six bands, rows 0, 2, and 5 filled: exactly three cells numbered
	// 1..3 in row order, blank rows consume no number.
	filled := map[int]bool{0: true, 2: true, 5: true}
	page, table, col := fixturePage(t, filled)

	cellList, err := NewExtractor(DefaultConfig()).Extract(page, table, col, 1)
	require.NoError(t, err)
	require.Len(t, cellList, 3)
	for i, c := range cellList {
		require.Equal(t, i+1, c.RowNumber)
		require.Equal(t, 1, c.PageNumber)
		require.NoError(t, c.Box.Validate())
	}
	// First and last bands are edge bands bounded by the boundary frame.
	require.Equal(t, 104, cellList[0].Box.Y)
	require.Equal(t, 604, cellList[2].Box.Y)
}

func TestExtractAllBlank(t *testing.T) {
	page, table, col := fixturePage(t, nil)
	cellList, err := NewExtractor(DefaultConfig()).Extract(page, table, col, 1)
	require.NoError(t, err)
	require.Empty(t, cellList)
}

func TestExtractDeterministic(t *testing.T) {
	page, table, col := fixturePage(t, map[int]bool{1: true, 3: true})
	e := NewExtractor(DefaultConfig())

	first, err := e.Extract(page, table, col, 2)
	require.NoError(t, err)
	second, err := e.Extract(page, table, col, 2)
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].RowNumber, second[i].RowNumber)
		require.Equal(t, first[i].Box, second[i].Box)
	}
}

func TestExtractIgnoresDriftedGridStroke(t *testing.T) {
	// On a slightly rotated scan a grid stroke sits a few pixels inside
	// the row band instead of on its edge. The stroke must not make the
	// blank band below row 0 score as content.
	page, table, col := fixturePage(t, map[int]bool{0: true})
	draw.Draw(page, image.Rect(100, 206, 300, 209), &image.Uniform{testutil.Ink}, image.Point{}, draw.Src)

	cellList, err := NewExtractor(DefaultConfig()).Extract(page, table, col, 1)
	require.NoError(t, err)
	require.Len(t, cellList, 1)
	require.Equal(t, 1, cellList[0].RowNumber)
	require.Equal(t, 104, cellList[0].Box.Y)

	// With no tolerated skew the stroke counts as ink again.
	cfg := DefaultConfig()
	cfg.MaxSkewDegrees = 0
	cellList, err = NewExtractor(cfg).Extract(page, table, col, 1)
	require.NoError(t, err)
	require.Len(t, cellList, 2)
}

func TestExtractEmptyColumn(t *testing.T) {
	page, table, _ := fixturePage(t, nil)
	_, err := NewExtractor(DefaultConfig()).Extract(page, table, segment.ColumnRegion{XStart: 50, XEnd: 50}, 1)
	require.Error(t, err)

	_, err = NewExtractor(DefaultConfig()).Extract(nil, table, segment.ColumnRegion{XStart: 0, XEnd: 10}, 1)
	require.Error(t, err)
}

func TestBlankScore(t *testing.T) {
	blank := testutil.NewPage(100, 80)
	v, ratio := Score(blank, DefaultConfig().InkThreshold)
	require.Less(t, v, 0.001)
	require.Zero(t, ratio)

	drawn := testutil.NewPage(100, 80)
	testutil.DrawZigzag(drawn, drawn.Bounds())
	v, ratio = Score(drawn, DefaultConfig().InkThreshold)
	require.Greater(t, v, DefaultConfig().VarianceThreshold)
	require.Greater(t, ratio, 0.0)
}

func TestSaveCells(t *testing.T) {
	page, table, col := fixturePage(t, map[int]bool{0: true, 4: true})
	cellList, err := NewExtractor(DefaultConfig()).Extract(page, table, col, 3)
	require.NoError(t, err)
	require.Len(t, cellList, 2)

	dir := filepath.Join(t.TempDir(), "cells")
	require.NoError(t, SaveCells(dir, cellList))

	require.Equal(t, "page_003_row_01.png", cellList[0].FileRef)
	require.Equal(t, "page_003_row_02.png", cellList[1].FileRef)
	for _, c := range cellList {
		_, err := os.Stat(filepath.Join(dir, c.FileRef))
		require.NoError(t, err)
	}

	require.NoError(t, SaveCells(dir, nil))
}
