package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/ferroscan/ferroscan/internal/manual"
	"github.com/ferroscan/ferroscan/internal/rasterize"
	"github.com/ferroscan/ferroscan/internal/record"
	"github.com/ferroscan/ferroscan/internal/testutil"
)

// orderPage draws a complete synthetic order page: an order title line,
// then a marker-outlined table at (100,100)-(900,700) with a header
// row, five body rows, and three columns, with shape drawings in body
// rows 1, 2, and 4. The widest column, x 451..898, is the shape column.
func orderPage() *image.RGBA {
	page := testutil.NewPage(1000, 800)
	testutil.DrawLabel(page, 120, 60, "ORDER 4711")
	testutil.DrawTable(page, testutil.TableSpec{
		Rect:            image.Rect(100, 100, 900, 700),
		HorizontalLines: []int{160, 260, 360, 460, 560},
		VerticalLines:   []int{200, 450},
		Thickness:       3,
		BorderColor:     testutil.Marker,
	})
	testutil.DrawZigzag(page, image.Rect(460, 165, 890, 255))
	testutil.DrawZigzag(page, image.Rect(460, 265, 890, 355))
	testutil.DrawZigzag(page, image.Rect(460, 465, 890, 555))
	return page
}

func newRunner(t *testing.T, cfg Config, opts ...Option) (*Runner, *record.Store) {
	t.Helper()
	store, err := record.Open(t.TempDir())
	require.NoError(t, err)
	r, err := NewRunner(cfg, store, opts...)
	require.NoError(t, err)
	return r, store
}

func TestProcessPageFullDecomposition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArtifactDir = t.TempDir()
	r, store := newRunner(t, cfg)
	require.NoError(t, store.CreateOrder("ORD-7"))

	res, err := r.ProcessPage(context.Background(), "ORD-7", 1, orderPage(), nil)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, "marker", res.Method)

	// Boundary covers the drawn table.
	require.Equal(t, 100, res.Region.Table.Boundary.X)
	require.Equal(t, 100, res.Region.Table.Boundary.Y)
	require.Equal(t, 800, res.Region.Table.Boundary.Width)
	require.Equal(t, 600, res.Region.Table.Boundary.Height)

	// Header/body split at the first interior horizontal line. The
	// stroke occupies rows 160..162, so the merged line sits at 161.
	require.True(t, res.Region.Table.HasHeaderSplit)
	require.Equal(t, 161, res.Region.Table.HeaderSplitY)

	// Widest column wins the shape role.
	require.True(t, res.HasShape)
	require.Equal(t, 451, res.ShapeCol.XStart)
	require.Equal(t, 898, res.ShapeCol.XEnd)

	// Three drawn rows, numbered sequentially past the blank ones.
	require.Len(t, res.Cells, 3)
	for i, c := range res.Cells {
		require.Equal(t, i+1, c.RowNumber)
		require.Equal(t, 1, c.PageNumber)
		require.NotEmpty(t, c.FileRef)
	}

	// Each cell landed in the record with its artifact reference.
	rec, err := store.GetOrder("ORD-7")
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		item, ok := rec.Line(1, i)
		require.True(t, ok, "line %d", i)
		require.Equal(t, res.Cells[i-1].FileRef, item.ShapeImage)
	}
}

func TestProcessPageIdempotentRerun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArtifactDir = t.TempDir()
	r, store := newRunner(t, cfg)
	require.NoError(t, store.CreateOrder("o"))

	page := orderPage()
	first, err := r.ProcessPage(context.Background(), "o", 1, page, nil)
	require.NoError(t, err)
	recBefore, err := store.GetOrder("o")
	require.NoError(t, err)

	second, err := r.ProcessPage(context.Background(), "o", 1, page, nil)
	require.NoError(t, err)
	recAfter, err := store.GetOrder("o")
	require.NoError(t, err)

	// Identical decomposition, and a record untouched by the re-run.
	require.Equal(t, first.Cells, second.Cells)
	require.Equal(t, recBefore.UpdatedAt, recAfter.UpdatedAt)
	require.Equal(t, recBefore.Pages, recAfter.Pages)
}

func TestProcessPageSkewedScan(t *testing.T) {
	// Pages scanned with a slight rotation still decompose into exactly
	// the three drawn rows: grid strokes drifting into the row bands
	// must not turn blank rows into numbered cells.
	for _, deg := range []float64{0.5, 1.0, 1.5, 2.0} {
		t.Run(fmt.Sprintf("%.1fdeg", deg), func(t *testing.T) {
			skewed := imaging.Rotate(orderPage(), deg, color.White)

			r, store := newRunner(t, DefaultConfig())
			require.NoError(t, store.CreateOrder("o"))
			res, err := r.ProcessPage(context.Background(), "o", 1, skewed, nil)
			require.NoError(t, err)
			require.True(t, res.Found)
			require.Len(t, res.Cells, 3)
			for i, c := range res.Cells {
				require.Equal(t, i+1, c.RowNumber)
			}
		})
	}
}

func TestProcessPageNoTable(t *testing.T) {
	r, store := newRunner(t, DefaultConfig())
	require.NoError(t, store.CreateOrder("o"))

	res, err := r.ProcessPage(context.Background(), "o", 1, testutil.NewPage(600, 800), nil)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Empty(t, res.Cells)

	rec, err := store.GetOrder("o")
	require.NoError(t, err)
	require.Empty(t, rec.Pages)
}

func TestProcessPageManualBoundaryOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArtifactDir = t.TempDir()
	r, store := newRunner(t, cfg)
	adapter := manual.NewAdapter(store)

	// The reviewer drew the table area on a half-scale canvas; the
	// saved section must beat the detector.
	require.NoError(t, adapter.SaveSection("o", record.SectionTableArea, manual.Rectangle{
		X: 50, Y: 50, Width: 400, Height: 300,
		CanvasWidth: 500, CanvasHeight: 400, Page: 1,
	}))

	res, err := r.ProcessPage(context.Background(), "o", 1, orderPage(), nil)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, "manual", res.Method)
	require.Equal(t, 100, res.Region.Table.Boundary.X)
	require.Equal(t, 100, res.Region.Table.Boundary.Y)
	require.Equal(t, 800, res.Region.Table.Boundary.Width)
	require.Equal(t, 600, res.Region.Table.Boundary.Height)
}

func TestProcessPageManualShapeColumnOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArtifactDir = t.TempDir()
	r, store := newRunner(t, cfg)
	adapter := manual.NewAdapter(store)

	// Force the middle column (native x 200..450) as the shape column.
	require.NoError(t, adapter.SaveSection("o", record.SectionShapeColumn, manual.Rectangle{
		X: 100, Y: 50, Width: 125, Height: 300,
		CanvasWidth: 500, CanvasHeight: 400, Page: 1,
	}))

	res, err := r.ProcessPage(context.Background(), "o", 1, orderPage(), nil)
	require.NoError(t, err)
	require.True(t, res.HasShape)
	require.Equal(t, -1, res.ShapeCol.Index)
	require.Equal(t, 200, res.ShapeCol.XStart)
	require.Equal(t, 450, res.ShapeCol.XEnd)
	// The middle column carries no drawings.
	require.Empty(t, res.Cells)
}

func TestProcessPageRowLineMap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArtifactDir = t.TempDir()
	r, store := newRunner(t, cfg)
	require.NoError(t, store.CreateOrder("o"))

	// Recognized line numbers bind geometric rows to form lines 4..6.
	rowLine := RowLineMap{1: 4, 2: 5, 3: 6}
	_, err := r.ProcessPage(context.Background(), "o", 1, orderPage(), rowLine)
	require.NoError(t, err)

	rec, err := store.GetOrder("o")
	require.NoError(t, err)
	for _, line := range []int{4, 5, 6} {
		_, ok := rec.Line(1, line)
		require.True(t, ok, "line %d", line)
	}
	_, ok := rec.Line(1, 1)
	require.False(t, ok)
}

func TestProcessPageCancelled(t *testing.T) {
	r, _ := newRunner(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.ProcessPage(ctx, "o", 1, orderPage(), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessOrder(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "page1.png")
	p2 := filepath.Join(dir, "page2.png")
	testutil.SavePNG(t, orderPage(), p1)
	testutil.SavePNG(t, testutil.NewPage(1000, 800), p2)
	src, err := rasterize.NewImageSource(p1, p2)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.ArtifactDir = t.TempDir()
	cfg.Workers = 2
	r, store := newRunner(t, cfg)

	out, err := r.ProcessOrder(context.Background(), "ORD-9", src, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out.RunID)
	require.Equal(t, "ORD-9", out.OrderID)
	require.Len(t, out.Pages, 2)
	require.True(t, out.Pages[0].Found)
	require.False(t, out.Pages[1].Found)
	require.Equal(t, 1, out.PagesWithTable())

	rec, err := store.GetOrder("ORD-9")
	require.NoError(t, err)
	require.Len(t, rec.Pages[1].Lines, 3)
}

func TestProcessOrderCancelled(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "page1.png")
	testutil.SavePNG(t, orderPage(), p1)
	src, err := rasterize.NewImageSource(p1)
	require.NoError(t, err)

	r, _ := newRunner(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.ProcessOrder(ctx, "o", src, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessOrderProgress(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 3)
	for i := range paths {
		paths[i] = filepath.Join(dir, "page"+string(rune('1'+i))+".png")
		testutil.SavePNG(t, testutil.NewPage(400, 300), paths[i])
	}
	src, err := rasterize.NewImageSource(paths...)
	require.NoError(t, err)

	cb := &countingProgress{}
	cfg := DefaultConfig()
	cfg.Workers = 2
	r, _ := newRunner(t, cfg, WithProgress(cb))

	_, err = r.ProcessOrder(context.Background(), "o", src, nil)
	require.NoError(t, err)
	require.Equal(t, 3, cb.started)
	require.Equal(t, 3, cb.progressed)
	require.True(t, cb.completed)
	require.Zero(t, cb.errors)
}

type countingProgress struct {
	started    int
	progressed int
	errors     int
	completed  bool
}

func (c *countingProgress) OnStart(total int)         { c.started = total }
func (c *countingProgress) OnProgress(cur, total int) { c.progressed = cur }
func (c *countingProgress) OnComplete()               { c.completed = true }
func (c *countingProgress) OnError(page int, err error) {
	c.errors++
}

func TestIngestHeader(t *testing.T) {
	r, store := newRunner(t, DefaultConfig())

	require.NoError(t, r.IngestHeader("o", map[string]string{
		"שם לקוח:": "חברת בניין",
		"מס הזמנה": "4711",
	}))

	rec, err := store.GetOrder("o")
	require.NoError(t, err)
	require.Equal(t, "חברת בניין", rec.HeaderFields["customer"])
	require.Equal(t, "4711", rec.HeaderFields["order_number"])
}

func TestRowLineMap(t *testing.T) {
	var m RowLineMap
	require.Equal(t, 3, m.Line(3)) // nil map is the identity
	require.True(t, m.Identity())

	m = RowLineMap{1: 1, 2: 3}
	require.Equal(t, 1, m.Line(1))
	require.Equal(t, 3, m.Line(2))
	require.Equal(t, 7, m.Line(7))
	require.False(t, m.Identity())

	require.True(t, RowLineMap{2: 2}.Identity())
}
