package grid

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferroscan/ferroscan/internal/geometry"
	"github.com/ferroscan/ferroscan/internal/testutil"
)

func tablePage() (*image.RGBA, geometry.BoundingBox) {
	page := testutil.NewPage(1224, 1580)
	testutil.DrawTable(page, testutil.TableSpec{
		Rect:            image.Rect(100, 100, 900, 500),
		HorizontalLines: []int{140, 300},
		VerticalLines:   []int{150, 500, 850},
	})
	return page, geometry.NewBoundingBox(100, 100, 800, 400, 1224, 1580)
}

func TestRecoverFindsStructuralLines(t *testing.T) {
	page, roi := tablePage()
	r := NewRecoverer(DefaultConfig())

	lines, err := r.Recover(page, roi)
	require.NoError(t, err)

	// Top border, two internal lines, bottom border.
	require.Len(t, lines.Horizontal, 4)
	// Left border, three internal lines, right border.
	require.Len(t, lines.Vertical, 5)

	ys := lines.Ys()
	require.Equal(t, 0, ys[0])
	require.InDelta(t, 40, ys[1], 2)
	require.InDelta(t, 200, ys[2], 2)
	require.InDelta(t, 398, ys[3], 2)

	xs := lines.Xs()
	require.InDelta(t, 50, xs[1], 2)
	require.InDelta(t, 400, xs[2], 2)
	require.InDelta(t, 750, xs[3], 2)
}

func TestRecoverSorted(t *testing.T) {
	page, roi := tablePage()
	lines, err := NewRecoverer(DefaultConfig()).Recover(page, roi)
	require.NoError(t, err)
	for i := 1; i < len(lines.Horizontal); i++ {
		require.Less(t, lines.Horizontal[i-1].Pos, lines.Horizontal[i].Pos)
	}
	for i := 1; i < len(lines.Vertical); i++ {
		require.Less(t, lines.Vertical[i-1].Pos, lines.Vertical[i].Pos)
	}
}

func TestRecoverDeterministic(t *testing.T) {
	page, roi := tablePage()
	r := NewRecoverer(DefaultConfig())

	first, err := r.Recover(page, roi)
	require.NoError(t, err)
	second, err := r.Recover(page, roi)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRecoverSpanThreshold(t *testing.T) {
	page, roi := tablePage()
	// Inject text-like short strokes well below the span threshold.
	testutil.DrawShortStrokes(page, image.Rect(120, 320, 880, 470), 60, 40, 7)

	cfg := DefaultConfig()
	lines, err := NewRecoverer(cfg).Recover(page, roi)
	require.NoError(t, err)

	for _, l := range lines.Horizontal {
		require.GreaterOrEqual(t, float64(l.Span())/float64(roi.Width), cfg.SpanRatio)
	}
	for _, l := range lines.Vertical {
		require.GreaterOrEqual(t, float64(l.Span())/float64(roi.Height), cfg.SpanRatio)
	}
	// Structure count is unchanged by the noise.
	require.Len(t, lines.Horizontal, 4)
	require.Len(t, lines.Vertical, 5)
}

func TestRecoverBlankRegion(t *testing.T) {
	page := testutil.NewPage(800, 600)
	roi := geometry.NewBoundingBox(100, 100, 400, 300, 800, 600)

	lines, err := NewRecoverer(DefaultConfig()).Recover(page, roi)
	require.NoError(t, err)
	require.True(t, lines.Empty())
	require.Empty(t, lines.Horizontal)
	require.Empty(t, lines.Vertical)
}

func TestRecoverInvalidROI(t *testing.T) {
	page := testutil.NewPage(200, 200)
	_, err := NewRecoverer(DefaultConfig()).Recover(page, geometry.BoundingBox{})
	require.Error(t, err)

	_, err = NewRecoverer(DefaultConfig()).Recover(nil, geometry.NewBoundingBox(0, 0, 10, 10, 200, 200))
	require.Error(t, err)
}
