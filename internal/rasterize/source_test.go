package rasterize

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferroscan/ferroscan/internal/testutil"
)

func TestImageSourcePages(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "scan1.png")
	p2 := filepath.Join(dir, "scan2.png")
	testutil.SavePNG(t, testutil.NewPage(40, 60), p1)
	testutil.SavePNG(t, testutil.NewPage(80, 20), p2)

	src, err := NewImageSource(p1, p2)
	require.NoError(t, err)
	require.Equal(t, 2, src.PageCount())

	img, err := src.Page(1)
	require.NoError(t, err)
	require.Equal(t, 40, img.Bounds().Dx())

	second, err := src.Page(2)
	require.NoError(t, err)
	require.Equal(t, 80, second.Bounds().Dx())

	// Repeat access hits the decode cache.
	again, err := src.Page(1)
	require.NoError(t, err)
	require.Same(t, img, again)
}

func TestImageSourcePageOutOfRange(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "only.png")
	testutil.SavePNG(t, testutil.NewPage(10, 10), p)

	src, err := NewImageSource(p)
	require.NoError(t, err)

	for _, n := range []int{0, -1, 2} {
		_, err := src.Page(n)
		var pe *PageError
		require.ErrorAs(t, err, &pe)
		require.Equal(t, n, pe.Page)
	}
}

func TestImageSourceMissingFile(t *testing.T) {
	src, err := NewImageSource(filepath.Join(t.TempDir(), "gone.png"))
	require.NoError(t, err)
	_, err = src.Page(1)
	var pe *PageError
	require.ErrorAs(t, err, &pe)
}

func TestNewImageSourceRejectsBadInput(t *testing.T) {
	_, err := NewImageSource()
	require.Error(t, err)

	_, err = NewImageSource("order.pdf")
	require.Error(t, err)

	_, err = NewImageSource("page.png", "notes.txt")
	require.Error(t, err)
}

func TestIsSupportedImage(t *testing.T) {
	require.True(t, IsSupportedImage("a.png"))
	require.True(t, IsSupportedImage("A.JPG"))
	require.True(t, IsSupportedImage("scan.jpeg"))
	require.True(t, IsSupportedImage("scan.bmp"))
	require.False(t, IsSupportedImage("order.pdf"))
	require.False(t, IsSupportedImage("noext"))
}

func TestCollectPageImagesKeepsLargestPerPage(t *testing.T) {
	dir := t.TempDir()
	// Extraction layout: page 1 carries a thumbnail and the full scan.
	testutil.SavePNG(t, testutil.NewPage(20, 20), filepath.Join(dir, "page_1_image_1.png"))
	testutil.SavePNG(t, testutil.NewPage(200, 300), filepath.Join(dir, "page_1_image_2.png"))
	testutil.SavePNG(t, testutil.NewPage(210, 290), filepath.Join(dir, "page_2_image_1.png"))
	// Unrelated files are skipped.
	testutil.SavePNG(t, testutil.NewPage(5, 5), filepath.Join(dir, "logo.png"))

	pages, err := collectPageImages(dir)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, 200, pages[1].Bounds().Dx())
	require.Equal(t, 210, pages[2].Bounds().Dx())
}

func TestParsePageFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"page_1_image_1.png", 1, true},
		{"page_12_image_3.jpg", 12, true},
		{"thumb.png", 0, false},
		{"page_x_image_1.png", 0, false},
		{"page_0_image_1.png", 0, false},
	}
	for _, tt := range tests {
		got, err := parsePageFromFilename(tt.name)
		if tt.ok {
			require.NoError(t, err, tt.name)
			require.Equal(t, tt.want, got, tt.name)
		} else {
			require.Error(t, err, tt.name)
		}
	}
}

func TestOpenPDFMissingFile(t *testing.T) {
	_, err := OpenPDF(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}
