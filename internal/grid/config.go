package grid

// Config holds configuration for grid line recovery.
type Config struct {
	// SpanRatio is the minimum fraction of the ROI dimension a line must
	// cover to be kept as a structural grid line. Segments from text and
	// noise are short and must never pass this gate.
	SpanRatio float64

	// InkThreshold is the grayscale value below which a pixel counts as ink.
	InkThreshold uint8

	// MinSegmentLen is the minimum run length (pixels) for a raw segment
	// to be emitted at all, before collinear merging.
	MinSegmentLen int

	// GapTolerance bridges small breaks inside a run, tolerating faint
	// or speckled strokes.
	GapTolerance int

	// MergeTolerance groups segment fragments whose cross-axis positions
	// differ by at most this many pixels into one logical line.
	MergeTolerance int

	// DedupeTolerance merges near-coincident logical lines (e.g. the two
	// edges of a thick stroke) into one at their midpoint.
	DedupeTolerance int
}

// DefaultConfig returns default grid recovery configuration.
func DefaultConfig() Config {
	return Config{
		SpanRatio:       0.95,
		InkThreshold:    128,
		MinSegmentLen:   20,
		GapTolerance:    2,
		MergeTolerance:  3,
		DedupeTolerance: 6,
	}
}
