package cells

// Config holds configuration for shape cell extraction.
type Config struct {
	// VarianceThreshold is the minimum pixel intensity variance (on a
	// 0-1 grayscale scale) for a cell crop to count as having content.
	VarianceThreshold float64

	// InkRatioThreshold is the minimum fraction of non-background pixels
	// for a cell crop to count as having content. A cell passes the
	// blankness test when either measure clears its threshold.
	InkRatioThreshold float64

	// InkThreshold is the grayscale value below which a pixel counts as
	// non-background for the ink-ratio measure.
	InkThreshold uint8

	// BandInset shrinks each row band and the column x-range by this
	// many pixels on every side before scoring, so grid strokes on the
	// cell edges do not register as content.
	BandInset int

	// MaxSkewDegrees is the scan rotation tolerated by detection. A
	// grid stroke on a rotated scan drifts away from the recovered line
	// position by up to tan(skew) times half its span, so the blankness
	// score ignores a further margin of that size inside each band.
	MaxSkewDegrees float64

	// MinRowHeight skips row bands shorter than this, which are stroke
	// artifacts rather than table rows.
	MinRowHeight int
}

// DefaultConfig returns default cell extraction configuration.
func DefaultConfig() Config {
	return Config{
		VarianceThreshold: 0.005,
		InkRatioThreshold: 0.01,
		InkThreshold:      160,
		BandInset:         4,
		MaxSkewDegrees:    2.0,
		MinRowHeight:      12,
	}
}
