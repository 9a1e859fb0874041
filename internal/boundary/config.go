package boundary

// Config holds configuration for table boundary detection.
type Config struct {
	// Marker pass: detect the red outline drawn around the order table
	// in this document family.
	MarkerEnabled   bool  // try the marker-color pass before morphology
	MarkerMinRed    uint8 // minimum red channel value for a marker pixel
	MarkerDominance uint8 // required red excess over green and blue

	// Morphological fallback: infer the largest region bordered by long
	// horizontal and vertical strokes.
	InkThreshold   uint8   // luminance below which a pixel counts as ink
	StrokeFraction float64 // stroke opening kernel as a fraction of the page dimension
	MinStrokeLen   int     // lower bound for the opening kernel in pixels

	// MinAreaFraction gates candidates: a detected region must cover at
	// least this fraction of the page area, preventing false positives
	// on noise.
	MinAreaFraction float64
}

// DefaultConfig returns default boundary detection configuration.
func DefaultConfig() Config {
	return Config{
		MarkerEnabled:   true,
		MarkerMinRed:    150,
		MarkerDominance: 60,
		InkThreshold:    128,
		StrokeFraction:  0.05,
		MinStrokeLen:    15,
		MinAreaFraction: 0.10,
	}
}
