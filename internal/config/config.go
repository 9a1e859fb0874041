// Package config holds the application configuration: file and
// environment loading through viper, defaults, validation, and the
// mapping onto the per-package pipeline configurations.
package config

import (
	"fmt"

	"github.com/ferroscan/ferroscan/internal/boundary"
	"github.com/ferroscan/ferroscan/internal/cells"
	"github.com/ferroscan/ferroscan/internal/grid"
	"github.com/ferroscan/ferroscan/internal/pipeline"
)

const (
	debugLevel = "debug"
	infoLevel  = "info"
	warnLevel  = "warn"
	errorLevel = "error"
)

// Config is the complete application configuration. It covers all
// commands and loads from configuration files, environment variables,
// and command-line flags.
type Config struct {
	// DataDir is the root of the order record store.
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir" json:"data_dir"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Boundary BoundaryConfig `mapstructure:"boundary" yaml:"boundary" json:"boundary"`
	Grid     GridConfig     `mapstructure:"grid" yaml:"grid" json:"grid"`
	Cells    CellsConfig    `mapstructure:"cells" yaml:"cells" json:"cells"`

	// LabelAliasFile and ShapeCatalogFile point to optional YAML
	// overlays for the header alias table and the rib-letter catalog.
	LabelAliasFile   string `mapstructure:"label_alias_file" yaml:"label_alias_file" json:"label_alias_file"`
	ShapeCatalogFile string `mapstructure:"shape_catalog_file" yaml:"shape_catalog_file" json:"shape_catalog_file"`
}

// PipelineConfig contains orchestration settings.
type PipelineConfig struct {
	Workers     int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	ArtifactDir string `mapstructure:"artifact_dir" yaml:"artifact_dir" json:"artifact_dir"`
}

// BoundaryConfig contains table boundary detection settings.
type BoundaryConfig struct {
	MarkerEnabled   bool    `mapstructure:"marker_enabled" yaml:"marker_enabled" json:"marker_enabled"`
	MarkerMinRed    int     `mapstructure:"marker_min_red" yaml:"marker_min_red" json:"marker_min_red"`
	MarkerDominance int     `mapstructure:"marker_dominance" yaml:"marker_dominance" json:"marker_dominance"`
	InkThreshold    int     `mapstructure:"ink_threshold" yaml:"ink_threshold" json:"ink_threshold"`
	StrokeFraction  float64 `mapstructure:"stroke_fraction" yaml:"stroke_fraction" json:"stroke_fraction"`
	MinStrokeLen    int     `mapstructure:"min_stroke_len" yaml:"min_stroke_len" json:"min_stroke_len"`
	MinAreaFraction float64 `mapstructure:"min_area_fraction" yaml:"min_area_fraction" json:"min_area_fraction"`
}

// GridConfig contains grid line recovery settings.
type GridConfig struct {
	SpanRatio       float64 `mapstructure:"span_ratio" yaml:"span_ratio" json:"span_ratio"`
	InkThreshold    int     `mapstructure:"ink_threshold" yaml:"ink_threshold" json:"ink_threshold"`
	MinSegmentLen   int     `mapstructure:"min_segment_len" yaml:"min_segment_len" json:"min_segment_len"`
	GapTolerance    int     `mapstructure:"gap_tolerance" yaml:"gap_tolerance" json:"gap_tolerance"`
	MergeTolerance  int     `mapstructure:"merge_tolerance" yaml:"merge_tolerance" json:"merge_tolerance"`
	DedupeTolerance int     `mapstructure:"dedupe_tolerance" yaml:"dedupe_tolerance" json:"dedupe_tolerance"`
}

// CellsConfig contains shape-cell extraction settings.
type CellsConfig struct {
	VarianceThreshold float64 `mapstructure:"variance_threshold" yaml:"variance_threshold" json:"variance_threshold"`
	InkRatioThreshold float64 `mapstructure:"ink_ratio_threshold" yaml:"ink_ratio_threshold" json:"ink_ratio_threshold"`
	InkThreshold      int     `mapstructure:"ink_threshold" yaml:"ink_threshold" json:"ink_threshold"`
	BandInset         int     `mapstructure:"band_inset" yaml:"band_inset" json:"band_inset"`
	MaxSkewDegrees    float64 `mapstructure:"max_skew_degrees" yaml:"max_skew_degrees" json:"max_skew_degrees"`
	MinRowHeight      int     `mapstructure:"min_row_height" yaml:"min_row_height" json:"min_row_height"`
}

// DefaultConfig returns the application defaults, mirroring the
// per-package DefaultConfig constructors.
func DefaultConfig() Config {
	p := pipeline.DefaultConfig()
	return Config{
		DataDir:  "data",
		LogLevel: infoLevel,
		Pipeline: PipelineConfig{
			Workers: p.Workers,
		},
		Boundary: BoundaryConfig{
			MarkerEnabled:   p.Boundary.MarkerEnabled,
			MarkerMinRed:    int(p.Boundary.MarkerMinRed),
			MarkerDominance: int(p.Boundary.MarkerDominance),
			InkThreshold:    int(p.Boundary.InkThreshold),
			StrokeFraction:  p.Boundary.StrokeFraction,
			MinStrokeLen:    p.Boundary.MinStrokeLen,
			MinAreaFraction: p.Boundary.MinAreaFraction,
		},
		Grid: GridConfig{
			SpanRatio:       p.Grid.SpanRatio,
			InkThreshold:    int(p.Grid.InkThreshold),
			MinSegmentLen:   p.Grid.MinSegmentLen,
			GapTolerance:    p.Grid.GapTolerance,
			MergeTolerance:  p.Grid.MergeTolerance,
			DedupeTolerance: p.Grid.DedupeTolerance,
		},
		Cells: CellsConfig{
			VarianceThreshold: p.Cells.VarianceThreshold,
			InkRatioThreshold: p.Cells.InkRatioThreshold,
			InkThreshold:      int(p.Cells.InkThreshold),
			BandInset:         p.Cells.BandInset,
			MaxSkewDegrees:    p.Cells.MaxSkewDegrees,
			MinRowHeight:      p.Cells.MinRowHeight,
		},
	}
}

// PipelineRunnerConfig maps the application configuration onto the
// pipeline runner configuration.
func (c *Config) PipelineRunnerConfig() pipeline.Config {
	return pipeline.Config{
		Boundary: boundary.Config{
			MarkerEnabled:   c.Boundary.MarkerEnabled,
			MarkerMinRed:    uint8(c.Boundary.MarkerMinRed),
			MarkerDominance: uint8(c.Boundary.MarkerDominance),
			InkThreshold:    uint8(c.Boundary.InkThreshold),
			StrokeFraction:  c.Boundary.StrokeFraction,
			MinStrokeLen:    c.Boundary.MinStrokeLen,
			MinAreaFraction: c.Boundary.MinAreaFraction,
		},
		Grid: grid.Config{
			SpanRatio:       c.Grid.SpanRatio,
			InkThreshold:    uint8(c.Grid.InkThreshold),
			MinSegmentLen:   c.Grid.MinSegmentLen,
			GapTolerance:    c.Grid.GapTolerance,
			MergeTolerance:  c.Grid.MergeTolerance,
			DedupeTolerance: c.Grid.DedupeTolerance,
		},
		Cells: cells.Config{
			VarianceThreshold: c.Cells.VarianceThreshold,
			InkRatioThreshold: c.Cells.InkRatioThreshold,
			InkThreshold:      uint8(c.Cells.InkThreshold),
			BandInset:         c.Cells.BandInset,
			MaxSkewDegrees:    c.Cells.MaxSkewDegrees,
			MinRowHeight:      c.Cells.MinRowHeight,
		},
		Workers:     c.Pipeline.Workers,
		ArtifactDir: c.Pipeline.ArtifactDir,
	}
}

// Validate checks the configuration for values outside their legal
// ranges.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	switch c.LogLevel {
	case debugLevel, infoLevel, warnLevel, errorLevel:
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("pipeline.workers must not be negative; got %d", c.Pipeline.Workers)
	}
	if err := validateByte("boundary.marker_min_red", c.Boundary.MarkerMinRed); err != nil {
		return err
	}
	if err := validateByte("boundary.marker_dominance", c.Boundary.MarkerDominance); err != nil {
		return err
	}
	if err := validateByte("boundary.ink_threshold", c.Boundary.InkThreshold); err != nil {
		return err
	}
	if c.Boundary.StrokeFraction <= 0 || c.Boundary.StrokeFraction > 1 {
		return fmt.Errorf("boundary.stroke_fraction must be in (0,1]; got %g", c.Boundary.StrokeFraction)
	}
	if c.Boundary.MinAreaFraction <= 0 || c.Boundary.MinAreaFraction >= 1 {
		return fmt.Errorf("boundary.min_area_fraction must be in (0,1); got %g", c.Boundary.MinAreaFraction)
	}
	if c.Grid.SpanRatio <= 0 || c.Grid.SpanRatio > 1 {
		return fmt.Errorf("grid.span_ratio must be in (0,1]; got %g", c.Grid.SpanRatio)
	}
	if err := validateByte("grid.ink_threshold", c.Grid.InkThreshold); err != nil {
		return err
	}
	if err := validateByte("cells.ink_threshold", c.Cells.InkThreshold); err != nil {
		return err
	}
	if c.Cells.VarianceThreshold < 0 || c.Cells.InkRatioThreshold < 0 {
		return fmt.Errorf("cells thresholds must not be negative")
	}
	if c.Cells.BandInset < 0 {
		return fmt.Errorf("cells.band_inset must not be negative; got %d", c.Cells.BandInset)
	}
	if c.Cells.MaxSkewDegrees < 0 || c.Cells.MaxSkewDegrees >= 45 {
		return fmt.Errorf("cells.max_skew_degrees must be in [0,45); got %g", c.Cells.MaxSkewDegrees)
	}
	return nil
}

func validateByte(key string, v int) error {
	if v < 0 || v > 255 {
		return fmt.Errorf("%s must be in [0,255]; got %d", key, v)
	}
	return nil
}
