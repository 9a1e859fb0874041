package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without
	// extension).
	ConfigFileName = "ferroscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "FERROSCAN"
)

// Loader loads configuration from files, environment variables, and
// defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so cobra flag
// bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderFrom creates a loader on a dedicated viper instance, which
// keeps tests independent of global state.
func NewLoaderFrom(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads configuration from the search paths and environment,
// applies defaults, and validates the result. A missing config file is
// not an error.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.load("")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFile loads configuration from a specific file path and
// validates the result.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	cfg, err := l.load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) load(configFile string) (*Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/ferroscan")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "ferroscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "ferroscan"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("data_dir", defaults.DataDir)
	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)
	l.v.SetDefault("label_alias_file", defaults.LabelAliasFile)
	l.v.SetDefault("shape_catalog_file", defaults.ShapeCatalogFile)

	l.v.SetDefault("pipeline.workers", defaults.Pipeline.Workers)
	l.v.SetDefault("pipeline.artifact_dir", defaults.Pipeline.ArtifactDir)

	l.v.SetDefault("boundary.marker_enabled", defaults.Boundary.MarkerEnabled)
	l.v.SetDefault("boundary.marker_min_red", defaults.Boundary.MarkerMinRed)
	l.v.SetDefault("boundary.marker_dominance", defaults.Boundary.MarkerDominance)
	l.v.SetDefault("boundary.ink_threshold", defaults.Boundary.InkThreshold)
	l.v.SetDefault("boundary.stroke_fraction", defaults.Boundary.StrokeFraction)
	l.v.SetDefault("boundary.min_stroke_len", defaults.Boundary.MinStrokeLen)
	l.v.SetDefault("boundary.min_area_fraction", defaults.Boundary.MinAreaFraction)

	l.v.SetDefault("grid.span_ratio", defaults.Grid.SpanRatio)
	l.v.SetDefault("grid.ink_threshold", defaults.Grid.InkThreshold)
	l.v.SetDefault("grid.min_segment_len", defaults.Grid.MinSegmentLen)
	l.v.SetDefault("grid.gap_tolerance", defaults.Grid.GapTolerance)
	l.v.SetDefault("grid.merge_tolerance", defaults.Grid.MergeTolerance)
	l.v.SetDefault("grid.dedupe_tolerance", defaults.Grid.DedupeTolerance)

	l.v.SetDefault("cells.variance_threshold", defaults.Cells.VarianceThreshold)
	l.v.SetDefault("cells.ink_ratio_threshold", defaults.Cells.InkRatioThreshold)
	l.v.SetDefault("cells.ink_threshold", defaults.Cells.InkThreshold)
	l.v.SetDefault("cells.band_inset", defaults.Cells.BandInset)
	l.v.SetDefault("cells.max_skew_degrees", defaults.Cells.MaxSkewDegrees)
	l.v.SetDefault("cells.min_row_height", defaults.Cells.MinRowHeight)
}
