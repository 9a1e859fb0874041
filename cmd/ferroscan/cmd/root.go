package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ferroscan/ferroscan/internal/catalog"
	"github.com/ferroscan/ferroscan/internal/config"
	"github.com/ferroscan/ferroscan/internal/labels"
	"github.com/ferroscan/ferroscan/internal/pipeline"
	"github.com/ferroscan/ferroscan/internal/record"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ferroscan",
	Short: "Decompose scanned bent-iron order documents into structured records",
	Long: `ferroscan extracts the structure of scanned bent-iron order forms:
it locates the order table on each page, recovers the ruled grid,
splits the table into header, body, and columns, crops the per-row
shape drawings, and consolidates everything into one JSON record per
order.

Examples:
  ferroscan page scan.png --order ORD-1024
  ferroscan order document.pdf --order ORD-1024 --workers 4
  ferroscan version`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/ferroscan, /etc/ferroscan)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("data-dir", "data", "root directory of the order record store")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}

		var logLevel slog.Level
		if globalConfig.Verbose {
			logLevel = slog.LevelDebug
		} else {
			switch globalConfig.LogLevel {
			case "debug":
				logLevel = slog.LevelDebug
			case "warn":
				logLevel = slog.LevelWarn
			case "error":
				logLevel = slog.LevelError
			default:
				logLevel = slog.LevelInfo
			}
		}

		// Logs go to stderr so command output on stdout stays parseable.
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the resolved configuration, including late flag
// bindings.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}
	var cfg config.Config
	if err := configLoader.GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}
	return &cfg
}

// buildRunner assembles the pipeline runner and its record store from
// the configuration: the shape catalog guards rib-value writes and the
// alias table resolves header labels.
func buildRunner(cfg *config.Config, progress pipeline.ProgressCallback) (*pipeline.Runner, *record.Store, error) {
	shapes := catalog.Default()
	if cfg.ShapeCatalogFile != "" {
		var err error
		if shapes, err = catalog.LoadFile(cfg.ShapeCatalogFile); err != nil {
			return nil, nil, err
		}
	}

	aliases := labels.DefaultTable()
	if cfg.LabelAliasFile != "" {
		var err error
		if aliases, err = labels.LoadFile(cfg.LabelAliasFile); err != nil {
			return nil, nil, err
		}
	}

	store, err := record.Open(cfg.DataDir, record.WithRibValidator(shapes.ValidateRibKeys))
	if err != nil {
		return nil, nil, err
	}

	opts := []pipeline.Option{pipeline.WithAliasTable(aliases)}
	if progress != nil {
		opts = append(opts, pipeline.WithProgress(progress))
	}
	runner, err := pipeline.NewRunner(cfg.PipelineRunnerConfig(), store, opts...)
	if err != nil {
		return nil, nil, err
	}
	return runner, store, nil
}
