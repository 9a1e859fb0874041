package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferroscan/ferroscan/internal/rasterize"
)

var pageCmd = &cobra.Command{
	Use:   "page <image> [image...]",
	Short: "Decompose scanned page images into table regions and shape cells",
	Long: `Runs the page decomposition pipeline over one or more scanned page
images. Each file is treated as the next page of the given order, in
argument order. The decomposition result is printed as JSON and the
extracted line data is merged into the order record.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPage,
}

func init() {
	rootCmd.AddCommand(pageCmd)

	pageCmd.Flags().String("order", "", "order ID the pages belong to (required)")
	_ = pageCmd.MarkFlagRequired("order")
	pageCmd.Flags().String("artifact-dir", "", "directory for shape-cell crops (empty disables artifacts)")
	pageCmd.Flags().Int("workers", 0, "page worker pool size (0 = one per CPU)")
}

func runPage(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	orderID, _ := cmd.Flags().GetString("order")
	if dir, _ := cmd.Flags().GetString("artifact-dir"); dir != "" {
		cfg.Pipeline.ArtifactDir = dir
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Pipeline.Workers = workers
	}

	src, err := rasterize.NewImageSource(args...)
	if err != nil {
		return err
	}

	runner, _, err := buildRunner(cfg, nil)
	if err != nil {
		return err
	}

	result, err := runner.ProcessOrder(cmd.Context(), orderID, src, nil)
	if err != nil {
		return fmt.Errorf("process pages: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
