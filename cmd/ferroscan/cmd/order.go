package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ferroscan/ferroscan/internal/pipeline"
	"github.com/ferroscan/ferroscan/internal/rasterize"
)

var orderCmd = &cobra.Command{
	Use:   "order <pdf>",
	Short: "Process every page of a scanned order PDF",
	Long: `Extracts the page scans embedded in a PDF and runs the page
decomposition pipeline over all of them with a worker pool. The
consolidated line data lands in the order record under the data
directory; a run summary is printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runOrder,
}

func init() {
	rootCmd.AddCommand(orderCmd)

	orderCmd.Flags().String("order", "", "order ID (default: the PDF file name without extension)")
	orderCmd.Flags().String("artifact-dir", "", "directory for shape-cell crops (empty disables artifacts)")
	orderCmd.Flags().Int("workers", 0, "page worker pool size (0 = one per CPU)")
	orderCmd.Flags().Bool("progress", false, "print page progress to stderr")
}

func runOrder(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	pdfPath := args[0]

	orderID, _ := cmd.Flags().GetString("order")
	if orderID == "" {
		base := filepath.Base(pdfPath)
		orderID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if dir, _ := cmd.Flags().GetString("artifact-dir"); dir != "" {
		cfg.Pipeline.ArtifactDir = dir
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Pipeline.Workers = workers
	}

	src, err := rasterize.OpenPDF(pdfPath)
	if err != nil {
		return err
	}

	var progress pipeline.ProgressCallback
	if show, _ := cmd.Flags().GetBool("progress"); show {
		progress = pipeline.NewConsoleProgress(cmd.ErrOrStderr(), "ferroscan: ")
	}

	runner, _, err := buildRunner(cfg, progress)
	if err != nil {
		return err
	}

	result, err := runner.ProcessOrder(cmd.Context(), orderID, src, nil)
	if err != nil {
		return fmt.Errorf("process order %s: %w", orderID, err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
