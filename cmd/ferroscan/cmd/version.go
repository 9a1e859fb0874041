package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferroscan/ferroscan/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ferroscan %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
