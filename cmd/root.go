package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const VERSION = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "degview",
	Short: "Microarray differential expression, enrichment and KEGG pathway overlays",
	Long: `degview runs two single-shot analysis pipelines:

  pathway     overlay fold-change values onto KEGG pathway diagrams
  expression  microarray DEG calling, functional enrichment and
              semantic clustering of the enriched terms

Both read plain tab-delimited inputs and write CSV tables plus HTML plot
documents into the output directory.`,
	Version: VERSION,
}

// Execute runs the selected subcommand.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// defaultOutDir honors DEGVIEW_DATA the same way the env-driven data dir
// works elsewhere: unset means ./out.
func defaultOutDir() string {
	if dir := os.Getenv("DEGVIEW_DATA"); dir != "" {
		return dir
	}
	return "./out"
}
