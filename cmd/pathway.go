package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/yumyai/degview/logger"
	"github.com/yumyai/degview/pkg/pipeline"
	"go.uber.org/zap"
)

var pathwayCmd = &cobra.Command{
	Use:   "pathway",
	Short: "Overlay expression values onto KEGG pathway diagrams",
	Long: `Reads a tab-delimited expression table (decimal commas accepted) and a
pathway identifier list, deduplicates genes by mean, and renders one colored
diagram per pathway identifier and condition column.

 Sample usage:
 degview pathway --expr fold_changes.txt --pathways pathways.txt --out ./out`,

	Run: func(cmd *cobra.Command, args []string) {
		exprFile, _ := cmd.Flags().GetString("expr")
		pathwayFile, _ := cmd.Flags().GetString("pathways")
		outDir, _ := cmd.Flags().GetString("out")
		conditions, _ := cmd.Flags().GetString("conditions")

		if exprFile == "" || pathwayFile == "" {
			cmd.Help()
			return
		}

		cfg := pipeline.PathwayConfig{
			ExpressionFile: exprFile,
			PathwayFile:    pathwayFile,
			OutDir:         outDir,
		}
		if conditions != "" {
			cfg.Conditions = strings.Split(conditions, ",")
		}

		if err := pipeline.RunPathway(cfg); err != nil {
			logger.Fatal("Pathway pipeline failed", zap.Error(err))
		}
	},
}

func init() {
	pathwayCmd.Flags().String("expr", "", "expression table, tab-delimited with a gene identifier column")
	pathwayCmd.Flags().String("pathways", "", "pathway identifier list, one per line")
	pathwayCmd.Flags().String("out", defaultOutDir(), "output directory")
	pathwayCmd.Flags().String("conditions", "", "comma-separated condition columns to render (default all)")
	rootCmd.AddCommand(pathwayCmd)
}
