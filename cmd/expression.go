package cmd

import (
	"github.com/spf13/cobra"
	"github.com/yumyai/degview/logger"
	"github.com/yumyai/degview/pkg/enrich"
	"github.com/yumyai/degview/pkg/pipeline"
	"github.com/yumyai/degview/pkg/semclust"
	"go.uber.org/zap"
)

var expressionCmd = &cobra.Command{
	Use:   "expression",
	Short: "Run the microarray DEG and enrichment pipeline",
	Long: `Loads raw probe intensities per the targets file, normalizes, fits the
configured group contrasts, writes QC and DEG artifacts, then queries the
enrichment service and clusters the enriched GO terms by semantic
similarity. Remote-service failures skip the affected stage instead of
failing the run.

 Sample usage:
 degview expression --targets targets.txt --arrays ./cel \
   --contrasts treated-control,late-control --organism hsapiens`,

	Run: func(cmd *cobra.Command, args []string) {
		targets, _ := cmd.Flags().GetString("targets")
		arrays, _ := cmd.Flags().GetString("arrays")
		outDir, _ := cmd.Flags().GetString("out")
		contrasts, _ := cmd.Flags().GetString("contrasts")
		organism, _ := cmd.Flags().GetString("organism")
		pThreshold, _ := cmd.Flags().GetFloat64("p-value")
		lfc, _ := cmd.Flags().GetFloat64("lfc")
		cutoff, _ := cmd.Flags().GetFloat64("cutoff")
		measure, _ := cmd.Flags().GetString("measure")
		taxon, _ := cmd.Flags().GetString("taxon")

		if targets == "" || arrays == "" || contrasts == "" {
			cmd.Help()
			return
		}

		reduction := semclust.NewClient()
		reduction.Cutoff = cutoff
		reduction.Measure = measure
		reduction.SizeBasis = taxon

		cfg := pipeline.ExpressionConfig{
			TargetsFile:     targets,
			ArrayDir:        arrays,
			OutDir:          outDir,
			Contrasts:       contrasts,
			Organism:        organism,
			PThreshold:      pThreshold,
			EffectThreshold: lfc,
			Enrichment:      enrich.NewClient(organism),
			Reduction:       reduction,
		}

		if err := pipeline.RunExpression(cfg); err != nil {
			logger.Fatal("Expression pipeline failed", zap.Error(err))
		}
	},
}

func init() {
	expressionCmd.Flags().String("targets", "", "whitespace-delimited sample-to-group metadata file")
	expressionCmd.Flags().String("arrays", "", "directory holding the raw probe intensity files")
	expressionCmd.Flags().String("out", defaultOutDir(), "output directory")
	expressionCmd.Flags().String("contrasts", "", "comma-separated GroupA-GroupB contrast names")
	expressionCmd.Flags().String("organism", "hsapiens", "organism for the enrichment query")
	expressionCmd.Flags().Float64("p-value", 0.000005, "adjusted p-value threshold for the differential call")
	expressionCmd.Flags().Float64("lfc", 1, "minimum absolute effect size for the differential call")
	expressionCmd.Flags().Float64("cutoff", 0.7, "semantic similarity cutoff for term reduction")
	expressionCmd.Flags().String("measure", "SIMREL", "semantic distance measure: SIMREL, LIN, RESNIK or JIANG")
	expressionCmd.Flags().String("taxon", "9606", "taxon used for term-size normalization")
	rootCmd.AddCommand(expressionCmd)
}
