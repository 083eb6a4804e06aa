package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/yumyai/degview/pkg/diffexpr"
	"github.com/yumyai/degview/pkg/enrich"
	"github.com/yumyai/degview/pkg/microarray"
	"github.com/yumyai/degview/pkg/semclust"
)

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write(header)
	for _, r := range rows {
		w.Write(r)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeExpressionMatrix dumps the normalized probe-set matrix.
func writeExpressionMatrix(path string, em *microarray.ExpressionMatrix) error {
	header := append([]string{"ProbeSet"}, em.Samples...)
	_, cols := em.Data.Dims()
	rows := make([][]string, 0, len(em.ProbeSets))
	for i, ps := range em.ProbeSets {
		rec := make([]string, 0, cols+1)
		rec = append(rec, ps)
		for c := 0; c < cols; c++ {
			rec = append(rec, ff(em.Data.At(i, c)))
		}
		rows = append(rows, rec)
	}
	return writeCSV(path, header, rows)
}

// writeResultsTable dumps the full annotated fit: every gene under every
// contrast with effect, raw and adjusted p, and the call.
func writeResultsTable(path string, results []diffexpr.ContrastResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.GeneID, r.Contrast, ff(r.Effect), ff(r.P), ff(r.AdjP), strconv.Itoa(r.Call),
		})
	}
	return writeCSV(path, []string{"GeneID", "Contrast", "Effect", "P", "AdjP", "Call"}, rows)
}

// writeDEGTables writes the duplicated/deduplicated differential-gene pair:
// one row per non-zero (gene, contrast) call, and the unique gene list.
func writeDEGTables(dupPath, dedupPath string, results []diffexpr.ContrastResult) error {
	var dup [][]string
	for _, r := range results {
		if r.Call == 0 {
			continue
		}
		dup = append(dup, []string{r.GeneID, r.Contrast, strconv.Itoa(r.Call)})
	}
	if err := writeCSV(dupPath, []string{"GeneID", "Contrast", "Call"}, dup); err != nil {
		return err
	}

	var dedup [][]string
	for _, g := range diffexpr.DifferentialGenes(results) {
		dedup = append(dedup, []string{g})
	}
	return writeCSV(dedupPath, []string{"GeneID"}, dedup)
}

// writeEnrichmentTable dumps the terms of one comparison.
func writeEnrichmentTable(path string, terms []enrich.Term) error {
	rows := make([][]string, 0, len(terms))
	for _, t := range terms {
		rows = append(rows, []string{t.ID, t.Description, t.Source, ff(t.P)})
	}
	return writeCSV(path, []string{"TermID", "Description", "Source", "P"}, rows)
}

// writeClusterTable dumps the summarized clusters of one ontology category.
func writeClusterTable(path string, clusters []semclust.Cluster) error {
	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		rows = append(rows, []string{
			c.Label,
			c.Representative.TermID,
			ff(c.MeanX),
			ff(c.MeanY),
			c.MemberIDs,
			strconv.Itoa(c.GroupSize),
		})
	}
	return writeCSV(path,
		[]string{"Label", "Representative", "MeanX", "MeanY", "Members", "Terms"}, rows)
}
