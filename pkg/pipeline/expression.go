package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/yumyai/degview/internal/util"
	"github.com/yumyai/degview/logger"
	"github.com/yumyai/degview/pkg/db"
	"github.com/yumyai/degview/pkg/diffexpr"
	"github.com/yumyai/degview/pkg/enrich"
	"github.com/yumyai/degview/pkg/heatmap"
	"github.com/yumyai/degview/pkg/microarray"
	"github.com/yumyai/degview/pkg/render"
	"github.com/yumyai/degview/pkg/semclust"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Enricher is the remote functional-enrichment call.
type Enricher interface {
	Query(geneLists map[string][]string) ([]enrich.Term, error)
}

// Reducer is the remote semantic-similarity reduction call, made once per
// ontology category.
type Reducer interface {
	Submit(terms []semclust.TermValue) ([]semclust.Point, error)
}

// ExpressionConfig collects the inputs and thresholds of the expression
// pipeline. Enrichment and Reduction default to the live clients.
type ExpressionConfig struct {
	TargetsFile string
	ArrayDir    string
	OutDir      string
	Contrasts   string // comma-separated GroupA-GroupB names
	Organism    string

	PThreshold      float64
	EffectThreshold float64

	Enrichment Enricher
	Reduction  Reducer

	KMeansSeed int64
}

// goCategories maps term sources to the reduction calls made for them.
// KEGG terms skip reduction and feed the pathway heatmap directly.
var goCategories = []string{enrich.SourceBP, enrich.SourceCC, enrich.SourceMF}

// RunExpression executes the whole expression/enrichment pipeline. QC and
// DEG artifacts are written unconditionally; the enrichment and clustering
// stages are optional in the sense that a failed remote call skips them
// without failing the run.
func RunExpression(cfg ExpressionConfig) error {
	if err := util.EnsureDir(cfg.OutDir); err != nil {
		return fmt.Errorf("prepare output dir: %w", err)
	}

	targets, err := microarray.LoadTargets(cfg.TargetsFile)
	if err != nil {
		return err
	}
	logger.Info("Loaded targets",
		zap.Int("samples", len(targets)),
		zap.Strings("groups", microarray.Groups(targets)))

	pm, err := microarray.LoadArrays(cfg.ArrayDir, targets)
	if err != nil {
		return err
	}

	em, qc, err := microarray.Normalize(pm)
	if err != nil {
		return err
	}
	logger.Info("Normalized arrays",
		zap.Int("probesets", len(em.ProbeSets)),
		zap.Int("samples", len(em.Samples)))

	if err := writeQCDocuments(cfg.OutDir, em, qc); err != nil {
		return err
	}
	if err := writeExpressionMatrix(filepath.Join(cfg.OutDir, "normalized_expression.csv"), em); err != nil {
		return err
	}

	design := diffexpr.BuildDesign(targets)
	contrasts, err := diffexpr.ParseContrasts(cfg.Contrasts, design)
	if err != nil {
		return err
	}

	results, err := diffexpr.FitContrasts(em, design, contrasts)
	if err != nil {
		return err
	}
	diffexpr.Decide(results, diffexpr.Thresholds{P: cfg.PThreshold, Effect: cfg.EffectThreshold})

	if err := writeResultsTable(filepath.Join(cfg.OutDir, "results_annotated.csv"), results); err != nil {
		return err
	}
	if err := writeDEGTables(
		filepath.Join(cfg.OutDir, "degs_per_contrast.csv"),
		filepath.Join(cfg.OutDir, "degs_unique.csv"),
		results); err != nil {
		return err
	}

	rdb, err := db.Open(filepath.Join(cfg.OutDir, "results.db"))
	if err != nil {
		return err
	}
	defer rdb.Close()
	if err := rdb.SaveContrastResults(results); err != nil {
		return err
	}

	geneLists := diffexpr.GenesByContrast(results)
	if len(geneLists) == 0 {
		logger.Warn("No differential genes under the configured thresholds, skipping enrichment")
		return nil
	}

	enricher := cfg.Enrichment
	if enricher == nil {
		enricher = enrich.NewClient(cfg.Organism)
	}
	terms, err := enricher.Query(geneLists)
	if err != nil {
		// Not fatal: everything computed so far is already on disk.
		logger.Error("Enrichment query failed, skipping enrichment and clustering", zap.Error(err))
		return nil
	}
	logger.Info("Enrichment query returned", zap.Int("terms", len(terms)))

	if err := rdb.SaveTerms(terms); err != nil {
		return err
	}
	for query, qterms := range termsByQuery(terms) {
		p := filepath.Join(cfg.OutDir, "enrichment_"+sanitize(query)+".csv")
		if err := writeEnrichmentTable(p, qterms); err != nil {
			return err
		}
	}

	comparisons := contrastNames(contrasts)
	reducer := cfg.Reduction
	if reducer == nil {
		reducer = semclust.NewClient()
	}
	seed := cfg.KMeansSeed
	if seed == 0 {
		seed = 1
	}

	var pages []components.Charter
	bySource := enrich.BySource(terms)
	for _, category := range goCategories {
		catTerms := bySource[category]
		if len(catTerms) == 0 {
			continue
		}
		chart, err := reduceCategory(cfg.OutDir, category, catTerms, comparisons, reducer, seed)
		if err != nil {
			// A failed category leaves the other categories untouched.
			logger.Error("Semantic clustering failed for category",
				zap.String("category", category), zap.Error(err))
			continue
		}
		if chart != nil {
			pages = append(pages, chart)
		}
	}

	if keggChart, err := pathwayHeatmap(cfg.OutDir, bySource[enrich.SourceKEGG], comparisons); err != nil {
		return err
	} else if keggChart != nil {
		pages = append(pages, keggChart)
	}

	if len(pages) > 0 {
		if err := render.WritePage(filepath.Join(cfg.OutDir, "heatmaps.html"), pages...); err != nil {
			return err
		}
	}

	logger.Info("Expression pipeline finished", zap.String("out", cfg.OutDir))
	return nil
}

// reduceCategory submits one GO category to the reduction service, clusters
// the embedded terms, and writes the cluster table plus heatmap CSV. The
// returned chart joins the combined heatmap document.
func reduceCategory(outDir, category string, catTerms []enrich.Term, comparisons []string, reducer Reducer, seed int64) (components.Charter, error) {
	points, err := reducer.Submit(distinctTermValues(catTerms))
	if err != nil {
		return nil, err
	}

	clusters := semclust.BuildClusters(points, seed)
	if len(clusters) == 0 {
		logger.Warn("No embedded terms for category", zap.String("category", category))
		return nil, nil
	}

	tag := sanitize(category)
	if err := writeClusterTable(filepath.Join(outDir, "clusters_"+tag+".csv"), clusters); err != nil {
		return nil, err
	}

	// Cluster label per head-propagation group: every term that follows a
	// k-means member contributes its p-values to that member's cluster.
	labelByGroup := make(map[string]string)
	for _, c := range clusters {
		for _, m := range c.Members {
			labelByGroup[m.TermID] = c.Label
		}
	}

	m := heatmap.New(comparisons)
	for _, p := range semclust.PropagateHeads(points) {
		label, ok := labelByGroup[p.Group]
		if !ok {
			continue
		}
		for _, t := range catTerms {
			if t.ID == p.TermID {
				m.Observe(label, t.Query, t.P)
			}
		}
	}

	if err := m.WriteCSV(filepath.Join(outDir, "cluster_heatmap_"+tag+".csv")); err != nil {
		return nil, err
	}
	return render.PValueHeatmap(category, m), nil
}

// pathwayHeatmap builds the KEGG heatmap from raw terms, one row per term
// description, without semantic reduction.
func pathwayHeatmap(outDir string, keggTerms []enrich.Term, comparisons []string) (components.Charter, error) {
	if len(keggTerms) == 0 {
		return nil, nil
	}
	m := heatmap.New(comparisons)
	for _, t := range keggTerms {
		m.Observe(t.Description, t.Query, t.P)
	}
	if err := m.WriteCSV(filepath.Join(outDir, "pathway_heatmap.csv")); err != nil {
		return nil, err
	}
	return render.PValueHeatmap("KEGG pathways", m), nil
}

// writeQCDocuments renders the per-sample pseudo-images and MA plots plus
// the combined QC page and the sample dendrogram.
func writeQCDocuments(outDir string, em *microarray.ExpressionMatrix, qc *microarray.QCStats) error {
	nProbes, _ := qc.Raw.Dims()

	rawRef := microarray.ReferenceColumn(qc.Raw)
	normRef := microarray.ReferenceColumn(em.Data)

	var combined []components.Charter
	for s, sample := range qc.Samples {
		col := func(d *mat.Dense) []float64 {
			v := make([]float64, nProbes)
			mat.Col(v, s, d)
			return v
		}
		raw := col(qc.Raw)
		resid := col(qc.Residuals)
		weights := col(qc.Weights)

		pos := make([]float64, nProbes)
		neg := make([]float64, nProbes)
		sign := make([]float64, nProbes)
		for i, r := range resid {
			switch {
			case r > 0:
				pos[i] = r
				sign[i] = 1
			case r < 0:
				neg[i] = -r
				sign[i] = -1
			}
		}

		categories := []struct {
			name   string
			values []float64
		}{
			{"raw", raw},
			{"weights", weights},
			{"residuals", resid},
			{"residuals_positive", pos},
			{"residuals_negative", neg},
			{"residuals_sign", sign},
		}
		for _, cat := range categories {
			chart := render.PseudoImage(sample+" "+cat.name, cat.values)
			out := filepath.Join(outDir, "qc_"+sanitize(sample)+"_"+cat.name+".html")
			if err := render.WriteChart(out, chart); err != nil {
				return err
			}
			combined = append(combined, chart)
		}

		a, mm := microarray.MAValues(raw, rawRef)
		maRaw := render.MAChart("MA raw "+sample, a, mm)
		if err := render.WriteChart(filepath.Join(outDir, "ma_raw_"+sanitize(sample)+".html"), maRaw); err != nil {
			return err
		}

		normCol := make([]float64, len(em.ProbeSets))
		mat.Col(normCol, s, em.Data)
		a, mm = microarray.MAValues(normCol, normRef)
		maNorm := render.MAChart("MA normalized "+sample, a, mm)
		if err := render.WriteChart(filepath.Join(outDir, "ma_norm_"+sanitize(sample)+".html"), maNorm); err != nil {
			return err
		}
		combined = append(combined, maRaw, maNorm)
	}

	if err := render.WritePage(filepath.Join(outDir, "qc_combined.html"), combined...); err != nil {
		return err
	}

	dendro := microarray.ClusterSamples(em.Data, em.Samples)
	return render.WriteChart(filepath.Join(outDir, "dendrogram.html"), render.DendrogramChart(dendro))
}

// distinctTermValues keeps each term once with its smallest p-value across
// queries, preserving first-seen order for the reduction submission.
func distinctTermValues(terms []enrich.Term) []semclust.TermValue {
	idx := make(map[string]int)
	var out []semclust.TermValue
	for _, t := range terms {
		if i, seen := idx[t.ID]; seen {
			if t.P < out[i].Value {
				out[i].Value = t.P
			}
			continue
		}
		idx[t.ID] = len(out)
		out = append(out, semclust.TermValue{TermID: t.ID, Value: t.P})
	}
	return out
}

func termsByQuery(terms []enrich.Term) map[string][]enrich.Term {
	out := make(map[string][]enrich.Term)
	for _, t := range terms {
		out[t.Query] = append(out[t.Query], t)
	}
	return out
}

func contrastNames(cs []diffexpr.Contrast) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
