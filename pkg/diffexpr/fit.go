package diffexpr

import (
	"fmt"
	"math"

	"github.com/yumyai/degview/pkg/microarray"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ContrastResult holds the fitted effect and significance of one gene under
// one named comparison. Call is set later by Decide: +1 up, -1 down, 0 not
// differential.
type ContrastResult struct {
	GeneID   string
	Contrast string
	Effect   float64
	P        float64
	AdjP     float64
	Call     int
}

// FitContrasts fits the indicator design against the normalized expression
// matrix by group means and derives per-gene, per-contrast effect sizes and
// two-sided t p-values with the variance pooled across all design groups.
func FitContrasts(em *microarray.ExpressionMatrix, d *Design, contrasts []Contrast) ([]ContrastResult, error) {
	nGenes, nSamples := em.Data.Dims()
	if nSamples != len(em.Samples) {
		return nil, fmt.Errorf("expression matrix has %d columns for %d samples", nSamples, len(em.Samples))
	}

	groupIdx := make(map[string][]int, len(d.Groups))
	for _, g := range d.Groups {
		idx, err := d.GroupColumn(g)
		if err != nil {
			return nil, err
		}
		if len(idx) == 0 {
			return nil, fmt.Errorf("group %q has no samples", g)
		}
		groupIdx[g] = idx
	}

	df := float64(nSamples - len(d.Groups))
	if df <= 0 {
		return nil, fmt.Errorf("no residual degrees of freedom: %d samples, %d groups", nSamples, len(d.Groups))
	}
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	results := make([]ContrastResult, 0, nGenes*len(contrasts))
	row := make([]float64, nSamples)
	for g := 0; g < nGenes; g++ {
		for c := 0; c < nSamples; c++ {
			row[c] = em.Data.At(g, c)
		}

		// Pooled residual variance across every design group.
		means := make(map[string]float64, len(d.Groups))
		ss := 0.0
		for _, grp := range d.Groups {
			idx := groupIdx[grp]
			vals := make([]float64, len(idx))
			for i, c := range idx {
				vals[i] = row[c]
			}
			m := stat.Mean(vals, nil)
			means[grp] = m
			for _, v := range vals {
				ss += (v - m) * (v - m)
			}
		}
		s2 := ss / df

		for _, ct := range contrasts {
			na := float64(len(groupIdx[ct.A]))
			nb := float64(len(groupIdx[ct.B]))
			effect := means[ct.A] - means[ct.B]

			p := 1.0
			se := math.Sqrt(s2 * (1/na + 1/nb))
			if se > 0 {
				tstat := effect / se
				p = 2 * tdist.Survival(math.Abs(tstat))
			}

			results = append(results, ContrastResult{
				GeneID:   em.ProbeSets[g],
				Contrast: ct.Name,
				Effect:   effect,
				P:        p,
			})
		}
	}
	return results, nil
}
