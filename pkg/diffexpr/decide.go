package diffexpr

import (
	"sort"
)

// Thresholds configures the differential call rule.
type Thresholds struct {
	P      float64 // adjusted p-value must be below this
	Effect float64 // |effect| must exceed this
}

// adjustBH applies the Benjamini-Hochberg step-up procedure over one pooled
// p-value slice and returns the adjusted values in input order.
func adjustBH(ps []float64) []float64 {
	n := len(ps)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return ps[idx[a]] < ps[idx[b]] })

	adj := make([]float64, n)
	minSoFar := 1.0
	for rank := n - 1; rank >= 0; rank-- {
		i := idx[rank]
		v := ps[i] * float64(n) / float64(rank+1)
		if v < minSoFar {
			minSoFar = v
		}
		adj[i] = minSoFar
	}
	return adj
}

// Decide binarizes every (gene, contrast) result in place. Correction is
// global: one BH adjustment over the pooled p-values of all contrasts
// simultaneously, then a fixed adjusted-p threshold and a minimum absolute
// effect size.
func Decide(results []ContrastResult, th Thresholds) {
	ps := make([]float64, len(results))
	for i, r := range results {
		ps[i] = r.P
	}
	adj := adjustBH(ps)

	for i := range results {
		results[i].AdjP = adj[i]
		results[i].Call = 0
		if adj[i] < th.P {
			switch {
			case results[i].Effect > th.Effect:
				results[i].Call = 1
			case results[i].Effect < -th.Effect:
				results[i].Call = -1
			}
		}
	}
}

// DifferentialGenes returns the genes whose summed absolute calls across
// all contrasts are non-zero, in first-seen order.
func DifferentialGenes(results []ContrastResult) []string {
	total := make(map[string]int)
	var order []string
	for _, r := range results {
		if _, seen := total[r.GeneID]; !seen {
			order = append(order, r.GeneID)
			total[r.GeneID] = 0
		}
		if r.Call != 0 {
			total[r.GeneID]++
		}
	}
	var out []string
	for _, g := range order {
		if total[g] != 0 {
			out = append(out, g)
		}
	}
	return out
}

// GenesByContrast returns, per contrast name, the deduplicated list of genes
// with a non-zero call in that contrast, in first-seen order.
func GenesByContrast(results []ContrastResult) map[string][]string {
	seen := make(map[string]map[string]bool)
	out := make(map[string][]string)
	for _, r := range results {
		if r.Call == 0 {
			continue
		}
		if seen[r.Contrast] == nil {
			seen[r.Contrast] = make(map[string]bool)
		}
		if seen[r.Contrast][r.GeneID] {
			continue
		}
		seen[r.Contrast][r.GeneID] = true
		out[r.Contrast] = append(out[r.Contrast], r.GeneID)
	}
	return out
}
