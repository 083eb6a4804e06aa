package microarray

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ExpressionMatrix is the probe-set level summary after normalization:
// one log2 expression value per probe set and sample.
type ExpressionMatrix struct {
	ProbeSets []string
	Samples   []string
	Groups    []string
	Data      *mat.Dense
}

// QCStats carries probe-level diagnostics from the summarization fit,
// consumed by the pseudo-image rendering.
type QCStats struct {
	ProbeSets []string
	Samples   []string
	Raw       *mat.Dense // raw intensities, log2
	Residuals *mat.Dense // median-polish residuals
	Weights   *mat.Dense // 1/(1+|residual|)
}

func median(xs []float64) float64 {
	c := append([]float64(nil), xs...)
	sort.Float64s(c)
	n := len(c)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return c[n/2]
	}
	return (c[n/2-1] + c[n/2]) / 2
}

// backgroundCorrect shifts each array so its minimum sits at 1, keeping all
// intensities strictly positive ahead of the log transform.
func backgroundCorrect(d *mat.Dense) {
	rows, cols := d.Dims()
	for c := 0; c < cols; c++ {
		min := math.Inf(1)
		for r := 0; r < rows; r++ {
			if v := d.At(r, c); v < min {
				min = v
			}
		}
		for r := 0; r < rows; r++ {
			d.Set(r, c, d.At(r, c)-min+1)
		}
	}
}

// quantileNormalize forces every array onto the common distribution of
// rank-wise means. Ties keep their original relative order.
func quantileNormalize(d *mat.Dense) {
	rows, cols := d.Dims()

	type ranked struct {
		row int
		v   float64
	}
	order := make([][]ranked, cols)
	for c := 0; c < cols; c++ {
		col := make([]ranked, rows)
		for r := 0; r < rows; r++ {
			col[r] = ranked{row: r, v: d.At(r, c)}
		}
		sort.SliceStable(col, func(i, j int) bool { return col[i].v < col[j].v })
		order[c] = col
	}

	for rank := 0; rank < rows; rank++ {
		sum := 0.0
		for c := 0; c < cols; c++ {
			sum += order[c][rank].v
		}
		mean := sum / float64(cols)
		for c := 0; c < cols; c++ {
			d.Set(order[c][rank].row, c, mean)
		}
	}
}

// medianPolish fits overall + row + column effects on a probes-by-samples
// block. Returns per-sample summaries (overall + column effect) and the
// residual block.
func medianPolish(block *mat.Dense, iterations int) (summary []float64, resid *mat.Dense) {
	rows, cols := block.Dims()
	resid = mat.DenseCopyOf(block)
	rowEff := make([]float64, rows)
	colEff := make([]float64, cols)
	overall := 0.0

	buf := make([]float64, 0, rows)
	for it := 0; it < iterations; it++ {
		for r := 0; r < rows; r++ {
			buf = buf[:0]
			for c := 0; c < cols; c++ {
				buf = append(buf, resid.At(r, c))
			}
			m := median(buf)
			rowEff[r] += m
			for c := 0; c < cols; c++ {
				resid.Set(r, c, resid.At(r, c)-m)
			}
		}
		mr := median(rowEff)
		overall += mr
		for r := range rowEff {
			rowEff[r] -= mr
		}

		for c := 0; c < cols; c++ {
			buf = buf[:0]
			for r := 0; r < rows; r++ {
				buf = append(buf, resid.At(r, c))
			}
			m := median(buf)
			colEff[c] += m
			for r := 0; r < rows; r++ {
				resid.Set(r, c, resid.At(r, c)-m)
			}
		}
		mc := median(colEff)
		overall += mc
		for c := range colEff {
			colEff[c] -= mc
		}
	}

	summary = make([]float64, cols)
	for c := range summary {
		summary[c] = overall + colEff[c]
	}
	return summary, resid
}

// Normalize runs the background-correct / quantile-normalize / log2 /
// median-polish chain over the raw probe matrix and summarizes each probe
// set into a single expression value per sample.
func Normalize(pm *ProbeMatrix) (*ExpressionMatrix, *QCStats, error) {
	rows, cols := pm.Data.Dims()

	raw := mat.DenseCopyOf(pm.Data)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := raw.At(r, c)
			if v < 1 {
				v = 1
			}
			raw.Set(r, c, math.Log2(v))
		}
	}

	work := mat.DenseCopyOf(pm.Data)
	backgroundCorrect(work)
	quantileNormalize(work)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			work.Set(r, c, math.Log2(work.At(r, c)))
		}
	}

	// Contiguous runs of the same probe set form one summarization block.
	var setIDs []string
	var setStart []int
	for r := 0; r < rows; r++ {
		if r == 0 || pm.ProbeSets[r] != pm.ProbeSets[r-1] {
			setIDs = append(setIDs, pm.ProbeSets[r])
			setStart = append(setStart, r)
		}
	}
	setStart = append(setStart, rows)

	expr := mat.NewDense(len(setIDs), cols, nil)
	residuals := mat.NewDense(rows, cols, nil)
	weights := mat.NewDense(rows, cols, nil)

	for i := range setIDs {
		lo, hi := setStart[i], setStart[i+1]
		block := work.Slice(lo, hi, 0, cols).(*mat.Dense)
		summary, resid := medianPolish(block, 10)
		expr.SetRow(i, summary)
		for r := lo; r < hi; r++ {
			for c := 0; c < cols; c++ {
				rv := resid.At(r-lo, c)
				residuals.Set(r, c, rv)
				weights.Set(r, c, 1/(1+math.Abs(rv)))
			}
		}
	}

	em := &ExpressionMatrix{ProbeSets: setIDs, Samples: pm.Samples, Groups: pm.Groups, Data: expr}
	qc := &QCStats{ProbeSets: pm.ProbeSets, Samples: pm.Samples, Raw: raw, Residuals: residuals, Weights: weights}
	return em, qc, nil
}

// MAValues computes the MA-plot coordinates of one sample column against a
// reference column: A = (x+ref)/2, M = x-ref.
func MAValues(x, ref []float64) (a, m []float64) {
	a = make([]float64, len(x))
	m = make([]float64, len(x))
	for i := range x {
		a[i] = (x[i] + ref[i]) / 2
		m[i] = x[i] - ref[i]
	}
	return a, m
}

// ReferenceColumn builds the pseudo-reference array: the row-wise median
// across all samples.
func ReferenceColumn(d *mat.Dense) []float64 {
	rows, cols := d.Dims()
	ref := make([]float64, rows)
	buf := make([]float64, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			buf[c] = d.At(r, c)
		}
		ref[r] = median(buf)
	}
	return ref
}
