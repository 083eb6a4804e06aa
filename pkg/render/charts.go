// Package render draws every plot document of a run as a self-contained
// HTML page. Charts are collected by the pipeline and written here; nothing
// in this package talks to the network or mutates pipeline state.
package render

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/yumyai/degview/pkg/heatmap"
	"github.com/yumyai/degview/pkg/microarray"
)

// PseudoImage lays a per-sample probe vector out as a near-square grid and
// renders it as a heatmap, imitating the chip pseudo-image QC plots.
func PseudoImage(title string, values []float64) *charts.HeatMap {
	side := int(math.Ceil(math.Sqrt(float64(len(values)))))
	if side < 1 {
		side = 1
	}

	min, max := math.Inf(1), math.Inf(-1)
	data := make([]opts.HeatMapData, 0, len(values))
	xs := make([]string, side)
	ys := make([]string, side)
	for i := 0; i < side; i++ {
		xs[i] = fmt.Sprint(i)
		ys[i] = fmt.Sprint(i)
	}
	for i, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		data = append(data, opts.HeatMapData{Value: [3]interface{}{i % side, i / side, v}})
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithVisualMapOpts(opts.VisualMap{Min: float32(min), Max: float32(max)}),
	)
	hm.SetXAxis(xs).AddSeries(title, data)
	hm.SetGlobalOptions(charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys}))
	return hm
}

// MAChart draws an MA plot: average log intensity on X, log ratio on Y.
func MAChart(title string, a, m []float64) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "A"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "M"}),
	)
	data := make([]opts.ScatterData, len(a))
	for i := range a {
		data[i] = opts.ScatterData{Value: []interface{}{a[i], m[i]}, SymbolSize: 3}
	}
	sc.AddSeries(title, data)
	return sc
}

// DendrogramChart renders the sample clustering tree. Merge heights are
// folded into the internal node labels.
func DendrogramChart(root *microarray.DendroNode) *charts.Tree {
	var conv func(n *microarray.DendroNode) *opts.TreeData
	conv = func(n *microarray.DendroNode) *opts.TreeData {
		if n == nil {
			return nil
		}
		if n.Leaf() {
			return &opts.TreeData{Name: n.Name}
		}
		return &opts.TreeData{
			Name:     fmt.Sprintf("h=%.2f", n.Height),
			Children: []*opts.TreeData{conv(n.Left), conv(n.Right)},
		}
	}

	tree := charts.NewTree()
	tree.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Sample dendrogram"}))
	tree.AddSeries("dendrogram", []opts.TreeData{*conv(root)})
	return tree
}

// PValueHeatmap renders one assembled matrix, coloring cells by -log10(p).
func PValueHeatmap(title string, m *heatmap.Matrix) *charts.HeatMap {
	rows := m.Rows()
	labels := make([]string, len(rows))
	maxScore := 0.0
	var data []opts.HeatMapData
	for ri, r := range rows {
		labels[ri] = r.Label
		for ci, c := range m.Columns {
			p, ok := r.Cells[c]
			if !ok {
				continue
			}
			score := -math.Log10(math.Max(p, 1e-300))
			if score > maxScore {
				maxScore = score
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{ci, ri, score}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithVisualMapOpts(opts.VisualMap{Min: 0, Max: float32(maxScore)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: labels}),
	)
	hm.SetXAxis(m.Columns).AddSeries(title, data)
	return hm
}

// WritePage renders the given charts into one flex-layout HTML document.
func WritePage(path string, cs ...components.Charter) error {
	if len(cs) == 0 {
		return fmt.Errorf("no charts to render for %s", path)
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(cs...)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

// WriteChart renders a single chart into its own HTML document.
func WriteChart(path string, c components.Charter) error {
	return WritePage(path, c)
}
