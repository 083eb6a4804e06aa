// Package heatmap assembles the cluster-by-comparison p-value matrices that
// feed the final plots. Cells are kept in a sparse per-row map rather than
// by matrix position, so row identity never depends on insertion order.
package heatmap

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Row is one labelled heatmap row: comparison name -> minimum p-value among
// the row's underlying terms for that comparison.
type Row struct {
	Label string
	Cells map[string]float64
}

// Matrix holds the rows of one heatmap. Columns is the fixed comparison
// order used for output.
type Matrix struct {
	Columns []string
	rows    map[string]*Row
	order   []string
}

func New(columns []string) *Matrix {
	return &Matrix{
		Columns: append([]string(nil), columns...),
		rows:    make(map[string]*Row),
	}
}

// Observe records one term p-value for a (row label, comparison) pair,
// keeping the minimum across repeated observations.
func (m *Matrix) Observe(label, comparison string, p float64) {
	r, ok := m.rows[label]
	if !ok {
		r = &Row{Label: label, Cells: make(map[string]float64)}
		m.rows[label] = r
		m.order = append(m.order, label)
	}
	if cur, exists := r.Cells[comparison]; !exists || p < cur {
		r.Cells[comparison] = p
	}
}

// presentKey concatenates the names of a row's present columns, in column
// order. Rows sharing a key appear in the same comparisons.
func (m *Matrix) presentKey(r *Row) string {
	var b strings.Builder
	for _, c := range m.Columns {
		if _, ok := r.Cells[c]; ok {
			b.WriteString(c)
		}
	}
	return b.String()
}

// Rows returns the rows in output order: ascending by the number of
// comparisons a row is present in, then by the concatenation of the present
// column names, then by label for full determinism.
func (m *Matrix) Rows() []*Row {
	out := make([]*Row, 0, len(m.order))
	for _, label := range m.order {
		out = append(out, m.rows[label])
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := len(out[i].Cells), len(out[j].Cells)
		if ni != nj {
			return ni < nj
		}
		ki, kj := m.presentKey(out[i]), m.presentKey(out[j])
		if ki != kj {
			return ki < kj
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Empty reports whether no observation was recorded.
func (m *Matrix) Empty() bool {
	return len(m.rows) == 0
}

// WriteCSV writes the ordered matrix; absent cells stay blank.
func (m *Matrix) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write(append([]string{"Cluster"}, m.Columns...))
	for _, r := range m.Rows() {
		rec := make([]string, 0, len(m.Columns)+1)
		rec = append(rec, r.Label)
		for _, c := range m.Columns {
			if p, ok := r.Cells[c]; ok {
				rec = append(rec, strconv.FormatFloat(p, 'g', -1, 64))
			} else {
				rec = append(rec, "")
			}
		}
		w.Write(rec)
	}
	w.Flush()
	return w.Error()
}
