package diffexpr

import (
	"fmt"
	"strings"

	"github.com/yumyai/degview/pkg/microarray"
	"gonum.org/v1/gonum/mat"
)

// Design is the indicator design matrix for a set of grouped samples: one
// column per distinct group, columns ordered by sorted group label.
type Design struct {
	Groups   []string
	Matrix   *mat.Dense
	colIndex map[string]int
}

// GroupColumn returns the sample column indices belonging to one group.
func (d *Design) GroupColumn(group string) ([]int, error) {
	col, ok := d.colIndex[group]
	if !ok {
		return nil, fmt.Errorf("group %q not in design", group)
	}
	rows, _ := d.Matrix.Dims()
	var idx []int
	for r := 0; r < rows; r++ {
		if d.Matrix.At(r, col) == 1 {
			idx = append(idx, r)
		}
	}
	return idx, nil
}

// BuildDesign derives the indicator matrix from order-normalized targets.
func BuildDesign(targets []microarray.Target) *Design {
	groups := microarray.Groups(targets)
	colIndex := make(map[string]int, len(groups))
	for i, g := range groups {
		colIndex[g] = i
	}
	m := mat.NewDense(len(targets), len(groups), nil)
	for r, t := range targets {
		m.Set(r, colIndex[t.Group], 1)
	}
	return &Design{Groups: groups, Matrix: m, colIndex: colIndex}
}

// Contrast names a linear comparison between two groups, read as A-B.
type Contrast struct {
	Name string
	A, B string
}

// ParseContrasts parses comma-separated "GroupA-GroupB" names and checks
// every referenced group against the design.
func ParseContrasts(list string, d *Design) ([]Contrast, error) {
	var out []Contrast
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		parts := strings.Split(name, "-")
		if len(parts) != 2 {
			return nil, fmt.Errorf("contrast %q is not of the form GroupA-GroupB", name)
		}
		a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		for _, g := range []string{a, b} {
			if _, ok := d.colIndex[g]; !ok {
				return nil, fmt.Errorf("contrast %q references group %q which is not in the design (have %v)", name, g, d.Groups)
			}
		}
		out = append(out, Contrast{Name: name, A: a, B: b})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no contrasts configured")
	}
	return out, nil
}
