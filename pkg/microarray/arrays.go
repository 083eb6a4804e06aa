package microarray

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// ProbeMatrix holds raw probe intensities for every sample of a run. Rows
// are individual probes (grouped by their probe set, in file order), columns
// follow the normalized target order.
type ProbeMatrix struct {
	ProbeSets []string // probe-set identifier of each probe row
	Samples   []string // sample filenames, one per column
	Groups    []string // group label of each column
	Data      *mat.Dense
}

// loadSample reads one probe-intensity file: tab-delimited, header line,
// columns ProbeSet and Intensity.
func loadSample(path string) (sets []string, intensities []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open array file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read array file %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("array file %s has no probe rows", path)
	}
	if len(records[0]) < 2 {
		return nil, nil, fmt.Errorf("array file %s: need ProbeSet and Intensity columns", path)
	}

	for ln, rec := range records[1:] {
		v, perr := strconv.ParseFloat(rec[1], 64)
		if perr != nil {
			return nil, nil, fmt.Errorf("array file %s row %d: bad intensity %q", path, ln+2, rec[1])
		}
		sets = append(sets, rec[0])
		intensities = append(intensities, v)
	}
	return sets, intensities, nil
}

// LoadArrays reads every target's raw file from dir. All files must share
// an identical probe layout (same probe sets in the same order).
func LoadArrays(dir string, targets []Target) (*ProbeMatrix, error) {
	pm := &ProbeMatrix{}
	var data []float64 // column-major scratch, transposed below
	for i, t := range targets {
		sets, intens, err := loadSample(filepath.Join(dir, t.Filename))
		if err != nil {
			return nil, err
		}
		if i == 0 {
			pm.ProbeSets = sets
		} else {
			if len(sets) != len(pm.ProbeSets) {
				return nil, fmt.Errorf("array %s has %d probes, expected %d", t.Filename, len(sets), len(pm.ProbeSets))
			}
			for j := range sets {
				if sets[j] != pm.ProbeSets[j] {
					return nil, fmt.Errorf("array %s probe layout differs at row %d (%s vs %s)",
						t.Filename, j, sets[j], pm.ProbeSets[j])
				}
			}
		}
		pm.Samples = append(pm.Samples, t.Filename)
		pm.Groups = append(pm.Groups, t.Group)
		data = append(data, intens...)
	}

	n := len(pm.ProbeSets)
	pm.Data = mat.NewDense(n, len(pm.Samples), nil)
	for c := range pm.Samples {
		for r := 0; r < n; r++ {
			pm.Data.Set(r, c, data[c*n+r])
		}
	}
	return pm, nil
}
