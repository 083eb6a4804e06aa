package exprtable

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/yumyai/degview/logger"
	"go.uber.org/zap"
)

// Table holds one expression value per gene and condition. Gene identifiers
// are numeric (Entrez style) and unique; GeneIDs preserves first-seen input
// order so output is stable across runs.
type Table struct {
	Conditions []string
	GeneIDs    []int
	values     map[int][]float64
}

// Value returns the expression value for a gene under the named condition.
func (t *Table) Value(geneID int, condition string) (float64, bool) {
	row, ok := t.values[geneID]
	if !ok {
		return 0, false
	}
	for i, c := range t.Conditions {
		if c == condition {
			return row[i], true
		}
	}
	return 0, false
}

// Column returns geneID -> value for one condition.
func (t *Table) Column(condition string) (map[int]float64, error) {
	col := -1
	for i, c := range t.Conditions {
		if c == condition {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, fmt.Errorf("no condition column named %q", condition)
	}
	out := make(map[int]float64, len(t.GeneIDs))
	for _, id := range t.GeneIDs {
		out[id] = t.values[id][col]
	}
	return out, nil
}

// ColorBound computes the symmetric color-scale bound for the whole table:
// the maximum absolute value present, rounded to the nearest integer. The
// bin count of the shared scale is 2*bound.
func (t *Table) ColorBound() (bound int, bins int) {
	maxAbs := 0.0
	for _, id := range t.GeneIDs {
		for _, v := range t.values[id] {
			if a := math.Abs(v); a > maxAbs {
				maxAbs = a
			}
		}
	}
	bound = int(math.Round(maxAbs))
	return bound, 2 * bound
}

// parseDecimal accepts both decimal-point and decimal-comma formatting.
func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
}

// Load reads a tab-delimited expression file whose first column holds gene
// identifiers and remaining columns hold one numeric value per condition.
// Rows with an empty or non-numeric identifier are dropped. Duplicate
// identifiers are collapsed into a single row holding the arithmetic mean of
// the duplicates, column by column.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open expression table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read expression table: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("expression table %s has no data rows", path)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("expression table needs an identifier column and at least one condition column, got %d columns", len(header))
	}
	conditions := make([]string, len(header)-1)
	copy(conditions, header[1:])

	sums := make(map[int][]float64)
	counts := make(map[int]int)
	order := make([]int, 0, len(records)-1)
	dropped := 0

	for ln, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("expression table row %d has %d fields, expected %d", ln+2, len(rec), len(header))
		}
		id, idErr := strconv.Atoi(strings.TrimSpace(rec[0]))
		if idErr != nil || strings.TrimSpace(rec[0]) == "" {
			dropped++
			continue
		}
		row := make([]float64, len(conditions))
		for i, cell := range rec[1:] {
			v, vErr := parseDecimal(cell)
			if vErr != nil {
				return nil, fmt.Errorf("expression table row %d, column %q: %w", ln+2, conditions[i], vErr)
			}
			row[i] = v
		}
		if _, seen := sums[id]; !seen {
			sums[id] = make([]float64, len(conditions))
			order = append(order, id)
		}
		for i := range row {
			sums[id][i] += row[i]
		}
		counts[id]++
	}

	if dropped > 0 {
		logger.Warn("Dropped rows with missing or non-numeric gene identifiers",
			zap.Int("rows", dropped), zap.String("file", path))
	}

	values := make(map[int][]float64, len(order))
	for _, id := range order {
		row := sums[id]
		n := float64(counts[id])
		for i := range row {
			row[i] /= n
		}
		values[id] = row
	}

	return &Table{Conditions: conditions, GeneIDs: order, values: values}, nil
}

// WriteCSV writes the deduplicated table, decimal-point formatted.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write(append([]string{"GeneID"}, t.Conditions...))
	for _, id := range t.GeneIDs {
		rec := make([]string, 0, len(t.Conditions)+1)
		rec = append(rec, strconv.Itoa(id))
		for _, v := range t.values[id] {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		w.Write(rec)
	}
	w.Flush()
	return w.Error()
}
