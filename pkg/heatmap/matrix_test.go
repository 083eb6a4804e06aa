package heatmap

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveKeepsMinimum(t *testing.T) {
	m := New([]string{"t24", "t48"})
	m.Observe("cell cycle", "t24", 0.01)
	m.Observe("cell cycle", "t24", 0.002)
	m.Observe("cell cycle", "t24", 0.5)

	rows := m.Rows()
	require.Len(t, rows, 1)
	assert.InDelta(t, 0.002, rows[0].Cells["t24"], 1e-12)
}

func TestRowOrdering(t *testing.T) {
	m := New([]string{"t24", "t48", "t72"})

	// Present in two comparisons.
	m.Observe("both", "t24", 0.01)
	m.Observe("both", "t48", 0.02)
	// Present in one.
	m.Observe("single", "t48", 0.03)

	rows := m.Rows()
	require.Len(t, rows, 2)

	// The 1-comparison row sorts before the 2-comparison row.
	assert.Equal(t, "single", rows[0].Label)
	assert.Equal(t, "both", rows[1].Label)
}

func TestRowOrderingGroupsByPresentColumns(t *testing.T) {
	m := New([]string{"a", "b"})
	m.Observe("r1", "b", 0.1)
	m.Observe("r2", "a", 0.1)
	m.Observe("r3", "b", 0.2)

	rows := m.Rows()
	require.Len(t, rows, 3)

	// Same present-count rows group lexically by present column names:
	// "a" rows before "b" rows, then by label.
	assert.Equal(t, "r2", rows[0].Label)
	assert.Equal(t, "r1", rows[1].Label)
	assert.Equal(t, "r3", rows[2].Label)
}

func TestWriteCSV(t *testing.T) {
	m := New([]string{"t24", "t48"})
	m.Observe("c1", "t24", 0.01)

	p := filepath.Join(t.TempDir(), "hm.csv")
	require.NoError(t, m.WriteCSV(p))

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Cluster", "t24", "t48"}, records[0])
	assert.Equal(t, []string{"c1", "0.01", ""}, records[1])
}
