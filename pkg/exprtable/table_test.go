package exprtable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumyai/degview/logger"
	"go.uber.org/zap/zapcore"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(zapcore.ErrorLevel); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func writeTable(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "expr.txt")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDeduplicatesByMean(t *testing.T) {
	p := writeTable(t, "GeneID\tT24\tT48\n"+
		"1017\t1,5\t2,0\n"+
		"1017\t2,5\t4,0\n"+
		"4609\t-1,0\t0,5\n"+
		"NA\t9,0\t9,0\n")

	tab, err := Load(p)
	require.NoError(t, err)

	// NA row dropped, duplicate 1017 rows averaged.
	assert.Equal(t, []int{1017, 4609}, tab.GeneIDs)

	v, ok := tab.Value(1017, "T24")
	require.True(t, ok)
	assert.InDelta(t, 2.0, v, 1e-12)

	v, _ = tab.Value(1017, "T48")
	assert.InDelta(t, 3.0, v, 1e-12)

	v, _ = tab.Value(4609, "T24")
	assert.InDelta(t, -1.0, v, 1e-12)
}

func TestColorBound(t *testing.T) {
	p := writeTable(t, "GeneID\tA\tB\n"+
		"1\t-7,2\t5,0\n"+
		"2\t0,1\t3,3\n")

	tab, err := Load(p)
	require.NoError(t, err)

	bound, bins := tab.ColorBound()
	assert.Equal(t, 7, bound)
	assert.Equal(t, 14, bins)
}

func TestLoadMissingColumns(t *testing.T) {
	p := writeTable(t, "GeneID\n1\n")
	_, err := Load(p)
	assert.Error(t, err)
}

func TestColumnUnknownCondition(t *testing.T) {
	p := writeTable(t, "GeneID\tA\n1\t2,0\n")
	tab, err := Load(p)
	require.NoError(t, err)

	_, err = tab.Column("B")
	assert.Error(t, err)

	col, err := tab.Column("A")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, col[1], 1e-12)
}
