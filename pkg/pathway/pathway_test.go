package pathway

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumyai/degview/logger"
	"github.com/yumyai/degview/pkg/exprtable"
	"go.uber.org/zap/zapcore"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(zapcore.ErrorLevel); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestParseID(t *testing.T) {
	ref, err := ParseID("hsa04110")
	require.NoError(t, err)
	assert.Equal(t, "hsa", ref.Organism)
	assert.Equal(t, "04110", ref.Code)

	ref, err = ParseID("mmu00010")
	require.NoError(t, err)
	assert.Equal(t, "mmu", ref.Organism)
	assert.Equal(t, "00010", ref.Code)

	for _, bad := range []string{"", "04110", "hsa", "hsa-04110", "04110hsa"} {
		if _, err := ParseID(bad); err == nil {
			t.Errorf("ParseID(%q) should fail", bad)
		}
	}
}

func TestScaleColor(t *testing.T) {
	s := Scale{Bound: 2}
	assert.Equal(t, 4, s.Bins())
	assert.Equal(t, "#FF0000", s.Color(2))
	assert.Equal(t, "#00FF00", s.Color(-2))
	assert.Equal(t, "#FFFFFF", s.Color(0))
	// Clamped beyond the bound.
	assert.Equal(t, "#FF0000", s.Color(10))
}

type fakeRenderer struct {
	calls  []Ref
	failOn string
}

func (f *fakeRenderer) Render(ref Ref, colors map[int]string, outPath string) error {
	f.calls = append(f.calls, ref)
	if ref.String() == f.failOn {
		return errors.New("cannot resolve pathway")
	}
	return os.WriteFile(outPath, []byte("png"), 0o644)
}

// Feed a 4-row table with one duplicated gene and two pathway IDs through
// the overlay loop: expect 2 rendered diagrams and a 3-row deduped table.
func TestOverlayEndToEnd(t *testing.T) {
	dir := t.TempDir()

	exprPath := filepath.Join(dir, "expr.txt")
	require.NoError(t, os.WriteFile(exprPath, []byte(
		"GeneID\tlogFC\n1017\t1,0\n1017\t3,0\n4609\t-2,0\n7157\t0,5\n"), 0o644))

	listPath := filepath.Join(dir, "pathways.txt")
	require.NoError(t, os.WriteFile(listPath, []byte("hsa04110\nhsa05200\n"), 0o644))

	tab, err := exprtable.Load(exprPath)
	require.NoError(t, err)
	assert.Len(t, tab.GeneIDs, 3)

	ids, err := LoadIDs(listPath)
	require.NoError(t, err)

	fr := &fakeRenderer{}
	n := Overlay(tab, ids, []string{"logFC"}, fr, dir)
	assert.Equal(t, 2, n)
	assert.Len(t, fr.calls, 2)
}

func TestOverlayContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()

	exprPath := filepath.Join(dir, "expr.txt")
	require.NoError(t, os.WriteFile(exprPath, []byte("GeneID\tlogFC\n1017\t1,0\n"), 0o644))
	tab, err := exprtable.Load(exprPath)
	require.NoError(t, err)

	fr := &fakeRenderer{failOn: "hsa04110"}
	n := Overlay(tab, []string{"hsa04110", "hsa05200"}, []string{"logFC"}, fr, dir)

	// One bad identifier must not abort the batch.
	assert.Equal(t, 1, n)
	assert.Len(t, fr.calls, 2)
}
