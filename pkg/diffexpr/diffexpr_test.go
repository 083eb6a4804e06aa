package diffexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumyai/degview/pkg/microarray"
	"gonum.org/v1/gonum/mat"
)

func sampleTargets() []microarray.Target {
	return []microarray.Target{
		{Filename: "a1.txt", Group: "treated"},
		{Filename: "a2.txt", Group: "control"},
		{Filename: "a3.txt", Group: "treated"},
		{Filename: "a4.txt", Group: "control"},
	}
}

func TestBuildDesign(t *testing.T) {
	d := BuildDesign(sampleTargets())

	// Columns follow sorted distinct group labels.
	assert.Equal(t, []string{"control", "treated"}, d.Groups)

	rows, cols := d.Matrix.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 2, cols)

	// Each sample row has exactly one indicator.
	for r := 0; r < rows; r++ {
		sum := d.Matrix.At(r, 0) + d.Matrix.At(r, 1)
		assert.Equal(t, 1.0, sum)
	}

	ctrl, err := d.GroupColumn("control")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ctrl)
}

func TestParseContrasts(t *testing.T) {
	d := BuildDesign(sampleTargets())

	cs, err := ParseContrasts("treated-control", d)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "treated", cs[0].A)
	assert.Equal(t, "control", cs[0].B)

	_, err = ParseContrasts("treated-mock", d)
	assert.Error(t, err, "contrast may only reference groups present in the design")

	_, err = ParseContrasts("treated", d)
	assert.Error(t, err)
}

func TestFitAndDecide(t *testing.T) {
	targets := sampleTargets()
	d := BuildDesign(targets)
	cs, err := ParseContrasts("treated-control", d)
	require.NoError(t, err)

	// Gene g1: clean +4 shift in treated. Gene g2: small effect.
	em := &microarray.ExpressionMatrix{
		ProbeSets: []string{"g1", "g2"},
		Samples:   []string{"a1.txt", "a2.txt", "a3.txt", "a4.txt"},
		Groups:    []string{"treated", "control", "treated", "control"},
		Data: mat.NewDense(2, 4, []float64{
			8.0, 4.0, 8.1, 3.9,
			5.0, 4.5, 5.1, 4.6,
		}),
	}

	results, err := FitContrasts(em, d, cs)
	require.NoError(t, err)
	require.Len(t, results, 2)

	g1 := results[0]
	assert.Equal(t, "g1", g1.GeneID)
	assert.InDelta(t, 4.1, g1.Effect, 1e-9)
	assert.Less(t, g1.P, 0.01)

	Decide(results, Thresholds{P: 0.05, Effect: 1})
	assert.Equal(t, 1, results[0].Call)
	assert.Equal(t, 0, results[1].Call, "a 0.5 effect is never called")

	assert.Equal(t, []string{"g1"}, DifferentialGenes(results))
	assert.Equal(t, map[string][]string{"treated-control": {"g1"}}, GenesByContrast(results))
}

func TestDecideThresholdRule(t *testing.T) {
	// Single comparison, thresholds p<0.000005 and |effect|>1: a gene with
	// p=0.000001 and effect +2 is up; effect +0.5 is never called.
	results := []ContrastResult{
		{GeneID: "g1", Contrast: "A-B", Effect: 2, P: 0.000001},
		{GeneID: "g2", Contrast: "A-B", Effect: 0.5, P: 1e-30},
		{GeneID: "g3", Contrast: "A-B", Effect: -3, P: 0.0000012},
		{GeneID: "g4", Contrast: "A-B", Effect: 5, P: 0.9},
	}
	Decide(results, Thresholds{P: 0.000005, Effect: 1})

	assert.Equal(t, 1, results[0].Call)
	assert.Equal(t, 0, results[1].Call)
	assert.Equal(t, -1, results[2].Call)
	assert.Equal(t, 0, results[3].Call)
}

func TestAdjustBH(t *testing.T) {
	adj := adjustBH([]float64{0.01, 0.02, 0.03, 0.04})
	// BH: p_i * n / rank, monotone from the top.
	assert.InDelta(t, 0.04, adj[0], 1e-12)
	assert.InDelta(t, 0.04, adj[1], 1e-12)
	assert.InDelta(t, 0.04, adj[2], 1e-12)
	assert.InDelta(t, 0.04, adj[3], 1e-12)

	adj = adjustBH([]float64{0.001, 0.5})
	assert.InDelta(t, 0.002, adj[0], 1e-12)
	assert.InDelta(t, 0.5, adj[1], 1e-12)
}
