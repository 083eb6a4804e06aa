package semclust

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

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

func pt(id string, x, y float64) Point {
	return Point{TermID: id, Name: id, PlotX: x, PlotY: y}
}

func nullPt(id string) Point {
	return Point{TermID: id, Name: id, PlotX: math.NaN(), PlotY: math.NaN()}
}

func TestPropagateHeads(t *testing.T) {
	// Only terms 1 and 4 are embedded: 2 and 3 follow term 1, 5 and 6
	// follow term 4.
	points := []Point{
		pt("GO:1", 0, 0),
		nullPt("GO:2"),
		nullPt("GO:3"),
		pt("GO:4", 5, 5),
		nullPt("GO:5"),
		nullPt("GO:6"),
	}
	out := PropagateHeads(points)

	assert.Equal(t, "GO:1", out[0].Group)
	assert.Equal(t, "GO:1", out[1].Group)
	assert.Equal(t, "GO:1", out[2].Group)
	assert.Equal(t, "GO:4", out[3].Group)
	assert.Equal(t, "GO:4", out[4].Group)
	assert.Equal(t, "GO:4", out[5].Group)

	sizes := GroupSizes(out)
	assert.Equal(t, 3, sizes["GO:1"])
	assert.Equal(t, 3, sizes["GO:4"])
}

func TestPropagateHeadsLeadingNulls(t *testing.T) {
	points := []Point{nullPt("GO:0"), pt("GO:1", 1, 1)}
	out := PropagateHeads(points)
	assert.Equal(t, "", out[0].Group)
	assert.Equal(t, "GO:1", out[1].Group)
}

func TestClampK(t *testing.T) {
	assert.Equal(t, 1, clampK(1))
	assert.Equal(t, 1, clampK(2))
	assert.Equal(t, 4, clampK(5))
	assert.Equal(t, 40, clampK(41))
	assert.Equal(t, 40, clampK(500))
}

func TestKMeansDeterministic(t *testing.T) {
	coords := [][2]float64{
		{0, 0}, {0.1, 0.1}, {0.2, 0},
		{10, 10}, {10.1, 9.9}, {9.9, 10.2},
	}
	a := kmeans(coords, 2, 1)
	b := kmeans(coords, 2, 1)
	assert.Equal(t, a, b)

	// The two tight groups must land in different clusters.
	assert.Equal(t, a[0], a[1])
	assert.Equal(t, a[0], a[2])
	assert.Equal(t, a[3], a[4])
	assert.Equal(t, a[3], a[5])
	assert.NotEqual(t, a[0], a[3])
}

func TestTopKeywords(t *testing.T) {
	members := []Point{
		{Name: "regulation of apoptotic process"},
		{Name: "apoptotic signaling pathway"},
		{Name: "cell death"},
	}
	kw := topKeywords(members)

	// "of" is a stop-word; "apoptotic" appears twice and ranks first;
	// the rest tie at one occurrence and keep encounter order.
	require.NotEmpty(t, kw)
	assert.Equal(t, "apoptotic", kw[0])
	assert.Len(t, kw, 5)
	assert.Equal(t, []string{"apoptotic", "regulation", "process", "signaling", "pathway"}, kw)
}

func TestBuildClusters(t *testing.T) {
	points := []Point{
		{TermID: "GO:1", Name: "cell cycle", PlotX: 0, PlotY: 0, RepScore: 0.9},
		{TermID: "GO:2", Name: "cell division", PlotX: 0.2, PlotY: 0.1, RepScore: 0.5},
		nullPt("GO:3"), // follows GO:2 by head propagation
		{TermID: "GO:4", Name: "immune response", PlotX: 9, PlotY: 9, RepScore: 0.8},
	}
	clusters := BuildClusters(points, 1)
	require.Len(t, clusters, 2)

	var near, far *Cluster
	for i := range clusters {
		if len(clusters[i].Members) == 2 {
			near = &clusters[i]
		} else {
			far = &clusters[i]
		}
	}
	require.NotNil(t, near)
	require.NotNil(t, far)

	assert.Equal(t, "GO:1", near.Representative.TermID, "max RepScore wins")
	assert.Equal(t, "GO:1|GO:2", near.MemberIDs)
	assert.InDelta(t, 0.1, near.MeanX, 1e-9)
	// GO:3 counts through head propagation even though k-means never saw it.
	assert.Equal(t, 3, near.GroupSize)
	assert.Contains(t, near.Label, "cell cycle")
	assert.Contains(t, near.Label, "3 terms")

	assert.Equal(t, 1, far.GroupSize)
}

func TestParseTable(t *testing.T) {
	table := "TermID\tName\tValue\tUniqueness\tDispensability\tPlotX\tPlotY\tRepresentative\n" +
		"GO:0006915\t\"apoptotic process\"\t0.001\t0.95\t0\t1.5\t-2.5\tnull\n" +
		"GO:0008219\t\"cell death\"\t0.002\t0.8\t0.6\tnull\tnull\tGO:0006915\n"
	p := filepath.Join(t.TempDir(), "revigo.tsv")
	require.NoError(t, os.WriteFile(p, []byte(table), 0o644))

	points, err := ParseTable(p)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "GO:0006915", points[0].TermID)
	assert.Equal(t, "apoptotic process", points[0].Name)
	assert.True(t, points[0].Embedded())
	assert.InDelta(t, -2.5, points[0].PlotY, 1e-12)
	assert.Empty(t, points[0].Head)

	assert.False(t, points[1].Embedded())
	assert.Equal(t, "GO:0006915", points[1].Head)
}

func TestClientSubmit(t *testing.T) {
	table := "TermID\tName\tValue\tUniqueness\tDispensability\tPlotX\tPlotY\tRepresentative\n" +
		"GO:1\t\"cell cycle\"\t0.001\t0.9\t0\t1\t2\tnull\n"

	polls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/StartJob", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.Form.Get("goList"), "GO:1")
		assert.Equal(t, "SIMREL", r.Form.Get("measure"))
		fmt.Fprint(w, `{"jobid": 7}`)
	})
	mux.HandleFunc("/QueryJob", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") == "jstatus" {
			polls++
			if polls == 1 {
				fmt.Fprint(w, `{"running": 1, "message": ""}`)
			} else {
				fmt.Fprint(w, `{"running": 0, "message": "OK"}`)
			}
			return
		}
		fmt.Fprint(w, table)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient()
	c.BaseURL = srv.URL
	c.HTTPClient = srv.Client()
	c.PollInterval = time.Millisecond

	points, err := c.Submit([]TermValue{{TermID: "GO:1", Value: 0.001}})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "GO:1", points[0].TermID)
	assert.True(t, points[0].Embedded())
	assert.Equal(t, 2, polls)
}

func TestClientValidateMeasure(t *testing.T) {
	c := NewClient()
	c.Measure = "COSINE"
	_, err := c.Submit([]TermValue{{TermID: "GO:1", Value: 0.01}})
	assert.Error(t, err)
}
