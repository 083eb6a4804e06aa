package enrich

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "hsapiens", req["organism"])
		assert.Equal(t, true, req["no_iea"])
		assert.Equal(t, "g_SCS", req["significance_threshold_method"])

		resp := map[string]any{
			"result": []map[string]any{
				{"native": "GO:0006915", "name": "apoptotic process", "source": "GO:BP", "p_value": 0.001, "query": "t24-control"},
				{"native": "KEGG:04110", "name": "Cell cycle", "source": "KEGG", "p_value": 0.002, "query": "t24-control"},
				{"native": "TF:M00001", "name": "some motif", "source": "TF", "p_value": 0.003, "query": "t24-control"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient("hsapiens")
	c.BaseURL = srv.URL
	c.HTTPClient = srv.Client()

	terms, err := c.Query(map[string][]string{"t24-control": {"1017", "4609"}})
	require.NoError(t, err)

	// The TF term is outside the four accepted sources.
	require.Len(t, terms, 2)
	assert.Equal(t, "GO:0006915", terms[0].ID)
	assert.Equal(t, SourceBP, terms[0].Source)
	assert.Equal(t, SourceKEGG, terms[1].Source)

	by := BySource(terms)
	assert.Len(t, by[SourceBP], 1)
	assert.Len(t, by[SourceKEGG], 1)
}

func TestQueryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("hsapiens")
	c.BaseURL = srv.URL
	c.HTTPClient = srv.Client()

	_, err := c.Query(map[string][]string{"q": {"1"}})
	assert.Error(t, err)
}

func TestQueryEmpty(t *testing.T) {
	c := NewClient("hsapiens")
	_, err := c.Query(nil)
	assert.Error(t, err)
}
