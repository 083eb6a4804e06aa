// Package enrich queries a remote functional-enrichment engine with the
// per-comparison differential gene lists and returns the significant terms.
package enrich

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Term sources accepted from the engine. Everything else is discarded.
const (
	SourceBP   = "GO:BP"
	SourceCC   = "GO:CC"
	SourceMF   = "GO:MF"
	SourceKEGG = "KEGG"
)

// Sources lists the four accepted term sources in a fixed order.
var Sources = []string{SourceBP, SourceCC, SourceMF, SourceKEGG}

// Term is one enriched annotation returned for a named query.
type Term struct {
	ID          string
	Description string
	Source      string
	Query       string
	P           float64
}

// Client talks to a g:Profiler style enrichment API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	Organism   string
	Threshold  float64
	Correction string // e.g. "g_SCS", "fdr", "bonferroni"
	NoIEA      bool   // exclude electronically inferred annotations
}

func NewClient(organism string) *Client {
	return &Client{
		BaseURL:    "https://biit.cs.ut.ee/gprofiler/api/gost/profile/",
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		Organism:   organism,
		Threshold:  0.05,
		Correction: "g_SCS",
		NoIEA:      true,
	}
}

type profileRequest struct {
	Organism      string              `json:"organism"`
	Query         map[string][]string `json:"query"`
	Sources       []string            `json:"sources"`
	UserThreshold float64             `json:"user_threshold"`
	Correction    string              `json:"significance_threshold_method"`
	NoIEA         bool                `json:"no_iea"`
}

type profileResponse struct {
	Result []struct {
		Native string  `json:"native"`
		Name   string  `json:"name"`
		Source string  `json:"source"`
		PValue float64 `json:"p_value"`
		Query  string  `json:"query"`
	} `json:"result"`
}

// Query submits every named gene list in one request and returns the terms
// restricted to the four accepted sources. A transport or decode failure is
// returned to the caller, which treats the whole enrichment phase as
// skippable.
func (c *Client) Query(geneLists map[string][]string) ([]Term, error) {
	if len(geneLists) == 0 {
		return nil, fmt.Errorf("no gene lists to submit")
	}

	body, err := json.Marshal(profileRequest{
		Organism:      c.Organism,
		Query:         geneLists,
		Sources:       Sources,
		UserThreshold: c.Threshold,
		Correction:    c.Correction,
		NoIEA:         c.NoIEA,
	})
	if err != nil {
		return nil, fmt.Errorf("encode enrichment request: %w", err)
	}

	resp, err := c.HTTPClient.Post(c.BaseURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("enrichment query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("enrichment query: status %s: %s", resp.Status, snippet)
	}

	var pr profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode enrichment response: %w", err)
	}

	accepted := make(map[string]bool, len(Sources))
	for _, s := range Sources {
		accepted[s] = true
	}

	terms := make([]Term, 0, len(pr.Result))
	for _, r := range pr.Result {
		if !accepted[r.Source] {
			continue
		}
		terms = append(terms, Term{
			ID:          r.Native,
			Description: r.Name,
			Source:      r.Source,
			Query:       r.Query,
			P:           r.PValue,
		})
	}
	return terms, nil
}

// BySource splits terms per source category, preserving response order.
func BySource(terms []Term) map[string][]Term {
	out := make(map[string][]Term)
	for _, t := range terms {
		out[t.Source] = append(out[t.Source], t)
	}
	return out
}
