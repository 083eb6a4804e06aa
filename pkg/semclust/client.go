package semclust

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yumyai/degview/internal/util"
	"github.com/yumyai/degview/logger"
	"go.uber.org/zap"
)

// Measures accepted by the reduction service.
var Measures = []string{"SIMREL", "LIN", "RESNIK", "JIANG"}

// Client drives a REVIGO-style reduction job: submit the term list, poll
// until the job finishes, download the result table. The table is fetched
// into a transient local file that is removed before Submit returns, on
// every exit path.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	Cutoff       float64 // similarity cutoff, e.g. 0.7
	IsPValue     bool    // the submitted values are p-values
	WhatIsBetter string  // "higher", "lower" or "absolute"
	SizeBasis    string  // taxon used for term-size normalization
	Measure      string  // one of Measures

	PollInterval time.Duration
}

func NewClient() *Client {
	return &Client{
		BaseURL:      "http://revigo.irb.hr",
		HTTPClient:   &http.Client{Timeout: 120 * time.Second},
		Cutoff:       0.7,
		IsPValue:     true,
		WhatIsBetter: "lower",
		SizeBasis:    "9606",
		Measure:      "SIMREL",
		PollInterval: 2 * time.Second,
	}
}

func (c *Client) validate() error {
	for _, m := range Measures {
		if c.Measure == m {
			return nil
		}
	}
	return fmt.Errorf("measure %q is not one of %v", c.Measure, Measures)
}

// TermValue pairs a term identifier with its submitted value.
type TermValue struct {
	TermID string
	Value  float64
}

type startJobResponse struct {
	JobID int `json:"jobid"`
}

type jobStatusResponse struct {
	Running int    `json:"running"`
	Message string `json:"message"`
}

// Submit runs one reduction job and returns the parsed points in response
// order. The error covers submission, polling, download and parse failures;
// the caller skips only the affected ontology category.
func (c *Client) Submit(terms []TermValue) ([]Point, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("no terms to submit")
	}

	var list strings.Builder
	for _, t := range terms {
		fmt.Fprintf(&list, "%s %g\n", t.TermID, t.Value)
	}

	valueType := "Higher"
	switch strings.ToLower(c.WhatIsBetter) {
	case "lower":
		valueType = "Lower"
	case "absolute":
		valueType = "Absolute"
	}
	if c.IsPValue {
		valueType = "PValue"
	}

	form := url.Values{
		"goList":       {list.String()},
		"cutoff":       {strconv.FormatFloat(c.Cutoff, 'g', -1, 64)},
		"valueType":    {valueType},
		"speciesTaxon": {c.SizeBasis},
		"measure":      {c.Measure},
	}

	resp, err := c.HTTPClient.PostForm(c.BaseURL+"/StartJob", form)
	if err != nil {
		return nil, fmt.Errorf("submit reduction job: %w", err)
	}
	var start startJobResponse
	err = json.NewDecoder(resp.Body).Decode(&start)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("decode job id: %w", err)
	}

	if err := c.waitForJob(start.JobID); err != nil {
		return nil, err
	}
	return c.fetchTable(start.JobID)
}

func (c *Client) waitForJob(jobID int) error {
	const maxPolls = 300
	for poll := 0; poll < maxPolls; poll++ {
		resp, err := c.HTTPClient.Get(fmt.Sprintf("%s/QueryJob?jobid=%d&type=jstatus", c.BaseURL, jobID))
		if err != nil {
			return fmt.Errorf("poll reduction job %d: %w", jobID, err)
		}
		var status jobStatusResponse
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode job %d status: %w", jobID, err)
		}
		if status.Running == 0 {
			if status.Message != "" && !strings.EqualFold(status.Message, "ok") {
				return fmt.Errorf("reduction job %d failed: %s", jobID, status.Message)
			}
			return nil
		}
		time.Sleep(c.PollInterval)
	}
	return fmt.Errorf("reduction job %d did not finish in time", jobID)
}

// fetchTable downloads the result table through a transient local file.
// The file is an implementation detail of the client and is deleted before
// returning, whether or not parsing succeeds.
func (c *Client) fetchTable(jobID int) ([]Point, error) {
	resp, err := c.HTTPClient.Get(fmt.Sprintf("%s/QueryJob?jobid=%d&type=table", c.BaseURL, jobID))
	if err != nil {
		return nil, fmt.Errorf("download reduction table for job %d: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download reduction table for job %d: status %s", jobID, resp.Status)
	}

	tmp := util.TempFile("degview-revigo", ".tsv")
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create transient table file: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Could not remove transient table file",
				zap.String("file", tmp), zap.Error(rmErr))
		}
	}()

	_, err = io.Copy(f, resp.Body)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("write transient table file: %w", err)
	}

	return ParseTable(tmp)
}

// ParseTable reads the service's tab-delimited result table. Expected
// columns: TermID, Name, Value, Uniqueness, Dispensability, PlotX, PlotY,
// Representative. The literal "null" marks terms excluded from the 2-D
// embedding.
func ParseTable(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reduction table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read reduction table: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("reduction table has no rows")
	}

	col := make(map[string]int)
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"TermID", "Name", "Value", "Uniqueness", "Dispensability", "PlotX", "PlotY"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("reduction table is missing column %q", required)
		}
	}

	nullable := func(rec []string, name string) float64 {
		s := strings.TrimSpace(rec[col[name]])
		if s == "" || strings.EqualFold(s, "null") {
			return math.NaN()
		}
		v, perr := strconv.ParseFloat(s, 64)
		if perr != nil {
			return math.NaN()
		}
		return v
	}

	points := make([]Point, 0, len(records)-1)
	for _, rec := range records[1:] {
		p := Point{
			TermID:         strings.TrimSpace(rec[col["TermID"]]),
			Name:           strings.Trim(strings.TrimSpace(rec[col["Name"]]), `"`),
			Value:          nullable(rec, "Value"),
			RepScore:       nullable(rec, "Uniqueness"),
			Dispensability: nullable(rec, "Dispensability"),
			PlotX:          nullable(rec, "PlotX"),
			PlotY:          nullable(rec, "PlotY"),
		}
		if i, ok := col["Representative"]; ok && i < len(rec) {
			head := strings.TrimSpace(rec[i])
			if !strings.EqualFold(head, "null") {
				p.Head = head
			}
		}
		points = append(points, p)
	}
	return points, nil
}
