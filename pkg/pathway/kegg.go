package pathway

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Renderer produces one annotated diagram for a pathway reference, with each
// gene painted in its assigned background color.
type Renderer interface {
	Render(ref Ref, colors map[int]string, outPath string) error
}

// KEGGRenderer drives the kegg.jp show_pathway form the same way a browser
// would: submit the gene/color query, find the marked image in the response
// and download it.
type KEGGRenderer struct {
	BaseURL string
	Client  *http.Client
}

func NewKEGGRenderer() *KEGGRenderer {
	return &KEGGRenderer{
		BaseURL: "https://www.kegg.jp",
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

var markedImagePattern = regexp.MustCompile(`src="(/tmp/mark_pathway[^"]+\.png)"`)

func (k *KEGGRenderer) Render(ref Ref, colors map[int]string, outPath string) error {
	// Stable query order keeps requests reproducible.
	ids := make([]int, 0, len(colors))
	for id := range colors {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var query strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&query, "%d %s\n", id, colors[id])
	}

	form := url.Values{
		"org_name":    {ref.Organism},
		"mapno":       {ref.Code},
		"multi_query": {query.String()},
	}

	resp, err := k.Client.PostForm(k.BaseURL+"/kegg-bin/show_pathway", form)
	if err != nil {
		return fmt.Errorf("submit pathway %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit pathway %s: unexpected status %s", ref, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read pathway page %s: %w", ref, err)
	}

	m := markedImagePattern.FindSubmatch(body)
	if m == nil {
		return fmt.Errorf("pathway %s: no marked image in renderer response (unknown organism or map?)", ref)
	}

	img, err := k.Client.Get(k.BaseURL + string(m[1]))
	if err != nil {
		return fmt.Errorf("fetch pathway image %s: %w", ref, err)
	}
	defer img.Body.Close()

	if img.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch pathway image %s: unexpected status %s", ref, img.Status)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, img.Body); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}

// imageName builds the output filename for one pathway/condition pair.
func imageName(ref Ref, condition string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, condition)
	return ref.String() + "." + safe + ".png"
}
