package pathway

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Ref addresses one pathway diagram at the external renderer: an organism
// prefix (letters only) and a numeric pathway code, e.g. hsa04110.
type Ref struct {
	Organism string
	Code     string
}

func (r Ref) String() string {
	return r.Organism + r.Code
}

var refPattern = regexp.MustCompile(`^([A-Za-z]+)([0-9]+)$`)

// ParseID splits a pathway identifier into organism prefix and numeric code.
func ParseID(id string) (Ref, error) {
	m := refPattern.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return Ref{}, fmt.Errorf("pathway identifier %q is not <letters><digits>", id)
	}
	return Ref{Organism: m[1], Code: m[2]}, nil
}

// LoadIDs reads a tab-delimited pathway list, one identifier in the first
// field of each line. Blank lines are skipped.
func LoadIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pathway list: %w", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ids = append(ids, strings.Split(line, "\t")[0])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read pathway list: %w", err)
	}
	return ids, nil
}
