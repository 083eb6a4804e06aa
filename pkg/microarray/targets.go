package microarray

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Target assigns one raw sample file to an experimental group.
type Target struct {
	Filename string
	Group    string
}

// LoadTargets reads a whitespace-delimited metadata file with one
// "filename group" pair per line. Lines starting with '#' and a
// "FileName Group" header line are skipped. Every file must have exactly
// one group assignment. The returned slice is order-normalized: sorted by
// filename, then by group.
func LoadTargets(path string) ([]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	var targets []Target
	seen := make(map[string]string)

	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("targets line %q: need filename and group", line)
		}
		if first && strings.EqualFold(fields[0], "filename") && strings.EqualFold(fields[1], "group") {
			first = false
			continue
		}
		first = false

		name, group := fields[0], fields[1]
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("sample %s assigned to both %q and %q", name, prev, group)
		}
		seen[name] = group
		targets = append(targets, Target{Filename: name, Group: group})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("targets file %s has no sample assignments", path)
	}

	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].Filename != targets[j].Filename {
			return targets[i].Filename < targets[j].Filename
		}
		return targets[i].Group < targets[j].Group
	})
	return targets, nil
}

// Groups returns the sorted distinct group labels.
func Groups(targets []Target) []string {
	set := make(map[string]struct{})
	for _, t := range targets {
		set[t.Group] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
