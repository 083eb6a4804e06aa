package semclust

import (
	"fmt"
	"sort"
	"strings"
)

// Cluster is one k-means partition of embedded terms, summarized for the
// downstream heatmap.
type Cluster struct {
	Members        []Point
	MeanX, MeanY   float64
	MemberIDs      string // concatenated member term identifiers
	Representative Point  // member with the maximal representative score
	Keywords       []string
	GroupSize      int // all terms mapped here via head propagation
	Label          string
}

// stopwords filtered out of term descriptions before keyword ranking.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "by": true, "for": true,
	"from": true, "in": true, "into": true, "involved": true, "of": true,
	"or": true, "the": true, "to": true, "via": true, "with": true,
}

const keywordCount = 5

// topKeywords tokenizes the member descriptions, drops stop-words and ranks
// the remaining tokens by frequency. Ties keep first-encountered order.
func topKeywords(members []Point) []string {
	freq := make(map[string]int)
	var order []string
	for _, m := range members {
		for _, tok := range strings.FieldsFunc(strings.ToLower(m.Name), func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
		}) {
			if stopwords[tok] || tok == "" {
				continue
			}
			if _, seen := freq[tok]; !seen {
				order = append(order, tok)
			}
			freq[tok]++
		}
	}

	rank := make(map[string]int, len(order))
	for i, tok := range order {
		rank[tok] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if freq[order[i]] != freq[order[j]] {
			return freq[order[i]] > freq[order[j]]
		}
		return rank[order[i]] < rank[order[j]]
	})

	if len(order) > keywordCount {
		order = order[:keywordCount]
	}
	return order
}

// BuildClusters partitions the embedded points of one ontology category and
// summarizes each partition. Group sizes come from head propagation over
// the full point list, so clusters count non-embedded followers too.
func BuildClusters(points []Point, seed int64) []Cluster {
	grouped := PropagateHeads(points)
	sizes := GroupSizes(grouped)

	var embedded []Point
	for _, p := range grouped {
		if p.Embedded() {
			embedded = append(embedded, p)
		}
	}
	if len(embedded) == 0 {
		return nil
	}

	coords := make([][2]float64, len(embedded))
	for i, p := range embedded {
		coords[i] = [2]float64{p.PlotX, p.PlotY}
	}
	k := clampK(len(embedded))
	assign := kmeans(coords, k, seed)

	byCluster := make(map[int][]Point)
	for i, p := range embedded {
		byCluster[assign[i]] = append(byCluster[assign[i]], p)
	}

	idxs := make([]int, 0, len(byCluster))
	for i := range byCluster {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)

	clusters := make([]Cluster, 0, len(byCluster))
	for _, ci := range idxs {
		members := byCluster[ci]

		var sx, sy float64
		var ids []string
		total := 0
		rep := members[0]
		for _, m := range members {
			sx += m.PlotX
			sy += m.PlotY
			ids = append(ids, m.TermID)
			total += sizes[m.TermID]
			if m.RepScore > rep.RepScore {
				rep = m
			}
		}

		kw := topKeywords(members)
		cl := Cluster{
			Members:        members,
			MeanX:          sx / float64(len(members)),
			MeanY:          sy / float64(len(members)),
			MemberIDs:      strings.Join(ids, "|"),
			Representative: rep,
			Keywords:       kw,
			GroupSize:      total,
		}
		cl.Label = fmt.Sprintf("%s: %s (%d terms)", rep.Name, strings.Join(kw, " "), total)
		clusters = append(clusters, cl)
	}
	return clusters
}
