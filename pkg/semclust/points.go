// Package semclust reduces enriched ontology terms through a remote
// semantic-similarity service and partitions the surviving terms by k-means
// over their 2-D semantic coordinates.
package semclust

import "math"

// Point is one term as returned by the reduction service. PlotX/PlotY are
// NaN when the service excluded the term from the 2-D embedding.
type Point struct {
	TermID         string
	Name           string
	Value          float64 // the submitted p-value
	RepScore       float64 // how representative the term is of its neighborhood
	Dispensability float64
	PlotX          float64
	PlotY          float64
	Head           string // service-assigned head term, may be empty

	// Group is filled by PropagateHeads: the identity of the embedded term
	// this point belongs to.
	Group string
}

// Embedded reports whether the term received a 2-D coordinate.
func (p Point) Embedded() bool {
	return !math.IsNaN(p.PlotX) && !math.IsNaN(p.PlotY)
}

// PropagateHeads assigns every point to a group in response order: an
// embedded term opens its own group, a non-embedded term joins the most
// recently seen embedded term's group. Points before the first embedded
// term stay ungrouped.
//
// The rule assumes the service's response order is stable and meaningful;
// if the service ever reorders results the grouping silently changes. That
// fragility is inherited deliberately rather than papered over.
func PropagateHeads(points []Point) []Point {
	current := ""
	out := make([]Point, len(points))
	for i, p := range points {
		if p.Embedded() {
			current = p.TermID
		}
		p.Group = current
		out[i] = p
	}
	return out
}

// GroupSizes counts, per group identity, how many terms were mapped to it
// by head propagation (the embedded term itself included).
func GroupSizes(points []Point) map[string]int {
	sizes := make(map[string]int)
	for _, p := range points {
		if p.Group != "" {
			sizes[p.Group]++
		}
	}
	return sizes
}
