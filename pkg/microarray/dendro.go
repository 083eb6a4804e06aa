package microarray

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DendroNode is one node of the sample clustering tree. Leaves carry a
// sample name; internal nodes carry the merge height.
type DendroNode struct {
	Name   string
	Height float64
	Left   *DendroNode
	Right  *DendroNode
}

// Leaf reports whether the node is an input sample.
func (n *DendroNode) Leaf() bool {
	return n.Left == nil && n.Right == nil
}

// ClusterSamples builds a complete-linkage hierarchical clustering of the
// sample columns of a normalized expression matrix, using Euclidean
// distance. Deterministic: ties merge the lowest index pair first.
func ClusterSamples(d *mat.Dense, names []string) *DendroNode {
	rows, cols := d.Dims()
	if cols == 0 {
		return nil
	}

	vecs := make([][]float64, cols)
	for c := 0; c < cols; c++ {
		v := make([]float64, rows)
		mat.Col(v, c, d)
		vecs[c] = v
	}

	type clust struct {
		node    *DendroNode
		members []int
	}
	active := make([]clust, cols)
	for c := 0; c < cols; c++ {
		active[c] = clust{node: &DendroNode{Name: names[c]}, members: []int{c}}
	}

	dist := func(a, b clust) float64 {
		// Complete linkage: the farthest member pair.
		max := 0.0
		for _, i := range a.members {
			for _, j := range b.members {
				if dd := floats.Distance(vecs[i], vecs[j], 2); dd > max {
					max = dd
				}
			}
		}
		return max
	}

	for len(active) > 1 {
		bi, bj, best := 0, 1, dist(active[0], active[1])
		for i := 0; i < len(active); i++ {
			for j := i + 1; j < len(active); j++ {
				if dd := dist(active[i], active[j]); dd < best {
					bi, bj, best = i, j, dd
				}
			}
		}
		merged := clust{
			node: &DendroNode{
				Height: best,
				Left:   active[bi].node,
				Right:  active[bj].node,
			},
			members: append(append([]int{}, active[bi].members...), active[bj].members...),
		}
		next := make([]clust, 0, len(active)-1)
		for k, c := range active {
			if k != bi && k != bj {
				next = append(next, c)
			}
		}
		active = append(next, merged)
	}
	return active[0].node
}
