package semclust

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// MaxClusters caps the k-means partition size per ontology category.
const MaxClusters = 40

// clampK picks the cluster count for n embedded terms: at most MaxClusters,
// clamped to n-1 when fewer terms are available, never below 1.
func clampK(n int) int {
	k := MaxClusters
	if n-1 < k {
		k = n - 1
	}
	if k < 1 {
		k = 1
	}
	return k
}

// kmeans runs Lloyd's algorithm over 2-D coordinates with a fixed seed so
// repeated runs partition identically. Returns the cluster index of every
// input point.
func kmeans(coords [][2]float64, k int, seed int64) []int {
	n := len(coords)
	if k > n {
		k = n
	}
	rng := rand.New(rand.NewSource(seed))

	// Initial centroids: k distinct points.
	perm := rng.Perm(n)
	centroids := make([][2]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = coords[perm[i]]
	}

	assign := make([]int, n)
	for iter := 0; iter < 100; iter++ {
		changed := false
		for i, p := range coords {
			best, bestDist := 0, math.Inf(1)
			for j, c := range centroids {
				d := floats.Distance([]float64{p[0], p[1]}, []float64{c[0], c[1]}, 2)
				if d < bestDist {
					best, bestDist = j, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		counts := make([]int, k)
		sums := make([][2]float64, k)
		for i, p := range coords {
			a := assign[i]
			counts[a]++
			sums[a][0] += p[0]
			sums[a][1] += p[1]
		}
		for j := range centroids {
			if counts[j] == 0 {
				// Re-seed an emptied centroid deterministically.
				centroids[j] = coords[rng.Intn(n)]
				continue
			}
			centroids[j][0] = sums[j][0] / float64(counts[j])
			centroids[j][1] = sums[j][1] / float64(counts[j])
		}

		if !changed && iter > 0 {
			break
		}
	}
	return assign
}
