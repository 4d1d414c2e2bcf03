package cluster

import (
	"math"
	"math/rand"
)

// kmeansResult holds the best run out of all restarts.
type kmeansResult struct {
	labels  []int
	centers [][]float64
	inertia float64
}

// runKMeans is Lloyd's algorithm with a seeded source and best-of-restarts
// selection, so identical input always reproduces identical clusters.
// Assignment ties break toward the lower center index.
func runKMeans(rows [][]float64, k int, seed int64, restarts, maxIter int) kmeansResult {
	best := kmeansResult{inertia: math.Inf(1)}
	if len(rows) == 0 || k <= 0 {
		return best
	}
	if k > len(rows) {
		k = len(rows)
	}
	if restarts < 1 {
		restarts = 1
	}
	if maxIter < 1 {
		maxIter = 100
	}

	rng := rand.New(rand.NewSource(seed))
	for r := 0; r < restarts; r++ {
		res := kmeansOnce(rows, k, rng, maxIter)
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best
}

func kmeansOnce(rows [][]float64, k int, rng *rand.Rand, maxIter int) kmeansResult {
	dim := len(rows[0])

	// Forgy init: k distinct rows as starting centers.
	perm := rng.Perm(len(rows))
	centers := make([][]float64, k)
	for i := 0; i < k; i++ {
		centers[i] = append([]float64(nil), rows[perm[i]]...)
	}

	labels := make([]int, len(rows))
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, row := range rows {
			c := nearest(row, centers)
			if c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		// Recompute centers; an emptied cluster keeps its previous center.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, row := range rows {
			c := labels[i]
			counts[c]++
			for d, v := range row {
				sums[c][d] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dim; d++ {
				centers[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	var inertia float64
	for i, row := range rows {
		inertia += sqDist(row, centers[labels[i]])
	}
	return kmeansResult{labels: labels, centers: centers, inertia: inertia}
}

func nearest(row []float64, centers [][]float64) int {
	bestIdx := 0
	bestDist := math.Inf(1)
	for c, center := range centers {
		if d := sqDist(row, center); d < bestDist {
			bestDist = d
			bestIdx = c
		}
	}
	return bestIdx
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
