// Package pmm implements predictive mean matching: each missing cell takes
// the observed value of a donor whose prediction is close to its own.
package pmm

import (
	"math"
	"math/rand"
	"sort"
)

// Distance compares two predictions in encoded form.
type Distance func(a, b float64) float64

// Absolute is |a-b|, for continuous and temporal targets.
func Absolute(a, b float64) float64 { return math.Abs(a - b) }

// Exact is 0 for equal codes and +Inf otherwise, for classification targets.
func Exact(a, b float64) float64 {
	if a == b {
		return 0
	}
	return math.Inf(1)
}

type candidate struct {
	row  int
	dist float64
}

// Match returns one donor value per entry of predMissing. For each missing
// prediction the k observed rows with the nearest predictions are chosen,
// ties going to the earlier row, and one of them is drawn uniformly from rng.
// ok is false when PMM does not apply: k <= 0, or an empty donor pool. The
// caller then keeps the raw predictions.
func Match[V any](predMissing, predObserved []float64, observed []V, k int, dist Distance, rng *rand.Rand) (out []V, ok bool) {
	if k <= 0 || len(predObserved) == 0 || len(observed) != len(predObserved) {
		return nil, false
	}
	if dist == nil {
		dist = Absolute
	}
	if k > len(predObserved) {
		k = len(predObserved)
	}
	out = make([]V, len(predMissing))
	buf := make([]candidate, len(predObserved))
	for i, pm := range predMissing {
		pool := donors(pm, predObserved, k, dist, buf)
		out[i] = observed[pool[rng.Intn(k)].row]
	}
	return out, true
}

// donors ranks every observed prediction against pred in buf and returns
// the k nearest. It is the deterministic half of Match.
func donors(pred float64, predObserved []float64, k int, dist Distance, buf []candidate) []candidate {
	for j, po := range predObserved {
		buf[j] = candidate{row: j, dist: dist(pred, po)}
	}
	nearest(buf, k)
	return buf[:k]
}

// nearest orders candidates by distance, then row. Only the first k are
// read afterwards.
func nearest(c []candidate, k int) {
	if k == 1 {
		best := 0
		for i := 1; i < len(c); i++ {
			if c[i].dist < c[best].dist {
				best = i
			}
		}
		c[0], c[best] = c[best], c[0]
		return
	}
	sort.Slice(c, func(a, b int) bool {
		if c[a].dist != c[b].dist {
			return c[a].dist < c[b].dist
		}
		return c[a].row < c[b].row
	})
}
