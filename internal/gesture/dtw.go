package gesture

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DTWDistance calculates the dynamic time warping distance between two paths,
// normalized by the longer path's length. Returns +Inf if either path is empty.
func DTWDistance(path1, path2 []mgl64.Vec3) float64 {
	n := len(path1)
	m := len(path2)
	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	// Two rolling rows of the (n+1) x (m+1) cost matrix.
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := range prev {
		prev[j] = math.Inf(1)
	}
	prev[0] = 0

	for i := 1; i <= n; i++ {
		curr[0] = math.Inf(1)
		for j := 1; j <= m; j++ {
			cost := path1[i-1].Sub(path2[j-1]).Len()
			curr[j] = cost + min(prev[j], curr[j-1], prev[j-1])
		}
		prev, curr = curr, prev
	}

	return prev[m] / float64(max(n, m))
}

// NormalizePath scales each axis of path into the 0-1 range. Flat axes collapse to 0.
func NormalizePath(path []mgl64.Vec3) []mgl64.Vec3 {
	if path == nil {
		return nil
	}
	if len(path) == 0 {
		return []mgl64.Vec3{}
	}

	lo, hi := path[0], path[0]
	for _, p := range path[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}

	normalized := make([]mgl64.Vec3, len(path))
	for i, p := range path {
		for k := 0; k < 3; k++ {
			if r := hi[k] - lo[k]; r > 0 {
				normalized[i][k] = (p[k] - lo[k]) / r
			}
		}
	}
	return normalized
}
