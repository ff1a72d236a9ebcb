// Package pop generates initial swarm populations.
package pop

import (
	"math"

	"github.com/MichaelDuPlessis/velocity-evolver"
)

// New generates n points positioned uniformly at random inside bounds.  The
// number of dimensions is equal to len(bounds).  Returned points have their
// values initialized to +infinity.
func New(rng optim.Rng, n int, bounds []optim.Bound) []optim.Point {
	points := make([]optim.Point, n)
	for i := 0; i < n; i++ {
		pos := make([]float64, len(bounds))
		for j, b := range bounds {
			pos[j] = b.Lower + rng.Float64()*b.Width()
		}
		points[i] = optim.NewPoint(pos, math.Inf(1))
	}
	return points
}

// Velocities generates n velocity vectors with each component i drawn
// uniformly from [-vmax[i], vmax[i]).  Infinite speed limits produce zero
// initial velocity along that axis.
func Velocities(rng optim.Rng, n int, vmax []float64) [][]float64 {
	vels := make([][]float64, n)
	for i := range vels {
		vels[i] = make([]float64, len(vmax))
		for j, v := range vmax {
			if math.IsInf(v, 0) {
				continue
			}
			vels[i][j] = v * (1 - 2*rng.Float64())
		}
	}
	return vels
}
