// Package mesh projects particle positions onto the admissible search
// space: optionally a discrete grid, always the box bounds of the problem.
package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/MichaelDuPlessis/velocity-evolver"
)

// Mesh is an interface for projecting arbitrary dimensional points onto some
// kind of (potentially discrete) mesh.
type Mesh interface {
	// Nearest returns the nearest mesh point to p.  p is not modified.
	Nearest(p []float64) []float64
}

// Infinite is a grid-based, linear-axis mesh that extends in all dimensions
// without bounds.  The length of Origin defines the dimensionality of the
// mesh. If Origin == nil, the dimensionality is set by the first call to
// Nearest.  If Basis == nil, a unit basis (the identity matrix) is used.  If
// Step == 0, then the mesh represents continuous space and the Nearest method
// just returns a copy of the point passed to it.
type Infinite struct {
	Origin []float64
	// Basis contains a set of column vectors defining the directions of each
	// mesh axis.
	Basis *mat.Dense
	// Step represents the discretization or grid size of the mesh.
	Step     float64
	inverter *mat.Dense
}

// Nearest returns the nearest grid point to p by rounding each dimensional
// position to the nearest grid point.  If the mesh basis is not the identity
// matrix, then p is transformed to the mesh basis before rounding and then
// retransformed back.
func (sm *Infinite) Nearest(p []float64) []float64 {
	if sm.Step == 0 {
		return append([]float64{}, p...)
	} else if l := len(sm.Origin); l != 0 && l != len(p) {
		panic(fmt.Sprintf("origin len %v incompatible with point len %v", l, len(p)))
	}

	// set up origin and inverter matrix if necessary
	if len(sm.Origin) == 0 {
		sm.Origin = make([]float64, len(p))
	}
	if sm.Basis != nil && sm.inverter == nil {
		sm.inverter = &mat.Dense{}
		if err := sm.inverter.Inverse(sm.Basis); err != nil {
			panic("mesh basis is singular: " + err.Error())
		}
	}

	// translate p based on origin and transform to new vector space
	newp := make([]float64, len(p))
	for i := range newp {
		newp[i] = p[i] - sm.Origin[i]
	}
	rotv := mat.NewVecDense(len(newp), newp)
	if sm.inverter != nil {
		rotv.MulVec(sm.inverter, mat.NewVecDense(len(newp), append([]float64{}, newp...)))
	}

	// calculate nearest point
	nearest := mat.NewVecDense(len(p), nil)
	for i := range sm.Origin {
		nearest.SetVec(i, math.Round(rotv.AtVec(i)/sm.Step)*sm.Step)
	}

	// transform back to standard space
	if sm.Basis != nil {
		rotv.MulVec(sm.Basis, nearest)
	} else {
		rotv = nearest
	}

	out := make([]float64, len(p))
	for i := range out {
		out[i] = rotv.AtVec(i) + sm.Origin[i]
	}
	return out
}

// Bounded clamps points into box bounds before handing them to an
// underlying mesh.
type Bounded struct {
	Lower []float64
	Upper []float64
	core  Mesh
}

// NewBounded wraps m so that every projected point lies inside bounds.  A
// nil m is treated as continuous space.
func NewBounded(m Mesh, bounds []optim.Bound) *Bounded {
	if m == nil {
		m = &Infinite{}
	}
	lower, upper := optim.SplitBounds(bounds)
	m.Nearest(lower) // force panic if bounds don't match the mesh dimensions
	return &Bounded{
		Lower: lower,
		Upper: upper,
		core:  m,
	}
}

// Nearest returns the nearest bounded grid point to p by sliding each
// dimensional position to the nearest value inside bounds and then rounding
// to the nearest grid point.  NaN coordinates are moved to the centre of
// their axis.
func (m *Bounded) Nearest(p []float64) []float64 {
	if len(p) != len(m.Lower) {
		panic(fmt.Sprintf("point len %v incompatible with bounds len %v", len(p), len(m.Lower)))
	}
	pdup := make([]float64, len(p))
	copy(pdup, p)
	for i := range pdup {
		if math.IsNaN(pdup[i]) {
			pdup[i] = m.Lower[i] + (m.Upper[i]-m.Lower[i])/2
		}
		pdup[i] = math.Max(m.Lower[i], pdup[i])
		pdup[i] = math.Min(m.Upper[i], pdup[i])
	}

	near := m.core.Nearest(pdup)
	// grid rounding may step back outside the box
	for i := range near {
		near[i] = math.Min(m.Upper[i], math.Max(m.Lower[i], near[i]))
	}
	return near
}

// Rotation returns an ndim x ndim basis that rotates the first two axes by
// theta radians and leaves the others alone.  With fewer than two
// dimensions it is the identity.
func Rotation(ndim int, theta float64) *mat.Dense {
	basis := mat.NewDense(ndim, ndim, nil)
	for i := 0; i < ndim; i++ {
		basis.Set(i, i, 1)
	}
	if ndim < 2 {
		return basis
	}
	sin, cos := math.Sincos(theta)
	basis.Set(0, 0, cos)
	basis.Set(0, 1, -sin)
	basis.Set(1, 0, sin)
	basis.Set(1, 1, cos)
	return basis
}
