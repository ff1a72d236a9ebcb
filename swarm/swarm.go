// Package swarm runs particle swarms whose velocity update is supplied by
// the caller.  Bounds are enforced by projecting every new position onto the
// problem's box with a mesh.Bounded.
package swarm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/MichaelDuPlessis/velocity-evolver"
	"github.com/MichaelDuPlessis/velocity-evolver/mesh"
	"github.com/MichaelDuPlessis/velocity-evolver/pop"
)

// These params are calculated using a constriction factor originally
// described in:
//
//     Clerc and M.  “The swarm and the queen: towards a deterministic and
//     adaptive particle swarm optimization” Proc. 1999 Congress on
//     Evolutionary Computation, pp. 1951-1957
//
// The cognition and social parameters correspond to c1 and c2 values of 2.05
// that have been multiplied by their constriction coeffient - i.e.
// DefaultSocial = Constriction(2.05, 2.05)*2.05.  DefaultInertia is set equal
// to the constriction coefficient.
const (
	DefaultCognition = 1.496179765663133
	DefaultSocial    = 1.496179765663133
	DefaultInertia   = 0.7298437881283576
)

var (
	ErrInvalidBounds = errors.New("swarm: invalid bounds")
	ErrEmptySwarm    = errors.New("swarm: need at least one particle and one iteration")
)

// Constriction calculates the constriction coefficient for the given c1 and
// c2 for the particle velocity equation:
//
//    v_next = k(v_curr + c1*rand*(p_glob-x) + c2*rand*(p_personal-x))
//
// c1+c2 should usually be greater than (but close to) 4.  'w = k' is often
// referred to as the inertia in the traditional swarm equation
func Constriction(c1, c2 float64) float64 {
	phi := c1 + c2
	return 2 / math.Abs(2-phi-math.Sqrt(phi*phi-4*phi))
}

// Constricted returns the coefficients of the constricted rule for c1 and
// c2: both are scaled by Constriction(c1, c2), which is also the inertia.
func Constricted(c1, c2 float64) Coefficients {
	k := Constriction(c1, c2)
	return Coefficients{Inertia: k, Cognitive: k * c1, Social: k * c2}
}

// Coefficients parameterize the textbook velocity rule used as the
// comparison baseline.
type Coefficients struct {
	Inertia   float64 `yaml:"inertia"`
	Cognitive float64 `yaml:"cognitive"`
	Social    float64 `yaml:"social"`
}

var DefaultCoefficients = Coefficients{
	Inertia:   DefaultInertia,
	Cognitive: DefaultCognition,
	Social:    DefaultSocial,
}

// VelocityFunc computes the next velocity of cur given the swarm's best
// particle.  It must not modify either particle.
type VelocityFunc func(cur, best *Particle) []float64

// Canonical returns the rule
//
//    v_next = w*v + c1*r1*(p - x) + c2*r2*(g - x)
//
// where p is cur's personal best, g is the personal best of the swarm's best
// particle and r1, r2 are drawn from rng once per call.
func Canonical(c Coefficients, rng optim.Rng) VelocityFunc {
	return func(cur, best *Particle) []float64 {
		r1 := rng.Float64()
		r2 := rng.Float64()
		v := make([]float64, cur.Len())
		for i, currv := range cur.Vel {
			v[i] = c.Inertia*currv +
				c.Cognitive*r1*(cur.Best.At(i)-cur.At(i)) +
				c.Social*r2*(best.Best.At(i)-cur.At(i))
		}
		return v
	}
}

type Particle struct {
	Id int
	optim.Point
	Vel  []float64
	Best optim.Point
}

func (p *Particle) Position() []float64 { return p.Pos() }

func (p *Particle) Velocity() []float64 { return append([]float64{}, p.Vel...) }

func (p *Particle) PersonalBest() []float64 { return p.Best.Pos() }

// Move sets p's velocity to vel limited to vmax per dimension and advances
// p's position by it.  The new position is projected with m and its value is
// reset to +infinity until it is evaluated.
func (p *Particle) Move(vel, vmax []float64, m mesh.Mesh) {
	if len(vel) != len(p.Vel) {
		panic(fmt.Sprintf("velocity len %v incompatible with particle len %v", len(vel), len(p.Vel)))
	}
	for i, v := range vel {
		if math.IsNaN(v) {
			v = 0
		}
		if math.Abs(v) > vmax[i] {
			v = math.Copysign(vmax[i], v)
		}
		p.Vel[i] = v
	}

	pos := p.Pos()
	floats.Add(pos, p.Vel)
	p.Point = optim.NewPoint(m.Nearest(pos), math.Inf(1))
}

func (p *Particle) Update(newp optim.Point) {
	p.Val = newp.Val
	if p.Val < p.Best.Val {
		p.Best = newp
	}
}

type Population []*Particle

// NewPopulation initializes a population of particles at the given points
// with the given initial velocities.
func NewPopulation(points []optim.Point, vels [][]float64) Population {
	pop := make(Population, len(points))
	for i, p := range points {
		pop[i] = &Particle{
			Id:    i,
			Point: p,
			Best:  p,
			Vel:   vels[i],
		}
	}
	return pop
}

func (pop Population) Points() []optim.Point {
	points := make([]optim.Point, 0, len(pop))
	for _, p := range pop {
		points = append(points, p.Point)
	}
	return points
}

// Best returns the particle with the lowest personal best value.
func (pop Population) Best() *Particle {
	if len(pop) == 0 {
		return nil
	}

	best := pop[0]
	for _, p := range pop[1:] {
		if p.Best.Val < best.Best.Val {
			best = p
		}
	}
	return best
}

type Option func(*Iterator)

func Vmax(vmaxes []float64) Option {
	return func(it *Iterator) {
		it.Vmax = append([]float64{}, vmaxes...)
	}
}

func VmaxAll(vmax float64) Option {
	return func(it *Iterator) {
		for i := range it.Vmax {
			it.Vmax[i] = vmax
		}
	}
}

func Evaler(e optim.Evaler) Option {
	return func(it *Iterator) {
		it.Evaler = e
	}
}

// Rng sets the source used for the initial population.  Runs that are not
// given one use a time-seeded source.
func Rng(rng optim.Rng) Option {
	return func(it *Iterator) {
		it.Rng = rng
	}
}

// Mesh restricts particle positions to the grid points of m that lie within
// the bounds.
func Mesh(m mesh.Mesh) Option {
	return func(it *Iterator) {
		it.grid = m
	}
}

// Tag labels every row the iterator writes to its database so that many
// runs can share one.
func Tag(tag string) Option {
	return func(it *Iterator) {
		it.Tag = tag
	}
}

type Iterator struct {
	Pop Population
	optim.Evaler
	Vel VelocityFunc
	Rng optim.Rng
	// Vmax is the speed limit per dimension for particles.
	Vmax []float64
	Db   *Recorder
	Tag  string

	grid  mesh.Mesh
	m     *mesh.Bounded
	count int
}

// NewIterator prepares a swarm of n particles positioned uniformly at random
// within bounds.
func NewIterator(n int, bounds []optim.Bound, vel VelocityFunc, opts ...Option) (*Iterator, error) {
	if err := optim.ValidateBounds(bounds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBounds, err)
	} else if n < 1 {
		return nil, ErrEmptySwarm
	}

	it := &Iterator{
		Evaler: optim.SerialEvaler{},
		Vel:    vel,
		Vmax:   vmaxfrombounds(bounds),
	}
	for _, opt := range opts {
		opt(it)
	}
	if len(it.Vmax) != len(bounds) {
		return nil, fmt.Errorf("%w: %v speed limits for %v dimensions", ErrInvalidBounds, len(it.Vmax), len(bounds))
	}
	if it.Rng == nil {
		it.Rng = optim.NewRng(0)
	}

	it.m = mesh.NewBounded(it.grid, bounds)
	points := pop.New(it.Rng, n, bounds)
	for i, p := range points {
		points[i] = optim.NewPoint(it.m.Nearest(p.Pos()), p.Val)
	}
	it.Pop = NewPopulation(points, pop.Velocities(it.Rng, n, it.Vmax))

	if it.Db != nil {
		if err := it.Db.init(len(bounds)); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// Iterate evaluates every particle, then moves all of them using velocities
// computed against the same best particle.  It returns the swarm's best
// particle as of the evaluation.
func (it *Iterator) Iterate(obj optim.Objectiver) (best *Particle, neval int, err error) {
	it.count++

	results, n, err := it.Evaler.Eval(obj, it.Pop.Points()...)
	if err != nil {
		return nil, n, err
	}
	for i := range results {
		it.Pop[i].Update(results[i])
	}

	best = it.Pop.Best()
	if it.Db != nil {
		if err := it.Db.record(it.Tag, it.count, it.Pop, best); err != nil {
			return nil, n, err
		}
	}

	vels := make([][]float64, len(it.Pop))
	for i, p := range it.Pop {
		vels[i] = it.Vel(p, best)
	}
	for i, p := range it.Pop {
		p.Move(vels[i], it.Vmax, it.m)
	}
	return best, n, nil
}

// Run flies a swarm of n particles for iters iterations over obj, with each
// particle's velocity computed by vel, and returns the particle with the
// lowest personal best.
func Run(n, iters int, bounds []optim.Bound, vel VelocityFunc, obj optim.Objectiver, opts ...Option) (*Particle, error) {
	if iters < 1 {
		return nil, ErrEmptySwarm
	}
	it, err := NewIterator(n, bounds, vel, opts...)
	if err != nil {
		return nil, err
	}

	for i := 0; i < iters; i++ {
		if _, _, err := it.Iterate(obj); err != nil {
			return nil, fmt.Errorf("swarm iteration %v: %w", i+1, err)
		}
	}
	return it.Pop.Best(), nil
}

func vmaxfrombounds(bounds []optim.Bound) []float64 {
	vmax := make([]float64, len(bounds))
	for i, b := range bounds {
		// Eberhart et al. suggest (up-low)/2 - removing divide by two
		// seems to help swarm avoid premature convergence in difficult
		// problems.
		vmax[i] = b.Width()
	}
	return vmax
}
