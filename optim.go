// Package optim holds the primitives shared by the swarm engine, the
// benchmark catalog and the fitness pipeline: points, box bounds, objective
// functions, evaluators and random sources.
package optim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

type Point struct {
	pos []float64
	Val float64
}

func NewPoint(pos []float64, val float64) Point {
	cpos := make([]float64, len(pos))
	copy(cpos, pos)
	return Point{pos: cpos, Val: val}
}

func (p Point) At(i int) float64 { return p.pos[i] }

func (p Point) Len() int { return len(p.pos) }

func (p Point) Pos() []float64 {
	pos := make([]float64, len(p.pos))
	copy(pos, p.pos)
	return pos
}

// Bound is the admissible range of a single coordinate axis.
type Bound struct {
	Lower float64
	Upper float64
}

func (b Bound) Width() float64 { return b.Upper - b.Lower }

// UniformBounds returns ndim copies of the bound [low, up].
func UniformBounds(ndim int, low, up float64) []Bound {
	bounds := make([]Bound, ndim)
	for i := range bounds {
		bounds[i] = Bound{Lower: low, Upper: up}
	}
	return bounds
}

// SplitBounds returns the lower and upper edges of bounds as separate
// vectors.
func SplitBounds(bounds []Bound) (low, up []float64) {
	low = make([]float64, len(bounds))
	up = make([]float64, len(bounds))
	for i, b := range bounds {
		low[i], up[i] = b.Lower, b.Upper
	}
	return low, up
}

var ErrBounds = errors.New("invalid bounds")

// ValidateBounds reports an error wrapping ErrBounds if bounds is empty or
// any axis has Lower > Upper or a non-finite edge.
func ValidateBounds(bounds []Bound) error {
	if len(bounds) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrBounds)
	}
	for i, b := range bounds {
		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || math.IsInf(b.Lower, 0) || math.IsInf(b.Upper, 0) {
			return fmt.Errorf("%w: axis %v is not finite (%v, %v)", ErrBounds, i, b.Lower, b.Upper)
		} else if b.Lower > b.Upper {
			return fmt.Errorf("%w: axis %v has lower %v > upper %v", ErrBounds, i, b.Lower, b.Upper)
		}
	}
	return nil
}

// Rng is the subset of *rand.Rand used throughout the module.  Values are
// not safe for concurrent use - every goroutine needs its own.
type Rng interface {
	Float64() float64
	Intn(n int) int
}

// NewRng returns a source seeded with seed, or with the current time if
// seed is zero.
func NewRng(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

type Objectiver interface {
	// Objective evaluates the variables in v and returns the objective
	// function value.  The objective function must be framed so that lower
	// values are better. If the evaluation fails, positive infinity should be
	// returned along with an error.
	Objective(v []float64) (float64, error)
}

type SimpleObjectiver func([]float64) float64

func (so SimpleObjectiver) Objective(v []float64) (float64, error) { return so(v), nil }

// ObjectiverFunc adapts a fallible function to the Objectiver interface.
type ObjectiverFunc func([]float64) (float64, error)

func (fn ObjectiverFunc) Objective(v []float64) (float64, error) { return fn(v) }

type Evaler interface {
	// Eval evaluates each point using obj and returns the values and number
	// of function evaluations n.  Unevaluated points should not be returned
	// in the results slice.
	Eval(obj Objectiver, points ...Point) (results []Point, n int, err error)
}

type SerialEvaler struct {
	ContinueOnErr bool
}

func (ev SerialEvaler) Eval(obj Objectiver, points ...Point) (results []Point, n int, err error) {
	results = make([]Point, 0, len(points))
	for _, p := range points {
		p.Val, err = obj.Objective(p.Pos())
		results = append(results, p)
		if err != nil && !ev.ContinueOnErr {
			return results, len(results), err
		}
	}
	return results, len(results), nil
}
