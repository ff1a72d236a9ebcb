package mesh

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/MichaelDuPlessis/velocity-evolver"
)

type Problem struct {
	Step       float64
	Point, Exp []float64
}

var tests = []Problem{
	{
		Step:  1.3,
		Point: []float64{0.1, 0.1},
		Exp:   []float64{0.0, 0.0},
	},
	{
		Step:  1.3,
		Point: []float64{1.0, 1.0},
		Exp:   []float64{1.3, 1.3},
	},
	{
		Step:  1.3,
		Point: []float64{1.9, 1.9},
		Exp:   []float64{1.3, 1.3},
	},
	{
		Step:  1.3,
		Point: []float64{-1.0, -1.9},
		Exp:   []float64{-1.3, -1.3},
	},
}

func TestInfinite(t *testing.T) {
	maxulps := uint64(1)

	for i, prob := range tests {
		sm := &Infinite{Step: prob.Step}
		got := sm.Nearest(prob.Point)
		t.Logf("prob %v:", i)
		for j := range got {
			if diff := DiffInUlps(got[j], prob.Exp[j]); diff > maxulps {
				t.Errorf("    v[%v]=%v: got %v, expected %v", j, prob.Point[j], got[j], prob.Exp[j])
			} else {
				t.Logf("    v[%v]=%v: got %v", j, prob.Point[j], got[j])
			}
		}
	}
}

func TestInfiniteContinuous(t *testing.T) {
	sm := &Infinite{}
	p := []float64{0.123, -4.56}
	got := sm.Nearest(p)
	got[0] = 99
	if p[0] != 0.123 {
		t.Errorf("continuous mesh aliased its input")
	}
}

func TestInfiniteBasis(t *testing.T) {
	// axes scaled by 2 in x: a step of 1 along the first basis vector is 2
	// in standard space
	basis := mat.NewDense(2, 2, []float64{2, 0, 0, 1})
	sm := &Infinite{Step: 1, Basis: basis}
	got := sm.Nearest([]float64{2.9, 0.4})
	if DiffInUlps(got[0], 2) > 1 || DiffInUlps(got[1], 0) > 1 {
		t.Errorf("got %v, want [2 0]", got)
	}
}

func TestBounded(t *testing.T) {
	bounds := []optim.Bound{{Lower: -10, Upper: 10}, {Lower: 0, Upper: 1}}
	m := NewBounded(nil, bounds)

	cases := []struct {
		in, want []float64
	}{
		{[]float64{-20, 0.5}, []float64{-10, 0.5}},
		{[]float64{3, 7}, []float64{3, 1}},
		{[]float64{math.NaN(), math.Inf(-1)}, []float64{0, 0}},
	}
	for _, c := range cases {
		got := m.Nearest(c.in)
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("Nearest(%v) = %v, want %v", c.in, got, c.want)
				break
			}
		}
	}
}

func TestBoundedGridStaysInside(t *testing.T) {
	bounds := []optim.Bound{{Lower: -1, Upper: 1}}
	m := NewBounded(&Infinite{Step: 0.75}, bounds)
	got := m.Nearest([]float64{0.99})
	if got[0] > 1 {
		t.Errorf("grid rounding escaped bounds: %v", got)
	}
}

func DiffInUlps(x, y float64) uint64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0):
		return math.MaxInt64
	case x == y:
		return 0
	default:
		xi := math.Float64bits(x)
		yi := math.Float64bits(y)
		if xi > yi {
			return xi - yi
		}
		return yi - xi
	}
}

func TestRotation(t *testing.T) {
	r := Rotation(3, math.Pi/6)
	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	if !mat.EqualApprox(&rtr, Rotation(3, 0), 1e-12) {
		t.Errorf("rotation basis is not orthonormal: %v", mat.Formatted(&rtr))
	}
	if r.At(2, 2) != 1 || r.At(0, 2) != 0 || r.At(2, 0) != 0 {
		t.Errorf("third axis must be untouched: %v", mat.Formatted(r))
	}
	if one := Rotation(1, 1); one.At(0, 0) != 1 {
		t.Errorf("1-D rotation must be the identity, got %v", one.At(0, 0))
	}

	// a grid rotated by 90 degrees has the same points as the unrotated one
	sm := &Infinite{Step: 1, Basis: Rotation(2, math.Pi/2)}
	got := sm.Nearest([]float64{2.2, -0.9})
	if math.Abs(got[0]-2) > 1e-9 || math.Abs(got[1]+1) > 1e-9 {
		t.Errorf("got %v, want [2 -1]", got)
	}
}
