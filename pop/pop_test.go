package pop

import (
	"math"
	"testing"

	"github.com/MichaelDuPlessis/velocity-evolver"
)

func TestNewInsideBounds(t *testing.T) {
	rng := optim.NewRng(1)
	bounds := []optim.Bound{{Lower: -5, Upper: 5}, {Lower: 0, Upper: 100}, {Lower: 3, Upper: 3}}

	points := New(rng, 200, bounds)
	if len(points) != 200 {
		t.Fatalf("expected 200 points, got %v", len(points))
	}
	for i, p := range points {
		if p.Len() != len(bounds) {
			t.Fatalf("point %v has %v dims, want %v", i, p.Len(), len(bounds))
		}
		if !math.IsInf(p.Val, 1) {
			t.Errorf("point %v value initialized to %v, want +Inf", i, p.Val)
		}
		for j, b := range bounds {
			if p.At(j) < b.Lower || p.At(j) > b.Upper {
				t.Errorf("point %v axis %v = %v outside [%v, %v]", i, j, p.At(j), b.Lower, b.Upper)
			}
		}
	}
}

func TestNewDeterministicForSeed(t *testing.T) {
	bounds := optim.UniformBounds(3, -1, 1)
	a := New(optim.NewRng(42), 10, bounds)
	b := New(optim.NewRng(42), 10, bounds)
	for i := range a {
		for j := 0; j < a[i].Len(); j++ {
			if a[i].At(j) != b[i].At(j) {
				t.Fatalf("same seed produced different points at %v,%v", i, j)
			}
		}
	}
}

func TestVelocities(t *testing.T) {
	rng := optim.NewRng(3)
	vmax := []float64{2, math.Inf(1)}

	vels := Velocities(rng, 50, vmax)
	for i, v := range vels {
		if math.Abs(v[0]) > 2 {
			t.Errorf("velocity %v axis 0 = %v exceeds vmax 2", i, v[0])
		}
		if v[1] != 0 {
			t.Errorf("velocity %v axis 1 = %v, want 0 for infinite vmax", i, v[1])
		}
	}
}
