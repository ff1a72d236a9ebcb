package bench_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MichaelDuPlessis/velocity-evolver"
	"github.com/MichaelDuPlessis/velocity-evolver/bench"
	"github.com/MichaelDuPlessis/velocity-evolver/swarm"
)

func fill(ndim int, v float64) []float64 {
	x := make([]float64, ndim)
	for i := range x {
		x[i] = v
	}
	return x
}

func TestCatalogShape(t *testing.T) {
	for _, ndim := range []int{2, 30} {
		fns := bench.Catalog(ndim)
		require.Len(t, fns, 13)

		names := map[string]bool{}
		for _, fn := range fns {
			assert.False(t, names[fn.Name()], "duplicate %v", fn.Name())
			names[fn.Name()] = true
			assert.Len(t, fn.Bounds(), ndim, fn.Name())
			assert.NoError(t, optim.ValidateBounds(fn.Bounds()), fn.Name())
		}
	}

	fns := bench.Catalog(2)
	assert.Equal(t, "Matyas_2D", fns[0].Name())
	assert.Equal(t, "Rastrigin_2D", fns[12].Name())
}

func TestMinimaAtOrigin(t *testing.T) {
	for _, ndim := range []int{1, 2, 30} {
		for _, fn := range bench.Catalog(ndim) {
			switch fn.(type) {
			case bench.SixHumpCamel:
				continue
			case bench.QuarticNoise:
				y := fn.Eval(fill(ndim, 0))
				assert.GreaterOrEqual(t, y, 0.0)
				assert.Less(t, y, 1.0)
				continue
			}
			assert.Equal(t, fn.Minimum(), fn.Eval(fill(ndim, 0)), fn.Name())
		}
	}
}

func TestMinimaAtKnownPoints(t *testing.T) {
	tests := []struct {
		fn  bench.Func
		at  []float64
		tol float64
	}{
		{bench.SixHumpCamel{NDim: 2}, []float64{0.0898, -0.7126}, 1e-4},
		{bench.SixHumpCamel{NDim: 5}, []float64{-0.0898, 0.7126, 3, 3, 3}, 1e-4},
		{bench.Ackley{NDim: 4}, fill(4, 0), 1e-12},
		{bench.Rosenbrock{NDim: 6}, fill(6, 1), 0},
		{bench.Styblinski{NDim: 3}, fill(3, -2.903534), 1e-3},
		{bench.Eggholder{}, []float64{512, 404.2319}, 1e-3},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.fn.Minimum(), tt.fn.Eval(tt.at), tt.tol, tt.fn.Name())
	}
}

func TestNoValueBelowMinimum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	fns := append(bench.Catalog(2), bench.Classic(2)...)
	for _, fn := range fns {
		for i := 0; i < 2000; i++ {
			x := make([]float64, 2)
			for j, b := range fn.Bounds() {
				x[j] = b.Lower + rng.Float64()*b.Width()
			}
			require.GreaterOrEqual(t, fn.Eval(x), fn.Minimum()-1e-3, "%v at %v", fn.Name(), x)
		}
	}
}

func TestSchwefel12(t *testing.T) {
	fn := bench.Schwefel12{NDim: 3}
	// 1^2 + (1+2)^2 + (1+2+3)^2
	assert.Equal(t, 46.0, fn.Eval([]float64{1, 2, 3}))
}

func TestClassic(t *testing.T) {
	assert.Len(t, bench.Classic(2), 4)
	assert.Len(t, bench.Classic(3), 3)
}

func TestCustom(t *testing.T) {
	fn := bench.Custom{
		Label: "shifted",
		Fn:    func(v []float64) float64 { return v[0] - 1 },
		Box:   optim.UniformBounds(1, 0, 1),
		Min:   -1,
	}
	b := fn.Bounds()
	b[0].Lower = 100
	assert.Equal(t, 0.0, fn.Bounds()[0].Lower, "bounds must be returned by copy")
	assert.Equal(t, -1.0, fn.Eval([]float64{0}))
}

func TestQuarticNoiseRng(t *testing.T) {
	fns := bench.Catalog(3)
	draw := func(seed int64) []float64 {
		seeded := bench.WithRngAll(fns, rand.New(rand.NewSource(seed)))
		var ys []float64
		for i := 0; i < 5; i++ {
			ys = append(ys, seeded[11].Eval(fill(3, 0)))
		}
		return ys
	}
	assert.Equal(t, draw(3), draw(3), "same seed must give the same noise")
	assert.NotEqual(t, draw(3), draw(4))

	// functions without noise are left alone
	assert.Equal(t, fns[6], bench.WithRng(fns[6], rand.New(rand.NewSource(1))))
	_, ok := fns[11].(bench.QuarticNoise)
	require.True(t, ok)
	assert.Nil(t, fns[11].(bench.QuarticNoise).Rng, "the catalog itself carries no source")
}

func TestSwarmSolvesCatalog(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, fn := range []bench.Func{bench.Sphere{NDim: 2}, bench.Matyas{NDim: 2}, bench.SumSquares{NDim: 3}} {
		best, err := swarm.Run(30, 150, fn.Bounds(), swarm.Canonical(swarm.DefaultCoefficients, rng), bench.Objective(fn), swarm.Rng(rng))
		require.NoError(t, err)
		if math.Abs(best.Best.Val-fn.Minimum()) > 1e-3 {
			t.Errorf("[FAIL:%v] optimum is %v, got %v", fn.Name(), fn.Minimum(), best.Best.Val)
		} else {
			t.Logf("[pass:%v] optimum is %v, got %v", fn.Name(), fn.Minimum(), best.Best.Val)
		}
	}
}
