// Package bench provides the benchmark objective functions with known global
// minima that velocity rules are trained and scored against.  See
// http://en.wikipedia.org/wiki/Test_functions_for_optimization.
package bench

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/MichaelDuPlessis/velocity-evolver"
)

var (
	sin  = math.Sin
	cos  = math.Cos
	abs  = math.Abs
	exp  = math.Exp
	sqrt = math.Sqrt
)

// Func is a benchmark objective.  Implementations are immutable and safe for
// concurrent use.
type Func interface {
	Name() string
	Eval(v []float64) float64
	Bounds() []optim.Bound
	// Minimum is the documented global minimum value.
	Minimum() float64
}

// Objective adapts fn to the optim.Objectiver interface.
func Objective(fn Func) optim.Objectiver { return optim.SimpleObjectiver(fn.Eval) }

// Catalog returns the fixed benchmark set used for training and reporting,
// built for ndim dimensions.  The order is stable: a function's index is its
// row in every result file.
func Catalog(ndim int) []Func {
	return []Func{
		Matyas{NDim: ndim},
		SixHumpCamel{NDim: ndim},
		SumSquares{NDim: ndim},
		Schwefel222{NDim: ndim},
		Schwefel12{NDim: ndim},
		Schwefel221{NDim: ndim},
		Sphere{NDim: ndim},
		Quartic{NDim: ndim},
		SumDiffPowers{NDim: ndim},
		Elliptic{NDim: ndim},
		Step{NDim: ndim},
		QuarticNoise{NDim: ndim},
		Rastrigin{NDim: ndim},
	}
}

// Classic returns a second set of well known functions.  Eggholder is
// inherently 2-D and only included when ndim == 2.
func Classic(ndim int) []Func {
	fns := []Func{
		Ackley{NDim: ndim},
		Rosenbrock{NDim: ndim},
		Styblinski{NDim: ndim},
	}
	if ndim == 2 {
		fns = append(fns, Eggholder{})
	}
	return fns
}

// Custom wraps an arbitrary objective closure.
type Custom struct {
	Label string
	Fn    func(v []float64) float64
	Box   []optim.Bound
	Min   float64
}

func (fn Custom) Name() string { return fn.Label }
func (fn Custom) Eval(v []float64) float64 { return fn.Fn(v) }
func (fn Custom) Bounds() []optim.Bound { return append([]optim.Bound{}, fn.Box...) }
func (fn Custom) Minimum() float64 { return fn.Min }

// Matyas only depends on the first two coordinates; higher dimensions are
// ignored by the objective but still searched by the swarm.
type Matyas struct{ NDim int }

func (fn Matyas) Name() string { return fmt.Sprintf("Matyas_%vD", fn.NDim) }

func (fn Matyas) Eval(v []float64) float64 {
	x, y := v[0], second(v)
	return 0.26*(x*x+y*y) - 0.48*x*y
}

func (fn Matyas) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -10, 10) }
func (fn Matyas) Minimum() float64 { return 0 }

// SixHumpCamel only depends on the first two coordinates.
type SixHumpCamel struct{ NDim int }

func (fn SixHumpCamel) Name() string { return fmt.Sprintf("SixHumpCamel_%vD", fn.NDim) }

func (fn SixHumpCamel) Eval(v []float64) float64 {
	x, y := v[0], second(v)
	x2, y2 := x*x, y*y
	return 4*x2 - 2.1*x2*x2 + x2*x2*x2/3 + x*y - 4*y2 + 4*y2*y2
}

func (fn SixHumpCamel) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -5, 5) }
func (fn SixHumpCamel) Minimum() float64 { return -1.0316 }

type SumSquares struct{ NDim int }

func (fn SumSquares) Name() string { return fmt.Sprintf("SumSquares_%vD", fn.NDim) }

func (fn SumSquares) Eval(v []float64) float64 {
	tot := 0.0
	for i, x := range v {
		tot += float64(i+1) * x * x
	}
	return tot
}

func (fn SumSquares) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -10, 10) }
func (fn SumSquares) Minimum() float64 { return 0 }

type Schwefel222 struct{ NDim int }

func (fn Schwefel222) Name() string { return fmt.Sprintf("Schwefel2.22_%vD", fn.NDim) }

func (fn Schwefel222) Eval(v []float64) float64 {
	sum, prod := 0.0, 1.0
	for _, x := range v {
		sum += abs(x)
		prod *= abs(x)
	}
	return sum + prod
}

func (fn Schwefel222) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -10, 10) }
func (fn Schwefel222) Minimum() float64 { return 0 }

type Schwefel12 struct{ NDim int }

func (fn Schwefel12) Name() string { return fmt.Sprintf("Schwefel1.2_%vD", fn.NDim) }

func (fn Schwefel12) Eval(v []float64) float64 {
	tot, partial := 0.0, 0.0
	for _, x := range v {
		partial += x
		tot += partial * partial
	}
	return tot
}

func (fn Schwefel12) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -100, 100) }
func (fn Schwefel12) Minimum() float64 { return 0 }

type Schwefel221 struct{ NDim int }

func (fn Schwefel221) Name() string { return fmt.Sprintf("Schwefel2.21_%vD", fn.NDim) }

func (fn Schwefel221) Eval(v []float64) float64 {
	max := 0.0
	for _, x := range v {
		max = math.Max(max, abs(x))
	}
	return max
}

func (fn Schwefel221) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -100, 100) }
func (fn Schwefel221) Minimum() float64 { return 0 }

type Sphere struct{ NDim int }

func (fn Sphere) Name() string { return fmt.Sprintf("Sphere_%vD", fn.NDim) }

func (fn Sphere) Eval(v []float64) float64 {
	tot := 0.0
	for _, x := range v {
		tot += x * x
	}
	return tot
}

func (fn Sphere) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -10, 10) }
func (fn Sphere) Minimum() float64 { return 0 }

type Quartic struct{ NDim int }

func (fn Quartic) Name() string { return fmt.Sprintf("Quartic_%vD", fn.NDim) }

func (fn Quartic) Eval(v []float64) float64 {
	tot := 0.0
	for i, x := range v {
		x2 := x * x
		tot += float64(i+1) * x2 * x2
	}
	return tot
}

func (fn Quartic) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -1.28, 1.28) }
func (fn Quartic) Minimum() float64 { return 0 }

type SumDiffPowers struct{ NDim int }

func (fn SumDiffPowers) Name() string { return fmt.Sprintf("SumDiffPowers_%vD", fn.NDim) }

func (fn SumDiffPowers) Eval(v []float64) float64 {
	tot := 0.0
	for i, x := range v {
		tot += math.Pow(abs(x), float64(i+2))
	}
	return tot
}

func (fn SumDiffPowers) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -1, 1) }
func (fn SumDiffPowers) Minimum() float64 { return 0 }

// Elliptic is the high conditioned elliptic function.
type Elliptic struct{ NDim int }

func (fn Elliptic) Name() string { return fmt.Sprintf("Elliptic_%vD", fn.NDim) }

func (fn Elliptic) Eval(v []float64) float64 {
	if len(v) == 1 {
		return v[0] * v[0]
	}
	tot := 0.0
	for i, x := range v {
		tot += math.Pow(1e6, float64(i)/float64(len(v)-1)) * x * x
	}
	return tot
}

func (fn Elliptic) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -100, 100) }
func (fn Elliptic) Minimum() float64 { return 0 }

type Step struct{ NDim int }

func (fn Step) Name() string { return fmt.Sprintf("Step_%vD", fn.NDim) }

func (fn Step) Eval(v []float64) float64 {
	tot := 0.0
	for _, x := range v {
		f := math.Floor(x + 0.5)
		tot += f * f
	}
	return tot
}

func (fn Step) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -1.28, 1.28) }
func (fn Step) Minimum() float64 { return 0 }

// QuarticNoise is Quartic plus uniform noise in [0, 1).  The noise is drawn
// from Rng, or from the global math/rand source when Rng is nil.  An Rng
// must not be shared between goroutines; see WithRng.
type QuarticNoise struct {
	NDim int
	Rng  optim.Rng
}

func (fn QuarticNoise) Name() string { return fmt.Sprintf("QuarticNoise_%vD", fn.NDim) }

func (fn QuarticNoise) Eval(v []float64) float64 {
	noise := rand.Float64
	if fn.Rng != nil {
		noise = fn.Rng.Float64
	}
	return Quartic{NDim: fn.NDim}.Eval(v) + noise()
}

func (fn QuarticNoise) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -1.28, 1.28) }
func (fn QuarticNoise) Minimum() float64 { return 0 }

type Rastrigin struct{ NDim int }

func (fn Rastrigin) Name() string { return fmt.Sprintf("Rastrigin_%vD", fn.NDim) }

func (fn Rastrigin) Eval(v []float64) float64 {
	tot := 0.0
	for _, x := range v {
		tot += x*x - 10*cos(2*math.Pi*x) + 10
	}
	return tot
}

func (fn Rastrigin) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -5.12, 5.12) }
func (fn Rastrigin) Minimum() float64 { return 0 }

type Ackley struct{ NDim int }

func (fn Ackley) Name() string { return fmt.Sprintf("Ackley_%vD", fn.NDim) }

func (fn Ackley) Eval(v []float64) float64 {
	sumsq, sumcos := 0.0, 0.0
	for _, x := range v {
		sumsq += x * x
		sumcos += cos(2 * math.Pi * x)
	}
	n := float64(len(v))
	return -20*exp(-0.2*sqrt(sumsq/n)) - exp(sumcos/n) + 20 + math.E
}

func (fn Ackley) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -5, 5) }
func (fn Ackley) Minimum() float64 { return 0 }

type Rosenbrock struct{ NDim int }

func (fn Rosenbrock) Name() string { return fmt.Sprintf("Rosenbrock_%vD", fn.NDim) }

func (fn Rosenbrock) Eval(x []float64) float64 {
	tot := 0.0
	for i := 0; i < len(x)-1; i++ {
		tot += 100*math.Pow(x[i+1]-x[i]*x[i], 2) + math.Pow(x[i]-1, 2)
	}
	return tot
}

func (fn Rosenbrock) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -30, 30) }
func (fn Rosenbrock) Minimum() float64 { return 0 }

type Styblinski struct{ NDim int }

func (fn Styblinski) Name() string { return fmt.Sprintf("Styblinski_%vD", fn.NDim) }

func (fn Styblinski) Eval(x []float64) float64 {
	tot := 0.0
	for _, v := range x {
		tot += math.Pow(v, 4) - 16*math.Pow(v, 2) + 5*v
	}
	return tot / 2
}

func (fn Styblinski) Bounds() []optim.Bound { return optim.UniformBounds(fn.NDim, -5, 5) }
func (fn Styblinski) Minimum() float64 { return -39.16599 * float64(fn.NDim) }

type Eggholder struct{}

func (fn Eggholder) Name() string { return "Eggholder" }

func (fn Eggholder) Eval(v []float64) float64 {
	x := v[0]
	y := v[1]
	return -(y+47)*sin(sqrt(abs(y+x/2+47))) - x*sin(sqrt(abs(x-(y+47))))
}

func (fn Eggholder) Bounds() []optim.Bound { return optim.UniformBounds(2, -512, 512) }
func (fn Eggholder) Minimum() float64 { return -959.6407 }

// WithRng returns fn with its random draws taken from rng.  Functions
// without noise are returned unchanged.
func WithRng(fn Func, rng optim.Rng) Func {
	if q, ok := fn.(QuarticNoise); ok {
		q.Rng = rng
		return q
	}
	return fn
}

// WithRngAll applies WithRng to every function in fns.
func WithRngAll(fns []Func, rng optim.Rng) []Func {
	out := make([]Func, len(fns))
	for i, fn := range fns {
		out[i] = WithRng(fn, rng)
	}
	return out
}

func second(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	return v[1]
}
