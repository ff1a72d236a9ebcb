package grammar

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/MichaelDuPlessis/velocity-evolver"
)

// State is the view of a particle a velocity rule reads.  Implementations
// must return copies so evaluation can never modify the particle.
type State interface {
	Position() []float64
	Velocity() []float64
	PersonalBest() []float64
}

// Constants are the values of the Cognitive, Social and Inertia leaves.
type Constants struct {
	Cognitive float64 `yaml:"cognitive"`
	Social    float64 `yaml:"social"`
	Inertia   float64 `yaml:"inertia"`
}

var DefaultConstants = Constants{Cognitive: 0.3, Social: 0.3, Inertia: 0.5}

// Evaluator computes velocity rules.  Rng supplies a fresh draw in [0, 1)
// for every Random leaf visited; it is not safe to share an Evaluator
// between goroutines unless Rng is.
type Evaluator struct {
	Constants
	Rng optim.Rng
}

func NewEvaluator(c Constants, rng optim.Rng) *Evaluator {
	return &Evaluator{Constants: c, Rng: rng}
}

// Vector evaluates tree for the particle cur given the swarm's best
// particle best.  The result has the dimensionality of the particles.
func (ev *Evaluator) Vector(tree *Vector, cur, best State) []float64 {
	switch tree.Op {
	case CurrentCoords:
		return cur.Position()
	case BestCoords:
		return best.Position()
	case CurrentPersonalBest:
		return cur.PersonalBest()
	case BestPersonalBest:
		return best.PersonalBest()
	case CurrentVelocity:
		return cur.Velocity()
	case BestVelocity:
		return best.Velocity()
	case VectorMul:
		v := ev.Vector(tree.Left, cur, best)
		floats.Scale(ev.Scalar(tree.Scale), v)
		return v
	case VectorAdd:
		v := ev.Vector(tree.Left, cur, best)
		floats.Add(v, ev.Vector(tree.Right, cur, best))
		return v
	case VectorSub:
		v := ev.Vector(tree.Left, cur, best)
		floats.Sub(v, ev.Vector(tree.Right, cur, best))
		return v
	}
	panic(fmt.Sprintf("malformed velocity rule: %v", tree.Op))
}

// Scalar evaluates a scalar sub-expression.
func (ev *Evaluator) Scalar(tree *Scalar) float64 {
	switch tree.Op {
	case Cognitive:
		return ev.Cognitive
	case Social:
		return ev.Social
	case Inertia:
		return ev.Inertia
	case Random:
		return ev.Rng.Float64()
	case ScalarMul:
		return ev.Scalar(tree.Left) * ev.Scalar(tree.Right)
	case ScalarAdd:
		return ev.Scalar(tree.Left) + ev.Scalar(tree.Right)
	case ScalarSub:
		return ev.Scalar(tree.Left) - ev.Scalar(tree.Right)
	}
	panic(fmt.Sprintf("malformed scalar expression: %v", tree.Op))
}

// Func partially applies ev to tree, giving the rule as a plain function of
// the two particles.
func (ev *Evaluator) Func(tree *Vector) func(cur, best State) []float64 {
	return func(cur, best State) []float64 {
		return ev.Vector(tree, cur, best)
	}
}
