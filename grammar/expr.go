// Package grammar decodes chromosomes into velocity-update rules and
// evaluates those rules against particle state.
//
// A rule is a Vector expression tree whose leaves read the current particle
// and the swarm's best particle, combined by vector addition, subtraction
// and scaling by Scalar expressions.  The Op of every node is also the
// production index that selects it during decoding, so the order of the
// constants below is part of the genome encoding and must not change.
package grammar

import (
	"fmt"
	"strings"
)

type VectorOp int

const (
	CurrentCoords VectorOp = iota
	BestCoords
	CurrentPersonalBest
	BestPersonalBest
	CurrentVelocity
	BestVelocity
	VectorMul
	VectorAdd
	VectorSub
)

var vectorNames = [...]string{
	CurrentCoords:       "x",
	BestCoords:          "g.x",
	CurrentPersonalBest: "p",
	BestPersonalBest:    "g.p",
	CurrentVelocity:     "v",
	BestVelocity:        "g.v",
}

func (op VectorOp) Terminal() bool { return op >= CurrentCoords && op <= BestVelocity }

func (op VectorOp) String() string {
	switch {
	case op.Terminal():
		return vectorNames[op]
	case op == VectorMul:
		return "*"
	case op == VectorAdd:
		return "+"
	case op == VectorSub:
		return "-"
	}
	return fmt.Sprintf("VectorOp(%d)", int(op))
}

type ScalarOp int

const (
	Cognitive ScalarOp = iota
	Social
	Inertia
	Random
	ScalarMul
	ScalarAdd
	ScalarSub
)

var scalarNames = [...]string{
	Cognitive: "c1",
	Social:    "c2",
	Inertia:   "w",
	Random:    "r",
}

func (op ScalarOp) Terminal() bool { return op >= Cognitive && op <= Random }

func (op ScalarOp) String() string {
	switch {
	case op.Terminal():
		return scalarNames[op]
	case op == ScalarMul:
		return "*"
	case op == ScalarAdd:
		return "+"
	case op == ScalarSub:
		return "-"
	}
	return fmt.Sprintf("ScalarOp(%d)", int(op))
}

// Vector is a node of a velocity rule.  VectorMul nodes use Left and Scale;
// VectorAdd and VectorSub nodes use Left and Right; terminals use neither.
type Vector struct {
	Op    VectorOp
	Left  *Vector
	Right *Vector
	Scale *Scalar
}

// Scalar is a node of a scalar sub-expression.  Non-terminals use Left and
// Right.
type Scalar struct {
	Op    ScalarOp
	Left  *Scalar
	Right *Scalar
}

// String renders the tree in fully parenthesized infix form, e.g.
// "((w * v) + ((c1 * r) * (p - x)))".
func (v *Vector) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v *Vector) write(b *strings.Builder) {
	switch v.Op {
	case VectorMul:
		b.WriteString("(")
		v.Scale.write(b)
		b.WriteString(" * ")
		v.Left.write(b)
		b.WriteString(")")
	case VectorAdd, VectorSub:
		b.WriteString("(")
		v.Left.write(b)
		fmt.Fprintf(b, " %v ", v.Op)
		v.Right.write(b)
		b.WriteString(")")
	default:
		b.WriteString(v.Op.String())
	}
}

func (s *Scalar) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s *Scalar) write(b *strings.Builder) {
	if s.Op.Terminal() {
		b.WriteString(s.Op.String())
		return
	}
	b.WriteString("(")
	s.Left.write(b)
	fmt.Fprintf(b, " %v ", s.Op)
	s.Right.write(b)
	b.WriteString(")")
}

// Depth returns the number of nodes on the longest root-to-leaf path,
// counting scalar sub-expressions.
func (v *Vector) Depth() int {
	switch v.Op {
	case VectorMul:
		return 1 + max(v.Left.Depth(), v.Scale.Depth())
	case VectorAdd, VectorSub:
		return 1 + max(v.Left.Depth(), v.Right.Depth())
	}
	return 1
}

func (s *Scalar) Depth() int {
	if s.Op.Terminal() {
		return 1
	}
	return 1 + max(s.Left.Depth(), s.Right.Depth())
}

// Size returns the total number of nodes, counting scalar sub-expressions.
func (v *Vector) Size() int {
	switch v.Op {
	case VectorMul:
		return 1 + v.Left.Size() + v.Scale.Size()
	case VectorAdd, VectorSub:
		return 1 + v.Left.Size() + v.Right.Size()
	}
	return 1
}

func (s *Scalar) Size() int {
	if s.Op.Terminal() {
		return 1
	}
	return 1 + s.Left.Size() + s.Right.Size()
}

// HasRandom reports whether any scalar leaf in the tree is Random.
func (v *Vector) HasRandom() bool {
	switch v.Op {
	case VectorMul:
		return v.Left.HasRandom() || v.Scale.HasRandom()
	case VectorAdd, VectorSub:
		return v.Left.HasRandom() || v.Right.HasRandom()
	}
	return false
}

func (s *Scalar) HasRandom() bool {
	if s.Op.Terminal() {
		return s.Op == Random
	}
	return s.Left.HasRandom() || s.Right.HasRandom()
}
