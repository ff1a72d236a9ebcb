package grammar

import (
	"errors"
	"fmt"
)

// MaxWraps is the number of times decoding may wrap around the end of a
// chromosome while recursive productions are still on offer.  Once the
// cursor has wrapped more than MaxWraps times only terminals can be chosen,
// so every open branch closes and decoding terminates.
const MaxWraps = 3

// Production table sizes.  Terminals occupy the low indices of each table.
const (
	NumVectorRules     = int(VectorSub) + 1
	NumVectorTerminals = int(BestVelocity) + 1
	NumScalarRules     = int(ScalarSub) + 1
	NumScalarTerminals = int(Random) + 1
)

var ErrInvalidGenome = errors.New("invalid genome: chromosome is empty")

// Decode builds the velocity rule encoded by genome.  It only fails for an
// empty genome.
func Decode(genome []byte) (*Vector, error) {
	v, _, err := DecodeCount(genome)
	return v, err
}

// DecodeCount is Decode but also reports the number of codons consumed,
// including re-reads after wrapping.
func DecodeCount(genome []byte) (*Vector, int, error) {
	if len(genome) == 0 {
		return nil, 0, ErrInvalidGenome
	}
	d := &decoder{genome: genome}
	v := d.vector()
	return v, d.pos, nil
}

// decoder holds the cursor shared by the vector and scalar productions of a
// single decode pass.
type decoder struct {
	genome []byte
	pos    int
}

// next consumes one codon and returns the production it selects from a
// table with nrules entries, of which the first nterm are terminals.
func (d *decoder) next(nrules, nterm int) int {
	codon := d.genome[d.pos%len(d.genome)]
	wraps := d.pos / len(d.genome)
	d.pos++
	if wraps > MaxWraps {
		nrules = nterm
	}
	return int(codon) % nrules
}

func (d *decoder) vector() *Vector {
	op := VectorOp(d.next(NumVectorRules, NumVectorTerminals))
	switch {
	case op.Terminal():
		return &Vector{Op: op}
	case op == VectorMul:
		left := d.vector()
		return &Vector{Op: op, Left: left, Scale: d.scalar()}
	case op == VectorAdd, op == VectorSub:
		left := d.vector()
		return &Vector{Op: op, Left: left, Right: d.vector()}
	}
	panic(fmt.Sprintf("unreachable vector production %d", int(op)))
}

func (d *decoder) scalar() *Scalar {
	op := ScalarOp(d.next(NumScalarRules, NumScalarTerminals))
	switch {
	case op.Terminal():
		return &Scalar{Op: op}
	case op == ScalarMul, op == ScalarAdd, op == ScalarSub:
		left := d.scalar()
		return &Scalar{Op: op, Left: left, Right: d.scalar()}
	}
	panic(fmt.Sprintf("unreachable scalar production %d", int(op)))
}
