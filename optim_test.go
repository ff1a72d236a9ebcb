package optim

import (
	"errors"
	"math"
	"testing"
)

const errcount = 3

type ErrObj struct {
	count int
}

func (o *ErrObj) Objective(x []float64) (float64, error) {
	o.count++
	if o.count >= errcount {
		return math.Inf(1), errors.New("fake error")
	}
	return 0, nil
}

func TestSerialEvalerErr(t *testing.T) {
	obj := &ErrObj{}
	ev := SerialEvaler{}

	results, n, err := ev.Eval(obj, Point{}, Point{}, Point{}, Point{}, Point{})
	if len(results) != errcount {
		t.Errorf("returned wrong number of results: expected %v, got %v", errcount, len(results))
	}
	if n != errcount {
		t.Errorf("returned wrong evaluation count: expected %v, got %v", errcount, n)
	}
	if err == nil {
		t.Errorf("did not propogate error through return")
	}
}

func TestSerialEvalerContinueOnErr(t *testing.T) {
	obj := &ErrObj{}
	ev := SerialEvaler{ContinueOnErr: true}

	results, n, err := ev.Eval(obj, Point{}, Point{}, Point{}, Point{}, Point{})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(results) != 5 || n != 5 {
		t.Errorf("expected all 5 points evaluated, got %v results and %v evals", len(results), n)
	}
}

func TestPointCopies(t *testing.T) {
	pos := []float64{1, 2, 3}
	p := NewPoint(pos, 7)
	pos[0] = 100
	if p.At(0) != 1 {
		t.Errorf("NewPoint aliased its input: got %v", p.At(0))
	}

	got := p.Pos()
	got[1] = 100
	if p.At(1) != 2 {
		t.Errorf("Pos aliased internal storage: got %v", p.At(1))
	}
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name   string
		bounds []Bound
		ok     bool
	}{
		{"empty", nil, false},
		{"inverted", []Bound{{Lower: 1, Upper: -1}}, false},
		{"infinite", []Bound{{Lower: math.Inf(-1), Upper: 0}}, false},
		{"nan", []Bound{{Lower: math.NaN(), Upper: 0}}, false},
		{"point", []Bound{{Lower: 2, Upper: 2}}, true},
		{"box", UniformBounds(30, -10, 10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBounds(tt.bounds)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			} else if !tt.ok && !errors.Is(err, ErrBounds) {
				t.Errorf("expected ErrBounds, got %v", err)
			}
		})
	}
}

func TestSplitBounds(t *testing.T) {
	low, up := SplitBounds([]Bound{{-1, 1}, {-5, 10}})
	if low[0] != -1 || low[1] != -5 || up[0] != 1 || up[1] != 10 {
		t.Errorf("got low=%v up=%v", low, up)
	}
}
