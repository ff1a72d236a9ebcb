// Package fitness scores velocity rules by flying them in repeated swarm runs
// over benchmark functions.
//
// Training reduces each repetition to the total squared error between the
// values found and the known minima of every training function; reporting
// summarizes the raw values found for a single function.  The canonical
// variants run the same machinery with the textbook velocity rule instead of
// a decoded one.
package fitness

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MichaelDuPlessis/velocity-evolver"
	"github.com/MichaelDuPlessis/velocity-evolver/bench"
	"github.com/MichaelDuPlessis/velocity-evolver/grammar"
	"github.com/MichaelDuPlessis/velocity-evolver/internal/logger"
	"github.com/MichaelDuPlessis/velocity-evolver/internal/metrics"
	"github.com/MichaelDuPlessis/velocity-evolver/swarm"
)

var ErrNoFunctions = errors.New("fitness: empty training set")

// Reduction selects which statistic of a training run log is used as a
// chromosome's fitness.
type Reduction int

const (
	ReduceMean Reduction = iota
	ReduceBest
)

func (r Reduction) String() string {
	switch r {
	case ReduceMean:
		return "mean"
	case ReduceBest:
		return "best"
	}
	return fmt.Sprintf("Reduction(%d)", int(r))
}

func (r *Reduction) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "mean", "avg":
		*r = ReduceMean
	case "best", "min":
		*r = ReduceBest
	default:
		return fmt.Errorf("unknown fitness reduction %q", text)
	}
	return nil
}

func (r Reduction) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

type Config struct {
	Runs       int                `yaml:"runs"`
	SwarmSize  int                `yaml:"swarm_size"`
	Iterations int                `yaml:"iterations"`
	Constants  grammar.Constants  `yaml:"constants"`
	Canonical  swarm.Coefficients `yaml:"canonical"`
	Reduction  Reduction          `yaml:"reduction"`
	Swarm      swarm.Config       `yaml:"swarm"`
}

func DefaultConfig() Config {
	return Config{
		Runs:       30,
		SwarmSize:  100,
		Iterations: 100,
		Constants:  grammar.DefaultConstants,
		Canonical:  swarm.DefaultCoefficients,
		Reduction:  ReduceMean,
	}
}

// Stats summarizes the values found over all repetitions.  Elapsed covers
// the whole batch.
type Stats struct {
	Min     float64
	Mean    float64
	StdDev  float64
	Elapsed time.Duration
}

// MSE holds the mean and the minimum over repetitions of the per-repetition
// total squared error.
type MSE struct {
	Avg     float64
	Best    float64
	Elapsed time.Duration
}

// RunLog holds the total squared error of each repetition.
type RunLog []float64

func (l RunLog) Avg() float64 {
	if len(l) == 0 {
		return math.NaN()
	}
	return stat.Mean(l, nil)
}

func (l RunLog) Best() float64 {
	if len(l) == 0 {
		return math.NaN()
	}
	return floats.Min(l)
}

func (l RunLog) Reduce(r Reduction) float64 {
	if r == ReduceBest {
		return l.Best()
	}
	return l.Avg()
}

// Summarize returns the minimum, mean and population standard deviation of
// xs.  All three are NaN for empty xs.
func Summarize(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{Min: math.NaN(), Mean: math.NaN(), StdDev: math.NaN()}
	}
	mean := stat.Mean(xs, nil)
	std := math.Sqrt(stat.MomentAbout(2, xs, mean, nil))
	return Stats{Min: floats.Min(xs), Mean: mean, StdDev: std}
}

// Pipeline evaluates rules for one task.  It is not safe for concurrent use:
// every call draws from the same Rng.
type Pipeline struct {
	cfg Config
	rng optim.Rng
	log *zap.Logger
}

func New(cfg Config, rng optim.Rng, log *zap.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, rng: rng, log: logger.OrNop(log)}
}

func (p *Pipeline) Config() Config { return p.cfg }

// Rule decodes genome into a velocity function drawing Random leaves from
// the pipeline's Rng.
func (p *Pipeline) Rule(genome []byte) (swarm.VelocityFunc, *grammar.Vector, error) {
	tree, err := grammar.Decode(genome)
	if err != nil {
		metrics.DecodesTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}
	metrics.DecodesTotal.WithLabelValues("ok").Inc()

	rule := grammar.NewEvaluator(p.cfg.Constants, p.rng).Func(tree)
	vel := func(cur, best *swarm.Particle) []float64 { return rule(cur, best) }
	return vel, tree, nil
}

func (p *Pipeline) canonical() swarm.VelocityFunc {
	return swarm.Canonical(p.cfg.Canonical, p.rng)
}

// Train decodes genome once and returns the average and best total squared
// error over Runs repetitions of flying it over every function in fns.
func (p *Pipeline) Train(genome []byte, fns []bench.Func) (MSE, error) {
	vel, tree, err := p.Rule(genome)
	if err != nil {
		return MSE{}, err
	}
	res, err := p.train("evolved", vel, fns)
	if err == nil {
		p.log.Debug("trained rule",
			zap.Stringer("rule", tree),
			zap.Int("functions", len(fns)),
			zap.Float64("avg_mse", res.Avg),
			zap.Float64("mse", res.Best),
		)
	}
	return res, err
}

// Fitness is Train reduced to a single value by the configured Reduction.
// Lower is better.
func (p *Pipeline) Fitness(genome []byte, fns []bench.Func) (float64, error) {
	vel, _, err := p.Rule(genome)
	if err != nil {
		return math.Inf(1), err
	}
	l, err := p.runLog("evolved", vel, fns)
	if err != nil {
		return math.Inf(1), err
	}
	return l.Reduce(p.cfg.Reduction), nil
}

// Report flies the rule encoded by genome over fn Runs times and summarizes
// the values found.
func (p *Pipeline) Report(genome []byte, fn bench.Func) (Stats, error) {
	vel, _, err := p.Rule(genome)
	if err != nil {
		return Stats{}, err
	}
	return p.report("evolved", vel, fn)
}

// ReportJoint summarizes the per-repetition total squared error of the rule
// encoded by genome over all of fns.
func (p *Pipeline) ReportJoint(genome []byte, fns []bench.Func) (Stats, error) {
	vel, _, err := p.Rule(genome)
	if err != nil {
		return Stats{}, err
	}
	return p.reportJoint("evolved", vel, fns)
}

func (p *Pipeline) CanonicalTrain(fns []bench.Func) (MSE, error) {
	return p.train("canonical", p.canonical(), fns)
}

func (p *Pipeline) CanonicalReport(fn bench.Func) (Stats, error) {
	return p.report("canonical", p.canonical(), fn)
}

func (p *Pipeline) CanonicalReportJoint(fns []bench.Func) (Stats, error) {
	return p.reportJoint("canonical", p.canonical(), fns)
}

func (p *Pipeline) train(kind string, vel swarm.VelocityFunc, fns []bench.Func) (MSE, error) {
	start := time.Now()
	l, err := p.runLog(kind, vel, fns)
	if err != nil {
		return MSE{}, err
	}
	return MSE{Avg: l.Avg(), Best: l.Best(), Elapsed: time.Since(start)}, nil
}

func (p *Pipeline) report(kind string, vel swarm.VelocityFunc, fn bench.Func) (Stats, error) {
	start := time.Now()
	found := make([]float64, p.cfg.Runs)
	for r := range found {
		y, err := p.fly(kind, vel, fn)
		if err != nil {
			return Stats{}, err
		}
		found[r] = y
	}
	s := Summarize(found)
	s.Elapsed = time.Since(start)
	return s, nil
}

func (p *Pipeline) reportJoint(kind string, vel swarm.VelocityFunc, fns []bench.Func) (Stats, error) {
	start := time.Now()
	l, err := p.runLog(kind, vel, fns)
	if err != nil {
		return Stats{}, err
	}
	s := Summarize(l)
	s.Elapsed = time.Since(start)
	return s, nil
}

func (p *Pipeline) runLog(kind string, vel swarm.VelocityFunc, fns []bench.Func) (RunLog, error) {
	if len(fns) == 0 {
		return nil, ErrNoFunctions
	}
	l := make(RunLog, p.cfg.Runs)
	for r := range l {
		for _, fn := range fns {
			y, err := p.fly(kind, vel, fn)
			if err != nil {
				return nil, err
			}
			d := y - fn.Minimum()
			l[r] += d * d
		}
	}
	return l, nil
}

// fly runs one swarm over fn and returns fn evaluated at the best position
// found.
func (p *Pipeline) fly(kind string, vel swarm.VelocityFunc, fn bench.Func) (float64, error) {
	opts := append(p.cfg.Swarm.Options(fn.Bounds()), swarm.Rng(p.rng), swarm.Evaler(countingEvaler{kind: kind}))
	best, err := swarm.Run(p.cfg.SwarmSize, p.cfg.Iterations, fn.Bounds(), vel, bench.Objective(fn), opts...)
	if err != nil {
		return math.Inf(1), fmt.Errorf("%v: %w", fn.Name(), err)
	}
	metrics.SwarmRunsTotal.WithLabelValues(kind).Inc()
	return fn.Eval(best.Best.Pos()), nil
}

// countingEvaler evaluates serially and counts objective evaluations per
// rule kind.
type countingEvaler struct {
	optim.SerialEvaler
	kind string
}

func (e countingEvaler) Eval(obj optim.Objectiver, points ...optim.Point) ([]optim.Point, int, error) {
	results, n, err := e.SerialEvaler.Eval(obj, points...)
	metrics.ObjectiveEvalsTotal.WithLabelValues(e.kind).Add(float64(n))
	return results, n, err
}
