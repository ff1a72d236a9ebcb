// Package experiment runs one evaluation task per benchmark function, plus
// a joint task over the whole catalog, on a bounded worker pool and persists
// the results in catalog order.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MichaelDuPlessis/velocity-evolver"
	"github.com/MichaelDuPlessis/velocity-evolver/bench"
	"github.com/MichaelDuPlessis/velocity-evolver/fitness"
	"github.com/MichaelDuPlessis/velocity-evolver/ge"
	"github.com/MichaelDuPlessis/velocity-evolver/grammar"
	"github.com/MichaelDuPlessis/velocity-evolver/internal/logger"
	"github.com/MichaelDuPlessis/velocity-evolver/internal/metrics"
)

var (
	ErrPersistence = errors.New("experiment: persistence failure")
	ErrTaskPanic   = errors.New("experiment: task panicked")
	ErrPlan        = errors.New("experiment: invalid plan")
)

// JointName names the task trained on every function of a plan.
const JointName = "joint"

type RuleKind int

const (
	Evolved RuleKind = iota
	Canonical
)

func (k RuleKind) String() string {
	if k == Canonical {
		return "canonical"
	}
	return "evolved"
}

// ParseRuleKind accepts "evolved" or "canonical".
func ParseRuleKind(s string) (RuleKind, error) {
	switch strings.ToLower(s) {
	case "evolved":
		return Evolved, nil
	case "canonical":
		return Canonical, nil
	}
	return 0, fmt.Errorf("unknown rule kind %q", s)
}

type ReportKind int

const (
	MSE ReportKind = iota
	Stats
)

func (k ReportKind) String() string {
	if k == Stats {
		return "stats"
	}
	return "mse"
}

// ParseReportKind accepts "mse" or "stats".
func ParseReportKind(s string) (ReportKind, error) {
	switch strings.ToLower(s) {
	case "mse":
		return MSE, nil
	case "stats":
		return Stats, nil
	}
	return 0, fmt.Errorf("unknown report kind %q", s)
}

// Plan describes one experiment: a rule kind and a report kind evaluated
// over every function of a catalog built for Dim dimensions.
type Plan struct {
	Dim       int
	Rule      RuleKind
	Report    ReportKind
	Functions []bench.Func
}

func (p Plan) String() string {
	return fmt.Sprintf("%v/%v/%vD", p.Rule, p.Report, p.Dim)
}

type Config struct {
	// Workers bounds the number of tasks run at once.  Zero means one per
	// CPU.
	Workers int `yaml:"workers"`
	// Seed seeds task i's random source with Seed+i.  Zero seeds from the
	// clock.
	Seed    int64          `yaml:"seed"`
	Fitness fitness.Config `yaml:"fitness"`
	Search  ge.Config      `yaml:"search"`
	// SearchRuns is the number of repetitions behind each fitness value
	// seen by the search.  The final rule is always evaluated with
	// Fitness.Runs repetitions.
	SearchRuns int `yaml:"search_runs"`
}

func DefaultConfig() Config {
	return Config{
		Fitness:    fitness.DefaultConfig(),
		Search:     ge.DefaultConfig(),
		SearchRuns: 1,
	}
}

// Result is the outcome of one task.  Index is the function's position in
// the plan, or len(Functions) for the joint task.  A failed task keeps its
// place with Failed set and no values.
type Result struct {
	Index    int
	Function string
	Seed     int64
	Failed   bool
	// Genome, Rule and SearchElapsed are empty for canonical tasks.
	Genome        []byte
	Rule          string
	SearchElapsed time.Duration
	MSE           fitness.MSE
	Stats         fitness.Stats
}

// Runner executes plans.  OutDir, if set, receives one CSV file per plan;
// Store, if set, receives every result row.
type Runner struct {
	Config Config
	Logger *zap.Logger
	OutDir string
	Store  *Store
}

// Run executes every task of plan and returns one result per task sorted by
// index, so that result i always belongs to function i.  Failed tasks are
// returned as placeholders with Failed set; their errors are joined into the
// returned error.  A persistence failure is returned on its own and wraps
// ErrPersistence.
func (r *Runner) Run(ctx context.Context, plan Plan) ([]Result, error) {
	if plan.Dim < 1 || len(plan.Functions) == 0 {
		return nil, fmt.Errorf("%w: %v with %d functions", ErrPlan, plan, len(plan.Functions))
	}

	log := logger.OrNop(r.Logger).With(zap.Stringer("plan", plan))
	workers := r.Config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	base := r.Config.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}
	runID := uuid.New()
	log.Info("starting experiment",
		zap.Stringer("run_id", runID),
		zap.Int("tasks", len(plan.Functions)+1),
		zap.Int("workers", workers),
		zap.Int64("seed", base),
	)

	var (
		mu      sync.Mutex
		results []Result
		errs    []error
	)
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := 0; i <= len(plan.Functions); i++ {
		i := i
		g.Go(func() error {
			seed := base + int64(i)
			res, err := r.task(ctx, log, plan, i, seed)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("task %d (%s): %w", i, taskName(plan, i), err))
				res = Result{Index: i, Function: taskName(plan, i), Seed: seed, Failed: true}
			}
			results = append(results, res)
			return nil
		})
	}
	// tasks report failures through errs and never return an error
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	if r.OutDir != "" {
		path := OutputPath(r.OutDir, plan.Rule, plan.Report, plan.Dim)
		if err := Save(path, plan.Report, results); err != nil {
			return results, err
		}
		log.Info("wrote results", zap.String("path", path), zap.Int("rows", len(results)))
	}
	if r.Store != nil {
		if err := r.Store.Save(ctx, runID, plan, results); err != nil {
			return results, err
		}
	}

	for _, err := range errs {
		log.Error("task failed", zap.Error(err))
	}
	return results, errors.Join(errs...)
}

func taskName(plan Plan, i int) string {
	if i == len(plan.Functions) {
		return JointName
	}
	return plan.Functions[i].Name()
}

// task runs task i with its own random source.  Panics are recovered into
// the returned error so that one bad task cannot take down the pool.
func (r *Runner) task(ctx context.Context, log *zap.Logger, plan Plan, i int, seed int64) (res Result, err error) {
	start := time.Now()
	name := taskName(plan, i)
	log = log.With(zap.String("function", name), zap.Int("task", i))
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, rec)
		}
		metrics.TaskDuration.WithLabelValues(plan.Rule.String(), plan.Report.String()).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.TaskFailuresTotal.WithLabelValues(plan.Rule.String(), plan.Report.String()).Inc()
		}
	}()

	fns := plan.Functions
	joint := i == len(plan.Functions)
	if !joint {
		fns = plan.Functions[i : i+1]
	}

	rng := optim.NewRng(seed)
	fns = bench.WithRngAll(fns, rng)
	p := fitness.New(r.Config.Fitness, rng, log)
	res = Result{Index: i, Function: name, Seed: seed}

	if plan.Rule == Canonical {
		switch {
		case plan.Report == MSE:
			res.MSE, err = p.CanonicalTrain(fns)
		case joint:
			res.Stats, err = p.CanonicalReportJoint(fns)
		default:
			res.Stats, err = p.CanonicalReport(fns[0])
		}
		if err == nil {
			log.Info("task done", zap.Duration("elapsed", time.Since(start)))
		}
		return res, err
	}

	scfg := r.Config.Fitness
	scfg.Runs = max(r.Config.SearchRuns, 1)
	sp := fitness.New(scfg, rng, log)
	search := ge.New(r.Config.Search, func(genome []byte) (float64, error) {
		return sp.Fitness(genome, fns)
	}, rng, log)
	found, err := search.Run(ctx)
	res.SearchElapsed = time.Since(start)
	if err != nil {
		return res, err
	}
	tree, err := grammar.Decode(found.Best.Genome)
	if err != nil {
		return res, err
	}
	res.Genome = found.Best.Genome
	res.Rule = tree.String()
	log.Info("search done",
		zap.String("rule", res.Rule),
		zap.Float64("fitness", found.Best.Fitness),
		zap.Int("evaluations", found.Evaluations),
		zap.Duration("elapsed", res.SearchElapsed),
	)

	switch {
	case plan.Report == MSE:
		res.MSE, err = p.Train(res.Genome, fns)
	case joint:
		res.Stats, err = p.ReportJoint(res.Genome, fns)
	default:
		res.Stats, err = p.Report(res.Genome, fns[0])
	}
	if err == nil {
		log.Info("task done", zap.Duration("elapsed", time.Since(start)))
	}
	return res, err
}
