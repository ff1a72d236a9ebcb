// Package ge searches for chromosomes that minimize a fitness function using
// a generational evolutionary algorithm with tournament selection, elitism
// and a hall of fame.
package ge

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/MichaelDuPlessis/velocity-evolver"
	"github.com/MichaelDuPlessis/velocity-evolver/internal/logger"
	"github.com/MichaelDuPlessis/velocity-evolver/internal/metrics"
)

var (
	ErrEmptyPopulation = errors.New("ge: population is empty")
	ErrConfig          = errors.New("ge: invalid config")
)

// FitnessFunc scores a chromosome.  Lower is better.
type FitnessFunc func(genome []byte) (float64, error)

type Config struct {
	PopSize int `yaml:"pop_size"`
	// Crossover, Mutation and Reproduction are the relative weights with
	// which each offspring is produced by the corresponding operator.
	Crossover    float64 `yaml:"crossover"`
	Mutation     float64 `yaml:"mutation"`
	Reproduction float64 `yaml:"reproduction"`
	Tournament   int     `yaml:"tournament"`
	// GenomeLen is the number of codons in each initial chromosome.
	// Crossover may grow or shrink offspring up to MaxGenomeLen.
	GenomeLen    int `yaml:"genome_len"`
	MaxGenomeLen int `yaml:"max_genome_len"`
	Generations  int `yaml:"generations"`
	Elites       int `yaml:"elites"`
	// Repetitions is the number of fitness samples averaged per
	// chromosome.
	Repetitions int `yaml:"repetitions"`
	HallOfFame  int `yaml:"hall_of_fame"`
}

func DefaultConfig() Config {
	return Config{
		PopSize:      100,
		Crossover:    0.5,
		Mutation:     0.5,
		Reproduction: 0,
		Tournament:   3,
		GenomeLen:    7,
		MaxGenomeLen: 28,
		Generations:  100,
		Elites:       4,
		Repetitions:  1,
		HallOfFame:   10,
	}
}

func (c Config) Validate() error {
	switch {
	case c.PopSize < 1:
		return ErrEmptyPopulation
	case c.GenomeLen < 1:
		return fmt.Errorf("%w: genome_len must be positive, got %d", ErrConfig, c.GenomeLen)
	case c.MaxGenomeLen < c.GenomeLen:
		return fmt.Errorf("%w: max_genome_len %d is below genome_len %d", ErrConfig, c.MaxGenomeLen, c.GenomeLen)
	case c.Tournament < 1:
		return fmt.Errorf("%w: tournament must be positive, got %d", ErrConfig, c.Tournament)
	case c.Elites < 0 || c.Elites > c.PopSize:
		return fmt.Errorf("%w: elites must be between 0 and pop_size, got %d", ErrConfig, c.Elites)
	case c.Generations < 0:
		return fmt.Errorf("%w: generations must not be negative, got %d", ErrConfig, c.Generations)
	case c.Repetitions < 1:
		return fmt.Errorf("%w: repetitions must be positive, got %d", ErrConfig, c.Repetitions)
	case c.Crossover < 0 || c.Mutation < 0 || c.Reproduction < 0:
		return fmt.Errorf("%w: operator weights must not be negative", ErrConfig)
	case c.Crossover+c.Mutation+c.Reproduction <= 0:
		return fmt.Errorf("%w: at least one operator weight must be positive", ErrConfig)
	}
	return nil
}

type Individual struct {
	Genome  []byte
	Fitness float64
}

type Result struct {
	Best        Individual
	HallOfFame  []Individual
	Generations int
	// Evaluations counts fitness function calls; cached genomes are not
	// re-evaluated.
	Evaluations int
}

// Engine runs one search.  It is not safe for concurrent use.
type Engine struct {
	cfg     Config
	fitness FitnessFunc
	rng     optim.Rng
	log     *zap.Logger

	// OnGeneration, if set, is called after every generation with the
	// generation number (starting at 1) and the best individual so far.
	OnGeneration func(gen int, best Individual)

	cache map[[sha1.Size]byte]float64
	fame  *HallOfFame
	evals int
}

// New prepares a search.  A zero MaxGenomeLen is taken as four times
// GenomeLen.
func New(cfg Config, fitness FitnessFunc, rng optim.Rng, log *zap.Logger) *Engine {
	if cfg.MaxGenomeLen == 0 {
		cfg.MaxGenomeLen = 4 * cfg.GenomeLen
	}
	return &Engine{
		cfg:     cfg,
		fitness: fitness,
		rng:     rng,
		log:     logger.OrNop(log),
		cache:   map[[sha1.Size]byte]float64{},
		fame:    NewHallOfFame(cfg.HallOfFame),
	}
}

// Run evolves the population for the configured number of generations and
// returns the best chromosome found.  Cancelling ctx stops the search
// between generations; the best result so far is returned with the error.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return Result{}, err
	}

	pop := make([]Individual, e.cfg.PopSize)
	for i := range pop {
		pop[i].Genome = e.randomGenome()
	}
	if err := e.evaluate(pop); err != nil {
		return Result{}, err
	}
	sortPop(pop)

	gen := 0
	for gen < e.cfg.Generations {
		if err := ctx.Err(); err != nil {
			return e.result(gen), fmt.Errorf("ge: stopped after %d generations: %w", gen, err)
		}

		next := make([]Individual, 0, e.cfg.PopSize)
		next = append(next, pop[:e.cfg.Elites]...)
		for len(next) < e.cfg.PopSize {
			next = append(next, e.offspring(pop))
		}
		if err := e.evaluate(next[e.cfg.Elites:]); err != nil {
			return e.result(gen), err
		}
		sortPop(next)
		pop = next
		gen++

		metrics.GenerationsTotal.Inc()
		best, _ := e.fame.Best()
		e.log.Debug("generation done",
			zap.Int("generation", gen),
			zap.Float64("best", best.Fitness),
			zap.Float64("population_best", pop[0].Fitness),
			zap.Int("evaluations", e.evals),
		)
		if e.OnGeneration != nil {
			e.OnGeneration(gen, best)
		}
	}
	return e.result(gen), nil
}

func (e *Engine) result(gen int) Result {
	best, _ := e.fame.Best()
	return Result{
		Best:        best,
		HallOfFame:  e.fame.Members(),
		Generations: gen,
		Evaluations: e.evals,
	}
}

func hashGenome(genome []byte) [sha1.Size]byte {
	return sha1.Sum(genome)
}

// evaluate sets the fitness of every individual, averaging Repetitions
// samples for genomes not seen before.
func (e *Engine) evaluate(pop []Individual) error {
	for i := range pop {
		h := hashGenome(pop[i].Genome)
		if val, ok := e.cache[h]; ok {
			metrics.FitnessCacheTotal.WithLabelValues("hit").Inc()
			pop[i].Fitness = val
			continue
		}
		metrics.FitnessCacheTotal.WithLabelValues("miss").Inc()

		tot := 0.0
		for r := 0; r < e.cfg.Repetitions; r++ {
			val, err := e.fitness(pop[i].Genome)
			e.evals++
			if err != nil {
				return fmt.Errorf("ge: fitness of %x: %w", pop[i].Genome, err)
			}
			tot += val
		}
		val := tot / float64(e.cfg.Repetitions)
		if math.IsNaN(val) {
			val = math.Inf(1)
		}
		e.cache[h] = val
		pop[i].Fitness = val
		e.fame.Add(pop[i])
	}
	return nil
}

func sortPop(pop []Individual) {
	sort.SliceStable(pop, func(i, j int) bool { return pop[i].Fitness < pop[j].Fitness })
}
