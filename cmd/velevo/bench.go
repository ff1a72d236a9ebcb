package main

import (
	"database/sql"
	"fmt"
	"math"
	"text/tabwriter"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/MichaelDuPlessis/velocity-evolver"
	"github.com/MichaelDuPlessis/velocity-evolver/bench"
	"github.com/MichaelDuPlessis/velocity-evolver/swarm"
)

var (
	benchDim     int
	benchClassic bool
	benchTrials  int
	benchSize    int
	benchIters   int
	benchTol     float64
	benchSeed    int64
	benchPhi     []float64
	benchSwarm   swarm.Config
	benchTrace   string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "List the benchmark functions and try them with the canonical swarm",
	Long: `List every benchmark function with its bounds and documented minimum.

With --trials N each function is also minimized N times by the canonical
swarm; a trial succeeds when the value found is within --tol of the minimum.
--phi C1,C2 replaces the default coefficients with the constricted rule for
C1 and C2.  --trace-db records every iteration of every trial into a SQLite
file, tagged "<function>/<trial>".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(benchPhi) != 2 {
			return fmt.Errorf("--phi takes two values, got %v", len(benchPhi))
		}
		if err := benchSwarm.Validate(); err != nil {
			return err
		}
		var db *sql.DB
		if benchTrace != "" && benchTrials > 0 {
			var err error
			if db, err = sql.Open("sqlite3", benchTrace); err != nil {
				return fmt.Errorf("open trace db: %w", err)
			}
			defer db.Close()
		}

		fns := bench.Catalog(benchDim)
		if benchClassic {
			fns = bench.Classic(benchDim)
		}
		rng := optim.NewRng(benchSeed)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprint(w, "#\tfunction\tbounds\tminimum")
		if benchTrials > 0 {
			fmt.Fprint(w, "\tsuccess\tbest")
		}
		fmt.Fprintln(w)

		for i, fn := range fns {
			b := fn.Bounds()
			fmt.Fprintf(w, "%v\t%v\t[%v, %v]\t%v", i, fn.Name(), b[0].Lower, b[0].Upper, fn.Minimum())
			if benchTrials > 0 {
				nsuccess, best, err := trials(fn, rng, db)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "\t%v%%\t%.6g", float64(nsuccess)/float64(benchTrials)*100, best)
			}
			fmt.Fprintln(w)
		}
		return w.Flush()
	},
}

func init() {
	benchCmd.Flags().IntVarP(&benchDim, "dim", "d", 2, "Problem dimension")
	benchCmd.Flags().BoolVar(&benchClassic, "classic", false, "Use the classic set instead of the catalog")
	benchCmd.Flags().IntVar(&benchTrials, "trials", 0, "Canonical swarm trials per function")
	benchCmd.Flags().IntVar(&benchSize, "swarm-size", 100, "Particles per trial")
	benchCmd.Flags().IntVar(&benchIters, "iters", 100, "Iterations per trial")
	benchCmd.Flags().Float64Var(&benchTol, "tol", 1e-3, "Success tolerance")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 0, "Random seed (0 = seed from the clock)")
	benchCmd.Flags().Float64SliceVar(&benchPhi, "phi", []float64{2.05, 2.05}, "Cognitive and social constants before constriction")
	benchCmd.Flags().Float64Var(&benchSwarm.Vmax, "vmax", 0, "Speed limit for every dimension (0 = bound width)")
	benchCmd.Flags().Float64Var(&benchSwarm.VmaxScale, "vmax-scale", 0, "Speed limit as a fraction of each bound width")
	benchCmd.Flags().Float64Var(&benchSwarm.GridStep, "grid-step", 0, "Snap positions to a grid with this spacing (0 = continuous)")
	benchCmd.Flags().Float64Var(&benchSwarm.GridRotation, "grid-rotation", 0, "Rotation of the grid's first two axes in radians")
	benchCmd.Flags().StringVar(&benchTrace, "trace-db", "", "SQLite file recording every trial iteration")
}

func trials(fn bench.Func, rng optim.Rng, db *sql.DB) (nsuccess int, best float64, err error) {
	best = math.Inf(1)
	vel := swarm.Canonical(swarm.Constricted(benchPhi[0], benchPhi[1]), rng)
	for n := 0; n < benchTrials; n++ {
		opts := append(benchSwarm.Options(fn.Bounds()), swarm.Rng(rng))
		if db != nil {
			opts = append(opts, swarm.DB(db), swarm.Tag(fmt.Sprintf("%v/%v", fn.Name(), n)))
		}
		p, err := swarm.Run(benchSize, benchIters, fn.Bounds(), vel, bench.Objective(fn), opts...)
		if err != nil {
			return 0, 0, fmt.Errorf("%v: %w", fn.Name(), err)
		}
		y := fn.Eval(p.Best.Pos())
		best = math.Min(best, y)
		if math.Abs(y-fn.Minimum()) < benchTol {
			nsuccess++
		}
	}
	return nsuccess, best, nil
}
