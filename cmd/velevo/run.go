package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MichaelDuPlessis/velocity-evolver/experiment"
	"github.com/MichaelDuPlessis/velocity-evolver/internal/config"
	"github.com/MichaelDuPlessis/velocity-evolver/internal/logger"
	"github.com/MichaelDuPlessis/velocity-evolver/internal/metrics"
)

var (
	runConfigPath  string
	runDims        []int
	runRule        string
	runReport      string
	runOutDir      string
	runWorkers     int
	runSeed        int64
	runMetricsAddr string
	runDB          string
	runLogLevel    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run experiments and write result files",
	Long: `Run one experiment per combination of dimension, rule kind and report kind.

Each experiment runs one task per benchmark function plus a joint task over
the whole catalog and writes one CSV row per task, in catalog order, to
result_<D>.csv, canonical_<D>.csv, result_stats_<D>.csv or
canonical_stats_<D>.csv.  Flags override values from the config file.`,
	RunE: runExperiments,
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "YAML config file (defaults are used when empty)")
	runCmd.Flags().IntSliceVar(&runDims, "dim", nil, "Problem dimension; may be repeated")
	runCmd.Flags().StringVar(&runRule, "rule", "", "Rule kind: evolved, canonical or all")
	runCmd.Flags().StringVar(&runReport, "report", "", "Report kind: mse, stats or all")
	runCmd.Flags().StringVarP(&runOutDir, "out", "o", "", "Directory receiving the CSV files")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "Concurrent tasks (0 = one per CPU)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Base random seed (0 = seed from the clock)")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address")
	runCmd.Flags().StringVar(&runDB, "db", "", "Also record results in this sqlite database")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func kinds(s string, all ...string) []string {
	if s == "all" {
		return all
	}
	return []string{s}
}

func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if runConfigPath != "" {
		var err error
		if cfg, err = config.Load(runConfigPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dim") {
		cfg.Dims = runDims
	}
	if flags.Changed("rule") {
		cfg.Rules = kinds(runRule, "evolved", "canonical")
	}
	if flags.Changed("report") {
		cfg.Reports = kinds(runReport, "mse", "stats")
	}
	if flags.Changed("out") {
		cfg.Output.Dir = runOutDir
	}
	if flags.Changed("workers") {
		cfg.Experiment.Workers = runWorkers
	}
	if flags.Changed("seed") {
		cfg.Experiment.Seed = runSeed
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = runMetricsAddr
	}
	if flags.Changed("db") {
		cfg.Output.DB = runDB
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = runLogLevel
	}
	return cfg, cfg.Validate()
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func runExperiments(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	metrics.Register()
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
	}

	runner := &experiment.Runner{Config: cfg.Experiment, Logger: log, OutDir: cfg.Output.Dir}
	if cfg.Output.DB != "" {
		store, err := experiment.OpenStore(cfg.Output.DB)
		if err != nil {
			return err
		}
		defer store.Close()
		runner.Store = store
	}

	plans, err := cfg.Plans()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var failed []error
	for _, plan := range plans {
		start := time.Now()
		results, err := runner.Run(ctx, plan)
		if errors.Is(err, experiment.ErrPersistence) {
			return err
		}
		if err != nil {
			failed = append(failed, fmt.Errorf("%v: %w", plan, err))
		}
		log.Info("experiment done",
			zap.Stringer("plan", plan),
			zap.Int("rows", len(results)),
			zap.Duration("elapsed", time.Since(start)),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(failed...)
}
