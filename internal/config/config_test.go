package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MichaelDuPlessis/velocity-evolver/experiment"
	"github.com/MichaelDuPlessis/velocity-evolver/fitness"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "velevo.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Env != "local" || cfg.Output.Dir != "results" || cfg.Catalog != "catalog" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Dims) != 1 || cfg.Dims[0] != 30 {
		t.Errorf("dims = %v, want [30]", cfg.Dims)
	}
	if cfg.Experiment.Fitness.Runs != 30 || cfg.Experiment.Search.PopSize != 100 {
		t.Errorf("experiment defaults lost: %+v", cfg.Experiment)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("VELEVO_OUT", "/tmp/velevo")
	path := writeConfig(t, `
env: prod
logging:
  level: debug
output:
  dir: ${VELEVO_OUT}
  db: ${VELEVO_DB:-runs.db}
dims: [2, 30]
rules: [canonical]
reports: [mse, stats]
experiment:
  workers: 4
  seed: 7
  fitness:
    runs: 10
    reduction: best
    swarm:
      vmax: 1.5
      grid_step: 0.001
  search:
    generations: 20
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "prod" || cfg.Logging.Level != "debug" {
		t.Errorf("env/logging = %q/%q", cfg.Env, cfg.Logging.Level)
	}
	if cfg.Output.Dir != "/tmp/velevo" {
		t.Errorf("output.dir = %q, want /tmp/velevo", cfg.Output.Dir)
	}
	if cfg.Output.DB != "runs.db" {
		t.Errorf("output.db = %q, want runs.db", cfg.Output.DB)
	}

	ex := cfg.Experiment
	if ex.Workers != 4 || ex.Seed != 7 {
		t.Errorf("workers/seed = %d/%d", ex.Workers, ex.Seed)
	}
	if ex.Fitness.Runs != 10 || ex.Fitness.Reduction != fitness.ReduceBest {
		t.Errorf("fitness = %+v", ex.Fitness)
	}
	if ex.Fitness.Swarm.Vmax != 1.5 || ex.Fitness.Swarm.GridStep != 0.001 || ex.Fitness.Swarm.VmaxScale != 0 {
		t.Errorf("fitness.swarm = %+v", ex.Fitness.Swarm)
	}
	// fields absent from the file keep their defaults
	if ex.Fitness.SwarmSize != 100 || ex.Search.PopSize != 100 || ex.Search.Generations != 20 {
		t.Errorf("search/fitness merge failed: %+v %+v", ex.Fitness, ex.Search)
	}

	plans, err := cfg.Plans()
	if err != nil {
		t.Fatalf("Plans: %v", err)
	}
	if len(plans) != 4 {
		t.Fatalf("got %d plans, want 4", len(plans))
	}
	if plans[0].Dim != 2 || plans[0].Rule != experiment.Canonical || plans[1].Report != experiment.Stats {
		t.Errorf("unexpected plan order: %v %v", plans[0], plans[1])
	}
	if len(plans[3].Functions) != 13 {
		t.Errorf("catalog has %d functions, want 13", len(plans[3].Functions))
	}
}

func TestLoad_Classic(t *testing.T) {
	cfg, err := Load(writeConfig(t, "catalog: classic\ndims: [2]\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := len(cfg.Functions(2)); n != 4 {
		t.Errorf("classic 2-D set has %d functions, want 4", n)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadReduction(t *testing.T) {
	_, err := Load(writeConfig(t, "experiment:\n  fitness:\n    reduction: median\n"))
	if err == nil {
		t.Fatal("expected error for unknown reduction")
	}
}

func TestValidate_Invalid(t *testing.T) {
	cases := map[string]func(*Config){
		"env":     func(c *Config) { c.Env = "staging" },
		"dims":    func(c *Config) { c.Dims = []int{1} },
		"rules":   func(c *Config) { c.Rules = []string{"random"} },
		"reports": func(c *Config) { c.Reports = []string{"csv"} },
		"catalog": func(c *Config) { c.Catalog = "cec" },
		"workers": func(c *Config) { c.Experiment.Workers = -1 },
		"runs":    func(c *Config) { c.Experiment.Fitness.Runs = 0 },
		"search":  func(c *Config) { c.Experiment.Search.PopSize = 0 },
		"swarm":   func(c *Config) { c.Experiment.Fitness.Swarm.GridStep = -1 },
	}
	for name, mod := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mod(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("VELEVO_SET", "x")
	got := string(expandEnvVars([]byte("${VELEVO_SET} ${VELEVO_UNSET:-d} ${VELEVO_UNSET}")))
	if got != "x d " {
		t.Errorf("got %q, want %q", got, "x d ")
	}
}
