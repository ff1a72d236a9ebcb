package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MichaelDuPlessis/velocity-evolver/bench"
	"github.com/MichaelDuPlessis/velocity-evolver/experiment"
)

// Config holds the velevo experiment configuration.
type Config struct {
	Env        string            `yaml:"env"` // local, dev, prod (default: local)
	Logging    LoggingConfig     `yaml:"logging"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Output     OutputConfig      `yaml:"output"`
	Dims       []int             `yaml:"dims"`
	Rules      []string          `yaml:"rules"`   // evolved, canonical
	Reports    []string          `yaml:"reports"` // mse, stats
	Catalog    string            `yaml:"catalog"` // catalog, classic (default: catalog)
	Experiment experiment.Config `yaml:"experiment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// MetricsConfig holds the prometheus endpoint settings.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// OutputConfig holds result persistence settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
	DB  string `yaml:"db"` // sqlite file; empty disables the result store
}

// Default returns a configuration with every default applied.
func Default() Config {
	cfg := Config{Experiment: experiment.DefaultConfig()}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads configuration from a YAML file.  Fields missing from the file
// keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	cfg := Config{Experiment: experiment.DefaultConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = "local"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "results"
	}
	if len(c.Dims) == 0 {
		c.Dims = []int{30}
	}
	if len(c.Rules) == 0 {
		c.Rules = []string{"evolved", "canonical"}
	}
	if len(c.Reports) == 0 {
		c.Reports = []string{"mse"}
	}
	if c.Catalog == "" {
		c.Catalog = "catalog"
	}
	if c.Experiment.SearchRuns <= 0 {
		c.Experiment.SearchRuns = 1
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("env must be local, dev or prod, got %q", c.Env)
	}
	for _, d := range c.Dims {
		if d < 2 {
			return fmt.Errorf("dims must be at least 2, got %d", d)
		}
	}
	for _, r := range c.Rules {
		if _, err := experiment.ParseRuleKind(r); err != nil {
			return fmt.Errorf("rules: %w", err)
		}
	}
	for _, r := range c.Reports {
		if _, err := experiment.ParseReportKind(r); err != nil {
			return fmt.Errorf("reports: %w", err)
		}
	}
	if c.Catalog != "catalog" && c.Catalog != "classic" {
		return fmt.Errorf("catalog must be \"catalog\" or \"classic\", got %q", c.Catalog)
	}
	if c.Experiment.Workers < 0 {
		return fmt.Errorf("experiment.workers must not be negative, got %d", c.Experiment.Workers)
	}
	f := c.Experiment.Fitness
	if f.Runs < 1 || f.SwarmSize < 1 || f.Iterations < 1 {
		return fmt.Errorf("experiment.fitness runs, swarm_size and iterations must be positive")
	}
	if err := f.Swarm.Validate(); err != nil {
		return fmt.Errorf("experiment.fitness: %w", err)
	}
	if err := c.Experiment.Search.Validate(); err != nil {
		return fmt.Errorf("experiment.search: %w", err)
	}
	return nil
}

// Functions returns the configured benchmark set for ndim dimensions.
func (c *Config) Functions(ndim int) []bench.Func {
	if c.Catalog == "classic" {
		return bench.Classic(ndim)
	}
	return bench.Catalog(ndim)
}

// Plans expands the configured dimensions, rules and reports into one
// experiment plan per combination.
func (c *Config) Plans() ([]experiment.Plan, error) {
	var plans []experiment.Plan
	for _, d := range c.Dims {
		for _, r := range c.Rules {
			rule, err := experiment.ParseRuleKind(r)
			if err != nil {
				return nil, err
			}
			for _, rep := range c.Reports {
				report, err := experiment.ParseReportKind(rep)
				if err != nil {
					return nil, err
				}
				plans = append(plans, experiment.Plan{Dim: d, Rule: rule, Report: report, Functions: c.Functions(d)})
			}
		}
	}
	return plans, nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
