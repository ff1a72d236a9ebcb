package metrics

import "github.com/prometheus/client_golang/prometheus"

// Experiment Prometheus metrics.
var (
	SwarmRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velevo",
			Name:      "swarm_runs_total",
			Help:      "Total number of completed swarm runs",
		},
		[]string{"rule"}, // "evolved" / "canonical"
	)

	ObjectiveEvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velevo",
			Name:      "objective_evals_total",
			Help:      "Total number of benchmark function evaluations",
		},
		[]string{"rule"},
	)

	DecodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velevo",
			Name:      "decodes_total",
			Help:      "Total number of chromosome decodes",
		},
		[]string{"status"},
	)

	FitnessCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velevo",
			Name:      "fitness_cache_total",
			Help:      "Fitness cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	GenerationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "velevo",
			Name:      "generations_total",
			Help:      "Total number of completed search generations",
		},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "velevo",
			Name:      "task_duration_seconds",
			Help:      "Experiment task duration in seconds",
			Buckets:   []float64{0.1, 1, 10, 60, 300, 900, 3600, 14400},
		},
		[]string{"rule", "report"},
	)

	TaskFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velevo",
			Name:      "task_failures_total",
			Help:      "Total number of failed experiment tasks",
		},
		[]string{"rule", "report"},
	)
)

var registered bool

// Register registers the experiment metrics with the default registry. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(SwarmRunsTotal)
	prometheus.MustRegister(ObjectiveEvalsTotal)
	prometheus.MustRegister(DecodesTotal)
	prometheus.MustRegister(FitnessCacheTotal)
	prometheus.MustRegister(GenerationsTotal)
	prometheus.MustRegister(TaskDuration)
	prometheus.MustRegister(TaskFailuresTotal)
	registered = true
}
