package metrics

import (
	coremetrics "github.com/kilianp07/posched/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records solver runs in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	wallTime  *prometheus.HistogramVec
	objective *prometheus.GaugeVec
	bound     *prometheus.GaugeVec
	movements *prometheus.GaugeVec
	solutions *prometheus.CounterVec
	variables *prometheus.GaugeVec
}

// NewPromSink registers solver metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posched_runs_total",
			Help: "Number of finished solver runs by status",
		}, []string{"scenario", "status"}),
		wallTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "posched_solve_seconds",
			Help:    "Wall time spent in the solver",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"scenario", "status"}),
		objective: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "posched_objective",
			Help: "Objective of the incumbent solution",
		}, []string{"scenario"}),
		bound: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "posched_best_bound",
			Help: "Best proven lower bound of the objective",
		}, []string{"scenario"}),
		movements: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "posched_unit_movements",
			Help: "Number of unit relocations in the last schedule",
		}, []string{"scenario"}),
		solutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posched_improving_solutions_total",
			Help: "Improving solutions reported during search",
		}, []string{"run_id"}),
		variables: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "posched_model_variables",
			Help: "Boolean variables in the last built model",
		}, []string{"scenario"}),
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.wallTime, err = register(reg, s.wallTime); err != nil {
		return nil, err
	}
	if s.objective, err = register(reg, s.objective); err != nil {
		return nil, err
	}
	if s.bound, err = register(reg, s.bound); err != nil {
		return nil, err
	}
	if s.movements, err = register(reg, s.movements); err != nil {
		return nil, err
	}
	if s.solutions, err = register(reg, s.solutions); err != nil {
		return nil, err
	}
	if s.variables, err = register(reg, s.variables); err != nil {
		return nil, err
	}
	return s, nil
}

// register reuses an already registered collector of the same shape.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRunResult updates counters and gauges for a finished run.
func (s *PromSink) RecordRunResult(res coremetrics.RunResult) error {
	s.runs.WithLabelValues(res.Scenario, res.Status).Inc()
	s.wallTime.WithLabelValues(res.Scenario, res.Status).Observe(res.WallTime.Seconds())
	s.objective.WithLabelValues(res.Scenario).Set(float64(res.Objective))
	s.bound.WithLabelValues(res.Scenario).Set(float64(res.BestBound))
	s.movements.WithLabelValues(res.Scenario).Set(float64(res.Movements))
	return nil
}

// RecordProgress counts improving solutions per run.
func (s *PromSink) RecordProgress(ev coremetrics.ProgressEvent) error {
	s.solutions.WithLabelValues(ev.RunID).Inc()
	return nil
}

// RecordRunStarted publishes the model size.
func (s *PromSink) RecordRunStarted(ev coremetrics.RunStarted) error {
	s.variables.WithLabelValues(ev.Scenario).Set(float64(ev.Variables))
	return nil
}
