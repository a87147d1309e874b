// Package metrics defines the Prometheus collectors emitted by the solve
// loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the solver's collectors. A nil *Metrics is valid and
// records nothing, so instrumentation stays optional.
type Metrics struct {
	Iterations         prometheus.Counter
	DeterministicBound prometheus.Gauge
	SimulationLower    prometheus.Gauge
	SimulationUpper    prometheus.Gauge
	Simulations        prometheus.Counter
	CutsAdded          *prometheus.CounterVec
	ForwardDuration    prometheus.Histogram
	BackwardDuration   prometheus.Histogram
}

// New registers the solver collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Iterations: factory.NewCounter(prometheus.CounterOpts{
			Name: "sddp_iterations_total",
			Help: "Completed forward/backward iterations.",
		}),
		DeterministicBound: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sddp_deterministic_bound",
			Help: "Deterministic bound after the most recent backward pass.",
		}),
		SimulationLower: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sddp_simulation_ci_lower",
			Help: "Lower end of the most recent statistical bound interval.",
		}),
		SimulationUpper: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sddp_simulation_ci_upper",
			Help: "Upper end of the most recent statistical bound interval.",
		}),
		Simulations: factory.NewCounter(prometheus.CounterOpts{
			Name: "sddp_policy_simulations_total",
			Help: "Monte-Carlo policy simulations run.",
		}),
		CutsAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sddp_cuts_added_total",
			Help: "Cuts installed, by stage.",
		}, []string{"stage"}),
		ForwardDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sddp_forward_pass_seconds",
			Help:    "Forward pass wall time.",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
		}),
		BackwardDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sddp_backward_pass_seconds",
			Help:    "Backward pass wall time.",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
		}),
	}
}

// ObserveIteration records one completed iteration and its bound.
func (m *Metrics) ObserveIteration(bound float64) {
	if m == nil {
		return
	}
	m.Iterations.Inc()
	m.DeterministicBound.Set(bound)
}

// ObserveSimulation records a Monte-Carlo round.
func (m *Metrics) ObserveSimulation(n int, lower, upper float64) {
	if m == nil {
		return
	}
	m.Simulations.Add(float64(n))
	m.SimulationLower.Set(lower)
	m.SimulationUpper.Set(upper)
}

// ObserveCut records one installed cut.
func (m *Metrics) ObserveCut(stage string) {
	if m == nil {
		return
	}
	m.CutsAdded.WithLabelValues(stage).Inc()
}

// ObserveForward and ObserveBackward record pass durations in seconds.
func (m *Metrics) ObserveForward(seconds float64) {
	if m == nil {
		return
	}
	m.ForwardDuration.Observe(seconds)
}

func (m *Metrics) ObserveBackward(seconds float64) {
	if m == nil {
		return
	}
	m.BackwardDuration.Observe(seconds)
}
