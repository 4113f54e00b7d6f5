package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/wyattarnold/StageLP-WSOP/core/metrics"
)

// PromSink records solve events in Prometheus metrics.
type PromSink struct {
	solves       *prometheus.CounterVec
	solveSeconds *prometheus.HistogramVec
	expectedCost *prometheus.GaugeVec
}

// NewPromSink registers solve metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are
// already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wsop_scenario_solves_total",
		Help: "Total number of scenario-instance solves",
	}, []string{"model", "status"})
	seconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wsop_scenario_solve_seconds",
		Help:    "Wall time of one scenario-instance solve",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})
	expected := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wsop_expected_cost",
		Help: "Probability-weighted expected cost of the last run",
	}, []string{"model"})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(seconds); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			seconds = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(expected); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			expected = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{solves: solves, solveSeconds: seconds, expectedCost: expected}, nil
}

// RecordSolveResult increments the counters and observes solve time for each
// record.
func (s *PromSink) RecordSolveResult(res []coremetrics.SolveRecord) error {
	for _, r := range res {
		s.solves.WithLabelValues(r.Model, r.Status).Inc()
		s.solveSeconds.WithLabelValues(r.Model).Observe(r.SolveTime.Seconds())
	}
	return nil
}

// RecordRunSummary sets the expected-cost gauge.
func (s *PromSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	s.expectedCost.WithLabelValues(sum.Model).Set(sum.ExpectedCost)
	return nil
}
