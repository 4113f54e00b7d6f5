// Package metrics defines the solve-observability contract: per-scenario
// solve records fanned out to pluggable sinks.
package metrics

import "time"

// SolveRecord captures one scenario-instance solve.
type SolveRecord struct {
	RunID     string
	Model     string
	Scenario  string
	Status    string
	Objective float64
	SolveTime time.Duration
	Time      time.Time
}

// RunSummary captures the tree-level aggregation of a run.
type RunSummary struct {
	RunID        string
	Model        string
	Scenarios    int
	ExpectedCost float64
	Time         time.Time
}

// MetricsSink records solve results for observability purposes.
type MetricsSink interface {
	RecordSolveResult(records []SolveRecord) error
}

// RunSummaryRecorder records run-level aggregates. Sinks may implement it in
// addition to MetricsSink.
type RunSummaryRecorder interface {
	RecordRunSummary(s RunSummary) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolveResult([]SolveRecord) error { return nil }
func (NopSink) RecordRunSummary(RunSummary) error     { return nil }

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolveResult forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordSolveResult(res []SolveRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolveResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunSummary forwards the summary to sinks that support it.
func (m *MultiSink) RecordRunSummary(sum RunSummary) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RunSummaryRecorder); ok {
			if err := rec.RecordRunSummary(sum); err != nil {
				return err
			}
		}
	}
	return nil
}
