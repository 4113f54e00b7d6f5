package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/wyattarnold/StageLP-WSOP/core/factory"
)

type captureSink struct {
	records   []SolveRecord
	summaries []RunSummary
	fail      bool
}

func (c *captureSink) RecordSolveResult(r []SolveRecord) error {
	if c.fail {
		return fmt.Errorf("sink down")
	}
	c.records = append(c.records, r...)
	return nil
}

func (c *captureSink) RecordRunSummary(s RunSummary) error {
	c.summaries = append(c.summaries, s)
	return nil
}

type solveOnlySink struct{ records []SolveRecord }

func (s *solveOnlySink) RecordSolveResult(r []SolveRecord) error {
	s.records = append(s.records, r...)
	return nil
}

func TestMultiSinkFanOut(t *testing.T) {
	a := &captureSink{}
	b := &solveOnlySink{}
	m := NewMultiSink(a, b)

	recs := []SolveRecord{{RunID: "r1", Model: "two_stage", Scenario: "S1", Objective: 400, SolveTime: time.Millisecond}}
	if err := m.RecordSolveResult(recs); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(a.records) != 1 || len(b.records) != 1 {
		t.Fatalf("fan-out incomplete: %d %d", len(a.records), len(b.records))
	}

	// Summaries reach only sinks implementing RunSummaryRecorder.
	if err := m.RecordRunSummary(RunSummary{RunID: "r1", Scenarios: 3}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(a.summaries) != 1 {
		t.Fatalf("summary not delivered: %d", len(a.summaries))
	}
}

func TestMultiSinkFirstError(t *testing.T) {
	m := NewMultiSink(&captureSink{fail: true}, &captureSink{})
	if err := m.RecordSolveResult([]SolveRecord{{RunID: "r"}}); err == nil {
		t.Fatal("expected error from failing sink")
	}
}

func TestNewMetricsSinkEmpty(t *testing.T) {
	s, err := NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
}

func TestNewMetricsSinkUnknownType(t *testing.T) {
	if _, err := NewMetricsSink([]factory.ModuleConfig{{Type: "bogus"}}); err == nil {
		t.Fatal("expected unknown sink type error")
	}
}

func TestNewMetricsSinkMulti(t *testing.T) {
	if err := RegisterMetricsSink("capture_a", func(map[string]any) (MetricsSink, error) {
		return &captureSink{}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterMetricsSink("capture_b", func(map[string]any) (MetricsSink, error) {
		return &solveOnlySink{}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	s, err := NewMetricsSink([]factory.ModuleConfig{{Type: "capture_a"}, {Type: "capture_b"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := s.(*MultiSink); !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
}
