package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/wyattarnold/StageLP-WSOP/core/metrics"
)

func TestPromSinkRecordSolveResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	recs := []coremetrics.SolveRecord{
		{RunID: "r1", Model: "two_stage", Scenario: "S1", Status: "optimal", Objective: 400, SolveTime: 150 * time.Millisecond},
		{RunID: "r1", Model: "two_stage", Scenario: "S2", Status: "optimal", Objective: 0, SolveTime: 90 * time.Millisecond},
	}
	if err := sink.RecordSolveResult(recs); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP wsop_scenario_solves_total Total number of scenario-instance solves
# TYPE wsop_scenario_solves_total counter
wsop_scenario_solves_total{model="two_stage",status="optimal"} 2
`
	if err := testutil.CollectAndCompare(sink.solves, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.solveSeconds); c == 0 {
		t.Errorf("solve time not recorded")
	}

	if err := sink.RecordRunSummary(coremetrics.RunSummary{RunID: "r1", Model: "two_stage", Scenarios: 2, ExpectedCost: 280}); err != nil {
		t.Fatalf("summary error: %v", err)
	}
	if got := testutil.ToFloat64(sink.expectedCost.WithLabelValues("two_stage")); got != 280 {
		t.Errorf("expected cost gauge %v", got)
	}
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	b, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	if a.solves != b.solves {
		t.Error("counter vec not reused across sinks")
	}
}
