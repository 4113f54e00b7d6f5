package portfolio

import (
	"errors"
	"math"
	"testing"

	"github.com/wyattarnold/StageLP-WSOP/core/solver"
)

func minimalThreeStageScenario() *ThreeStageScenarioData {
	return &ThreeStageScenarioData{
		LTMax:       map[string]float64{"LS_RETRO": 100, "OPTION": 150},
		LTQF:        map[string]float64{"LS_RETRO": 1, "OPTION": 1},
		CLT:         map[string]float64{"LS_RETRO": 5, "OPTION": 2},
		MTMax:       map[string]float64{"LS_RETRO": 1, "OPTION": 1},
		CMT:         map[string]float64{"LS_RETRO": 3, "OPTION": 4},
		STMax:       map[string]float64{"LS_RESTRICT": 50, "EX_LT_OPTION": 150, "EX_MT_OPTION": 150},
		CST:         map[string]float64{"LS_RESTRICT": 20, "EX_LT_OPTION": 9, "EX_MT_OPTION": 12},
		ProjectionP: map[string]float64{"P1": 0.4, "P2": 0.6},
		ShortageQ: map[string]map[string]map[string]float64{
			"P1": {"P1S1": {"SH": 0}, "P1S2": {"SH": 120}},
			"P2": {"P2S1": {"SH": 150}, "P2S2": {"SH": 300}},
		},
		ShortageP: map[string]map[string]float64{
			"P1": {"P1S1": 0.5, "P1S2": 0.5},
			"P2": {"P2S1": 0.3, "P2S2": 0.7},
		},
	}
}

func TestThreeStageScenarioNonconvex(t *testing.T) {
	p, err := NewThreeStageScenario(minimalThreeStageScenario())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.Model().IsLinear() {
		t.Fatal("exploitation products must keep the model bilinear")
	}
	inst, err := p.Instance("P2S1", []string{"Root", "P2", "P2S1"})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	_, err = solver.NewSimplexSolver(solver.Options{Relax: true}).Solve(inst)
	if !errors.Is(err, solver.ErrNonconvexModel) {
		t.Fatalf("expected ErrNonconvexModel, got %v", err)
	}
}

func TestThreeStageScenarioFixedFirstStageSolves(t *testing.T) {
	p, err := NewThreeStageScenario(minimalThreeStageScenario())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	inst, err := p.Instance("P1S2", []string{"Root", "P1", "P1S2"})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	// Pinning the long-term actions collapses every product and leaves a
	// linear recourse problem over exploitation and short-term actions.
	fixed, err := inst.FixVariables(map[string]float64{
		"LT_ACTION[LS_RETRO]": 40,
		"LT_ACTION[OPTION]":   60,
	})
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !fixed.IsLinear() {
		t.Fatal("fixed model should be linear")
	}
	res, err := solver.NewSimplexSolver(solver.Options{Relax: true}).Solve(fixed)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != solver.StatusOptimal {
		t.Fatalf("status %v", res.Status)
	}
	// Meeting the 120 shortage starts from the 100 units of fixed long-term
	// yield, so the recourse stages must cover at least the remaining 20.
	assign := res.Values
	assign["LT_ACTION[LS_RETRO]"] = 40
	assign["LT_ACTION[OPTION]"] = 60
	viol, err := inst.CheckFeasible(assign, 1e-6)
	if err != nil {
		t.Fatalf("check against original algebra: %v", err)
	}
	if len(viol) != 0 {
		t.Fatalf("recourse solution violates original model: %v", viol)
	}
}

func TestThreeStageScenarioStageCosts(t *testing.T) {
	p, err := NewThreeStageScenario(minimalThreeStageScenario())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m := p.Model()
	// Exploiting 30% of a 40-unit retrofit costs the bilinear yield charge
	// plus the flat per-unit overhead on the exploitation level.
	assign := map[string]float64{
		"LT_ACTION[LS_RETRO]": 40,
		"LT_ACTION[OPTION]":   0,
		"MT_EXP[LS_RETRO]":    0.3,
		"MT_EXP[OPTION]":      0,
	}
	for _, v := range m.Vars() {
		if _, ok := assign[v.Name]; !ok {
			assign[v.Name] = 0
		}
	}
	got, err := m.EvalExpr("SecondStageCost", assign)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	want := 3.0*1*40*0.3 + 1000*0.3
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("second stage cost %v, want %v", got, want)
	}
	// The alias the tree references evaluates identically.
	alias, err := m.EvalExpr("CostExpressions[2]", assign)
	if err != nil {
		t.Fatalf("eval alias: %v", err)
	}
	if alias != got {
		t.Fatalf("alias %v != %v", alias, got)
	}
}

func TestThreeStageScenarioTree(t *testing.T) {
	p, err := NewThreeStageScenario(minimalThreeStageScenario())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tree := p.TreeModel()
	if err := tree.Validate(1e-9); err != nil {
		t.Fatalf("validate: %v", err)
	}
	leaves := tree.Leaves()
	if len(leaves) != 4 {
		t.Fatalf("leaves %v", leaves)
	}
	path, err := tree.Path("P2S2")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if len(path) != 3 || path[1] != "P2" {
		t.Fatalf("path %v", path)
	}
	pr, err := tree.Probability("P2S2")
	if err != nil {
		t.Fatalf("probability: %v", err)
	}
	if math.Abs(pr-0.42) > 1e-12 {
		t.Fatalf("P(P2S2) = %v", pr)
	}
	mid, _ := tree.Node("P1")
	if mid.CostExpr != "CostExpressions[2]" || mid.Variables[0] != "MT_EXP[*]" {
		t.Fatalf("projection node %+v", mid)
	}
}

func TestThreeStageScenarioCouplingInfeasible(t *testing.T) {
	p, err := NewThreeStageScenario(minimalThreeStageScenario())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	inst, err := p.Instance("P1S1", []string{"Root", "P1", "P1S1"})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	// Full exploitation of a maxed-out retrofit doubles its draw on the
	// retrofit capacity, breaking the mid-term coupling.
	assign := map[string]float64{
		"LT_ACTION[LS_RETRO]": 100,
		"MT_EXP[LS_RETRO]":    1,
	}
	viol, err := inst.CheckFeasible(assign, 1e-9)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	names := map[string]bool{}
	for _, v := range viol {
		names[v.Constraint] = true
	}
	if !names["MidTermLSRetro"] || !names["ShortTermRestrict"] {
		t.Fatalf("expected mid-term coupling violations, got %v", viol)
	}
}

func TestThreeStageScenarioInstanceIdempotent(t *testing.T) {
	p, err := NewThreeStageScenario(minimalThreeStageScenario())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path := []string{"Root", "P2", "P2S2"}
	a, err := p.Instance("P2S2", path)
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	b, err := p.Instance("P2S2", path)
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	pa, pb := a.Params(), b.Params()
	if len(pa) != len(pb) {
		t.Fatalf("param tables differ: %v vs %v", pa, pb)
	}
	for k, v := range pa {
		if pb[k] != v {
			t.Fatalf("param %s differs: %v vs %v", k, v, pb[k])
		}
	}
	if len(a.Vars()) != len(b.Vars()) || len(a.Constraints()) != len(b.Constraints()) {
		t.Fatal("repeated instantiation changed the model shape")
	}
}

func TestThreeStageScenarioZeroYieldRejected(t *testing.T) {
	d := minimalThreeStageScenario()
	d.LTQF["LS_RETRO"] = 0
	if _, err := NewThreeStageScenario(d); err == nil {
		t.Fatal("expected zero retrofit yield to be rejected")
	}
}
