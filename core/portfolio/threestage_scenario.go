package portfolio

import (
	"fmt"

	"github.com/wyattarnold/StageLP-WSOP/core/program"
	"github.com/wyattarnold/StageLP-WSOP/core/scenario"
)

// Coupled action names of the three-stage scenario model.
const (
	tssRetrofit   = "LS_RETRO"
	tssRestrict   = "LS_RESTRICT"
	tssOption     = "OPTION"
	tssLTExercise = "EX_LT_OPTION"
	tssMTExercise = "EX_MT_OPTION"
)

// midTermOverhead is a flat per-unit charge on any mid-term exploitation,
// independent of the exploited capacity.
// TODO: confirm the 1000/unit figure with the planning group; the source
// study leaves it undocumented. Do not change it without their sign-off.
const midTermOverhead = 1000.0

// ThreeStageScenario extends the two-stage model with a fractional mid-term
// exploitation stage. Effective mid-term yield is LT_QF*LT_ACTION*MT_EXP, a
// bilinear product, so the model is nonconvex and only an external
// nonconvex-capable solver can optimize it whole. Fixing the long-term
// actions (program.Model.FixVariables) yields a linear recourse problem.
type ThreeStageScenario struct {
	data *ThreeStageScenarioData
	base *program.Model

	// shortageQ and shortageP flatten the per-projection maps by scenario
	// name, mirroring how instances are keyed.
	shortageQ map[string]map[string]float64
	shortageP map[string]float64
}

// NewThreeStageScenario builds the symbolic three-stage scenario model.
func NewThreeStageScenario(data *ThreeStageScenarioData) (*ThreeStageScenario, error) {
	for _, k := range []string{tssRetrofit, tssOption} {
		if _, ok := data.LTMax[k]; !ok {
			return nil, fmt.Errorf("portfolio: long-term action %s missing from data", k)
		}
		if _, ok := data.MTMax[k]; !ok {
			return nil, fmt.Errorf("portfolio: mid-term exploitation %s missing from data", k)
		}
	}
	for _, k := range []string{tssRestrict, tssLTExercise, tssMTExercise} {
		if _, ok := data.STMax[k]; !ok {
			return nil, fmt.Errorf("portfolio: short-term action %s missing from data", k)
		}
	}
	for i := range data.LTMax {
		if _, ok := data.MTMax[i]; !ok {
			return nil, fmt.Errorf("portfolio: long-term action %s has no mid-term exploitation entry", i)
		}
	}
	if data.LTQF[tssRetrofit] == 0 {
		return nil, fmt.Errorf("portfolio: %s needs a nonzero yield factor", tssRetrofit)
	}

	m := program.New("three_stage_scenario")
	lt := sortedKeys(data.LTMax)
	mt := sortedKeys(data.MTMax)
	st := sortedKeys(data.STMax)

	for _, i := range lt {
		if err := m.AddVar(program.Indexed("LT_ACTION", i), program.Integer, 0, program.Inf()); err != nil {
			return nil, err
		}
	}
	for _, j := range mt {
		if err := m.AddVar(program.Indexed("MT_EXP", j), program.Continuous, 0, 1); err != nil {
			return nil, err
		}
	}
	for _, k := range st {
		if err := m.AddVar(program.Indexed("ST_Q", k), program.Continuous, 0, program.Inf()); err != nil {
			return nil, err
		}
	}
	if err := m.AddParam(shortageParam); err != nil {
		return nil, err
	}

	meet := program.NewExpr()
	for _, i := range lt {
		meet.AddTerm(program.Indexed("LT_ACTION", i), data.LTQF[i])
		meet.AddBilinear(program.Indexed("LT_ACTION", i), program.Indexed("MT_EXP", i), data.LTQF[i])
	}
	for _, k := range st {
		meet.AddTerm(program.Indexed("ST_Q", k), 1)
	}
	meet.AddParam(shortageParam, -1)
	if err := m.AddConstraint("MeetShortage", meet, 0, program.Inf()); err != nil {
		return nil, err
	}

	for _, i := range lt {
		body := program.NewExpr().AddTerm(program.Indexed("LT_ACTION", i), 1)
		if err := m.AddConstraint(program.Indexed("LongTermMax", i), body, -program.Inf(), data.LTMax[i]); err != nil {
			return nil, err
		}
	}
	for _, j := range mt {
		body := program.NewExpr().AddTerm(program.Indexed("MT_EXP", j), 1)
		if err := m.AddConstraint(program.Indexed("MidTermMax", j), body, -program.Inf(), data.MTMax[j]); err != nil {
			return nil, err
		}
	}
	for _, k := range st {
		body := program.NewExpr().AddTerm(program.Indexed("ST_Q", k), 1)
		if err := m.AddConstraint(program.Indexed("ShortTermMax", k), body, -program.Inf(), data.STMax[k]); err != nil {
			return nil, err
		}
	}

	// Exploited retrofit capacity plus the retrofit itself stays within the
	// retrofit maximum.
	retro := program.Indexed("LT_ACTION", tssRetrofit)
	retroExp := program.Indexed("MT_EXP", tssRetrofit)
	midRetro := program.NewExpr().
		AddBilinear(retro, retroExp, 1).
		AddTerm(retro, 1)
	if err := m.AddConstraint("MidTermLSRetro", midRetro, -program.Inf(), data.LTMax[tssRetrofit]); err != nil {
		return nil, err
	}

	// The short-term restriction, rescaled by the retrofit yield factor,
	// competes for the same capacity.
	restrict := program.NewExpr().
		AddTerm(program.Indexed("ST_Q", tssRestrict), 1/data.LTQF[tssRetrofit]).
		AddBilinear(retro, retroExp, 1).
		AddTerm(retro, 1)
	if err := m.AddConstraint("ShortTermRestrict", restrict, -program.Inf(), data.LTMax[tssRetrofit]); err != nil {
		return nil, err
	}

	option := program.Indexed("LT_ACTION", tssOption)
	ltOpt := program.NewExpr().
		AddTerm(program.Indexed("ST_Q", tssLTExercise), 1).
		AddTerm(option, -1)
	if err := m.AddConstraint("LTOption", ltOpt, -program.Inf(), 0); err != nil {
		return nil, err
	}
	mtOpt := program.NewExpr().
		AddTerm(program.Indexed("ST_Q", tssMTExercise), 1).
		AddBilinear(option, program.Indexed("MT_EXP", tssOption), -1)
	if err := m.AddConstraint("MTOption", mtOpt, -program.Inf(), 0); err != nil {
		return nil, err
	}

	first := program.NewExpr()
	for _, i := range lt {
		first.AddTerm(program.Indexed("LT_ACTION", i), data.CLT[i])
	}
	second := program.NewExpr()
	for _, i := range lt {
		second.AddBilinear(program.Indexed("MT_EXP", i), program.Indexed("LT_ACTION", i), data.CMT[i]*data.LTQF[i])
		second.AddTerm(program.Indexed("MT_EXP", i), midTermOverhead)
	}
	third := program.NewExpr()
	for _, k := range st {
		third.AddTerm(program.Indexed("ST_Q", k), data.CST[k])
	}
	if err := addStageCosts(m, first, second, third); err != nil {
		return nil, err
	}

	t := &ThreeStageScenario{
		data:      data,
		base:      m,
		shortageQ: make(map[string]map[string]float64),
		shortageP: make(map[string]float64),
	}
	for _, proj := range sortedKeys(data.ShortageQ) {
		for sc, vals := range data.ShortageQ[proj] {
			t.shortageQ[sc] = vals
		}
		for sc, p := range data.ShortageP[proj] {
			t.shortageP[sc] = p
		}
	}
	return t, nil
}

// Model returns the symbolic model.
func (t *ThreeStageScenario) Model() *program.Model { return t.base }

// Instance clones the symbolic model and overwrites the shortage requirement
// for the named scenario. nodeNames is unused: only the leaf determines the
// override in this model.
func (t *ThreeStageScenario) Instance(scenarioName string, nodeNames []string) (*program.Model, error) {
	vals, ok := t.shortageQ[scenarioName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scenario.ErrUnknownScenario, scenarioName)
	}
	inst := t.base.Clone()
	for k, v := range vals {
		if err := inst.SetParam(program.Indexed("SHORTAGE_Q", k), v); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// TreeModel returns the three-level decision tree: long-term actions at the
// root, mid-term exploitation at each projection node, short-term recourse
// at each shortage leaf.
func (t *ThreeStageScenario) TreeModel() *scenario.Tree {
	tree := scenario.NewTree(scenario.Node{
		Name:      "Root",
		CostExpr:  stageCostName(1),
		Variables: []string{"LT_ACTION[*]"},
	})
	for _, proj := range sortedKeys(t.data.ProjectionP) {
		_ = tree.AddNode("Root", scenario.Node{
			Name:      proj,
			CostExpr:  stageCostName(2),
			Variables: []string{"MT_EXP[*]"},
		}, t.data.ProjectionP[proj])
		for _, sc := range sortedKeys(t.data.ShortageP[proj]) {
			_ = tree.AddNode(proj, scenario.Node{
				Name:      sc,
				CostExpr:  stageCostName(3),
				Variables: []string{"ST_Q[*]"},
			}, t.data.ShortageP[proj][sc])
		}
	}
	return tree
}
