package portfolio

import (
	"fmt"
	"math"

	"github.com/wyattarnold/StageLP-WSOP/core/program"
	"github.com/wyattarnold/StageLP-WSOP/core/scenario"
)

// Coupled action names of the three-stage stochastic model.
const (
	tsRetrofit = "RETRO"
	tsRestrict = "RESTRICT"
	tsOption   = "OPTION"
)

// expansionCap bounds both the expansion-capacity decision and its unit-cost
// variable.
const expansionCap = 1e6

// ExpansionBreakpoints returns the sampling grid of the expansion cost
// curves: dense near zero where the marginal cost moves fastest, coarsening
// geometrically toward the upper capacity range.
func ExpansionBreakpoints() []float64 {
	bkpts := []float64{0}
	for x := 5e3; x < 1.5e5; x += 1e4 {
		bkpts = append(bkpts, x)
	}
	for x := 1.5e5; x < 4.5e5; x += 5e4 {
		bkpts = append(bkpts, x)
	}
	for x := 4.5e5; x < 1.1e6; x += 2e5 {
		bkpts = append(bkpts, x)
	}
	return bkpts
}

// MarginalCost returns the site's power-law marginal construction cost
// p*multiplier*x^(p-1), with the zero level costing nothing.
func (e ExpansionSite) MarginalCost(x float64) float64 {
	if x == 0 {
		return 0
	}
	return e.P * e.Multiplier * math.Pow(x, e.P-1)
}

// ThreeStage is the three-stage stochastic model. Long-term expansion splits
// into a binary permit activation gating a continuous capacity build priced
// by a sampled marginal-cost curve, and the built capacity operates in a
// must-run baseline band plus an elastic variable band. Shortage buckets with
// per-node caps and costs absorb unmet demand.
type ThreeStage struct {
	data *ThreeStageData
	base *program.Model

	buckets   []string
	shortageQ map[string]map[string]float64
	shortageP map[string]float64
}

// NewThreeStage builds the symbolic three-stage stochastic model.
func NewThreeStage(data *ThreeStageData) (*ThreeStage, error) {
	for _, k := range []string{tsRetrofit, tsOption} {
		if _, ok := data.LTMax[k]; !ok {
			return nil, fmt.Errorf("portfolio: long-term action %s missing from data", k)
		}
	}
	for _, k := range []string{tsRestrict, tsOption} {
		if _, ok := data.STMax[k]; !ok {
			return nil, fmt.Errorf("portfolio: short-term action %s missing from data", k)
		}
	}

	m := program.New("three_stage")
	lt := sortedKeys(data.LTMax)
	st := sortedKeys(data.STMax)
	sites := sortedKeys(data.LTExp)
	buckets := data.Buckets()
	if len(buckets) == 0 {
		return nil, fmt.Errorf("portfolio: SHORT_Q_MAX defines no shortage buckets")
	}

	for _, i := range lt {
		if err := m.AddVar(program.Indexed("LT_ACTION", i), program.Continuous, 0, program.Inf()); err != nil {
			return nil, err
		}
	}
	for _, k := range st {
		if err := m.AddVar(program.Indexed("ST_ACTION", k), program.Continuous, 0, program.Inf()); err != nil {
			return nil, err
		}
	}
	for _, s := range sites {
		specs := []struct {
			base  string
			kind  program.VarKind
			upper float64
		}{
			{"LT_EXP_PERMIT_ACTION", program.Binary, 1},
			{"LT_EXP_ACTION", program.Continuous, expansionCap},
			{"LT_EXP_COST", program.Continuous, expansionCap},
			{"EXP_ACTION", program.Continuous, program.Inf()},
			{"EXP_BOP_ACTION", program.Continuous, program.Inf()},
			{"EXP_VOP_ACTION", program.Continuous, program.Inf()},
		}
		for _, sp := range specs {
			if err := m.AddVar(program.Indexed(sp.base, s), sp.kind, 0, sp.upper); err != nil {
				return nil, err
			}
		}
	}
	for _, b := range buckets {
		if err := m.AddVar(program.Indexed("SHORT_ACTION", b), program.Continuous, 0, program.Inf()); err != nil {
			return nil, err
		}
	}

	if err := m.AddParam(shortageParam); err != nil {
		return nil, err
	}
	for _, b := range buckets {
		if err := m.AddParam(program.Indexed("SHORT_Q_MAX", b)); err != nil {
			return nil, err
		}
		if err := m.AddParam(program.Indexed("SHORT_COST", b)); err != nil {
			return nil, err
		}
	}

	// Expansion cost curves: incremental piecewise encoding linking the
	// unit-cost variable to the sampled marginal at the built level.
	bkpts := ExpansionBreakpoints()
	for _, s := range sites {
		site := data.LTExp[s]
		pw, err := program.Sample(bkpts, site.MarginalCost)
		if err != nil {
			return nil, err
		}
		// A monotone marginal keeps the accumulated cost convex; the fill-order
		// binaries in the incremental encoding cover concave stretches of the
		// marginal itself (exponents below 2 produce them).
		if !pw.Monotone() {
			return nil, fmt.Errorf("portfolio: expansion site %s has a decreasing marginal cost curve", s)
		}
		name := program.Indexed("LT_EXP_pw", s)
		action := program.Indexed("LT_EXP_ACTION", s)
		cost := program.Indexed("LT_EXP_COST", s)
		if err := pw.ApplyINC(m, name, action, cost); err != nil {
			return nil, err
		}
	}

	meet := program.NewExpr().AddTerm(program.Indexed("LT_ACTION", tsRetrofit), 1)
	for _, s := range sites {
		meet.AddBilinear(program.Indexed("EXP_VOP_ACTION", s), program.Indexed("LT_EXP_PERMIT_ACTION", s), 1)
	}
	for _, k := range st {
		meet.AddTerm(program.Indexed("ST_ACTION", k), 1)
	}
	for _, b := range buckets {
		meet.AddTerm(program.Indexed("SHORT_ACTION", b), 1)
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

	for _, s := range sites {
		site := data.LTExp[s]
		expAction := program.Indexed("EXP_ACTION", s)
		ltExp := program.Indexed("LT_EXP_ACTION", s)
		bop := program.Indexed("EXP_BOP_ACTION", s)
		vop := program.Indexed("EXP_VOP_ACTION", s)

		exp := program.NewExpr().AddTerm(expAction, 1/site.ExpMax).AddTerm(ltExp, -1)
		if err := m.AddConstraint(program.Indexed("LongTermExp", s), exp, -program.Inf(), 0); err != nil {
			return nil, err
		}

		bopMin := program.NewExpr().
			AddTerm(bop, 1).
			AddTerm(expAction, -site.BaselineOpMinRatio).
			AddTerm(ltExp, -site.BaselineOpMinRatio)
		if err := m.AddConstraint(program.Indexed("BaselineMinOp", s), bopMin, 0, program.Inf()); err != nil {
			return nil, err
		}
		bopMax := program.NewExpr().AddTerm(bop, 1).AddTerm(expAction, -1).AddTerm(ltExp, -1)
		if err := m.AddConstraint(program.Indexed("BaselineMaxOp", s), bopMax, -program.Inf(), 0); err != nil {
			return nil, err
		}
		vopMin := program.NewExpr().AddTerm(vop, 1).AddTerm(bop, -1)
		if err := m.AddConstraint(program.Indexed("VariableMinOp", s), vopMin, 0, program.Inf()); err != nil {
			return nil, err
		}
		vopMax := program.NewExpr().AddTerm(vop, 1).AddTerm(expAction, -1).AddTerm(ltExp, -1)
		if err := m.AddConstraint(program.Indexed("VariableMaxOp", s), vopMax, -program.Inf(), 0); err != nil {
			return nil, err
		}
	}

	for _, k := range st {
		body := program.NewExpr().AddTerm(program.Indexed("ST_ACTION", k), 1)
		if err := m.AddConstraint(program.Indexed("ShortTermMax", k), body, -program.Inf(), data.STMax[k]); err != nil {
			return nil, err
		}
	}

	restrict := program.NewExpr().
		AddTerm(program.Indexed("LT_ACTION", tsRetrofit), 1).
		AddTerm(program.Indexed("ST_ACTION", tsRestrict), 1)
	if err := m.AddConstraint("ShortTermRestrict", restrict, -program.Inf(), data.LTMax[tsRetrofit]); err != nil {
		return nil, err
	}

	option := program.NewExpr().
		AddTerm(program.Indexed("ST_ACTION", tsOption), 1).
		AddTerm(program.Indexed("LT_ACTION", tsOption), -1)
	if err := m.AddConstraint("LTOption", option, -program.Inf(), 0); err != nil {
		return nil, err
	}

	for _, b := range buckets {
		body := program.NewExpr().
			AddTerm(program.Indexed("SHORT_ACTION", b), 1).
			AddParam(program.Indexed("SHORT_Q_MAX", b), -1)
		if err := m.AddConstraint(program.Indexed("ShortMax", b), body, -program.Inf(), 0); err != nil {
			return nil, err
		}
	}

	first := program.NewExpr()
	for _, i := range lt {
		first.AddTerm(program.Indexed("LT_ACTION", i), data.CLT[i])
	}
	for _, s := range sites {
		first.AddBilinear(program.Indexed("LT_EXP_ACTION", s), program.Indexed("LT_EXP_COST", s), 1)
		first.AddTerm(program.Indexed("LT_EXP_PERMIT_ACTION", s), data.LTExp[s].PermitCost)
	}
	second := program.NewExpr()
	for _, s := range sites {
		second.AddBilinear(program.Indexed("EXP_ACTION", s), program.Indexed("LT_EXP_COST", s), 1)
		second.AddTerm(program.Indexed("EXP_BOP_ACTION", s), data.LTExp[s].BaselineOpCost)
	}
	third := program.NewExpr()
	for _, k := range st {
		third.AddTerm(program.Indexed("ST_ACTION", k), data.CST[k])
	}
	for _, b := range buckets {
		third.AddParamVar(program.Indexed("SHORT_ACTION", b), program.Indexed("SHORT_COST", b), 1)
	}
	for _, s := range sites {
		third.AddTerm(program.Indexed("EXP_VOP_ACTION", s), data.LTExp[s].VariableOpCost)
	}
	if err := addStageCosts(m, first, second, third); err != nil {
		return nil, err
	}

	t := &ThreeStage{
		data:      data,
		base:      m,
		buckets:   buckets,
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
func (t *ThreeStage) Model() *program.Model { return t.base }

// Buckets returns the shortage bucket names.
func (t *ThreeStage) Buckets() []string { return append([]string(nil), t.buckets...) }

// Instance clones the symbolic model, overwrites the shortage requirement
// for the leaf scenario and the bucket caps and costs of the projection node
// on its path (nodeNames[1]).
func (t *ThreeStage) Instance(scenarioName string, nodeNames []string) (*program.Model, error) {
	vals, ok := t.shortageQ[scenarioName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scenario.ErrUnknownScenario, scenarioName)
	}
	if len(nodeNames) < 2 {
		return nil, fmt.Errorf("portfolio: scenario %s needs a node path through its projection", scenarioName)
	}
	proj := nodeNames[1]
	qmax, ok := t.data.ShortQMax[proj]
	if !ok {
		return nil, fmt.Errorf("portfolio: projection %s has no SHORT_Q_MAX block", proj)
	}
	cost, ok := t.data.ShortCost[proj]
	if !ok {
		return nil, fmt.Errorf("portfolio: projection %s has no SHORT_COST block", proj)
	}

	inst := t.base.Clone()
	for k, v := range vals {
		if err := inst.SetParam(program.Indexed("SHORTAGE_Q", k), v); err != nil {
			return nil, err
		}
	}
	for _, b := range t.buckets {
		if err := inst.SetParam(program.Indexed("SHORT_Q_MAX", b), qmax[b]); err != nil {
			return nil, err
		}
		if err := inst.SetParam(program.Indexed("SHORT_COST", b), cost[b]); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// TreeModel returns the three-level decision tree. The expansion unit cost
// follows from the build level, so it is listed as a derived variable at the
// root.
func (t *ThreeStage) TreeModel() *scenario.Tree {
	tree := scenario.NewTree(scenario.Node{
		Name:             "Root",
		CostExpr:         stageCostName(1),
		Variables:        []string{"LT_ACTION[*]", "LT_EXP_ACTION[*]", "LT_EXP_PERMIT_ACTION[*]"},
		DerivedVariables: []string{"LT_EXP_COST[*]"},
	})
	for _, proj := range sortedKeys(t.data.ProjectionP) {
		_ = tree.AddNode("Root", scenario.Node{
			Name:      proj,
			CostExpr:  stageCostName(2),
			Variables: []string{"EXP_ACTION[*]", "EXP_BOP_ACTION[*]"},
		}, t.data.ProjectionP[proj])
		for _, sc := range sortedKeys(t.data.ShortageP[proj]) {
			_ = tree.AddNode(proj, scenario.Node{
				Name:      sc,
				CostExpr:  stageCostName(3),
				Variables: []string{"ST_ACTION[*]", "SHORT_ACTION[*]", "EXP_VOP_ACTION[*]"},
			}, t.data.ShortageP[proj][sc])
		}
	}
	return tree
}
