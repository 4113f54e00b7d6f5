package portfolio

import (
	"fmt"

	"github.com/wyattarnold/StageLP-WSOP/core/program"
	"github.com/wyattarnold/StageLP-WSOP/core/scenario"
)

// ActionKeys names the specially coupled actions of the two-stage models.
// The retrofit coupling caps the short-term restriction by the retrofit
// capacity left unused; the option coupling caps the short-term exercise by
// the long-term activation.
type ActionKeys struct {
	Retrofit       string
	Restrict       string
	Option         string
	OptionExercise string
}

// ConcreteActionKeys are the action names of the bundled two-stage data file.
var ConcreteActionKeys = ActionKeys{
	Retrofit:       "LS_RETRO",
	Restrict:       "LS_RESTRICT",
	Option:         "OPTION",
	OptionExercise: "EX_OPTION",
}

// TemplateActionKeys are the action names of the abstract template variant,
// which is bound to an external data source at build time.
var TemplateActionKeys = ActionKeys{
	Retrofit:       "LSRETRO",
	Restrict:       "RESTRICT",
	Option:         "OPTION",
	OptionExercise: "EX_OPTION",
}

// TwoStage is the two-stage deterministic model: integer long-term actions
// fixed before uncertainty, continuous short-term recourse per shortage
// scenario.
type TwoStage struct {
	data *TwoStageData
	keys ActionKeys
	base *program.Model
}

// NewTwoStage builds the symbolic two-stage model from a loaded data file
// using the concrete action names.
func NewTwoStage(data *TwoStageData) (*TwoStage, error) {
	return newTwoStage("two_stage", data, ConcreteActionKeys)
}

// NewTwoStageTemplate builds the abstract two-stage template bound to the
// given data. The algebra is identical to NewTwoStage; only the coupled
// action names differ.
func NewTwoStageTemplate(data *TwoStageData) (*TwoStage, error) {
	return newTwoStage("two_stage_template", data, TemplateActionKeys)
}

func newTwoStage(name string, data *TwoStageData, keys ActionKeys) (*TwoStage, error) {
	for _, k := range []string{keys.Retrofit, keys.Option} {
		if _, ok := data.LTMax[k]; !ok {
			return nil, fmt.Errorf("portfolio: long-term action %s missing from data", k)
		}
	}
	for _, k := range []string{keys.Restrict, keys.OptionExercise} {
		if _, ok := data.STMax[k]; !ok {
			return nil, fmt.Errorf("portfolio: short-term action %s missing from data", k)
		}
	}

	m := program.New(name)
	lt := sortedKeys(data.LTMax)
	st := sortedKeys(data.STMax)

	for _, i := range lt {
		if err := m.AddVar(program.Indexed("LT_ACTION", i), program.Integer, 0, program.Inf()); err != nil {
			return nil, err
		}
	}
	for _, j := range st {
		if err := m.AddVar(program.Indexed("ST_Q", j), program.Continuous, 0, program.Inf()); err != nil {
			return nil, err
		}
	}
	if err := m.AddParam(shortageParam); err != nil {
		return nil, err
	}

	meet := program.NewExpr()
	for _, i := range lt {
		meet.AddTerm(program.Indexed("LT_ACTION", i), data.LTQF[i])
	}
	for _, j := range st {
		meet.AddTerm(program.Indexed("ST_Q", j), 1)
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
	for _, j := range st {
		body := program.NewExpr().AddTerm(program.Indexed("ST_Q", j), 1)
		if err := m.AddConstraint(program.Indexed("ShortTermMax", j), body, -program.Inf(), data.STMax[j]); err != nil {
			return nil, err
		}
	}

	restrict := program.NewExpr().
		AddTerm(program.Indexed("ST_Q", keys.Restrict), 1).
		AddTerm(program.Indexed("LT_ACTION", keys.Retrofit), 1)
	if err := m.AddConstraint("ShortTermRestrict", restrict, -program.Inf(), data.LTMax[keys.Retrofit]); err != nil {
		return nil, err
	}

	option := program.NewExpr().
		AddTerm(program.Indexed("ST_Q", keys.OptionExercise), 1).
		AddTerm(program.Indexed("LT_ACTION", keys.Option), -1)
	if err := m.AddConstraint("ShortTermOption", option, -program.Inf(), 0); err != nil {
		return nil, err
	}

	first := program.NewExpr()
	for _, i := range lt {
		first.AddTerm(program.Indexed("LT_ACTION", i), data.CLT[i])
	}
	second := program.NewExpr()
	for _, j := range st {
		second.AddTerm(program.Indexed("ST_Q", j), data.CST[j])
	}
	if err := addStageCosts(m, first, second); err != nil {
		return nil, err
	}
	return &TwoStage{data: data, keys: keys, base: m}, nil
}

// Model returns the symbolic model.
func (t *TwoStage) Model() *program.Model { return t.base }

// Instance clones the symbolic model and overwrites the shortage requirement
// for the named scenario. nodeNames is unused in the two-stage models.
func (t *TwoStage) Instance(scenarioName string, nodeNames []string) (*program.Model, error) {
	vals, ok := t.data.ShortageQ[scenarioName]
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

// TreeModel returns the two-level decision tree: long-term actions at the
// root, short-term recourse at each weighted shortage leaf.
func (t *TwoStage) TreeModel() *scenario.Tree {
	tree := scenario.NewTree(scenario.Node{
		Name:      "Root",
		CostExpr:  stageCostName(1),
		Variables: []string{"LT_ACTION[*]"},
	})
	for _, sc := range sortedKeys(t.data.ShortageQ) {
		// Construction cannot fail: scenario names are unique and the root
		// exists.
		_ = tree.AddNode("Root", scenario.Node{
			Name:      sc,
			CostExpr:  stageCostName(2),
			Variables: []string{"ST_Q[*]"},
		}, t.data.ShortageP[sc])
	}
	return tree
}

const shortageParam = "SHORTAGE_Q[SH]"

// stageCostName is the expression name the tree nodes reference.
func stageCostName(stage int) string { return fmt.Sprintf("CostExpressions[%d]", stage) }

// addStageCosts registers stage cost expressions under both their
// descriptive names and the CostExpressions[k] aliases the trees reference,
// and sets the minimized objective to their sum.
func addStageCosts(m *program.Model, stages ...*program.Expr) error {
	names := []string{"FirstStageCost", "SecondStageCost", "ThirdStageCost"}
	if len(stages) > len(names) {
		return fmt.Errorf("portfolio: %d stage costs unsupported", len(stages))
	}
	var objective []string
	for i, e := range stages {
		if err := m.AddExpression(names[i], e); err != nil {
			return err
		}
		alias := program.NewExpr().Add(e)
		if err := m.AddExpression(stageCostName(i+1), alias); err != nil {
			return err
		}
		objective = append(objective, names[i])
	}
	return m.SetObjective(objective...)
}
