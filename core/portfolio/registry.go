package portfolio

import (
	"fmt"

	"github.com/wyattarnold/StageLP-WSOP/core/factory"
	"github.com/wyattarnold/StageLP-WSOP/core/scenario"
)

// Program couples a symbolic model with the two entry points a stochastic
// runner needs: the decision tree and the per-scenario instance factory.
type Program interface {
	scenario.Instancer
}

var programs = factory.NewRegistry[Program]()

// RegisterProgram adds a model factory under the given name.
func RegisterProgram(name string, f factory.Factory[Program]) error {
	return programs.Register(name, f)
}

// NewProgram instantiates a registered model from its configuration.
func NewProgram(cfg factory.ModuleConfig) (Program, error) {
	return programs.Create(cfg)
}

// dataConf is the raw configuration common to the built-in models.
type dataConf struct {
	Data string `json:"data"`
}

func dataPath(conf map[string]any) (string, error) {
	var c dataConf
	if err := factory.Decode(conf, &c); err != nil {
		return "", err
	}
	if c.Data == "" {
		return "", fmt.Errorf("portfolio: model needs a data file path")
	}
	return c.Data, nil
}

// init registers the built-in models.
func init() {
	_ = RegisterProgram("two_stage", func(conf map[string]any) (Program, error) {
		path, err := dataPath(conf)
		if err != nil {
			return nil, err
		}
		d, err := LoadTwoStageData(path)
		if err != nil {
			return nil, err
		}
		return NewTwoStage(d)
	})
	_ = RegisterProgram("two_stage_template", func(conf map[string]any) (Program, error) {
		path, err := dataPath(conf)
		if err != nil {
			return nil, err
		}
		d, err := LoadTwoStageData(path)
		if err != nil {
			return nil, err
		}
		return NewTwoStageTemplate(d)
	})
	_ = RegisterProgram("three_stage_scenario", func(conf map[string]any) (Program, error) {
		path, err := dataPath(conf)
		if err != nil {
			return nil, err
		}
		d, err := LoadThreeStageScenarioData(path)
		if err != nil {
			return nil, err
		}
		return NewThreeStageScenario(d)
	})
	_ = RegisterProgram("three_stage", func(conf map[string]any) (Program, error) {
		path, err := dataPath(conf)
		if err != nil {
			return nil, err
		}
		d, err := LoadThreeStageData(path)
		if err != nil {
			return nil, err
		}
		return NewThreeStage(d)
	})
}
