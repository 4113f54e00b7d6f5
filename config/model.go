package config

import "fmt"

// ModelConfig selects the portfolio model and its data file.
type ModelConfig struct {
	// Name is a registered model type: "two_stage", "two_stage_template",
	// "three_stage_scenario" or "three_stage".
	Name string `json:"name"`
	// Data is the path of the model's JSON data file.
	Data string `json:"data"`
	// FirstStage optionally points to a JSON document of fixed first-stage
	// variable values. Nonconvex models are solved per scenario only when a
	// first-stage fixing is supplied; otherwise their full solve stays with
	// an external nonconvex-capable solver.
	FirstStage string `json:"first_stage"`
}

// Validate checks mandatory fields.
func (c ModelConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("model name is required")
	}
	if c.Data == "" {
		return fmt.Errorf("model data path is required")
	}
	return nil
}
