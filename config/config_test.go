package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `model:
  name: "three_stage"
  data: "data/model_data.json"
  first_stage: "data/first_stage.json"
solver:
  relax: true
  nonconvex: 2
  time_limit_seconds: 300
risk:
  cvar_weight: 0.5
  risk_alpha: 0.9
metrics:
  sinks:
    - type: "nop"
output:
  dir: "out"
  format: "json"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"model.name", cfg.Model.Name, "three_stage"},
		{"model.data", cfg.Model.Data, "data/model_data.json"},
		{"model.first_stage", cfg.Model.FirstStage, "data/first_stage.json"},
		{"solver.relax", cfg.Solver.Relax, true},
		{"solver.nonconvex", cfg.Solver.NonConvex, 2},
		{"solver.time_limit_seconds", cfg.Solver.TimeLimitSeconds, 300.0},
		{"solver.tol_default", cfg.Solver.Tol, 1e-7},
		{"risk.cvar_weight", cfg.Risk.CVaRWeight, 0.5},
		{"risk.risk_alpha", cfg.Risk.RiskAlpha, 0.9},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"output.dir", cfg.Output.Dir, "out"},
		{"output.format", cfg.Output.Format, "json"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"model": {"name": "two_stage", "data": "data/two_stage_data_dict.json"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Solver.Tol != 1e-7 {
		t.Errorf("default tol %v", cfg.Solver.Tol)
	}
	if cfg.Output.Dir != "." || cfg.Output.Format != "csv" {
		t.Errorf("output defaults %+v", cfg.Output)
	}
	if cfg.Risk.Enabled() {
		t.Error("risk should default to disabled")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `model:
  name: "two_stage"
  data: "data/two_stage_data_dict.json"
solver:
  relax: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WSOP_SOLVER__RELAX", "true")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if !cfg.Solver.Relax {
		t.Error("environment override not applied")
	}
}

func TestLoadValidation(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		data string
	}{
		{"missing model name", `{"model": {"data": "x.json"}}`},
		{"missing data path", `{"model": {"name": "two_stage"}}`},
		{"bad risk alpha", `{"model": {"name": "two_stage", "data": "x.json"}, "risk": {"cvar_weight": 1, "risk_alpha": 2}}`},
		{"bad output format", `{"model": {"name": "two_stage", "data": "x.json"}, "output": {"format": "xml"}}`},
		{"negative tol", `{"model": {"name": "two_stage", "data": "x.json"}, "solver": {"tol": -1}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.json")
			if err := os.WriteFile(path, []byte(c.data), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("expected %s to fail", c.name)
			}
		})
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
