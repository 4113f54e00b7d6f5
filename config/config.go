package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	coremetrics "github.com/wyattarnold/StageLP-WSOP/core/metrics"
	"github.com/wyattarnold/StageLP-WSOP/core/solver"
)

// Config is the top-level run configuration.
type Config struct {
	Model   ModelConfig        `json:"model"`
	Solver  solver.Options     `json:"solver"`
	Risk    RiskConfig         `json:"risk"`
	Metrics coremetrics.Config `json:"metrics"`
	Output  OutputConfig       `json:"output"`
}

// Load reads a YAML or JSON configuration file with optional WSOP_
// environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. WSOP_SOLVER__RELAX=true.
	if err := k.Load(env.Provider("WSOP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "wsop_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Solver.SetDefaults()
	cfg.Output.SetDefaults()
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Solver.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Risk.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Output.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
