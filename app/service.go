// Package app wires configuration, the model catalog, the solver and the
// metrics sinks into a run: every leaf scenario of the selected model is
// instantiated and solved independently, then aggregated across the tree by
// the edge probability weights.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/wyattarnold/StageLP-WSOP/config"
	"github.com/wyattarnold/StageLP-WSOP/core/factory"
	coremetrics "github.com/wyattarnold/StageLP-WSOP/core/metrics"
	"github.com/wyattarnold/StageLP-WSOP/core/portfolio"
	"github.com/wyattarnold/StageLP-WSOP/core/solver"
	"github.com/wyattarnold/StageLP-WSOP/infra/logger"
	_ "github.com/wyattarnold/StageLP-WSOP/infra/metrics" // sink registration
)

// ScenarioResult is one solved leaf scenario.
type ScenarioResult struct {
	Scenario    string             `json:"scenario"`
	Probability float64            `json:"probability"`
	Status      string             `json:"status"`
	Objective   float64            `json:"objective"`
	StageCosts  map[string]float64 `json:"stage_costs"`
	Values      map[string]float64 `json:"values"`
}

// Report aggregates a full run over the scenario tree.
type Report struct {
	RunID        string           `json:"run_id"`
	Model        string           `json:"model"`
	ExpectedCost float64          `json:"expected_cost"`
	Scenarios    []ScenarioResult `json:"scenarios"`
}

// Service orchestrates a portfolio optimization run.
type Service struct {
	cfg  *config.Config
	prog portfolio.Program
	sink coremetrics.MetricsSink
	log  logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	prog, err := portfolio.NewProgram(factory.ModuleConfig{
		Type: cfg.Model.Name,
		Conf: map[string]any{"data": cfg.Model.Data},
	})
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", cfg.Model.Name, err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	return &Service{cfg: cfg, prog: prog, sink: sink, log: logg}, nil
}

// Run validates the scenario tree, solves every leaf scenario and returns
// the probability-weighted report. Scenario instances are independent; only
// the final weighting couples them.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	tree := s.prog.TreeModel()
	if err := tree.Validate(1e-9); err != nil {
		return nil, err
	}

	fixing, err := s.loadFirstStage()
	if err != nil {
		return nil, err
	}
	if s.cfg.Risk.Enabled() {
		s.log.Infof("CVaR weighting requested (weight=%g alpha=%g); forwarded to the external solver invocation",
			s.cfg.Risk.CVaRWeight, s.cfg.Risk.RiskAlpha)
	}

	runID := uuid.NewString()
	sol := solver.NewSimplexSolver(s.cfg.Solver)
	report := &Report{RunID: runID, Model: s.cfg.Model.Name}
	var records []coremetrics.SolveRecord

	for _, leaf := range tree.Leaves() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := tree.Path(leaf)
		if err != nil {
			return nil, err
		}
		prob, err := tree.Probability(leaf)
		if err != nil {
			return nil, err
		}
		inst, err := s.prog.Instance(leaf, path)
		if err != nil {
			return nil, err
		}
		if len(fixing) > 0 {
			inst, err = inst.FixVariables(fixing)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: %w", leaf, err)
			}
		}

		start := time.Now()
		res, err := sol.Solve(inst)
		elapsed := time.Since(start)
		if err != nil {
			switch {
			case errors.Is(err, solver.ErrNonconvexModel):
				return nil, fmt.Errorf("scenario %s: %w; supply model.first_stage to fix the long-term decisions, or run the full model through an external solver with NonConvex=2", leaf, err)
			case errors.Is(err, solver.ErrIntegerModel):
				return nil, fmt.Errorf("scenario %s: %w; set solver.relax to solve the continuous relaxation", leaf, err)
			default:
				return nil, fmt.Errorf("scenario %s: %w", leaf, err)
			}
		}

		report.Scenarios = append(report.Scenarios, ScenarioResult{
			Scenario:    leaf,
			Probability: prob,
			Status:      res.Status.String(),
			Objective:   res.Objective,
			StageCosts:  res.StageCosts,
			Values:      res.Values,
		})
		report.ExpectedCost += prob * res.Objective
		records = append(records, coremetrics.SolveRecord{
			RunID:     runID,
			Model:     s.cfg.Model.Name,
			Scenario:  leaf,
			Status:    res.Status.String(),
			Objective: res.Objective,
			SolveTime: elapsed,
			Time:      time.Now(),
		})
		s.log.Debugw("scenario solved", map[string]any{
			"scenario":  leaf,
			"objective": res.Objective,
			"prob":      prob,
		})
	}

	if err := s.sink.RecordSolveResult(records); err != nil {
		s.log.Errorf("record solve results: %v", err)
	}
	if rec, ok := s.sink.(coremetrics.RunSummaryRecorder); ok {
		if err := rec.RecordRunSummary(coremetrics.RunSummary{
			RunID:        runID,
			Model:        s.cfg.Model.Name,
			Scenarios:    len(report.Scenarios),
			ExpectedCost: report.ExpectedCost,
			Time:         time.Now(),
		}); err != nil {
			s.log.Errorf("record run summary: %v", err)
		}
	}
	s.log.Infof("run %s: %d scenarios, expected cost %.3f", runID, len(report.Scenarios), report.ExpectedCost)
	return report, nil
}

// loadFirstStage reads the optional fixed first-stage assignment.
func (s *Service) loadFirstStage() (map[string]float64, error) {
	if s.cfg.Model.FirstStage == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(s.cfg.Model.FirstStage)
	if err != nil {
		return nil, fmt.Errorf("first stage values: %w", err)
	}
	var vals map[string]float64
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, fmt.Errorf("first stage values: %w", err)
	}
	return vals, nil
}
