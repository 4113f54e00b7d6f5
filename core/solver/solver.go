// Package solver lowers program models to gonum's simplex implementation and
// defines the handoff contract for everything simplex cannot do. Integrality
// and bilinear nonconvexity are reported with typed errors instead of being
// silently relaxed or linearized; the caller decides whether to relax or to
// route the model to an external MIP / nonconvex solver.
package solver

import (
	"errors"
	"fmt"

	"github.com/wyattarnold/StageLP-WSOP/core/program"
)

// Options controls the in-process solve and carries pass-through knobs for
// external solver invocations.
type Options struct {
	// Relax solves the continuous relaxation of integer models instead of
	// refusing them.
	Relax bool `json:"relax"`
	// NonConvex is forwarded to external solvers that need it (Gurobi's
	// NonConvex=2). The in-process simplex never accepts bilinear models.
	NonConvex int `json:"nonconvex"`
	// TimeLimitSeconds is forwarded to external solvers. The in-process
	// simplex does not enforce it.
	TimeLimitSeconds float64 `json:"time_limit_seconds"`
	// Tol is the simplex convergence tolerance.
	Tol float64 `json:"tol"`
}

// SetDefaults applies sane defaults.
func (o *Options) SetDefaults() {
	if o.Tol == 0 {
		o.Tol = 1e-7
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.Tol < 0 {
		return fmt.Errorf("tol must be non-negative, got %g", o.Tol)
	}
	if o.TimeLimitSeconds < 0 {
		return fmt.Errorf("time limit must be non-negative, got %g", o.TimeLimitSeconds)
	}
	return nil
}

// Status summarizes the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusError
)

// String returns a human-readable status.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "error"
	}
}

// Result holds a solved instance: the objective, every variable value and the
// per-stage cost expressions evaluated at the optimum.
type Result struct {
	Status     Status
	Objective  float64
	Values     map[string]float64
	StageCosts map[string]float64
}

var (
	// ErrIntegerModel is returned for models with integer or binary
	// variables when Options.Relax is off. Such models need an external MIP
	// solver.
	ErrIntegerModel = errors.New("solver: model has integer variables; enable relaxation or use an external MIP solver")
	// ErrNonconvexModel is returned for models carrying bilinear terms.
	// These require a nonconvex-capable external solver (NonConvex=2); the
	// feasible region must not be changed by linearizing in-process.
	ErrNonconvexModel = errors.New("solver: model has bilinear terms; requires a nonconvex-capable external solver")
	// ErrInfeasible indicates no feasible point exists.
	ErrInfeasible = errors.New("solver: infeasible")
	// ErrUnbounded indicates the objective is unbounded below.
	ErrUnbounded = errors.New("solver: unbounded")
)

// Solver solves a symbolic model instance.
type Solver interface {
	Solve(m *program.Model) (*Result, error)
}
