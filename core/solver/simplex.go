package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/wyattarnold/StageLP-WSOP/core/program"
)

// SimplexSolver solves pure continuous linear models with gonum's simplex.
type SimplexSolver struct {
	opts Options
}

// NewSimplexSolver returns a solver with the given options.
func NewSimplexSolver(opts Options) *SimplexSolver {
	opts.SetDefaults()
	return &SimplexSolver{opts: opts}
}

// lpSolve points to the function used to run the simplex. It can be
// overridden in tests to simulate solver failures.
var lpSolve = runSimplex

func runSimplex(c []float64, g *mat.Dense, h []float64, a *mat.Dense, b []float64, tol float64) ([]float64, error) {
	// Convert's nil checks are on the mat.Matrix interface; a nil *mat.Dense
	// would slip past them, so widen only the blocks that exist.
	var gIneq, aEq mat.Matrix
	if g != nil {
		gIneq = g
	}
	if a != nil {
		aEq = a
	}
	cStd, aStd, bStd := lp.Convert(c, gIneq, h, aEq, b)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, tol, nil)
	return sol, err
}

type standardForm struct {
	vars   []program.Var
	c      []float64
	offset float64
	gRows  [][]float64
	h      []float64
	aRows  [][]float64
	b      []float64
}

// Solve lowers the model to general LP form and runs the simplex. Integer
// models are refused unless Options.Relax is set; bilinear models are always
// refused.
func (s *SimplexSolver) Solve(m *program.Model) (*Result, error) {
	if !m.IsLinear() {
		return nil, fmt.Errorf("%w (model %s)", ErrNonconvexModel, m.Name)
	}
	if m.HasIntegers() && !s.opts.Relax {
		return nil, fmt.Errorf("%w (model %s)", ErrIntegerModel, m.Name)
	}

	sf, err := lower(m)
	if err != nil {
		return nil, err
	}

	n := len(sf.vars)
	var g *mat.Dense
	if len(sf.gRows) > 0 {
		g = mat.NewDense(len(sf.gRows), n, nil)
		for i, row := range sf.gRows {
			g.SetRow(i, row)
		}
	}
	// Convert rejects all-zero rows, so a model without equality constraints
	// gets no equality block at all.
	var a *mat.Dense
	if len(sf.aRows) > 0 {
		a = mat.NewDense(len(sf.aRows), n, nil)
		for i, row := range sf.aRows {
			a.SetRow(i, row)
		}
	}

	sol, err := lpSolve(sf.c, g, sf.h, a, sf.b, s.opts.Tol)
	if err != nil {
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return &Result{Status: StatusInfeasible}, ErrInfeasible
		case errors.Is(err, lp.ErrUnbounded):
			return &Result{Status: StatusUnbounded}, ErrUnbounded
		default:
			return nil, fmt.Errorf("simplex: %w", err)
		}
	}

	// Convert splits each free variable x into x⁺ − x⁻; the split pair sits
	// at positions i and n+i of the standard-form solution.
	values := make(map[string]float64, n)
	assignment := make(map[string]float64, n)
	for i, v := range sf.vars {
		x := sol[i] - sol[n+i]
		if math.Abs(x) < s.opts.Tol {
			x = 0
		}
		values[v.Name] = x
		assignment[v.Name] = x
	}

	obj := sf.offset
	for i := range sf.c {
		obj += sf.c[i] * assignment[sf.vars[i].Name]
	}

	stage := make(map[string]float64, len(m.Objective()))
	for _, name := range m.Objective() {
		v, err := m.EvalExpr(name, assignment)
		if err != nil {
			return nil, err
		}
		stage[name] = v
	}

	return &Result{Status: StatusOptimal, Objective: obj, Values: values, StageCosts: stage}, nil
}

// lower flattens the model into minimize c·x s.t. Gx <= h, Ax = b with
// variable bounds expressed as inequality rows, the form lp.Convert accepts.
func lower(m *program.Model) (*standardForm, error) {
	vars := m.Vars()
	idx := make(map[string]int, len(vars))
	for i, v := range vars {
		idx[v.Name] = i
	}
	sf := &standardForm{vars: vars, c: make([]float64, len(vars))}

	params := m.Params()
	obj := m.ObjectiveExpr()
	for _, t := range obj.Terms {
		i, ok := idx[t.Var]
		if !ok {
			return nil, fmt.Errorf("%w: objective variable %s", program.ErrUnknownName, t.Var)
		}
		sf.c[i] += t.Coef
	}
	sf.offset = obj.Const
	for _, t := range obj.Params {
		sf.offset += t.Coef * params[t.Param]
	}
	for _, t := range obj.ParamVars {
		i, ok := idx[t.Var]
		if !ok {
			return nil, fmt.Errorf("%w: objective variable %s", program.ErrUnknownName, t.Var)
		}
		p, ok := params[t.Param]
		if !ok {
			return nil, fmt.Errorf("%w: objective parameter %s", program.ErrUnknownName, t.Param)
		}
		sf.c[i] += t.Scale * p
	}

	for _, con := range m.Constraints() {
		row := make([]float64, len(vars))
		for _, t := range con.Body.Terms {
			i, ok := idx[t.Var]
			if !ok {
				return nil, fmt.Errorf("%w: constraint %s references %s", program.ErrUnknownName, con.Name, t.Var)
			}
			row[i] += t.Coef
		}
		shift := con.Body.Const
		for _, t := range con.Body.Params {
			p, ok := params[t.Param]
			if !ok {
				return nil, fmt.Errorf("%w: constraint %s references parameter %s", program.ErrUnknownName, con.Name, t.Param)
			}
			shift += t.Coef * p
		}
		for _, t := range con.Body.ParamVars {
			i, ok := idx[t.Var]
			if !ok {
				return nil, fmt.Errorf("%w: constraint %s references %s", program.ErrUnknownName, con.Name, t.Var)
			}
			p, ok := params[t.Param]
			if !ok {
				return nil, fmt.Errorf("%w: constraint %s references parameter %s", program.ErrUnknownName, con.Name, t.Param)
			}
			row[i] += t.Scale * p
		}
		switch {
		case con.Lower == con.Upper:
			sf.aRows = append(sf.aRows, row)
			sf.b = append(sf.b, con.Lower-shift)
		default:
			if !math.IsInf(con.Upper, 1) {
				sf.gRows = append(sf.gRows, row)
				sf.h = append(sf.h, con.Upper-shift)
			}
			if !math.IsInf(con.Lower, -1) {
				neg := make([]float64, len(row))
				for i, v := range row {
					neg[i] = -v
				}
				sf.gRows = append(sf.gRows, neg)
				sf.h = append(sf.h, -(con.Lower - shift))
			}
		}
	}

	// Bound rows. Convert treats variables as free, so even x >= 0 must be
	// stated explicitly.
	for i, v := range vars {
		if !math.IsInf(v.Upper, 1) {
			row := make([]float64, len(vars))
			row[i] = 1
			sf.gRows = append(sf.gRows, row)
			sf.h = append(sf.h, v.Upper)
		}
		if !math.IsInf(v.Lower, -1) {
			row := make([]float64, len(vars))
			row[i] = -1
			sf.gRows = append(sf.gRows, row)
			sf.h = append(sf.h, -v.Lower)
		}
	}
	return sf, nil
}
